// Package kind classifies bracket characters.
//
// Each Kind is tracked by its own independent index. The numeric value of a
// Kind doubles as its color offset, so nesting level 0 of a parenthesis and
// nesting level 0 of a square bracket are painted with different classes.
package kind

import (
	"fmt"
	"strings"
)

// Kind identifies a family of bracket characters.
type Kind uint8

const (
	// Paren is the parenthesis pair ( ).
	Paren Kind = iota

	// Bracket is the square bracket pair [ ].
	Bracket

	// Brace is the curly brace pair { }.
	Brace

	// Angle is the angle bracket pair < >.
	Angle

	// Count is the number of kinds.
	Count
)

// All lists every kind in color-offset order.
var All = [Count]Kind{Paren, Bracket, Brace, Angle}

var pairs = [Count][2]rune{
	Paren:   {'(', ')'},
	Bracket: {'[', ']'},
	Brace:   {'{', '}'},
	Angle:   {'<', '>'},
}

var names = [Count]string{
	Paren:   "paren",
	Bracket: "bracket",
	Brace:   "brace",
	Angle:   "angle",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if k >= Count {
		return "unknown"
	}
	return names[k]
}

// Index returns the kind's color offset.
func (k Kind) Index() int {
	return int(k)
}

// Pair returns the open and close characters of the kind.
func (k Kind) Pair() (open, close rune) {
	if k >= Count {
		return 0, 0
	}
	return pairs[k][0], pairs[k][1]
}

// Has reports whether r is an open or close character of this kind.
func (k Kind) Has(r rune) bool {
	return k.IsOpen(r) || k.IsClose(r)
}

// IsOpen reports whether r is the open character of this kind.
func (k Kind) IsOpen(r rune) bool {
	return k < Count && pairs[k][0] == r
}

// IsClose reports whether r is the close character of this kind.
func (k Kind) IsClose(r rune) bool {
	return k < Count && pairs[k][1] == r
}

// Of returns the kind r belongs to.
func Of(r rune) (Kind, bool) {
	for _, k := range All {
		if k.Has(r) {
			return k, true
		}
	}
	return Count, false
}

// IsOpen reports whether r opens a bracket of any kind.
func IsOpen(r rune) bool {
	k, ok := Of(r)
	return ok && k.IsOpen(r)
}

// Parse converts a kind name to a Kind. Plural and symbol forms are accepted.
func Parse(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paren", "parens", "parenthesis", "()":
		return Paren, nil
	case "bracket", "brackets", "square", "[]":
		return Bracket, nil
	case "brace", "braces", "curly", "{}":
		return Brace, nil
	case "angle", "angles", "<>":
		return Angle, nil
	default:
		return Count, fmt.Errorf("unknown bracket kind %q", s)
	}
}

// Set is a bitset of kinds.
type Set uint8

// DefaultSet enables every kind except Angle. Angle brackets double as
// comparison operators in most languages and produce more noise than signal.
const DefaultSet = Set(1<<Paren | 1<<Bracket | 1<<Brace)

// SetOf builds a Set from kinds.
func SetOf(kinds ...Kind) Set {
	var s Set
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// ParseSet builds a Set from kind names.
func ParseSet(names []string) (Set, error) {
	var s Set
	for _, name := range names {
		k, err := Parse(name)
		if err != nil {
			return 0, err
		}
		s = s.With(k)
	}
	return s, nil
}

// Has reports whether k is in the set.
func (s Set) Has(k Kind) bool {
	return k < Count && s&(1<<k) != 0
}

// With returns the set with k added.
func (s Set) With(k Kind) Set {
	if k >= Count {
		return s
	}
	return s | 1<<k
}

// Without returns the set with k removed.
func (s Set) Without(k Kind) Set {
	if k >= Count {
		return s
	}
	return s &^ (1 << k)
}

// Kinds returns the members in color-offset order.
func (s Set) Kinds() []Kind {
	out := make([]Kind, 0, Count)
	for _, k := range All {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Names returns the member names in color-offset order.
func (s Set) Names() []string {
	kinds := s.Kinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}
