// Package classify decides which buffer styles hide brackets from tracking.
//
// Brackets inside comments, strings, docstrings and similar regions are not
// structural and must not be colored. The host lexer assigns a style id to
// every position; a classifier maps style ids to "ignorable".
package classify

import "slices"

// DefaultIgnoreStyles are the style ids of comments, doc comments, numbers,
// strings, characters and preprocessor text in the common C-family lexer
// numbering.
var DefaultIgnoreStyles = []int{1, 2, 3, 4, 6, 7, 9}

// StyleSet is a classifier backed by a fixed set of style ids.
type StyleSet struct {
	ignore map[int]struct{}
}

// NewStyleSet creates a classifier that ignores the given styles.
func NewStyleSet(styles ...int) *StyleSet {
	s := &StyleSet{ignore: make(map[int]struct{}, len(styles))}
	for _, style := range styles {
		s.ignore[style] = struct{}{}
	}
	return s
}

// DefaultStyleSet returns a classifier for DefaultIgnoreStyles.
func DefaultStyleSet() *StyleSet {
	return NewStyleSet(DefaultIgnoreStyles...)
}

// IsIgnorable reports whether style hides brackets.
func (s *StyleSet) IsIgnorable(style int) bool {
	_, ok := s.ignore[style]
	return ok
}

// Styles returns the ignored styles in ascending order.
func (s *StyleSet) Styles() []int {
	out := make([]int, 0, len(s.ignore))
	for style := range s.ignore {
		out = append(out, style)
	}
	slices.Sort(out)
	return out
}
