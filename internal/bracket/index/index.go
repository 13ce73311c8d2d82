// Package index maps bracket open positions to their match length and
// nesting order.
//
// An Index holds one entry per open bracket of a single kind in a single
// document. A matched pair is keyed by its open position only; the close
// position is Start plus the match length. Entries for openers whose match
// could not be found are kept as Unmatched so a later edit can revisit them,
// but they take no part in order computation or rendering.
//
// The index knows nothing about text, styles or rendering. Keeping it in
// sync with the buffer is the job of the tracker package.
package index

import (
	"fmt"
	"iter"

	"github.com/google/btree"
)

// btreeDegree is the fan-out of the backing tree.
const btreeDegree = 16

// undefinedOrder marks an entry that has no nesting order.
const undefinedOrder = -1

// Match is the distance from an open bracket to its counterpart, or the
// absence of one.
type Match struct {
	length  int
	matched bool
}

// Unmatched is the Match of an opener with no counterpart.
var Unmatched = Match{}

// Matched returns a Match of the given length.
func Matched(length int) Match {
	return Match{length: length, matched: true}
}

// Length returns the match length and whether the bracket is matched.
func (m Match) Length() (int, bool) {
	return m.length, m.matched
}

// IsMatched reports whether the bracket has a counterpart.
func (m Match) IsMatched() bool {
	return m.matched
}

// String returns the length, or "unmatched".
func (m Match) String() string {
	if !m.matched {
		return "unmatched"
	}
	return fmt.Sprintf("%d", m.length)
}

// Entry is one open bracket in the index.
type Entry struct {
	// Start is the open bracket position.
	Start int

	// Match is the distance to the close bracket.
	Match Match

	order int
}

// Order returns the nesting depth (0 is outermost) and whether it is
// defined. Unmatched entries never have an order.
func (e Entry) Order() (int, bool) {
	if e.order == undefinedOrder {
		return 0, false
	}
	return e.order, true
}

// End returns the close bracket position.
func (e Entry) End() (int, bool) {
	length, ok := e.Match.Length()
	if !ok {
		return 0, false
	}
	return e.Start + length, true
}

// String formats the entry for debugging.
func (e Entry) String() string {
	order, ok := e.Order()
	if !ok {
		return fmt.Sprintf("%d:%s", e.Start, e.Match)
	}
	return fmt.Sprintf("%d:%s@%d", e.Start, e.Match, order)
}

// Index is an ordered map from open position to Entry.
//
// Index is not safe for concurrent use.
type Index struct {
	tree      *btree.BTreeG[*Entry]
	crossings int
}

func lessByStart(a, b *Entry) bool {
	return a.Start < b.Start
}

// New creates an empty index.
func New() *Index {
	return &Index{
		tree: btree.NewG(btreeDegree, lessByStart),
	}
}

// Upsert records the match at position. An existing entry keeps its order
// until the next ComputeOrder; a new entry starts at order 0.
func (ix *Index) Upsert(position int, m Match) {
	if e, ok := ix.tree.Get(&Entry{Start: position}); ok {
		e.Match = m
		return
	}
	ix.tree.ReplaceOrInsert(&Entry{Start: position, Match: m})
}

// Remove deletes the entry at position and returns it.
func (ix *Index) Remove(position int) (Entry, bool) {
	e, ok := ix.tree.Delete(&Entry{Start: position})
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Get returns the entry at position.
func (ix *Index) Get(position int) (Entry, bool) {
	e, ok := ix.tree.Get(&Entry{Start: position})
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Has reports whether position is a key.
func (ix *Index) Has(position int) bool {
	return ix.tree.Has(&Entry{Start: position})
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return ix.tree.Len()
}

// Clear removes every entry.
func (ix *Index) Clear() {
	ix.tree.Clear(false)
	ix.crossings = 0
}

// Shift moves the entries at positions by delta, keeping their match and
// order. All entries are detached before any is reinserted, so a moved entry
// never lands on a neighbor that has yet to move. Positions without an entry
// are ignored.
func (ix *Index) Shift(positions []int, delta int) {
	if delta == 0 || len(positions) == 0 {
		return
	}

	moved := make([]*Entry, 0, len(positions))
	for _, pos := range positions {
		if e, ok := ix.tree.Delete(&Entry{Start: pos}); ok {
			moved = append(moved, e)
		}
	}
	for _, e := range moved {
		e.Start += delta
		ix.tree.ReplaceOrInsert(e)
	}
}

// Entries yields (position, entry) pairs in ascending position order.
// The index must not be mutated while the sequence is being consumed.
func (ix *Index) Entries() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		ix.tree.Ascend(func(e *Entry) bool {
			return yield(e.Start, *e)
		})
	}
}

// Crossings returns how many matched entries the last ComputeOrder found
// overlapping an enclosing range without being nested in it.
func (ix *Index) Crossings() int {
	return ix.crossings
}

// ComputeOrder assigns a nesting depth to every entry and returns the
// positions whose order changed.
//
// Entries are visited in ascending start order with a stack of the end
// positions of the ranges enclosing the scan point. Unmatched entries get
// no order and leave the stack alone. Ranges that overlap without nesting
// still receive the order the stack yields and are counted in Crossings.
func (ix *Index) ComputeOrder() []int {
	var (
		changed []int
		ends    []int
	)
	ix.crossings = 0

	ix.tree.Ascend(func(e *Entry) bool {
		prev := e.order

		length, ok := e.Match.Length()
		if !ok {
			e.order = undefinedOrder
			if prev != e.order {
				changed = append(changed, e.Start)
			}
			return true
		}

		end := e.Start + length
		switch {
		case len(ends) == 0:
		case e.Start > ends[len(ends)-1]:
			// Not nested in the innermost range: close everything that
			// ended before this entry starts.
			for len(ends) > 0 && ends[len(ends)-1] < e.Start {
				ends = ends[:len(ends)-1]
			}
			if len(ends) > 0 && end > ends[len(ends)-1] {
				ix.crossings++
			}
		default:
			if end > ends[len(ends)-1] {
				ix.crossings++
			}
		}
		ends = append(ends, end)

		e.order = len(ends) - 1
		if prev != e.order {
			changed = append(changed, e.Start)
		}
		return true
	})

	return changed
}
