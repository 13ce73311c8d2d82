package tracker

import (
	"iter"

	"github.com/google/btree"
)

// positionSet is an ordered set of buffer positions.
type positionSet struct {
	tree *btree.BTreeG[int]
}

func newPositionSet() *positionSet {
	return &positionSet{tree: btree.NewOrderedG[int](16)}
}

func (s *positionSet) add(pos int) {
	s.tree.ReplaceOrInsert(pos)
}

func (s *positionSet) remove(pos int) bool {
	_, ok := s.tree.Delete(pos)
	return ok
}

func (s *positionSet) has(pos int) bool {
	return s.tree.Has(pos)
}

func (s *positionSet) len() int {
	return s.tree.Len()
}

func (s *positionSet) clear() {
	s.tree.Clear(false)
}

// popMin removes and returns the lowest position.
func (s *positionSet) popMin() (int, bool) {
	return s.tree.DeleteMin()
}

func (s *positionSet) all() iter.Seq[int] {
	return func(yield func(int) bool) {
		s.tree.Ascend(func(pos int) bool {
			return yield(pos)
		})
	}
}

// shiftFrom moves every position >= from by delta and returns how many
// moved. Positions that would become negative are dropped.
func (s *positionSet) shiftFrom(from, delta int) int {
	var moved []int
	s.tree.AscendGreaterOrEqual(from, func(pos int) bool {
		moved = append(moved, pos)
		return true
	})
	for _, pos := range moved {
		s.tree.Delete(pos)
	}
	for _, pos := range moved {
		if pos+delta >= 0 {
			s.tree.ReplaceOrInsert(pos + delta)
		}
	}
	return len(moved)
}

// removeRange deletes positions in [lo, hi) and returns how many were
// removed.
func (s *positionSet) removeRange(lo, hi int) int {
	var doomed []int
	s.tree.AscendRange(lo, hi, func(pos int) bool {
		doomed = append(doomed, pos)
		return true
	})
	for _, pos := range doomed {
		s.tree.Delete(pos)
	}
	return len(doomed)
}
