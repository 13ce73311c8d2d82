package host

import (
	"maps"

	"github.com/lucasb-eyer/go-colorful"
)

// Canvas stores indicators in memory. Attach it to a Buffer before any
// tracker listener so indicators move with the text the way an editing
// component's own indicators do.
type Canvas struct {
	marks   map[int]int
	classes []colorful.Color
}

// NewCanvas creates an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{marks: make(map[int]int)}
}

// SetIndicator marks pos with class, replacing any other class there.
func (c *Canvas) SetIndicator(class, pos int) {
	c.marks[pos] = class
}

// ClearIndicators removes marks from [pos, pos+length).
func (c *Canvas) ClearIndicators(pos, length int) {
	if length <= 0 {
		return
	}
	if length < len(c.marks) {
		for p := pos; p < pos+length; p++ {
			delete(c.marks, p)
		}
		return
	}
	for p := range c.marks {
		if p >= pos && p < pos+length {
			delete(c.marks, p)
		}
	}
}

// DefineClasses sets the color of each indicator class.
func (c *Canvas) DefineClasses(colors []colorful.Color) {
	c.classes = append(c.classes[:0], colors...)
}

// Classes returns the defined class colors.
func (c *Canvas) Classes() []colorful.Color {
	return append([]colorful.Color(nil), c.classes...)
}

// ClassAt returns the class marked at pos.
func (c *Canvas) ClassAt(pos int) (int, bool) {
	class, ok := c.marks[pos]
	return class, ok
}

// ColorAt returns the color of the class marked at pos.
func (c *Canvas) ColorAt(pos int) (colorful.Color, bool) {
	class, ok := c.marks[pos]
	if !ok || class < 0 || class >= len(c.classes) {
		return colorful.Color{}, false
	}
	return c.classes[class], true
}

// Marks returns a copy of every mark.
func (c *Canvas) Marks() map[int]int {
	return maps.Clone(c.marks)
}

// Len returns the number of marked positions.
func (c *Canvas) Len() int {
	return len(c.marks)
}

// OnTextInserted moves marks at or after pos right by length.
func (c *Canvas) OnTextInserted(pos, length int) {
	c.shift(pos, length)
}

// OnTextDeleted drops marks in the deleted range and moves later marks left.
func (c *Canvas) OnTextDeleted(pos, length int) {
	next := make(map[int]int, len(c.marks))
	for p, class := range c.marks {
		switch {
		case p < pos:
			next[p] = class
		case p >= pos+length:
			next[p-length] = class
		}
	}
	c.marks = next
}

// OnStyleChanged is a no-op; styles do not move marks.
func (c *Canvas) OnStyleChanged(int, int) {}

func (c *Canvas) shift(from, delta int) {
	next := make(map[int]int, len(c.marks))
	for p, class := range c.marks {
		if p >= from {
			p += delta
		}
		next[p] = class
	}
	c.marks = next
}
