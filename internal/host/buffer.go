// Package host is a reference host for the bracket trackers: an editable
// text buffer with lexer styles and a brace-match primitive, an in-memory
// indicator canvas, and a chroma-based styler.
//
// Positions are rune offsets. Edits notify attached listeners in attach
// order after the text has changed, the way an editing component reports
// modifications.
package host

import (
	"errors"
	"slices"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/bracketcolor/internal/bracket/kind"
)

// ErrClosed is returned by edits on a closed buffer.
var ErrClosed = errors.New("buffer closed")

// ErrOutOfRange is returned for edit positions outside the buffer.
var ErrOutOfRange = errors.New("position out of range")

// Listener receives modification notifications.
type Listener interface {
	OnTextInserted(pos, length int)
	OnTextDeleted(pos, length int)
	OnStyleChanged(pos, length int)
}

// Buffer is an editable document.
type Buffer struct {
	text       []rune
	styles     []int
	listeners  []Listener
	background colorful.Color
	closed     bool
}

// NewBuffer creates a buffer holding text, all in the default style, on a
// white background.
func NewBuffer(text string) *Buffer {
	runes := []rune(text)
	return &Buffer{
		text:       runes,
		styles:     make([]int, len(runes)),
		background: colorful.Color{R: 1, G: 1, B: 1},
	}
}

// Attach registers a listener.
func (b *Buffer) Attach(l Listener) {
	b.listeners = append(b.listeners, l)
}

// Detach unregisters a listener.
func (b *Buffer) Detach(l Listener) {
	b.listeners = slices.DeleteFunc(b.listeners, func(x Listener) bool { return x == l })
}

// Text returns the buffer contents.
func (b *Buffer) Text() string {
	return string(b.text)
}

// Length returns the number of positions.
func (b *Buffer) Length() int {
	if b.closed {
		return 0
	}
	return len(b.text)
}

// CharAt returns the character at pos.
func (b *Buffer) CharAt(pos int) (rune, bool) {
	if b.closed || pos < 0 || pos >= len(b.text) {
		return 0, false
	}
	return b.text[pos], true
}

// StyleAt returns the style at pos.
func (b *Buffer) StyleAt(pos int) (int, bool) {
	if b.closed || pos < 0 || pos >= len(b.styles) {
		return 0, false
	}
	return b.styles[pos], true
}

// Styles returns a copy of all styles.
func (b *Buffer) Styles() []int {
	return slices.Clone(b.styles)
}

// Insert inserts s at pos. New text takes the default style until restyled.
func (b *Buffer) Insert(pos int, s string) error {
	if b.closed {
		return ErrClosed
	}
	if pos < 0 || pos > len(b.text) {
		return ErrOutOfRange
	}
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}

	b.text = slices.Insert(b.text, pos, runes...)
	b.styles = slices.Insert(b.styles, pos, make([]int, len(runes))...)

	for _, l := range b.listeners {
		l.OnTextInserted(pos, len(runes))
	}
	return nil
}

// Delete removes n positions starting at pos.
func (b *Buffer) Delete(pos, n int) error {
	if b.closed {
		return ErrClosed
	}
	if pos < 0 || n < 0 || pos+n > len(b.text) {
		return ErrOutOfRange
	}
	if n == 0 {
		return nil
	}

	b.text = slices.Delete(b.text, pos, pos+n)
	b.styles = slices.Delete(b.styles, pos, pos+n)

	for _, l := range b.listeners {
		l.OnTextDeleted(pos, n)
	}
	return nil
}

// SetStyles overwrites styles starting at pos.
func (b *Buffer) SetStyles(pos int, styles []int) error {
	if b.closed {
		return ErrClosed
	}
	if pos < 0 || pos+len(styles) > len(b.styles) {
		return ErrOutOfRange
	}
	if len(styles) == 0 {
		return nil
	}

	copy(b.styles[pos:], styles)

	for _, l := range b.listeners {
		l.OnStyleChanged(pos, len(styles))
	}
	return nil
}

// FindMatch returns the position of the bracket matching the one at pos.
// Only brackets of the same kind and the same style as the one at pos are
// counted, so a parenthesis in a comment never matches one in code.
func (b *Buffer) FindMatch(pos int) (int, bool) {
	ch, ok := b.CharAt(pos)
	if !ok {
		return 0, false
	}
	k, ok := kind.Of(ch)
	if !ok {
		return 0, false
	}
	open, close := k.Pair()
	seek, dir := close, 1
	if ch == close {
		seek, dir = open, -1
	}
	style := b.styles[pos]

	depth := 1
	for p := pos + dir; p >= 0 && p < len(b.text); p += dir {
		if b.styles[p] != style {
			continue
		}
		switch b.text[p] {
		case ch:
			depth++
		case seek:
			depth--
			if depth == 0 {
				return p, true
			}
		}
	}
	return 0, false
}

// Background returns the default background color.
func (b *Buffer) Background() colorful.Color {
	return b.background
}

// SetBackground changes the default background color.
func (b *Buffer) SetBackground(c colorful.Color) {
	b.background = c
}

// Close makes every query fail and every edit return ErrClosed.
func (b *Buffer) Close() {
	b.closed = true
}

// Closed reports whether the buffer is closed.
func (b *Buffer) Closed() bool {
	return b.closed
}
