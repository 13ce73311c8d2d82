// Package term draws a host buffer and its bracket indicators to a terminal
// screen.
package term

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/bracketcolor/internal/host"
)

// DefaultTabWidth is the column width of a tab stop.
const DefaultTabWidth = 4

// Painter renders buffer text with indicator colors applied to marked
// positions.
type Painter struct {
	screen   tcell.Screen
	base     tcell.Style
	tabWidth int
	top      int
	mu       sync.Mutex
}

// Option configures a Painter.
type Option func(*Painter)

// WithBaseStyle sets the style of unmarked text.
func WithBaseStyle(st tcell.Style) Option {
	return func(p *Painter) {
		p.base = st
	}
}

// WithTabWidth sets the tab stop width.
func WithTabWidth(n int) Option {
	return func(p *Painter) {
		if n > 0 {
			p.tabWidth = n
		}
	}
}

// NewPainter creates a painter for an initialized screen.
func NewPainter(screen tcell.Screen, opts ...Option) *Painter {
	p := &Painter{
		screen:   screen,
		base:     tcell.StyleDefault,
		tabWidth: DefaultTabWidth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Top returns the first visible line.
func (p *Painter) Top() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.top
}

// Scroll moves the first visible line by delta, stopping at line 0.
func (p *Painter) Scroll(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.top = max(0, p.top+delta)
}

// Background returns the background of the base style. It reports false
// when the base style uses the terminal default.
func (p *Painter) Background() (colorful.Color, bool) {
	_, bg, _ := p.base.Decompose()
	if bg == tcell.ColorDefault || !bg.Valid() {
		return colorful.Color{}, false
	}
	r, g, b := bg.RGB()
	if r < 0 {
		return colorful.Color{}, false
	}
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, true
}

// Paint clears the screen and draws the visible part of buf. Positions
// marked on canvas are drawn underlined in their class color.
func (p *Painter) Paint(buf *host.Buffer, canvas *host.Canvas) {
	p.mu.Lock()
	defer p.mu.Unlock()

	width, height := p.screen.Size()
	p.screen.Fill(' ', p.base)

	line, x := 0, 0
	for pos, r := range []rune(buf.Text()) {
		if r == '\n' {
			line++
			x = 0
			if line-p.top >= height {
				break
			}
			continue
		}
		y := line - p.top
		if y < 0 || x >= width {
			continue
		}

		st := p.base
		if c, ok := canvas.ColorAt(pos); ok {
			st = st.Foreground(toTcell(c)).Underline(true)
		}

		switch {
		case r == '\t':
			next := (x/p.tabWidth + 1) * p.tabWidth
			for ; x < next && x < width; x++ {
				p.screen.SetContent(x, y, ' ', nil, st)
			}
		case r == '\r':
		default:
			w := runewidth.RuneWidth(r)
			if w == 0 {
				continue
			}
			p.screen.SetContent(x, y, r, nil, st)
			x += w
		}
	}
	p.screen.Show()
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
