package term

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/bracketcolor/internal/host"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func cell(s tcell.Screen, x, y int) (rune, tcell.Style) {
	r, _, st, _ := s.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
	return r, st
}

func TestPaintColorsMarks(t *testing.T) {
	screen := newScreen(t, 20, 4)
	buf := host.NewBuffer("f(x)\n\t[y]")
	canvas := host.NewCanvas()
	canvas.DefineClasses([]colorful.Color{{R: 1}, {G: 1}})
	canvas.SetIndicator(0, 1)
	canvas.SetIndicator(1, 8)

	NewPainter(screen).Paint(buf, canvas)

	if r, _ := cell(screen, 0, 0); r != 'f' {
		t.Errorf("cell(0,0) = %q, want f", r)
	}
	r, st := cell(screen, 1, 0)
	if r != '(' {
		t.Errorf("cell(1,0) = %q, want (", r)
	}
	if fg, _, attrs := st.Decompose(); fg != tcell.NewRGBColor(255, 0, 0) || attrs&tcell.AttrUnderline == 0 {
		t.Errorf("opener style = %v %v, want underlined red", fg, attrs)
	}
	if _, st := cell(screen, 3, 0); st != tcell.StyleDefault {
		t.Error("unmarked closer was styled")
	}

	// The tab expands to column 4.
	if r, _ := cell(screen, 4, 1); r != '[' {
		t.Errorf("cell(4,1) = %q, want [", r)
	}
	r, st = cell(screen, 6, 1)
	if r != ']' {
		t.Errorf("cell(6,1) = %q, want ]", r)
	}
	if fg, _, _ := st.Decompose(); fg != tcell.NewRGBColor(0, 255, 0) {
		t.Errorf("closer fg = %v, want green", fg)
	}
}

func TestPaintWideRunes(t *testing.T) {
	screen := newScreen(t, 10, 2)
	buf := host.NewBuffer("世(a)")
	NewPainter(screen).Paint(buf, host.NewCanvas())

	if r, _ := cell(screen, 2, 0); r != '(' {
		t.Errorf("cell(2,0) = %q, want ( after a wide rune", r)
	}
}

func TestScroll(t *testing.T) {
	screen := newScreen(t, 10, 2)
	buf := host.NewBuffer("a\nb\nc")
	p := NewPainter(screen, WithTabWidth(8))

	p.Scroll(1)
	p.Paint(buf, host.NewCanvas())
	if r, _ := cell(screen, 0, 0); r != 'b' {
		t.Errorf("top row = %q, want b", r)
	}

	p.Scroll(-5)
	if p.Top() != 0 {
		t.Errorf("Top() = %d, want 0", p.Top())
	}
}

func TestBackground(t *testing.T) {
	screen := newScreen(t, 4, 1)
	if _, ok := NewPainter(screen).Background(); ok {
		t.Error("default style reported a background")
	}

	base := tcell.StyleDefault.Background(tcell.NewRGBColor(0, 0, 0))
	bg, ok := NewPainter(screen, WithBaseStyle(base)).Background()
	if !ok || bg != (colorful.Color{}) {
		t.Errorf("Background() = %v, %v; want black", bg, ok)
	}
}
