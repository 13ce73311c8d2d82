package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/bracketcolor/internal/bracket/kind"
	"github.com/dshills/bracketcolor/internal/classify"
	"github.com/dshills/bracketcolor/internal/config"
	"github.com/dshills/bracketcolor/internal/host"
	"github.com/dshills/bracketcolor/internal/palette"
	"github.com/dshills/bracketcolor/internal/sched"
)

type doc struct {
	buf     *host.Buffer
	canvas  *host.Canvas
	session *Session
}

func openDoc(t *testing.T, r *Registry, name, text string) *doc {
	t.Helper()
	buf := host.NewBuffer(text)
	canvas := host.NewCanvas()
	s, err := r.Open(name, buf, canvas)
	if err != nil {
		t.Fatalf("Open(%s): %v", name, err)
	}
	buf.Attach(canvas)
	buf.Attach(s)
	return &doc{buf: buf, canvas: canvas, session: s}
}

func newTestRegistry() (*Registry, *sched.Manual) {
	m := sched.NewManual()
	return NewRegistry(m), m
}

func TestOpenSchedulesTimers(t *testing.T) {
	r, clock := newTestRegistry()
	d := openDoc(t, r, "a.c", "f(x[1]) {y}")

	if got := clock.Pending(); got != 2 {
		t.Fatalf("Pending() = %d, want 2 timers", got)
	}
	if !d.session.Running() {
		t.Error("session not running after Open")
	}
	if act, ok := r.Active(); !ok || act != d.session {
		t.Error("opened document is not active")
	}

	clock.Advance(20 * time.Millisecond)
	if d.canvas.Len() != 0 {
		t.Error("painted before the redraw tick")
	}
	if !d.session.NeedsRedraw() {
		t.Error("recompute did not request a redraw")
	}

	clock.Advance(80 * time.Millisecond)
	if got := d.canvas.Len(); got != 6 {
		t.Errorf("canvas has %d marks, want 6: %v", got, d.canvas.Marks())
	}

	// Each kind starts at its own color offset.
	for pos, k := range map[int]kind.Kind{1: kind.Paren, 3: kind.Bracket, 8: kind.Brace} {
		if c, _ := d.canvas.ClassAt(pos); c != palette.Class(0, k.Index(), 3) {
			t.Errorf("ClassAt(%d) = %d, want %s offset", pos, c, k)
		}
	}
}

func TestIterationLimitPerTick(t *testing.T) {
	settings := DefaultSettings()
	settings.Kinds = kind.SetOf(kind.Paren)
	clock := sched.NewManual()
	r := NewRegistry(clock, WithSettings(settings))
	d := openDoc(t, r, "deep", strings.Repeat("(", 120))
	tr, _ := d.session.Tracker(kind.Paren)

	for i, want := range []int{70, 20, 0} {
		clock.Advance(20 * time.Millisecond)
		if got := tr.PendingRecompute(); got != want {
			t.Errorf("after tick %d PendingRecompute() = %d, want %d", i+1, got, want)
		}
	}
	if got := r.Metrics().Snapshot().PositionsProcessed; got != 120 {
		t.Errorf("PositionsProcessed = %d, want 120", got)
	}
}

func TestEditsReachTrackers(t *testing.T) {
	r, clock := newTestRegistry()
	d := openDoc(t, r, "ab", "x = 1")
	clock.Advance(100 * time.Millisecond)

	if err := d.buf.Insert(4, "(y)"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(100 * time.Millisecond)

	tr, _ := d.session.Tracker(kind.Paren)
	if _, ok := tr.Index().Get(4); !ok {
		t.Fatal("inserted pair not indexed")
	}
	if _, ok := d.canvas.ClassAt(6); !ok {
		t.Error("inserted closer not painted")
	}

	if err := d.buf.Delete(4, 3); err != nil {
		t.Fatal(err)
	}
	clock.Advance(100 * time.Millisecond)
	if tr.Index().Len() != 0 || d.canvas.Len() != 0 {
		t.Errorf("after delete: %d entries, %d marks", tr.Index().Len(), d.canvas.Len())
	}
}

func TestInsertClearsIndicators(t *testing.T) {
	r, _ := newTestRegistry()
	d := openDoc(t, r, "ab", "abc")
	d.canvas.SetIndicator(1, 1)

	// Notify the session directly, as a host whose indicators do not move
	// with the text would.
	d.session.OnTextInserted(1, 1)
	if _, ok := d.canvas.ClassAt(1); ok {
		t.Error("indicator over inserted text survived")
	}
}

func TestIdleSuspend(t *testing.T) {
	r, clock := newTestRegistry()
	a := openDoc(t, r, "a", "(a)")
	b := openDoc(t, r, "b", "[b]")

	if r.IsActive(a.session.Handle()) {
		t.Fatal("a still active after opening b")
	}

	clock.Advance(20 * time.Millisecond)
	if a.session.Running() {
		t.Error("inactive session kept its timers")
	}
	if got := clock.Pending(); got != 2 {
		t.Errorf("Pending() = %d, want 2", got)
	}
	if got := r.Metrics().Snapshot().Suspensions; got != 1 {
		t.Errorf("Suspensions = %d, want 1", got)
	}

	// Edits to a suspended document are still tracked.
	if err := a.buf.Insert(0, "("); err != nil {
		t.Fatal(err)
	}

	if err := r.Activate(a.session.Handle()); err != nil {
		t.Fatal(err)
	}
	if got := clock.Pending(); got != 4 {
		t.Errorf("Pending() after Activate = %d, want 4", got)
	}

	clock.Advance(100 * time.Millisecond)
	if b.session.Running() {
		t.Error("b kept running after a was activated")
	}
	tr, _ := a.session.Tracker(kind.Paren)
	if e, ok := tr.Index().Get(1); !ok || !e.Match.IsMatched() {
		t.Errorf("entry 1 = %v, %v; want the shifted pair", e, ok)
	}
	if _, ok := a.canvas.ClassAt(3); !ok {
		t.Error("a not painted after activation")
	}
}

func TestCloseClearsEverything(t *testing.T) {
	r, clock := newTestRegistry()
	d := openDoc(t, r, "c", "{()}")
	clock.Advance(100 * time.Millisecond)
	if d.canvas.Len() != 4 {
		t.Fatalf("canvas has %d marks, want 4", d.canvas.Len())
	}
	h := d.session.Handle()

	if err := r.Close(h); err != nil {
		t.Fatal(err)
	}
	if d.canvas.Len() != 0 {
		t.Errorf("canvas has %d marks after Close", d.canvas.Len())
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d after Close", clock.Pending())
	}
	if !d.session.Closed() {
		t.Error("Closed() = false")
	}

	if _, err := r.Get(h); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Get after Close = %v, want ErrDocumentNotFound", err)
	}
	if err := r.Close(h); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("second Close = %v, want ErrDocumentNotFound", err)
	}
	if err := d.session.Flush(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Flush after Close = %v, want ErrSessionClosed", err)
	}
	if err := d.session.SetKindEnabled(kind.Angle, true); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("SetKindEnabled after Close = %v, want ErrSessionClosed", err)
	}

	// Edits after close are ignored.
	if err := d.buf.Insert(0, "("); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	if d.canvas.Len() != 0 {
		t.Error("closed session painted")
	}
}

func TestCloseAll(t *testing.T) {
	r, clock := newTestRegistry()
	docs := []*doc{
		openDoc(t, r, "1", "()"),
		openDoc(t, r, "2", "[]"),
		openDoc(t, r, "3", "{}"),
	}
	if err := docs[0].session.Flush(); err != nil {
		t.Fatal(err)
	}

	r.CloseAll()
	if r.Len() != 0 || clock.Pending() != 0 {
		t.Errorf("Len() = %d, Pending() = %d after CloseAll", r.Len(), clock.Pending())
	}
	if _, ok := r.Active(); ok {
		t.Error("Active() still set")
	}
	for _, d := range docs {
		if !d.session.Closed() || d.canvas.Len() != 0 {
			t.Errorf("%s not cleaned up", d.session.Name())
		}
	}
}

func TestOpenInvalid(t *testing.T) {
	r, _ := newTestRegistry()
	if _, err := r.Open("x", nil, host.NewCanvas()); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("Open(nil buffer) = %v", err)
	}
	if err := r.Activate(NewHandle()); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Activate(unknown) = %v", err)
	}
}

func TestBackgroundSwitchesPalette(t *testing.T) {
	r, clock := newTestRegistry()
	d := openDoc(t, r, "bg", "(x)")

	light := palette.DefaultScheme().Light
	if got := d.canvas.Classes(); len(got) != 3 || got[0] != light.Color(0) {
		t.Fatalf("initial classes = %v, want light palette", got)
	}
	clock.Advance(100 * time.Millisecond)

	d.buf.SetBackground(colorful.Color{R: 0.1, G: 0.1, B: 0.1})
	clock.Advance(100 * time.Millisecond)

	dark := palette.DefaultScheme().Dark
	if got := d.canvas.Classes(); got[0] != dark.Color(0) {
		t.Errorf("classes after dark background = %v, want dark palette", got)
	}
	if !d.session.Palette().Equal(dark) {
		t.Error("session palette not switched")
	}
	if got := r.Metrics().Snapshot().PaletteSwitches; got != 1 {
		t.Errorf("PaletteSwitches = %d, want 1", got)
	}

	// Another dark shade keeps the palette.
	d.buf.SetBackground(colorful.Color{R: 0.2, G: 0.2, B: 0.2})
	clock.Advance(100 * time.Millisecond)
	if got := r.Metrics().Snapshot().PaletteSwitches; got != 1 {
		t.Errorf("PaletteSwitches = %d after same-class change, want 1", got)
	}
}

func TestSetKindEnabled(t *testing.T) {
	r, _ := newTestRegistry()
	d := openDoc(t, r, "k", "<a>(b)")

	if err := d.session.SetKindEnabled(kind.Angle, true); err != nil {
		t.Fatal(err)
	}
	if err := d.session.Flush(); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.canvas.ClassAt(2); !ok {
		t.Error("angle closer not painted")
	}
	if !d.session.Kinds().Has(kind.Angle) {
		t.Error("Kinds() lacks angle")
	}

	if err := d.session.SetKindEnabled(kind.Angle, false); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.canvas.ClassAt(0); ok {
		t.Error("angle indicators survived disabling")
	}
	if _, ok := d.canvas.ClassAt(3); !ok {
		t.Error("paren indicators lost when disabling angle")
	}
	if _, ok := d.session.Tracker(kind.Angle); ok {
		t.Error("angle tracker still present")
	}
	if err := d.session.SetKindEnabled(kind.Count, true); err == nil {
		t.Error("SetKindEnabled(Count) succeeded")
	}
}

func TestApplyConfig(t *testing.T) {
	r, clock := newTestRegistry()
	d := openDoc(t, r, "cfg", "(a)[b]")
	clock.Advance(100 * time.Millisecond)
	if d.canvas.Len() != 4 {
		t.Fatalf("canvas has %d marks, want 4", d.canvas.Len())
	}

	cfg := config.Default()
	cfg.Kinds = []string{"bracket"}
	cfg.RecomputeIntervalMS = 10
	if err := r.Apply(cfg); err != nil {
		t.Fatal(err)
	}

	if _, ok := d.session.Tracker(kind.Paren); ok {
		t.Error("paren tracker survived")
	}
	if _, ok := d.canvas.ClassAt(0); ok {
		t.Error("paren indicators survived")
	}
	if got := r.Settings().RecomputeInterval; got != 10*time.Millisecond {
		t.Errorf("RecomputeInterval = %v", got)
	}

	clock.Advance(100 * time.Millisecond)
	if _, ok := d.canvas.ClassAt(3); !ok {
		t.Error("bracket pair not repainted after rescan")
	}
	if got := d.canvas.Len(); got != 2 {
		t.Errorf("canvas has %d marks, want 2", got)
	}
}

func TestApplyClassifierScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "styles.lua")
	src := `function is_ignorable(style) return style == 5 or default_ignorable(style) end`
	if err := os.WriteFile(script, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	r, _ := newTestRegistry()
	d := openDoc(t, r, "lua", "(a)(b)")
	if err := d.buf.SetStyles(3, []int{5, 5, 5}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.ClassifierScript = script
	if err := r.Apply(cfg); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Settings().Classifier.(*classify.Script); !ok {
		t.Fatalf("Classifier = %T, want *classify.Script", r.Settings().Classifier)
	}

	if err := d.session.Flush(); err != nil {
		t.Fatal(err)
	}
	tr, _ := d.session.Tracker(kind.Paren)
	if tr.Index().Len() != 1 {
		t.Errorf("Len() = %d, want 1 (style 5 ignored)", tr.Index().Len())
	}

	cfg.ClassifierScript = filepath.Join(dir, "missing.lua")
	if err := r.Apply(cfg); err == nil {
		t.Error("Apply with missing script succeeded")
	}
}

func TestApplyUnchangedClassifierKeepsTrackers(t *testing.T) {
	r, clock := newTestRegistry()
	d := openDoc(t, r, "same", "(a)[b]")
	clock.Advance(100 * time.Millisecond)
	before, _ := d.session.Tracker(kind.Paren)
	classifier := r.Settings().Classifier

	cfg := config.Default()
	cfg.LogLevel = "debug"
	cfg.Colors.Light = []string{"#111111", "#222222", "#333333"}
	for range 2 {
		if err := r.Apply(cfg); err != nil {
			t.Fatal(err)
		}
	}

	after, _ := d.session.Tracker(kind.Paren)
	if after != before || !after.Initialized() {
		t.Error("paren tracker was rebuilt")
	}
	if r.Settings().Classifier != classifier {
		t.Error("classifier replaced although its inputs are unchanged")
	}
	if got := d.canvas.Len(); got != 4 {
		t.Errorf("canvas has %d marks after apply, want 4", got)
	}

	cfg.IgnoreStyles = []int{1}
	if err := r.Apply(cfg); err != nil {
		t.Fatal(err)
	}
	if tr, _ := d.session.Tracker(kind.Paren); tr == before {
		t.Error("tracker kept after ignore_styles changed")
	}
}

func TestApplyReloadsEditedScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), "styles.lua")
	write := func(src string) {
		t.Helper()
		if err := os.WriteFile(script, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(`function is_ignorable(style) return style == 5 end`)

	r, _ := newTestRegistry()
	cfg := config.Default()
	cfg.ClassifierScript = script
	if err := r.Apply(cfg); err != nil {
		t.Fatal(err)
	}
	first := r.Settings().Classifier

	if err := r.Apply(cfg); err != nil {
		t.Fatal(err)
	}
	if r.Settings().Classifier != first {
		t.Error("unchanged script was reloaded")
	}

	write(`function is_ignorable(style) return style == 6 end`)
	if err := r.Apply(cfg); err != nil {
		t.Fatal(err)
	}
	if r.Settings().Classifier == first {
		t.Error("edited script was not reloaded")
	}
	if !r.Settings().Classifier.IsIgnorable(6) {
		t.Error("new script not in use")
	}
}

func TestFlush(t *testing.T) {
	r, clock := newTestRegistry()
	d := openDoc(t, r, "flush", strings.Repeat("()", 100))

	if err := d.session.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := d.canvas.Len(); got != 200 {
		t.Errorf("canvas has %d marks, want 200", got)
	}
	if d.session.NeedsRedraw() {
		t.Error("NeedsRedraw() after Flush")
	}
	if clock.Now() != 0 {
		t.Error("Flush advanced the clock")
	}
}
