package session

import (
	"fmt"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/bracketcolor/internal/bracket/kind"
	"github.com/dshills/bracketcolor/internal/bracket/tracker"
	"github.com/dshills/bracketcolor/internal/logging"
	"github.com/dshills/bracketcolor/internal/palette"
	"github.com/dshills/bracketcolor/internal/sched"
)

// Backgrounder is implemented by buffers or renderers that know the
// editor's default background color.
type Backgrounder interface {
	Background() colorful.Color
}

// ClassDefiner is implemented by renderers that let the host choose the
// color of each indicator class.
type ClassDefiner interface {
	DefineClasses(colors []colorful.Color)
}

// defaultBackground is assumed when neither the buffer nor the renderer
// reports one.
var defaultBackground = colorful.Color{R: 1, G: 1, B: 1}

// Session tracks brackets in one open document. It owns one tracker per
// enabled kind and the two timers that drain them.
//
// A Session must only be used from the scheduler's goroutine. Edit
// notifications are cheap; the recompute timer does the bounded buffer
// queries and the redraw timer paints.
type Session struct {
	handle   Handle
	name     string
	buf      tracker.BufferAccess
	renderer tracker.Renderer

	registry *Registry
	sched    sched.Scheduler
	metrics  *Metrics
	logger   *logging.Logger

	settings Settings
	trackers [kind.Count]*tracker.Tracker
	updateUI bool

	palette       palette.Palette
	background    colorful.Color
	hasBackground bool

	recomputeID sched.TimerID
	redrawID    sched.TimerID
	running     bool
	closed      bool
}

func newSession(r *Registry, handle Handle, name string, buf tracker.BufferAccess, renderer tracker.Renderer) *Session {
	s := &Session{
		handle:   handle,
		name:     name,
		buf:      buf,
		renderer: renderer,
		registry: r,
		sched:    r.sched,
		metrics:  r.metrics,
		logger:   r.logger.WithField("doc", name),
		settings: r.settings,
	}

	s.background, s.hasBackground = s.currentBackground()
	if !s.hasBackground {
		s.background = defaultBackground
	}
	s.palette = s.settings.Scheme.For(s.background)
	s.defineClasses()

	for _, k := range s.settings.Kinds.Kinds() {
		s.trackers[k] = s.newTracker(k)
	}
	return s
}

func (s *Session) newTracker(k kind.Kind) *tracker.Tracker {
	return tracker.New(k, s.buf, s.settings.Classifier, s.renderer,
		tracker.WithLogger(s.logger),
		tracker.WithNumClasses(s.palette.Len()),
	)
}

// Handle returns the session's registry handle.
func (s *Session) Handle() Handle {
	return s.handle
}

// Name returns the document name given at Open.
func (s *Session) Name() string {
	return s.name
}

// Tracker returns the tracker for k, if k is enabled.
func (s *Session) Tracker(k kind.Kind) (*tracker.Tracker, bool) {
	if k >= kind.Count || s.trackers[k] == nil {
		return nil, false
	}
	return s.trackers[k], true
}

// Kinds returns the enabled kinds.
func (s *Session) Kinds() kind.Set {
	var set kind.Set
	for _, k := range kind.All {
		if s.trackers[k] != nil {
			set = set.With(k)
		}
	}
	return set
}

// Palette returns the palette in use.
func (s *Session) Palette() palette.Palette {
	return s.palette
}

// Running reports whether the session's timers are scheduled.
func (s *Session) Running() bool {
	return s.running
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed
}

// NeedsRedraw reports whether a redraw tick has work to do.
func (s *Session) NeedsRedraw() bool {
	return s.updateUI
}

// OnTextInserted forwards an insertion to every tracker. Indicators over
// the inserted text are cleared first so new text never inherits a color.
func (s *Session) OnTextInserted(position, length int) {
	if s.closed {
		return
	}
	s.renderer.ClearIndicators(position, length)
	for _, t := range s.active() {
		if t.OnTextInserted(position, length) {
			s.updateUI = true
		}
	}
}

// OnTextDeleted forwards a deletion to every tracker.
func (s *Session) OnTextDeleted(position, length int) {
	if s.closed {
		return
	}
	for _, t := range s.active() {
		if t.OnTextDeleted(position, length) {
			s.updateUI = true
		}
	}
}

// OnStyleChanged forwards a restyle to every tracker.
func (s *Session) OnStyleChanged(position, length int) {
	if s.closed {
		return
	}
	for _, t := range s.active() {
		t.OnStyleChanged(position, length)
	}
}

// SetKindEnabled turns tracking of k on or off. A newly enabled kind is
// scanned on the next recompute. Disabling clears its indicators.
func (s *Session) SetKindEnabled(k kind.Kind, on bool) error {
	if s.closed {
		return NewOperationError("set kind", s.name, ErrSessionClosed)
	}
	if k >= kind.Count {
		return NewOperationError("set kind", s.name, fmt.Errorf("unknown kind %d", k))
	}

	switch {
	case on && s.trackers[k] == nil:
		s.trackers[k] = s.newTracker(k)
		s.updateUI = true
		s.logger.Debug("enabled %s", k)
	case !on && s.trackers[k] != nil:
		s.trackers[k].ClearIndicators()
		s.trackers[k] = nil
		s.logger.Debug("disabled %s", k)
	}
	return nil
}

// Flush drains every tracker completely and paints the result.
func (s *Session) Flush() error {
	if s.closed {
		return NewOperationError("flush", s.name, ErrSessionClosed)
	}
	s.checkBackground()
	for {
		start := time.Now()
		processed := s.recompute(0)
		s.metrics.RecordRecompute(time.Since(start), processed)
		if processed == 0 {
			break
		}
	}
	s.redraw()
	return nil
}

// Close cancels the timers and clears every indicator in the document.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.stop()
	for k, t := range s.trackers {
		if t != nil {
			t.ClearIndicators()
			s.trackers[k] = nil
		}
	}
	if n := s.buf.Length(); n > 0 {
		s.renderer.ClearIndicators(0, n)
	}
	s.closed = true
	s.logger.Debug("closed")
}

func (s *Session) active() []*tracker.Tracker {
	out := make([]*tracker.Tracker, 0, kind.Count)
	for _, t := range s.trackers {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

func (s *Session) start() {
	if s.running || s.closed {
		return
	}
	s.recomputeID = s.sched.SchedulePeriodic(s.settings.RecomputeInterval, s.recomputeTick)
	s.redrawID = s.sched.SchedulePeriodic(s.settings.RedrawInterval, s.redrawTick)
	s.running = true
}

func (s *Session) stop() {
	if !s.running {
		return
	}
	s.sched.Cancel(s.recomputeID)
	s.sched.Cancel(s.redrawID)
	s.recomputeID, s.redrawID = 0, 0
	s.running = false
}

// stale reports whether a timer fired for a document that is no longer
// current, and suspends the session if so.
func (s *Session) stale(op string) bool {
	if !s.closed && s.registry.IsActive(s.handle) {
		return false
	}
	s.logger.Debug("%v", NewOperationError(op, s.name, ErrStaleDocument))
	s.metrics.RecordSuspension()
	s.stop()
	return true
}

func (s *Session) recomputeTick() bool {
	if s.stale("recompute") {
		return false
	}
	start := time.Now()
	processed := s.recompute(s.settings.IterationLimit)
	if processed > 0 {
		s.metrics.RecordRecompute(time.Since(start), processed)
	}
	return true
}

func (s *Session) redrawTick() bool {
	if s.stale("redraw") {
		return false
	}
	s.checkBackground()
	if !s.updateUI {
		return true
	}
	start := time.Now()
	painted := s.redraw()
	s.metrics.RecordRedraw(time.Since(start), painted)
	return true
}

// recompute runs the full scan for new trackers and drains up to limit
// positions per tracker. It returns the positions processed.
func (s *Session) recompute(limit int) int {
	processed, crossings := 0, 0
	for _, t := range s.active() {
		if !t.Initialized() {
			t.EnqueueFullScan()
		}
		processed += t.DrainRecompute(limit)
		if t.PendingRedraw() > 0 {
			s.updateUI = true
		}
		crossings += t.Index().Crossings()
	}
	s.metrics.SetCrossings(crossings)
	return processed
}

func (s *Session) redraw() int {
	painted := 0
	for _, t := range s.active() {
		painted += t.DrainRedraw()
	}
	s.updateUI = false
	return painted
}

func (s *Session) currentBackground() (colorful.Color, bool) {
	if b, ok := s.buf.(Backgrounder); ok {
		return b.Background(), true
	}
	if b, ok := s.renderer.(Backgrounder); ok {
		return b.Background(), true
	}
	return colorful.Color{}, false
}

// checkBackground switches palettes when the background flips between
// light and dark.
func (s *Session) checkBackground() {
	bg, ok := s.currentBackground()
	if !ok || (s.hasBackground && bg == s.background) {
		return
	}
	s.background, s.hasBackground = bg, true
	s.usePalette(s.settings.Scheme.For(bg))
}

func (s *Session) usePalette(p palette.Palette) {
	if p.Equal(s.palette) {
		return
	}
	s.palette = p
	s.defineClasses()
	for _, t := range s.active() {
		t.SetNumClasses(p.Len())
		t.RedrawAll()
	}
	s.updateUI = true
	s.metrics.RecordPaletteSwitch()
	s.logger.Debug("switched palette to %v", p.Hex())
}

func (s *Session) defineClasses() {
	if d, ok := s.renderer.(ClassDefiner); ok {
		d.DefineClasses(s.palette.Colors())
	}
}

// apply adopts new registry settings. A new classifier rescans every kind.
func (s *Session) apply(settings Settings) {
	if s.closed {
		return
	}
	old := s.settings
	s.settings = settings

	rescan := settings.Classifier != old.Classifier
	for _, k := range kind.All {
		enabled := settings.Kinds.Has(k)
		if t := s.trackers[k]; t != nil && (!enabled || rescan) {
			t.ClearIndicators()
			s.trackers[k] = nil
		}
		if enabled && s.trackers[k] == nil {
			s.trackers[k] = s.newTracker(k)
			s.updateUI = true
		}
	}

	s.usePalette(settings.Scheme.For(s.background))

	if s.running && (settings.RecomputeInterval != old.RecomputeInterval ||
		settings.RedrawInterval != old.RedrawInterval) {
		s.stop()
		s.start()
	}
}
