package tracker

import (
	"github.com/dshills/bracketcolor/internal/bracket/index"
	"github.com/dshills/bracketcolor/internal/bracket/kind"
	"github.com/dshills/bracketcolor/internal/logging"
	"github.com/dshills/bracketcolor/internal/palette"
)

// DefaultIterationLimit is the number of positions recomputed per tick.
const DefaultIterationLimit = 50

// DefaultNumClasses is the number of indicator classes.
const DefaultNumClasses = 3

// BufferAccess answers text queries about the document.
type BufferAccess interface {
	// CharAt returns the character at pos.
	CharAt(pos int) (rune, bool)

	// StyleAt returns the lexer style id at pos.
	StyleAt(pos int) (int, bool)

	// Length returns the buffer length in positions.
	Length() int

	// FindMatch returns the position of the bracket matching the one at
	// pos. It is before pos when pos holds a close bracket.
	FindMatch(pos int) (int, bool)
}

// StyleClassifier reports which styles hide brackets.
type StyleClassifier interface {
	IsIgnorable(style int) bool
}

// Renderer paints indicators.
type Renderer interface {
	// SetIndicator marks pos with class, replacing any other class there.
	SetIndicator(class, pos int)

	// ClearIndicators removes every class from [pos, pos+length).
	ClearIndicators(pos, length int)
}

// Tracker maintains the bracket index of one kind in one document.
type Tracker struct {
	kind       kind.Kind
	buf        BufferAccess
	classifier StyleClassifier
	renderer   Renderer
	numClasses int

	index     *index.Index
	recompute *positionSet
	redraw    *positionSet
	// released holds closer positions whose indicator was cleared. Pairs
	// still ending there are queued for recompute.
	released *positionSet

	initialized bool
	// orderStale is set when entries vanish outside a recompute batch, so
	// the next drain reorders even if it has no positions to process.
	orderStale bool

	logger *logging.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithNumClasses sets how many indicator classes colors cycle through.
func WithNumClasses(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.numClasses = n
		}
	}
}

// New creates a tracker for k. The index starts empty; call EnqueueFullScan
// to populate it from an existing buffer.
func New(k kind.Kind, buf BufferAccess, classifier StyleClassifier, renderer Renderer, opts ...Option) *Tracker {
	t := &Tracker{
		kind:       k,
		buf:        buf,
		classifier: classifier,
		renderer:   renderer,
		numClasses: DefaultNumClasses,
		index:      index.New(),
		recompute:  newPositionSet(),
		redraw:     newPositionSet(),
		released:   newPositionSet(),
		logger:     logging.NullLogger,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.WithField("kind", k)
	return t
}

// Kind returns the tracked bracket kind.
func (t *Tracker) Kind() kind.Kind {
	return t.kind
}

// Index returns the bracket index. Callers must treat it as read-only.
func (t *Tracker) Index() *index.Index {
	return t.index
}

// Initialized reports whether the full scan has run.
func (t *Tracker) Initialized() bool {
	return t.initialized
}

// PendingRecompute returns the number of positions awaiting recompute.
func (t *Tracker) PendingRecompute() int {
	return t.recompute.len()
}

// PendingRedraw returns the number of positions awaiting redraw.
func (t *Tracker) PendingRedraw() int {
	return t.redraw.len()
}

// IsPendingRecompute reports whether pos awaits recompute.
func (t *Tracker) IsPendingRecompute(pos int) bool {
	return t.recompute.has(pos)
}

// IsPendingRedraw reports whether pos awaits redraw.
func (t *Tracker) IsPendingRedraw(pos int) bool {
	return t.redraw.has(pos)
}

// SetNumClasses changes the class count and queues every entry for redraw.
func (t *Tracker) SetNumClasses(n int) {
	if n <= 0 || n == t.numClasses {
		return
	}
	t.numClasses = n
	t.RedrawAll()
}

// RedrawAll queues every entry for redraw.
func (t *Tracker) RedrawAll() {
	for pos := range t.index.Entries() {
		t.redraw.add(pos)
	}
}

// Class returns the indicator class for a pair at order.
func (t *Tracker) Class(order int) int {
	return palette.Class(order, t.kind.Index(), t.numClasses)
}

// OnTextInserted handles length characters inserted at position. It reports
// whether the index or the queues changed.
func (t *Tracker) OnTextInserted(position, length int) bool {
	if length <= 0 {
		return false
	}

	var (
		shift     []int
		recompute []int
		resized   []resize
	)
	for pos, e := range t.index.Entries() {
		end, matched := e.End()
		switch {
		case pos >= position:
			shift = append(shift, pos)
		case !matched:
			recompute = append(recompute, pos)
		case end >= position:
			// The closer moved right with the inserted text.
			recompute = append(recompute, pos)
			resized = append(resized, resize{pos, index.Matched(end + length - pos)})
		}
	}

	// Pending positions at or after the insertion point refer to
	// characters that just moved right.
	moved := t.recompute.shiftFrom(position, length)
	moved += t.redraw.shiftFrom(position, length)
	t.released.shiftFrom(position, length)

	added := 0
	for pos := position; pos < position+length; pos++ {
		if ch, ok := t.buf.CharAt(pos); ok && t.kind.Has(ch) {
			t.recompute.add(pos)
			added++
		}
	}

	t.logger.Debug("text added at %d len %d: shift %d, recompute %d, new brackets %d",
		position, length, len(shift), len(recompute), added)

	if len(shift) == 0 && len(recompute) == 0 {
		return added > 0 || moved > 0
	}

	t.index.Shift(shift, length)
	t.resize(resized)
	for _, pos := range recompute {
		t.recompute.add(pos)
	}
	return true
}

// resize is a new match for an entry whose closer moved with an edit
// inside its span.
type resize struct {
	pos   int
	match index.Match
}

func (t *Tracker) resize(rs []resize) {
	for _, r := range rs {
		t.index.Upsert(r.pos, r.match)
	}
}

// OnTextDeleted handles length characters deleted at position. It reports
// whether the index or the queues changed.
func (t *Tracker) OnTextDeleted(position, length int) bool {
	if length <= 0 {
		return false
	}
	deletedEnd := position + length

	var (
		removed   []int
		shift     []int
		recompute []int
		resized   []resize
	)
	for pos, e := range t.index.Entries() {
		end, matched := e.End()
		switch {
		case pos >= position && pos < deletedEnd:
			removed = append(removed, pos)
		case pos >= deletedEnd:
			shift = append(shift, pos)
		case !matched:
			recompute = append(recompute, pos)
		case end >= deletedEnd:
			recompute = append(recompute, pos)
			resized = append(resized, resize{pos, index.Matched(end - length - pos)})
		case end >= position:
			// The closer was deleted.
			recompute = append(recompute, pos)
			resized = append(resized, resize{pos, index.Unmatched})
		}
	}

	changed := t.recompute.removeRange(position, deletedEnd)
	changed += t.redraw.removeRange(position, deletedEnd)
	changed += t.recompute.shiftFrom(deletedEnd, -length)
	changed += t.redraw.shiftFrom(deletedEnd, -length)
	t.released.removeRange(position, deletedEnd)
	t.released.shiftFrom(deletedEnd, -length)

	t.logger.Debug("text removed at %d len %d: remove %d, shift %d, recompute %d",
		position, length, len(removed), len(shift), len(recompute))

	if len(removed) == 0 && len(shift) == 0 && len(recompute) == 0 {
		return changed > 0
	}

	if len(removed) > 0 {
		t.orderStale = true
	}
	for _, pos := range removed {
		e, _ := t.index.Remove(pos)
		// The closer survived if it lay past the deleted range; its
		// indicator now sits length positions to the left.
		if end, ok := e.End(); ok && end >= deletedEnd {
			t.release(end - length)
		}
	}
	t.index.Shift(shift, -length)
	t.resize(resized)
	for _, pos := range recompute {
		t.recompute.add(pos)
	}
	return true
}

// OnStyleChanged queues every bracket of the tracked kind inside the
// restyled range. Before the full scan it does nothing, since the scan will
// visit every position anyway. It returns the number of positions queued.
func (t *Tracker) OnStyleChanged(position, length int) int {
	if !t.initialized {
		return 0
	}
	queued := 0
	for pos := position; pos < position+length; pos++ {
		if ch, ok := t.buf.CharAt(pos); ok && t.kind.Has(ch) {
			t.recompute.add(pos)
			queued++
		}
	}
	return queued
}

// EnqueueFullScan queues every bracket of the tracked kind in the buffer.
// It runs once per tracker; later calls return 0.
func (t *Tracker) EnqueueFullScan() int {
	if t.initialized {
		return 0
	}
	t.initialized = true

	queued := 0
	n := t.buf.Length()
	for pos := 0; pos < n; pos++ {
		if ch, ok := t.buf.CharAt(pos); ok && t.kind.Has(ch) {
			t.recompute.add(pos)
			queued++
		}
	}
	t.logger.Debug("full scan queued %d of %d positions", queued, n)
	return queued
}

// DrainRecompute processes up to limit queued positions in ascending order
// and then recomputes nesting order once. A limit <= 0 drains everything.
// It returns the number of positions processed.
func (t *Tracker) DrainRecompute(limit int) int {
	processed := 0
	for limit <= 0 || processed < limit {
		pos, ok := t.recompute.popMin()
		if !ok {
			if t.requeueOwners() {
				continue
			}
			break
		}
		t.recomputeAt(pos)
		processed++
	}
	t.requeueOwners()
	if processed == 0 && !t.orderStale {
		return 0
	}
	t.orderStale = false

	for _, pos := range t.index.ComputeOrder() {
		t.redraw.add(pos)
	}
	if n := t.index.Crossings(); n > 0 {
		t.logger.Debug("%d bracket ranges overlap without nesting", n)
	}

	t.logger.Debug("recomputed %d positions, %d remaining", processed, t.recompute.len())
	return processed
}

// recomputeAt rebuilds the entry that the bracket at pos belongs to.
func (t *Tracker) recomputeAt(pos int) {
	ch, ok := t.buf.CharAt(pos)
	if !ok {
		t.logger.Debug("dropping %d: buffer query failed", pos)
		return
	}
	if !t.kind.Has(ch) {
		// The character moved away since pos was queued.
		t.forget(pos)
		return
	}

	style, ok := t.buf.StyleAt(pos)
	if !ok {
		t.logger.Debug("dropping %d: style query failed", pos)
		return
	}
	if t.classifier.IsIgnorable(style) {
		t.forget(pos)
		t.release(pos)
		return
	}

	if match, ok := t.buf.FindMatch(pos); ok {
		anchor, end := pos, match
		if match < pos {
			anchor, end = match, pos
		}
		t.update(anchor, index.Matched(end-anchor))
		return
	}

	if t.kind.IsOpen(ch) {
		t.update(pos, index.Unmatched)
		return
	}
	// An unmatched close bracket has no anchor and is not recorded. It may
	// still carry the color of a pair it used to close.
	t.forget(pos)
	t.release(pos)
}

// update records m at anchor and queues it for redraw. If the pair used
// to end elsewhere, that closer is released.
func (t *Tracker) update(anchor int, m index.Match) {
	if old, ok := t.index.Get(anchor); ok {
		oldEnd, wasMatched := old.End()
		length, matched := m.Length()
		if wasMatched && (!matched || anchor+length != oldEnd) {
			t.release(oldEnd)
		}
	}
	t.index.Upsert(anchor, m)
	t.redraw.add(anchor)
}

// forget removes the entry at pos and releases its closer.
func (t *Tracker) forget(pos int) {
	e, ok := t.index.Remove(pos)
	if !ok {
		return
	}
	t.redraw.remove(pos)
	if end, ok := e.End(); ok {
		t.release(end)
	}
}

// release clears the indicator at a former closer position.
func (t *Tracker) release(pos int) {
	t.renderer.ClearIndicators(pos, 1)
	t.released.add(pos)
}

// requeueOwners queues every entry that touches a released position, so a
// pair that still owns the closer is painted again and a stale one is
// corrected. It reports whether anything was queued.
func (t *Tracker) requeueOwners() bool {
	if t.released.len() == 0 {
		return false
	}
	queued := false
	for pos, e := range t.index.Entries() {
		end, ok := e.End()
		if (t.released.has(pos) || ok && t.released.has(end)) && !t.recompute.has(pos) {
			t.recompute.add(pos)
			queued = true
		}
	}
	t.released.clear()
	return queued
}

// DrainRedraw pushes queued entries to the renderer and empties the redraw
// queue. Positions queued for recompute are skipped; recomputing them will
// queue them again. It returns the number of entries painted.
func (t *Tracker) DrainRedraw() int {
	painted := 0
	for pos := range t.redraw.all() {
		if t.recompute.has(pos) {
			continue
		}
		e, ok := t.index.Get(pos)
		if !ok {
			continue
		}
		end, matched := e.End()
		if !matched {
			t.renderer.ClearIndicators(pos, 1)
			continue
		}
		order, _ := e.Order()
		class := t.Class(order)
		t.renderer.SetIndicator(class, pos)
		t.renderer.SetIndicator(class, end)
		painted++
	}
	t.redraw.clear()

	if painted > 0 {
		t.logger.Debug("redrew %d pairs", painted)
	}
	return painted
}

// ClearIndicators removes the indicators of every entry from the renderer.
func (t *Tracker) ClearIndicators() {
	for pos, e := range t.index.Entries() {
		t.renderer.ClearIndicators(pos, 1)
		if end, ok := e.End(); ok {
			t.renderer.ClearIndicators(end, 1)
		}
	}
}
