// Package tracker keeps a bracket index in sync with an edited buffer.
//
// A Tracker exists per document per bracket kind. Edit notifications
// (OnTextInserted, OnTextDeleted, OnStyleChanged) are cheap: they shift or
// invalidate index entries and queue positions for later work. The queued
// work is done by two drains the host calls on timers:
//
//   - DrainRecompute pops a bounded batch of positions, asks the buffer for
//     the character, its style and its brace match, rebuilds the entries,
//     and recomputes nesting order once for the batch.
//   - DrainRedraw pushes the entries waiting for a visual update to the
//     renderer, skipping any position queued again for recompute.
//
// A burst of edits therefore costs a bounded amount of work per tick, and the
// backlog carries over between ticks.
//
// # Collaborators
//
// The host provides a BufferAccess for text queries, a StyleClassifier that
// says which styles (comments, strings) hide brackets, and a Renderer that
// sets and clears indicators. Buffer queries report failure through their
// ok result; a failed query drops the position instead of raising an error.
//
// # Thread Safety
//
// A Tracker is not safe for concurrent use. All calls for a document are
// expected on the host's event thread.
package tracker
