// Package engine is the single writer in front of the event log.
//
// Every mutation goes through one FIFO queue drained by Run:
//
//  1. Submit (or Undo/Redo) enqueues a request and waits for its reply
//  2. Run dequeues one request at a time
//  3. the payloads become events with fresh ids, chained by causation
//  4. projection.ApplyAll validates the whole batch against the current state
//  5. the batch is appended to the log in one transaction
//  6. the new projection is published atomically
//
// A request rejected at step 4 or 5 leaves both the log and the projection
// untouched. Readers call Current from any goroutine and always see a fully
// applied projection.
//
// Undo and redo work on a bounded history of events submitted in this
// process. Undo appends event.Inverse of the newest one, caused by it. Redo
// appends the undone payload again. Any new submission clears the redo
// stack.
package engine
