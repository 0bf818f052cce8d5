// Package projection folds the event log into current state.
//
// A Projection is immutable from the outside: Apply returns a new value and
// leaves its input untouched, so readers holding an older projection never
// observe a half-applied event. Rebuild and ReplayUntil fold a whole log
// from empty.
//
// Besides the per-machine transition rules, Apply enforces the envelope:
// unique non-empty ids, a correlation id on every event, and causation
// pointing at an already-applied event with a smaller id. The last rule
// makes the causation graph acyclic.
package projection
