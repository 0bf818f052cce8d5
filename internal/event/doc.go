// Package event defines the immutable domain events that make up the audit
// log.
//
// An Event is an envelope (id, correlation, causation, timestamp) around a
// Payload. Payload is a closed set of variants: the interface is sealed and
// every consumer goes through Payload.Accept with a Visitor, so a new variant
// fails to compile until each consumer handles it.
//
// Events are never edited. Undo is expressed as a compensating event built by
// Inverse.
package event
