// Package lifecycle holds the state machines for every long-lived artifact:
// keys, certificates, message-bus identities, hardware tokens and export
// manifests.
//
// Each Transition function takes the current state (nil when the entity does
// not exist yet) and a payload, and returns a new state. Inputs are never
// mutated. Terminal states reject every payload. Live submissions and
// replayed events go through the same functions.
package lifecycle
