// Package harness runs YAML scenarios against a real engine and compares
// their traces with golden snapshots.
//
// # Scenario Format
//
//	name: certificate_chain
//	description: "What this scenario validates"
//	passphrase: copper lantern orbit meadow thistle
//	organization: acme
//	steps:
//	  - op: derive
//	    as: master
//	  - op: issue
//	    seed: master
//	    tier: root
//	    as: root
//	    common_name: Acme Root CA
//	  - op: submit
//	    correlation: rotation
//	    events:
//	      - kind: KeyActivated
//	        payload: {key_id: k1}
//	    expect: INVALID_TRANSITION
//	assertions:
//	  - type: status
//	    aggregate: certificate
//	    ref: root
//	    status: active
//
// # Operations
//
//   - derive: derives a master seed under an alias
//   - issue: generates a root, intermediate or leaf certificate and commits it
//   - verify_chain: verifies root, intermediate and leaf with crypto/x509
//   - submit: commits the listed events as one command
//   - undo, redo: walk the engine's history
//   - interleave: commits count key events spread round-robin over groups
//   - rebuild: replays the log twice and compares with the live projection
//
// Every step records an outcome: "ok" or the error code it failed with.
// A step's expect defaults to "ok".
//
// # Assertion Types
//
//   - status: an entity's lifecycle status (and successor for keys)
//   - event_count: number of events in the log
//   - correlation_count: number of events under one correlation id
//   - same_seed, distinct_seed: compare derived seeds by alias
//   - no_seed: the aliases were never derived
//
// # Deterministic Testing
//
// Each run uses an in-memory SQLite store, sequential event ids, a stepping
// clock and fast KDF parameters, so traces are identical across runs.
package harness
