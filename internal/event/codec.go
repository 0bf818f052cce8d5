package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/keyledger/internal/canon"
)

// wireEvent is the JSON form of an Event.
type wireEvent struct {
	ID            string          `json:"id"`
	CorrelationID string          `json:"correlation_id"`
	CausationID   string          `json:"causation_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Kind          Kind            `json:"kind"`
	Payload       json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the envelope with the payload under "payload" and its
// discriminator under "kind".
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("event %s: nil payload", e.ID)
	}
	data, err := EncodePayload(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{
		ID:            e.ID,
		CorrelationID: e.CorrelationID,
		CausationID:   e.CausationID,
		Timestamp:     e.Timestamp.UTC(),
		Kind:          e.Payload.Kind(),
		Payload:       data,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p, err := DecodePayload(w.Kind, w.Payload)
	if err != nil {
		return fmt.Errorf("event %s: %w", w.ID, err)
	}
	*e = Event{
		ID:            w.ID,
		CorrelationID: w.CorrelationID,
		CausationID:   w.CausationID,
		Timestamp:     w.Timestamp.UTC(),
		Payload:       p,
	}
	return nil
}

// EncodePayload serializes a payload as canonical JSON, so identical payloads
// always produce identical bytes.
func EncodePayload(p Payload) ([]byte, error) {
	data, err := canon.MarshalJSONCanonical(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.Kind(), err)
	}
	return data, nil
}

// DecodePayload reconstructs the variant named by kind.
func DecodePayload(kind Kind, data []byte) (Payload, error) {
	dec, ok := decoders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	p, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return p, nil
}

func decodeAs[T Payload](data []byte) (Payload, error) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// ContentHash is the domain-separated SHA-256 of the canonical envelope. The
// store keeps it beside each row and re-checks it on read.
func ContentHash(e Event) (string, error) {
	data, err := canon.MarshalJSONCanonical(e)
	if err != nil {
		return "", fmt.Errorf("hash event %s: %w", e.ID, err)
	}
	return canon.Hash(canon.DomainEvent, data), nil
}
