package protocol

import (
	"encoding/json"
	"fmt"

	"inkboard-relay-server/domain"
)

// envelope is the wire framing for every message in either direction.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decoder turns raw inbound frames into messages, accepting only a fixed
// set of type names.
type Decoder struct {
	known map[string]struct{}
}

// NewDecoder builds a decoder for the given type names, defaulting to
// KnownClientMessages when none are given.
func NewDecoder(names ...string) *Decoder {
	if len(names) == 0 {
		names = KnownClientMessages()
	}
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}
	return &Decoder{known: known}
}

// Decode parses a frame and reports whether it carried a known message
// type. Malformed frames and unknown names return false; they are not
// errors at this layer.
func (d *Decoder) Decode(data []byte) (domain.Message, bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	if _, ok := d.known[env.Type]; !ok {
		return nil, false
	}
	return NewMessage(env.Type, env.Payload), true
}

// EncodeFrame marshals an outbound message into the wire envelope.
func EncodeFrame(name string, payload any) ([]byte, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %q payload: %w", name, err)
	}
	return json.Marshal(envelope{Type: name, Payload: raw})
}

func marshalPayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(payload)
}
