package eventbus

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/amirasaad/voicepay/pkg/domain/events"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encode(event events.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", event.Type(), err)
	}
	return json.Marshal(envelope{Type: event.Type(), Payload: payload})
}

func decode(raw []byte) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return events.Decode(env.Type, env.Payload)
}

// nameFor turns "Transfer.Completed" into "<prefix>:transfer:completed".
func nameFor(prefix, sep, eventType string) string {
	parts := strings.Split(strings.ToLower(eventType), ".")
	return prefix + sep + strings.Join(parts, sep)
}
