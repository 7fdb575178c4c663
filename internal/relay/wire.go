package relay

import (
	"encoding/json"
	"fmt"
)

const (
	// server to client
	EventRefreshData = "refresh_data"
	EventProjectLive = "project_live"

	// client to server, data is the question id
	EventApprove = "admin_approve"
	EventDecline = "admin_decline"
	EventProject = "admin_project"
)

// Envelope is the frame carried by every websocket text message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("relay: encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

func Decode(msg []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return Envelope{}, fmt.Errorf("relay: decode envelope: %w", err)
	}
	return env, nil
}
