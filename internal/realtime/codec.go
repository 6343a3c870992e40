package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/linkbox/internal/models"
)

// Topics carried over a bridge.
const (
	TopicChanges  = "bookmarks"
	TopicSessions = "sessions"
)

// SessionSignal tells peers that the stored session changed.
// Peers re-read the session from the shared store instead of trusting the payload.
type SessionSignal struct {
	AccountID string `json:"account_id,omitempty"`
	SignedIn  bool   `json:"signed_in"`
}

// envelope is the wire format on every bridge.
type envelope struct {
	Origin  string              `json:"origin"`
	Change  *models.ChangeEvent `json:"change,omitempty"`
	Session *SessionSignal      `json:"session,omitempty"`
}

func encode(env envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return data, nil
}

func decode(data []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Change == nil && env.Session == nil {
		return envelope{}, fmt.Errorf("empty envelope from %q", env.Origin)
	}
	return env, nil
}
