package model

import "time"

// TurnEvent is published after a chat turn is fully persisted. The snapshot
// worker archives each event to object storage.
type TurnEvent struct {
	SessionIdentifier string    `json:"session_identifier"`
	Question          string    `json:"question"`
	Reply             string    `json:"reply"`
	Mode              string    `json:"mode"`
	CreatedAt         time.Time `json:"created_at"`
}
