package model

import "time"

// Frame kinds sent over the live feed.
const (
	FramePoll  = "poll"
	FrameReply = "reply"
)

// Client actions accepted over the live feed.
const (
	ActionSend    = "send"
	ActionRefresh = "refresh"
)

// LiveFrame is what the server writes to a live connection.
type LiveFrame struct {
	Kind            string    `json:"kind"`
	View            View      `json:"view"`
	ServerTimestamp time.Time `json:"server_timestamp"`
}

// LiveAction is what a client writes to a live connection.
type LiveAction struct {
	Action  string `json:"action"`
	Message string `json:"message,omitempty"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

// SendRequest is the body of POST /api/messages.
type SendRequest struct {
	Message string `json:"message"`
}

// KeepRequest is the body of POST /api/admin/keep.
type KeepRequest struct {
	Keep int `json:"keep"`
}
