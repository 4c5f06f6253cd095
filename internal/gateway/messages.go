package gateway

import (
	"encoding/json"
	"time"
)

// FrameKind distinguishes the outbound frames a client can receive.
type FrameKind string

const (
	FrameMessage FrameKind = "message"
	FrameEdit    FrameKind = "edit"
	FrameDirect  FrameKind = "direct"
	FrameMedia   FrameKind = "media"
	FrameEvent   FrameKind = "event"
)

// ChatFrame is the wire form of everything the gateway pushes to clients.
type ChatFrame struct {
	ID        string          `json:"id"`
	ChatID    string          `json:"chat_id"`
	Kind      FrameKind       `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Text      string          `json:"text,omitempty"`
	EditsID   string          `json:"edits_id,omitempty"`
	MediaType string          `json:"media_type,omitempty"`
	MediaRef  string          `json:"media_ref,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

// ClientMessage is the single frame shape clients send: plain chat text,
// which may be a slash command.
type ClientMessage struct {
	Text string `json:"text"`
}
