package models

import (
	"time"
)

// MessageOrigin says who produced a transcript entry.
type MessageOrigin string

const (
	OriginUser MessageOrigin = "user"
	OriginBot  MessageOrigin = "bot"
)

// MessageChannel represents the communication channel
type MessageChannel string

const (
	ChannelWeb      MessageChannel = "web"
	ChannelWhatsApp MessageChannel = "whatsapp"
)

// Message is one immutable transcript entry.
type Message struct {
	ID     string        `json:"id"`
	Origin MessageOrigin `json:"origin"`
	Text   string        `json:"text"`
	SentAt time.Time     `json:"sent_at"`
}

// SessionState is the conversation session's reply state.
type SessionState string

const (
	StateIdle             SessionState = "idle"
	StateAwaitingBotReply SessionState = "awaiting_bot_reply"
)

// ChatRequest is a one-shot question sent to POST /chat.
type ChatRequest struct {
	Message   string         `json:"message"`
	SessionID string         `json:"session_id"`
	Channel   MessageChannel `json:"channel,omitempty"`

	// ClientKey is the rate-limit key set by the transport; SessionID is used when empty.
	ClientKey string `json:"-"`
}

// ChatResponse is the answer to a ChatRequest.
type ChatResponse struct {
	Response string         `json:"response"`
	Source   ReplySource    `json:"source"`
	Intent   IntentCategory `json:"intent,omitempty"`
	Actions  []Action       `json:"actions,omitempty"`
}

// Action is a quick-reply suggestion rendered as a button by the widget.
type Action struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Payload string `json:"payload,omitempty"`
}

// SendMessageRequest is the body of POST /sessions/:id/messages.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// TranscriptResponse describes a session for the transcript view.
type TranscriptResponse struct {
	SessionID string       `json:"session_id"`
	State     SessionState `json:"state"`
	Messages  []Message    `json:"messages"`
}

// SocketFrame is a server-to-widget websocket frame.
type SocketFrame struct {
	Type    string   `json:"type"` // "message", "typing", "error"
	Message *Message `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// NewTextResponse builds a ChatResponse from a responder reply.
func NewTextResponse(reply Reply) *ChatResponse {
	return &ChatResponse{
		Response: reply.Text,
		Source:   reply.Source,
		Intent:   reply.Intent,
	}
}

// NewInteractiveResponse builds a ChatResponse carrying quick replies.
func NewInteractiveResponse(reply Reply, actions []Action) *ChatResponse {
	resp := NewTextResponse(reply)
	resp.Actions = actions
	return resp
}
