package chat

import (
	"encoding/json"
	"fmt"
)

const (
	ProtocolVersion = 1

	inboundHello       = "hello"
	inboundSubscribe   = "subscribe"
	inboundUnsubscribe = "unsubscribe"
	inboundSend        = "send"

	outboundFrame = "frame"
	outboundError = "error"

	// Well-known outbound destination for publishing chat messages.
	sendDestination = "/app/chat"
)

// RoomTopic is the per-room topic a session subscribes to for live messages.
func RoomTopic(roomID string) string {
	return "/topic/messages/" + roomID
}

// ErrorTopic is the per-user destination for asynchronous rejection notices.
func ErrorTopic(userID int64) string {
	return fmt.Sprintf("/user/%d/errors", userID)
}

// Inbound represents the envelope from client to server.
type Inbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Outbound is the envelope server -> client. Frames carry the topic they
// were published on; protocol-level rejections carry Error instead.
type Outbound struct {
	Type  string          `json:"type"`
	Topic string          `json:"topic,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *ProtocolError  `json:"error,omitempty"`
}

// HelloPayload initiates the session.
type HelloPayload struct {
	Protocol int    `json:"protocol,omitempty"`
	Token    string `json:"token,omitempty"`
	UserID   int64  `json:"userId,omitempty"`
}

// SubscribePayload subscribes to (or unsubscribes from) a topic.
type SubscribePayload struct {
	Topic string `json:"topic"`
}

// SendPayload publishes a message to the outbound destination.
type SendPayload struct {
	Destination string  `json:"destination"`
	Message     Message `json:"message"`
}

// ProtocolError describes a server rejection notice.
type ProtocolError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Msg
}

// UnmarshalData decodes RawMessage into target.
func UnmarshalData(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}
