package chat

import (
	"encoding/json"
	"fmt"
	"time"
)

// AttachmentKind tags the binary payload carried by a message, if any.
type AttachmentKind int

const (
	AttachmentNone AttachmentKind = iota
	AttachmentImage
	AttachmentAudio
)

// String returns the wire representation of an AttachmentKind.
func (k AttachmentKind) String() string {
	switch k {
	case AttachmentImage:
		return "image"
	case AttachmentAudio:
		return "audio"
	default:
		return ""
	}
}

// ParseAttachmentKind converts a wire attachment type to AttachmentKind.
// An empty string means no attachment.
func ParseAttachmentKind(s string) (AttachmentKind, error) {
	switch s {
	case "":
		return AttachmentNone, nil
	case "image":
		return AttachmentImage, nil
	case "audio":
		return AttachmentAudio, nil
	default:
		return AttachmentNone, fmt.Errorf("unknown attachment type %q", s)
	}
}

// Message is the atomic unit of a conversation. Messages are immutable once
// appended to a Store; a placeholder created by an optimistic local send is
// replaced wholesale when its server echo arrives, never edited in place.
type Message struct {
	// ID is assigned by the server. It is nil for outbound messages that
	// have not been acknowledged yet.
	ID *int64

	SenderID   int64
	ReceiverID int64
	Body       string

	AttachmentKind AttachmentKind
	// AttachmentRef is the durable URL of the uploaded attachment. It must
	// be non-empty whenever AttachmentKind is not AttachmentNone.
	AttachmentRef string

	SentAt time.Time

	// Invitation marks a meeting-invitation frame. The engine carries it
	// through the log untouched; rendering is the consumer's concern.
	Invitation bool

	// ClientKey is a client-generated idempotency key, carried best-effort
	// so a server echo can be matched exactly to its local placeholder.
	ClientKey string
}

// OriginLocal reports whether the message was authored by the given
// participant. It is derived on read and never persisted.
func (m Message) OriginLocal(selfID int64) bool {
	return m.SenderID == selfID
}

// Acked reports whether the server has acknowledged the message.
func (m Message) Acked() bool {
	return m.ID != nil
}

const invitationType = "INVITATION"

// wireMessage is the JSON shape shared by the pub/sub channel and the REST
// history endpoint.
type wireMessage struct {
	ID             *int64 `json:"id,omitempty"`
	SenderID       int64  `json:"senderId"`
	ReceiverID     int64  `json:"receiverId"`
	Body           string `json:"message"`
	Date           string `json:"date"`
	AttachmentType string `json:"attachmentType,omitempty"`
	AttachmentURL  string `json:"attachmentUrl,omitempty"`
	Type           string `json:"type,omitempty"`
	ClientKey      string `json:"clientKey,omitempty"`
}

// MarshalJSON encodes the message in the wire schema, with the timestamp as
// an ISO-8601 string.
func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{
		ID:             m.ID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Body:           m.Body,
		Date:           m.SentAt.UTC().Format(time.RFC3339Nano),
		AttachmentType: m.AttachmentKind.String(),
		AttachmentURL:  m.AttachmentRef,
		ClientKey:      m.ClientKey,
	}
	if m.Invitation {
		w.Type = invitationType
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire schema. A payload with an unparseable date
// or an unknown attachment type is rejected so callers can drop it.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := ParseAttachmentKind(w.AttachmentType)
	if err != nil {
		return err
	}
	sentAt, err := time.Parse(time.RFC3339Nano, w.Date)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", w.Date, err)
	}
	*m = Message{
		ID:             w.ID,
		SenderID:       w.SenderID,
		ReceiverID:     w.ReceiverID,
		Body:           w.Body,
		AttachmentKind: kind,
		AttachmentRef:  w.AttachmentURL,
		SentAt:         sentAt,
		Invitation:     w.Type == invitationType,
		ClientKey:      w.ClientKey,
	}
	return nil
}
