package chat

// Scheduler is the external local-notification collaborator. It accepts a
// title and body and fires a platform notification.
type Scheduler interface {
	Schedule(title, body string) error
}

// Trigger decides whether an inbound message raises a local notification:
// exactly one for a message authored by the counterpart, never one for the
// local participant's own messages, including their server echo. Scheduler
// failures (denied permissions, platform errors) are swallowed and logged,
// never surfaced to the conversation and never retried.
type Trigger struct {
	selfID    int64
	scheduler Scheduler
	logger    Logger
}

// NewTrigger builds a Trigger for the given local participant.
func NewTrigger(selfID int64, scheduler Scheduler, logger Logger) *Trigger {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Trigger{selfID: selfID, scheduler: scheduler, logger: logger}
}

// Consider raises a notification for the message if it warrants one.
func (t *Trigger) Consider(m Message) {
	if t.scheduler == nil || m.OriginLocal(t.selfID) {
		return
	}
	if err := t.scheduler.Schedule("New message", previewBody(m)); err != nil {
		t.logger.Warn("notification schedule failed", map[string]any{
			"sender": m.SenderID,
			"error":  err.Error(),
		})
	}
}

func previewBody(m Message) string {
	switch {
	case m.Invitation:
		return "Sent you a meeting invitation"
	case m.Body != "":
		return m.Body
	case m.AttachmentKind == AttachmentImage:
		return "Sent a photo"
	case m.AttachmentKind == AttachmentAudio:
		return "Sent a voice message"
	default:
		return "New message"
	}
}
