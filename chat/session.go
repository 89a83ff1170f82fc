package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState represents the lifecycle of one open conversation screen.
type SessionState int

const (
	SessionClosed SessionState = iota
	SessionOpening
	SessionActive
)

// String returns the string representation of a SessionState.
func (s SessionState) String() string {
	switch s {
	case SessionClosed:
		return "closed"
	case SessionOpening:
		return "opening"
	case SessionActive:
		return "active"
	default:
		return "unknown"
	}
}

// HistoryFetcher retrieves the ordered past-message log for a conversation.
type HistoryFetcher interface {
	History(ctx context.Context, counterpartID, selfID int64) ([]Message, error)
}

// Uploader packages a local binary resource into a multipart request and
// returns a durable reference URL.
type Uploader interface {
	Upload(ctx context.Context, kind AttachmentKind, localPath string) (string, error)
}

// Connection is the persistent pub/sub channel owned by a Session. *Conn is
// the production implementation.
type Connection interface {
	Open(ctx context.Context, roomID, token string) error
	Publish(m Message) error
	OnMessage(fn func(Message))
	OnNotice(fn func(error))
	OnError(fn func(error))
	OnStateChanged(fn func(StateEvent))
	Close() error
}

// Session orchestrates one open conversation: it resolves the room, opens
// the history fetch and the live channel concurrently, feeds the Store,
// wires the notification trigger, and tears everything down on exit or
// room switch. A Session owns its Connection and Store exclusively.
type Session struct {
	cfg      Config
	logger   Logger
	history  HistoryFetcher
	uploader Uploader
	trigger  *Trigger

	// newConn builds a fresh Connection per opened room.
	newConn func(Config) Connection

	onNotice func(error)
	onState  func(StateEvent)

	mu          sync.Mutex
	state       SessionState
	room        Room
	conn        Connection
	store       *Store
	buffer      []Message
	seeded      bool
	cancel      context.CancelFunc
	notifyQueue []Message
}

// NewSession wires the engine's collaborators for one consumer. The
// scheduler may be nil when the platform offers no local notifications.
func NewSession(cfg Config, history HistoryFetcher, uploader Uploader, scheduler Scheduler) *Session {
	s := &Session{
		cfg:      cfg,
		logger:   noopLogger{},
		history:  history,
		uploader: uploader,
		trigger:  NewTrigger(cfg.SelfID, scheduler, nil),
		newConn:  func(c Config) Connection { return NewConn(c) },
	}
	return s
}

// SetLogger overrides logger (optional).
func (s *Session) SetLogger(l Logger) {
	if l == nil {
		return
	}
	s.logger = l
	s.trigger.logger = l
}

// OnNotice registers the callback for recoverable warnings (server
// rejection notices, dropped frames). Optional.
func (s *Session) OnNotice(fn func(error)) { s.onNotice = fn }

// OnStateChanged registers the observer for channel state transitions, used
// by consumers to show a "reconnecting" status. Optional.
func (s *Session) OnStateChanged(fn func(StateEvent)) { s.onState = fn }

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Room returns the room of the current conversation.
func (s *Session) Room() Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Messages returns the current ordered log for rendering.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	store := s.store
	s.mu.Unlock()
	if store == nil {
		return nil
	}
	return store.All()
}

// Open starts a conversation with the given counterpart. An already-open
// session is fully closed first: the old connection is torn down before the
// new one is opened, so no two channels ever run for one session. The
// history fetch and the channel open run concurrently; live messages that
// arrive before the history resolves are buffered and replayed after the
// seed to preserve ordering.
func (s *Session) Open(ctx context.Context, counterpartID int64) error {
	s.mu.Lock()
	if s.state != SessionClosed {
		s.mu.Unlock()
		if err := s.Close(); err != nil {
			s.logger.Warn("closing previous room", map[string]any{"error": err.Error()})
		}
		s.mu.Lock()
	}

	room := NewRoom(s.cfg.SelfID, counterpartID)
	conn := s.newConn(s.cfg)
	conn.OnMessage(s.handleInbound)
	conn.OnNotice(s.handleNotice)
	conn.OnError(s.handleNotice)
	conn.OnStateChanged(s.handleStateEvent)

	sctx, cancel := context.WithCancel(ctx)
	s.state = SessionOpening
	s.room = room
	s.conn = conn
	s.store = NewStore(s.cfg.SelfID)
	s.buffer = nil
	s.seeded = false
	s.cancel = cancel
	s.mu.Unlock()

	if err := conn.Open(sctx, room.ID, s.cfg.Token); err != nil {
		_ = s.Close()
		return WrapError(ErrorConnection, "open channel", err)
	}
	go s.loadHistory(sctx, counterpartID)
	return nil
}

// Close leaves the conversation: the channel is closed unconditionally,
// even mid-reconnect, buffered live messages are discarded, and late
// history or upload results are ignored. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == SessionClosed {
		s.mu.Unlock()
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	conn := s.conn
	s.state = SessionClosed
	s.conn = nil
	s.buffer = nil
	s.seeded = false
	s.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// SendText appends the message optimistically and publishes it. The entry
// stays unacknowledged until the server echo replaces it.
func (s *Session) SendText(body string) error {
	s.mu.Lock()
	if s.state != SessionActive {
		s.mu.Unlock()
		return NewError(ErrorNotConnected, "no active conversation")
	}
	m := Message{
		SenderID:   s.cfg.SelfID,
		ReceiverID: s.room.Counterpart(s.cfg.SelfID),
		Body:       body,
		SentAt:     time.Now(),
		ClientKey:  uuid.NewString(),
	}
	s.store.AppendLocal(m)
	conn := s.conn
	s.mu.Unlock()

	if err := conn.Publish(m); err != nil {
		return WrapError(ErrorConnection, "publish message", err)
	}
	return nil
}

// SendAttachment uploads the local resource first; only once a durable URL
// exists is the message constructed, appended, and published. A failed
// upload leaves no trace in the log and publishes nothing.
func (s *Session) SendAttachment(ctx context.Context, kind AttachmentKind, localPath string) error {
	s.mu.Lock()
	if s.state != SessionActive {
		s.mu.Unlock()
		return NewError(ErrorNotConnected, "no active conversation")
	}
	receiver := s.room.Counterpart(s.cfg.SelfID)
	s.mu.Unlock()

	url, err := s.uploader.Upload(ctx, kind, localPath)
	if err != nil {
		return WrapError(ErrorUploadFailed, "upload attachment", err)
	}

	s.mu.Lock()
	if s.state != SessionActive || s.room.Counterpart(s.cfg.SelfID) != receiver {
		// The room was switched or closed while the upload was in flight.
		s.mu.Unlock()
		return NewError(ErrorSessionClosed, "conversation closed during upload")
	}
	m := Message{
		SenderID:       s.cfg.SelfID,
		ReceiverID:     receiver,
		AttachmentKind: kind,
		AttachmentRef:  url,
		SentAt:         time.Now(),
		ClientKey:      uuid.NewString(),
	}
	s.store.AppendLocal(m)
	conn := s.conn
	s.mu.Unlock()

	if err := conn.Publish(m); err != nil {
		return WrapError(ErrorConnection, "publish attachment", err)
	}
	return nil
}

// loadHistory resolves the past-message log and seeds the store. A fetch
// failure degrades to an empty conversation; a result arriving after the
// session moved on is discarded.
func (s *Session) loadHistory(ctx context.Context, counterpartID int64) {
	msgs, err := s.history.History(ctx, counterpartID, s.cfg.SelfID)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.logger.Warn("history unavailable, opening empty", map[string]any{
			"counterpart": counterpartID,
			"error":       err.Error(),
		})
		s.fireNotice(WrapError(ErrorHistoryUnavailable, "fetch history", err))
		msgs = nil
	}

	s.mu.Lock()
	if s.state != SessionOpening || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.store.Seed(msgs)
	buffered := s.buffer
	s.buffer = nil
	for _, m := range buffered {
		s.applyLocked(m)
	}
	s.seeded = true
	s.state = SessionActive
	pending := s.takeNotifyQueueLocked()
	s.mu.Unlock()

	s.notify(pending)
}

// handleInbound is the durable channel handler. Frames arriving before the
// seed are buffered to preserve history-first ordering.
func (s *Session) handleInbound(m Message) {
	s.mu.Lock()
	if s.state == SessionClosed {
		s.mu.Unlock()
		return
	}
	if !s.seeded {
		s.buffer = append(s.buffer, m)
		s.mu.Unlock()
		return
	}
	s.applyLocked(m)
	pending := s.takeNotifyQueueLocked()
	s.mu.Unlock()

	s.notify(pending)
}

// applyLocked merges one live message into the store and queues the
// notification decision. Caller holds the lock.
func (s *Session) applyLocked(m Message) {
	s.store.Append(m)
	if !m.OriginLocal(s.cfg.SelfID) {
		s.notifyQueue = append(s.notifyQueue, m)
	}
}

func (s *Session) takeNotifyQueueLocked() []Message {
	pending := s.notifyQueue
	s.notifyQueue = nil
	return pending
}

func (s *Session) notify(pending []Message) {
	for _, m := range pending {
		s.trigger.Consider(m)
	}
}

func (s *Session) handleNotice(err error) {
	s.logger.Warn("channel notice", map[string]any{"error": errString(err)})
	s.fireNotice(err)
}

func (s *Session) fireNotice(err error) {
	if s.onNotice != nil && err != nil {
		s.onNotice(err)
	}
}

func (s *Session) handleStateEvent(ev StateEvent) {
	s.logger.Debug("channel state", map[string]any{
		"from": ev.OldState.String(),
		"to":   ev.NewState.String(),
	})
	if s.onState != nil {
		s.onState(ev)
	}
}
