package chat

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FarahDimassi/coachchat-go/chat/internal"

	"github.com/coder/websocket"
)

// Conn owns one persistent pub/sub channel bound to a single room for its
// lifetime. It subscribes to the room topic and the per-user error topic,
// delivers inbound messages through a single durable handler, and recovers
// from unexpected disconnects with a fixed-delay retry loop that runs until
// Close is called. A Conn is exclusively owned by one Session and is not
// reusable after Close; open a fresh Conn per room.
type Conn struct {
	cfg        Config
	logger     Logger
	dispatcher Dispatcher
	writeCh    chan Inbound

	mu     sync.Mutex
	state  ConnState
	roomID string
	token  string
	cancel context.CancelFunc
	active *internal.Conn

	closed     atomic.Bool
	subscribes atomic.Int64
	onState    func(StateEvent)
}

var _ Connection = (*Conn)(nil)

// NewConn constructs a channel with the provided config.
// Use DefaultConfig() as a starting point and modify as needed.
func NewConn(cfg Config) *Conn {
	return &Conn{
		cfg:     cfg,
		logger:  noopLogger{},
		writeCh: make(chan Inbound, 16),
	}
}

// SetLogger overrides logger (optional).
func (c *Conn) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.logger = l
	c.dispatcher.SetLogger(l)
}

// OnMessage registers the callback invoked once per delivered room message,
// in delivery order. The registration is durable: reconnects reuse it.
func (c *Conn) OnMessage(fn func(Message)) { c.dispatcher.SetOnMessage(fn) }

// OnNotice registers the callback for recoverable server rejection notices.
func (c *Conn) OnNotice(fn func(error)) { c.dispatcher.SetOnNotice(fn) }

// OnError registers the callback for client-side errors (malformed frames,
// write failures). These never tear the channel down.
func (c *Conn) OnError(fn func(error)) { c.dispatcher.SetOnError(fn) }

// OnStateChanged registers the observer for channel state transitions.
func (c *Conn) OnStateChanged(fn func(StateEvent)) { c.onState = fn }

// State returns the current channel state.
func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SubscribeCount reports how many subscription rounds have completed since
// Open. Each successful connection epoch subscribes exactly once.
func (c *Conn) SubscribeCount() int64 {
	return c.subscribes.Load()
}

// Open establishes the channel for roomID and starts the connect loop.
// Calling Open while already connecting or open is a no-op. Dial failures
// are not returned: they feed the same fixed-delay retry loop as mid-life
// disconnects, and the loop runs until Close.
func (c *Conn) Open(ctx context.Context, roomID, token string) error {
	if c.closed.Load() {
		return NewError(ErrorDisconnected, "channel is closed")
	}

	c.mu.Lock()
	switch c.state {
	case StateConnecting, StateOpen, StateReconnecting:
		c.mu.Unlock()
		return nil
	}
	if c.cfg.WSURL == "" {
		c.mu.Unlock()
		return NewError(ErrorInvalidConfig, "empty websocket URL")
	}
	if _, err := url.Parse(c.cfg.WSURL); err != nil {
		c.mu.Unlock()
		return WrapError(ErrorInvalidConfig, "parse websocket URL", err)
	}
	c.roomID = roomID
	c.token = token
	c.dispatcher.SetTopics(RoomTopic(roomID), ErrorTopic(c.cfg.SelfID))
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.transition(StateConnecting, nil)
	go c.run(runCtx)
	return nil
}

// Publish serializes the message and queues it for sending. It never blocks
// waiting for server acknowledgment; the caller owns the optimistic local
// append. Messages carrying an attachment kind must already have their
// durable URL.
func (c *Conn) Publish(m Message) error {
	if m.AttachmentKind != AttachmentNone && m.AttachmentRef == "" {
		return NewError(ErrorInvalidMessage, "attachment message without attachment URL")
	}

	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if c.closed.Load() || state != StateOpen {
		return NewError(ErrorNotConnected, "channel is not open")
	}

	in := Inbound{Type: inboundSend, Data: SendPayload{Destination: sendDestination, Message: m}}
	select {
	case c.writeCh <- in:
		return nil
	default:
		return NewError(ErrorConnection, "write buffer full")
	}
}

// Close unsubscribes and tears the channel down. After Close no further
// message callbacks fire, even for frames already in flight, and the
// reconnect loop stops. Close is idempotent.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.transition(StateClosing, nil)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	conn := c.active
	c.active = nil
	roomID := c.roomID
	c.mu.Unlock()

	var err error
	if conn != nil {
		unsubCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = conn.Write(unsubCtx, Inbound{Type: inboundUnsubscribe, Data: SubscribePayload{Topic: RoomTopic(roomID)}})
		cancel()
		err = conn.Close(websocket.StatusNormalClosure, "session closed")
	}

	c.transition(StateIdle, nil)
	return err
}

// transition moves the channel to a new state and notifies the observer.
// The observer is called without holding the lock.
func (c *Conn) transition(to ConnState, cause error) {
	c.mu.Lock()
	if c.closed.Load() && to != StateClosing && to != StateIdle {
		c.mu.Unlock()
		return
	}
	from := c.state
	if from == to {
		c.mu.Unlock()
		return
	}
	c.state = to
	fn := c.onState
	c.mu.Unlock()
	if fn != nil {
		fn(StateEvent{OldState: from, NewState: to, Error: cause})
	}
}

// run is the connect loop: dial, subscribe, serve, and on any unexpected
// drop wait the fixed delay and start over. It exits only on Close or
// context cancellation.
func (c *Conn) run(ctx context.Context) {
	for {
		if c.closed.Load() || ctx.Err() != nil {
			return
		}

		conn, err := c.connect(ctx)
		if err != nil {
			if c.closed.Load() || ctx.Err() != nil {
				return
			}
			c.logger.Warn("connect failed, retrying", map[string]any{"room": c.roomID, "error": err.Error()})
			c.dispatcher.fireError(WrapError(ErrorConnection, "connect failed", err))
			c.transition(StateReconnecting, err)
			if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
				return
			}
			continue
		}

		if c.closed.Load() || ctx.Err() != nil {
			_ = conn.CloseNow()
			return
		}
		c.transition(StateOpen, nil)
		err = c.serve(ctx, conn)
		if c.closed.Load() || ctx.Err() != nil {
			return
		}
		c.logger.Warn("channel dropped, reconnecting", map[string]any{"room": c.roomID, "error": errString(err)})
		c.transition(StateReconnecting, err)
		if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
			return
		}
	}
}

// connect dials the server, sends hello, and subscribes to the room topic
// and the private error topic. Exactly one subscription round per
// connection epoch, so N reconnects never stack duplicate subscriptions.
func (c *Conn) connect(ctx context.Context) (*internal.Conn, error) {
	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, c.cfg.WSURL, nil)
	if err != nil {
		return nil, err
	}
	conn := internal.NewConn(ws, c.cfg.ReadTimeout, c.cfg.WriteTimeout)

	hello := Inbound{
		Type: inboundHello,
		Data: HelloPayload{
			Protocol: ProtocolVersion,
			Token:    c.token,
			UserID:   c.cfg.SelfID,
		},
	}
	if err := conn.Write(ctx, hello); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "handshake error")
		return nil, err
	}

	for _, topic := range []string{RoomTopic(c.roomID), ErrorTopic(c.cfg.SelfID)} {
		sub := Inbound{Type: inboundSubscribe, Data: SubscribePayload{Topic: topic}}
		if err := conn.Write(ctx, sub); err != nil {
			_ = conn.Close(websocket.StatusInternalError, "subscribe error")
			return nil, err
		}
	}
	c.subscribes.Add(1)

	c.mu.Lock()
	c.active = conn
	c.mu.Unlock()
	return conn, nil
}

// serve pumps the connection until it drops and returns the read error.
func (c *Conn) serve(ctx context.Context, conn *internal.Conn) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writeLoop(connCtx, conn)
	err := c.readLoop(connCtx, conn)
	_ = conn.CloseNow()
	return err
}

func (c *Conn) readLoop(ctx context.Context, conn *internal.Conn) error {
	for {
		var out Outbound
		if err := conn.Read(ctx, &out); err != nil {
			return err
		}
		if c.closed.Load() {
			return nil
		}
		c.dispatcher.Dispatch(out)
	}
}

func (c *Conn) writeLoop(ctx context.Context, conn *internal.Conn) {
	for {
		select {
		case in := <-c.writeCh:
			if err := conn.Write(ctx, in); err != nil {
				c.logger.Warn("write failed", map[string]any{"room": c.roomID, "error": err.Error()})
				c.dispatcher.fireError(WrapError(ErrorConnection, "write failed", err))
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// sleepCtx waits for d and reports false if the context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
