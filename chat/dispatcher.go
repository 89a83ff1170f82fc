package chat

// Dispatcher routes server frames to registered callbacks by topic. One
// durable handler set is registered per room channel; reconnects reuse it
// rather than re-registering.
type Dispatcher struct {
	roomTopic  string
	errorTopic string
	logger     Logger

	onMessage func(Message)
	onNotice  func(error)
	onError   func(error)
}

// SetTopics binds the dispatcher to the room topic and the per-user error
// topic for the current channel.
func (d *Dispatcher) SetTopics(roomTopic, errorTopic string) {
	d.roomTopic = roomTopic
	d.errorTopic = errorTopic
}

func (d *Dispatcher) SetLogger(l Logger) {
	if l != nil {
		d.logger = l
	}
}

func (d *Dispatcher) SetOnMessage(fn func(Message)) { d.onMessage = fn }
func (d *Dispatcher) SetOnNotice(fn func(error))    { d.onNotice = fn }
func (d *Dispatcher) SetOnError(fn func(error))     { d.onError = fn }

// Dispatch routes one server envelope. Rejection notices, whether delivered
// as protocol-level errors or as frames on the error topic, surface through
// the notice callback and never tear anything down. Malformed payloads are
// dropped and reported through the error callback.
func (d *Dispatcher) Dispatch(out Outbound) {
	if out.Type == outboundError && out.Error != nil {
		d.fireNotice(FromProtocolError(out.Error))
		return
	}
	switch out.Topic {
	case d.roomTopic:
		if d.onMessage == nil {
			return
		}
		var msg Message
		if err := UnmarshalData(out.Data, &msg); err != nil {
			d.log("dropping malformed message frame", err)
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal message frame", err))
			return
		}
		d.onMessage(msg)
	case d.errorTopic:
		var pe ProtocolError
		if err := UnmarshalData(out.Data, &pe); err != nil {
			d.log("dropping malformed error frame", err)
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal error frame", err))
			return
		}
		d.fireNotice(FromProtocolError(&pe))
	default:
		d.log("dropping frame for unknown topic", nil)
	}
}

func (d *Dispatcher) fireNotice(err error) {
	if d.onNotice != nil && err != nil {
		d.onNotice(err)
	}
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}

func (d *Dispatcher) log(msg string, err error) {
	if d.logger == nil {
		return
	}
	fields := map[string]any{"room_topic": d.roomTopic}
	if err != nil {
		fields["error"] = err.Error()
	}
	d.logger.Warn(msg, fields)
}
