package chat

import "fmt"

// ResolveRoom computes the canonical room identifier for an unordered pair
// of participants: the smaller id, an underscore, the larger id. It is pure
// and symmetric, so both sides of a conversation arrive at the same topic
// without agreeing in advance on who is "sender".
func ResolveRoom(a, b int64) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

// Room identifies a conversation between exactly two participants. The pair
// is order-independent for identity purposes.
type Room struct {
	ID           string
	ParticipantA int64
	ParticipantB int64
}

// NewRoom builds the Room for the given pair.
func NewRoom(a, b int64) Room {
	return Room{ID: ResolveRoom(a, b), ParticipantA: a, ParticipantB: b}
}

// Counterpart returns the other participant from selfID's point of view.
func (r Room) Counterpart(selfID int64) int64 {
	if r.ParticipantA == selfID {
		return r.ParticipantB
	}
	return r.ParticipantA
}
