package chat

import (
	"sync"

	"github.com/samber/lo"
)

// Store is the ordered, deduplicated, append-only message log for one open
// room. It merges the REST history (seeded once) with the live stream
// (appended continuously) and suppresses the server echo of optimistic
// local sends so the user never sees a duplicate of a message they just
// sent. Mutation goes through a single writer, the owning Session; the
// internal lock only makes read snapshots safe.
type Store struct {
	selfID int64

	mu     sync.RWMutex
	msgs   []Message
	seeded bool
}

// NewStore creates an empty log scoped to the given local participant.
func NewStore(selfID int64) *Store {
	return &Store{selfID: selfID}
}

// Seed establishes the initial order from the fetched history. It is called
// once, before any live append is processed, and preserves the order it is
// given.
func (s *Store) Seed(history []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return
	}
	s.msgs = append(s.msgs, history...)
	s.seeded = true
}

// AppendLocal records an optimistic local send. It always appends: two
// identical texts sent in quick succession are two entries, each waiting
// for its own echo.
func (s *Store) AppendLocal(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
}

// Append merges one message from the live stream. If the message is the
// server's echo of a pending local placeholder, the placeholder is replaced
// in place and the log does not grow; otherwise the message is appended.
// The returned flag reports whether a new entry was added.
func (s *Store) Append(m Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.OriginLocal(s.selfID) {
		if i, ok := s.findPlaceholder(m); ok {
			s.msgs[i] = m
			return false
		}
	}
	s.msgs = append(s.msgs, m)
	return true
}

// findPlaceholder locates the oldest unacknowledged local entry the echo
// corresponds to. A client key match is exact; without one, identical
// body and attachment URL is close enough — the known tolerance being two
// identical texts in flight at once.
func (s *Store) findPlaceholder(echo Message) (int, bool) {
	if echo.ClientKey != "" {
		_, i, ok := lo.FindIndexOf(s.msgs, func(m Message) bool {
			return !m.Acked() && m.OriginLocal(s.selfID) && m.ClientKey == echo.ClientKey
		})
		if ok {
			return i, true
		}
	}
	_, i, ok := lo.FindIndexOf(s.msgs, func(m Message) bool {
		return !m.Acked() && m.OriginLocal(s.selfID) &&
			m.Body == echo.Body && m.AttachmentRef == echo.AttachmentRef
	})
	return i, ok
}

// All returns a snapshot of the current ordered sequence.
func (s *Store) All() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the number of entries in the log.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.msgs)
}
