// Package chat keeps the client-side view of the conversation the user is
// currently looking at: which conversation is open and the ordered message
// history shown for it. Realtime delivery and the REST history endpoint both
// feed the same state, so Append suppresses messages it has already seen.
package chat

import (
	"sync"

	"github.com/stayloop/stayloop-go/internal/domain/chat"
)

// State holds the active conversation and its message history. All methods
// are safe for concurrent use; the realtime read loop and UI-driven calls
// touch it from different goroutines.
type State struct {
	mu       sync.RWMutex
	current  int64
	messages []chat.Message
	seen     map[int64]struct{}
}

func NewState() *State {
	return &State{seen: make(map[int64]struct{})}
}

// SetCurrent marks chatID as the open conversation. Switching conversations
// drops the previous history; the caller loads the new one via SetHistory.
func (s *State) SetCurrent(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == chatID {
		return
	}
	s.current = chatID
	s.resetMessagesLocked()
}

// Current returns the open conversation id, or zero when none is open.
func (s *State) Current() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// BelongsToCurrent reports whether chatID is the open conversation.
func (s *State) BelongsToCurrent(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != 0 && s.current == chatID
}

// Append adds msg to the history unless a message with the same id is
// already present. It reports whether the message was added, so callers can
// skip re-rendering on duplicates.
func (s *State) Append(msg chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[msg.ID]; dup {
		return false
	}
	s.seen[msg.ID] = struct{}{}
	s.messages = append(s.messages, msg)
	return true
}

// SetHistory replaces the history wholesale, typically with the page loaded
// from the conversation endpoint. Later Appends still dedupe against it.
func (s *State) SetHistory(msgs []chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetMessagesLocked()
	for _, m := range msgs {
		if _, dup := s.seen[m.ID]; dup {
			continue
		}
		s.seen[m.ID] = struct{}{}
		s.messages = append(s.messages, m)
	}
}

// Messages returns a copy of the history in arrival order.
func (s *State) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chat.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// ClearMessages empties the history but keeps the conversation open.
func (s *State) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetMessagesLocked()
}

// Reset returns the state to its initial value, used on logout.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = 0
	s.resetMessagesLocked()
}

func (s *State) resetMessagesLocked() {
	s.messages = nil
	s.seen = make(map[int64]struct{})
}
