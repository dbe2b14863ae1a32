package notify

import (
	"context"
	"sync"

	id "certo/pkg/domain"
)

// MemorySink records notifications in memory for tests.
type MemorySink struct {
	mu   sync.Mutex
	sent []Notification
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Send(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

// Sent returns a copy of everything recorded so far.
func (s *MemorySink) Sent() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.sent))
	copy(out, s.sent)
	return out
}

// SentTo filters recorded notifications by recipient.
func (s *MemorySink) SentTo(userID id.UserID) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Notification
	for _, n := range s.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// ByTemplate filters recorded notifications by template key.
func (s *MemorySink) ByTemplate(key TemplateKey) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Notification
	for _, n := range s.sent {
		if n.Template == key {
			out = append(out, n)
		}
	}
	return out
}

// Reset clears recorded notifications.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}
