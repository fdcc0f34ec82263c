package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Sink is the outbound side of a session: something that can deliver
// one complete text line to the connected client. Implementations must
// be safe for concurrent use, since broadcasts are written by whichever
// connection goroutine dispatched the triggering command.
type Sink interface {
	SendLine(line string) error
}

// Session is the server-side handle for one connected client. The
// connection goroutine owns it; the registry holds only a non-owning
// reference keyed by nickname for routing.
type Session struct {
	id   string
	sink Sink

	mu       sync.RWMutex
	nickname string
	username string
}

// NewSession creates a session bound to the given outbound sink.
func NewSession(sink Sink) *Session {
	return &Session{
		id:   uuid.NewString(),
		sink: sink,
	}
}

// ID returns the process-local session identifier.
func (s *Session) ID() string { return s.id }

// Nickname returns the claimed nickname, or "" while unregistered.
func (s *Session) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nickname
}

// Registered reports whether the session has claimed a nickname.
func (s *Session) Registered() bool { return s.Nickname() != "" }

func (s *Session) setNickname(nick string) {
	s.mu.Lock()
	s.nickname = nick
	s.mu.Unlock()
}

// Username returns the USER-supplied display name, if any.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// SetUsername records the USER-supplied display name.
func (s *Session) SetUsername(name string) {
	s.mu.Lock()
	s.username = name
	s.mu.Unlock()
}

// SendLine writes one line to the session's sink.
func (s *Session) SendLine(line string) error {
	return s.sink.SendLine(line)
}
