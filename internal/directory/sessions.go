package directory

import "github.com/google/uuid"

// LoginListener observes session ↔ account binding changes. An empty
// account name signals logout. Authorization modules subscribe to this;
// the directory core itself never consumes it.
type LoginListener interface {
	LoginChanged(session uuid.UUID, accountName string)
}

// Sessions tracks which account each live session is bound to and fires
// login events on every change. Session handles are UUIDv7, so they sort
// by creation time in logs and traces.
//
// Like the directory, Sessions is single-writer state: all calls happen
// on the node's event-processing goroutine.
type Sessions struct {
	byHandle  map[uuid.UUID]string
	listeners []LoginListener
}

// NewSessions returns an empty session tracker.
func NewSessions() *Sessions {
	return &Sessions{byHandle: make(map[uuid.UUID]string)}
}

// Subscribe registers a login listener.
func (s *Sessions) Subscribe(l LoginListener) {
	s.listeners = append(s.listeners, l)
}

// Open allocates a handle for a new session, not yet bound to any
// account.
func (s *Sessions) Open() uuid.UUID {
	h := uuid.Must(uuid.NewV7())
	s.byHandle[h] = ""
	return h
}

// Login binds the session to an account and fires the login event.
// An empty name logs the session out. Rebinding to the same name fires
// nothing.
func (s *Sessions) Login(h uuid.UUID, accountName string) {
	cur, ok := s.byHandle[h]
	if !ok || cur == accountName {
		return
	}
	s.byHandle[h] = accountName
	for _, l := range s.listeners {
		l.LoginChanged(h, accountName)
	}
}

// IsLoggedIn reports whether the session is bound to an account.
func (s *Sessions) IsLoggedIn(h uuid.UUID) bool {
	return s.byHandle[h] != ""
}

// AccountFor returns the account the session is bound to, or "" when
// logged out or unknown.
func (s *Sessions) AccountFor(h uuid.UUID) string {
	return s.byHandle[h]
}

// Close drops the session, firing a logout first if it was bound.
func (s *Sessions) Close(h uuid.UUID) {
	if s.byHandle[h] != "" {
		s.Login(h, "")
	}
	delete(s.byHandle, h)
}

// LogoutAccount logs out every session bound to the given account, e.g.
// after the account was removed by a remote node.
func (s *Sessions) LogoutAccount(accountName string) {
	for h, bound := range s.byHandle {
		if bound == accountName {
			s.Login(h, "")
		}
	}
}
