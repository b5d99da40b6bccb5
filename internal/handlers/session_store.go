// internal/handlers/session_store.go
package handlers

import (
	"sync"

	"kierki/internal/protocol"
)

// SessionStore is the process-wide session registry and username directory.
// Player ids are positive and unique for the server's lifetime; usernames
// are unique among currently logged-in players and released on disconnect.
type SessionStore struct {
	mu        sync.Mutex
	sessions  map[int]*Session
	usernames map[string]int
	nextID    int
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:  make(map[int]*Session),
		usernames: make(map[string]int),
		nextID:    1,
	}
}

// NextID allocates a fresh player id.
func (s *SessionStore) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

func (s *SessionStore) Add(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Remove drops the session and releases its username.
func (s *SessionStore) Remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	if name := sess.Username(); name != "" {
		delete(s.usernames, name)
	}
	delete(s.sessions, id)
}

func (s *SessionStore) Get(id int) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// ClaimUsername registers name for the session if no logged-in player holds
// it. Returns false when the name is taken or empty.
func (s *SessionStore) ClaimUsername(sess *Session, name string) bool {
	if name == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernames[name]; taken {
		return false
	}
	s.usernames[name] = sess.ID
	sess.setUsername(name)
	return true
}

// GetByUsername resolves a logged-in player's session by name.
func (s *SessionStore) GetByUsername(name string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usernames[name]
	if !ok {
		return nil, false
	}
	sess, ok := s.sessions[id]
	return sess, ok
}

// SendToPlayers enqueues resp for each listed player that is still connected.
func (s *SessionStore) SendToPlayers(playerIDs []int, resp *protocol.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range playerIDs {
		if sess, ok := s.sessions[id]; ok {
			sess.Send(resp)
		}
	}
}

// BroadcastRoomsUpdate fans a room-list update out to every logged-in
// session that is not seated in a room.
func (s *SessionStore) BroadcastRoomsUpdate(snap *protocol.RoomSnapshot) {
	resp := &protocol.Response{Type: protocol.RespRoomsUpdate, Room: snap}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.LoggedIn() && sess.RoomID() == 0 {
			sess.Send(resp)
		}
	}
}
