package game

import "sync"

// RoomStore is the process-wide room registry. Its lock guards only the map
// and id counter; individual rooms are guarded by their own lock, and no
// caller holds both longer than an insert or lookup.
type RoomStore struct {
	mu     sync.Mutex
	rooms  map[int]*Room
	nextID int
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms:  make(map[int]*Room),
		nextID: 1,
	}
}

// CreateRoom allocates the next room id and registers a new room with the
// given host.
func (s *RoomStore) CreateRoom(hostID int, username string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := NewRoom(s.nextID, hostID, username)
	s.rooms[s.nextID] = r
	s.nextID++
	return r
}

func (s *RoomStore) GetRoom(id int) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[id]
	return r, exists
}

func (s *RoomStore) DeleteRoom(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

// Rooms returns the registered rooms. Callers snapshot each room under its
// own lock.
func (s *RoomStore) Rooms() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}
