// internal/handlers/session.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"kierki/internal/protocol"
)

// Session is the per-connection state: the assigned player id, login state
// and current seat. It owns no game state. All outbound traffic is enqueued
// on Out and drained by a single write pump, so broadcasts produced under a
// room lock reach the socket in mutation order without blocking game logic.
type Session struct {
	ID   int
	Conn *websocket.Conn
	Out  chan *protocol.Response

	Cancel context.CancelFunc

	mu       sync.Mutex
	username string
	roomID   int
}

// outBuffer sizes the outbound queue; a full game broadcast burst (play +
// trick + round + game over) stays well under this.
const outBuffer = 32

func newSession(id int, conn *websocket.Conn, cancel context.CancelFunc) *Session {
	return &Session{
		ID:     id,
		Conn:   conn,
		Out:    make(chan *protocol.Response, outBuffer),
		Cancel: cancel,
	}
}

// Username returns the session's username, or "" before login.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

func (s *Session) setUsername(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = name
}

// LoggedIn reports whether the session has registered a username.
func (s *Session) LoggedIn() bool {
	return s.Username() != ""
}

// RoomID returns the room the session is seated in, or 0.
func (s *Session) RoomID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Seat marks the session as seated in a room.
func (s *Session) Seat(roomID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
}

// Unseat clears the session's seat.
func (s *Session) Unseat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = 0
}

// Send enqueues a response for the write pump. A client that cannot drain
// its queue loses the message; the next failed socket write tears the
// connection down.
func (s *Session) Send(resp *protocol.Response) {
	select {
	case s.Out <- resp:
	default:
		logrus.Warnf("session %d: out buffer full, dropped %s message", s.ID, resp.Type)
	}
}

// SendError enqueues a protocol-level error message.
func (s *Session) SendError(msg string) {
	s.Send(&protocol.Response{Type: protocol.RespError, Message: msg})
}

// writePump drains the session's out-channel onto the websocket, pinging
// periodically. It exits on context cancellation, channel closure, or the
// first failed write; the read loop then observes the closed socket.
func writePump(ctx context.Context, s *Session, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case resp, ok := <-s.Out:
			if !ok {
				return
			}
			data, err := json.Marshal(resp)
			if err != nil {
				logger.Warnf("session %d: failed to marshal %s response: %v", s.ID, resp.Type, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = s.Conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("session %d: write failed: %v", s.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := s.Conn.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("session %d: ping failed, assuming disconnect: %v", s.ID, err)
				return
			}
		}
	}
}
