// internal/handlers/server.go
package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"kierki/internal/auth"
	"kierki/internal/cache"
	"kierki/internal/game"
	"kierki/internal/history"
	"kierki/internal/models"
	"kierki/internal/protocol"
)

// Server aggregates the process-wide stores. One instance is shared by every
// connection handler.
type Server struct {
	Rooms    *game.RoomStore
	Sessions *SessionStore
	Logger   *logrus.Logger
}

func NewServer(logger *logrus.Logger) *Server {
	return &Server{
		Rooms:    game.NewRoomStore(),
		Sessions: NewSessionStore(),
		Logger:   logger,
	}
}

// snapshotAllRooms builds client-visible snapshots of every registered room,
// taking each room's lock in turn.
func (srv *Server) snapshotAllRooms() []*protocol.RoomSnapshot {
	rooms := srv.Rooms.Rooms()
	snaps := make([]*protocol.RoomSnapshot, 0, len(rooms))
	for _, r := range rooms {
		r.Mu.Lock()
		snaps = append(snaps, protocol.Snapshot(r))
		r.Mu.Unlock()
	}
	return snaps
}

// memberIDs returns the seated player ids. Assumes the room lock is held.
func memberIDs(r *game.Room) []int {
	ids := make([]int, len(r.Members))
	for i, m := range r.Members {
		ids[i] = m.ID
	}
	return ids
}

// HandleUsername processes a username registration. On success the reply
// carries a signed session token and the current room list.
func (srv *Server) HandleUsername(sess *Session, name string) {
	if sess.LoggedIn() {
		sess.SendError("username already set")
		return
	}
	if !srv.Sessions.ClaimUsername(sess, name) {
		srv.Logger.Infof("player %d: username %q rejected (taken)", sess.ID, name)
		sess.Send(&protocol.Response{Type: protocol.RespUsernameAccepted, OK: false})
		return
	}

	token, err := auth.CreateSessionToken(sess.ID)
	if err != nil {
		srv.Logger.Warnf("player %d: failed to sign session token: %v", sess.ID, err)
	}
	srv.Logger.Infof("player %d logged in as %q", sess.ID, name)
	sess.Send(&protocol.Response{
		Type:  protocol.RespUsernameAccepted,
		OK:    true,
		Name:  name,
		Token: token,
		Rooms: srv.snapshotAllRooms(),
	})
}

// HandleCreateRoom creates a room hosted by the session's player and
// announces it to every unseated player.
func (srv *Server) HandleCreateRoom(sess *Session) {
	if !sess.LoggedIn() {
		sess.SendError("register a username first")
		return
	}
	if sess.RoomID() != 0 {
		sess.SendError("already in a room")
		return
	}

	r := srv.Rooms.CreateRoom(sess.ID, sess.Username())
	sess.Seat(r.ID)

	r.Mu.Lock()
	snap := protocol.Snapshot(r)
	r.Mu.Unlock()

	srv.Logger.Infof("player %d created room %d", sess.ID, r.ID)
	sess.Send(&protocol.Response{Type: protocol.RespRoomCreated, Room: snap})
	srv.Sessions.BroadcastRoomsUpdate(snap)
}

// HandleInvite forwards an invitation to the named player's session. A
// self-invite or an invite to an unknown or already-seated player is a
// silent no-op.
func (srv *Server) HandleInvite(sess *Session, username string) {
	roomID := sess.RoomID()
	if roomID == 0 {
		return
	}
	target, ok := srv.Sessions.GetByUsername(username)
	if !ok || target.ID == sess.ID || target.RoomID() != 0 {
		return
	}
	target.Send(&protocol.Response{
		Type:    protocol.RespInvitation,
		RoomID:  roomID,
		Inviter: sess.Username(),
	})
}

// HandleJoinRoom seats the player in the room. Every member receives the
// updated snapshot; unseated players get a room-list update.
func (srv *Server) HandleJoinRoom(sess *Session, roomID int) {
	if !sess.LoggedIn() {
		sess.SendError("register a username first")
		return
	}
	if sess.RoomID() != 0 {
		sess.SendError("already in a room")
		return
	}
	r, ok := srv.Rooms.GetRoom(roomID)
	if !ok {
		sess.SendError("room does not exist")
		return
	}

	r.Mu.Lock()
	if err := r.AddPlayer(sess.ID, sess.Username()); err != nil {
		r.Mu.Unlock()
		sess.SendError(err.Error())
		return
	}
	snap := protocol.Snapshot(r)
	members := memberIDs(r)
	r.Mu.Unlock()

	sess.Seat(roomID)
	srv.Logger.Infof("player %d joined room %d (%d/%d)", sess.ID, roomID, len(members), game.MaxPlayers)
	srv.Sessions.SendToPlayers(members, &protocol.Response{Type: protocol.RespJoinedRoom, Room: snap})
	srv.Sessions.BroadcastRoomsUpdate(snap)
}

// HandleDealRound shuffles and deals the next round, then sends each member
// their own 13 cards. Any member may request the deal.
func (srv *Server) HandleDealRound(sess *Session, roomID int) {
	r, ok := srv.roomFor(sess, roomID)
	if !ok {
		return
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()
	if err := r.DealRound(); err != nil {
		sess.SendError(err.Error())
		return
	}
	srv.Logger.Infof("room %d: dealt round %d", r.ID, r.Round)
	for _, m := range r.Members {
		if member, ok := srv.Sessions.Get(m.ID); ok {
			member.Send(&protocol.Response{
				Type:  protocol.RespDealtCards,
				Cards: copyCards(r.Hand(m.ID)),
			})
		}
	}
}

// HandlePlayCard runs the whole play sequence under the room's lock:
// validate, place the card, resolve the trick if it is the fourth card, and
// advance the round or finish the game after the 13th trick.
func (srv *Server) HandlePlayCard(sess *Session, roomID int, played *protocol.PlayedCard) {
	r, ok := srv.roomFor(sess, roomID)
	if !ok {
		return
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()

	// An identity outside the deck stays unowned and fails the held-card check.
	probe := &models.Card{Suit: played.Suit, Rank: played.Rank}
	if err := game.ValidateMove(r, sess.ID, srv.deckCard(r, played, probe)); err != nil {
		srv.Logger.Infof("room %d: rejected play %s %d by player %d: %v", r.ID, played.Suit, played.Rank, sess.ID, err)
		sess.Send(&protocol.Response{Type: protocol.RespMoveRejected, Reason: err.Error()})
		return
	}

	card, err := r.PlayCard(sess.ID, played.Suit, played.Rank)
	if err != nil {
		sess.Send(&protocol.Response{Type: protocol.RespMoveRejected, Reason: err.Error()})
		return
	}

	// Responses are marshaled on the write pump after the lock is released,
	// so they carry a copy of the card, not the live deck entry.
	playedCopy := *card
	snap := protocol.Snapshot(r)
	members := memberIDs(r)
	sess.Send(&protocol.Response{Type: protocol.RespPlayedCard, Card: &playedCopy, Room: snap})
	for _, id := range members {
		if id == sess.ID {
			continue
		}
		if other, ok := srv.Sessions.Get(id); ok {
			other.Send(&protocol.Response{Type: protocol.RespCardsUpdate, Card: &playedCopy, Room: snap})
		}
	}

	if cache.Enabled() {
		rec := cache.PlayRecord{
			RoomID:    r.ID,
			PlayerID:  sess.ID,
			Round:     r.Round,
			Trick:     r.TrickCounter,
			Suit:      string(card.Suit),
			Rank:      card.Rank,
			Timestamp: time.Now().Unix(),
		}
		go func() {
			if err := cache.PublishPlay(context.Background(), rec); err != nil {
				srv.Logger.Warnf("room %d: failed to publish play record: %v", rec.RoomID, err)
			}
		}()
	}

	result := r.ResolveTrickIfComplete()
	if result == nil {
		return
	}

	snap = protocol.Snapshot(r)
	srv.Logger.Infof("room %d: trick %d taken by player %d for %d points",
		r.ID, r.TrickCounter-1, result.TakerID, result.Points)
	srv.Sessions.SendToPlayers(members, &protocol.Response{
		Type:     protocol.RespTurnOver,
		WinnerID: result.TakerID,
		Points:   result.Points,
		Room:     snap,
	})

	if !r.RoundComplete() {
		return
	}

	outcome, winnerID := r.AdvanceRoundOrEndGame()
	snap = protocol.Snapshot(r)
	if outcome == game.RoundAdvanced {
		srv.Logger.Infof("room %d: round %d finished, advancing to round %d", r.ID, r.Round-1, r.Round)
		srv.Sessions.SendToPlayers(members, &protocol.Response{Type: protocol.RespRoundOver, Room: snap})
		return
	}

	winnerName := r.Username(winnerID)
	srv.Logger.Infof("room %d: game over, winner %q (player %d)", r.ID, winnerName, winnerID)
	srv.Sessions.SendToPlayers(members, &protocol.Response{
		Type:       protocol.RespGameOver,
		WinnerID:   winnerID,
		WinnerName: winnerName,
		Room:       snap,
	})
	srv.recordResult(r, winnerID, winnerName, false)
	srv.teardownRoom(r.ID, members)
}

// HandleExitGame leaves a room whose game has not started. Leaving a full
// room mid-game is a disconnect and force-ends it.
func (srv *Server) HandleExitGame(sess *Session) {
	roomID := sess.RoomID()
	if roomID == 0 {
		return
	}
	r, ok := srv.Rooms.GetRoom(roomID)
	if !ok {
		sess.Unseat()
		return
	}

	r.Mu.Lock()
	if r.Full && !r.GameOver {
		srv.forceEndLocked(r, sess.ID)
		return
	}
	empty := r.RemovePlayer(sess.ID)
	snap := protocol.Snapshot(r)
	r.Mu.Unlock()

	sess.Unseat()
	srv.Logger.Infof("player %d left room %d", sess.ID, roomID)
	if empty {
		srv.Rooms.DeleteRoom(roomID)
	} else {
		srv.Sessions.SendToPlayers(memberIDsFromSnapshot(snap), &protocol.Response{Type: protocol.RespJoinedRoom, Room: snap})
	}
	srv.Sessions.BroadcastRoomsUpdate(snap)
}

// HandleDisconnect is the explicit mid-game leave request.
func (srv *Server) HandleDisconnect(sess *Session, roomID int) {
	r, ok := srv.roomFor(sess, roomID)
	if !ok {
		return
	}
	r.Mu.Lock()
	if r.Full && !r.GameOver {
		srv.forceEndLocked(r, sess.ID)
		return
	}
	r.Mu.Unlock()
	srv.HandleExitGame(sess)
}

// HandleConnectionDrop cleans up after a closed or failed connection: a
// seated mid-game player force-ends their room, then the session and its
// username are removed.
func (srv *Server) HandleConnectionDrop(sess *Session) {
	if roomID := sess.RoomID(); roomID != 0 {
		if r, ok := srv.Rooms.GetRoom(roomID); ok {
			r.Mu.Lock()
			if r.Full && !r.GameOver {
				srv.forceEndLocked(r, sess.ID)
			} else {
				empty := r.RemovePlayer(sess.ID)
				snap := protocol.Snapshot(r)
				r.Mu.Unlock()
				if empty {
					srv.Rooms.DeleteRoom(roomID)
				} else {
					srv.Sessions.SendToPlayers(memberIDsFromSnapshot(snap), &protocol.Response{Type: protocol.RespJoinedRoom, Room: snap})
				}
				srv.Sessions.BroadcastRoomsUpdate(snap)
			}
		}
	}
	srv.Sessions.Remove(sess.ID)
	srv.Logger.Infof("player %d disconnected", sess.ID)
}

// forceEndLocked ends a game in progress because leaverID is gone: the
// current score leader wins, the remaining members get a game_over, and the
// room is torn down. Takes ownership of the held room lock and releases it.
func (srv *Server) forceEndLocked(r *game.Room, leaverID int) {
	winnerID := r.ForceEnd()
	winnerName := r.Username(winnerID)
	snap := protocol.Snapshot(r)
	members := memberIDs(r)

	remaining := make([]int, 0, len(members))
	for _, id := range members {
		if id != leaverID {
			remaining = append(remaining, id)
		}
	}
	srv.Logger.Infof("room %d: force-ended after player %d left, winner %q", r.ID, leaverID, winnerName)
	srv.Sessions.SendToPlayers(remaining, &protocol.Response{
		Type:       protocol.RespGameOver,
		WinnerID:   winnerID,
		WinnerName: winnerName,
		Room:       snap,
	})
	srv.recordResult(r, winnerID, winnerName, true)
	r.Mu.Unlock()
	srv.teardownRoom(r.ID, members)
}

// teardownRoom removes the room from the registry and unseats its members.
func (srv *Server) teardownRoom(roomID int, members []int) {
	srv.Rooms.DeleteRoom(roomID)
	for _, id := range members {
		if sess, ok := srv.Sessions.Get(id); ok {
			sess.Unseat()
		}
	}
}

// recordResult persists the finished game asynchronously when the history
// store is configured. Failures are logged and otherwise ignored; gameplay
// never depends on the database.
func (srv *Server) recordResult(r *game.Room, winnerID int, winnerName string, forced bool) {
	if !history.Enabled() {
		return
	}
	rec := history.GameRecord{
		RoomID:     r.ID,
		WinnerID:   winnerID,
		WinnerName: winnerName,
		Scores:     make(map[string]int, len(r.Scores)),
		Forced:     forced,
		FinishedAt: time.Now(),
	}
	for id, pts := range r.Scores {
		rec.Scores[strconv.Itoa(id)] = pts
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := history.RecordGame(ctx, rec); err != nil {
			srv.Logger.Warnf("room %d: failed to record game result: %v", rec.RoomID, err)
		}
	}()
}

// roomFor resolves the room a request targets, requiring the session to be
// seated in it.
func (srv *Server) roomFor(sess *Session, roomID int) (*game.Room, bool) {
	if sess.RoomID() != roomID || roomID == 0 {
		sess.SendError("not in that room")
		return nil, false
	}
	r, ok := srv.Rooms.GetRoom(roomID)
	if !ok {
		sess.SendError("room does not exist")
		return nil, false
	}
	return r, true
}

// deckCard maps a played (suit, rank) onto the room's deck card so legality
// checks see real ownership state; unknown identities fall back to the probe,
// which can never validate as held.
func (srv *Server) deckCard(r *game.Room, played *protocol.PlayedCard, probe *models.Card) *models.Card {
	for _, c := range r.Deck {
		if c.Is(played.Suit, played.Rank) {
			return c
		}
	}
	return probe
}

func copyCards(cards []*models.Card) []*models.Card {
	out := make([]*models.Card, len(cards))
	for i, c := range cards {
		cc := *c
		out[i] = &cc
	}
	return out
}

func memberIDsFromSnapshot(snap *protocol.RoomSnapshot) []int {
	ids := make([]int, len(snap.Members))
	for i, m := range snap.Members {
		ids[i] = m.ID
	}
	return ids
}
