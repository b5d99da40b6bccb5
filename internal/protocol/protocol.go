// internal/protocol/protocol.go
package protocol

import (
	"kierki/internal/game"
	"kierki/internal/models"
)

// RequestType tags an inbound client message.
type RequestType string

const (
	ReqUsername   RequestType = "request_username"
	ReqCreateRoom RequestType = "create_room"
	ReqInvite     RequestType = "invite_player"
	ReqJoinRoom   RequestType = "join_room"
	ReqDealRound  RequestType = "deal_round"
	ReqPlayCard   RequestType = "play_card"
	ReqExitGame   RequestType = "exit_game"
	ReqDisconnect RequestType = "disconnect"
)

// PlayedCard identifies a card by (suit, rank) in a play_card request.
type PlayedCard struct {
	Suit models.Suit `json:"suit"`
	Rank int         `json:"rank"`
}

// Request is the tagged union for every client message. Only the fields
// relevant to Type are populated.
type Request struct {
	Type     RequestType `json:"type"`
	Name     string      `json:"name,omitempty"`
	Username string      `json:"username,omitempty"`
	RoomID   int         `json:"roomId,omitempty"`
	Card     *PlayedCard `json:"card,omitempty"`
}

// ResponseType tags an outbound server message.
type ResponseType string

const (
	RespWelcome          ResponseType = "welcome"
	RespUsernameAccepted ResponseType = "username_accepted"
	RespRoomCreated      ResponseType = "room_created"
	RespRoomsUpdate      ResponseType = "rooms_update"
	RespInvitation       ResponseType = "invitation"
	RespJoinedRoom       ResponseType = "joined_room"
	RespDealtCards       ResponseType = "dealt_cards"
	RespPlayedCard       ResponseType = "played_card"
	RespCardsUpdate      ResponseType = "cards_update"
	RespTurnOver         ResponseType = "turn_over"
	RespRoundOver        ResponseType = "round_over"
	RespGameOver         ResponseType = "game_over"
	RespMoveRejected     ResponseType = "move_rejected"
	RespError            ResponseType = "error"
)

// RoomSnapshot is the client-visible view of a room: everything except the
// deck, the table and other players' hands.
type RoomSnapshot struct {
	ID           int           `json:"id"`
	HostID       int           `json:"hostId"`
	Members      []game.Member `json:"members"`
	Full         bool          `json:"full"`
	Round        int           `json:"round"`
	CurrentTurn  int           `json:"currentTurn"`
	TrickCounter int           `json:"trickCounter"`
	Scores       map[int]int   `json:"scores"`
	GameOver     bool          `json:"gameOver"`
}

// Snapshot captures the client-visible state of a room. The caller must hold
// the room's lock so every recipient of one broadcast sees the same state.
func Snapshot(r *game.Room) *RoomSnapshot {
	members := make([]game.Member, len(r.Members))
	copy(members, r.Members)
	scores := make(map[int]int, len(r.Scores))
	for id, pts := range r.Scores {
		scores[id] = pts
	}
	return &RoomSnapshot{
		ID:           r.ID,
		HostID:       r.HostID,
		Members:      members,
		Full:         r.Full,
		Round:        r.Round,
		CurrentTurn:  r.CurrentTurn,
		TrickCounter: r.TrickCounter,
		Scores:       scores,
		GameOver:     r.GameOver,
	}
}

// Response is the tagged union for every server message.
type Response struct {
	Type ResponseType `json:"type"`

	PlayerID int  `json:"playerId,omitempty"`
	OK       bool `json:"ok,omitempty"`

	Name  string `json:"name,omitempty"`
	Token string `json:"token,omitempty"`

	Room  *RoomSnapshot   `json:"room,omitempty"`
	Rooms []*RoomSnapshot `json:"rooms,omitempty"`

	Cards []*models.Card `json:"cards,omitempty"`
	Card  *models.Card   `json:"card,omitempty"`

	RoomID  int    `json:"roomId,omitempty"`
	Inviter string `json:"inviter,omitempty"`

	WinnerID   int    `json:"winnerId,omitempty"`
	WinnerName string `json:"winnerName,omitempty"`
	Points     int    `json:"points,omitempty"`

	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}
