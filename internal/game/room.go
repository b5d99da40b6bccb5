// internal/game/room.go
package game

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"kierki/internal/models"
)

const (
	MaxPlayers = 4
	MaxRound   = 7
)

var (
	ErrRoomFull      = errors.New("room is already full")
	ErrAlreadyInRoom = errors.New("player is already in the room")
	ErrRoundInPlay   = errors.New("round is still in progress")
)

// Member is a seated player, kept in ascending id order so the turn rotation
// is determined by id rather than join order.
type Member struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Room holds the entire state of one game: membership, the 52-card deck, the
// current trick, turn order, round and trick counters, and scores.
//
// Every mutating sequence on a Room (add player, deal, play card + resolve
// trick + advance round) runs under Mu, held by the caller for the whole
// sequence. Methods below assume the lock is held unless noted otherwise.
type Room struct {
	ID      int      `json:"id"`
	HostID  int      `json:"hostId"`
	Members []Member `json:"members"`

	Deck []*models.Card `json:"-"`

	// Table maps player id to the card they played this trick. Lead is the
	// first card of the trick; it is nil exactly when Table is empty.
	Table map[int]*models.Card `json:"-"`
	Lead  *models.Card         `json:"-"`

	CurrentTurn  int         `json:"currentTurn"`
	Round        int         `json:"round"`
	TrickCounter int         `json:"trickCounter"`
	Scores       map[int]int `json:"scores"`

	Full     bool `json:"full"`
	GameOver bool `json:"gameOver"`

	// lastTaker leads the first trick of the next round via its successor.
	lastTaker int

	rng *rand.Rand

	Mu sync.Mutex `json:"-"`
}

// NewRoom creates a room with the host as its only member and a fresh,
// undealt deck.
func NewRoom(roomID, hostID int, username string) *Room {
	r := &Room{
		ID:           roomID,
		HostID:       hostID,
		Deck:         models.NewDeck(),
		Table:        make(map[int]*models.Card),
		Scores:       make(map[int]int),
		CurrentTurn:  hostID,
		Round:        1,
		TrickCounter: 1,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	r.Members = []Member{{ID: hostID, Username: username}}
	return r
}

// AddPlayer inserts a player keeping Members sorted by id. The fourth join
// marks the room full and zeroes every score.
func (r *Room) AddPlayer(playerID int, username string) error {
	if r.Full {
		return ErrRoomFull
	}
	idx := 0
	for idx < len(r.Members) {
		if r.Members[idx].ID == playerID {
			return ErrAlreadyInRoom
		}
		if r.Members[idx].ID > playerID {
			break
		}
		idx++
	}
	r.Members = append(r.Members, Member{})
	copy(r.Members[idx+1:], r.Members[idx:])
	r.Members[idx] = Member{ID: playerID, Username: username}

	if len(r.Members) == MaxPlayers {
		r.Full = true
		for _, m := range r.Members {
			r.Scores[m.ID] = 0
		}
	}
	return nil
}

// RemovePlayer drops a member from a room whose game has not started.
// Returns true when the room is left empty.
func (r *Room) RemovePlayer(playerID int) bool {
	for i, m := range r.Members {
		if m.ID == playerID {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			break
		}
	}
	return len(r.Members) == 0
}

// HasMember reports whether playerID is seated in the room.
func (r *Room) HasMember(playerID int) bool {
	for _, m := range r.Members {
		if m.ID == playerID {
			return true
		}
	}
	return false
}

// Username returns the username of a member, or "" if absent.
func (r *Room) Username(playerID int) string {
	for _, m := range r.Members {
		if m.ID == playerID {
			return m.Username
		}
	}
	return ""
}

// dealt reports whether any card is currently held in a hand.
func (r *Room) dealt() bool {
	for _, c := range r.Deck {
		if c.InHand {
			return true
		}
	}
	return false
}

// holdsSuit reports whether the player still holds a card of the given suit.
func (r *Room) holdsSuit(playerID int, suit models.Suit) bool {
	for _, c := range r.Deck {
		if c.Owner == playerID && c.InHand && c.Suit == suit {
			return true
		}
	}
	return false
}

// holdsNonHeart reports whether the player still holds any non-heart card.
func (r *Room) holdsNonHeart(playerID int) bool {
	for _, c := range r.Deck {
		if c.Owner == playerID && c.InHand && c.Suit != models.Heart {
			return true
		}
	}
	return false
}

// DealRound reshuffles the deck and deals 13 cards to each member. The host
// leads round 1; later rounds are led by the successor of the last trick's
// taker. Rejected while the room is not full or cards from the current round
// are still in play.
func (r *Room) DealRound() error {
	if r.GameOver {
		return ErrGameOver
	}
	if !r.Full {
		return ErrRoomNotFull
	}
	if r.dealt() || len(r.Table) > 0 {
		return ErrRoundInPlay
	}

	for _, c := range r.Deck {
		c.Reset()
	}
	r.rng.Shuffle(len(r.Deck), func(i, j int) {
		r.Deck[i], r.Deck[j] = r.Deck[j], r.Deck[i]
	})

	for i, c := range r.Deck {
		owner := r.Members[i/models.HandSize]
		c.Owner = owner.ID
		c.InHand = true
	}

	if r.Round == 1 {
		r.CurrentTurn = r.HostID
	} else {
		r.CurrentTurn = r.successor(r.lastTaker)
	}
	r.TrickCounter = 1
	r.Lead = nil
	return nil
}

// Hand returns the player's current hand.
func (r *Room) Hand(playerID int) []*models.Card {
	hand := make([]*models.Card, 0, models.HandSize)
	for _, c := range r.Deck {
		if c.Owner == playerID && c.InHand {
			hand = append(hand, c)
		}
	}
	return hand
}

// successor returns the next member id in ascending order, wrapping from the
// highest id to the lowest.
func (r *Room) successor(playerID int) int {
	for i, m := range r.Members {
		if m.ID == playerID {
			return r.Members[(i+1)%len(r.Members)].ID
		}
	}
	return r.Members[0].ID
}

// PlayCard marks the deck card matching the played card's identity as no
// longer in hand, places it on the table, records the lead if the trick is
// empty, and passes the turn. Legality must have been checked beforehand via
// ValidateMove. Returns the deck card actually placed.
func (r *Room) PlayCard(playerID int, suit models.Suit, rank int) (*models.Card, error) {
	var played *models.Card
	for _, c := range r.Deck {
		if c.Is(suit, rank) {
			played = c
			break
		}
	}
	if played == nil || played.Owner != playerID || !played.InHand {
		return nil, ErrCardNotHeld
	}

	played.InHand = false
	if len(r.Table) == 0 {
		r.Lead = played
	}
	r.Table[playerID] = played
	r.CurrentTurn = r.successor(r.CurrentTurn)
	return played, nil
}

// TrickResult describes a resolved trick.
type TrickResult struct {
	TakerID int
	Points  int
}

// ResolveTrickIfComplete resolves the trick once four cards are on the
// table: picks the winner, awards that round's points, clears the table and
// hands the next lead to the taker. Returns nil while the trick is open.
func (r *Room) ResolveTrickIfComplete() *TrickResult {
	if len(r.Table) < MaxPlayers {
		return nil
	}

	trick := make([]*models.Card, 0, MaxPlayers)
	for _, c := range r.Table {
		trick = append(trick, c)
	}
	taker := TrickWinner(r.Table, r.Lead)
	points := TrickPoints(r.Round, trick, r.TrickCounter)
	r.Scores[taker] += points

	r.Table = make(map[int]*models.Card)
	r.Lead = nil
	r.TrickCounter++
	r.CurrentTurn = taker
	r.lastTaker = taker

	return &TrickResult{TakerID: taker, Points: points}
}

// RoundComplete reports whether every trick of the round has been played,
// i.e. no card remains in any hand and the table is empty.
func (r *Room) RoundComplete() bool {
	return len(r.Table) == 0 && !r.dealt()
}

// RoundOutcome is returned by AdvanceRoundOrEndGame.
type RoundOutcome int

const (
	RoundAdvanced RoundOutcome = iota
	GameEnded
)

// AdvanceRoundOrEndGame moves to the next round after the 13th trick, or
// ends the game after round 7. On game end the winner is the member with the
// lowest accumulated score.
func (r *Room) AdvanceRoundOrEndGame() (RoundOutcome, int) {
	if r.Round >= MaxRound {
		r.GameOver = true
		return GameEnded, GameWinner(r)
	}
	r.Round++
	r.TrickCounter = 1
	return RoundAdvanced, 0
}

// ForceEnd terminates the game early, declaring the current score leader the
// winner. Used when a seated player disconnects mid-game.
func (r *Room) ForceEnd() int {
	r.GameOver = true
	return GameWinner(r)
}
