// internal/game/rules.go
package game

import (
	"errors"

	"kierki/internal/models"
)

// Move rejection reasons. These surface to the client verbatim in a
// move_rejected response.
var (
	ErrRoomNotFull     = errors.New("room is not full yet")
	ErrRoundNotDealt   = errors.New("round has not been dealt")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrCardNotHeld     = errors.New("you do not hold that card")
	ErrMustFollowSuit  = errors.New("must follow the lead suit")
	ErrHeartLeadBanned = errors.New("hearts cannot lead this round")
	ErrGameOver        = errors.New("game is over")
)

// heartLeadBanned reports whether the round forbids leading a heart while the
// player still holds any non-heart card.
func heartLeadBanned(round int) bool {
	return round == 2 || round == 5 || round == 7
}

// ValidateMove checks the legality of playerID playing card in the room's
// current trick. Assumes the room lock is held.
//
// Leading: any card, except hearts in rounds 2, 5 and 7 unless the hand is
// all hearts. Following: must match the lead suit if able.
func ValidateMove(r *Room, playerID int, card *models.Card) error {
	if r.GameOver {
		return ErrGameOver
	}
	if !r.Full {
		return ErrRoomNotFull
	}
	if !r.dealt() {
		return ErrRoundNotDealt
	}
	if r.CurrentTurn != playerID {
		return ErrNotYourTurn
	}
	if card.Owner != playerID || !card.InHand {
		return ErrCardNotHeld
	}

	if r.Lead == nil {
		if card.Suit == models.Heart && heartLeadBanned(r.Round) && r.holdsNonHeart(playerID) {
			return ErrHeartLeadBanned
		}
		return nil
	}

	if card.Suit == r.Lead.Suit {
		return nil
	}
	if r.holdsSuit(playerID, r.Lead.Suit) {
		return ErrMustFollowSuit
	}
	return nil
}

// TrickWinner returns the player whose card has the highest rank among cards
// matching the lead suit. Off-suit cards can never win; rank ties cannot
// occur because each (suit, rank) pair is unique.
func TrickWinner(table map[int]*models.Card, lead *models.Card) int {
	winner := lead.Owner
	best := 0
	for playerID, card := range table {
		if card.Suit == lead.Suit && card.Rank > best {
			best = card.Rank
			winner = playerID
		}
	}
	return winner
}

// TrickPoints computes the points awarded to the taker of a completed trick.
// trickNumber is 1-based within the round. Round 7 applies every earlier
// round's rule to the same trick at once.
func TrickPoints(round int, trick []*models.Card, trickNumber int) int {
	points := 0
	if round == 1 || round == 7 {
		points += 20
	}
	if round == 2 || round == 7 {
		for _, c := range trick {
			if c.Suit == models.Heart {
				points += 20
			}
		}
	}
	if round == 3 || round == 7 {
		for _, c := range trick {
			if c.Rank == models.Queen {
				points += 60
			}
		}
	}
	if round == 4 || round == 7 {
		for _, c := range trick {
			if c.Rank == models.Jack || c.Rank == models.King {
				points += 30
			}
		}
	}
	if round == 5 || round == 7 {
		for _, c := range trick {
			if c.Is(models.Heart, models.King) {
				points += 150
			}
		}
	}
	if round == 6 || round == 7 {
		if trickNumber == 7 || trickNumber == models.HandSize {
			points += 75
		}
	}
	return points
}

// GameWinner returns the member with the lowest accumulated score. Members
// are sorted by id, so ties resolve to the lowest id.
func GameWinner(r *Room) int {
	winner := 0
	best := 0
	for i, m := range r.Members {
		score := r.Scores[m.ID]
		if i == 0 || score < best {
			best = score
			winner = m.ID
		}
	}
	return winner
}
