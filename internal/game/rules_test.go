// internal/game/rules_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kierki/internal/models"
)

func card(suit models.Suit, rank, owner int) *models.Card {
	return &models.Card{Suit: suit, Rank: rank, Owner: owner, InHand: true}
}

func TestTrickWinnerIgnoresOffSuit(t *testing.T) {
	lead := card(models.Club, 9, 10)
	table := map[int]*models.Card{
		10: lead,
		20: card(models.Club, 13, 20),
		30: card(models.Spade, 14, 30),
		40: card(models.Heart, 14, 40),
	}
	assert.Equal(t, 20, TrickWinner(table, lead),
		"aces off the lead suit must not beat the king of clubs")
}

func TestTrickWinnerDefaultsToLeader(t *testing.T) {
	lead := card(models.Diamond, 2, 10)
	table := map[int]*models.Card{
		10: lead,
		20: card(models.Spade, 14, 20),
		30: card(models.Heart, 10, 30),
		40: card(models.Club, 14, 40),
	}
	assert.Equal(t, 10, TrickWinner(table, lead),
		"the leader takes the trick when nobody follows suit")
}

func TestTrickPoints(t *testing.T) {
	plain := []*models.Card{
		card(models.Club, 2, 10),
		card(models.Club, 5, 20),
		card(models.Diamond, 9, 30),
		card(models.Spade, 3, 40),
	}
	twoHearts := []*models.Card{
		card(models.Heart, 4, 10),
		card(models.Heart, 9, 20),
		card(models.Club, 5, 30),
		card(models.Spade, 3, 40),
	}
	withQueen := []*models.Card{
		card(models.Spade, models.Queen, 10),
		card(models.Club, 5, 20),
		card(models.Diamond, 9, 30),
		card(models.Spade, 3, 40),
	}
	jackAndKing := []*models.Card{
		card(models.Club, models.Jack, 10),
		card(models.Diamond, models.King, 20),
		card(models.Club, 5, 30),
		card(models.Spade, 3, 40),
	}
	kingOfHearts := []*models.Card{
		card(models.Heart, models.King, 10),
		card(models.Club, 5, 20),
		card(models.Diamond, 9, 30),
		card(models.Spade, 3, 40),
	}
	loaded := []*models.Card{
		card(models.Spade, models.Queen, 10),
		card(models.Heart, models.King, 20),
		card(models.Club, 5, 30),
		card(models.Club, 9, 40),
	}

	cases := []struct {
		name   string
		round  int
		trick  []*models.Card
		number int
		want   int
	}{
		{"round 1 flat", 1, plain, 4, 20},
		{"round 1 ignores hearts", 1, twoHearts, 4, 20},
		{"round 2 no hearts", 2, plain, 4, 0},
		{"round 2 two hearts", 2, twoHearts, 4, 40},
		{"round 3 queen", 3, withQueen, 4, 60},
		{"round 3 no queen", 3, jackAndKing, 4, 0},
		{"round 4 jack and king", 4, jackAndKing, 4, 60},
		{"round 5 king of hearts", 5, kingOfHearts, 4, 150},
		{"round 5 other king", 5, jackAndKing, 4, 0},
		{"round 6 seventh trick", 6, plain, 7, 75},
		{"round 6 thirteenth trick", 6, plain, 13, 75},
		{"round 6 other trick", 6, plain, 8, 0},
		// 20 flat + 20 heart + 60 queen + 30 king + 150 king of hearts.
		{"round 7 union", 7, loaded, 5, 280},
		{"round 7 union with trick bonus", 7, loaded, 13, 355},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TrickPoints(tc.round, tc.trick, tc.number))
		})
	}
}

// stagedRoom builds a full room with empty hands and the turn on player 10.
func stagedRoom(t *testing.T) *Room {
	t.Helper()
	r := newFullRoom(t)
	clearHands(r)
	r.CurrentTurn = 10
	return r
}

func TestValidateMoveRejectsOutOfTurn(t *testing.T) {
	r := stagedRoom(t)
	c := giveCard(t, r, 20, models.Club, 9)
	assert.ErrorIs(t, ValidateMove(r, 20, c), ErrNotYourTurn)
}

func TestValidateMoveRejectsUnheldCard(t *testing.T) {
	r := stagedRoom(t)
	giveCard(t, r, 10, models.Club, 9)
	probe := &models.Card{Suit: models.Spade, Rank: 5}
	assert.ErrorIs(t, ValidateMove(r, 10, probe), ErrCardNotHeld)
}

func TestValidateMoveRequiresDeal(t *testing.T) {
	r := newFullRoom(t)
	clearHands(r)
	r.CurrentTurn = 10
	probe := &models.Card{Suit: models.Club, Rank: 9, Owner: 10, InHand: true}
	assert.ErrorIs(t, ValidateMove(r, 10, probe), ErrRoundNotDealt)
}

func TestValidateMoveMustFollowSuit(t *testing.T) {
	r := stagedRoom(t)
	lead := giveCard(t, r, 40, models.Club, 9)
	clubs := giveCard(t, r, 10, models.Club, 4)
	spade := giveCard(t, r, 10, models.Spade, 14)
	lead.InHand = false
	r.Lead = lead
	r.Table[40] = lead

	assert.ErrorIs(t, ValidateMove(r, 10, spade), ErrMustFollowSuit)
	assert.NoError(t, ValidateMove(r, 10, clubs))
}

func TestValidateMoveVoidInLeadSuitPlaysAnything(t *testing.T) {
	r := stagedRoom(t)
	lead := giveCard(t, r, 40, models.Club, 9)
	heart := giveCard(t, r, 10, models.Heart, 14)
	lead.InHand = false
	r.Lead = lead
	r.Table[40] = lead

	assert.NoError(t, ValidateMove(r, 10, heart),
		"a player void in the lead suit may discard any card")
}

func TestValidateMoveHeartLeadBan(t *testing.T) {
	for _, round := range []int{2, 5, 7} {
		r := stagedRoom(t)
		r.Round = round
		heart := giveCard(t, r, 10, models.Heart, 5)
		giveCard(t, r, 10, models.Club, 9)
		require.ErrorIs(t, ValidateMove(r, 10, heart), ErrHeartLeadBanned,
			"round %d forbids leading a heart while holding other suits", round)
	}
}

func TestValidateMoveHeartLeadAllowedInOtherRounds(t *testing.T) {
	for _, round := range []int{1, 3, 4, 6} {
		r := stagedRoom(t)
		r.Round = round
		heart := giveCard(t, r, 10, models.Heart, 5)
		giveCard(t, r, 10, models.Club, 9)
		require.NoError(t, ValidateMove(r, 10, heart),
			"round %d has no heart lead restriction", round)
	}
}

func TestValidateMoveAllHeartsHandMayLead(t *testing.T) {
	r := stagedRoom(t)
	r.Round = 2
	heart := giveCard(t, r, 10, models.Heart, 5)
	giveCard(t, r, 10, models.Heart, 9)
	assert.NoError(t, ValidateMove(r, 10, heart),
		"the ban lifts when the hand is nothing but hearts")
}

func TestValidateMoveGameOver(t *testing.T) {
	r := stagedRoom(t)
	c := giveCard(t, r, 10, models.Club, 9)
	r.GameOver = true
	assert.ErrorIs(t, ValidateMove(r, 10, c), ErrGameOver)
}

func TestGameWinnerTieBreaksToLowestId(t *testing.T) {
	r := newFullRoom(t)
	r.Scores[10] = 200
	r.Scores[20] = 95
	r.Scores[30] = 95
	r.Scores[40] = 300
	assert.Equal(t, 20, GameWinner(r))
}
