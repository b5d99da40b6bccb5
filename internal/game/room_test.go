// internal/game/room_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kierki/internal/models"
)

// newFullRoom seats four players with out-of-order ids so ordering tests are
// meaningful: host 30, then 10, 40, 20.
func newFullRoom(t *testing.T) *Room {
	t.Helper()
	r := NewRoom(1, 30, "carol")
	require.NoError(t, r.AddPlayer(10, "alice"))
	require.NoError(t, r.AddPlayer(40, "dave"))
	require.NoError(t, r.AddPlayer(20, "bob"))
	require.True(t, r.Full)
	return r
}

// clearHands empties every hand so a custom trick can be staged.
func clearHands(r *Room) {
	for _, c := range r.Deck {
		c.Reset()
	}
}

// giveCard hands a specific deck card to a player.
func giveCard(t *testing.T, r *Room, playerID int, suit models.Suit, rank int) *models.Card {
	t.Helper()
	for _, c := range r.Deck {
		if c.Is(suit, rank) {
			c.Owner = playerID
			c.InHand = true
			return c
		}
	}
	t.Fatalf("card %s %d not in deck", suit, rank)
	return nil
}

func TestAddPlayerKeepsMembersSortedById(t *testing.T) {
	r := newFullRoom(t)

	ids := make([]int, len(r.Members))
	for i, m := range r.Members {
		ids[i] = m.ID
	}
	assert.Equal(t, []int{10, 20, 30, 40}, ids, "members should be ascending by id, not join order")
	assert.Equal(t, "alice", r.Members[0].Username)

	// Fourth join initializes all scores to zero.
	require.Len(t, r.Scores, 4)
	for id, pts := range r.Scores {
		assert.Zero(t, pts, "player %d should start at 0", id)
	}

	assert.ErrorIs(t, r.AddPlayer(50, "eve"), ErrRoomFull)
}

func TestAddPlayerRejectsDuplicate(t *testing.T) {
	r := NewRoom(1, 30, "carol")
	assert.ErrorIs(t, r.AddPlayer(30, "carol"), ErrAlreadyInRoom)
}

func TestDealRoundPartitionsDeck(t *testing.T) {
	r := newFullRoom(t)
	require.NoError(t, r.DealRound())

	seen := make(map[string]bool, models.DeckSize)
	total := 0
	for _, m := range r.Members {
		hand := r.Hand(m.ID)
		assert.Len(t, hand, models.HandSize, "player %d should hold 13 cards", m.ID)
		total += len(hand)
		for _, c := range hand {
			key := c.String()
			assert.False(t, seen[key], "card %s dealt twice", key)
			seen[key] = true
		}
	}
	assert.Equal(t, models.DeckSize, total, "union of hands should be the whole deck")
	assert.Equal(t, r.HostID, r.CurrentTurn, "host leads round 1")
	assert.Equal(t, 1, r.TrickCounter)
}

func TestDealRoundRequiresFullRoom(t *testing.T) {
	r := NewRoom(1, 30, "carol")
	require.NoError(t, r.AddPlayer(10, "alice"))
	assert.ErrorIs(t, r.DealRound(), ErrRoomNotFull)
}

func TestDealRoundRejectedMidRound(t *testing.T) {
	r := newFullRoom(t)
	require.NoError(t, r.DealRound())
	assert.ErrorIs(t, r.DealRound(), ErrRoundInPlay)
}

func TestSuccessorWrapsByAscendingId(t *testing.T) {
	r := newFullRoom(t)
	assert.Equal(t, 20, r.successor(10))
	assert.Equal(t, 30, r.successor(20))
	assert.Equal(t, 40, r.successor(30))
	assert.Equal(t, 10, r.successor(40), "turn should wrap from the highest id to the lowest")
}

func TestPlayCardTracksLeadAndTurn(t *testing.T) {
	r := newFullRoom(t)
	clearHands(r)
	giveCard(t, r, 30, models.Club, 9)
	giveCard(t, r, 40, models.Club, 11)
	r.CurrentTurn = 30

	card, err := r.PlayCard(30, models.Club, 9)
	require.NoError(t, err)
	assert.False(t, card.InHand)
	assert.Same(t, card, r.Lead, "first card of the trick becomes the lead")
	assert.Equal(t, 40, r.CurrentTurn, "turn passes to the next id")

	_, err = r.PlayCard(40, models.Spade, 5)
	assert.ErrorIs(t, err, ErrCardNotHeld)
}

func TestResolveTrickAwardsHighestOfLeadSuit(t *testing.T) {
	r := newFullRoom(t)
	clearHands(r)
	giveCard(t, r, 10, models.Club, 9)
	giveCard(t, r, 20, models.Club, 14)
	giveCard(t, r, 30, models.Spade, 14) // off-suit ace cannot win
	giveCard(t, r, 40, models.Club, 2)
	r.CurrentTurn = 10

	for _, play := range []struct {
		player int
		suit   models.Suit
		rank   int
	}{
		{10, models.Club, 9},
		{20, models.Club, 14},
		{30, models.Spade, 14},
		{40, models.Club, 2},
	} {
		require.Nil(t, r.ResolveTrickIfComplete(), "trick must not resolve early")
		_, err := r.PlayCard(play.player, play.suit, play.rank)
		require.NoError(t, err)
	}

	result := r.ResolveTrickIfComplete()
	require.NotNil(t, result)
	assert.Equal(t, 20, result.TakerID, "ace of clubs takes the trick")
	assert.Equal(t, 20, result.Points, "round 1 tricks are worth a flat 20")
	assert.Equal(t, 20, r.Scores[20])
	assert.Equal(t, 20, r.CurrentTurn, "taker leads the next trick")
	assert.Equal(t, 2, r.TrickCounter)
	assert.Empty(t, r.Table)
	assert.Nil(t, r.Lead)
}

func TestAdvanceRoundResetsTrickCounter(t *testing.T) {
	r := newFullRoom(t)
	r.TrickCounter = 14
	outcome, _ := r.AdvanceRoundOrEndGame()
	assert.Equal(t, RoundAdvanced, outcome)
	assert.Equal(t, 2, r.Round)
	assert.Equal(t, 1, r.TrickCounter)
}

func TestNextRoundLedByTakersSuccessor(t *testing.T) {
	r := newFullRoom(t)
	r.lastTaker = 40
	r.Round = 2
	require.NoError(t, r.DealRound())
	assert.Equal(t, 10, r.CurrentTurn, "round 2+ is led by the last taker's successor")
}

func TestForceEndPicksScoreLeader(t *testing.T) {
	r := newFullRoom(t)
	r.Scores[10] = 300
	r.Scores[20] = 120
	r.Scores[30] = 120
	r.Scores[40] = 500

	winner := r.ForceEnd()
	assert.True(t, r.GameOver)
	assert.Equal(t, 20, winner, "lowest score wins; ties break to the lowest id")
}

// playTrick has each player in turn play their first legal card, then
// resolves the trick.
func playTrick(t *testing.T, r *Room) *TrickResult {
	t.Helper()
	for i := 0; i < MaxPlayers; i++ {
		current := r.CurrentTurn
		var chosen *models.Card
		for _, c := range r.Hand(current) {
			if ValidateMove(r, current, c) == nil {
				chosen = c
				break
			}
		}
		require.NotNil(t, chosen, "player %d must always have a legal card", current)
		_, err := r.PlayCard(current, chosen.Suit, chosen.Rank)
		require.NoError(t, err)
	}
	result := r.ResolveTrickIfComplete()
	require.NotNil(t, result)
	return result
}

func TestFullGameEndToEnd(t *testing.T) {
	r := newFullRoom(t)

	for round := 1; round <= MaxRound; round++ {
		require.NoError(t, r.DealRound())
		require.Equal(t, round, r.Round)

		for trick := 1; trick <= models.HandSize; trick++ {
			require.Equal(t, trick, r.TrickCounter)
			result := playTrick(t, r)
			assert.True(t, r.HasMember(result.TakerID))
		}
		require.True(t, r.RoundComplete())

		outcome, winnerID := r.AdvanceRoundOrEndGame()
		if round < MaxRound {
			require.Equal(t, RoundAdvanced, outcome)
			require.False(t, r.GameOver)
		} else {
			require.Equal(t, GameEnded, outcome)
			require.True(t, r.GameOver)
			for _, m := range r.Members {
				assert.GreaterOrEqual(t, r.Scores[m.ID], r.Scores[winnerID],
					"winner must hold the minimum score")
			}
		}

		if round == 1 {
			sum := 0
			for _, pts := range r.Scores {
				sum += pts
			}
			assert.Equal(t, 13*20, sum, "round 1 hands out exactly 260 points")
		}
	}
}

func TestRoomStoreAllocatesMonotonicIds(t *testing.T) {
	s := NewRoomStore()
	r1 := s.CreateRoom(10, "alice")
	r2 := s.CreateRoom(20, "bob")
	assert.Equal(t, 1, r1.ID)
	assert.Equal(t, 2, r2.ID)

	got, ok := s.GetRoom(r1.ID)
	require.True(t, ok)
	assert.Same(t, r1, got)

	s.DeleteRoom(r1.ID)
	_, ok = s.GetRoom(r1.ID)
	assert.False(t, ok)
	assert.Len(t, s.Rooms(), 1)
}
