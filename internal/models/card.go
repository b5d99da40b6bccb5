package models

import "fmt"

// Suit is one of the four card suits. The game has no trump suit.
type Suit string

const (
	Heart   Suit = "HEART"
	Club    Suit = "CLUB"
	Diamond Suit = "DIAMOND"
	Spade   Suit = "SPADE"
)

// Suits lists every suit in deck-construction order.
var Suits = []Suit{Heart, Club, Diamond, Spade}

// Rank bounds. Court cards map to 11 (Jack), 12 (Queen), 13 (King), 14 (Ace).
const (
	MinRank = 2
	MaxRank = 14

	Jack  = 11
	Queen = 12
	King  = 13
	Ace   = 14
)

const (
	DeckSize = 52
	HandSize = 13
)

// Card identity is (Suit, Rank); each of the 52 pairs exists exactly once per
// room. Owner and InHand are per-round state: Owner is the player id the card
// was dealt to (0 while undealt) and InHand flips to false when it is played.
type Card struct {
	Suit   Suit `json:"suit"`
	Rank   int  `json:"rank"`
	Owner  int  `json:"owner"`
	InHand bool `json:"inHand"`
}

// Is reports whether the card has the given identity.
func (c *Card) Is(suit Suit, rank int) bool {
	return c.Suit == suit && c.Rank == rank
}

// Reset returns the card to its undealt state at the start of a round.
func (c *Card) Reset() {
	c.Owner = 0
	c.InHand = false
}

func (c *Card) String() string {
	return fmt.Sprintf("%s %d", c.Suit, c.Rank)
}

// NewDeck builds the standard 52-card deck in suit-then-rank order.
func NewDeck() []*Card {
	deck := make([]*Card, 0, DeckSize)
	for _, suit := range Suits {
		for rank := MinRank; rank <= MaxRank; rank++ {
			deck = append(deck, &Card{Suit: suit, Rank: rank})
		}
	}
	return deck
}
