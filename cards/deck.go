package cards

import (
	"math/rand"

	"voyager.com/cardtable/util/random"
)

const DeckSize = 52

var fullDeck []Card

func init() {
	fullDeck = initializeFullCards()
}

// Deck is a stack of cards. The top of the deck is the end of the slice.
type Deck struct {
	cards   []Card
	randGen *rand.Rand
}

// NewDeck returns all 52 cards shuffled. A nil source is seeded from crypto/rand.
func NewDeck(source rand.Source) *Deck {
	if source == nil {
		source = rand.NewSource(random.NewSeed())
	}
	deck := &Deck{randGen: rand.New(source)}
	deck.Shuffle()
	return deck
}

func NewDeckNoShuffle() *Deck {
	return NewDeckFromCards(fullDeck)
}

// NewDeckFromCards builds a scripted deck. The last card is popped first.
func NewDeckFromCards(cards []Card) *Deck {
	deck := &Deck{}
	deck.cards = make([]Card, len(cards))
	copy(deck.cards, cards)
	return deck
}

// Shuffle restores the full 52 cards and applies a Fisher-Yates shuffle.
func (deck *Deck) Shuffle() *Deck {
	deck.cards = make([]Card, len(fullDeck))
	copy(deck.cards, fullDeck)

	if deck.randGen == nil {
		deck.randGen = rand.New(rand.NewSource(random.NewSeed()))
	}
	deck.randGen.Shuffle(len(deck.cards), func(i, j int) {
		deck.cards[i], deck.cards[j] = deck.cards[j], deck.cards[i]
	})
	return deck
}

// Pop removes and returns the top card. ok is false when the deck is empty.
func (deck *Deck) Pop() (card Card, ok bool) {
	n := len(deck.cards)
	if n == 0 {
		return NoCard, false
	}
	card = deck.cards[n-1]
	deck.cards = deck.cards[:n-1]
	return card, true
}

func (deck *Deck) Remaining() int {
	return len(deck.cards)
}

func (deck *Deck) Empty() bool {
	return len(deck.cards) == 0
}

// Cards returns a copy of the remaining cards, bottom first.
func (deck *Deck) Cards() []Card {
	cards := make([]Card, len(deck.cards))
	copy(cards, deck.cards)
	return cards
}

func (deck *Deck) PrettyPrint() string {
	return CardsToString(deck.cards)
}

// FullDeck returns the canonical 52 cards in suit-major, rank-minor order.
func FullDeck() []Card {
	cards := make([]Card, len(fullDeck))
	copy(cards, fullDeck)
	return cards
}

func initializeFullCards() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}
