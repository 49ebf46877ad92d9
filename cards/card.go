package cards

import (
	"fmt"
	"strconv"
	"strings"
)

// Card packs a rank and a suit into one byte.
// high 4 bits rank of the card, low 4 bits suit of the card
// 0000: 2
// 0001: 3
// ...
// 1000: 10
// 1001: J
// 1010: Q
// 1011: K
// 1100: A
// 0001: Heart
// 0010: Diamond
// 0100: Spade
// 1000: Club
// The zero value has no suit bit set and is used as NoCard.
type Card uint8

type Suit uint8

type Rank uint8

const NoCard Card = 0

const (
	Heart   Suit = 1
	Diamond Suit = 2
	Spade   Suit = 4
	Club    Suit = 8
)

const (
	Rank02 Rank = iota
	Rank03
	Rank04
	Rank05
	Rank06
	Rank07
	Rank08
	Rank09
	Rank10
	RankJ
	RankQ
	RankK
	RankA
)

// Suits and Ranks are in canonical deck order (suit-major, rank-minor).
var Suits = [4]Suit{Heart, Diamond, Spade, Club}

var Ranks = [13]Rank{Rank02, Rank03, Rank04, Rank05, Rank06, Rank07, Rank08, Rank09, Rank10, RankJ, RankQ, RankK, RankA}

var (
	suitNames = map[Suit]string{
		Heart:   "hearts",
		Diamond: "diamonds",
		Spade:   "spades",
		Club:    "clubs",
	}
	rankNames = [...]string{"02", "03", "04", "05", "06", "07", "08", "09", "10", "J", "Q", "K", "A"}

	prettySuits = map[Suit]string{
		Heart:   "❤",
		Diamond: "♦",
		Spade:   "♠",
		Club:    "♣",
	}

	nameToSuit = map[string]Suit{}
	nameToRank = map[string]Rank{}
)

func init() {
	for suit, name := range suitNames {
		nameToSuit[name] = suit
	}
	for i, name := range rankNames {
		nameToRank[name] = Rank(i)
	}
}

func NewCard(suit Suit, rank Rank) Card {
	return Card(uint8(rank)<<4 | uint8(suit))
}

// MustParse builds a card from its wire names, e.g. ("hearts", "10").
// An unknown suit or rank means the caller let corrupt text through, so it panics.
func MustParse(suit string, rank string) Card {
	s, ok := nameToSuit[suit]
	if !ok {
		panic(fmt.Sprintf("bad suit: %s", suit))
	}
	r, ok := nameToRank[rank]
	if !ok {
		panic(fmt.Sprintf("bad rank: %s", rank))
	}
	return NewCard(s, r)
}

// IsSuitName reports whether s is a wire suit name.
func IsSuitName(s string) bool {
	_, ok := nameToSuit[s]
	return ok
}

// IsRankName reports whether s is a wire rank name.
func IsRankName(s string) bool {
	_, ok := nameToRank[s]
	return ok
}

func (c Card) Suit() Suit {
	return Suit(uint8(c) & 0xF)
}

func (c Card) Rank() Rank {
	return Rank(uint8(c) >> 4)
}

func (c Card) IsValid() bool {
	_, ok := suitNames[c.Suit()]
	return ok && int(c.Rank()) < len(rankNames)
}

// String returns the wire form "<suit-name>,<rank-name>". NoCard renders empty.
func (c Card) String() string {
	if !c.IsValid() {
		return ""
	}
	return c.Suit().String() + "," + c.Rank().String()
}

func (c Card) PrettyString() string {
	if !c.IsValid() {
		return "--"
	}
	return strings.TrimPrefix(c.Rank().String(), "0") + prettySuits[c.Suit()]
}

func (c Card) MarshalJSON() ([]byte, error) {
	return []byte("\"" + c.String() + "\""), nil
}

func (s Suit) String() string {
	return suitNames[s]
}

func (r Rank) String() string {
	if int(r) >= len(rankNames) {
		return ""
	}
	return rankNames[r]
}

// Cards marshals as a JSON array of wire strings. Without it a card slice
// encodes as base64 bytes.
type Cards []Card

func (cs Cards) MarshalJSON() ([]byte, error) {
	if cs == nil {
		return []byte("null"), nil
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range cs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(c.String()))
	}
	b.WriteByte(']')
	return []byte(b.String()), nil
}

func CardsToString(cards []Card) string {
	var b strings.Builder
	b.Grow(4 * len(cards))
	fmt.Fprintf(&b, "[")
	for _, c := range cards {
		fmt.Fprintf(&b, " %s ", c.PrettyString())
	}
	fmt.Fprintf(&b, "]")
	return b.String()
}
