package game

import (
	"voyager.com/cardtable/animation"
	"voyager.com/cardtable/cards"
)

const cardsPerStackLayer = 6

// TableSnapshot is a read-only copy of everything a table view draws.
type TableSnapshot struct {
	DeckRemaining   int                `json:"deckRemaining"`
	DeckStackHeight int                `json:"deckStackHeight"`
	Displayed       cards.Cards        `json:"displayed"`
	Splaying        []SplayingCardView `json:"splaying"`
	CenterCard      cards.Card         `json:"centerCard"`
	Giving          *GivingView        `json:"giving,omitempty"`
	Players         []PlayerView       `json:"players"`
}

type SplayingCardView struct {
	Card     cards.Card      `json:"card"`
	Phase    animation.Phase `json:"phase"`
	Progress float64         `json:"progress"`
}

type GivingView struct {
	Handle   string  `json:"handle"`
	Progress float64 `json:"progress"`
}

// DeckStackHeight is the number of visible layers for a deck of n cards.
func DeckStackHeight(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + cardsPerStackLayer - 1) / cardsPerStackLayer
}

func (s *Session) Snapshot() TableSnapshot {
	snap := TableSnapshot{
		DeckRemaining:   s.deck.Remaining(),
		DeckStackHeight: DeckStackHeight(s.deck.Remaining()),
		Displayed:       s.Displayed(),
		Splaying:        make([]SplayingCardView, 0, len(s.splaying)),
		CenterCard:      s.centerCard,
		Players:         make([]PlayerView, 0, len(s.players)),
	}
	if snap.Displayed == nil {
		snap.Displayed = cards.Cards{}
	}
	for _, sc := range s.splaying {
		snap.Splaying = append(snap.Splaying, SplayingCardView{
			Card:     sc.card,
			Phase:    sc.splay.Phase(),
			Progress: sc.splay.Progress(),
		})
	}
	if s.giving != nil {
		snap.Giving = &GivingView{
			Handle:   s.giving.handle,
			Progress: s.giving.progress.Progress(),
		}
	}
	for _, p := range s.players {
		snap.Players = append(snap.Players, p.View())
	}
	return snap
}
