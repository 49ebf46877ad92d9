package game

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"voyager.com/cardtable/animation"
	"voyager.com/cardtable/cards"
	"voyager.com/cardtable/transport/memory"
)

// Ticks needed for the default animations.
var (
	splayTicks = int(animation.TickRate * (0.2 + 0.4 + 1.5))
	giveTicks  = int(animation.TickRate * defaultGiveSeconds)
)

// An unshuffled deck pops clubs A, K, Q, J, 10, ... in that order.
func newTestSession(t *testing.T, deck *cards.Deck) (*Session, *memory.Transport) {
	tr := memory.NewTransport()
	if deck == nil {
		deck = cards.NewDeckNoShuffle()
	}
	s, err := NewSession(tr, deck, DefaultAnimationConfig)
	require.NoError(t, err)
	return s, tr
}

func joinPlayer(t *testing.T, s *Session, tr *memory.Transport, handle string, name string) {
	tr.Connect(handle)
	s.HandleClientMessage(handle, "join:"+name)
	_, ok := s.Player(handle)
	require.True(t, ok)
	tr.TakeSent(handle)
}

func updateN(s *Session, n int) {
	for i := 0; i < n; i++ {
		s.Update()
	}
}

func card(suit string, rank string) cards.Card {
	return cards.MustParse(suit, rank)
}

func TestNewSessionPopsCenterCard(t *testing.T) {
	s, _ := newTestSession(t, nil)
	assert.Equal(t, card("clubs", "A"), s.CenterCard())
	assert.Equal(t, cards.DeckSize-1, s.DeckRemaining())
	assert.Empty(t, s.Displayed())
	assert.Empty(t, s.Players())
}

func TestNewSessionValidation(t *testing.T) {
	tr := memory.NewTransport()
	_, err := NewSession(nil, cards.NewDeckNoShuffle(), DefaultAnimationConfig)
	assert.Error(t, err)
	_, err = NewSession(tr, nil, DefaultAnimationConfig)
	assert.Error(t, err)
	bad := DefaultAnimationConfig
	bad.GiveSeconds = 0
	_, err = NewSession(tr, cards.NewDeckNoShuffle(), bad)
	assert.Error(t, err)
	bad.GiveSeconds = math.NaN()
	_, err = NewSession(tr, cards.NewDeckNoShuffle(), bad)
	assert.Error(t, err)
	bad = DefaultAnimationConfig
	bad.TravelSeconds = math.Inf(1)
	_, err = NewSession(tr, cards.NewDeckNoShuffle(), bad)
	assert.Error(t, err)
}

func TestNewSessionEmptyDeck(t *testing.T) {
	s, _ := newTestSession(t, cards.NewDeckFromCards(nil))
	assert.Equal(t, cards.NoCard, s.CenterCard())
	assert.Equal(t, 0, s.DeckRemaining())
}

func TestJoinSendsInitialState(t *testing.T) {
	s, tr := newTestSession(t, nil)
	tr.Connect("h1")

	s.HandleClientMessage("h1", "join:Alice")

	assert.Equal(t, []string{"state:playing:Alice:clubs,K:clubs,Q"}, tr.Sent("h1"))
	p, ok := s.Player("h1")
	require.True(t, ok)
	assert.Equal(t, "Alice", p.Name())
	assert.Equal(t, card("clubs", "K"), p.Card(SideLeft))
	assert.Equal(t, card("clubs", "Q"), p.Card(SideRight))
	assert.Equal(t, cards.DeckSize-3, s.DeckRemaining())
}

func TestJoinShuffledDeckPopulatesBothSlots(t *testing.T) {
	s, tr := newTestSession(t, cards.NewDeck(nil))
	tr.Connect("h1")
	s.HandleClientMessage("h1", "join:Alice")

	p, ok := s.Player("h1")
	require.True(t, ok)
	left, right := p.Card(SideLeft).String(), p.Card(SideRight).String()
	assert.NotEmpty(t, left)
	assert.NotEmpty(t, right)
	assert.Equal(t, []string{"state:playing:Alice:" + left + ":" + right}, tr.Sent("h1"))
}

func TestJoinWithShortDeck(t *testing.T) {
	// center takes the last card; the player gets the only one left
	s, tr := newTestSession(t, cards.NewDeckFromCards([]cards.Card{card("hearts", "02"), card("spades", "J")}))
	tr.Connect("h1")
	tr.Connect("h2")

	s.HandleClientMessage("h1", "join:Alice")
	s.HandleClientMessage("h2", "join:Bob")

	assert.Equal(t, []string{"state:playing:Alice:hearts,02:"}, tr.Sent("h1"))
	assert.Equal(t, []string{"state:playing:Bob::"}, tr.Sent("h2"))
	assert.Len(t, s.Players(), 2)
}

func TestJoinWithoutName(t *testing.T) {
	s, tr := newTestSession(t, nil)
	tr.Connect("h1")
	s.HandleClientMessage("h1", "join")
	assert.Equal(t, []string{"state:playing::clubs,K:clubs,Q"}, tr.Sent("h1"))
}

func TestStateRequestBeforeJoin(t *testing.T) {
	s, tr := newTestSession(t, nil)
	tr.Connect("h1")

	s.HandleClientMessage("h1", "state-request")

	assert.Equal(t, []string{StateJoining}, tr.Sent("h1"))
	assert.Empty(t, s.Players())
}

func TestOtherMessagesBeforeJoinAreIgnored(t *testing.T) {
	for _, msg := range []string{"deal", "card:L,hearts,10", "bogus", "", "state:joining"} {
		t.Run(msg, func(t *testing.T) {
			s, tr := newTestSession(t, nil)
			tr.Connect("h1")
			before := s.Snapshot()

			s.HandleClientMessage("h1", msg)

			assert.Empty(t, s.Players())
			assert.Empty(t, tr.Sent("h1"))
			if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
				t.Errorf("session changed (-before +after):\n%s", diff)
			}
		})
	}
}

func TestStateRequestAfterJoin(t *testing.T) {
	s, tr := newTestSession(t, nil)
	joinPlayer(t, s, tr, "h1", "Alice")

	s.HandleClientMessage("h1", "state-request")
	s.HandleClientMessage("h1", "state-request")

	assert.Equal(t, []string{
		"state:playing:Alice:clubs,K:clubs,Q",
		"state:playing:Alice:clubs,K:clubs,Q",
	}, tr.Sent("h1"))
	assert.Equal(t, cards.DeckSize-3, s.DeckRemaining())
}

func TestSecondJoinIsIgnored(t *testing.T) {
	s, tr := newTestSession(t, nil)
	joinPlayer(t, s, tr, "h1", "Alice")

	s.HandleClientMessage("h1", "join:Mallory")

	p, _ := s.Player("h1")
	assert.Equal(t, "Alice", p.Name())
	assert.Len(t, s.Players(), 1)
	assert.Empty(t, tr.Sent("h1"))
	assert.Equal(t, cards.DeckSize-3, s.DeckRemaining())
}

func TestDealMovesOneCardToDisplay(t *testing.T) {
	s, tr := newTestSession(t, nil)
	joinPlayer(t, s, tr, "h1", "Alice")
	remaining := s.DeckRemaining()

	s.HandleClientMessage("h1", "deal")
	assert.Equal(t, remaining-1, s.DeckRemaining())
	assert.Equal(t, 1, s.SplayingCount())

	updateN(s, splayTicks-1)
	assert.Empty(t, s.Displayed())
	assert.Equal(t, 1, s.SplayingCount())

	s.Update()
	assert.Equal(t, []cards.Card{card("clubs", "J")}, s.Displayed())
	assert.Equal(t, 0, s.SplayingCount())
	assert.Empty(t, tr.Sent("h1"))
}

func TestSplaysAppendInCompletionOrder(t *testing.T) {
	s, tr := newTestSession(t, nil)
	joinPlayer(t, s, tr, "h1", "Alice")

	s.HandleClientMessage("h1", "deal") // clubs J
	updateN(s, 10)
	s.HandleClientMessage("h1", "deal") // clubs 10
	s.HandleClientMessage("h1", "deal") // clubs 09
	assert.Equal(t, 3, s.SplayingCount())

	updateN(s, splayTicks-10)
	assert.Equal(t, []cards.Card{card("clubs", "J")}, s.Displayed())

	updateN(s, 10)
	expected := []cards.Card{card("clubs", "J"), card("clubs", "10"), card("clubs", "09")}
	if diff := cmp.Diff(expected, s.Displayed()); diff != "" {
		t.Errorf("display order (-want +got):\n%s", diff)
	}
}

func TestDealOnEmptyDeck(t *testing.T) {
	s, tr := newTestSession(t, cards.NewDeckFromCards([]cards.Card{card("hearts", "02"), card("hearts", "03"), card("hearts", "04")}))
	joinPlayer(t, s, tr, "h1", "Alice")
	require.Equal(t, 0, s.DeckRemaining())

	s.HandleClientMessage("h1", "deal")
	s.HandleKeyPress()

	assert.Equal(t, 0, s.SplayingCount())
	updateN(s, splayTicks)
	assert.Empty(t, s.Displayed())
}

func TestHandleKeyPressDeals(t *testing.T) {
	s, _ := newTestSession(t, nil)
	s.HandleKeyPress()
	assert.Equal(t, 1, s.SplayingCount())
	assert.Equal(t, cards.DeckSize-2, s.DeckRemaining())
}

func TestGiveDefersNotification(t *testing.T) {
	s, tr := newTestSession(t, nil)
	joinPlayer(t, s, tr, "h1", "Alice")

	s.HandleClientMessage("h1", "card:L,hearts,10")

	p, _ := s.Player("h1")
	assert.Equal(t, card("hearts", "10"), s.CenterCard())
	assert.Equal(t, card("clubs", "J"), p.Card(SideLeft))
	assert.Equal(t, card("clubs", "Q"), p.Card(SideRight))
	handle, progress, ok := s.GiveProgress()
	require.True(t, ok)
	assert.Equal(t, "h1", handle)
	assert.Equal(t, 0.0, progress)

	updateN(s, giveTicks-1)
	assert.Empty(t, tr.Sent("h1"))
	_, _, ok = s.GiveProgress()
	assert.True(t, ok)

	s.Update()
	assert.Equal(t, []string{"state:playing:Alice:clubs,J:clubs,Q"}, tr.Sent("h1"))
	_, _, ok = s.GiveProgress()
	assert.False(t, ok)

	updateN(s, giveTicks)
	assert.Len(t, tr.Sent("h1"), 1)
}

func TestGiveRightSide(t *testing.T) {
	s, tr := newTestSession(t, nil)
	joinPlayer(t, s, tr, "h1", "Alice")

	s.HandleClientMessage("h1", "card:R,spades,A")
	updateN(s, giveTicks)

	assert.Equal(t, card("spades", "A"), s.CenterCard())
	assert.Equal(t, []string{"state:playing:Alice:clubs,K:clubs,J"}, tr.Sent("h1"))
}

func TestSecondGiveWhileInFlightIsIgnored(t *testing.T) {
	s, tr := newTestSession(t, nil)
	joinPlayer(t, s, tr, "h1", "Alice")
	joinPlayer(t, s, tr, "h2", "Bob")

	s.HandleClientMessage("h1", "card:L,hearts,10")
	updateN(s, 5)
	before := s.Snapshot()

	s.HandleClientMessage("h2", "card:R,diamonds,03")
	s.HandleClientMessage("h1", "card:R,diamonds,04")

	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("second give changed the table (-before +after):\n%s", diff)
	}

	updateN(s, giveTicks-5)
	assert.Len(t, tr.Sent("h1"), 1)
	assert.Empty(t, tr.Sent("h2"))

	// the slot is free again once the first give lands
	s.HandleClientMessage("h2", "card:R,diamonds,03")
	_, _, ok := s.GiveProgress()
	assert.True(t, ok)
	assert.Equal(t, card("diamonds", "03"), s.CenterCard())
}

func TestGiveOnEmptyDeck(t *testing.T) {
	s, tr := newTestSession(t, cards.NewDeckFromCards([]cards.Card{card("hearts", "02"), card("hearts", "03"), card("hearts", "04")}))
	joinPlayer(t, s, tr, "h1", "Alice")
	before := s.Snapshot()

	s.HandleClientMessage("h1", "card:L,spades,A")

	_, _, ok := s.GiveProgress()
	assert.False(t, ok)
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("give on empty deck changed the table (-before +after):\n%s", diff)
	}
	updateN(s, giveTicks)
	assert.Empty(t, tr.Sent("h1"))
}

func TestMalformedMessagesFromPlayerAreIgnored(t *testing.T) {
	messages := []string{
		"card",
		"card:",
		"card:L",
		"card:L,hearts",
		"card:X,hearts,10",
		"card:l,hearts,10",
		"card:L,stars,10",
		"card:L,hearts,1",
		"card:L,hearts,10,extra",
		"card:L,,",
		"shuffle",
		"",
		"state:joining",
	}
	for _, msg := range messages {
		t.Run(msg, func(t *testing.T) {
			s, tr := newTestSession(t, nil)
			joinPlayer(t, s, tr, "h1", "Alice")
			before := s.Snapshot()

			require.NotPanics(t, func() { s.HandleClientMessage("h1", msg) })

			if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
				t.Errorf("session changed (-before +after):\n%s", diff)
			}
			updateN(s, giveTicks)
			assert.Empty(t, tr.Sent("h1"))
		})
	}
}

func TestSendFailureDoesNotStopSession(t *testing.T) {
	s, tr := newTestSession(t, nil)
	tr.Connect("h1")
	tr.FailSend(errors.New("connection reset"))

	s.HandleClientMessage("h1", "join:Alice")
	s.HandleClientMessage("h1", "card:L,hearts,10")
	updateN(s, giveTicks)

	p, ok := s.Player("h1")
	require.True(t, ok)
	assert.Equal(t, card("clubs", "J"), p.Card(SideLeft))

	tr.FailSend(nil)
	s.HandleClientMessage("h1", "state-request")
	assert.Equal(t, []string{"state:playing:Alice:clubs,J:clubs,Q"}, tr.Sent("h1"))
}

func TestCardsAreConservedWithoutGives(t *testing.T) {
	s, tr := newTestSession(t, cards.NewDeck(nil))
	joinPlayer(t, s, tr, "h1", "Alice")
	joinPlayer(t, s, tr, "h2", "Bob")
	for i := 0; i < 5; i++ {
		s.HandleClientMessage("h1", "deal")
		updateN(s, 40)
	}

	snap := s.Snapshot()
	var all []cards.Card
	all = append(all, s.deck.Cards()...)
	all = append(all, snap.CenterCard)
	all = append(all, snap.Displayed...)
	for _, sc := range snap.Splaying {
		all = append(all, sc.Card)
	}
	for _, p := range snap.Players {
		all = append(all, p.LeftCard, p.RightCard)
	}
	assert.ElementsMatch(t, cards.FullDeck(), all)
}

func TestSnapshot(t *testing.T) {
	s, tr := newTestSession(t, nil)
	joinPlayer(t, s, tr, "h1", "Alice")
	s.HandleClientMessage("h1", "deal")
	s.HandleClientMessage("h1", "card:R,hearts,10")
	updateN(s, 12)

	snap := s.Snapshot()
	assert.Equal(t, cards.DeckSize-5, snap.DeckRemaining)
	assert.Equal(t, 8, snap.DeckStackHeight)
	assert.Equal(t, card("hearts", "10"), snap.CenterCard)
	require.Len(t, snap.Splaying, 1)
	assert.Equal(t, card("clubs", "J"), snap.Splaying[0].Card)
	assert.Equal(t, animation.PhaseFlip, snap.Splaying[0].Phase)
	assert.Equal(t, 0.0, snap.Splaying[0].Progress)
	require.NotNil(t, snap.Giving)
	assert.Equal(t, "h1", snap.Giving.Handle)
	assert.InDelta(t, 0.2, snap.Giving.Progress, 1e-9)
	assert.Equal(t, []PlayerView{{
		Handle:    "h1",
		Name:      "Alice",
		LeftCard:  card("clubs", "K"),
		RightCard: card("clubs", "10"),
	}}, snap.Players)
}

func TestDeckStackHeight(t *testing.T) {
	for n, want := range map[int]int{0: 0, 1: 1, 6: 1, 7: 2, 51: 9, 52: 9} {
		assert.Equal(t, want, DeckStackHeight(n), "n=%d", n)
	}
}
