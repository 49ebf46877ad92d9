package game

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"voyager.com/cardtable/animation"
	"voyager.com/cardtable/cards"
	"voyager.com/cardtable/logging"
	"voyager.com/cardtable/util"
)

var sessionLogger = log.With().Str("logger_name", "game::session").Logger()

type splayingCard struct {
	card  cards.Card
	splay *animation.Splay
}

// givingCard is the single in-flight give. The player is notified when progress completes.
type givingCard struct {
	handle   string
	progress *animation.Progression
}

// Session is the dealer state machine. It is not safe for concurrent use;
// a single loop owns it (see Runner).
type Session struct {
	sender MessageSender
	config AnimationConfig

	deck          *cards.Deck
	displayed     []cards.Card
	splaying      []splayingCard
	centerCard    cards.Card
	giving        *givingCard
	players       []*Player
	playersByHand map[string]*Player
}

// NewSession takes ownership of deck and pops the first center card from it.
func NewSession(sender MessageSender, deck *cards.Deck, config AnimationConfig) (*Session, error) {
	if sender == nil {
		return nil, errors.New("message sender is required")
	}
	if deck == nil {
		return nil, errors.New("deck is required")
	}
	err := config.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid animation config")
	}
	s := &Session{
		sender:        sender,
		config:        config,
		deck:          deck,
		playersByHand: make(map[string]*Player),
	}
	if card, ok := s.deck.Pop(); ok {
		s.centerCard = card
	}
	util.Metrics.SetDeckRemaining(s.deck.Remaining())
	return s, nil
}

// HandleClientMessage dispatches one inbound message from handle. Bad input is
// logged and dropped; it never changes session state.
func (s *Session) HandleClientMessage(handle string, message string) {
	msg := ParseClientMessage(message)
	util.Metrics.MessageReceived(msg.metricLabel())

	player, joined := s.playersByHand[handle]
	var err error
	if joined {
		err = s.handlePlayerMessage(player, msg)
	} else {
		err = s.handleJoiningMessage(handle, msg)
	}
	if err != nil {
		util.Metrics.ProtocolError()
		sessionLogger.Warn().
			Str(logging.HandleKey, handle).
			Str(logging.MsgTypeKey, msg.Type).
			Err(err).
			Msgf("Ignoring controlpad message: %s", message)
	}
}

func (s *Session) handlePlayerMessage(player *Player, msg ClientMessage) error {
	switch msg.Type {
	case MessageStateRequest:
		player.NotifyState(s.sender)
	case MessageDeal:
		s.Deal()
	case MessageCard:
		req, err := ParseCardRequest(msg.Arg(0))
		if err != nil {
			return err
		}
		s.startGiveCard(player, req)
	default:
		return UnknownMessageError{Type: msg.Type, Joined: true}
	}
	return nil
}

func (s *Session) handleJoiningMessage(handle string, msg ClientMessage) error {
	switch msg.Type {
	case MessageStateRequest:
		err := s.sender.SendMessage(handle, StateJoining)
		if err != nil {
			sessionLogger.Warn().
				Str(logging.HandleKey, handle).
				Err(err).
				Msg("Failed to send joining state")
		}
	case MessageJoin:
		s.join(handle, msg.Arg(0))
	default:
		return UnknownMessageError{Type: msg.Type, Joined: false}
	}
	return nil
}

// join deals up to two cards. A short deck leaves slots empty.
func (s *Session) join(handle string, name string) {
	player := NewPlayer(handle, name)
	if card, ok := s.deck.Pop(); ok {
		player.leftCard = card
	}
	if card, ok := s.deck.Pop(); ok {
		player.rightCard = card
	}
	player.NotifyState(s.sender)
	s.players = append(s.players, player)
	s.playersByHand[handle] = player

	util.Metrics.SetPlayers(len(s.players))
	util.Metrics.SetDeckRemaining(s.deck.Remaining())
	sessionLogger.Info().
		Str(logging.HandleKey, handle).
		Str(logging.PlayerNameKey, name).
		Msgf("Player joined: %s", player.StateSummary())
}

// Deal starts splaying the next deck card. No-op on an empty deck.
func (s *Session) Deal() {
	card, ok := s.deck.Pop()
	if !ok {
		sessionLogger.Debug().Msg("Deck is empty. Nothing to deal")
		return
	}
	s.splaying = append(s.splaying, splayingCard{
		card:  card,
		splay: animation.NewSplay(s.config.SplayDurations()),
	})
	util.Metrics.CardDealt()
	util.Metrics.SetDeckRemaining(s.deck.Remaining())
}

// HandleKeyPress is the local trigger. Any key deals.
func (s *Session) HandleKeyPress() {
	s.Deal()
}

// startGiveCard moves the requested card to the center and the next deck card
// into the player's slot right away. The player hears about it in finishGiveCard.
func (s *Session) startGiveCard(player *Player, req CardRequest) {
	if s.giving != nil {
		return
	}
	next, ok := s.deck.Pop()
	if !ok {
		return
	}
	s.centerCard = req.Card
	player.Revoke(req.Side)
	player.setCard(req.Side, next)
	s.giving = &givingCard{
		handle:   player.handle,
		progress: animation.MustProgression(s.config.GiveSeconds),
	}
	util.Metrics.GiveStarted()
	util.Metrics.SetDeckRemaining(s.deck.Remaining())
}

func (s *Session) finishGiveCard(handle string) {
	util.Metrics.GiveCompleted()
	if player, ok := s.playersByHand[handle]; ok {
		player.NotifyState(s.sender)
	}
}

// Update advances every animation by one tick.
func (s *Session) Update() {
	remaining := s.splaying[:0]
	for _, sc := range s.splaying {
		sc.splay.Tick()
		if sc.splay.IsDone() {
			s.displayed = append(s.displayed, sc.card)
		} else {
			remaining = append(remaining, sc)
		}
	}
	for i := len(remaining); i < len(s.splaying); i++ {
		s.splaying[i] = splayingCard{}
	}
	s.splaying = remaining

	if s.giving != nil {
		s.giving.progress.Tick()
		if s.giving.progress.IsDone() {
			handle := s.giving.handle
			s.giving = nil
			s.finishGiveCard(handle)
		}
	}
}

func (s *Session) DeckRemaining() int {
	return s.deck.Remaining()
}

// Displayed returns a copy of the display sequence in reveal order.
func (s *Session) Displayed() []cards.Card {
	return append([]cards.Card(nil), s.displayed...)
}

func (s *Session) CenterCard() cards.Card {
	return s.centerCard
}

func (s *Session) Player(handle string) (*Player, bool) {
	p, ok := s.playersByHand[handle]
	return p, ok
}

// Players returns players in join order.
func (s *Session) Players() []*Player {
	return append([]*Player(nil), s.players...)
}

func (s *Session) SplayingCount() int {
	return len(s.splaying)
}

// GiveProgress reports the in-flight give, if any.
func (s *Session) GiveProgress() (handle string, progress float64, ok bool) {
	if s.giving == nil {
		return "", 0, false
	}
	return s.giving.handle, s.giving.progress.Progress(), true
}
