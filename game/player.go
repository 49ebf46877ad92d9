package game

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"voyager.com/cardtable/cards"
	"voyager.com/cardtable/logging"
	"voyager.com/cardtable/util"
)

var playerLogger = log.With().Str("logger_name", "game::player").Logger()

// MessageSender delivers one text message to a client. Delivery is best effort.
type MessageSender interface {
	SendMessage(handle string, message string) error
}

type Side int

const (
	SideLeft Side = iota
	SideRight
)

func ParseSide(s string) (Side, bool) {
	switch s {
	case "L":
		return SideLeft, true
	case "R":
		return SideRight, true
	}
	return SideLeft, false
}

func (s Side) String() string {
	if s == SideLeft {
		return "L"
	}
	return "R"
}

// Player is a remote participant holding at most two cards.
type Player struct {
	handle    string
	name      string
	leftCard  cards.Card
	rightCard cards.Card
}

func NewPlayer(handle string, name string) *Player {
	return &Player{handle: handle, name: name}
}

func (p *Player) Handle() string {
	return p.handle
}

func (p *Player) Name() string {
	return p.name
}

func (p *Player) Card(side Side) cards.Card {
	if side == SideLeft {
		return p.leftCard
	}
	return p.rightCard
}

// Revoke empties one slot.
func (p *Player) Revoke(side Side) {
	p.setCard(side, cards.NoCard)
}

func (p *Player) setCard(side Side, card cards.Card) {
	if side == SideLeft {
		p.leftCard = card
	} else {
		p.rightCard = card
	}
}

// StateSummary renders "<name>:<left>:<right>"; an empty slot renders as "".
func (p *Player) StateSummary() string {
	return fmt.Sprintf("%s:%s:%s", p.name, p.leftCard.String(), p.rightCard.String())
}

// NotifyState sends the player their current state. A failed send is logged and dropped.
func (p *Player) NotifyState(sender MessageSender) {
	if p.sendMessage(sender, statePlayingMessage(p.StateSummary())) {
		util.Metrics.NotificationSent()
	} else {
		util.Metrics.NotificationFailed()
	}
}

func (p *Player) sendMessage(sender MessageSender, message string) bool {
	err := sender.SendMessage(p.handle, message)
	if err != nil {
		playerLogger.Warn().
			Str(logging.HandleKey, p.handle).
			Str(logging.PlayerNameKey, p.name).
			Err(err).
			Msg("Error sending controlpad message")
		return false
	}
	return true
}

// PlayerView is a copy of a player's visible state.
type PlayerView struct {
	Handle    string     `json:"handle"`
	Name      string     `json:"name"`
	LeftCard  cards.Card `json:"leftCard"`
	RightCard cards.Card `json:"rightCard"`
}

func (p *Player) View() PlayerView {
	return PlayerView{
		Handle:    p.handle,
		Name:      p.name,
		LeftCard:  p.leftCard,
		RightCard: p.rightCard,
	}
}
