package game

import (
	"strings"

	"voyager.com/cardtable/cards"
)

// Inbound message types.
const (
	MessageJoin         string = "join"
	MessageStateRequest string = "state-request"
	MessageDeal         string = "deal"
	MessageCard         string = "card"
)

// Outbound messages.
const (
	StateJoining        string = "state:joining"
	StatePlayingPrefix  string = "state:playing:"
	messageUnknownLabel string = "unknown"
)

// ClientMessage is one colon-delimited inbound message. Type is the first field.
type ClientMessage struct {
	Type string
	Args []string
}

func ParseClientMessage(message string) ClientMessage {
	fields := strings.Split(message, ":")
	return ClientMessage{Type: fields[0], Args: fields[1:]}
}

// Arg returns the i-th field after the type, or "" when absent.
func (m ClientMessage) Arg(i int) string {
	if i < len(m.Args) {
		return m.Args[i]
	}
	return ""
}

// metricLabel keeps the message type label set bounded.
func (m ClientMessage) metricLabel() string {
	switch m.Type {
	case MessageJoin, MessageStateRequest, MessageDeal, MessageCard:
		return m.Type
	}
	return messageUnknownLabel
}

// CardRequest is the payload of "card:<L|R>,<suit>,<rank>".
type CardRequest struct {
	Side Side
	Card cards.Card
}

// ParseCardRequest validates every token before building the card so that
// client text never reaches the panicking card parser.
func ParseCardRequest(payload string) (CardRequest, error) {
	parts := strings.Split(payload, ",")
	if len(parts) != 3 {
		return CardRequest{}, InvalidMessageError{Msg: "card payload must be <side>,<suit>,<rank>: " + payload}
	}
	side, ok := ParseSide(parts[0])
	if !ok {
		return CardRequest{}, InvalidMessageError{Msg: "invalid card side: " + parts[0]}
	}
	if !cards.IsSuitName(parts[1]) {
		return CardRequest{}, InvalidMessageError{Msg: "invalid card suit: " + parts[1]}
	}
	if !cards.IsRankName(parts[2]) {
		return CardRequest{}, InvalidMessageError{Msg: "invalid card rank: " + parts[2]}
	}
	return CardRequest{Side: side, Card: cards.MustParse(parts[1], parts[2])}, nil
}

func statePlayingMessage(summary string) string {
	return StatePlayingPrefix + summary
}
