package bot

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
	"voyager.com/cardtable/game"
	"voyager.com/cardtable/logging"
)

var botLogger = log.With().Str("logger_name", "bot::controlpad").Logger()

// PlayerState is a decoded state:playing message. Empty slots are "".
type PlayerState struct {
	Name      string
	LeftCard  string
	RightCard string
}

// ParseState decodes "state:playing:<name>:<left>:<right>".
func ParseState(message string) (PlayerState, bool) {
	if !strings.HasPrefix(message, game.StatePlayingPrefix) {
		return PlayerState{}, false
	}
	fields := strings.Split(strings.TrimPrefix(message, game.StatePlayingPrefix), ":")
	if len(fields) != 3 {
		return PlayerState{}, false
	}
	return PlayerState{Name: fields[0], LeftCard: fields[1], RightCard: fields[2]}, true
}

// ControlpadBot plays the phone side of the protocol over a websocket.
type ControlpadBot struct {
	name     string
	conn     *websocket.Conn
	received []string
}

func NewControlpadBot(ctx context.Context, url string, name string) (*ControlpadBot, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to connect to %s", url)
	}
	return &ControlpadBot{name: name, conn: conn}, nil
}

func (b *ControlpadBot) Send(ctx context.Context, message string) error {
	botLogger.Debug().Str(logging.PlayerNameKey, b.name).Msgf("Sending %s", message)
	err := b.conn.Write(ctx, websocket.MessageText, []byte(message))
	if err != nil {
		return errors.Wrapf(err, "%s failed to send %s", b.name, message)
	}
	return nil
}

// Join sends the join message and waits for the first dealt state.
func (b *ControlpadBot) Join(ctx context.Context) (PlayerState, error) {
	err := b.Send(ctx, game.MessageJoin+":"+b.name)
	if err != nil {
		return PlayerState{}, err
	}
	return b.NextState(ctx)
}

// NextState reads until the next state:playing message. Other messages are recorded and skipped.
func (b *ControlpadBot) NextState(ctx context.Context) (PlayerState, error) {
	for {
		typ, data, err := b.conn.Read(ctx)
		if err != nil {
			return PlayerState{}, errors.Wrapf(err, "%s failed to read", b.name)
		}
		if typ != websocket.MessageText {
			continue
		}
		message := string(data)
		b.received = append(b.received, message)
		if state, ok := ParseState(message); ok {
			botLogger.Debug().Str(logging.PlayerNameKey, b.name).Msgf("State: %s", message)
			return state, nil
		}
	}
}

// Received returns every text message read so far.
func (b *ControlpadBot) Received() []string {
	return append([]string(nil), b.received...)
}

func (b *ControlpadBot) Close() error {
	return b.conn.Close(websocket.StatusNormalClosure, "")
}
