// Package redis relays controlpad traffic through Redis lists.
//
// The relay keeps the connected handles in cardtable:<session>:clients, pushes
// client messages to cardtable:<session>:in:<handle> and reads replies from
// cardtable:<session>:out:<handle>.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"voyager.com/cardtable/logging"
)

var redisLogger = log.With().Str("logger_name", "redis::transport").Logger()

// Polls run on the tick loop; a slow server costs a dropped tick, not a stall.
const defaultOpTimeout = 250 * time.Millisecond

func ClientsKey(session string) string {
	return fmt.Sprintf("cardtable:%s:clients", session)
}

func InboxKey(session string, handle string) string {
	return fmt.Sprintf("cardtable:%s:in:%s", session, handle)
}

func OutboxKey(session string, handle string) string {
	return fmt.Sprintf("cardtable:%s:out:%s", session, handle)
}

type Transport struct {
	rdclient  *goredis.Client
	session   string
	opTimeout time.Duration
}

// Connect creates a client for addr and checks it with a PING.
func Connect(ctx context.Context, addr string, password string, db int, session string) (*Transport, error) {
	rdclient := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	err := rdclient.Ping(ctx).Err()
	if err != nil {
		rdclient.Close()
		return nil, errors.Wrapf(err, "Failed to connect to redis at %s", addr)
	}
	redisLogger.Info().Str(logging.SessionKey, session).Msgf("Connected to redis at %s db %d", addr, db)
	return NewTransport(rdclient, session), nil
}

func NewTransport(rdclient *goredis.Client, session string) *Transport {
	return &Transport{
		rdclient:  rdclient,
		session:   session,
		opTimeout: defaultOpTimeout,
	}
}

func (t *Transport) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), t.opTimeout)
}

// ClientHandles returns the client list in stored order without duplicates.
func (t *Transport) ClientHandles() ([]string, error) {
	ctx, cancel := t.context()
	defer cancel()
	handles, err := t.rdclient.LRange(ctx, ClientsKey(t.session), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read client list")
	}
	seen := make(map[string]bool, len(handles))
	unique := handles[:0]
	for _, h := range handles {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		unique = append(unique, h)
	}
	return unique, nil
}

// PollMessages reads and deletes the inbox in one MULTI so no message is lost
// between the read and the delete.
func (t *Transport) PollMessages(handle string) ([]string, error) {
	ctx, cancel := t.context()
	defer cancel()
	key := InboxKey(t.session, handle)
	var lrange *goredis.StringSliceCmd
	_, err := t.rdclient.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to drain %s", key)
	}
	return lrange.Val(), nil
}

func (t *Transport) SendMessage(handle string, message string) error {
	ctx, cancel := t.context()
	defer cancel()
	key := OutboxKey(t.session, handle)
	err := t.rdclient.RPush(ctx, key, message).Err()
	if err != nil {
		return errors.Wrapf(err, "Failed to push to %s", key)
	}
	return nil
}

func (t *Transport) Close() error {
	return t.rdclient.Close()
}
