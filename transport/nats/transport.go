// Package nats relays controlpad traffic through a NATS server.
//
// The relay announces clients on controlpad.<session>.presence with
// {"event":"connect"|"disconnect","handle":"<handle>"}. Each client publishes
// on controlpad.<session>.in.<handle> and listens on controlpad.<session>.out.<handle>.
package nats

import (
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"voyager.com/cardtable/logging"
	"voyager.com/cardtable/transport"
)

var natsLogger = log.With().Str("logger_name", "nats::transport").Logger()

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	PresenceConnect    = "connect"
	PresenceDisconnect = "disconnect"
)

type PresenceEvent struct {
	Event  string `json:"event"`
	Handle string `json:"handle"`
}

type publisher interface {
	Publish(subject string, data []byte) error
}

type Transport struct {
	session       string
	inboundPrefix string
	pub           publisher
	nc            *natsgo.Conn
	ownsConn      bool
	subscriptions []*natsgo.Subscription

	lock    sync.Mutex
	handles []string
	inbox   map[string][]string
	// departed holds handles announced as disconnected; only a new connect event brings them back.
	departed map[string]bool
	closed   bool
}

func newTransport(session string, pub publisher) *Transport {
	return &Transport{
		session:       session,
		inboundPrefix: strings.TrimSuffix(GetAllClients2TableSubject(session), "*"),
		pub:           pub,
		inbox:         make(map[string][]string),
		departed:      make(map[string]bool),
	}
}

// Connect dials url and subscribes to the session's subjects. Close releases the connection.
func Connect(url string, session string) (*Transport, error) {
	nc, err := natsgo.Connect(url,
		natsgo.Name("cardtable-"+session),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			natsLogger.Warn().Err(err).Msg("Disconnected from nats server")
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			natsLogger.Info().Msgf("Reconnected to nats server %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to connect to nats server %s", url)
	}
	t, err := NewTransport(nc, session)
	if err != nil {
		nc.Close()
		return nil, err
	}
	t.ownsConn = true
	return t, nil
}

// NewTransport uses an existing connection. The caller keeps ownership of nc.
func NewTransport(nc *natsgo.Conn, session string) (*Transport, error) {
	t := newTransport(session, nc)
	t.nc = nc

	presenceSubject := GetPresenceSubject(session)
	sub, err := nc.Subscribe(presenceSubject, t.handlePresence)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to subscribe to %s", presenceSubject)
	}
	t.subscriptions = append(t.subscriptions, sub)

	inboundSubject := GetAllClients2TableSubject(session)
	sub, err = nc.Subscribe(inboundSubject, t.handleInbound)
	if err != nil {
		t.unsubscribe()
		return nil, errors.Wrapf(err, "Failed to subscribe to %s", inboundSubject)
	}
	t.subscriptions = append(t.subscriptions, sub)

	natsLogger.Info().
		Str(logging.SessionKey, session).
		Msgf("Listening on %s and %s", presenceSubject, inboundSubject)
	return t, nil
}

func (t *Transport) handlePresence(msg *natsgo.Msg) {
	var event PresenceEvent
	err := json.Unmarshal(msg.Data, &event)
	if err != nil || event.Handle == "" {
		natsLogger.Warn().Err(err).Msgf("Invalid presence event: %s", string(msg.Data))
		return
	}
	switch event.Event {
	case PresenceConnect:
		t.addClient(event.Handle)
	case PresenceDisconnect:
		t.removeClient(event.Handle)
	default:
		natsLogger.Warn().Str(logging.HandleKey, event.Handle).Msgf("Unknown presence event: %s", event.Event)
	}
}

// handleInbound queues a client message. A client that publishes before its
// presence event is registered on the spot; late messages from a disconnected
// client are dropped.
func (t *Transport) handleInbound(msg *natsgo.Msg) {
	handle := strings.TrimPrefix(msg.Subject, t.inboundPrefix)
	if handle == "" || handle == msg.Subject {
		natsLogger.Warn().Msgf("Message on unexpected subject %s", msg.Subject)
		return
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.closed {
		return
	}
	if t.departed[handle] {
		natsLogger.Debug().Str(logging.HandleKey, handle).Msg("Dropping message from disconnected controlpad")
		return
	}
	if _, ok := t.inbox[handle]; !ok {
		t.handles = append(t.handles, handle)
	}
	t.inbox[handle] = append(t.inbox[handle], string(msg.Data))
}

func (t *Transport) addClient(handle string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	delete(t.departed, handle)
	if _, ok := t.inbox[handle]; ok {
		return
	}
	t.handles = append(t.handles, handle)
	t.inbox[handle] = nil
	natsLogger.Info().Str(logging.HandleKey, handle).Msg("Controlpad connected")
}

func (t *Transport) removeClient(handle string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.departed[handle] = true
	if _, ok := t.inbox[handle]; !ok {
		return
	}
	delete(t.inbox, handle)
	for i, h := range t.handles {
		if h == handle {
			t.handles = append(t.handles[:i], t.handles[i+1:]...)
			break
		}
	}
	natsLogger.Info().Str(logging.HandleKey, handle).Msg("Controlpad disconnected")
}

func (t *Transport) ClientHandles() ([]string, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.closed {
		return nil, transport.ErrClosed
	}
	return append([]string(nil), t.handles...), nil
}

func (t *Transport) PollMessages(handle string) ([]string, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	messages, ok := t.inbox[handle]
	if !ok {
		return nil, errors.Wrapf(transport.ErrUnknownClient, "poll %s", handle)
	}
	t.inbox[handle] = nil
	return messages, nil
}

func (t *Transport) SendMessage(handle string, message string) error {
	t.lock.Lock()
	_, known := t.inbox[handle]
	closed := t.closed
	t.lock.Unlock()
	if closed {
		return transport.ErrClosed
	}
	if !known {
		return errors.Wrapf(transport.ErrUnknownClient, "send to %s", handle)
	}
	subject := GetTable2ClientSubject(t.session, handle)
	err := t.pub.Publish(subject, []byte(message))
	if err != nil {
		return errors.Wrapf(err, "Failed to publish to %s", subject)
	}
	return nil
}

func (t *Transport) unsubscribe() {
	for _, sub := range t.subscriptions {
		err := sub.Unsubscribe()
		if err != nil {
			natsLogger.Warn().Err(err).Msgf("Failed to unsubscribe from %s", sub.Subject)
		}
	}
	t.subscriptions = nil
}

func (t *Transport) Close() error {
	t.lock.Lock()
	if t.closed {
		t.lock.Unlock()
		return nil
	}
	t.closed = true
	t.lock.Unlock()

	t.unsubscribe()
	if t.ownsConn && t.nc != nil {
		return t.nc.Drain()
	}
	return nil
}
