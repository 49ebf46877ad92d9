// Package websocket serves controlpads directly over websocket connections.
// Each connection is one client; its handle is a random UUID.
package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"voyager.com/cardtable/logging"
	"voyager.com/cardtable/transport"
)

var wsLogger = log.With().Str("logger_name", "websocket::transport").Logger()

type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	// MessageRate and MessageBurst bound inbound messages per connection.
	MessageRate  rate.Limit
	MessageBurst int
	CheckOrigin  func(r *http.Request) bool
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  512,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  64,
		MessageRate:     30,
		MessageBurst:    60,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Transport accepts controlpad connections on ServeHTTP.
type Transport struct {
	config   ConnectionConfig
	upgrader gorilla.Upgrader
	clients  cmap.ConcurrentMap

	// handles keeps connection order; the map does not.
	lock    sync.Mutex
	handles []string
	closed  bool
}

type connection struct {
	handle    string
	conn      *gorilla.Conn
	transport *Transport
	send      chan string
	done      chan struct{}
	closeOnce sync.Once
	limiter   *rate.Limiter

	inboxLock sync.Mutex
	inbox     []string
}

func NewTransport(config ConnectionConfig) *Transport {
	return &Transport{
		config: config,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		clients: cmap.New(),
	}
}

func (t *Transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.lock.Lock()
	closed := t.closed
	t.lock.Unlock()
	if closed {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		wsLogger.Warn().Err(err).Msg("Failed to upgrade controlpad connection")
		return
	}
	c := &connection{
		handle:    uuid.New().String(),
		conn:      conn,
		transport: t,
		send:      make(chan string, t.config.SendBufferSize),
		done:      make(chan struct{}),
		limiter:   rate.NewLimiter(t.config.MessageRate, t.config.MessageBurst),
	}
	if !t.register(c) {
		conn.WriteControl(gorilla.CloseMessage, gorilla.FormatCloseMessage(gorilla.CloseGoingAway, "shutting down"), time.Now().Add(t.config.WriteTimeout))
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()

	wsLogger.Info().
		Str(logging.HandleKey, c.handle).
		Str("remoteAddr", r.RemoteAddr).
		Msg("Controlpad connected")
}

// register returns false once the transport is closed.
func (t *Transport) register(c *connection) bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.closed {
		return false
	}
	t.clients.Set(c.handle, c)
	t.handles = append(t.handles, c.handle)
	return true
}

func (t *Transport) unregister(c *connection) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.clients.Remove(c.handle)
	for i, h := range t.handles {
		if h == c.handle {
			t.handles = append(t.handles[:i], t.handles[i+1:]...)
			break
		}
	}
}

func (t *Transport) lookup(handle string) (*connection, bool) {
	v, ok := t.clients.Get(handle)
	if !ok {
		return nil, false
	}
	return v.(*connection), true
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
	c, ok := t.lookup(handle)
	if !ok {
		return nil, errors.Wrapf(transport.ErrUnknownClient, "poll %s", handle)
	}
	c.inboxLock.Lock()
	defer c.inboxLock.Unlock()
	messages := c.inbox
	c.inbox = nil
	return messages, nil
}

// SendMessage queues message for the write pump. It never blocks.
func (t *Transport) SendMessage(handle string, message string) error {
	c, ok := t.lookup(handle)
	if !ok {
		return errors.Wrapf(transport.ErrUnknownClient, "send to %s", handle)
	}
	select {
	case <-c.done:
		return errors.Wrapf(transport.ErrUnknownClient, "send to %s", handle)
	case c.send <- message:
		return nil
	default:
		return errors.Wrapf(transport.ErrSendBufferFull, "send to %s", handle)
	}
}

// Close drops every connection and refuses new ones.
func (t *Transport) Close() error {
	t.lock.Lock()
	t.closed = true
	t.lock.Unlock()
	for _, v := range t.clients.Items() {
		v.(*connection).close()
	}
	return nil
}

// close forgets the connection and stops the write pump, which sends the
// close frame and closes the socket.
func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.transport.unregister(c)
		wsLogger.Info().Str(logging.HandleKey, c.handle).Msg("Controlpad disconnected")
	})
}

func (c *connection) writePump() {
	config := c.transport.config
	ticker := time.NewTicker(config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteTimeout))
			c.conn.WriteMessage(gorilla.CloseMessage, gorilla.FormatCloseMessage(gorilla.CloseGoingAway, ""))
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteTimeout))
			if err := c.conn.WriteMessage(gorilla.TextMessage, []byte(message)); err != nil {
				wsLogger.Warn().Err(err).Str(logging.HandleKey, c.handle).Msg("Failed to write controlpad message")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteTimeout))
			if err := c.conn.WriteMessage(gorilla.PingMessage, nil); err != nil {
				wsLogger.Debug().Err(err).Str(logging.HandleKey, c.handle).Msg("Failed to send ping")
				return
			}
		}
	}
}

func (c *connection) readPump() {
	config := c.transport.config
	defer c.close()

	c.conn.SetReadLimit(config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.ReadTimeout))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure, gorilla.CloseAbnormalClosure) {
				wsLogger.Warn().Err(err).Str(logging.HandleKey, c.handle).Msg("Unexpected websocket close")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(config.ReadTimeout))
		if messageType != gorilla.TextMessage {
			continue
		}
		if !c.limiter.Allow() {
			wsLogger.Warn().Str(logging.HandleKey, c.handle).Msg("Controlpad is sending too fast. Dropping message")
			continue
		}
		c.inboxLock.Lock()
		c.inbox = append(c.inbox, string(message))
		c.inboxLock.Unlock()
	}
}
