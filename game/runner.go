package game

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"voyager.com/cardtable/animation"
	"voyager.com/cardtable/logging"
	"voyager.com/cardtable/timer"
	"voyager.com/cardtable/util"
)

var runnerLogger = log.With().Str("logger_name", "game::runner").Logger()

// Transport connects the session to remote controlpads. Reads must not block.
type Transport interface {
	MessageSender
	// ClientHandles lists the currently connected clients.
	ClientHandles() ([]string, error)
	// PollMessages returns and clears the pending messages for handle, oldest first.
	PollMessages(handle string) ([]string, error)
}

const keyPressQueueSize = 16

// Runner is the single writer of a Session. Other goroutines interact with
// it through QueueKeyPress and Snapshot.
type Runner struct {
	session    *Session
	transport  Transport
	clock      clockwork.Clock
	handles    []string
	chKeyPress chan struct{}
	snapshot   atomic.Value
}

func NewRunner(session *Session, transport Transport, clock clockwork.Clock) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	r := &Runner{
		session:    session,
		transport:  transport,
		clock:      clock,
		chKeyPress: make(chan struct{}, keyPressQueueSize),
	}
	r.snapshot.Store(session.Snapshot())
	return r
}

// Run ticks the session at animation.TickRate until ctx is done or a tick panics.
func (r *Runner) Run(ctx context.Context) error {
	loop := timer.NewTickLoop("session", r.clock, time.Second/animation.TickRate, r.Step, r.crashHandler)
	return loop.Run(ctx)
}

func (r *Runner) crashHandler(err interface{}) {
	util.Metrics.TickPanicked()
	runnerLogger.Error().
		Int("deckRemaining", r.session.DeckRemaining()).
		Int("players", len(r.session.players)).
		Msgf("Session tick crashed: %v", err)
}

// Step runs one tick: local input, inbound messages, then animations.
func (r *Runner) Step() {
	r.drainKeyPresses()
	r.refreshClients()
	for _, handle := range r.handles {
		messages, err := r.transport.PollMessages(handle)
		if err != nil {
			util.Metrics.TransportError("poll")
			runnerLogger.Warn().
				Str(logging.HandleKey, handle).
				Err(err).
				Msg("Failed to poll controlpad messages")
			continue
		}
		for _, message := range messages {
			r.session.HandleClientMessage(handle, message)
		}
	}
	r.session.Update()
	r.snapshot.Store(r.session.Snapshot())
}

func (r *Runner) drainKeyPresses() {
	for {
		select {
		case <-r.chKeyPress:
			r.session.HandleKeyPress()
		default:
			return
		}
	}
}

// refreshClients keeps the previous list when listing fails. Known handles keep
// their position; new ones are appended in the order the transport reports them.
func (r *Runner) refreshClients() {
	current, err := r.transport.ClientHandles()
	if err != nil {
		util.Metrics.TransportError("list")
		runnerLogger.Warn().Err(err).Msg("Failed to list controlpad clients. Keeping previous list")
		return
	}
	connected := make(map[string]bool, len(current))
	for _, h := range current {
		connected[h] = true
	}
	handles := r.handles[:0]
	known := make(map[string]bool, len(r.handles))
	for _, h := range r.handles {
		if connected[h] {
			handles = append(handles, h)
			known[h] = true
		}
	}
	for _, h := range current {
		if !known[h] {
			handles = append(handles, h)
			known[h] = true
		}
	}
	r.handles = handles
}

// QueueKeyPress schedules a local deal for the next tick. Returns false if the queue is full.
func (r *Runner) QueueKeyPress() bool {
	select {
	case r.chKeyPress <- struct{}{}:
		return true
	default:
		runnerLogger.Warn().Msg("Key press queue is full. Dropping key press")
		return false
	}
}

// Snapshot returns the table as of the last completed tick.
func (r *Runner) Snapshot() TableSnapshot {
	return r.snapshot.Load().(TableSnapshot)
}

// Handles returns the client handles in discovery order.
func (r *Runner) Handles() []string {
	return append([]string(nil), r.handles...)
}
