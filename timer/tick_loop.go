package timer

import (
	"context"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var tickLoopLogger = log.With().Str("logger_name", "timer::tick_loop").Logger()

// TickLoop calls a callback once per interval on a single goroutine.
// A panic inside the callback stops the loop; the crash handler is told first.
type TickLoop struct {
	name         string
	clock        clockwork.Clock
	interval     time.Duration
	callback     func()
	crashHandler func(interface{})
	ticks        uint64
}

func NewTickLoop(name string, clock clockwork.Clock, interval time.Duration, callback func(), crashHandler func(interface{})) *TickLoop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TickLoop{
		name:         name,
		clock:        clock,
		interval:     interval,
		callback:     callback,
		crashHandler: crashHandler,
	}
}

// Run blocks until ctx is done or a tick panics.
func (t *TickLoop) Run(ctx context.Context) error {
	if t.interval <= 0 {
		return errors.Errorf("invalid tick interval %s", t.interval)
	}
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	tickLoopLogger.Info().Str("loop", t.name).Msgf("Tick loop started. Interval: %s", t.interval)
	for {
		select {
		case <-ctx.Done():
			tickLoopLogger.Info().Str("loop", t.name).Uint64("ticks", t.Ticks()).Msg("Tick loop returning")
			return ctx.Err()
		case <-ticker.Chan():
			if err := t.tick(); err != nil {
				return err
			}
		}
	}
}

func (t *TickLoop) tick() (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		tickLoopLogger.Error().
			Str("loop", t.name).
			Uint64("tick", t.Ticks()).
			Msgf("Tick loop returning due to panic: %v\nStack Trace:\n%s", r, string(debug.Stack()))
		if t.crashHandler != nil {
			t.crashHandler(r)
		}
		err = errors.Errorf("tick %d panicked: %v", t.Ticks(), r)
	}()

	atomic.AddUint64(&t.ticks, 1)
	t.callback()
	return nil
}

func (t *TickLoop) Ticks() uint64 {
	return atomic.LoadUint64(&t.ticks)
}
