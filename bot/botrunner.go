package bot

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"voyager.com/cardtable/game"
	"voyager.com/cardtable/logging"
)

// Result is what one bot saw during a script run.
type Result struct {
	Name       string
	Initial    PlayerState
	Final      PlayerState
	StateCount int
	Received   []string
}

// RunScript connects one bot per player, runs every script concurrently and
// returns results in script order.
func RunScript(ctx context.Context, script Script) ([]Result, error) {
	if script.Server == "" {
		return nil, errors.New("bot script has no server")
	}
	results := make([]Result, len(script.Players))
	var lock sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range script.Players {
		i, p := i, p
		g.Go(func() error {
			result, err := runPlayer(ctx, script.Server, script.settle(), p)
			if err != nil {
				return err
			}
			lock.Lock()
			results[i] = result
			lock.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		return nil, err
	}
	return results, nil
}

func runPlayer(ctx context.Context, server string, settle time.Duration, p PlayerScript) (Result, error) {
	b, err := NewControlpadBot(ctx, server, p.Name)
	if err != nil {
		return Result{}, err
	}
	defer b.Close()

	initial, err := b.Join(ctx)
	if err != nil {
		return Result{}, err
	}
	result := Result{Name: p.Name, Initial: initial, Final: initial, StateCount: 1}
	botLogger.Info().Str(logging.PlayerNameKey, p.Name).Msgf("Joined with %s and %s", initial.LeftCard, initial.RightCard)

	for _, action := range p.Actions {
		err = b.Send(ctx, action)
		if err != nil {
			return Result{}, err
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(p.pause()):
		}
	}

	// Deferred give notifications land after the actions; collect states until the table goes quiet.
	err = b.Send(ctx, game.MessageStateRequest)
	if err != nil {
		return Result{}, err
	}
	for {
		readCtx, cancel := context.WithTimeout(ctx, settle)
		state, err := b.NextState(readCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			break
		}
		result.Final = state
		result.StateCount++
	}
	result.Received = b.Received()
	return result, nil
}
