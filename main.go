package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"voyager.com/cardtable/cards"
	"voyager.com/cardtable/game"
	"voyager.com/cardtable/logging"
	"voyager.com/cardtable/rest"
	"voyager.com/cardtable/transport/memory"
	tnats "voyager.com/cardtable/transport/nats"
	tredis "voyager.com/cardtable/transport/redis"
	"voyager.com/cardtable/transport/websocket"
	"voyager.com/cardtable/util"
	"voyager.com/cardtable/util/simulation"
)

var animationConfigFile *string
var transportName *string
var keyPresses *bool
var testDeal *bool
var numDeals *uint
var mainLogger = logging.GetZeroLogger("main::main", nil)

func init() {
	animationConfigFile = flag.String("animations", "", "YAML file containing animation durations")
	transportName = flag.String("transport", "", "controlpad transport: memory, nats, redis or websocket (overrides TRANSPORT)")
	keyPresses = flag.Bool("keys", true, "deal a card for every line read from stdin")
	testDeal = flag.Bool("test-deal", false, "shuffles decks and reports the card distribution")
	numDeals = flag.Uint("num-deals", 100000, "number of test deals when -test-deal is set")
}

func main() {
	err := run()
	if err != nil {
		mainLogger.Error().Msg(err.Error())
		os.Exit(1)
	}
}

func run() error {
	logLevel := util.Env.GetZeroLogLogLevel()
	fmt.Printf("Setting log level to %s\n", logLevel)
	zerolog.SetGlobalLevel(logLevel)
	flag.Parse()
	if *testDeal {
		_, err := simulation.Run(int(*numDeals), os.Stdout)
		return err
	}

	config := game.DefaultAnimationConfig
	if *animationConfigFile != "" {
		var err error
		config, err = game.ParseAnimationConfig(*animationConfigFile)
		if err != nil {
			return errors.Wrap(err, "Error while parsing animation config")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name := *transportName
	if name == "" {
		name = util.Env.GetTransport()
	}
	tr, controlpads, err := openTransport(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		if err := tr.Close(); err != nil {
			mainLogger.Warn().Err(err).Msg("Error closing transport")
		}
	}()

	session, err := game.NewSession(tr, cards.NewDeck(nil), config)
	if err != nil {
		return errors.Wrap(err, "Error while creating session")
	}
	runner := game.NewRunner(session, tr, nil)

	mainLogger.Info().
		Str(logging.TransportKey, name).
		Str(logging.SessionKey, util.Env.GetSessionName()).
		Msgf("Center card: %s. Deck: %d cards", session.CenterCard().PrettyString(), session.DeckRemaining())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(ctx)
	})
	g.Go(func() error {
		return rest.RunRestServer(ctx, util.Env.GetHTTPAddr(), rest.NewRouter(runner, controlpads))
	})
	if *keyPresses {
		go readKeyPresses(os.Stdin, runner)
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		mainLogger.Info().Msg("Shutting down")
		return nil
	}
	return err
}

type closableTransport interface {
	game.Transport
	Close() error
}

// memoryTransport adds a no-op Close to the in-process transport.
type memoryTransport struct {
	*memory.Transport
}

func (memoryTransport) Close() error {
	return nil
}

// openTransport returns the transport and, for websocket, the handler that accepts controlpads.
func openTransport(ctx context.Context, name string) (closableTransport, http.Handler, error) {
	session := util.Env.GetSessionName()
	switch name {
	case "memory":
		return memoryTransport{memory.NewTransport()}, nil, nil
	case "nats":
		natsURL := util.Env.GetNatsURL()
		mainLogger.Info().Msgf("NATS URL: %s", natsURL)
		tr, err := tnats.Connect(natsURL, session)
		if err != nil {
			return nil, nil, errors.Wrap(err, "Error creating NATS transport")
		}
		return tr, nil, nil
	case "redis":
		tr, err := tredis.Connect(ctx, util.Env.GetRedisAddr(), util.Env.GetRedisPW(), util.Env.GetRedisDB(), session)
		if err != nil {
			return nil, nil, errors.Wrap(err, "Error creating redis transport")
		}
		return tr, nil, nil
	case "websocket":
		tr := websocket.NewTransport(websocket.DefaultConnectionConfig())
		return tr, tr, nil
	}
	return nil, nil, errors.Errorf("unknown transport %q", name)
}

// readKeyPresses is the local trigger: every line on in deals one card.
func readKeyPresses(in io.Reader, runner *game.Runner) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		runner.QueueKeyPress()
	}
	if err := scanner.Err(); err != nil {
		mainLogger.Warn().Err(err).Msg("Stopped reading key presses")
	}
}
