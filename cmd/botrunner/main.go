package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"voyager.com/cardtable/bot"
	"voyager.com/cardtable/util"
)

var (
	cmdArgs    arg
	mainLogger = log.With().Str("logger_name", "main::botrunner").Logger()
)

type arg struct {
	scriptFile string
	server     string
}

func init() {
	flag.StringVar(&cmdArgs.scriptFile, "script", "", "Bot script YAML file")
	flag.StringVar(&cmdArgs.server, "server", "", "Controlpad websocket URL. Overrides the script's server.")
}

func main() {
	flag.Parse()
	os.Exit(botrunner())
}

func botrunner() int {
	zerolog.SetGlobalLevel(util.Env.GetZeroLogLogLevel())
	mainLogger.Info().Msgf("Bot Script File: %s", cmdArgs.scriptFile)
	if cmdArgs.scriptFile == "" {
		mainLogger.Error().Msg("No script file is provided.")
		return 1
	}
	script, err := bot.ReadScript(cmdArgs.scriptFile)
	if err != nil {
		mainLogger.Error().Msgf("Error while parsing script file: %+v", err)
		return 1
	}
	if cmdArgs.server != "" {
		script.Server = cmdArgs.server
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	results, err := bot.RunScript(ctx, script)
	if err != nil {
		mainLogger.Error().Msgf("Bot script failed: %s", err)
		return 1
	}
	for _, r := range results {
		mainLogger.Info().Msgf("%s: joined with [%s %s], finished with [%s %s] after %d state messages",
			r.Name, r.Initial.LeftCard, r.Initial.RightCard, r.Final.LeftCard, r.Final.RightCard, r.StateCount)
	}
	return 0
}
