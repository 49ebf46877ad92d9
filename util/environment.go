package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var environmentLogger = log.With().Str("logger_name", "util::environment").Logger()

type environment struct {
	LogLevel    string
	Transport   string
	SessionName string
	NatsURL     string
	RedisHost   string
	RedisPort   string
	RedisPW     string
	RedisDB     string
	HTTPAddr    string
}

// Env is a helper object for accessing environment variables.
var Env = &environment{
	LogLevel:    "LOG_LEVEL",
	Transport:   "TRANSPORT",
	SessionName: "SESSION_NAME",
	NatsURL:     "NATS_URL",
	RedisHost:   "REDIS_HOST",
	RedisPort:   "REDIS_PORT",
	RedisPW:     "REDIS_PW",
	RedisDB:     "REDIS_DB",
	HTTPAddr:    "HTTP_ADDR",
}

func (e *environment) getOrDefault(name string, defaultVal string) string {
	v := os.Getenv(name)
	if v == "" {
		environmentLogger.Debug().Msgf("%s is not defined. Using default %s", name, defaultVal)
		return defaultVal
	}
	return v
}

func (e *environment) GetTransport() string {
	return strings.ToLower(e.getOrDefault(e.Transport, "websocket"))
}

func (e *environment) GetSessionName() string {
	return e.getOrDefault(e.SessionName, "table")
}

func (e *environment) GetNatsURL() string {
	return e.getOrDefault(e.NatsURL, "nats://127.0.0.1:4222")
}

func (e *environment) GetHTTPAddr() string {
	return e.getOrDefault(e.HTTPAddr, ":8080")
}

func (e *environment) GetRedisHost() string {
	host := os.Getenv(e.RedisHost)
	if host == "" {
		msg := fmt.Sprintf("%s is not defined", e.RedisHost)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return host
}

func (e *environment) GetRedisPort() int {
	portStr := e.getOrDefault(e.RedisPort, "6379")
	portNum, err := strconv.Atoi(portStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid Redis port %s", portStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return portNum
}

func (e *environment) GetRedisPW() string {
	return os.Getenv(e.RedisPW)
}

func (e *environment) GetRedisDB() int {
	dbStr := e.getOrDefault(e.RedisDB, "0")
	dbNum, err := strconv.Atoi(dbStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid Redis db %s", dbStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return dbNum
}

func (e *environment) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", e.GetRedisHost(), e.GetRedisPort())
}

func (e *environment) GetLogLevel() string {
	v := os.Getenv(e.LogLevel)
	if v == "" {
		defaultVal := "info"
		environmentLogger.Warn().Msgf("%s is not defined. Using default %s", e.LogLevel, defaultVal)
		return defaultVal
	}
	return v
}

func (e *environment) GetZeroLogLogLevel() zerolog.Level {
	l := e.GetLogLevel()
	switch strings.ToLower(l) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		fallthrough
	case "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		panic(fmt.Sprintf("Unsupported %s: %s", e.LogLevel, l))
	}
}
