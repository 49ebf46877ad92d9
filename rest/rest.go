package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"voyager.com/cardtable/game"
)

var restLogger = log.With().Str("logger_name", "rest::rest").Logger()

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shutdownTimeout = 5 * time.Second

type appError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Table is the part of the session runner the HTTP surface needs.
type Table interface {
	Snapshot() game.TableSnapshot
	QueueKeyPress() bool
}

// NewRouter builds the routes. controlpads may be nil when clients connect through a relay.
func NewRouter(table Table, controlpads http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/ready", ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/table", tableSnapshot(table))
	r.POST("/deal", deal(table))
	if controlpads != nil {
		r.GET("/ws", gin.WrapH(controlpads))
	}
	return r
}

// RunRestServer serves handler on addr until ctx is done.
func RunRestServer(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	errCh := make(chan error, 1)
	go func() {
		restLogger.Info().Msgf("Listening on %s", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "REST server on %s stopped", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	if err != nil {
		return errors.Wrap(err, "REST server shutdown")
	}
	restLogger.Info().Msg("REST server stopped")
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		restLogger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request served")
	}
}

func ready(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func tableSnapshot(table Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := json.Marshal(table.Snapshot())
		if err != nil {
			restLogger.Error().Msgf("Failed to encode table snapshot. Error: %v", err)
			c.IndentedJSON(http.StatusInternalServerError, appError{
				Code:    http.StatusInternalServerError,
				Message: err.Error(),
			})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
	}
}

// deal is the HTTP form of the local key press.
func deal(table Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !table.QueueKeyPress() {
			c.IndentedJSON(http.StatusServiceUnavailable, appError{
				Code:    http.StatusServiceUnavailable,
				Message: "deal queue is full",
			})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"queued": true})
	}
}
