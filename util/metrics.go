package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	messagesReceivedCounter    *prometheus.CounterVec
	protocolErrorCounter       prometheus.Counter
	transportErrorCounter      *prometheus.CounterVec
	notificationsSentCounter   prometheus.Counter
	notificationsFailedCounter prometheus.Counter
	cardsDealtCounter          prometheus.Counter
	givesStartedCounter        prometheus.Counter
	givesCompletedCounter      prometheus.Counter
	deckRemainingGauge         prometheus.Gauge
	playersGauge               prometheus.Gauge
	tickPanicCounter           prometheus.Counter
}

func (m *metrics) MessageReceived(msgType string) {
	m.messagesReceivedCounter.WithLabelValues(msgType).Inc()
}

func (m *metrics) ProtocolError() {
	m.protocolErrorCounter.Inc()
}

func (m *metrics) TransportError(op string) {
	m.transportErrorCounter.WithLabelValues(op).Inc()
}

func (m *metrics) NotificationSent() {
	m.notificationsSentCounter.Inc()
}

func (m *metrics) NotificationFailed() {
	m.notificationsFailedCounter.Inc()
}

func (m *metrics) CardDealt() {
	m.cardsDealtCounter.Inc()
}

func (m *metrics) GiveStarted() {
	m.givesStartedCounter.Inc()
}

func (m *metrics) GiveCompleted() {
	m.givesCompletedCounter.Inc()
}

func (m *metrics) SetDeckRemaining(count int) {
	m.deckRemainingGauge.Set(float64(count))
}

func (m *metrics) SetPlayers(count int) {
	m.playersGauge.Set(float64(count))
}

func (m *metrics) TickPanicked() {
	m.tickPanicCounter.Inc()
}

var Metrics = &metrics{
	messagesReceivedCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "controlpad_messages_received_total",
		Help: "Total number of controlpad messages received, by message type",
	}, []string{"type"}),
	protocolErrorCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "controlpad_protocol_errors_total",
		Help: "Total number of ignored malformed or out-of-state controlpad messages",
	}),
	transportErrorCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_errors_total",
		Help: "Total number of transport failures, by operation",
	}, []string{"op"}),
	notificationsSentCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "player_notifications_sent_total",
		Help: "Total number of state notifications sent to players",
	}),
	notificationsFailedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "player_notifications_failed_total",
		Help: "Total number of state notifications the transport failed to send",
	}),
	cardsDealtCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "cards_dealt_total",
		Help: "Total number of cards dealt to the display area",
	}),
	givesStartedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "card_gives_started_total",
		Help: "Total number of give transitions started",
	}),
	givesCompletedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "card_gives_completed_total",
		Help: "Total number of give transitions completed",
	}),
	deckRemainingGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deck_remaining_cards",
		Help: "Number of cards left in the deck",
	}),
	playersGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "joined_players",
		Help: "Number of joined players",
	}),
	tickPanicCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "tick_panics_total",
		Help: "Total number of ticks that panicked",
	}),
}
