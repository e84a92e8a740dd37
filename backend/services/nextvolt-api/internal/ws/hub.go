// Package ws pushes live station updates to subscribed WebSocket clients.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/models"
)

// EventStationUpdated is the type of every station broadcast.
const EventStationUpdated = "station_updated"

const (
	defaultPingInterval = 30 * time.Second
	defaultWriteTimeout = 10 * time.Second
	sendBuffer          = 16
)

// Event is the JSON frame sent to clients.
type Event struct {
	Type    string          `json:"type"`
	Station *models.Station `json:"station,omitempty"`
}

// Hub tracks subscribers and fans station updates out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool

	pingInterval time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewHub builds a hub. Non-positive durations select defaults.
func NewHub(pingInterval, writeTimeout time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Hub{
		clients:      make(map[*Client]struct{}),
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// PublishStation broadcasts a station_updated event. Clients whose buffer
// is full miss the event.
func (h *Hub) PublishStation(station models.Station) {
	st := station.Clone()
	payload, err := json.Marshal(Event{Type: EventStationUpdated, Station: &st})
	if err != nil {
		h.logger.Warn("failed to encode station event", zap.Int64("station_id", station.ID), zap.Error(err))
		return
	}
	h.broadcast(payload)
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.enqueue(payload)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run blocks until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.logger.Info("websocket hub stopped", zap.Int("clients", len(clients)))
	return nil
}

func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}
