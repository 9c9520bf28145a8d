// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/metrics"
)

// ShutdownReason records why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Control message types. Event messages use the event type, for example
// "location.updated".
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Message is what dashboard clients receive.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub tracks connected dashboard clients and fans messages out to them.
// Registration and broadcast go through channels serviced by RunWithContext.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub. Call RunWithContext to start it.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext services the hub until ctx is done, then closes every
// client. Registration changes are drained before broadcasts so a client
// that just connected sees the next message.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(n))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(n))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", n).Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	count := h.closeAllClients()
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(shutdownReason(ctx))).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

func shutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// sortedClients returns clients in id order. Callers hold mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

// broadcastToClients sends to every client; a client whose buffer is full is
// dropped rather than allowed to stall the rest.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var slow []*Client
	for _, client := range h.sortedClients() {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	for _, client := range slow {
		close(client.send)
		delete(h.clients, client)
		metrics.WSErrors.WithLabelValues("slow_client").Inc()
		logging.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket client")
	}
	if len(slow) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedClients()
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
	return len(clients)
}

// BroadcastJSON queues a message for every client. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) BroadcastJSON(messageType string, data any) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage encodes a message as it goes over the wire.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
