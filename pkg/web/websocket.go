// Package web exposes a JSON status endpoint and a WebSocket event hub
// that broadcasts device lifecycle and recording events to connected
// dashboards.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dbehnke/neuroplay-go/pkg/logger"
)

// Event is one WebSocket notification broadcast to every connected client.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Marshal converts an event to JSON bytes.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Client is one connected WebSocket dashboard.
type Client struct {
	ID       string
	conn     *websocket.Conn
	messages chan []byte
}

// Hub fans out Events to every registered Client and tracks connection
// lifecycle through channels (a buffered broadcast channel, unbuffered
// register/unregister channels), the same pattern the rest of this SDK uses
// for its own select loops.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	log        *logger.Logger
	mu         sync.RWMutex
}

// NewHub returns a Hub. Call Run to start its event loop.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log.WithComponent("web"),
	}
}

// Run drives the hub until ctx is done, at which point every client
// connection is closed.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("client registered", logger.String("client_id", client.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.messages)
			}
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.String("client_id", client.ID))

		case event := <-h.broadcast:
			data, err := event.Marshal()
			if err != nil {
				h.log.Error("failed to marshal event", logger.Error(err))
				continue
			}
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.messages <- data:
				default:
					h.log.Warn("client message buffer full, dropping", logger.String("client_id", client.ID))
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.log.Info("web hub shutting down")
			h.mu.Lock()
			for client := range h.clients {
				close(client.messages)
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast queues an event for delivery to every connected client,
// dropping it if the hub's broadcast buffer is full.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("broadcast channel full, dropping event", logger.String("event_type", event.Type))
	}
}

// Handler returns an HTTP handler that upgrades requests to WebSocket
// connections and registers them with the hub.
func (h *Hub) Handler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
			return
		}
		client := &Client{ID: r.RemoteAddr, conn: conn, messages: make(chan []byte, 256)}
		h.register <- client

		go func() {
			defer func() {
				h.unregister <- client
				_ = client.conn.Close()
			}()
			client.conn.SetReadLimit(1024)
			for {
				if _, _, err := client.conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		go func() {
			for msg := range client.messages {
				_ = client.conn.WriteMessage(websocket.TextMessage, msg)
			}
		}()
	})
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastDeviceConnected notifies dashboards a device finished connecting.
func (h *Hub) BroadcastDeviceConnected(address, name string) {
	h.Broadcast(Event{
		Type: "device_connected",
		Data: map[string]interface{}{
			"address": address,
			"name":    name,
		},
	})
}

// BroadcastDeviceDisconnected notifies dashboards a device disconnected.
func (h *Hub) BroadcastDeviceDisconnected(address string) {
	h.Broadcast(Event{
		Type: "device_disconnected",
		Data: map[string]interface{}{
			"address": address,
		},
	})
}

// BroadcastRecordingStarted notifies dashboards a recording began.
func (h *Hub) BroadcastRecordingStarted(address, edfPath string) {
	h.Broadcast(Event{
		Type: "recording_started",
		Data: map[string]interface{}{
			"address":  address,
			"edf_path": edfPath,
		},
	})
}

// BroadcastRecordingStopped notifies dashboards a recording was finalized.
func (h *Hub) BroadcastRecordingStopped(address string) {
	h.Broadcast(Event{
		Type: "recording_stopped",
		Data: map[string]interface{}{
			"address": address,
		},
	})
}

// BroadcastValidationCompleted notifies dashboards a channel-quality check
// finished, carrying each channel's classification.
func (h *Hub) BroadcastValidationCompleted(address string, statuses map[string]string) {
	h.Broadcast(Event{
		Type: "validation_completed",
		Data: map[string]interface{}{
			"address":  address,
			"statuses": statuses,
		},
	})
}
