package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/V4T54L/log-lens/internal/adapter/metrics"
	"github.com/V4T54L/log-lens/internal/domain"
)

const (
	datasetEventName  = "dataset"
	clientBufferSize  = 8
	heartbeatInterval = 15 * time.Second
)

// SSEBroker manages SSE client connections and broadcasts dataset events.
// It implements domain.DatasetPublisher.
type SSEBroker struct {
	logger  *slog.Logger
	metrics *metrics.DashboardMetrics
	clients map[chan []byte]struct{}
	mu      sync.RWMutex
	events  chan domain.DatasetEvent
	last    []byte // most recent frame, replayed to new clients
	closed  bool
}

// NewSSEBroker creates a new SSEBroker and starts its processing loop. m may be nil.
func NewSSEBroker(ctx context.Context, m *metrics.DashboardMetrics, logger *slog.Logger) *SSEBroker {
	broker := &SSEBroker{
		logger:  logger.With("component", "sse_broker"),
		metrics: m,
		clients: make(map[chan []byte]struct{}),
		events:  make(chan domain.DatasetEvent, 64),
	}
	go broker.run(ctx)
	return broker
}

// ServeHTTP handles new client connections for the SSE stream.
func (b *SSEBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	messageChan := make(chan []byte, clientBufferSize)
	last, ok := b.addClient(messageChan)
	if !ok {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer b.removeClient(messageChan)

	fmt.Fprint(w, "retry: 3000\n\n")
	if last != nil {
		_, _ = w.Write(last)
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messageChan:
			if !ok {
				return // Channel was closed
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// PublishDataset queues a dataset event for broadcast without blocking the caller.
func (b *SSEBroker) PublishDataset(event domain.DatasetEvent) {
	select {
	case b.events <- event:
	default:
		// Channel is full, drop the event to avoid blocking the ingestion path.
		b.logger.Warn("SSE event channel is full, dropping dataset event", "dataset_id", event.DatasetID)
	}
}

// ClientCount returns the number of connected clients.
func (b *SSEBroker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *SSEBroker) addClient(client chan []byte) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, false
	}
	b.clients[client] = struct{}{}
	if b.metrics != nil {
		b.metrics.SSEClients.Set(float64(len(b.clients)))
	}
	b.logger.Info("SSE client connected", "clients", len(b.clients))
	return b.last, true
}

func (b *SSEBroker) removeClient(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client)
		if b.metrics != nil {
			b.metrics.SSEClients.Set(float64(len(b.clients)))
		}
		b.logger.Info("SSE client disconnected", "clients", len(b.clients))
	}
}

func (b *SSEBroker) broadcast(msg []byte, remember bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if remember {
		b.last = msg
	}
	for client := range b.clients {
		select {
		case client <- msg:
		default:
			// Slow client; skip rather than block everyone else.
		}
	}
}

// closeAll ends every open stream; http.Server.Shutdown does not cancel them.
func (b *SSEBroker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for client := range b.clients {
		delete(b.clients, client)
		close(client)
	}
	if b.metrics != nil {
		b.metrics.SSEClients.Set(0)
	}
}

// run is the main processing loop for the broker.
func (b *SSEBroker) run(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case event := <-b.events:
			data, err := json.Marshal(event)
			if err != nil {
				b.logger.Error("Failed to marshal SSE message", "error", err)
				continue
			}
			b.broadcast([]byte(fmt.Sprintf("event: %s\ndata: %s\n\n", datasetEventName, data)), true)
		case <-ticker.C:
			b.broadcast([]byte(": keepalive\n\n"), false)
		}
	}
}
