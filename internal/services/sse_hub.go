package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// SSEHub manages Server-Sent Events connections for live bundle progress
type SSEHub struct {
	// Map of run ids to client channels
	clients map[string]map[chan models.ProgressEvent]bool
	mu      sync.RWMutex
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]map[chan models.ProgressEvent]bool),
	}
}

// RegisterClient registers a new SSE client for a run
func (h *SSEHub) RegisterClient(runID string) chan models.ProgressEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientChan := make(chan models.ProgressEvent, 64)

	if h.clients[runID] == nil {
		h.clients[runID] = make(map[chan models.ProgressEvent]bool)
	}
	h.clients[runID][clientChan] = true

	logrus.Infof("SSE client registered for run %s (total clients: %d)", runID, len(h.clients[runID]))
	return clientChan
}

// UnregisterClient unregisters an SSE client
func (h *SSEHub) UnregisterClient(runID string, clientChan chan models.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[runID] != nil {
		if _, ok := h.clients[runID][clientChan]; ok {
			delete(h.clients[runID], clientChan)
			close(clientChan)
		}

		// Clean up empty maps
		if len(h.clients[runID]) == 0 {
			delete(h.clients, runID)
		}
	}

	logrus.Infof("SSE client unregistered for run %s (remaining clients: %d)", runID, len(h.clients[runID]))
}

// FormatEvent renders an event as an SSE message
func FormatEvent(ev models.ProgressEvent) ([]byte, error) {
	evJSON, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("id: %d\nevent: progress\ndata: %s\n\n", ev.Seq, string(evJSON))), nil
}

// BroadcastEvent sends an event to every client of its run without blocking
func (h *SSEHub) BroadcastEvent(ev models.ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientChan := range h.clients[ev.RunID] {
		select {
		case clientChan <- ev:
		default:
			// Channel is full, skip this client
			logrus.Warnf("SSE client channel full, skipping event %d of run %s", ev.Seq, ev.RunID)
		}
	}
}

// GetClientCount returns the number of clients for a run
func (h *SSEHub) GetClientCount(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[runID])
}

// Heartbeat is the SSE comment line that keeps idle connections open
func Heartbeat(at time.Time) []byte {
	return []byte(fmt.Sprintf(": heartbeat %s\n\n", at.Format(time.RFC3339)))
}
