package kitchen

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"snackzinabi/internal/metrics"
	"snackzinabi/internal/models"
)

// Endpoint is one live kitchen display. Implementations must be safe to
// call from the broadcasting goroutine; Send either hands the frame to the
// connection or returns an error, it never blocks on a slow peer.
type Endpoint interface {
	ID() uuid.UUID
	Send(message []byte) error
	Close() error
}

// Delivery is the outcome of one broadcast attempt to one endpoint.
type Delivery struct {
	Endpoint uuid.UUID
	Err      error
}

// Frame is the JSON envelope pushed to kitchen displays.
type Frame struct {
	Type     string           `json:"type"`
	Commande *models.Commande `json:"commande,omitempty"`
}

// FrameNewCommande announces a freshly committed order.
const FrameNewCommande = "new_commande"

// Hub is the process-wide registry of kitchen connections. Displays connect
// and disconnect at any time; broadcasts go to the connections registered at
// that moment, there is no replay for late joiners. A failed delivery drops
// the connection from the registry and never affects the others.
type Hub struct {
	mu        sync.RWMutex
	endpoints map[uuid.UUID]Endpoint

	log     *logrus.Entry
	metrics *metrics.Collector
}

// NewHub creates an empty registry.
func NewHub(log *logrus.Logger, collector *metrics.Collector) *Hub {
	return &Hub{
		endpoints: make(map[uuid.UUID]Endpoint),
		log:       log.WithField("component", "kitchen"),
		metrics:   collector,
	}
}

// Register adds a connection to the registry.
func (h *Hub) Register(e Endpoint) {
	h.mu.Lock()
	h.endpoints[e.ID()] = e
	n := len(h.endpoints)
	h.mu.Unlock()

	h.metrics.SetKitchenConnections(n)
	h.log.WithField("connection", e.ID()).WithField("connected", n).Info("kitchen display connected")
}

// Deregister removes a connection. Safe to call for connections that were
// already removed by a failed broadcast.
func (h *Hub) Deregister(id uuid.UUID) {
	h.mu.Lock()
	_, present := h.endpoints[id]
	delete(h.endpoints, id)
	n := len(h.endpoints)
	h.mu.Unlock()

	if present {
		h.metrics.SetKitchenConnections(n)
		h.log.WithField("connection", id).WithField("connected", n).Info("kitchen display disconnected")
	}
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.endpoints)
}

// NotifyNewCommande broadcasts a committed order to every connected display.
func (h *Hub) NotifyNewCommande(commande *models.Commande) []Delivery {
	return h.Broadcast(Frame{Type: FrameNewCommande, Commande: commande})
}

// Broadcast marshals v once and attempts delivery to every registered
// connection independently. A write failure on one connection is logged,
// counted, and gets that connection dropped; it never propagates to the
// caller and never prevents delivery to the remaining connections.
func (h *Hub) Broadcast(v interface{}) []Delivery {
	payload, err := json.Marshal(v)
	if err != nil {
		// Frames are built from our own models; this only fires on a
		// programming error, and the caller must still not blow up.
		h.log.WithError(err).Error("broadcast payload not serializable")
		return nil
	}

	// Snapshot under the read lock, deliver outside of it so a slow or
	// dead connection never holds up registration.
	h.mu.RLock()
	snapshot := make([]Endpoint, 0, len(h.endpoints))
	for _, e := range h.endpoints {
		snapshot = append(snapshot, e)
	}
	h.mu.RUnlock()

	deliveries := make([]Delivery, 0, len(snapshot))
	for _, e := range snapshot {
		err := e.Send(payload)
		deliveries = append(deliveries, Delivery{Endpoint: e.ID(), Err: err})
		h.metrics.RecordDelivery(err == nil)
		if err != nil {
			h.log.WithField("connection", e.ID()).WithError(err).Warn("kitchen delivery failed, dropping connection")
			h.Deregister(e.ID())
			_ = e.Close()
		}
	}
	return deliveries
}
