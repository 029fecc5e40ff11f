package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/health-risk-inference-server/internal/coordinator"
	"github.com/health-risk-inference-server/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// wsEvent is the wire form of a lifecycle event pushed to websocket
// clients. Completed events include the ensemble risk so dashboards do
// not need a follow-up status poll for the headline number.
type wsEvent struct {
	Type         domain.LifecycleEvent `json:"type"`
	PredictionID string                `json:"prediction_id"`
	PatientID    string                `json:"patient_id,omitempty"`
	Status       domain.RequestStatus  `json:"status"`
	OverallRisk  *float64              `json:"overall_risk,omitempty"`
	RiskCategory domain.RiskCategory   `json:"risk_category,omitempty"`
	Error        string                `json:"error,omitempty"`
	Timestamp    time.Time             `json:"timestamp"`
}

// eventHub fans coordinator lifecycle events out to websocket clients.
type eventHub struct {
	logger *logrus.Logger

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	closed  bool
}

type hubClient struct {
	send chan []byte
}

func newEventHub(logger *logrus.Logger) *eventHub {
	return &eventHub{
		logger:  logger,
		clients: make(map[*hubClient]struct{}),
	}
}

// run consumes the coordinator event stream until it is closed.
func (h *eventHub) run(events <-chan coordinator.Event) {
	for event := range events {
		h.broadcast(event)
	}
}

func (h *eventHub) broadcast(event coordinator.Event) {
	msg := wsEvent{
		Type:         event.Type,
		PredictionID: event.PredictionID,
		PatientID:    event.PatientID,
		Status:       event.Status,
		Error:        event.Error,
		Timestamp:    time.Now().UTC(),
	}
	if event.Type == domain.EventCompleted && event.Result != nil {
		risk := event.Result.Ensemble.OverallRisk
		msg.OverallRisk = &risk
		msg.RiskCategory = domain.CategorizeRisk(risk)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Warn("Could not marshal lifecycle event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// serve upgrades the request and pumps events until the client leaves.
func (h *eventHub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	client := &hubClient{send: make(chan []byte, 64)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writePump(client, conn)
	h.readPump(client, conn)
}

// readPump discards inbound frames; its job is detecting disconnects.
func (h *eventHub) readPump(client *hubClient, conn *websocket.Conn) {
	defer func() {
		h.remove(client)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *eventHub) writePump(client *hubClient, conn *websocket.Conn) {
	defer conn.Close()

	for message := range client.send {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
}

func (h *eventHub) remove(client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// close disconnects every client and rejects new ones.
func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}
