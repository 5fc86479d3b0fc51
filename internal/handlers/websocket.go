package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/mishrapravin114/pharmadoc/internal/common"
	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
	"github.com/mishrapravin114/pharmadoc/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsClient tracks one websocket connection and its job subscription
type wsClient struct {
	conn *websocket.Conn
	// writeMu serializes writes; gorilla connections allow one writer at a time
	writeMu sync.Mutex

	mu           sync.Mutex
	collectionID string
	jobID        string
	// lastStatus is the job status last pushed, so status changes bypass the
	// throttle and the client never misses a transition
	lastStatus models.JobStatus
	limiter    *rate.Limiter
}

// subscribedTo reports whether the client wants snapshots for this job
func (c *wsClient) subscribedTo(job *models.IndexJob) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.jobID == "" {
		return false
	}
	return c.jobID == job.ID && c.collectionID == job.CollectionID
}

// inboundMessage is what clients send: subscribe/unsubscribe to one job
type inboundMessage struct {
	Type         string `json:"type"`
	CollectionID string `json:"collection_id,omitempty"`
	JobID        string `json:"job_id,omitempty"`
}

// WebSocketHandler pushes job snapshots to subscribed clients
type WebSocketHandler struct {
	logger           arbor.ILogger
	mu               sync.RWMutex
	clients          map[*wsClient]bool
	snapshotInterval time.Duration
	serverInstanceID string // clients use this to detect a server restart
}

// NewWebSocketHandler creates the handler and subscribes it to job snapshot events
func NewWebSocketHandler(eventService interfaces.EventService, config *common.WebSocketConfig, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*wsClient]bool),
		serverInstanceID: uuid.New().String(),
	}

	if config != nil && config.SnapshotInterval != "" {
		if d, err := time.ParseDuration(config.SnapshotInterval); err == nil {
			h.snapshotInterval = d
		} else {
			logger.Warn().
				Err(err).
				Str("interval", config.SnapshotInterval).
				Msg("Failed to parse websocket.snapshot_interval - throttling disabled")
		}
	}

	eventService.Subscribe(interfaces.EventJobSnapshot, h.onJobSnapshot)

	logger.Info().
		Str("server_instance_id", h.serverInstanceID).
		Msg("WebSocket handler initialized")

	return h
}

// HandleWebSocket upgrades the connection and runs the client read loop
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn}
	if h.snapshotInterval > 0 {
		client.limiter = rate.NewLimiter(rate.Every(h.snapshotInterval), 1)
	}

	h.mu.Lock()
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", clientCount).Msg("WebSocket client connected")

	h.send(client, map[string]interface{}{
		"type":               "connected",
		"server_instance_id": h.serverInstanceID,
	})

	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
		conn.Close()
		h.logger.Debug().Msg("WebSocket client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug().Err(err).Msg("Ignoring malformed WebSocket message")
			continue
		}

		switch msg.Type {
		case "subscribe":
			client.mu.Lock()
			client.collectionID = msg.CollectionID
			client.jobID = msg.JobID
			client.lastStatus = ""
			client.mu.Unlock()
			h.logger.Debug().
				Str("collection_id", msg.CollectionID).
				Str("job_id", msg.JobID).
				Msg("WebSocket client subscribed to job")

		case "unsubscribe":
			client.mu.Lock()
			client.collectionID = ""
			client.jobID = ""
			client.mu.Unlock()

		case "ping":
			h.send(client, map[string]interface{}{"type": "pong"})
		}
	}
}

// onJobSnapshot fans a job snapshot out to all subscribed clients.
// Status changes and terminal snapshots always go through; intermediate
// per-document updates are throttled per connection.
func (h *WebSocketHandler) onJobSnapshot(ctx context.Context, event interfaces.Event) error {
	job, ok := event.Payload.(*models.IndexJob)
	if !ok {
		return nil
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if !client.subscribedTo(job) {
			continue
		}

		client.mu.Lock()
		statusChanged := client.lastStatus != job.Status
		throttled := client.limiter != nil && !statusChanged && !job.IsTerminal() && !client.limiter.Allow()
		if !throttled {
			client.lastStatus = job.Status
		}
		client.mu.Unlock()

		if throttled {
			continue
		}

		h.send(client, map[string]interface{}{
			"type": "job_snapshot",
			"data": job,
		})
	}

	return nil
}

// send writes one JSON message, dropping the client on write failure
func (h *WebSocketHandler) send(client *wsClient, payload interface{}) {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := client.conn.WriteJSON(payload); err != nil {
		h.logger.Debug().Err(err).Msg("WebSocket write failed, closing connection")
		client.conn.Close()
	}
}
