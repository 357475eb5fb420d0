package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pawprint/backend/internal/domain"
	"github.com/pawprint/backend/internal/middleware"
	"github.com/pawprint/backend/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients; restrict in production
	},
}

type hubClient struct {
	conn     *websocket.Conn
	send     chan []byte
	viewerID uuid.UUID
}

// Event is the envelope pushed to connected clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// EventHub pushes story-created events to connected followers over
// websockets. It implements domain.NotificationDispatcher alongside the FCM
// path, so online clients see new stories without polling.
type EventHub struct {
	graph      domain.SocialGraph
	clients    map[*hubClient]struct{}
	byViewer   map[uuid.UUID]map[*hubClient]struct{}
	register   chan *hubClient
	unregister chan *hubClient
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

func NewEventHub(graph domain.SocialGraph, logger *zap.Logger) *EventHub {
	return &EventHub{
		graph:      graph,
		clients:    make(map[*hubClient]struct{}),
		byViewer:   make(map[uuid.UUID]map[*hubClient]struct{}),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes client registration until the context is cancelled, then
// disconnects every remaining client so their pumps terminate.
func (h *EventHub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for client := range h.clients {
			close(client.send)
		}
		h.clients = make(map[*hubClient]struct{})
		h.byViewer = make(map[uuid.UUID]map[*hubClient]struct{})
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			if _, ok := h.byViewer[client.viewerID]; !ok {
				h.byViewer[client.viewerID] = make(map[*hubClient]struct{})
			}
			h.byViewer[client.viewerID][client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("event client registered", zap.String("viewer_id", client.viewerID.String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if viewerMap, ok := h.byViewer[client.viewerID]; ok {
					delete(viewerMap, client)
					if len(viewerMap) == 0 {
						delete(h.byViewer, client.viewerID)
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// NotifyFollowers pushes a story-created event to every connected follower
// of the story's author.
func (h *EventHub) NotifyFollowers(ctx context.Context, story *domain.Story) {
	followerIDs, err := h.graph.Followers(ctx, story.AuthorID)
	if err != nil {
		h.logger.Warn("follower lookup failed, skipping live event", zap.Error(err))
		return
	}

	msg, err := json.Marshal(Event{Type: "story.created", Payload: story})
	if err != nil {
		h.logger.Error("failed to marshal story event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, followerID := range followerIDs {
		for client := range h.byViewer[followerID] {
			select {
			case client.send <- msg:
			default:
				// Slow client; drop the event rather than block dispatch.
			}
		}
	}
}

// addClient hands a client to Run, or reports false when the hub has shut
// down and nobody is receiving.
func (h *EventHub) addClient(c *hubClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *EventHub) removeClient(c *hubClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
		// Shutdown cleanup already closed the send channels.
	}
}

// ServeWS upgrades the request and attaches the viewer to the hub.
func (h *EventHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetViewerID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &hubClient{
		conn:     conn,
		send:     make(chan []byte, 16),
		viewerID: viewerID,
	}
	if !h.addClient(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *hubClient) readPump(h *EventHub) {
	defer func() {
		h.removeClient(c)
		c.conn.Close()
	}()

	// Events flow server to client only; reads just detect disconnects.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *hubClient) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
