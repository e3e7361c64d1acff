// Package realtime fans project change events out to websocket subscribers.
package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

const (
	EventConnected     = "connected"
	EventProjectUpdate = "project.updated"
	EventProjectDelete = "project.deleted"
	EventRoleChange    = "role.changed"
	EventTaskCreate    = "task.created"
	EventTaskUpdate    = "task.updated"
	EventTaskDelete    = "task.deleted"
)

type Event struct {
	Type      string `json:"type"`
	ProjectID uint   `json:"project_id"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
}

type client struct {
	userID uint
	conn   *websocket.Conn
	send   chan Event
}

// Hub keeps the open connections of each project. A connection is only
// written to by its own writer goroutine.
type Hub struct {
	mu       sync.RWMutex
	projects map[uint]map[*client]struct{}
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewHub(origins []string, log zerolog.Logger) *Hub {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		allowed[origin] = true
	}

	return &Hub{
		projects: make(map[uint]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		log: log.With().Str("component", "realtime").Logger(),
	}
}

// Subscribers reports how many connections are open for a project.
func (h *Hub) Subscribers(projectID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.projects[projectID])
}

// Broadcast queues ev for every subscriber of its project. Subscribers whose
// buffer is full are disconnected.
func (h *Hub) Broadcast(ev Event) {
	var slow []*client

	h.mu.RLock()
	for c := range h.projects[ev.ProjectID] {
		select {
		case c.send <- ev:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn().Uint("project_id", ev.ProjectID).Msg("subscriber too slow, dropping")
		h.unregister(ev.ProjectID, c)
	}
}

// Close disconnects every subscriber of a project, typically after it was
// deleted.
func (h *Hub) Close(projectID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropLocked(projectID, func(*client) bool { return true })
}

// Disconnect closes the user's connections to a project, for example once
// their role on it is removed.
func (h *Hub) Disconnect(projectID, userID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropLocked(projectID, func(c *client) bool { return c.userID == userID })
}

// DisconnectUser closes every connection the user holds.
func (h *Hub) DisconnectUser(userID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for projectID := range h.projects {
		h.dropLocked(projectID, func(c *client) bool { return c.userID == userID })
	}
}

func (h *Hub) dropLocked(projectID uint, match func(*client) bool) {
	clients := h.projects[projectID]

	for c := range clients {
		if match(c) {
			delete(clients, c)
			close(c.send)
		}
	}

	if len(clients) == 0 {
		delete(h.projects, projectID)
	}
}

func (h *Hub) register(projectID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.projects[projectID] == nil {
		h.projects[projectID] = make(map[*client]struct{})
	}
	h.projects[projectID][c] = struct{}{}
}

func (h *Hub) unregister(projectID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.projects[projectID]
	if !ok {
		return
	}

	if _, ok := clients[c]; !ok {
		return
	}

	delete(clients, c)
	close(c.send)

	if len(clients) == 0 {
		delete(h.projects, projectID)
	}
}

// Serve upgrades the request and blocks until the connection ends. The
// caller must have authorized userID for projectID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, projectID, userID uint) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{userID: userID, conn: conn, send: make(chan Event, sendBuffer)}
	c.send <- Event{Type: EventConnected, ProjectID: projectID, Message: "WebSocket connection established"}

	h.register(projectID, c)

	done := make(chan struct{})
	go h.writePump(projectID, c, done)

	h.readPump(projectID, c)
	h.unregister(projectID, c)
	<-done

	h.log.Debug().Uint("project_id", projectID).Msg("websocket connection closed")

	return nil
}

// readPump drains the connection so pongs and close frames are processed.
// Client messages carry no meaning and are discarded.
func (h *Hub) readPump(projectID uint, c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn().Err(err).Uint("project_id", projectID).Msg("websocket read failed")
			}
			return
		}
	}
}

func (h *Hub) writePump(projectID uint, c *client, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(done)
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(ev); err != nil {
				h.log.Warn().Err(err).Uint("project_id", projectID).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
