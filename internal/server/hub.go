package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/taskdeck/taskdeck/internal/model"
)

type wsClient struct {
	conn      *websocket.Conn
	projectID int64
	writeMu   sync.Mutex
}

// send serializes writes per connection; gorilla/websocket allows only one
// concurrent writer.
func (c *wsClient) send(event model.Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return c.conn.WriteJSON(event)
}

// hub fans domain events out to websocket subscribers. A subscriber may
// scope itself to a single project via the "project" query parameter; a
// missing or zero id subscribes to everything.
type hub struct {
	upgrader  websocket.Upgrader
	broadcast chan model.Event
	done      chan struct{}

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub() *hub {
	h := &hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		broadcast: make(chan model.Event, 128),
		done:      make(chan struct{}),
		clients:   make(map[*wsClient]struct{}),
	}
	go h.fanOut()
	return h
}

func (h *hub) Close() {
	close(h.done)
}

func (h *hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	projectID, _ := strconv.ParseInt(r.URL.Query().Get("project"), 10, 64)
	client := &wsClient{conn: conn, projectID: projectID}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	// The read loop exists only to notice disconnects; clients never send
	// anything the server acts on.
	go func() {
		defer h.drop(client)
		for {
			if _, _, err := client.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish never blocks the request path. When the queue is saturated the
// event is dropped; watchers are a best-effort tail, not a durable log.
func (h *hub) Publish(event model.Event) {
	select {
	case h.broadcast <- event:
	default:
	}
}

func (h *hub) drop(client *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()
	if ok {
		_ = client.conn.Close()
	}
}

func (h *hub) subscribers(projectID int64) []*wsClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		if client.projectID != 0 && client.projectID != projectID {
			continue
		}
		out = append(out, client)
	}
	return out
}

func (h *hub) fanOut() {
	for {
		select {
		case event := <-h.broadcast:
			for _, client := range h.subscribers(event.ProjectID) {
				if err := client.send(event); err != nil {
					h.drop(client)
				}
			}
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				_ = client.conn.Close()
			}
			h.clients = map[*wsClient]struct{}{}
			h.mu.Unlock()
			return
		}
	}
}
