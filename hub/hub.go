// Package hub pushes live updates to browsers over websockets. Clients are
// grouped by shopper session so cart updates only reach their owner.
package hub

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "hub")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

type Client struct {
	Conn    *websocket.Conn
	Send    chan []byte
	Session string
}

// message goes to the clients of Session, or to everyone when Session is
// empty.
type message struct {
	Session string
	Data    []byte
}

type Hub struct {
	sessions   map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	quit       chan struct{}
	upgrader   websocket.Upgrader
}

// NewHub creates a hub; checkOrigin may be nil to accept same-origin
// requests only.
func NewHub(checkOrigin func(*http.Request) bool) *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		quit:       make(chan struct{}),
		upgrader:   websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			if h.sessions[c.Session] == nil {
				h.sessions[c.Session] = make(map[*Client]bool)
			}
			h.sessions[c.Session][c] = true

		case c := <-h.unregister:
			h.drop(c)

		case m := <-h.broadcast:
			for session, clients := range h.sessions {
				if m.Session != "" && m.Session != session {
					continue
				}
				for c := range clients {
					select {
					case c.Send <- m.Data:
					default:
						h.drop(c)
					}
				}
			}

		case <-h.quit:
			for _, clients := range h.sessions {
				for c := range clients {
					h.drop(c)
				}
			}
			return
		}
	}
}

func (h *Hub) drop(c *Client) {
	clients := h.sessions[c.Session]
	if !clients[c] {
		return
	}
	delete(clients, c)
	close(c.Send)
	if len(clients) == 0 {
		delete(h.sessions, c.Session)
	}
}

func (h *Hub) Stop() {
	close(h.quit)
}

// Publish encodes v and queues it for session, or for every client when
// session is empty. It never blocks; messages are dropped once the hub is
// stopped or its queue is full.
func (h *Hub) Publish(session string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Warn("unencodable message")
		return
	}
	select {
	case <-h.quit:
	case h.broadcast <- message{Session: session, Data: data}:
	default:
		log.Warn("broadcast queue full, dropping message")
	}
}

// Serve upgrades the request and attaches the connection to session.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, session string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("upgrade failed")
		return
	}
	c := &Client{Conn: conn, Send: make(chan []byte, sendBuffer), Session: session}

	select {
	case h.register <- c:
	case <-h.quit:
		conn.Close()
		return
	}
	go writePump(c)
	go readPump(c, h)
}

func writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the connection going away; the feed is one-way.
func readPump(c *Client, h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.quit:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
