package brandsite

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// subscriber is one connected admin dashboard.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans draft change events out to websocket subscribers. Run must be
// running for Publish and subscriptions to make progress.
type Hub struct {
	clients    map[*subscriber]bool
	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan []byte
	done       chan struct{}
	once       sync.Once
	logger     *log.Logger
}

// NewHub creates a hub. Start it with go hub.Run().
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		clients:    make(map[*subscriber]bool),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan []byte),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run is the hub's main loop. It returns after Close.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.clients[s] = true
			h.logger.Debug("subscriber registered", "count", len(h.clients))
		case s := <-h.unregister:
			h.drop(s)
		case msg := <-h.broadcast:
			for s := range h.clients {
				select {
				case s.send <- msg:
				default:
					// Too slow to keep up; it will reconnect.
					h.logger.Warn("dropping slow subscriber")
					h.drop(s)
				}
			}
		case <-h.done:
			for s := range h.clients {
				h.drop(s)
			}
			return
		}
	}
}

func (h *Hub) drop(s *subscriber) {
	if _, ok := h.clients[s]; ok {
		delete(h.clients, s)
		close(s.send)
	}
}

// Close stops Run and disconnects every subscriber.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}

// Publish sends ev to every subscriber. It is a no-op after Close.
func (h *Hub) Publish(ev DraftEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encode draft event", "err", err)
		return
	}
	if h.closed() {
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func (h *Hub) closed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Hub) subscribe(s *subscriber) bool {
	if h.closed() {
		return false
	}
	select {
	case h.register <- s:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unsubscribe(s *subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (a *App) handleSubscribe(c echo.Context) error {
	if !IsAdmin(c) {
		return c.NoContent(http.StatusUnauthorized)
	}
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already answered the client.
		c.Logger().Warnf("websocket upgrade: %v", err)
		return nil
	}
	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	if !a.Hub.subscribe(s) {
		conn.Close()
		return nil
	}
	go s.writePump()
	s.readPump()
	a.Hub.unsubscribe(s)
	return nil
}

// readPump discards client messages and returns when the connection dies.
func (s *subscriber) readPump() {
	defer s.conn.Close()
	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
