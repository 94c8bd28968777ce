package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nft-marketplace-onchain/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

// Message はWebSocketで送る1件のメッセージ
type Message struct {
	Type    string          `json:"type"` // "toast" | "navigate"
	Payload json.RawMessage `json:"payload"`
}

type client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session string
}

// Hub はページ (session) ごとに通知を配信する
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*client]bool
	upgrader websocket.Upgrader
}

func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		sessions: make(map[string]map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Session は session 宛ての Surface を返す
func (h *Hub) Session(session string) Surface {
	return &sessionSurface{hub: h, session: session}
}

// Clients は session に接続中のクライアント数
func (h *Hub) Clients(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[session])
}

// Publish は session の全クライアントに送る。送信が詰まっているクライアントは切断する
func (h *Hub) Publish(session string, msgType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to encode notification")
		return
	}
	message, err := json.Marshal(Message{Type: msgType, Payload: raw})
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to encode message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.sessions[session] {
		select {
		case c.send <- message:
		default:
			h.removeLocked(c)
		}
	}
}

// ServeWS は /ws?session=<id> をWebSocketにアップグレードする
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	session := r.URL.Query().Get("session")
	if session == "" {
		http.Error(w, "session is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Debugf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, 16), session: session}
	h.register(c)

	go c.writePump()
	go c.readPump()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[c.session]; !ok {
		h.sessions[c.session] = make(map[*client]bool)
	}
	h.sessions[c.session][c] = true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	clients, ok := h.sessions[c.session]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.sessions, c.session)
	}
}

// readPump は切断検知と pong の処理だけを行う (クライアントからの入力は使わない)
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.S().Debugf("websocket error: %v", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sessionSurface は1ページ分の通知をHubに流す
type sessionSurface struct {
	hub     *Hub
	session string
}

func (s *sessionSurface) Loading(message string) {
	s.hub.Publish(s.session, "toast", toast(model.NotifyLoading, message))
}

func (s *sessionSurface) Success(message string) {
	s.hub.Publish(s.session, "toast", toast(model.NotifySuccess, message))
}

func (s *sessionSurface) Error(message string) {
	s.hub.Publish(s.session, "toast", toast(model.NotifyError, message))
}

func (s *sessionSurface) Dismiss() {
	s.hub.Publish(s.session, "toast", toast(model.NotifyDismiss, ""))
}

func (s *sessionSurface) Alert(message string) {
	s.hub.Publish(s.session, "toast", toast(model.NotifyAlert, message))
}

func (s *sessionSurface) Navigate(route string) {
	s.hub.Publish(s.session, "navigate", model.Navigation{Route: route})
}
