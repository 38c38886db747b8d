package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/subtech/mina-dashboard/internal/metrics"
	"github.com/subtech/mina-dashboard/internal/monitor"
	"github.com/subtech/mina-dashboard/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Message is pushed to every viewer.
type Message struct {
	Type      string     `json:"type"`
	To        string     `json:"to,omitempty"`
	Version   uint64     `json:"version,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (v *viewer) close() {
	v.once.Do(func() { close(v.send) })
}

// Hub tracks connected WebSocket viewers. It is the monitor's visibility
// gate: the dashboard counts as visible while anyone is watching.
type Hub struct {
	sessions session.Store
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	viewers map[*viewer]struct{}
}

func NewHub(sessions session.Store, allowedOrigins []string) *Hub {
	h := &Hub{sessions: sessions, viewers: make(map[*viewer]struct{})}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(allowedOrigins) == 0 ||
				slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// Visible implements monitor.Visibility.
func (h *Hub) Visible() bool {
	return h.Count() > 0
}

func (h *Hub) add(v *viewer) {
	h.mu.Lock()
	h.viewers[v] = struct{}{}
	n := len(h.viewers)
	h.mu.Unlock()
	metrics.ViewersConnected.Set(float64(n))
}

func (h *Hub) remove(v *viewer) {
	h.mu.Lock()
	_, present := h.viewers[v]
	delete(h.viewers, v)
	n := len(h.viewers)
	h.mu.Unlock()
	if present {
		v.close()
	}
	metrics.ViewersConnected.Set(float64(n))
}

// Broadcast queues msg for every viewer. A viewer whose buffer is full is
// disconnected rather than allowed to stall the others.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[ERROR] Viewer Hub: marshal %s: %v", msg.Type, err)
		return
	}

	h.mu.RLock()
	var slow []*viewer
	for v := range h.viewers {
		select {
		case v.send <- data:
		default:
			slow = append(slow, v)
		}
	}
	h.mu.RUnlock()

	for _, v := range slow {
		log.Printf("[WARN] Viewer Hub: dropping slow viewer %s", v.conn.RemoteAddr())
		h.remove(v)
	}
}

// HandleSnapshot is a monitor.Listener.
func (h *Hub) HandleSnapshot(s monitor.Snapshot) {
	at := s.UpdatedAt
	h.Broadcast(Message{Type: "snapshot", Version: s.Version, UpdatedAt: &at})
}

// Redirect tells every viewer to navigate to to.
func (h *Hub) Redirect(to string) {
	h.Broadcast(Message{Type: "redirect", To: to})
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	all := make([]*viewer, 0, len(h.viewers))
	for v := range h.viewers {
		all = append(all, v)
	}
	h.viewers = make(map[*viewer]struct{})
	h.mu.Unlock()

	for _, v := range all {
		v.close()
	}
	metrics.ViewersConnected.Set(0)
}

// ServeWS upgrades the request and keeps the viewer registered until the
// connection drops. A viewer without a session is told to go to login.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] Viewer Hub: upgrade failed: %v", err)
		return
	}

	if h.sessions != nil && !session.HasValidToken(context.Background(), h.sessions) {
		data, _ := json.Marshal(Message{Type: "redirect", To: "/"})
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.TextMessage, data)
		conn.Close()
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(v)
	log.Printf("[INFO] Viewer Hub: viewer connected from %s (%d watching)", conn.RemoteAddr(), h.Count())

	go h.writePump(v)
	h.readPump(v)
}

func (h *Hub) readPump(v *viewer) {
	defer func() {
		h.remove(v)
		v.conn.Close()
		log.Printf("[INFO] Viewer Hub: viewer disconnected (%d watching)", h.Count())
	}()

	v.conn.SetReadLimit(512)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(v *viewer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case data, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
