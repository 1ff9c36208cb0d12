package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsHub fans room snapshots out to connected clients. Connections are
// read-only: clients act through the HTTP API and receive updates here.
type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *wsHub) Add(roomCode string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[roomCode]
	if group == nil {
		group = make(map[*websocket.Conn]struct{})
		h.groups[roomCode] = group
	}
	group[conn] = struct{}{}
}

func (h *wsHub) Remove(roomCode string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[roomCode]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.groups, roomCode)
	}
}

func (h *wsHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (h *wsHub) Broadcast(roomCode string, payload any) {
	h.mu.Lock()
	group := h.groups[roomCode]
	conns := make([]*websocket.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(roomCode, conn)
		}
	}
}

func (s *Server) handleRoomWebsocket(w http.ResponseWriter, r *http.Request) {
	code, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	code = normalizeRoomCode(code)
	room, exists := s.store.GetRoom(code)
	if !exists {
		http.NotFound(w, r)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected room_code=%s remote=%s", code, r.RemoteAddr)
	s.ws.Add(code, conn)
	s.ws.Send(conn, s.snapshot(room, nil))
	go s.readWS(code, conn)
}

func (s *Server) readWS(roomCode string, conn *websocket.Conn) {
	defer s.ws.Remove(roomCode, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected room_code=%s error=%v", roomCode, err)
			return
		}
	}
}

// broadcastRoomUpdate sends the spectator projection to every socket in
// the room. Per-player secrets never travel over the hub.
func (s *Server) broadcastRoomUpdate(room *Room) {
	if s.ws == nil {
		return
	}
	s.ws.Broadcast(room.Code, s.snapshot(room, nil))
}
