package gameserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/raccoons/internal/config"
	"github.com/cory-johannsen/raccoons/internal/game/room"
)

// Coordinator is the inbound contract the hub forwards client requests to.
type Coordinator interface {
	JoinByCode(connID, roomCode string, ack room.Ack)
	JoinRandom(connID string, ack room.Ack)
	Move(connID string, x, y float64)
	Disconnect(connID string)
}

// Hub owns all live WebSocket connections and their room grouping. It
// implements room.Broadcaster: broadcasts are fire-and-forget, dropped per
// connection when a send buffer is full.
type Hub struct {
	cfg      config.ServerConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	conns  map[string]*Conn            // connection id → connection
	groups map[string]map[string]*Conn // room code → connection id → connection

	coordinator Coordinator
}

// NewHub creates a Hub. Call SetCoordinator before serving; the hub and the
// coordinator reference each other, so one of them is wired second.
//
// Precondition: logger must be non-nil.
func NewHub(cfg config.ServerConfig, logger *zap.Logger) *Hub {
	return &Hub{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns:  make(map[string]*Conn),
		groups: make(map[string]map[string]*Conn),
	}
}

// SetCoordinator wires the request sink. Must be called before ServeWS.
//
// Precondition: c must be non-nil.
func (h *Hub) SetCoordinator(c Coordinator) {
	h.coordinator = c
}

// Routes returns the HTTP handler exposing the websocket and health
// endpoints.
func (h *Hub) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", h.ServeWS)
	mux.HandleFunc("GET /healthz", h.healthz)
	return mux
}

// ServeWS upgrades the request and starts the connection's read and write
// pumps. Each connection gets a fresh UUID identity.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Conn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, h.cfg.SendBuffer),
		hub:  h,
	}

	h.mu.Lock()
	h.conns[conn.id] = conn
	h.mu.Unlock()

	h.logger.Info("connected", zap.String("conn", conn.id), zap.String("remote", r.RemoteAddr))

	go conn.writePump()
	go conn.readPump()
}

func (h *Hub) healthz(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	connections := len(h.conns)
	rooms := len(h.groups)
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"connections": connections,
		"rooms":       rooms,
	})
}

// JoinGroup adds the connection to the named room group for scoped
// broadcast. Part of the room.Broadcaster contract.
func (h *Hub) JoinGroup(connID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	if h.groups[roomCode] == nil {
		h.groups[roomCode] = make(map[string]*Conn)
	}
	h.groups[roomCode][connID] = conn
}

// ToRoom sends an event to every member of the room.
func (h *Hub) ToRoom(roomCode, event string, payload any) {
	h.broadcast(roomCode, "", event, payload)
}

// ToRoomExcept sends an event to every member of the room except exceptID.
func (h *Hub) ToRoomExcept(roomCode, exceptID, event string, payload any) {
	h.broadcast(roomCode, exceptID, event, payload)
}

func (h *Hub) broadcast(roomCode, exceptID, event string, payload any) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		h.logger.Error("dropping broadcast", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, conn := range h.groups[roomCode] {
		if id == exceptID {
			continue
		}
		conn.enqueue(data)
	}
}

// unregister removes the connection from the hub and its room group, then
// reports the disconnect to the coordinator. Group removal happens first so
// the coordinator's farewell broadcasts only reach the remaining members.
func (h *Hub) unregister(conn *Conn) {
	h.mu.Lock()
	if current, ok := h.conns[conn.id]; !ok || current != conn {
		h.mu.Unlock()
		return
	}
	delete(h.conns, conn.id)
	for roomCode, members := range h.groups {
		if members[conn.id] == conn {
			delete(members, conn.id)
			if len(members) == 0 {
				delete(h.groups, roomCode)
			}
		}
	}
	h.mu.Unlock()

	conn.close()
	h.logger.Info("disconnected", zap.String("conn", conn.id))

	h.coordinator.Disconnect(conn.id)
}

// handleMessage dispatches one inbound frame. Malformed or unexpected
// frames are ignored: they are expected races, not client errors worth
// tearing a connection down over.
func (h *Hub) handleMessage(conn *Conn, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Debug("ignoring malformed frame", zap.String("conn", conn.id), zap.Error(err))
		return
	}

	switch msg.Type {
	case MsgJoinRoom:
		seq := msg.Seq
		h.coordinator.JoinByCode(conn.id, msg.RoomCode, func(err error) {
			conn.sendAck(seq, err)
		})
	case MsgJoinRandom:
		seq := msg.Seq
		h.coordinator.JoinRandom(conn.id, func(err error) {
			conn.sendAck(seq, err)
		})
	case MsgMove:
		h.coordinator.Move(conn.id, msg.X, msg.Y)
	default:
		h.logger.Debug("ignoring unknown message type",
			zap.String("conn", conn.id),
			zap.String("type", msg.Type),
		)
	}
}

// Stop closes every live connection and reports each one as a disconnect,
// so sessions and spawn points are released even though the connections'
// own unregister path will find them already gone. Closing under the lock
// keeps broadcasts from racing an enqueue against the channel close.
func (h *Hub) Stop() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.conns))
	for id, conn := range h.conns {
		conn.close()
		ids = append(ids, id)
	}
	h.conns = make(map[string]*Conn)
	h.groups = make(map[string]map[string]*Conn)
	h.mu.Unlock()

	for _, id := range ids {
		h.coordinator.Disconnect(id)
	}

	h.logger.Info("hub stopped", zap.Int("closed", len(ids)))
}
