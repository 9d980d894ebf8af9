package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	roomReadLimit    = 64 * 1024
	roomPongWait     = 90 * time.Second
	roomPingInterval = 30 * time.Second
	roomMaxBody      = 4000
)

type roomResolver interface {
	RoomSession(ctx context.Context, caller *services.Principal, roomID string) (*models.Session, error)
}

type roomRelay interface {
	Join(roomID, userID string, conn services.RoomConn) *services.RoomMember
	Leave(m *services.RoomMember)
	Publish(ctx context.Context, event services.RoomEvent) error
}

// roomClientMessage is what participants send over the socket.
type roomClientMessage struct {
	Type    string          `json:"type"` // message, signal, ping
	Body    string          `json:"body,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RoomHandler struct {
	sessions roomResolver
	hub      roomRelay
	upgrader websocket.Upgrader
}

// NewRoomHandler builds the session room gateway. Upgrades are accepted from allowedOrigins only;
// requests without an Origin header (non-browser clients) are allowed.
func NewRoomHandler(sessions roomResolver, hub roomRelay, allowedOrigins []string) *RoomHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.ToLower(strings.TrimSpace(o))] = true
	}
	return &RoomHandler{
		sessions: sessions,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[strings.ToLower(origin)]
			},
		},
	}
}

// Connect handles GET /ws/rooms/{roomID}. Only the client and therapist of a confirmed
// session may join its room.
func (h *RoomHandler) Connect(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	roomID := chi.URLParam(r, "roomID")
	if _, err := h.sessions.RoomSession(r.Context(), p, roomID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	userID := p.UserID.Hex()
	role := string(p.Role)
	member := h.hub.Join(roomID, userID, conn)
	defer func() {
		h.hub.Leave(member)
		_ = h.hub.Publish(context.Background(), services.RoomEvent{Type: "left", RoomID: roomID, SenderID: userID, Role: role})
	}()
	_ = h.hub.Publish(ctx, services.RoomEvent{Type: "joined", RoomID: roomID, SenderID: userID, Role: role})

	go keepAlive(ctx, conn)

	conn.SetReadLimit(roomReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(roomPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(roomPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg roomClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		event := services.RoomEvent{RoomID: roomID, SenderID: userID, Role: role}
		switch msg.Type {
		case "message":
			body := strings.TrimSpace(msg.Body)
			if body == "" || len(body) > roomMaxBody {
				continue
			}
			event.Type = "message"
			event.Body = body
		case "signal":
			if len(msg.Payload) == 0 {
				continue
			}
			event.Type = "signal"
			event.Payload = msg.Payload
		case "ping":
			_ = conn.SetReadDeadline(time.Now().Add(roomPongWait))
			continue
		default:
			continue
		}
		if err := h.hub.Publish(ctx, event); err != nil {
			log.Printf("⚠️  Failed to relay room event in %s: %v", roomID, err)
		}
	}
}

// keepAlive pings until ctx ends. WriteControl may run concurrently with other writes.
func keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(roomPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
