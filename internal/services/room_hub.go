package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const roomChannelPrefix = "room:"

// RoomEvent is the payload relayed between participants of a session room.
type RoomEvent struct {
	Type      string    `json:"type"` // message, joined, left, signal
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	Body      string    `json:"body,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomConn is the minimal interface our WebSocket implementation must satisfy.
type RoomConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type RoomMember struct {
	RoomID string
	UserID string
	conn   RoomConn
	mu     sync.Mutex // one writer at a time per connection
}

func (m *RoomMember) send(event RoomEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conn.WriteJSON(event); err != nil {
		log.Printf("error writing room event to websocket: %v", err)
	}
}

// RoomHub tracks local room connections and relays events between instances over Redis pub/sub.
// Without Redis, events are delivered to local members only.
type RoomHub struct {
	rdb     *redis.Client
	mu      sync.RWMutex
	rooms   map[string]map[*RoomMember]struct{}
	started sync.Once
}

func NewRoomHub(rdb *redis.Client) *RoomHub {
	return &RoomHub{rdb: rdb, rooms: make(map[string]map[*RoomMember]struct{})}
}

func (h *RoomHub) Join(roomID, userID string, conn RoomConn) *RoomMember {
	m := &RoomMember{RoomID: roomID, UserID: userID, conn: conn}
	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*RoomMember]struct{})
	}
	h.rooms[roomID][m] = struct{}{}
	h.mu.Unlock()
	return m
}

func (h *RoomHub) Leave(m *RoomMember) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.rooms[m.RoomID]
	delete(members, m)
	if len(members) == 0 {
		delete(h.rooms, m.RoomID)
	}
}

// MemberCount returns the number of local connections in a room.
func (h *RoomHub) MemberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// FanOut sends an event to all local connections of its room.
func (h *RoomHub) FanOut(event RoomEvent) {
	if event.RoomID == "" {
		return
	}
	h.mu.RLock()
	members := make([]*RoomMember, 0, len(h.rooms[event.RoomID]))
	for m := range h.rooms[event.RoomID] {
		members = append(members, m)
	}
	h.mu.RUnlock()

	for _, m := range members {
		m.send(event)
	}
}

// Publish relays an event to every instance, including this one.
func (h *RoomHub) Publish(ctx context.Context, event RoomEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if h.rdb == nil {
		h.FanOut(event)
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, roomChannelPrefix+event.RoomID, data).Err()
}

// Start ensures a single shared Redis listener per instance.
func (h *RoomHub) Start(ctx context.Context) {
	if h.rdb == nil {
		log.Println("Redis client not initialized; room relay runs in local mode")
		return
	}
	h.started.Do(func() {
		go h.runSubscriber(ctx)
	})
}

func (h *RoomHub) runSubscriber(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := h.rdb.PSubscribe(ctx, roomChannelPrefix+"*")
			defer pubsub.Close()

			log.Println("✅ Room Redis subscriber started (pattern: room:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("Redis room subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event RoomEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal room event: %v", err)
					continue
				}
				event.RoomID = strings.TrimPrefix(msg.Channel, roomChannelPrefix)
				h.FanOut(event)
			}
		}()
	}
}
