package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"arena-brawl/server/logging"
	"arena-brawl/server/logging/lifecycle"
)

// Hub is the room registry. Rooms are created on first join (with a
// requested id or a fresh UUID), ticked independently, and torn down when
// the last member leaves.
type Hub struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	nextID   atomic.Uint64
	tickRate int
	publish  logging.Publisher
	started  time.Time
}

type HubOption func(*Hub)

// WithTickRate overrides the per-room tick cadence, in ticks per second.
func WithTickRate(rate int) HubOption {
	return func(h *Hub) {
		if rate > 0 {
			h.tickRate = rate
		}
	}
}

// WithPublisher routes simulation events to the given publisher.
func WithPublisher(pub logging.Publisher) HubOption {
	return func(h *Hub) {
		if pub != nil {
			h.publish = pub
		}
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		rooms:    make(map[string]*Room),
		tickRate: defaultTickRate,
		publish:  logging.NopPublisher(),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NextAccount mints a hub-unique account identifier.
func (h *Hub) NextAccount() string {
	return fmt.Sprintf("player-%d", h.nextID.Add(1))
}

// JoinRoom joins the account into the requested room, creating it when
// needed. An empty roomID creates a room with a generated id. Joins
// against a full room fail with RoomFullError and leave membership
// unchanged.
func (h *Hub) JoinRoom(roomID, account, name string) (*Room, JoinedMessage, error) {
	for {
		room := h.getOrCreateRoom(roomID)

		msg, err := room.join(account, name)
		if errors.Is(err, errRoomClosed) {
			// Teardown won the race; retry against a fresh room.
			continue
		}
		if err != nil {
			return nil, JoinedMessage{}, err
		}
		return room, msg, nil
	}
}

func (h *Hub) getOrCreateRoom(roomID string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if roomID != "" {
		if room, ok := h.rooms[roomID]; ok {
			return room
		}
	} else {
		roomID = uuid.NewString()
	}

	room := newRoom(roomID, h.publish)
	room.evict = func(account string) {
		h.LeaveRoom(roomID, account)
	}
	h.rooms[roomID] = room
	go room.run(h.tickRate)

	lifecycle.RoomCreated(context.Background(), h.publish, roomID)
	return room
}

// LeaveRoom drops the account from the room. The last leave stops the
// tick loop and removes the room from the registry. Other players' state
// is untouched.
func (h *Hub) LeaveRoom(roomID, account string) bool {
	h.mu.Lock()
	room, ok := h.rooms[roomID]
	h.mu.Unlock()
	if !ok {
		return false
	}

	emptied := room.remove(account)
	if emptied {
		room.shutdown()
		h.mu.Lock()
		if h.rooms[roomID] == room {
			delete(h.rooms, roomID)
		}
		h.mu.Unlock()
		lifecycle.RoomClosed(context.Background(), h.publish, roomID)
	}
	return true
}

// Room looks up a live room by id.
func (h *Hub) Room(roomID string) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[roomID]
	return room, ok
}

// RoomCount reports the number of live rooms.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Shutdown stops every room's tick loop.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.rooms = make(map[string]*Room)
	h.mu.Unlock()

	for _, room := range rooms {
		room.shutdown()
	}
}

type RoomDiagnostics struct {
	ID       string `json:"id"`
	Players  int    `json:"players"`
	Powerups int    `json:"powerups"`
	GameTime int64  `json:"gameTime"`
}

type HubDiagnostics struct {
	ServerTime    int64             `json:"serverTime"`
	UptimeSeconds int64             `json:"uptimeSeconds"`
	TickRate      int               `json:"tickRate"`
	Rooms         []RoomDiagnostics `json:"rooms"`
}

// DiagnosticsSnapshot summarizes every live room for the diagnostics
// endpoint.
func (h *Hub) DiagnosticsSnapshot() HubDiagnostics {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.Unlock()

	diag := HubDiagnostics{
		ServerTime:    time.Now().UnixMilli(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		TickRate:      h.tickRate,
		Rooms:         make([]RoomDiagnostics, 0, len(rooms)),
	}
	for _, room := range rooms {
		room.mu.Lock()
		diag.Rooms = append(diag.Rooms, RoomDiagnostics{
			ID:       room.id,
			Players:  len(room.players),
			Powerups: len(room.powerups),
			GameTime: room.gameTime,
		})
		room.mu.Unlock()
	}
	return diag
}
