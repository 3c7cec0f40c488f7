package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arena-brawl/server/logging/network"
)

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// send serializes writes to the connection. Hit syncs for a target are
// produced under the room lock and written through this single path, so
// every member observes the same relative order.
func (s *subscriber) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWS upgrades the connection and attaches it to a joined player.
// The client must have joined over HTTP first; unknown accounts are
// refused with a policy-violation close.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	account := r.URL.Query().Get("id")
	if roomID == "" || account == "" {
		http.Error(w, "missing room or id", http.StatusBadRequest)
		return
	}

	room, ok := h.Room(roomID)
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		network.Disconnected(r.Context(), h.publish, roomID, account, "upgrade failed")
		return
	}

	sub := &subscriber{conn: conn}
	if !room.subscribe(account, sub) {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown player")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	room.mu.Lock()
	initial := StateMessage{
		Ver:        ProtocolVersion,
		Type:       msgState,
		Players:    room.snapshotLocked(),
		GameTime:   room.gameTime,
		ServerTime: room.now().UnixMilli(),
	}
	room.mu.Unlock()

	if data, err := json.Marshal(initial); err == nil {
		if err := sub.send(data); err != nil {
			h.LeaveRoom(roomID, account)
			return
		}
	}

	h.readLoop(room, sub, account)
}

// readLoop decodes client frames and routes them to room operations.
// Malformed frames are discarded with a diagnostic; they never tear down
// the connection or destabilize room state.
func (h *Hub) readLoop(room *Room, sub *subscriber, account string) {
	ctx := context.Background()
	for {
		_, payload, err := sub.conn.ReadMessage()
		if err != nil {
			network.Disconnected(ctx, h.publish, room.id, account, "read failed")
			h.LeaveRoom(room.id, account)
			return
		}

		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			network.MalformedMessage(ctx, h.publish, room.id, account, "bad envelope")
			continue
		}

		if !h.dispatch(room, sub, account, env) {
			network.MalformedMessage(ctx, h.publish, room.id, account, "bad payload for "+env.Type)
		}
	}
}

// dispatch routes one decoded envelope. It reports false when the payload
// does not decode into the command's variant.
func (h *Hub) dispatch(room *Room, sub *subscriber, account string, env Envelope) bool {
	switch env.Type {
	case cmdMove:
		var cmd MoveCommand
		if !decode(env.Data, &cmd) {
			return false
		}
		room.UpdatePlayerPosition(account, cmd)
	case cmdAnimation:
		var cmd AnimationCommand
		if !decode(env.Data, &cmd) {
			return false
		}
		room.UpdatePlayerAnimation(account, cmd.Animation, cmd.FlipX)
	case cmdAttack:
		var cmd AttackCommand
		if !decode(env.Data, &cmd) {
			return false
		}
		room.PlayerAttack(account, cmd)
	case cmdFire:
		var cmd FireCommand
		if !decode(env.Data, &cmd) {
			return false
		}
		room.FireProjectile(account, cmd)
	case cmdHit:
		var cmd HitCommand
		if !decode(env.Data, &cmd) || cmd.TargetID == "" {
			return false
		}
		room.PlayerHit(cmd)
	case cmdHitSync:
		var cmd HitSyncCommand
		if !decode(env.Data, &cmd) || cmd.TargetID == "" {
			return false
		}
		room.BroadcastHitSync(cmd)
	case cmdDied:
		var cmd DiedCommand
		if !decode(env.Data, &cmd) || cmd.PlayerID == "" {
			return false
		}
		room.PlayerDied(cmd)
	case cmdRespawn:
		var cmd RespawnCommand
		if !decode(env.Data, &cmd) {
			return false
		}
		room.RespawnPlayer(account, cmd)
	case cmdCollect:
		var cmd CollectCommand
		if !decode(env.Data, &cmd) || cmd.PowerupID == "" {
			return false
		}
		room.CollectPowerup(cmd.PowerupID)
	case cmdSetName:
		var cmd SetNameCommand
		if !decode(env.Data, &cmd) || cmd.Name == "" {
			return false
		}
		room.SetPlayerData(account, cmd.Name)
	case cmdHeartbeat:
		var cmd HeartbeatCommand
		if !decode(env.Data, &cmd) {
			return false
		}
		now := room.now()
		rtt, ok := room.updateHeartbeat(account, now, cmd.SentAt)
		if !ok {
			return true
		}
		ack := HeartbeatMessage{
			Ver:        ProtocolVersion,
			Type:       msgHeartbeat,
			ServerTime: now.UnixMilli(),
			ClientTime: cmd.SentAt,
			RTTMillis:  rtt.Milliseconds(),
		}
		if data, err := json.Marshal(ack); err == nil {
			sub.send(data)
		}
	default:
		return false
	}
	return true
}

func decode(data json.RawMessage, dst any) bool {
	if len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}
