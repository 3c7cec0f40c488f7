package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func rawEnvelope(t *testing.T, msgType, data string) Envelope {
	t.Helper()
	return Envelope{Type: msgType, Data: json.RawMessage(data)}
}

func TestDispatchRoutesHitClaim(t *testing.T) {
	h := newTestHub(t)
	room, _, _ := h.JoinRoom("arena", "a", "")
	h.JoinRoom("arena", "b", "")

	env := rawEnvelope(t, cmdHit, `{"targetId":"b","attackerId":"a","damage":10}`)
	if !h.dispatch(room, nil, "a", env) {
		t.Fatalf("well-formed hit claim rejected")
	}
	if got := playerHealth(t, room, "b"); got != playerMaxHealth-10 {
		t.Fatalf("hit not applied: %d", got)
	}
}

func TestDispatchRejectsMalformedVariants(t *testing.T) {
	h := newTestHub(t)
	room, _, _ := h.JoinRoom("arena", "a", "")

	cases := []struct {
		name string
		env  Envelope
	}{
		{"unknown type", rawEnvelope(t, "teleport", `{}`)},
		{"empty payload", rawEnvelope(t, cmdHit, ``)},
		{"bad json", rawEnvelope(t, cmdMove, `{"x":`)},
		{"hit without target", rawEnvelope(t, cmdHit, `{"damage":10}`)},
		{"died without victim", rawEnvelope(t, cmdDied, `{"killerId":"a"}`)},
		{"collect without id", rawEnvelope(t, cmdCollect, `{}`)},
		{"empty name", rawEnvelope(t, cmdSetName, `{"name":""}`)},
	}

	for _, tc := range cases {
		if h.dispatch(room, nil, "a", tc.env) {
			t.Fatalf("%s: malformed variant accepted", tc.name)
		}
	}

	// Room state is untouched by the rejected frames.
	if got := playerHealth(t, room, "a"); got != playerMaxHealth {
		t.Fatalf("malformed frames mutated state: %d", got)
	}
}

func TestDispatchAppliesMove(t *testing.T) {
	h := newTestHub(t)
	room, _, _ := h.JoinRoom("arena", "a", "")

	env := rawEnvelope(t, cmdMove, `{"x":111,"y":222,"angle":0.5,"animation":"walk","flipX":true}`)
	if !h.dispatch(room, nil, "a", env) {
		t.Fatalf("move rejected")
	}

	player := findRosterPlayer(room.Players(), "a")
	if player.X != 111 || player.Y != 222 {
		t.Fatalf("move not applied: %+v", player)
	}
}

func TestDispatchCollect(t *testing.T) {
	h := newTestHub(t)
	room, _, _ := h.JoinRoom("arena", "a", "")
	p := room.SpawnPowerup()

	env := rawEnvelope(t, cmdCollect, `{"powerupId":"`+p.ID+`"}`)
	if !h.dispatch(room, nil, "a", env) {
		t.Fatalf("collect rejected")
	}
	if len(room.Powerups()) != 0 {
		t.Fatalf("powerup not collected")
	}
}

// dialRoomSocket attaches a websocket connection for an already-joined
// player and waits for the initial roster snapshot, which confirms the
// subscription is live before the test proceeds.
func dialRoomSocket(t *testing.T, srv *httptest.Server, roomID, account string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?room=" + roomID + "&id=" + account
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing socket for %s: %v", account, err)
	}
	t.Cleanup(func() { conn.Close() })
	awaitFrame(t, conn, msgState)
	return conn
}

// awaitFrame reads frames until one with the wanted type arrives,
// skipping interleaved state pushes from the tick loop.
func awaitFrame(t *testing.T, conn *websocket.Conn, wanted string) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s frame: %v", wanted, err)
		}
		var frame map[string]any
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("decoding frame: %v", err)
		}
		if frame["type"] == wanted {
			return frame
		}
	}
}

func TestHitSyncBroadcastReachesWholeRoom(t *testing.T) {
	h := newTestHub(t)
	if _, _, err := h.JoinRoom("arena", "a", ""); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	h.JoinRoom("arena", "b", "")
	h.JoinRoom("arena", "c", "")

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	t.Cleanup(srv.Close)

	connA := dialRoomSocket(t, srv, "arena", "a")
	connB := dialRoomSocket(t, srv, "arena", "b")
	connC := dialRoomSocket(t, srv, "arena", "c")

	claim := `{"type":"hit","data":{"targetId":"b","attackerId":"a","damage":10}}`
	if err := connA.WriteMessage(websocket.TextMessage, []byte(claim)); err != nil {
		t.Fatalf("sending hit claim: %v", err)
	}

	// Every member receives the canonical sync, the claimant included.
	for _, member := range []struct {
		name string
		conn *websocket.Conn
	}{
		{"claimant", connA},
		{"target", connB},
		{"bystander", connC},
	} {
		frame := awaitFrame(t, member.conn, msgHitSync)
		if frame["targetId"] != "b" || frame["attackerId"] != "a" {
			t.Fatalf("%s saw wrong sync: %v", member.name, frame)
		}
		if frame["newHealth"] != float64(playerMaxHealth-meleeDamage) {
			t.Fatalf("%s saw newHealth %v", member.name, frame["newHealth"])
		}
	}
}

func TestDeadConnectionIsEvicted(t *testing.T) {
	h := newTestHub(t)
	room, _, err := h.JoinRoom("arena", "a", "")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	h.JoinRoom("arena", "b", "")

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	t.Cleanup(srv.Close)

	dialRoomSocket(t, srv, "arena", "a")
	connB := dialRoomSocket(t, srv, "arena", "b")

	connB.Close()

	deadline := time.Now().Add(3 * time.Second)
	for findRosterPlayer(room.Players(), "b") != nil {
		if time.Now().After(deadline) {
			t.Fatalf("dead connection not evicted from roster")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if findRosterPlayer(room.Players(), "a") == nil {
		t.Fatalf("surviving player dropped with the dead connection")
	}
}

func TestHeartbeatAckOverSocket(t *testing.T) {
	h := newTestHub(t)
	if _, _, err := h.JoinRoom("arena", "a", ""); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	t.Cleanup(srv.Close)

	conn := dialRoomSocket(t, srv, "arena", "a")
	beat := `{"type":"heartbeat","data":{"sentAt":1}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(beat)); err != nil {
		t.Fatalf("sending heartbeat: %v", err)
	}

	frame := awaitFrame(t, conn, msgHeartbeat)
	if frame["ver"] != float64(ProtocolVersion) {
		t.Fatalf("heartbeat ack missing protocol version: %v", frame)
	}
	if frame["clientTime"] != float64(1) {
		t.Fatalf("heartbeat ack did not echo client time: %v", frame)
	}
}
