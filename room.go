package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"arena-brawl/server/logging"
	"arena-brawl/server/logging/lifecycle"
)

// errRoomClosed signals that a join raced with room teardown; the hub
// retries against a fresh room.
var errRoomClosed = errors.New("room closed")

// Room owns one match instance: roster, subscribers, obstacles, powerups,
// and the accumulated game clock. Every mutation happens under the room
// mutex; no lock is ever held across a network write.
type Room struct {
	id string

	mu               sync.Mutex
	closed           bool
	initialized      bool
	tickCount        uint64
	gameTime         int64 // accumulated milliseconds
	obstacles        []Obstacle
	powerups         map[string]Powerup
	lastPowerupSpawn time.Time
	players          map[string]*playerState
	subscribers      map[string]*subscriber
	powerupSeq       uint64
	rng              *rand.Rand

	stop     chan struct{}
	stopOnce sync.Once

	clock   func() time.Time
	publish logging.Publisher
	evict   func(account string)
}

func newRoom(id string, pub logging.Publisher) *Room {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Room{
		id:          id,
		powerups:    make(map[string]Powerup),
		players:     make(map[string]*playerState),
		subscribers: make(map[string]*subscriber),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		stop:        make(chan struct{}),
		clock:       time.Now,
		publish:     pub,
		evict:       func(string) {},
	}
}

func (r *Room) ID() string {
	return r.id
}

func (r *Room) now() time.Time {
	return r.clock()
}

// ensureInitializedLocked performs first-time room setup. It runs under
// the room mutex, so concurrent first joins cannot double-generate the
// obstacle layout.
func (r *Room) ensureInitializedLocked(now time.Time) {
	if r.initialized {
		return
	}
	r.obstacles = generateObstacles(r.rng, defaultObstacleCount)
	r.gameTime = 0
	r.powerups = make(map[string]Powerup)
	r.lastPowerupSpawn = now
	r.initialized = true
}

// join seeds a fresh player and returns the joined payload. It fails with
// RoomFullError at capacity and errRoomClosed when teardown won the race.
func (r *Room) join(account, name string) (JoinedMessage, error) {
	now := r.now()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return JoinedMessage{}, errRoomClosed
	}
	if len(r.players) >= roomCapacity {
		r.mu.Unlock()
		return JoinedMessage{}, &RoomFullError{RoomID: r.id}
	}

	r.ensureInitializedLocked(now)

	x, y := randomSpawnPoint(r.rng)
	r.players[account] = &playerState{
		Player: Player{
			Account:   account,
			X:         x,
			Y:         y,
			Health:    playerMaxHealth,
			Name:      name,
			Animation: AnimationIdle,
		},
		lastHeartbeat: now,
	}

	msg := JoinedMessage{
		Ver:       ProtocolVersion,
		Type:      msgJoined,
		RoomID:    r.id,
		Account:   account,
		Players:   r.snapshotLocked(),
		Obstacles: r.obstacles,
		Powerups:  r.powerupsLocked(),
		GameTime:  r.gameTime,
	}
	tick := r.tickCount
	r.mu.Unlock()

	lifecycle.PlayerJoined(context.Background(), r.publish, tick, r.id, account)
	go r.broadcastState()

	return msg, nil
}

// remove drops the account from the roster. The returned flag reports
// whether this call emptied the room; in that case the room is marked
// closed under the same lock, so later joins retry against a new room.
func (r *Room) remove(account string) (emptied bool) {
	r.mu.Lock()
	sub, subOK := r.subscribers[account]
	if subOK {
		delete(r.subscribers, account)
	}
	_, playerOK := r.players[account]
	if playerOK {
		delete(r.players, account)
	}
	emptied = playerOK && len(r.players) == 0
	if emptied {
		r.closed = true
	}
	tick := r.tickCount
	r.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
	if !playerOK {
		return emptied
	}

	lifecycle.PlayerLeft(context.Background(), r.publish, tick, r.id, account)
	if !emptied {
		r.broadcast(PlayerLeftMessage{Ver: ProtocolVersion, Type: msgPlayerLeft, Account: account})
	}
	return emptied
}

// shutdown stops the tick loop. Safe to call more than once.
func (r *Room) shutdown() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

func (r *Room) playerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Obstacles returns the immutable layout generated at initialization.
func (r *Room) Obstacles() []Obstacle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Obstacle, len(r.obstacles))
	copy(out, r.obstacles)
	return out
}

// GameTime reports the accumulated game clock in milliseconds.
func (r *Room) GameTime() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameTime
}

func (r *Room) snapshotLocked() []Player {
	players := make([]Player, 0, len(r.players))
	for _, state := range r.players {
		players = append(players, state.snapshot())
	}
	return players
}

func (r *Room) powerupsLocked() []Powerup {
	if len(r.powerups) == 0 {
		return nil
	}
	out := make([]Powerup, 0, len(r.powerups))
	for _, p := range r.powerups {
		out = append(out, p)
	}
	return out
}

// Players returns a point-in-time roster snapshot.
func (r *Room) Players() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// subscribe attaches a websocket connection to an existing member,
// replacing any previous connection for the same account.
func (r *Room) subscribe(account string, sub *subscriber) bool {
	r.mu.Lock()
	state, ok := r.players[account]
	if !ok || r.closed {
		r.mu.Unlock()
		return false
	}
	state.lastHeartbeat = r.now()
	existing := r.subscribers[account]
	r.subscribers[account] = sub
	r.mu.Unlock()

	if existing != nil {
		existing.conn.Close()
	}
	return true
}

// broadcast fans a payload out to every subscriber. Failed writes evict
// the subscriber through the hub so the roster stays consistent.
func (r *Room) broadcast(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("room %s: failed to marshal broadcast: %v", r.id, err)
		return
	}

	r.mu.Lock()
	subs := make(map[string]*subscriber, len(r.subscribers))
	for account, sub := range r.subscribers {
		subs[account] = sub
	}
	r.mu.Unlock()

	for account, sub := range subs {
		if err := sub.send(data); err != nil {
			log.Printf("room %s: dropping %s after failed send: %v", r.id, account, err)
			r.evict(account)
		}
	}
}

// broadcastState pushes a full roster snapshot to every subscriber.
func (r *Room) broadcastState() {
	r.mu.Lock()
	msg := StateMessage{
		Ver:        ProtocolVersion,
		Type:       msgState,
		Players:    r.snapshotLocked(),
		GameTime:   r.gameTime,
		ServerTime: r.now().UnixMilli(),
	}
	r.mu.Unlock()

	r.broadcast(msg)
}

// SpawnPowerup creates one powerup and announces it to the room. Exposed
// for testability; normally the tick loop drives the cadence.
func (r *Room) SpawnPowerup() Powerup {
	now := r.now()

	r.mu.Lock()
	r.powerupSeq++
	p := rollPowerup(r.rng, now, r.powerupSeq)
	r.powerups[p.ID] = p
	r.lastPowerupSpawn = now
	tick := r.tickCount
	r.mu.Unlock()

	lifecycle.PowerupSpawned(context.Background(), r.publish, tick, r.id, p.ID, string(p.Type))
	r.broadcast(PowerupSpawnedMessage{Ver: ProtocolVersion, Type: msgPowerupSpawned, Powerup: p})
	return p
}

// CollectPowerup removes the entity so other clients stop rendering it.
// An absent id is an expected race and a no-op.
func (r *Room) CollectPowerup(powerupID string) error {
	r.mu.Lock()
	_, ok := r.powerups[powerupID]
	if ok {
		delete(r.powerups, powerupID)
	}
	tick := r.tickCount
	r.mu.Unlock()

	if !ok {
		return errPowerupNotFound(powerupID)
	}

	lifecycle.PowerupRemoved(context.Background(), r.publish, tick, r.id, powerupID, "collected")
	r.broadcast(PowerupRemovedMessage{Ver: ProtocolVersion, Type: msgPowerupRemoved, PowerupID: powerupID})
	return nil
}

// sweepExpiredPowerups drops entries past their lifetime. Repeated sweeps
// are idempotent.
func (r *Room) sweepExpiredPowerups(now time.Time) []string {
	r.mu.Lock()
	var expired []string
	for id, p := range r.powerups {
		if p.expired(now) {
			expired = append(expired, id)
			delete(r.powerups, id)
		}
	}
	tick := r.tickCount
	r.mu.Unlock()

	for _, id := range expired {
		lifecycle.PowerupRemoved(context.Background(), r.publish, tick, r.id, id, "expired")
		r.broadcast(PowerupRemovedMessage{Ver: ProtocolVersion, Type: msgPowerupRemoved, PowerupID: id})
	}
	return expired
}

// Powerups returns the active set, for diagnostics and tests.
func (r *Room) Powerups() []Powerup {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.powerupsLocked()
}
