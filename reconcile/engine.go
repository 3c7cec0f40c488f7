// Package reconcile merges a client's locally-predicted combat state with
// server-broadcast authoritative updates. The presentation layer applies
// damage optimistically the moment it detects an overlap; the engine then
// folds the server's hit syncs and roster snapshots into that local view,
// preferring very recent local values over older or simultaneous server
// values and deferring to the server otherwise.
package reconcile

import "log"

// snapshotPreferenceWindow is how long a locally-tracked health value
// outranks a full-roster snapshot, in milliseconds. Snapshots can lag the
// client's own very recent damage by up to this much.
const snapshotPreferenceWindow = 2000

// HitSync is the canonical post-damage record broadcast by the server.
type HitSync struct {
	TargetID   string
	AttackerID string
	Damage     int
	NewHealth  int
	Timestamp  int64
}

// PlayerView is one roster entry from a full-room snapshot.
type PlayerView struct {
	Account string
	Health  int
}

// Engine holds one client's reconciliation state for one observed room.
// It is owned by the per-frame update loop and is not safe for concurrent
// use; incoming broadcasts are queued by the transport and applied one
// message at a time.
type Engine struct {
	self string

	lastKnownHealth map[string]int
	healthStamps    map[string]int64
	dead            map[string]struct{}

	logf func(format string, args ...any)
}

// New creates an engine for the client owning selfAccount.
func New(selfAccount string) *Engine {
	return &Engine{
		self:            selfAccount,
		lastKnownHealth: make(map[string]int),
		healthStamps:    make(map[string]int64),
		dead:            make(map[string]struct{}),
		logf:            log.Printf,
	}
}

// Health reports the engine's current belief for the account.
func (e *Engine) Health(account string) (int, bool) {
	health, ok := e.lastKnownHealth[account]
	return health, ok
}

// IsDead reports whether the account is in the confirmed-dead set.
func (e *Engine) IsDead(account string) bool {
	_, dead := e.dead[account]
	return dead
}

// ApplyHitSync folds a server hit sync into the local view and returns
// the resolved health for the target. The local player's own health is
// accepted unconditionally; a remote account's update is accepted only
// when its timestamp is strictly newer than the recorded local belief,
// otherwise it is stale relative to a more recent prediction and is
// discarded.
func (e *Engine) ApplyHitSync(msg HitSync) int {
	if msg.TargetID == "" {
		e.logf("reconcile: dropping hit sync with empty target")
		return 0
	}

	if e.IsDead(msg.TargetID) {
		return 0
	}

	if msg.TargetID != e.self {
		if stamp, ok := e.healthStamps[msg.TargetID]; ok && msg.Timestamp <= stamp {
			if current, ok := e.lastKnownHealth[msg.TargetID]; ok {
				return current
			}
			return msg.NewHealth
		}
	}

	return e.record(msg.TargetID, msg.NewHealth, msg.Timestamp)
}

// PredictHit applies a locally-detected hit before server confirmation.
// The predicted value is written immediately so combat feedback is not
// delayed by a round trip.
func (e *Engine) PredictHit(account string, newHealth int, timestamp int64) int {
	if e.IsDead(account) {
		return 0
	}
	return e.record(account, newHealth, timestamp)
}

// ApplySnapshot folds a full-roster snapshot into the local view and
// returns the resolved health per account. Accounts absent from the
// roster are purged from all tracking maps. now is the client clock in
// unix milliseconds.
func (e *Engine) ApplySnapshot(players []PlayerView, now int64) map[string]int {
	roster := make(map[string]struct{}, len(players))
	resolved := make(map[string]int, len(players))

	for _, p := range players {
		roster[p.Account] = struct{}{}
		resolved[p.Account] = e.applySnapshotEntry(p, now)
	}

	for account := range e.lastKnownHealth {
		if _, present := roster[account]; !present {
			e.Forget(account)
		}
	}
	for account := range e.dead {
		if _, present := roster[account]; !present {
			e.Forget(account)
		}
	}

	return resolved
}

func (e *Engine) applySnapshotEntry(p PlayerView, now int64) int {
	if e.IsDead(p.Account) {
		return 0
	}

	if p.Account != e.self {
		if stamp, ok := e.healthStamps[p.Account]; ok && now-stamp < snapshotPreferenceWindow {
			// The snapshot may lag our own very recent damage; keep the
			// local belief.
			return e.lastKnownHealth[p.Account]
		}
	}

	return e.record(p.Account, p.Health, now)
}

// record writes a belief and handles the terminal transition to dead.
func (e *Engine) record(account string, health int, timestamp int64) int {
	if health < 0 {
		health = 0
	}
	e.lastKnownHealth[account] = health
	e.healthStamps[account] = timestamp
	if health <= 0 {
		e.dead[account] = struct{}{}
	}
	return health
}

// ApplyRespawn clears the confirmed-dead state for the account. This is
// the only way out of the dead set; older or slower updates arriving
// after a death can never resurrect a player implicitly.
func (e *Engine) ApplyRespawn(account string, health int, timestamp int64) {
	delete(e.dead, account)
	if health < 0 {
		health = 0
	}
	e.lastKnownHealth[account] = health
	e.healthStamps[account] = timestamp
}

// Forget purges all tracking for a departed account.
func (e *Engine) Forget(account string) {
	delete(e.lastKnownHealth, account)
	delete(e.healthStamps, account)
	delete(e.dead, account)
}

// Reset tears down all per-room tracking; call on room leave.
func (e *Engine) Reset() {
	e.lastKnownHealth = make(map[string]int)
	e.healthStamps = make(map[string]int64)
	e.dead = make(map[string]struct{})
}
