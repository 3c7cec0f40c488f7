package server

import (
	"context"
	"fmt"
	"time"

	"arena-brawl/server/logging/lifecycle"
)

// run drives the room on a fixed cadence until shutdown. Each tick
// advances the game clock, spawns powerups on the 10 s cadence, sweeps
// expired ones, evicts stale connections, and pushes a roster snapshot.
func (r *Room) run(tickRate int) {
	if tickRate <= 0 {
		tickRate = defaultTickRate
	}
	interval := time.Second / time.Duration(tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := r.now()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			now := r.now()
			delta := now.Sub(last)
			if delta <= 0 {
				delta = interval
			}
			last = now
			r.tick(now, delta)
		}
	}
}

// tick is one scheduled update. A failing tick is logged and skipped; it
// never crashes the loop or stalls other rooms' schedules.
func (r *Room) tick(now time.Time, delta time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			r.mu.Lock()
			tick := r.tickCount
			r.mu.Unlock()
			lifecycle.TickFailure(context.Background(), r.publish, tick, r.id, fmt.Sprint(rec))
		}
	}()

	r.mu.Lock()
	r.tickCount++
	r.gameTime += delta.Milliseconds()
	spawnDue := r.initialized && now.Sub(r.lastPowerupSpawn) > powerupSpawnInterval

	var stale []string
	for account, state := range r.players {
		if now.Sub(state.lastHeartbeat) > disconnectAfter {
			stale = append(stale, account)
		}
	}
	r.mu.Unlock()

	for _, account := range stale {
		r.evict(account)
	}

	if spawnDue {
		r.SpawnPowerup()
	}
	r.sweepExpiredPowerups(now)
	r.broadcastState()
}

// updateHeartbeat records liveness and derives a round-trip estimate from
// the client-sent timestamp.
func (r *Room) updateHeartbeat(account string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.players[account]
	if !ok {
		return 0, false
	}

	state.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			state.lastRTT = rtt
		}
	}

	return state.lastRTT, true
}
