package server

import (
	"context"

	combatlog "arena-brawl/server/logging/combat"
)

// Combat routing. Each operation is one lock-held mutation of the
// authoritative record followed by a room-wide rebroadcast; collision
// detection itself lives in the presentation layer, which reports the
// resulting hit claims here.

// SetPlayerData updates the caller's display name.
func (r *Room) SetPlayerData(account, name string) error {
	r.mu.Lock()
	state, ok := r.players[account]
	if ok {
		state.Name = name
	}
	r.mu.Unlock()

	if !ok {
		return errPlayerNotFound(account)
	}
	return nil
}

// UpdatePlayerPosition applies a movement report from the owning client.
func (r *Room) UpdatePlayerPosition(account string, cmd MoveCommand) error {
	anim, validAnim := parseAnimation(cmd.Animation)

	r.mu.Lock()
	state, ok := r.players[account]
	if ok {
		state.X = cmd.X
		state.Y = cmd.Y
		state.Angle = cmd.Angle
		state.FlipX = cmd.FlipX
		if validAnim {
			state.Animation = anim
		}
	}
	r.mu.Unlock()

	if !ok {
		return errPlayerNotFound(account)
	}
	return nil
}

// UpdatePlayerAnimation writes the caller's animation tag and rebroadcasts
// it verbatim.
func (r *Room) UpdatePlayerAnimation(account string, animation string, flipX bool) error {
	anim, validAnim := parseAnimation(animation)

	r.mu.Lock()
	state, ok := r.players[account]
	if ok && validAnim {
		state.Animation = anim
		state.FlipX = flipX
	}
	r.mu.Unlock()

	if !ok {
		return errPlayerNotFound(account)
	}

	// Forwarded as-is; only recognized tags are written to state.
	r.broadcast(AnimationMessage{
		Ver:       ProtocolVersion,
		Type:      msgAnimation,
		PlayerID:  account,
		Animation: Animation(animation),
		FlipX:     flipX,
	})
	return nil
}

// PlayerAttack stamps the owner and relays the melee swing. No health is
// mutated here; contact detection later arrives as a hit claim.
func (r *Room) PlayerAttack(account string, cmd AttackCommand) {
	r.broadcast(AttackMessage{
		Ver:       ProtocolVersion,
		Type:      msgAttack,
		OwnerID:   account,
		X:         cmd.X,
		Y:         cmd.Y,
		Direction: cmd.Direction,
	})
}

// FireProjectile is a pure relay; the server does not simulate
// trajectories or collisions.
func (r *Room) FireProjectile(account string, cmd FireCommand) {
	r.broadcast(ProjectileMessage{
		Ver:     ProtocolVersion,
		Type:    msgProjectile,
		ID:      cmd.ID,
		OwnerID: account,
		X:       cmd.X,
		Y:       cmd.Y,
		TargetX: cmd.TargetX,
		TargetY: cmd.TargetY,
	})
}

// PlayerHit applies a damage claim against the target's authoritative
// health and broadcasts the canonical hit sync to the whole room,
// including the claimant. An absent target is an expected race.
func (r *Room) PlayerHit(cmd HitCommand) error {
	timestamp := cmd.Timestamp
	if timestamp == 0 {
		timestamp = r.now().UnixMilli()
	}

	r.mu.Lock()
	state, ok := r.players[cmd.TargetID]
	var newHealth int
	if ok {
		newHealth = state.Health - cmd.Damage
		if newHealth < 0 {
			newHealth = 0
		}
		state.Health = newHealth
	}
	tick := r.tickCount
	r.mu.Unlock()

	if !ok {
		return errPlayerNotFound(cmd.TargetID)
	}

	r.logDamage(tick, cmd.AttackerID, cmd.TargetID, cmd.Damage, newHealth)
	r.broadcast(HitSyncMessage{
		Ver:        ProtocolVersion,
		Type:       msgHitSync,
		TargetID:   cmd.TargetID,
		AttackerID: cmd.AttackerID,
		Damage:     cmd.Damage,
		NewHealth:  newHealth,
		Timestamp:  timestamp,
	})
	return nil
}

// BroadcastHitSync relays a hit sync whose newHealth was computed by the
// claimant. The value is clamped to the legal range and written to the
// authoritative record before rebroadcast, so a stray payload cannot push
// health outside [0, max].
func (r *Room) BroadcastHitSync(cmd HitSyncCommand) error {
	timestamp := cmd.Timestamp
	if timestamp == 0 {
		timestamp = r.now().UnixMilli()
	}

	newHealth := cmd.NewHealth
	if newHealth < 0 {
		newHealth = 0
	}
	if newHealth > playerMaxHealth {
		newHealth = playerMaxHealth
	}

	r.mu.Lock()
	state, ok := r.players[cmd.TargetID]
	if ok {
		state.Health = newHealth
	}
	tick := r.tickCount
	r.mu.Unlock()

	if !ok {
		return errPlayerNotFound(cmd.TargetID)
	}

	r.logDamage(tick, cmd.AttackerID, cmd.TargetID, cmd.Damage, newHealth)
	r.broadcast(HitSyncMessage{
		Ver:        ProtocolVersion,
		Type:       msgHitSync,
		TargetID:   cmd.TargetID,
		AttackerID: cmd.AttackerID,
		Damage:     cmd.Damage,
		NewHealth:  newHealth,
		Timestamp:  timestamp,
	})
	return nil
}

// PlayerDied credits the kill. The server does not deduplicate repeated
// reports for the same death; the presentation layer calls this exactly
// once per observed death.
func (r *Room) PlayerDied(cmd DiedCommand) error {
	if cmd.KillerID == "" || cmd.KillerID == cmd.PlayerID {
		return nil
	}

	r.mu.Lock()
	killer, ok := r.players[cmd.KillerID]
	if ok {
		killer.Score++
	}
	tick := r.tickCount
	r.mu.Unlock()

	if !ok {
		return errPlayerNotFound(cmd.KillerID)
	}

	r.logDefeat(tick, cmd.KillerID, cmd.PlayerID)
	return nil
}

// RespawnPlayer resets the caller and announces the respawn so clients
// clear their confirmed-dead tracking for the account.
func (r *Room) RespawnPlayer(account string, cmd RespawnCommand) error {
	r.mu.Lock()
	state, ok := r.players[account]
	if ok {
		state.Health = playerMaxHealth
		state.X = cmd.X
		state.Y = cmd.Y
		state.Animation = AnimationIdle
	}
	tick := r.tickCount
	r.mu.Unlock()

	if !ok {
		return errPlayerNotFound(account)
	}

	combatlog.Respawn(context.Background(), r.publish, tick, r.id, account)
	r.broadcast(RespawnMessage{
		Ver:     ProtocolVersion,
		Type:    msgRespawn,
		Account: account,
		X:       cmd.X,
		Y:       cmd.Y,
		Health:  playerMaxHealth,
	})
	return nil
}

func (r *Room) logDamage(tick uint64, attacker, target string, damage, newHealth int) {
	combatlog.Damage(context.Background(), r.publish, tick, r.id, attacker, target, damage, newHealth)
}

func (r *Room) logDefeat(tick uint64, killer, victim string) {
	combatlog.Defeat(context.Background(), r.publish, tick, r.id, killer, victim)
}
