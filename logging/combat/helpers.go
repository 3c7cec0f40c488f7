package combat

import (
	"context"

	"arena-brawl/server/logging"
)

const (
	// EventDamage is emitted when a hit claim lands on a target.
	EventDamage logging.EventType = "combat.damage"
	// EventDefeat is emitted when a death report credits a killer.
	EventDefeat logging.EventType = "combat.defeat"
	// EventRespawn is emitted when a player resets after death.
	EventRespawn logging.EventType = "combat.respawn"
)

// DamagePayload captures the amount dealt and the resulting health.
type DamagePayload struct {
	Amount       int `json:"amount"`
	TargetHealth int `json:"targetHealth"`
}

// Damage publishes a combat damage event for a single target.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, roomID, attacker, target string, amount, targetHealth int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDamage,
		Room:     roomID,
		Tick:     tick,
		Actor:    logging.PlayerRef(attacker),
		Targets:  []logging.EntityRef{logging.PlayerRef(target)},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  DamagePayload{Amount: amount, TargetHealth: targetHealth},
	})
}

// Defeat publishes a combat defeat event crediting the killer.
func Defeat(ctx context.Context, pub logging.Publisher, tick uint64, roomID, killer, victim string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDefeat,
		Room:     roomID,
		Tick:     tick,
		Actor:    logging.PlayerRef(killer),
		Targets:  []logging.EntityRef{logging.PlayerRef(victim)},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
	})
}

// Respawn publishes a respawn event for the reset player.
func Respawn(ctx context.Context, pub logging.Publisher, tick uint64, roomID, account string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRespawn,
		Room:     roomID,
		Tick:     tick,
		Actor:    logging.PlayerRef(account),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
	})
}
