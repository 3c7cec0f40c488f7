package lifecycle

import (
	"context"

	"arena-brawl/server/logging"
)

const (
	// EventRoomCreated is emitted when a room is registered.
	EventRoomCreated logging.EventType = "lifecycle.room_created"
	// EventRoomClosed is emitted when the last player leaves and the room
	// is torn down.
	EventRoomClosed logging.EventType = "lifecycle.room_closed"
	// EventPlayerJoined is emitted when a player joins a room.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerLeft is emitted when a player leaves a room.
	EventPlayerLeft logging.EventType = "lifecycle.player_left"
	// EventPowerupSpawned is emitted when the lifecycle manager spawns a powerup.
	EventPowerupSpawned logging.EventType = "lifecycle.powerup_spawned"
	// EventPowerupRemoved is emitted when a powerup is collected or expires.
	EventPowerupRemoved logging.EventType = "lifecycle.powerup_removed"
	// EventTickFailure is emitted when a scheduled tick fails; the tick is
	// skipped and the schedule continues.
	EventTickFailure logging.EventType = "lifecycle.tick_failure"
)

func RoomCreated(ctx context.Context, pub logging.Publisher, roomID string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRoomCreated,
		Room:     roomID,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
	})
}

func RoomClosed(ctx context.Context, pub logging.Publisher, roomID string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRoomClosed,
		Room:     roomID,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
	})
}

func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, roomID, account string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerJoined,
		Room:     roomID,
		Tick:     tick,
		Actor:    logging.PlayerRef(account),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
	})
}

func PlayerLeft(ctx context.Context, pub logging.Publisher, tick uint64, roomID, account string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerLeft,
		Room:     roomID,
		Tick:     tick,
		Actor:    logging.PlayerRef(account),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
	})
}

// PowerupPayload names the powerup variant involved in a lifecycle event.
type PowerupPayload struct {
	Kind   string `json:"kind,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func PowerupSpawned(ctx context.Context, pub logging.Publisher, tick uint64, roomID, powerupID, kind string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPowerupSpawned,
		Room:     roomID,
		Tick:     tick,
		Actor:    logging.PowerupRef(powerupID),
		Severity: logging.SeverityDebug,
		Category: logging.CategoryLifecycle,
		Payload:  PowerupPayload{Kind: kind},
	})
}

func PowerupRemoved(ctx context.Context, pub logging.Publisher, tick uint64, roomID, powerupID, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPowerupRemoved,
		Room:     roomID,
		Tick:     tick,
		Actor:    logging.PowerupRef(powerupID),
		Severity: logging.SeverityDebug,
		Category: logging.CategoryLifecycle,
		Payload:  PowerupPayload{Reason: reason},
	})
}

// TickFailurePayload carries the recovered tick error.
type TickFailurePayload struct {
	Error string `json:"error"`
}

func TickFailure(ctx context.Context, pub logging.Publisher, tick uint64, roomID, errText string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickFailure,
		Room:     roomID,
		Tick:     tick,
		Severity: logging.SeverityError,
		Category: logging.CategoryLifecycle,
		Payload:  TickFailurePayload{Error: errText},
	})
}
