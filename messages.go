package server

import "encoding/json"

// Server → client broadcast payloads. Every frame is a JSON text message
// with a tagged "type" field; unknown types are ignored by clients.

type JoinedMessage struct {
	Ver       int        `json:"ver"`
	Type      string     `json:"type"`
	RoomID    string     `json:"roomId"`
	Account   string     `json:"account"`
	Players   []Player   `json:"players"`
	Obstacles []Obstacle `json:"obstacles"`
	Powerups  []Powerup  `json:"powerups,omitempty"`
	GameTime  int64      `json:"gameTime"`
}

type StateMessage struct {
	Ver        int      `json:"ver"`
	Type       string   `json:"type"`
	Players    []Player `json:"players"`
	GameTime   int64    `json:"gameTime"`
	ServerTime int64    `json:"serverTime"`
}

// HitSyncMessage is the canonical post-damage record for one hit. It is
// broadcast to every room member, including the claimant, so all clients
// reconcile off the same message.
type HitSyncMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	TargetID   string `json:"targetId"`
	AttackerID string `json:"attackerId"`
	Damage     int    `json:"damage"`
	NewHealth  int    `json:"newHealth"`
	Timestamp  int64  `json:"timestamp"`
}

type AnimationMessage struct {
	Ver       int       `json:"ver"`
	Type      string    `json:"type"`
	PlayerID  string    `json:"playerId"`
	Animation Animation `json:"animation"`
	FlipX     bool      `json:"flipX"`
}

type AttackMessage struct {
	Ver       int     `json:"ver"`
	Type      string  `json:"type"`
	OwnerID   string  `json:"ownerId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Direction float64 `json:"direction"`
}

type ProjectileMessage struct {
	Ver     int     `json:"ver"`
	Type    string  `json:"type"`
	ID      string  `json:"id"`
	OwnerID string  `json:"ownerId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	TargetX float64 `json:"targetX"`
	TargetY float64 `json:"targetY"`
}

type PowerupSpawnedMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Powerup
}

type PowerupRemovedMessage struct {
	Ver       int    `json:"ver"`
	Type      string `json:"type"`
	PowerupID string `json:"powerupId"`
}

// RespawnMessage tells clients to clear any confirmed-dead tracking for
// the account and adopt the reset state.
type RespawnMessage struct {
	Ver     int     `json:"ver"`
	Type    string  `json:"type"`
	Account string  `json:"account"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Health  int     `json:"health"`
}

type PlayerLeftMessage struct {
	Ver     int    `json:"ver"`
	Type    string `json:"type"`
	Account string `json:"account"`
}

type HeartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

const (
	msgJoined         = "joined"
	msgState          = "state"
	msgHitSync        = "playerHitSync"
	msgAnimation      = "playerAnimation"
	msgAttack         = "playerAttack"
	msgProjectile     = "projectileFired"
	msgPowerupSpawned = "powerupSpawned"
	msgPowerupRemoved = "powerupRemoved"
	msgRespawn        = "playerRespawn"
	msgPlayerLeft     = "playerLeft"
	msgHeartbeat      = "heartbeat"
)

// MessageCatalog groups every broadcast payload; cmd/schema reflects it
// into the published wire schema.
type MessageCatalog struct {
	Joined          JoinedMessage         `json:"joined"`
	State           StateMessage          `json:"state"`
	PlayerHitSync   HitSyncMessage        `json:"playerHitSync"`
	PlayerAnimation AnimationMessage      `json:"playerAnimation"`
	PlayerAttack    AttackMessage         `json:"playerAttack"`
	ProjectileFired ProjectileMessage     `json:"projectileFired"`
	PowerupSpawned  PowerupSpawnedMessage `json:"powerupSpawned"`
	PowerupRemoved  PowerupRemovedMessage `json:"powerupRemoved"`
	PlayerRespawn   RespawnMessage        `json:"playerRespawn"`
	PlayerLeft      PlayerLeftMessage     `json:"playerLeft"`
	Heartbeat       HeartbeatMessage      `json:"heartbeat"`
}

// Client → server commands. The envelope carries the variant tag; each
// variant has its own payload struct with explicit required fields, and
// malformed variants are discarded.

type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	cmdMove      = "move"
	cmdAnimation = "anim"
	cmdAttack    = "attack"
	cmdFire      = "fire"
	cmdHit       = "hit"
	cmdHitSync   = "hitSync"
	cmdDied      = "died"
	cmdRespawn   = "respawn"
	cmdCollect   = "collect"
	cmdSetName   = "setName"
	cmdHeartbeat = "heartbeat"
)

type MoveCommand struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Angle     float64 `json:"angle"`
	Health    int     `json:"health"`
	Animation string  `json:"animation"`
	FlipX     bool    `json:"flipX"`
}

type AnimationCommand struct {
	Animation string `json:"animation"`
	FlipX     bool   `json:"flipX"`
}

type AttackCommand struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Direction float64 `json:"direction"`
}

type FireCommand struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	TargetX float64 `json:"targetX"`
	TargetY float64 `json:"targetY"`
}

type HitCommand struct {
	TargetID   string `json:"targetId"`
	AttackerID string `json:"attackerId"`
	Damage     int    `json:"damage"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}

// HitSyncCommand carries a client-computed post-damage health. The server
// clamps and records it before rebroadcast; see the playerHit path for
// the server-derived alternative.
type HitSyncCommand struct {
	TargetID   string `json:"targetId"`
	AttackerID string `json:"attackerId"`
	Damage     int    `json:"damage"`
	NewHealth  int    `json:"newHealth"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}

type DiedCommand struct {
	PlayerID string `json:"playerId"`
	KillerID string `json:"killerId,omitempty"`
}

type RespawnCommand struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CollectCommand struct {
	PowerupID string `json:"powerupId"`
}

type SetNameCommand struct {
	Name string `json:"name"`
}

type HeartbeatCommand struct {
	SentAt int64 `json:"sentAt"`
}
