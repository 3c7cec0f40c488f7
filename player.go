package server

import "time"

type Animation string

const (
	AnimationIdle   Animation = "idle"
	AnimationWalk   Animation = "walk"
	AnimationAttack Animation = "attack"
)

// parseAnimation validates an animation tag received from a client.
func parseAnimation(value string) (Animation, bool) {
	switch Animation(value) {
	case AnimationIdle, AnimationWalk, AnimationAttack:
		return Animation(value), true
	default:
		return "", false
	}
}

// Player is the wire-visible per-player record. Account is the membership
// and damage-attribution key, unique within a room.
type Player struct {
	Account   string    `json:"account"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Angle     float64   `json:"angle"`
	Health    int       `json:"health"`
	Score     int       `json:"score"`
	Name      string    `json:"name"`
	Animation Animation `json:"animation"`
	FlipX     bool      `json:"flipX"`
}

type playerState struct {
	Player
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

func (s *playerState) snapshot() Player {
	return s.Player
}
