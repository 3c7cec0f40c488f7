package server

import (
	"fmt"
	"math/rand"
	"time"
)

type PowerupType string

const (
	PowerupHealth PowerupType = "health"
	PowerupSpeed  PowerupType = "speed"
)

var powerupTypes = []PowerupType{PowerupHealth, PowerupSpeed}

// Powerup is a time-limited pickup. Collecting it removes the shared
// entity; any gameplay effect is applied client-side.
type Powerup struct {
	ID        string      `json:"id"`
	Type      PowerupType `json:"type"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	CreatedAt int64       `json:"createdAt"`
}

// newPowerupID derives an id from the spawn time. The counter suffix
// keeps ids unique when two spawns land on the same nanosecond.
func newPowerupID(now time.Time, seq uint64) string {
	return fmt.Sprintf("powerup-%d-%d", now.UnixNano(), seq)
}

func rollPowerup(rng *rand.Rand, now time.Time, seq uint64) Powerup {
	x, y := randomSpawnPoint(rng)
	return Powerup{
		ID:        newPowerupID(now, seq),
		Type:      powerupTypes[rng.Intn(len(powerupTypes))],
		X:         x,
		Y:         y,
		CreatedAt: now.UnixMilli(),
	}
}

// expired reports whether the powerup has outlived its 30 s window.
func (p Powerup) expired(now time.Time) bool {
	age := now.UnixMilli() - p.CreatedAt
	return age >= powerupLifetime.Milliseconds()
}
