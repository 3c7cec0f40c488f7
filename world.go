package server

import (
	"fmt"
	"math/rand"
)

// Obstacle is a fixed interior collider. Coordinates are integral and fall
// inside the playable band.
type Obstacle struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

// generateObstacles scatters interior colliders across the playable band.
// The border perimeter is a fixed layout every client reproduces locally,
// so only the random interior set is persisted per room.
func generateObstacles(rng *rand.Rand, count int) []Obstacle {
	if count < 0 {
		count = 0
	}

	obstacles := make([]Obstacle, 0, count)
	for i := 0; i < count; i++ {
		obstacles = append(obstacles, Obstacle{
			ID: fmt.Sprintf("obstacle-%d", i+1),
			X:  spawnMin + rng.Intn(spawnMax-spawnMin+1),
			Y:  spawnMin + rng.Intn(spawnMax-spawnMin+1),
		})
	}
	return obstacles
}

// randomSpawnPoint picks a uniform position inside the playable band.
func randomSpawnPoint(rng *rand.Rand) (float64, float64) {
	x := spawnMin + rng.Float64()*(spawnMax-spawnMin)
	y := spawnMin + rng.Float64()*(spawnMax-spawnMin)
	return x, y
}
