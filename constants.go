package server

import "time"

const (
	ProtocolVersion = 1

	writeWait         = 10 * time.Second
	defaultTickRate   = 15 // ticks per second (10–20 Hz)
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	roomCapacity = 8

	worldWidth  = 2000.0
	worldHeight = 2000.0
	spawnMin    = 100
	spawnMax    = 1900

	defaultObstacleCount = 30

	playerMaxHealth = 100
	meleeDamage     = 10

	powerupSpawnInterval = 10 * time.Second
	powerupLifetime      = 30 * time.Second

	// Clients are expected to throttle their own position updates to this
	// cadence. The server accepts updates at any rate.
	positionUpdateInterval = 50 * time.Millisecond
)
