package server

import "fmt"

// RoomFullError is returned when a join targets a room already at capacity.
// The join is aborted and membership is left unchanged.
type RoomFullError struct {
	RoomID string
}

func (e *RoomFullError) Error() string {
	return fmt.Sprintf("room %s is full", e.RoomID)
}

// NotFoundError reports an operation against an account, room, or powerup
// that is no longer present. Departures and expiries are expected races,
// so callers treat this as a soft status rather than a fault.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func errPlayerNotFound(id string) error {
	return &NotFoundError{Kind: "player", ID: id}
}

func errPowerupNotFound(id string) error {
	return &NotFoundError{Kind: "powerup", ID: id}
}
