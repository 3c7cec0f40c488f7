package network

import (
	"context"

	"arena-brawl/server/logging"
)

const (
	// EventMalformedMessage is emitted when a client frame fails to decode
	// or names an unknown command; the frame is discarded.
	EventMalformedMessage logging.EventType = "network.malformed_message"
	// EventDisconnected is emitted when a subscriber connection is dropped.
	EventDisconnected logging.EventType = "network.disconnected"
)

// MalformedPayload records why a frame was discarded.
type MalformedPayload struct {
	Reason string `json:"reason"`
}

func MalformedMessage(ctx context.Context, pub logging.Publisher, roomID, account, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMalformedMessage,
		Room:     roomID,
		Actor:    logging.PlayerRef(account),
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  MalformedPayload{Reason: reason},
	})
}

// DisconnectPayload records why the connection went away.
type DisconnectPayload struct {
	Reason string `json:"reason"`
}

func Disconnected(ctx context.Context, pub logging.Publisher, roomID, account, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDisconnected,
		Room:     roomID,
		Actor:    logging.PlayerRef(account),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  DisconnectPayload{Reason: reason},
	})
}
