package core

import "github.com/yokyay/classhub/internal/domain"

// ConnID identifies one live transport-level session (roughly one tab).
type ConnID string

// Notifier fans out events to connections. Owned by the transport adapter;
// implementations must preserve per-connection delivery order and must not
// block the caller. Delivery is at-most-once.
type Notifier interface {
	ToConnection(id ConnID, event any)
	ToConnections(ids []ConnID, event any)
	ToEveryone(event any)
}

// BlobPurger releases per-room stored files when a room is deleted.
type BlobPurger interface {
	PurgeRoom(id domain.RoomID)
}

// JoinRequest is a student connection awaiting the teacher's decision.
type JoinRequest struct {
	SocketID ConnID          `json:"socketId"`
	User     domain.Identity `json:"user"`
}

// Participant is a connection currently admitted into a room.
type Participant struct {
	SocketID ConnID          `json:"socketId"`
	User     domain.Identity `json:"user"`
}

// Stats is a point-in-time view for the metrics gauges.
type Stats struct {
	Rooms    int
	Teachers int
	Students int
}
