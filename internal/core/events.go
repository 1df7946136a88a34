package core

import "github.com/yokyay/classhub/internal/domain"

// Outbound event names as sent on the wire.
const (
	EventChatHistory     = "chat-history"
	EventPendingList     = "pending-list"
	EventJoinRequest     = "join-request"
	EventJoinApproved    = "join-approved"
	EventApprovedList    = "approved-list"
	EventStudentApproved = "student-approved"
	EventChatMessage     = "chat-message"
	EventClassClosed     = "class-closed"
	EventRoomRemoved     = "room-removed"
)

type ChatHistoryEvent struct {
	Type     string               `json:"type"`
	Messages []domain.ChatMessage `json:"messages"`
}

type PendingListEvent struct {
	Type    string        `json:"type"`
	Pending []JoinRequest `json:"pending"`
}

type JoinApprovedEvent struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

type ApprovedListEvent struct {
	Type     string        `json:"type"`
	Approved []Participant `json:"approved"`
}

// StudentApprovedEvent tells the teacher a student got in. AutoApproved
// distinguishes a returning, already-allow-listed name from a manual approval.
type StudentApprovedEvent struct {
	Type         string          `json:"type"`
	RoomID       domain.RoomID   `json:"roomId"`
	SocketID     ConnID          `json:"socketId"`
	User         domain.Identity `json:"user"`
	AutoApproved bool            `json:"autoApproved"`
}

type ChatMessageEvent struct {
	Type string `json:"type"`
	domain.ChatMessage
}

type ClassClosedEvent struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

type RoomRemovedEvent struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}
