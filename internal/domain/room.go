package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const roomIDLen = 10

var (
	ErrTitleEmpty       = errors.New("room title empty")
	ErrTeacherNameEmpty = errors.New("teacher name empty")
)

type RoomID string

// Room is a named class session owned by the teacher who created it.
// Immutable except for deletion.
type Room struct {
	ID          RoomID    `json:"id"`
	Title       string    `json:"title"`
	TeacherName string    `json:"teacherName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewRoom validates the fields and assigns a fresh opaque id.
func NewRoom(title, teacherName string) (*Room, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleEmpty
	}
	if strings.TrimSpace(teacherName) == "" {
		return nil, ErrTeacherNameEmpty
	}
	return &Room{
		ID:          NewRoomID(),
		Title:       title,
		TeacherName: teacherName,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// NewRoomID returns a short opaque alphanumeric id backed by uuid entropy.
func NewRoomID() RoomID {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return RoomID(raw[:roomIDLen])
}
