package core

import (
	"github.com/samber/lo"

	"github.com/yokyay/classhub/internal/domain"
)

// sessionState is the mutable admission state of one room. All access goes
// through the Coordinator's mutex; the struct itself carries no locking.
//
// Invariant: pending and approved are disjoint sets of ConnID. approvedUsers
// only grows until the room is deleted.
type sessionState struct {
	ownerConn     ConnID // empty when no teacher connected
	pending       map[ConnID]JoinRequest
	approved      map[ConnID]Participant
	approvedUsers map[string]struct{}
	messages      []domain.ChatMessage

	// observers are teacher connections superseded by a later teacher join.
	// They keep receiving room broadcasts but hold no approval authority.
	observers map[ConnID]struct{}
}

func newSessionState() *sessionState {
	return &sessionState{
		pending:       make(map[ConnID]JoinRequest),
		approved:      make(map[ConnID]Participant),
		approvedUsers: make(map[string]struct{}),
		observers:     make(map[ConnID]struct{}),
	}
}

// isMember reports whether the connection may chat and receive room
// broadcasts. Pending connections are not members.
func (s *sessionState) isMember(id ConnID) bool {
	if id == s.ownerConn && s.ownerConn != "" {
		return true
	}
	if _, ok := s.observers[id]; ok {
		return true
	}
	_, ok := s.approved[id]
	return ok
}

// memberIDs snapshots the current broadcast audience: teacher, approved
// students and superseded teacher connections.
func (s *sessionState) memberIDs() []ConnID {
	ids := lo.Keys(s.approved)
	ids = append(ids, lo.Keys(s.observers)...)
	if s.ownerConn != "" && !s.isApproved(s.ownerConn) {
		ids = append(ids, s.ownerConn)
	}
	return ids
}

func (s *sessionState) isApproved(id ConnID) bool {
	_, ok := s.approved[id]
	return ok
}

func (s *sessionState) pendingSnapshot() []JoinRequest {
	return lo.Values(s.pending)
}

func (s *sessionState) approvedSnapshot() []Participant {
	return lo.Values(s.approved)
}

func (s *sessionState) transcriptSnapshot() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}
