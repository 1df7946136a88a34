package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/yokyay/classhub/internal/core"
	"github.com/yokyay/classhub/internal/domain"
)

// Media-plane helpers: the coordinator stays out of these, the controller
// only relays opaque payloads between connections that already passed
// admission. The media itself flows through the external router.

func (ctl *Controller) handleSpeaking(sid core.ConnID, data []byte) {
	var p struct {
		Type     string          `json:"type"`
		RoomID   domain.RoomID   `json:"roomId"`
		User     domain.Identity `json:"user"`
		Speaking bool            `json:"speaking"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.User.Name == "" {
		return
	}
	if !ctl.Coord.IsMember(p.RoomID, sid) {
		return
	}
	ctl.Hub.ToConnections(ctl.Coord.MemberIDs(p.RoomID), map[string]any{
		"type":     "speaking",
		"name":     p.User.Name,
		"speaking": p.Speaking,
	})
}

// handleRelayToTarget forwards an offer/answer/candidate blob to one
// connection, stamping the sender so the target can answer back.
func (ctl *Controller) handleRelayToTarget(sid core.ConnID, kind string, data []byte) {
	var p struct {
		Type      string          `json:"type"`
		TargetID  core.ConnID     `json:"targetId"`
		RoomID    domain.RoomID   `json:"roomId,omitempty"`
		Offer     json.RawMessage `json:"offer,omitempty"`
		Answer    json.RawMessage `json:"answer,omitempty"`
		Candidate json.RawMessage `json:"candidate,omitempty"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.TargetID == "" {
		return
	}
	out := map[string]any{
		"type": kind,
		"from": sid,
	}
	if p.Offer != nil {
		out["offer"] = p.Offer
	}
	if p.Answer != nil {
		out["answer"] = p.Answer
	}
	if p.Candidate != nil {
		out["candidate"] = p.Candidate
	}
	if p.RoomID != "" {
		out["roomId"] = p.RoomID
	}
	log.Debug().Str("module", "signal").Str("kind", kind).Str("from", string(sid)).Str("to", string(p.TargetID)).Msg("relay")
	ctl.Hub.ToConnection(p.TargetID, out)
}

func (ctl *Controller) handleRelayToRoom(sid core.ConnID, kind string, data []byte) {
	var p struct {
		Type   string        `json:"type"`
		RoomID domain.RoomID `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		return
	}
	if !ctl.Coord.IsMember(p.RoomID, sid) {
		return
	}
	ctl.Hub.ToConnections(ctl.Coord.MemberIDs(p.RoomID), map[string]any{
		"type":     kind,
		"roomId":   p.RoomID,
		"socketId": sid,
	})
}
