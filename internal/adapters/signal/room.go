package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/yokyay/classhub/internal/core"
	"github.com/yokyay/classhub/internal/domain"
)

type joinPayload struct {
	Type   string          `json:"type"`
	RoomID domain.RoomID   `json:"roomId"`
	User   domain.Identity `json:"user"`
}

func (ctl *Controller) handleJoinRoom(sid core.ConnID, c *WsConn, data []byte) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join-room payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	log.Info().Str("module", "signal").Str("room", string(p.RoomID)).Str("name", p.User.Name).Msg("join-room")
	if err := ctl.Coord.ConnectOwner(p.RoomID, sid, p.User); err != nil {
		if errors.Is(err, core.ErrRoomNotFound) {
			ctl.sendError(c, "room not found")
		}
		return
	}
}

func (ctl *Controller) handleRequestJoin(sid core.ConnID, c *WsConn, data []byte) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad request-join payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	log.Info().Str("module", "signal").Str("room", string(p.RoomID)).Str("name", p.User.Name).Msg("request-join")
	if err := ctl.Coord.RequestJoin(p.RoomID, sid, p.User); err != nil {
		if errors.Is(err, core.ErrRoomNotFound) {
			ctl.sendError(c, "room not found")
		}
		return
	}
}

func (ctl *Controller) handleApproveJoin(sid core.ConnID, data []byte) {
	var p struct {
		Type     string        `json:"type"`
		RoomID   domain.RoomID `json:"roomId"`
		SocketID core.ConnID   `json:"socketId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad approve-join payload")
		return
	}
	log.Info().Str("module", "signal").Str("room", string(p.RoomID)).Str("target", string(p.SocketID)).Msg("approve-join")
	ctl.Coord.ApproveJoin(p.RoomID, sid, p.SocketID)
}

func (ctl *Controller) handleChatMessage(sid core.ConnID, data []byte) {
	var p struct {
		Type    string          `json:"type"`
		RoomID  domain.RoomID   `json:"roomId"`
		Message string          `json:"message"`
		User    domain.Identity `json:"user"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad chat payload")
		return
	}
	if err := ctl.Coord.SendChat(p.RoomID, sid, p.User, p.Message); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room", string(p.RoomID)).Msg("chat dropped")
	}
}

func (ctl *Controller) handleTeacherReady(sid core.ConnID, data []byte) {
	var p struct {
		Type   string        `json:"type"`
		RoomID domain.RoomID `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad teacher-ready payload")
		return
	}
	ctl.Coord.ResendApproved(p.RoomID, sid)
}

func (ctl *Controller) handleCloseClass(sid core.ConnID, data []byte) {
	var p struct {
		Type   string        `json:"type"`
		RoomID domain.RoomID `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad close-class payload")
		return
	}
	log.Info().Str("module", "signal").Str("room", string(p.RoomID)).Msg("close-class")
	ctl.Coord.CloseClass(p.RoomID, sid)
}
