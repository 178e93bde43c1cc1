package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/yuvamcybercure/hrsync/internal/domain"
)

func onlineStatusEvent(users []domain.UserID) any {
	return struct {
		Type  string          `json:"type"`
		Users []domain.UserID `json:"users"`
	}{
		Type:  "update_online_status",
		Users: users,
	}
}

func (ctl *Controller) handleUserOnline(c *wsConn, data []byte) {
	type payload struct {
		Type   string        `json:"type"`
		UserID domain.UserID `json:"userId"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad user_online payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if err := p.UserID.Validate(); err != nil {
		ctl.sendError(c, "invalid_user_id")
		return
	}

	prev := c.bindUser(p.UserID)
	if prev != "" && prev != p.UserID {
		// Re-announce under a new identity: drop the old binding first.
		ctl.rooms.Leave(c.id, domain.PrivateRoom(prev))
		ctl.presence.Remove(c.id)
	}

	snapshot := ctl.presence.Announce(p.UserID, c.id)
	ctl.rooms.Join(c.id, domain.PrivateRoom(p.UserID))
	log.Info().Str("module", "signal").Str("conn", c.id).Str("user", string(p.UserID)).Msg("user online")

	ctl.broadcastAll(onlineStatusEvent(snapshot))
}

func (ctl *Controller) handleJoinRoom(c *wsConn, data []byte) {
	type payload struct {
		Type   string        `json:"type"`
		RoomID domain.RoomID `json:"roomId"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendError(c, "bad_payload")
		return
	}

	ctl.rooms.Join(c.id, p.RoomID)
	log.Info().Str("module", "signal").Str("conn", c.id).Str("room", string(p.RoomID)).Msg("joined room")

	resp := struct {
		Type   string        `json:"type"`
		RoomID domain.RoomID `json:"roomId"`
	}{
		Type:   "room_joined",
		RoomID: p.RoomID,
	}
	ctl.sendJSON(c, resp)
}

func (ctl *Controller) handleLeaveRoom(c *wsConn, data []byte) {
	type payload struct {
		Type   string        `json:"type"`
		RoomID domain.RoomID `json:"roomId"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendError(c, "bad_payload")
		return
	}

	ctl.rooms.Leave(c.id, p.RoomID)
	log.Info().Str("module", "signal").Str("conn", c.id).Str("room", string(p.RoomID)).Msg("left room")

	resp := struct {
		Type   string        `json:"type"`
		RoomID domain.RoomID `json:"roomId"`
	}{
		Type:   "room_left",
		RoomID: p.RoomID,
	}
	ctl.sendJSON(c, resp)
}
