package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/yuvamcybercure/hrsync/internal/domain"
)

func (ctl *Controller) handleTyping(c *wsConn, data []byte, typing bool) {
	type payload struct {
		Type     string        `json:"type"`
		RoomID   domain.RoomID `json:"roomId"`
		UserName string        `json:"userName,omitempty"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	if !ctl.rooms.IsMember(c.id, p.RoomID) {
		ctl.sendError(c, "not_in_room")
		return
	}

	kind := "typing"
	if !typing {
		kind = "stop_typing"
	}
	resp := struct {
		Type     string        `json:"type"`
		RoomID   domain.RoomID `json:"roomId"`
		UserID   domain.UserID `json:"userId"`
		UserName string        `json:"userName,omitempty"`
	}{
		Type:     kind,
		RoomID:   p.RoomID,
		UserID:   c.userID(),
		UserName: p.UserName,
	}
	ctl.broadcastRoom(p.RoomID, c.id, resp)
}

// handleSendMessage relays a chat message to the room and, when the
// receiver is not watching the room, to the receiver's private channel.
// Unknown payload fields pass through untouched so the relay never has
// to learn the message schema owned by the persistence layer.
func (ctl *Controller) handleSendMessage(c *wsConn, data []byte) {
	var p map[string]any
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	room, _ := p["room"].(string)
	if room == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	roomID := domain.RoomID(room)
	if !ctl.rooms.IsMember(c.id, roomID) {
		ctl.sendError(c, "not_in_room")
		return
	}

	sender := c.userID()
	p["type"] = "receive_message"
	p["senderId"] = string(sender)

	ctl.broadcastRoom(roomID, c.id, p)

	receiver, _ := p["receiverId"].(string)
	if receiver == "" {
		return
	}
	// Skip the private copy when the receiver's connection is already in
	// the room, so one send never reaches the same client twice.
	if connID, ok := ctl.presence.ConnOf(domain.UserID(receiver)); ok && ctl.rooms.IsMember(connID, roomID) {
		return
	}
	ctl.sendToUser(domain.UserID(receiver), p)
	log.Debug().Str("module", "signal").Str("room", room).Str("receiver", receiver).Msg("private delivery")
}

func (ctl *Controller) handleDeleteMessage(c *wsConn, data []byte) {
	type payload struct {
		Type      string        `json:"type"`
		RoomID    domain.RoomID `json:"roomId"`
		MessageID string        `json:"messageId"`
		Mode      string        `json:"mode,omitempty"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" || p.MessageID == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	if !ctl.rooms.IsMember(c.id, p.RoomID) {
		ctl.sendError(c, "not_in_room")
		return
	}

	// Notification only; the stored message is mutated elsewhere.
	resp := struct {
		Type      string        `json:"type"`
		RoomID    domain.RoomID `json:"roomId"`
		MessageID string        `json:"messageId"`
		Mode      string        `json:"mode,omitempty"`
		DeletedBy domain.UserID `json:"deletedBy"`
	}{
		Type:      "message_deleted",
		RoomID:    p.RoomID,
		MessageID: p.MessageID,
		Mode:      p.Mode,
		DeletedBy: c.userID(),
	}
	ctl.broadcastRoom(p.RoomID, c.id, resp)
}

func (ctl *Controller) handleMessageRead(c *wsConn, data []byte) {
	type payload struct {
		Type       string        `json:"type"`
		RoomID     domain.RoomID `json:"roomId"`
		MessageIDs []string      `json:"messageIds"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" || len(p.MessageIDs) == 0 {
		ctl.sendError(c, "bad_payload")
		return
	}
	if !ctl.rooms.IsMember(c.id, p.RoomID) {
		ctl.sendError(c, "not_in_room")
		return
	}

	resp := struct {
		Type       string        `json:"type"`
		RoomID     domain.RoomID `json:"roomId"`
		UserID     domain.UserID `json:"userId"`
		MessageIDs []string      `json:"messageIds"`
	}{
		Type:       "messages_marked_read",
		RoomID:     p.RoomID,
		UserID:     c.userID(),
		MessageIDs: p.MessageIDs,
	}
	ctl.broadcastRoom(p.RoomID, c.id, resp)
}
