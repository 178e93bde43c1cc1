package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/yuvamcybercure/hrsync/internal/app"
	"github.com/yuvamcybercure/hrsync/internal/domain"
)

// callEnvelope is the shape shared by accept/signal/end events. Signal
// stays an opaque blob: SDP and ICE payloads are ferried, never parsed.
type callEnvelope struct {
	Type    string          `json:"type"`
	To      domain.UserID   `json:"to,omitempty"`
	RoomID  domain.RoomID   `json:"roomId,omitempty"`
	IsGroup bool            `json:"isGroup,omitempty"`
	Signal  json.RawMessage `json:"signal,omitempty"`
}

// callRoom resolves the session room: the caller-supplied id for group
// calls, the deterministic pair id otherwise.
func callRoom(roomID domain.RoomID, isGroup bool, a, b domain.UserID) domain.RoomID {
	if isGroup || roomID != "" {
		return roomID
	}
	return domain.DirectRoom(a, b)
}

func (ctl *Controller) handleCallUser(c *wsConn, data []byte) {
	type payload struct {
		Type       string          `json:"type"`
		UserToCall domain.UserID   `json:"userToCall,omitempty"`
		Name       string          `json:"name,omitempty"`
		CallType   domain.CallType `json:"callType,omitempty"`
		IsGroup    bool            `json:"isGroup,omitempty"`
		RoomID     domain.RoomID   `json:"roomId,omitempty"`
		Signal     json.RawMessage `json:"signal,omitempty"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	from := c.userID()

	if p.IsGroup {
		if p.RoomID == "" {
			ctl.sendError(c, "bad_payload")
			return
		}
		if !ctl.rooms.IsMember(c.id, p.RoomID) {
			ctl.sendError(c, "not_in_room")
			return
		}
	} else if p.UserToCall == "" {
		ctl.sendError(c, "bad_payload")
		return
	}

	room := callRoom(p.RoomID, p.IsGroup, from, p.UserToCall)
	resp := struct {
		Type     string          `json:"type"`
		From     domain.UserID   `json:"from"`
		Name     string          `json:"name,omitempty"`
		CallType domain.CallType `json:"callType,omitempty"`
		IsGroup  bool            `json:"isGroup,omitempty"`
		RoomID   domain.RoomID   `json:"roomId"`
		Signal   json.RawMessage `json:"signal,omitempty"`
	}{
		Type:     "incoming_call",
		From:     from,
		Name:     p.Name,
		CallType: p.CallType,
		IsGroup:  p.IsGroup,
		RoomID:   room,
		Signal:   p.Signal,
	}

	log.Info().Str("module", "signal").Str("from", string(from)).Str("room", string(room)).Bool("group", p.IsGroup).Msg("call started")
	if p.IsGroup {
		ctl.broadcastRoom(room, c.id, resp)
	} else {
		ctl.sendToUser(p.UserToCall, resp)
	}

	ctl.calls.Arm(app.PendingCall{
		Room:    room,
		Caller:  from,
		Callee:  p.UserToCall,
		IsGroup: p.IsGroup,
	})
}

func (ctl *Controller) handleAcceptCall(c *wsConn, data []byte) {
	var p callEnvelope
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	from := c.userID()
	room := callRoom(p.RoomID, p.IsGroup, from, p.To)
	if !ctl.checkCallTarget(c, p, room) {
		return
	}
	ctl.calls.Disarm(room)

	resp := struct {
		Type   string          `json:"type"`
		From   domain.UserID   `json:"from"`
		RoomID domain.RoomID   `json:"roomId"`
		Signal json.RawMessage `json:"signal,omitempty"`
	}{
		Type:   "call_accepted",
		From:   from,
		RoomID: room,
		Signal: p.Signal,
	}
	log.Info().Str("module", "signal").Str("from", string(from)).Str("room", string(room)).Msg("call accepted")
	ctl.forwardCall(c, p, room, resp)
}

func (ctl *Controller) handleWebRTCSignal(c *wsConn, data []byte) {
	var p callEnvelope
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	from := c.userID()
	room := callRoom(p.RoomID, p.IsGroup, from, p.To)

	resp := struct {
		Type   string          `json:"type"`
		From   domain.UserID   `json:"from"`
		RoomID domain.RoomID   `json:"roomId"`
		Signal json.RawMessage `json:"signal,omitempty"`
	}{
		Type:   "webrtc_signal",
		From:   from,
		RoomID: room,
		Signal: p.Signal,
	}
	ctl.forwardCall(c, p, room, resp)
}

func (ctl *Controller) handleEndCall(c *wsConn, data []byte, kind string) {
	var p callEnvelope
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	from := c.userID()
	room := callRoom(p.RoomID, p.IsGroup, from, p.To)
	if !ctl.checkCallTarget(c, p, room) {
		return
	}
	ctl.calls.Disarm(room)

	resp := struct {
		Type   string        `json:"type"`
		From   domain.UserID `json:"from"`
		RoomID domain.RoomID `json:"roomId"`
	}{
		Type:   kind,
		From:   from,
		RoomID: room,
	}
	log.Info().Str("module", "signal").Str("from", string(from)).Str("room", string(room)).Str("event", kind).Msg("call terminated")
	ctl.forwardCall(c, p, room, resp)
}

// checkCallTarget validates that the sender may address the session:
// group events require membership in the room, direct ones a named
// counterpart. Runs before any side effect such as disarming the ring
// timer, so a rejected event leaves the pending call untouched.
func (ctl *Controller) checkCallTarget(c *wsConn, p callEnvelope, room domain.RoomID) bool {
	if p.IsGroup {
		if !ctl.rooms.IsMember(c.id, room) {
			ctl.sendError(c, "not_in_room")
			return false
		}
		return true
	}
	if p.To == "" {
		ctl.sendError(c, "bad_payload")
		return false
	}
	return true
}

// forwardCall delivers a call event to the complementary party only:
// the room minus the sender for group calls, the named counterpart's
// private channel for direct ones.
func (ctl *Controller) forwardCall(c *wsConn, p callEnvelope, room domain.RoomID, v any) {
	if !ctl.checkCallTarget(c, p, room) {
		return
	}
	if p.IsGroup {
		ctl.broadcastRoom(room, c.id, v)
		return
	}
	ctl.sendToUser(p.To, v)
}

// onRingExpired runs when a call stayed unanswered past the ring window.
// Both sides get a call_rejected so neither is left ringing forever.
func (ctl *Controller) onRingExpired(call app.PendingCall) {
	resp := struct {
		Type   string        `json:"type"`
		RoomID domain.RoomID `json:"roomId"`
		Reason string        `json:"reason"`
	}{
		Type:   "call_rejected",
		RoomID: call.Room,
		Reason: domain.RejectReasonTimeout,
	}
	if call.IsGroup {
		ctl.broadcastRoom(call.Room, "", resp)
		return
	}
	ctl.sendToUser(call.Caller, resp)
	ctl.sendToUser(call.Callee, resp)
}
