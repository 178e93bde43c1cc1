package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", c.id).Msg("readPump closing")
		ctl.dropConn(c)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.handleEvent(c, data)
		}
	}
}

func (ctl *Controller) handleEvent(c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	if !ctl.limiter.Allow(c.id) {
		log.Warn().Str("module", "signal").Str("conn", c.id).Str("type", env.Type).Msg("rate limited")
		ctl.sendError(c, "rate_limited")
		return
	}

	switch env.Type {
	case "ping":
		ctl.handlePing(c)
		return
	case "user_online":
		ctl.handleUserOnline(c, data)
		return
	}

	// Everything below requires an announced identity.
	if c.userID() == "" {
		log.Warn().Str("module", "signal").Str("conn", c.id).Str("type", env.Type).Msg("event before user_online")
		ctl.sendError(c, "not_announced")
		return
	}

	switch env.Type {
	case "join_room":
		ctl.handleJoinRoom(c, data)
	case "leave_room":
		ctl.handleLeaveRoom(c, data)
	case "typing":
		ctl.handleTyping(c, data, true)
	case "stop_typing":
		ctl.handleTyping(c, data, false)
	case "send_message":
		ctl.handleSendMessage(c, data)
	case "delete_message":
		ctl.handleDeleteMessage(c, data)
	case "message_read":
		ctl.handleMessageRead(c, data)
	case "call_user":
		ctl.handleCallUser(c, data)
	case "accept_call":
		ctl.handleAcceptCall(c, data)
	case "webrtc_signal":
		ctl.handleWebRTCSignal(c, data)
	case "end_call":
		ctl.handleEndCall(c, data, "call_ended")
	case "reject_call":
		ctl.handleEndCall(c, data, "call_rejected")
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) handlePing(c *wsConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(c, resp)
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *wsConn, code string) {
	ctl.sendJSON(c, map[string]any{
		"type":  "error",
		"error": code,
	})
}
