package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yuvamcybercure/hrsync/internal/domain"
)

// RingExpiry is invoked when a call stays unanswered past the ring window.
// It runs on the timer goroutine; implementations must not call back into
// CallTimeouts while holding their own locks against it.
type RingExpiry func(call PendingCall)

// PendingCall describes a ringing call awaiting an answer.
type PendingCall struct {
	Room    domain.RoomID
	Caller  domain.UserID
	Callee  domain.UserID // empty for group calls
	IsGroup bool
}

// CallTimeouts arms a server-side ring timeout per call session so an
// unanswered call cannot stay ringing forever. The relay holds no other
// call state; accept/reject/end and caller disconnect all disarm.
type CallTimeouts struct {
	mu      sync.Mutex
	pending map[domain.RoomID]*pendingTimer
	ttl     time.Duration
	expire  RingExpiry
}

type pendingTimer struct {
	call  PendingCall
	timer *time.Timer
}

func NewCallTimeouts(ttl time.Duration, expire RingExpiry) *CallTimeouts {
	return &CallTimeouts{
		pending: make(map[domain.RoomID]*pendingTimer),
		ttl:     ttl,
		expire:  expire,
	}
}

// Arm starts (or restarts) the ring window for a call. A repeated
// call_user for the same room resets the clock.
func (c *CallTimeouts) Arm(call PendingCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.pending[call.Room]; ok {
		prev.timer.Stop()
	}
	pt := &pendingTimer{call: call}
	pt.timer = time.AfterFunc(c.ttl, func() { c.fire(call.Room) })
	c.pending[call.Room] = pt
	log.Debug().Str("module", "app.calls").Str("room", string(call.Room)).Str("caller", string(call.Caller)).Msg("ring timeout armed")
}

// Disarm cancels the ring window, if one is pending. Returns whether a
// pending call existed.
func (c *CallTimeouts) Disarm(room domain.RoomID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	pt, ok := c.pending[room]
	if !ok {
		return false
	}
	pt.timer.Stop()
	delete(c.pending, room)
	return true
}

// DisarmCaller cancels every pending call started by uid. Called when the
// caller's connection drops mid-ring.
func (c *CallTimeouts) DisarmCaller(uid domain.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for room, pt := range c.pending {
		if pt.call.Caller == uid {
			pt.timer.Stop()
			delete(c.pending, room)
		}
	}
}

// Pending reports whether a call is ringing in room.
func (c *CallTimeouts) Pending(room domain.RoomID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[room]
	return ok
}

func (c *CallTimeouts) fire(room domain.RoomID) {
	c.mu.Lock()
	pt, ok := c.pending[room]
	if ok {
		delete(c.pending, room)
	}
	c.mu.Unlock()
	if !ok || c.expire == nil {
		return
	}
	log.Info().Str("module", "app.calls").Str("room", string(room)).Msg("ring timeout fired")
	c.expire(pt.call)
}
