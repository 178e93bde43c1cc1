package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/yuvamcybercure/hrsync/internal/app"
	"github.com/yuvamcybercure/hrsync/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// netConn is an indirection over *websocket.Conn to ease testing.
type netConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	Close() error
}

// wsConn is one live client connection. Identity is unbound until the
// client announces presence; every later event trusts only the bound id.
type wsConn struct {
	id   string
	conn netConn
	send chan []byte

	mu     sync.RWMutex
	user   domain.UserID
	closed bool
}

func newWSConn(conn netConn) *wsConn {
	return &wsConn{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 32),
	}
}

func (c *wsConn) userID() domain.UserID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *wsConn) bindUser(uid domain.UserID) domain.UserID {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.user
	c.user = uid
	return prev
}

func (c *wsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// Options configures the relay controller.
type Options struct {
	ReadLimit       int64
	PingPeriod      time.Duration
	RingTimeout     time.Duration
	EventRateLimit  int
	EventRateWindow time.Duration
}

// Controller is the websocket relay: presence announcements, room
// membership, chat fanout and call signaling all dispatch through it.
type Controller struct {
	presence *app.Presence
	rooms    *app.Rooms
	calls    *app.CallTimeouts
	limiter  *EventRateLimiter

	readLimit  int64
	pingPeriod time.Duration

	mu    sync.RWMutex
	conns map[string]*wsConn
}

func NewController(presence *app.Presence, rooms *app.Rooms, opts Options) *Controller {
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	if opts.RingTimeout <= 0 {
		opts.RingTimeout = 45 * time.Second
	}
	if opts.EventRateLimit <= 0 {
		opts.EventRateLimit = 60
	}
	if opts.EventRateWindow <= 0 {
		opts.EventRateWindow = 10 * time.Second
	}
	ctl := &Controller{
		presence:   presence,
		rooms:      rooms,
		limiter:    NewEventRateLimiter(opts.EventRateLimit, opts.EventRateWindow),
		readLimit:  opts.ReadLimit,
		pingPeriod: opts.PingPeriod,
		conns:      make(map[string]*wsConn),
	}
	ctl.calls = app.NewCallTimeouts(opts.RingTimeout, ctl.onRingExpired)
	return ctl
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and runs the connection's pumps.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.readLimit > 0 {
		ws.SetReadLimit(ctl.readLimit)
	}

	conn := newWSConn(ws)
	ctl.register(conn)
	log.Info().Str("module", "signal").Str("conn", conn.id).Msg("new WS connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, conn)
}

func (ctl *Controller) register(c *wsConn) {
	ctl.mu.Lock()
	ctl.conns[c.id] = c
	ctl.mu.Unlock()
}

// dropConn tears down everything a connection owned: room memberships,
// its presence entry, pending calls it started, its rate-limit history.
func (ctl *Controller) dropConn(c *wsConn) {
	ctl.mu.Lock()
	delete(ctl.conns, c.id)
	ctl.mu.Unlock()

	ctl.rooms.DropConn(c.id)
	ctl.limiter.Forget(c.id)

	uid, ok, snapshot := ctl.presence.Remove(c.id)
	if ok {
		ctl.calls.DisarmCaller(uid)
		ctl.broadcastAll(onlineStatusEvent(snapshot))
	}
	c.Close()
}

func (ctl *Controller) connByID(id string) (*wsConn, bool) {
	ctl.mu.RLock()
	defer ctl.mu.RUnlock()
	conn, ok := ctl.conns[id]
	return conn, ok
}

// broadcastAll fans an event out to every connected client.
func (ctl *Controller) broadcastAll(v any) {
	ctl.mu.RLock()
	targets := make([]*wsConn, 0, len(ctl.conns))
	for _, conn := range ctl.conns {
		targets = append(targets, conn)
	}
	ctl.mu.RUnlock()
	for _, conn := range targets {
		ctl.sendJSON(conn, v)
	}
}

// broadcastRoom fans an event out to every member of room, skipping the
// connection named by except (empty string skips nobody).
func (ctl *Controller) broadcastRoom(room domain.RoomID, except string, v any) {
	for _, connID := range ctl.rooms.Members(room) {
		if connID == except {
			continue
		}
		if conn, ok := ctl.connByID(connID); ok {
			ctl.sendJSON(conn, v)
		}
	}
}

// sendToUser delivers to the user's private room. Offline users are a
// silent drop; the persistence layer owns eventual consistency.
func (ctl *Controller) sendToUser(uid domain.UserID, v any) {
	ctl.broadcastRoom(domain.PrivateRoom(uid), "", v)
}
