package app

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yuvamcybercure/hrsync/internal/domain"
)

// PresenceEntry maps a user identity to its live connection. Last writer
// wins when a user opens a second connection; no multi-device fan-out.
type PresenceEntry struct {
	ConnID   string
	LastSeen time.Time
}

// Presence tracks which user identities are currently reachable.
// All access goes through the mutex; the relay runs one goroutine per
// connection, not a single event loop.
type Presence struct {
	mu      sync.RWMutex
	entries map[domain.UserID]PresenceEntry

	now func() time.Time
}

func NewPresence() *Presence {
	return &Presence{
		entries: make(map[domain.UserID]PresenceEntry),
		now:     time.Now,
	}
}

// Announce registers (or overwrites) the mapping for uid and returns the
// resulting online snapshot for broadcast.
func (p *Presence) Announce(uid domain.UserID, connID string) []domain.UserID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[uid] = PresenceEntry{ConnID: connID, LastSeen: p.now()}
	log.Info().Str("module", "app.presence").Str("user", string(uid)).Str("conn", connID).Msg("announced")
	return p.snapshotLocked()
}

// Remove deletes the entry owned by connID, if any. A user that
// re-announced on a newer connection is left untouched. Linear scan is
// fine at the expected scale (tens to low hundreds of connections).
func (p *Presence) Remove(connID string) (domain.UserID, bool, []domain.UserID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for uid, e := range p.entries {
		if e.ConnID == connID {
			delete(p.entries, uid)
			log.Info().Str("module", "app.presence").Str("user", string(uid)).Str("conn", connID).Msg("removed")
			return uid, true, p.snapshotLocked()
		}
	}
	return "", false, p.snapshotLocked()
}

// ConnOf resolves the connection currently bound to uid.
func (p *Presence) ConnOf(uid domain.UserID) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[uid]
	return e.ConnID, ok
}

func (p *Presence) IsOnline(uid domain.UserID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.entries[uid]
	return ok
}

// Online returns the sorted list of online user ids.
func (p *Presence) Online() []domain.UserID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

func (p *Presence) snapshotLocked() []domain.UserID {
	out := make([]domain.UserID, 0, len(p.entries))
	for uid := range p.entries {
		out = append(out, uid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
