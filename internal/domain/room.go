package domain

import (
	"sort"
	"strings"
)

// RoomID names a broadcast channel: a direct-message pair, a group chat,
// a call session, or a user's private room (RoomID == UserID).
type RoomID string

// PrivateRoom is the per-user channel every connection joins on announce,
// so senders can address a user without knowing its connection id.
func PrivateRoom(id UserID) RoomID {
	return RoomID(id)
}

// DirectRoom derives a stable room id for a two-party conversation or call.
// The id is the same regardless of which side computes it.
func DirectRoom(a, b UserID) RoomID {
	pair := []string{string(a), string(b)}
	sort.Strings(pair)
	return RoomID(strings.Join(pair, "_"))
}
