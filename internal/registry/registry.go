// Package registry tracks which channels receive the scheduled rant.
//
// The set lives for the process only: it starts empty, grows via Grant and
// shrinks via Deny, and is never persisted. Authorization is the caller's
// job — the registry just stores handles.
package registry

import (
	"sync"

	"github.com/samber/lo"
)

// Channel is an opaque platform handle. Equality is by ID.
type Channel struct {
	ID      string
	GuildID string
}

// Registry is an insertion-ordered set of channels, unique by ID.
type Registry struct {
	mu       sync.Mutex
	channels []Channel
}

func New() *Registry {
	return &Registry{}
}

// Grant inserts ch, preserving insertion order. Granting an already-present
// ID is a no-op, so double grants never duplicate.
func (r *Registry) Grant(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.channels {
		if existing.ID == ch.ID {
			return
		}
	}
	r.channels = append(r.channels, ch)
}

// Deny removes the channel with the given ID. The guild must match too:
// snowflake collisions across guilds must not let one guild deny another's
// channel. Absent entries are a no-op.
func (r *Registry) Deny(channelID, guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = lo.Reject(r.channels, func(ch Channel, _ int) bool {
		return ch.ID == channelID && ch.GuildID == guildID
	})
}

// List returns the granted channels of one guild, in grant order.
func (r *Registry) List(guildID string) []Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Filter(r.channels, func(ch Channel, _ int) bool {
		return ch.GuildID == guildID
	})
}

// All returns a snapshot of every granted channel for broadcast fan-out.
// The copy keeps the fan-out loop independent of concurrent grants/denies.
func (r *Registry) All() []Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}
