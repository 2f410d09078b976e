// Package bot routes inbound text commands to the registry, scheduler and
// selector, enforcing channel authorization. All mutable state lives in the
// collaborators; the dispatcher itself is stateless across invocations.
package bot

import (
	"context"
	"strings"
	"time"

	"rantbot/internal/corpus"
)

// Capability is a platform permission the caller may hold. Grant, deny and
// settime require at least one of the moderation capabilities.
type Capability int

const (
	CapManageChannels Capability = iota
	CapManageMessages
	CapKickMembers
)

// moderationCaps gates every mutating command.
var moderationCaps = []Capability{CapManageChannels, CapManageMessages, CapKickMembers}

// Request is one parsed inbound command with its calling identity.
type Request struct {
	Command   string
	Args      []string
	AuthorID  string
	ChannelID string
	GuildID   string
	// GuildText is true when the source is a persistent guild text
	// channel (not a DM or an ephemeral channel).
	GuildText bool
	// SentAt is the platform timestamp of the message, for ping.
	SentAt time.Time
}

// Session is the platform surface the dispatcher talks back through.
type Session interface {
	Reply(ctx context.Context, channelID, text string) error
	SendRant(ctx context.Context, channelID string, entry corpus.Entry) error
	// HasAnyCapability reports whether the caller holds at least one of
	// the capabilities in the invoking channel.
	HasAnyCapability(channelID, userID string, caps ...Capability) (bool, error)
	// GatewayLatency is the platform connection heartbeat latency.
	GatewayLatency() time.Duration
}

// ParseRequest splits raw message content into a command word and args.
// Returns false when the content does not start with the prefix. A bare
// prefix yields an empty command, which routes to the help branch. The
// command word is matched case-insensitively.
func ParseRequest(prefix, content string) (command string, args []string, ok bool) {
	if !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, true
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
