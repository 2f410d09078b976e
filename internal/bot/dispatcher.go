package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rantbot/internal/corpus"
	"rantbot/internal/rant"
	"rantbot/internal/registry"
	"rantbot/internal/scheduler"
)

type Dispatcher struct {
	log      zerolog.Logger
	store    EntryStore
	selector *rant.Selector
	reg      *registry.Registry
	sched    *scheduler.Scheduler
	session  Session
}

// EntryStore is what the dispatcher needs from the corpus store.
type EntryStore interface {
	Entries() []corpus.Entry
}

func NewDispatcher(store EntryStore, selector *rant.Selector, reg *registry.Registry, sched *scheduler.Scheduler, session Session, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		log:      log,
		store:    store,
		selector: selector,
		reg:      reg,
		sched:    sched,
		session:  session,
	}
}

// Run consumes parsed requests until ctx is done. Commands are handled one
// at a time, in arrival order.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan Request) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-updates:
			d.Handle(ctx, req)
		}
	}
}

// Handle routes one command. Failures are converted to user-visible replies
// or log entries; nothing escapes to crash the caller.
func (d *Dispatcher) Handle(ctx context.Context, req Request) {
	switch req.Command {
	case "rant":
		d.handleRant(ctx, req)
	case "grant":
		if len(req.Args) > 0 && strings.EqualFold(req.Args[0], "list") {
			d.handleGrantList(ctx, req)
			return
		}
		d.handleGrant(ctx, req)
	case "deny":
		d.handleDeny(ctx, req)
	case "settime":
		d.handleSetTime(ctx, req)
	case "ping":
		d.handlePing(ctx, req)
	default:
		d.reply(ctx, req.ChannelID, helpText())
	}
}

func (d *Dispatcher) handleRant(ctx context.Context, req Request) {
	strategy := rant.Random
	if len(req.Args) > 0 && strings.EqualFold(req.Args[0], "today") {
		strategy = rant.DateIndexed
	}
	entry, err := d.selector.Pick(d.store.Entries(), strategy)
	if err != nil {
		d.log.Error().Err(err).Msg("rant command aborted")
		d.reply(ctx, req.ChannelID, "I have nothing to rant about. That alone is worth ranting about.")
		return
	}
	if err := d.session.SendRant(ctx, req.ChannelID, entry); err != nil {
		d.log.Warn().Err(err).Str("channel", req.ChannelID).Msg("rant delivery failed")
	}
}

func (d *Dispatcher) handleGrant(ctx context.Context, req Request) {
	if !d.authorize(ctx, req) {
		return
	}
	if !req.GuildText {
		d.reply(ctx, req.ChannelID, "Scheduled rants only go to regular server text channels.")
		return
	}
	d.reg.Grant(registry.Channel{ID: req.ChannelID, GuildID: req.GuildID})
	d.reply(ctx, req.ChannelID, "This channel will now receive scheduled rants.")
}

func (d *Dispatcher) handleGrantList(ctx context.Context, req Request) {
	channels := d.reg.List(req.GuildID)
	if len(channels) == 0 {
		d.reply(ctx, req.ChannelID, "No channels in this server receive scheduled rants.")
		return
	}
	lines := make([]string, 0, len(channels)+1)
	lines = append(lines, "Channels receiving scheduled rants:")
	for _, ch := range channels {
		lines = append(lines, "- <#"+ch.ID+">")
	}
	d.reply(ctx, req.ChannelID, strings.Join(lines, "\n"))
}

func (d *Dispatcher) handleDeny(ctx context.Context, req Request) {
	if !d.authorize(ctx, req) {
		return
	}
	d.reg.Deny(req.ChannelID, req.GuildID)
	d.reply(ctx, req.ChannelID, "This channel no longer receives scheduled rants.")
}

func (d *Dispatcher) handleSetTime(ctx context.Context, req Request) {
	if !d.authorize(ctx, req) {
		return
	}
	if len(req.Args) == 0 {
		d.reply(ctx, req.ChannelID, "Usage: settime <second minute hour day-of-month month day-of-week>")
		return
	}
	expr := strings.Join(req.Args, " ")
	if err := d.sched.Reconfigure(ctx, expr); err != nil {
		d.log.Debug().Err(err).Str("expr", expr).Msg("settime rejected")
		d.reply(ctx, req.ChannelID, fmt.Sprintf("That is not a valid six-field cron expression: %q", expr))
		return
	}
	msg := fmt.Sprintf("Rant schedule set to `%s`.", expr)
	if next := d.sched.Next(); !next.IsZero() {
		msg += " Next rant: " + next.Format(time.RFC1123)
	}
	d.reply(ctx, req.ChannelID, msg)
}

func (d *Dispatcher) handlePing(ctx context.Context, req Request) {
	roundTrip := time.Since(req.SentAt).Round(time.Millisecond)
	gateway := d.session.GatewayLatency().Round(time.Millisecond)
	d.reply(ctx, req.ChannelID, fmt.Sprintf("Pong! Round-trip: %s. Gateway: %s.", roundTrip, gateway))
}

// authorize checks the moderation capabilities and replies with a rejection
// when the caller holds none. Resolution errors count as unauthorized.
func (d *Dispatcher) authorize(ctx context.Context, req Request) bool {
	ok, err := d.session.HasAnyCapability(req.ChannelID, req.AuthorID, moderationCaps...)
	if err != nil {
		d.log.Warn().Err(err).Str("user", req.AuthorID).Str("channel", req.ChannelID).Msg("capability resolution failed")
		ok = false
	}
	if !ok {
		d.reply(ctx, req.ChannelID, "You don't get to decide where I rant.")
	}
	return ok
}

func (d *Dispatcher) reply(ctx context.Context, channelID, text string) {
	if err := d.session.Reply(ctx, channelID, text); err != nil {
		d.log.Warn().Err(err).Str("channel", channelID).Msg("reply failed")
	}
}
