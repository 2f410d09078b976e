// Package broadcast fans the day's rant out to every granted channel.
package broadcast

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"rantbot/internal/corpus"
	"rantbot/internal/rant"
	"rantbot/internal/registry"
	"rantbot/internal/storage"
)

// Sender delivers one rant to one channel. Implemented by the Discord
// adapter; fakes stand in for it in tests.
type Sender interface {
	SendRant(ctx context.Context, channelID string, entry corpus.Entry) error
}

// EntrySource is what the broadcaster needs from the corpus store.
type EntrySource interface {
	Entries() []corpus.Entry
}

// Broadcaster runs the scheduled fire: pick the date-indexed entry, then
// send it to a snapshot of the registry. Sends are best-effort and
// isolated — one channel failing never blocks the rest.
type Broadcaster struct {
	log      zerolog.Logger
	store    EntrySource
	selector *rant.Selector
	reg      *registry.Registry
	sender   Sender
	recorder storage.Recorder
	limiter  *rate.Limiter
}

func New(store EntrySource, selector *rant.Selector, reg *registry.Registry, sender Sender, recorder storage.Recorder, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		log:      log,
		store:    store,
		selector: selector,
		reg:      reg,
		sender:   sender,
		recorder: recorder,
		// Discord allows bursts but sustained sends should be paced.
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

// Fire is the scheduler's job body. Selection failures abort the fire
// quietly; delivery failures are logged and recorded per channel.
func (b *Broadcaster) Fire(ctx context.Context) {
	entry, err := b.selector.Pick(b.store.Entries(), rant.DateIndexed)
	if err != nil {
		b.log.Error().Err(err).Msg("scheduled fire aborted: no entry to send")
		return
	}

	targets := b.reg.All()
	if len(targets) == 0 {
		b.log.Debug().Msg("scheduled fire: no granted channels")
		return
	}

	start := time.Now()
	failed := 0
	for _, ch := range targets {
		if err := b.limiter.Wait(ctx); err != nil {
			b.log.Warn().Err(err).Msg("fan-out interrupted")
			return
		}
		err := b.sender.SendRant(ctx, ch.ID, entry)
		if err != nil {
			failed++
			b.log.Warn().Err(err).Str("channel", ch.ID).Str("guild", ch.GuildID).Msg("delivery failed")
		}
		b.record(ctx, ch, entry, err)
	}

	evt := b.log.Info()
	if failed > 0 {
		evt = b.log.Warn()
	}
	evt.Int("total", len(targets)).Int("failed", failed).
		Str("entry_date", entry.Date).Dur("took", time.Since(start)).
		Msg("scheduled rant sent")
}

func (b *Broadcaster) record(ctx context.Context, ch registry.Channel, entry corpus.Entry, sendErr error) {
	d := storage.Delivery{
		At:        time.Now(),
		ChannelID: ch.ID,
		GuildID:   ch.GuildID,
		EntryDate: entry.Date,
		OK:        sendErr == nil,
	}
	if sendErr != nil {
		d.Error = sendErr.Error()
	}
	if err := b.recorder.RecordDelivery(ctx, d); err != nil {
		b.log.Warn().Err(err).Msg("delivery history write failed")
	}
}
