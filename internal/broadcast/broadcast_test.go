package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rantbot/internal/corpus"
	"rantbot/internal/rant"
	"rantbot/internal/registry"
	"rantbot/internal/storage"
)

type fakeSource struct{ entries []corpus.Entry }

func (f *fakeSource) Entries() []corpus.Entry { return f.entries }

type fakeSender struct {
	failFor map[string]bool
	sent    []string
}

func (f *fakeSender) SendRant(_ context.Context, channelID string, _ corpus.Entry) error {
	if f.failFor[channelID] {
		return errors.New("send failed")
	}
	f.sent = append(f.sent, channelID)
	return nil
}

type fakeRecorder struct {
	records []storage.Delivery
}

func (f *fakeRecorder) RecordDelivery(_ context.Context, d storage.Delivery) error {
	f.records = append(f.records, d)
	return nil
}

func (f *fakeRecorder) Close() error { return nil }

func newBroadcaster(sender *fakeSender, rec storage.Recorder, channels ...registry.Channel) *Broadcaster {
	source := &fakeSource{entries: []corpus.Entry{
		{Date: "2024-01-01", Category: corpus.CategoryCode, Text: "A"},
		{Date: "2024-01-02", Category: corpus.CategoryCode, Text: "B"},
	}}
	now := time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC)
	selector := rant.NewSelector(time.UTC).WithNow(func() time.Time { return now })
	reg := registry.New()
	for _, ch := range channels {
		reg.Grant(ch)
	}
	return New(source, selector, reg, sender, rec, zerolog.Nop())
}

func TestFireFansOutToAllChannels(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	rec := &fakeRecorder{}
	b := newBroadcaster(sender, rec,
		registry.Channel{ID: "c1", GuildID: "g1"},
		registry.Channel{ID: "c2", GuildID: "g1"},
		registry.Channel{ID: "c3", GuildID: "g2"},
	)

	b.Fire(context.Background())

	if len(sender.sent) != 3 {
		t.Fatalf("sent to %d channels, want 3", len(sender.sent))
	}
	if len(rec.records) != 3 {
		t.Fatalf("recorded %d deliveries, want 3", len(rec.records))
	}
	// date-indexed entry for 2024-01-02 over a 2-entry corpus
	for _, r := range rec.records {
		if r.EntryDate != "2024-01-02" {
			t.Fatalf("EntryDate = %q, want 2024-01-02", r.EntryDate)
		}
	}
}

func TestFireIsolatesPerChannelFailures(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{failFor: map[string]bool{"c2": true}}
	rec := &fakeRecorder{}
	b := newBroadcaster(sender, rec,
		registry.Channel{ID: "c1", GuildID: "g1"},
		registry.Channel{ID: "c2", GuildID: "g1"},
		registry.Channel{ID: "c3", GuildID: "g2"},
	)

	b.Fire(context.Background())

	if len(sender.sent) != 2 {
		t.Fatalf("sent to %d channels, want 2 (failure must not abort the fan-out)", len(sender.sent))
	}
	failed := 0
	for _, r := range rec.records {
		if !r.OK {
			failed++
			if r.ChannelID != "c2" {
				t.Fatalf("failed channel = %q, want c2", r.ChannelID)
			}
			if r.Error == "" {
				t.Fatal("failed delivery recorded without an error")
			}
		}
	}
	if failed != 1 {
		t.Fatalf("recorded %d failures, want 1", failed)
	}
}

func TestFireWithNoChannelsSendsNothing(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	rec := &fakeRecorder{}
	b := newBroadcaster(sender, rec)

	b.Fire(context.Background())

	if len(sender.sent) != 0 || len(rec.records) != 0 {
		t.Fatalf("sent=%v records=%v, want none", sender.sent, rec.records)
	}
}

func TestFireEmptyCorpusAborts(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	selector := rant.NewSelector(time.UTC)
	reg := registry.New()
	reg.Grant(registry.Channel{ID: "c1", GuildID: "g1"})
	b := New(&fakeSource{}, selector, reg, sender, storage.NopRecorder{}, zerolog.Nop())

	b.Fire(context.Background())

	if len(sender.sent) != 0 {
		t.Fatalf("sent = %v, want none with an empty corpus", sender.sent)
	}
}
