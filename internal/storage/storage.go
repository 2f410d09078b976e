// Package storage records scheduled-delivery history. It is operational
// bookkeeping only: the channel grants themselves are process-lifetime and
// deliberately never persisted.
package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Delivery is one attempted scheduled send.
type Delivery struct {
	At        time.Time
	ChannelID string
	GuildID   string
	EntryDate string
	OK        bool
	Error     string
}

// Recorder appends delivery records. Implementations must tolerate being
// called from the broadcast loop: a recording failure is logged by the
// caller and never blocks the fan-out.
type Recorder interface {
	RecordDelivery(ctx context.Context, d Delivery) error
	Close() error
}

type Config struct {
	Enabled bool
	Path    string
}

// Open returns the sqlite recorder when enabled, otherwise a nop.
func Open(cfg Config, log zerolog.Logger) (Recorder, error) {
	if !cfg.Enabled {
		return NopRecorder{}, nil
	}
	return openSQLite(cfg, log)
}

// NopRecorder drops all records. Used when history is disabled.
type NopRecorder struct{}

func (NopRecorder) RecordDelivery(context.Context, Delivery) error { return nil }
func (NopRecorder) Close() error                                   { return nil }
