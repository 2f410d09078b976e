// Package app wires the services together and owns their lifecycle.
package app

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"

	"rantbot/internal/bot"
	"rantbot/internal/broadcast"
	"rantbot/internal/config"
	"rantbot/internal/corpus"
	"rantbot/internal/rant"
	"rantbot/internal/registry"
	"rantbot/internal/scheduler"
	"rantbot/internal/storage"
	"rantbot/internal/transport/discord"
	"rantbot/pkg/logx"
)

type App struct {
	cfgm      *config.Manager
	log       zerolog.Logger
	logCloser io.Closer

	adapter    *discord.Adapter
	sched      *scheduler.Scheduler
	recorder   storage.Recorder
	dispatcher *bot.Dispatcher

	updates chan bot.Request
	wg      sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	log, logCloser, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if err != nil {
		return nil, err
	}
	log = log.With().Str("comp", "app").Logger()

	// The bot refuses to start without a corpus: every later selection
	// would fail anyway.
	store, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		return nil, err
	}
	log.Info().Int("entries", store.Len()).Str("path", cfg.Corpus.Path).Msg("corpus loaded")

	// Validated during config load.
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, err
	}

	adapter, err := discord.New(discord.Config{
		Token:  cfg.Discord.Token,
		Prefix: cfg.Discord.Prefix,
	}, log.With().Str("comp", "discord").Logger())
	if err != nil {
		return nil, err
	}

	recorder, err := storage.Open(storage.Config{
		Enabled: cfg.History.Enabled,
		Path:    cfg.History.Path,
	}, log.With().Str("comp", "storage").Logger())
	if err != nil {
		return nil, err
	}

	selector := rant.NewSelector(loc)
	reg := registry.New()

	bcast := broadcast.New(store, selector, reg, adapter, recorder,
		log.With().Str("comp", "broadcast").Logger())

	sched, err := scheduler.New(cfg.Schedule.Cron, loc, bcast.Fire,
		log.With().Str("comp", "scheduler").Logger())
	if err != nil {
		return nil, err
	}

	dispatcher := bot.NewDispatcher(store, selector, reg, sched, adapter,
		log.With().Str("comp", "commands").Logger())

	return &App{
		cfgm:       cfgm,
		log:        log,
		logCloser:  logCloser,
		adapter:    adapter,
		sched:      sched,
		recorder:   recorder,
		dispatcher: dispatcher,
		updates:    make(chan bot.Request, 256),
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	if err := a.adapter.Start(ctx, a.updates); err != nil {
		return err
	}

	a.goRun(func() {
		_ = a.dispatcher.Run(ctx, a.updates)
	})

	// The scheduler must not fire before the gateway is ready.
	a.goRun(func() {
		select {
		case <-ctx.Done():
			return
		case <-a.adapter.Ready():
		}
		if err := a.sched.Start(ctx); err != nil {
			a.log.Error().Err(err).Msg("scheduler start failed")
			return
		}
		if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
			a.log.Debug().Err(err).Msg("sd_notify failed")
		} else if sent {
			a.log.Debug().Msg("sd_notify: ready")
		}
	})

	// Config hot reload: only the logging level is applied live.
	sub := a.cfgm.Subscribe(4)
	a.goRun(func() {
		for {
			select {
			case <-ctx.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				logx.SetLevel(newCfg.Logging.Level)
				a.log.Info().Str("level", newCfg.Logging.Level).Msg("config reloaded")
			}
		}
	})
	a.goRun(func() {
		if err := a.cfgm.Watch(ctx); err != nil {
			a.log.Warn().Err(err).Msg("config watch stopped")
		}
	})

	a.log.Info().Msg("app started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.sched.Stop(ctx)
	if err := a.adapter.Stop(ctx); err != nil {
		a.log.Warn().Err(err).Msg("adapter stop failed")
	}
	if err := a.recorder.Close(); err != nil {
		a.log.Warn().Err(err).Msg("recorder close failed")
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	a.log.Info().Msg("stopped")
	return a.logCloser.Close()
}

func (a *App) goRun(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}
