// Package discord adapts the bwmarrin/discordgo session to the dispatcher:
// inbound messages become bot.Request values on an update channel, and the
// adapter implements bot.Session for everything going back out.
package discord

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"rantbot/internal/bot"
	"rantbot/internal/corpus"
)

type Config struct {
	Token  string
	Prefix string
}

type Adapter struct {
	cfg Config
	log zerolog.Logger

	session *discordgo.Session

	readyOnce sync.Once
	ready     chan struct{}

	out chan<- bot.Request
}

func New(cfg Config, log zerolog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("discord token is empty")
	}
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	return &Adapter{cfg: cfg, log: log, session: s, ready: make(chan struct{})}, nil
}

// Start opens the gateway connection and begins feeding parsed commands into
// out. Updates are dropped with a warning when the consumer lags.
func (a *Adapter) Start(ctx context.Context, out chan<- bot.Request) error {
	a.out = out
	a.session.AddHandler(a.onReady)
	a.session.AddHandler(a.onMessageCreate)
	if err := a.session.Open(); err != nil {
		return err
	}
	a.log.Info().Msg("gateway connection opened")
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	return a.session.Close()
}

// Ready is closed once the gateway reports connected and authenticated.
// Nothing may broadcast before this.
func (a *Adapter) Ready() <-chan struct{} { return a.ready }

func (a *Adapter) onReady(s *discordgo.Session, r *discordgo.Ready) {
	a.readyOnce.Do(func() {
		a.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("ready")
		close(a.ready)
	})
}

func (a *Adapter) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	command, args, ok := bot.ParseRequest(a.cfg.Prefix, m.Content)
	if !ok {
		return
	}
	req := bot.Request{
		Command:   command,
		Args:      args,
		AuthorID:  m.Author.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		GuildText: a.isGuildText(m),
		SentAt:    m.Timestamp,
	}
	select {
	case a.out <- req:
	default:
		a.log.Warn().Str("command", command).Msg("inbound command dropped (channel full)")
	}
}

func (a *Adapter) isGuildText(m *discordgo.MessageCreate) bool {
	if m.GuildID == "" {
		return false
	}
	ch, err := a.session.State.Channel(m.ChannelID)
	if err != nil {
		if ch, err = a.session.Channel(m.ChannelID); err != nil {
			a.log.Debug().Err(err).Str("channel", m.ChannelID).Msg("channel lookup failed")
			return false
		}
	}
	return ch.Type == discordgo.ChannelTypeGuildText
}

// --- bot.Session ---

func (a *Adapter) Reply(ctx context.Context, channelID, text string) error {
	_, err := a.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return err
}

// categoryColors picks the embed accent per rant category.
var categoryColors = map[corpus.Category]int{
	corpus.CategoryCode:     0xe74c3c,
	corpus.CategoryPersonal: 0x3498db,
	corpus.CategoryBoth:     0x9b59b6,
	corpus.CategoryUnsure:   0x95a5a6,
}

func (a *Adapter) SendRant(ctx context.Context, channelID string, entry corpus.Entry) error {
	embed := &discordgo.MessageEmbed{
		Title:       "Rant — " + string(entry.Category),
		Description: entry.Text,
		Color:       categoryColors[entry.Category],
		Footer: &discordgo.MessageEmbedFooter{
			Text: entry.Source + " · " + entry.Date,
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	_, err := a.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	return err
}

// capabilityBits maps dispatcher capabilities to Discord permission bits.
var capabilityBits = map[bot.Capability]int64{
	bot.CapManageChannels: discordgo.PermissionManageChannels,
	bot.CapManageMessages: discordgo.PermissionManageMessages,
	bot.CapKickMembers:    discordgo.PermissionKickMembers,
}

func (a *Adapter) HasAnyCapability(channelID, userID string, caps ...bot.Capability) (bool, error) {
	perms, err := a.session.UserChannelPermissions(userID, channelID)
	if err != nil {
		return false, err
	}
	for _, c := range caps {
		if perms&capabilityBits[c] != 0 {
			return true, nil
		}
	}
	return false, nil
}

func (a *Adapter) GatewayLatency() time.Duration {
	return a.session.HeartbeatLatency()
}
