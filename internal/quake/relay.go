package quake

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/sh1ma/hibikase/internal/models"
	"github.com/sh1ma/hibikase/internal/store"
)

// FeedClient yields recent earthquake events, newest first.
type FeedClient interface {
	RecentEvents(ctx context.Context) ([]Event, error)
}

// Messenger is the slice of the Discord session the relay posts through.
type Messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Relay polls the feed and announces new events to every registered guild
// whose scale threshold they meet. The per-guild last_event_id column is the
// relay cursor.
type Relay struct {
	configs   *store.ConfigStore[models.QuakeConfig]
	client    FeedClient
	messenger Messenger
	interval  time.Duration
	log       *zap.SugaredLogger

	done chan struct{}
}

func NewRelay(configs *store.ConfigStore[models.QuakeConfig], client FeedClient, messenger Messenger, interval time.Duration, log *zap.SugaredLogger) *Relay {
	return &Relay{
		configs:   configs,
		client:    client,
		messenger: messenger,
		interval:  interval,
		log:       log,
		done:      make(chan struct{}),
	}
}

func (r *Relay) Start() {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				return
			case <-ticker.C:
				r.poll()
			}
		}
	}()
}

func (r *Relay) Stop() {
	close(r.done)
}

func (r *Relay) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	events, err := r.client.RecentEvents(ctx)
	if err != nil {
		r.log.Errorw("error fetching quake feed", "err", err)
		return
	}
	if len(events) == 0 {
		return
	}

	configs, err := r.configs.List()
	if err != nil {
		r.log.Errorw("error listing quake configs", "err", err)
		return
	}

	for _, cfg := range configs {
		r.relayGuild(cfg, events)
	}
}

func (r *Relay) relayGuild(cfg models.QuakeConfig, events []Event) {
	newest := events[0].ID

	// First poll after registration: set the cursor without replaying the
	// backlog.
	if cfg.LastEventID == "" {
		r.advanceCursor(cfg, newest)
		return
	}

	for _, ev := range Pending(events, cfg.LastEventID) {
		if ev.Earthquake.MaxScale < cfg.MinScale {
			continue
		}
		_, err := r.messenger.ChannelMessageSendComplex(cfg.ChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{eventEmbed(ev)},
		})
		if err != nil {
			r.log.Errorw("error relaying quake event",
				"guild_id", cfg.GuildID, "guild_name", cfg.GuildName,
				"channel_id", cfg.ChannelID, "event_id", ev.ID, "err", err)
		}
	}

	r.advanceCursor(cfg, newest)
}

func (r *Relay) advanceCursor(cfg models.QuakeConfig, eventID string) {
	if cfg.LastEventID == eventID {
		return
	}
	cfg.LastEventID = eventID
	if err := r.configs.Register(cfg); err != nil {
		r.log.Errorw("error advancing quake cursor",
			"guild_id", cfg.GuildID, "err", err)
	}
}

// Pending returns the events newer than the cursor, oldest first so they are
// announced in occurrence order. An unknown cursor (expired out of the feed
// window) yields the whole window.
func Pending(events []Event, lastEventID string) []Event {
	var newer []Event
	for _, ev := range events {
		if ev.ID == lastEventID {
			break
		}
		newer = append(newer, ev)
	}

	// Reverse newest-first into oldest-first.
	for i, j := 0, len(newer)-1; i < j; i, j = i+1, j-1 {
		newer[i], newer[j] = newer[j], newer[i]
	}
	return newer
}

func eventEmbed(ev Event) *discordgo.MessageEmbed {
	eq := ev.Earthquake
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🌏 地震情報 最大震度%s", ScaleName(eq.MaxScale)),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "震源地", Value: orUnknown(eq.Hypocenter.Name), Inline: true},
			{Name: "マグニチュード", Value: magnitude(eq.Hypocenter.Magnitude), Inline: true},
			{Name: "深さ", Value: depth(eq.Hypocenter.Depth), Inline: true},
		},
		Color: scaleColor(eq.MaxScale),
	}
	if eq.DomesticTsunami == "Warning" {
		embed.Description = "⚠️ **津波警報が発表されています**"
	}
	if eq.Time != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: eq.Time}
	}
	return embed
}

// ScaleName maps the feed's scale values to JMA seismic intensity labels.
func ScaleName(scale int) string {
	switch scale {
	case 10:
		return "1"
	case 20:
		return "2"
	case 30:
		return "3"
	case 40:
		return "4"
	case 45:
		return "5弱"
	case 50:
		return "5強"
	case 55:
		return "6弱"
	case 60:
		return "6強"
	case 70:
		return "7"
	default:
		return "不明"
	}
}

func scaleColor(scale int) int {
	switch {
	case scale >= 55:
		return 0xe74c3c
	case scale >= 45:
		return 0xe67e22
	case scale >= 30:
		return 0xf1c40f
	default:
		return 0x3498db
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "不明"
	}
	return s
}

func magnitude(m float64) string {
	if m < 0 {
		return "不明"
	}
	return fmt.Sprintf("M%.1f", m)
}

func depth(d int) string {
	if d < 0 {
		return "不明"
	}
	if d == 0 {
		return "ごく浅い"
	}
	return fmt.Sprintf("%dkm", d)
}
