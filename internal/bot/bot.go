// Package bot wires the Discord gateway to the feature stores: slash
// command handling, reaction tracking and guild lifecycle cleanup.
package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/sh1ma/hibikase/internal/awards"
	"github.com/sh1ma/hibikase/internal/models"
	"github.com/sh1ma/hibikase/internal/store"
)

type Bot struct {
	Session *discordgo.Session

	awardConfigs   *store.ConfigStore[models.AwardConfig]
	awardSchedules *store.ConfigStore[models.AwardSchedule]
	quakeConfigs   *store.ConfigStore[models.QuakeConfig]
	records        *store.RecordStore
	scheduler      *awards.Scheduler

	loc *time.Location
	log *zap.SugaredLogger
}

// Deps are the collaborators the bot drives from gateway events.
type Deps struct {
	AwardConfigs   *store.ConfigStore[models.AwardConfig]
	AwardSchedules *store.ConfigStore[models.AwardSchedule]
	QuakeConfigs   *store.ConfigStore[models.QuakeConfig]
	Records        *store.RecordStore
	Location       *time.Location
}

func New(token string, deps Deps, log *zap.SugaredLogger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	b := &Bot{
		Session:        session,
		awardConfigs:   deps.AwardConfigs,
		awardSchedules: deps.AwardSchedules,
		quakeConfigs:   deps.QuakeConfigs,
		records:        deps.Records,
		loc:            deps.Location,
		log:            log,
	}
	b.registerHandlers()

	return b, nil
}

// SetScheduler attaches the award scheduler. It is wired after construction
// because the scheduler's report pipeline posts through the session this bot
// creates. Must be called before Start.
func (b *Bot) SetScheduler(s *awards.Scheduler) {
	b.scheduler = s
}

func (b *Bot) registerHandlers() {
	b.Session.AddHandler(b.ready)
	b.Session.AddHandler(b.interactionCreate)
	b.Session.AddHandler(b.messageReactionAdd)
	b.Session.AddHandler(b.messageReactionRemove)
	b.Session.AddHandler(b.guildCreate)
	b.Session.AddHandler(b.guildDelete)
}

func (b *Bot) Start() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("opening gateway connection: %w", err)
	}

	// Resume the weekly report timer for every guild registered before
	// this process started.
	configs, err := b.awardConfigs.List()
	if err != nil {
		return fmt.Errorf("listing award configs: %w", err)
	}
	for _, cfg := range configs {
		b.scheduler.Start(cfg.GuildID)
	}

	return nil
}

func (b *Bot) Stop() {
	b.scheduler.StopAll()
	if err := b.Session.Close(); err != nil {
		b.log.Errorw("error closing session", "err", err)
	}
}

func (b *Bot) ready(s *discordgo.Session, _ *discordgo.Ready) {
	b.log.Info("bot is ready")
	b.registerCommands()
	b.updateBotStatus()
}

func (b *Bot) guildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	b.log.Infow("joined guild", "guild_id", event.ID, "guild_name", event.Guild.Name)
	b.updateBotStatus()
}

// guildDelete purges every feature row for a guild the bot was removed from.
// Mere unavailability (outage) keeps the data.
func (b *Bot) guildDelete(s *discordgo.Session, event *discordgo.GuildDelete) {
	if event.Unavailable {
		b.log.Infow("guild became unavailable", "guild_id", event.ID)
		return
	}

	b.log.Infow("removed from guild, cleaning up", "guild_id", event.ID)
	b.scheduler.Stop(event.ID)

	if err := b.awardConfigs.Unregister(event.ID); err != nil {
		b.log.Errorw("error deleting award config", "guild_id", event.ID, "err", err)
	}
	if err := b.awardSchedules.Unregister(event.ID); err != nil {
		b.log.Errorw("error deleting award schedule", "guild_id", event.ID, "err", err)
	}
	if err := b.quakeConfigs.Unregister(event.ID); err != nil {
		b.log.Errorw("error deleting quake config", "guild_id", event.ID, "err", err)
	}
	if err := b.records.DeleteGuild(event.ID); err != nil {
		b.log.Errorw("error deleting tracked messages", "guild_id", event.ID, "err", err)
	}

	b.updateBotStatus()
}

func (b *Bot) updateBotStatus() {
	status := fmt.Sprintf("%d サーバーを見守り中", len(b.Session.State.Guilds))
	err := b.Session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{Name: status, Type: discordgo.ActivityTypeWatching},
		},
	})
	if err != nil {
		b.log.Errorw("error updating status", "err", err)
	}
}

// guildName resolves a guild's display name for snapshots and log context.
func (b *Bot) guildName(s *discordgo.Session, guildID string) string {
	if g, err := s.State.Guild(guildID); err == nil && g.Name != "" {
		return g.Name
	}
	if g, err := s.Guild(guildID); err == nil {
		return g.Name
	}
	return "Unknown Server"
}

func (b *Bot) channelName(s *discordgo.Session, channelID string) string {
	if ch, err := s.State.Channel(channelID); err == nil && ch.Name != "" {
		return ch.Name
	}
	if ch, err := s.Channel(channelID); err == nil {
		return ch.Name
	}
	return "Unknown Channel"
}
