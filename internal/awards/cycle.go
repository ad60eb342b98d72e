package awards

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/sh1ma/hibikase/internal/store"
)

// Tracked messages older than this are pruned at the start of every cycle.
const retentionDays = 7

// ChannelResolver is the slice of the Discord session used to find the
// report channel by name.
type ChannelResolver interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
}

// Reporter runs one full report cycle for a guild: prune, tally, compose,
// send. It implements CycleRunner for the scheduler.
type Reporter struct {
	configs  ConfigSource
	records  *store.RecordStore
	resolver ChannelResolver
	composer *Composer
	loc      *time.Location
	log      *zap.SugaredLogger
}

func NewReporter(configs ConfigSource, records *store.RecordStore, resolver ChannelResolver, composer *Composer, loc *time.Location, log *zap.SugaredLogger) *Reporter {
	return &Reporter{
		configs:  configs,
		records:  records,
		resolver: resolver,
		composer: composer,
		loc:      loc,
		log:      log,
	}
}

// RunCycle never returns an error: a failed cycle is logged and the
// scheduler reschedules next week's run regardless.
func (r *Reporter) RunCycle(guildID string) {
	cfg, err := r.configs.Get(guildID)
	if err != nil {
		r.log.Errorw("error reading award config", "guild_id", guildID, "err", err)
		return
	}
	if cfg == nil {
		r.log.Infow("award config gone, skipping cycle", "guild_id", guildID)
		return
	}

	pruned, err := r.records.DeleteOutdated(guildID, retentionDays)
	if err != nil {
		r.log.Errorw("error pruning tracked messages",
			"guild_id", guildID, "guild_name", cfg.GuildName, "err", err)
	} else if pruned > 0 {
		r.log.Infow("pruned outdated tracked messages",
			"guild_id", guildID, "count", pruned)
		if err := r.records.Reclaim(); err != nil {
			r.log.Errorw("error reclaiming storage", "err", err)
		}
	}

	// Channel resolution failing (guild or channel gone) aborts only this
	// cycle's send step; the timer still reschedules.
	channelID, ok := r.resolveChannel(guildID, cfg.ChannelName, cfg.GuildName)
	if !ok {
		return
	}

	items, err := r.records.All()
	if err != nil {
		r.log.Errorw("error loading tracked messages",
			"guild_id", guildID, "guild_name", cfg.GuildName, "err", err)
		return
	}

	groups := Tally(items, guildID, cfg.MinReactions, cfg.Ranks)
	if len(groups) == 0 {
		r.composer.PostEmpty(channelID)
		return
	}

	r.composer.Post(channelID, BuildBlocks(groups, r.loc))
}

func (r *Reporter) resolveChannel(guildID, channelName, guildName string) (string, bool) {
	channels, err := r.resolver.GuildChannels(guildID)
	if err != nil {
		r.log.Errorw("error listing guild channels",
			"guild_id", guildID, "guild_name", guildName, "err", err)
		return "", false
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == channelName {
			return ch.ID, true
		}
	}
	r.log.Errorw("report channel not found",
		"guild_id", guildID, "guild_name", guildName, "channel_name", channelName)
	return "", false
}
