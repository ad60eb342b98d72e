package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/sh1ma/hibikase/internal/models"
)

func (b *Bot) messageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	b.refreshTracked(s, r.GuildID, r.ChannelID, r.MessageID)
}

func (b *Bot) messageReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	b.refreshTracked(s, r.GuildID, r.ChannelID, r.MessageID)
}

// refreshTracked re-fetches the reacted message and overwrites its tracked
// row with the current total. The count is always re-read from the message,
// never accumulated locally, so add and remove events share one code path.
func (b *Bot) refreshTracked(s *discordgo.Session, guildID, channelID, messageID string) {
	if guildID == "" {
		return
	}

	cfg, err := b.awardConfigs.Get(guildID)
	if err != nil {
		b.log.Errorw("error reading award config", "guild_id", guildID, "err", err)
		return
	}
	if cfg == nil {
		return
	}

	msg, err := s.ChannelMessage(channelID, messageID)
	if err != nil {
		// The message (or its channel) is gone; stop tracking it.
		b.log.Infow("reacted message no longer fetchable, dropping",
			"guild_id", guildID, "channel_id", channelID, "message_id", messageID, "err", err)
		if err := b.records.Delete(guildID, channelID, messageID); err != nil {
			b.log.Errorw("error deleting tracked message", "message_id", messageID, "err", err)
		}
		return
	}

	if msg.Author == nil || msg.Author.Bot {
		return
	}

	total := 0
	for _, reaction := range msg.Reactions {
		total += reaction.Count
	}

	if total <= 0 {
		if err := b.records.Delete(guildID, channelID, messageID); err != nil {
			b.log.Errorw("error deleting tracked message", "message_id", messageID, "err", err)
		}
		return
	}

	record := models.TrackedMessage{
		GuildID:       guildID,
		ChannelID:     channelID,
		MessageID:     messageID,
		GuildName:     b.guildName(s, guildID),
		ChannelName:   b.channelName(s, channelID),
		Content:       msg.Content,
		AuthorID:      msg.Author.ID,
		AuthorName:    msg.Author.Username,
		AuthorAvatar:  msg.Author.AvatarURL("64"),
		URL:           fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID),
		ReactionCount: total,
		PostedAt:      msg.Timestamp.UTC(),
	}
	if err := b.records.Set(record); err != nil {
		b.log.Errorw("error upserting tracked message",
			"guild_id", guildID, "guild_name", record.GuildName,
			"channel_name", record.ChannelName, "message_id", messageID, "err", err)
	}
}
