package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/sh1ma/hibikase/internal/models"
	"github.com/sh1ma/hibikase/internal/quake"
)

var weekdayNames = [7]string{"日曜日", "月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日"}

func (b *Bot) interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID == "" {
		b.respondEphemeral(s, i, "このコマンドはサーバー内でのみ使えます。")
		return
	}
	if !hasManageGuild(i) {
		b.respondEphemeral(s, i, "このコマンドには「サーバー管理」権限が必要です。")
		return
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]

	switch data.Name {
	case "awards":
		b.handleAwards(s, i, sub)
	case "quake":
		b.handleQuake(s, i, sub)
	}
}

func hasManageGuild(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionManageGuild != 0
}

// --- awards ---

func (b *Bot) handleAwards(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	if !b.deferResponse(s, i) {
		return
	}

	switch sub.Name {
	case "register":
		b.handleAwardsRegister(s, i, sub)
	case "update":
		b.handleAwardsUpdate(s, i, sub)
	case "unregister":
		b.handleAwardsUnregister(s, i)
	case "status":
		b.handleAwardsStatus(s, i)
	}
}

func (b *Bot) handleAwardsRegister(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(sub.Options)

	channel := opts["channel"].ChannelValue(s)
	if channel == nil || channel.Type != discordgo.ChannelTypeGuildText {
		b.editResponse(s, i, "テキストチャンネルを指定してください。")
		return
	}

	cfg := models.AwardConfig{
		GuildID:      i.GuildID,
		GuildName:    b.guildName(s, i.GuildID),
		ChannelName:  channel.Name,
		MinReactions: int(opts["min_reactions"].IntValue()),
		Ranks:        int(opts["ranks"].IntValue()),
	}
	sched := models.AwardSchedule{
		GuildID: i.GuildID,
		Weekday: int(opts["weekday"].IntValue()),
		Hour:    int(opts["hour"].IntValue()),
		Minute:  int(opts["minute"].IntValue()),
	}

	if err := b.awardConfigs.Register(cfg); err != nil {
		b.log.Errorw("error registering award config", "guild_id", i.GuildID, "err", err)
		b.editResponse(s, i, "設定の保存に失敗しました。")
		return
	}
	if err := b.awardSchedules.Register(sched); err != nil {
		b.log.Errorw("error registering award schedule", "guild_id", i.GuildID, "err", err)
		b.editResponse(s, i, "発表時刻の保存に失敗しました。")
		return
	}

	b.scheduler.Start(i.GuildID)

	b.editResponse(s, i, fmt.Sprintf(
		"✅ リアクション大賞を有効にしました。毎週%s %02d:%02d に #%s で発表します。",
		weekdayNames[sched.Weekday], sched.Hour, sched.Minute, cfg.ChannelName,
	))
}

func (b *Bot) handleAwardsUpdate(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	cfg, err := b.awardConfigs.Get(i.GuildID)
	if err != nil {
		b.log.Errorw("error reading award config", "guild_id", i.GuildID, "err", err)
		b.editResponse(s, i, "設定の読み込みに失敗しました。")
		return
	}
	sched, schedErr := b.awardSchedules.Get(i.GuildID)
	if schedErr != nil {
		b.log.Errorw("error reading award schedule", "guild_id", i.GuildID, "err", schedErr)
		b.editResponse(s, i, "設定の読み込みに失敗しました。")
		return
	}
	if cfg == nil || sched == nil {
		b.editResponse(s, i, "リアクション大賞はまだ登録されていません。`/awards register` を使ってください。")
		return
	}

	for name, opt := range optionMap(sub.Options) {
		switch name {
		case "channel":
			channel := opt.ChannelValue(s)
			if channel == nil || channel.Type != discordgo.ChannelTypeGuildText {
				b.editResponse(s, i, "テキストチャンネルを指定してください。")
				return
			}
			cfg.ChannelName = channel.Name
		case "min_reactions":
			cfg.MinReactions = int(opt.IntValue())
		case "ranks":
			cfg.Ranks = int(opt.IntValue())
		case "weekday":
			sched.Weekday = int(opt.IntValue())
		case "hour":
			sched.Hour = int(opt.IntValue())
		case "minute":
			sched.Minute = int(opt.IntValue())
		}
	}
	cfg.GuildName = b.guildName(s, i.GuildID)

	if err := b.awardConfigs.Register(*cfg); err != nil {
		b.log.Errorw("error updating award config", "guild_id", i.GuildID, "err", err)
		b.editResponse(s, i, "設定の保存に失敗しました。")
		return
	}
	if err := b.awardSchedules.Register(*sched); err != nil {
		b.log.Errorw("error updating award schedule", "guild_id", i.GuildID, "err", err)
		b.editResponse(s, i, "発表時刻の保存に失敗しました。")
		return
	}

	b.scheduler.Start(i.GuildID)

	b.editResponse(s, i, fmt.Sprintf(
		"✅ 設定を更新しました。毎週%s %02d:%02d に #%s で発表します。",
		weekdayNames[sched.Weekday], sched.Hour, sched.Minute, cfg.ChannelName,
	))
}

func (b *Bot) handleAwardsUnregister(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.scheduler.Stop(i.GuildID)

	if err := b.awardConfigs.Unregister(i.GuildID); err != nil {
		b.log.Errorw("error unregistering award config", "guild_id", i.GuildID, "err", err)
		b.editResponse(s, i, "設定の削除に失敗しました。")
		return
	}
	if err := b.awardSchedules.Unregister(i.GuildID); err != nil {
		b.log.Errorw("error unregistering award schedule", "guild_id", i.GuildID, "err", err)
	}
	if err := b.records.DeleteGuild(i.GuildID); err != nil {
		b.log.Errorw("error deleting tracked messages", "guild_id", i.GuildID, "err", err)
	}

	b.editResponse(s, i, "✅ リアクション大賞を無効にしました。")
}

func (b *Bot) handleAwardsStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg, err := b.awardConfigs.Get(i.GuildID)
	if err != nil {
		b.log.Errorw("error reading award config", "guild_id", i.GuildID, "err", err)
		b.editResponse(s, i, "設定の読み込みに失敗しました。")
		return
	}
	if cfg == nil {
		b.editResponse(s, i, "リアクション大賞はまだ登録されていません。")
		return
	}

	schedule := "未設定"
	if sched, err := b.awardSchedules.Get(i.GuildID); err == nil && sched != nil {
		schedule = fmt.Sprintf("毎週%s %02d:%02d", weekdayNames[sched.Weekday], sched.Hour, sched.Minute)
	}

	b.editResponseEmbed(s, i, &discordgo.MessageEmbed{
		Title: "リアクション大賞の設定",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "発表チャンネル", Value: "#" + cfg.ChannelName, Inline: true},
			{Name: "発表時刻", Value: schedule, Inline: true},
			{Name: "最低リアクション数", Value: fmt.Sprintf("%d", cfg.MinReactions), Inline: true},
			{Name: "発表する順位", Value: fmt.Sprintf("%d", cfg.Ranks), Inline: true},
		},
	})
}

// --- quake ---

func (b *Bot) handleQuake(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	if !b.deferResponse(s, i) {
		return
	}

	switch sub.Name {
	case "register":
		b.handleQuakeRegister(s, i, sub)
	case "update":
		b.handleQuakeUpdate(s, i, sub)
	case "unregister":
		b.handleQuakeUnregister(s, i)
	case "status":
		b.handleQuakeStatus(s, i)
	}
}

func (b *Bot) handleQuakeRegister(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(sub.Options)

	channel := opts["channel"].ChannelValue(s)
	if channel == nil || channel.Type != discordgo.ChannelTypeGuildText {
		b.editResponse(s, i, "テキストチャンネルを指定してください。")
		return
	}

	// A re-register keeps the existing relay cursor so the backlog is not
	// replayed.
	lastEventID := ""
	if existing, err := b.quakeConfigs.Get(i.GuildID); err == nil && existing != nil {
		lastEventID = existing.LastEventID
	}

	cfg := models.QuakeConfig{
		GuildID:     i.GuildID,
		GuildName:   b.guildName(s, i.GuildID),
		ChannelID:   channel.ID,
		ChannelName: channel.Name,
		MinScale:    int(opts["min_scale"].IntValue()),
		LastEventID: lastEventID,
	}
	if err := b.quakeConfigs.Register(cfg); err != nil {
		b.log.Errorw("error registering quake config", "guild_id", i.GuildID, "err", err)
		b.editResponse(s, i, "設定の保存に失敗しました。")
		return
	}

	b.editResponse(s, i, fmt.Sprintf(
		"✅ 地震情報を有効にしました。震度%s以上を #%s に通知します。",
		quake.ScaleName(cfg.MinScale), cfg.ChannelName,
	))
}

func (b *Bot) handleQuakeUpdate(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	cfg, err := b.quakeConfigs.Get(i.GuildID)
	if err != nil {
		b.log.Errorw("error reading quake config", "guild_id", i.GuildID, "err", err)
		b.editResponse(s, i, "設定の読み込みに失敗しました。")
		return
	}
	if cfg == nil {
		b.editResponse(s, i, "地震情報はまだ登録されていません。`/quake register` を使ってください。")
		return
	}

	for name, opt := range optionMap(sub.Options) {
		switch name {
		case "channel":
			channel := opt.ChannelValue(s)
			if channel == nil || channel.Type != discordgo.ChannelTypeGuildText {
				b.editResponse(s, i, "テキストチャンネルを指定してください。")
				return
			}
			cfg.ChannelID = channel.ID
			cfg.ChannelName = channel.Name
		case "min_scale":
			cfg.MinScale = int(opt.IntValue())
		}
	}
	cfg.GuildName = b.guildName(s, i.GuildID)

	if err := b.quakeConfigs.Register(*cfg); err != nil {
		b.log.Errorw("error updating quake config", "guild_id", i.GuildID, "err", err)
		b.editResponse(s, i, "設定の保存に失敗しました。")
		return
	}

	b.editResponse(s, i, fmt.Sprintf(
		"✅ 設定を更新しました。震度%s以上を #%s に通知します。",
		quake.ScaleName(cfg.MinScale), cfg.ChannelName,
	))
}

func (b *Bot) handleQuakeUnregister(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := b.quakeConfigs.Unregister(i.GuildID); err != nil {
		b.log.Errorw("error unregistering quake config", "guild_id", i.GuildID, "err", err)
		b.editResponse(s, i, "設定の削除に失敗しました。")
		return
	}
	b.editResponse(s, i, "✅ 地震情報を無効にしました。")
}

func (b *Bot) handleQuakeStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg, err := b.quakeConfigs.Get(i.GuildID)
	if err != nil {
		b.log.Errorw("error reading quake config", "guild_id", i.GuildID, "err", err)
		b.editResponse(s, i, "設定の読み込みに失敗しました。")
		return
	}
	if cfg == nil {
		b.editResponse(s, i, "地震情報はまだ登録されていません。")
		return
	}

	b.editResponseEmbed(s, i, &discordgo.MessageEmbed{
		Title: "地震情報の設定",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "通知チャンネル", Value: "#" + cfg.ChannelName, Inline: true},
			{Name: "通知する最小震度", Value: "震度" + quake.ScaleName(cfg.MinScale), Inline: true},
		},
	})
}

// --- reply helpers ---

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Errorw("error responding to interaction", "err", err)
	}
}

func (b *Bot) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		b.log.Errorw("error deferring interaction", "err", err)
		return false
	}
	return true
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		b.log.Errorw("error editing interaction response", "err", err)
	}
}

func (b *Bot) editResponseEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	embeds := []*discordgo.MessageEmbed{embed}
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &embeds,
	})
	if err != nil {
		b.log.Errorw("error editing interaction response", "err", err)
	}
}
