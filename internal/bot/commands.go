package bot

import (
	"github.com/bwmarrin/discordgo"
)

var weekdayChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "日曜日", Value: 0},
	{Name: "月曜日", Value: 1},
	{Name: "火曜日", Value: 2},
	{Name: "水曜日", Value: 3},
	{Name: "木曜日", Value: 4},
	{Name: "金曜日", Value: 5},
	{Name: "土曜日", Value: 6},
}

var scaleChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "震度1以上", Value: 10},
	{Name: "震度2以上", Value: 20},
	{Name: "震度3以上", Value: 30},
	{Name: "震度4以上", Value: 40},
	{Name: "震度5弱以上", Value: 45},
	{Name: "震度5強以上", Value: 50},
	{Name: "震度6弱以上", Value: 55},
	{Name: "震度6強以上", Value: 60},
	{Name: "震度7", Value: 70},
}

func awardsOptions(required bool) []*discordgo.ApplicationCommandOption {
	one := float64(1)
	zero := float64(0)
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionChannel,
			Name:        "channel",
			Description: "結果を投稿するチャンネル",
			Required:    required,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "min_reactions",
			Description: "集計対象とする最低リアクション数",
			Required:    required,
			MinValue:    &one,
			MaxValue:    100,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "ranks",
			Description: "発表する順位の数",
			Required:    required,
			MinValue:    &one,
			MaxValue:    10,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "weekday",
			Description: "発表する曜日",
			Required:    required,
			Choices:     weekdayChoices,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "hour",
			Description: "発表する時刻（時）",
			Required:    required,
			MinValue:    &zero,
			MaxValue:    23,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "minute",
			Description: "発表する時刻（分）",
			Required:    required,
			MinValue:    &zero,
			MaxValue:    59,
		},
	}
}

func quakeOptions(required bool) []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionChannel,
			Name:        "channel",
			Description: "地震情報を投稿するチャンネル",
			Required:    required,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "min_scale",
			Description: "通知する最小震度",
			Required:    required,
			Choices:     scaleChoices,
		},
	}
}

func (b *Bot) registerCommands() {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "awards",
			Description: "週間リアクション大賞",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "register",
					Description: "このサーバーでリアクション大賞を有効にする",
					Options:     awardsOptions(true),
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "update",
					Description: "リアクション大賞の設定を変更する",
					Options:     awardsOptions(false),
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "unregister",
					Description: "リアクション大賞を無効にする",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "現在の設定を表示する",
				},
			},
		},
		{
			Name:        "quake",
			Description: "地震情報の通知",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "register",
					Description: "このサーバーで地震情報を有効にする",
					Options:     quakeOptions(true),
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "update",
					Description: "地震情報の設定を変更する",
					Options:     quakeOptions(false),
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "unregister",
					Description: "地震情報を無効にする",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "現在の設定を表示する",
				},
			},
		},
	}

	_, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, "", commands)
	if err != nil {
		b.log.Errorw("error registering commands", "err", err)
		return
	}
	b.log.Infow("registered commands", "count", len(commands))
}
