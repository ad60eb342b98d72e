package awards

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sh1ma/hibikase/internal/models"
)

// Discord rejects more than ten embeds in a single message.
const maxEmbedsPerMessage = 10

const (
	reportHeader     = "🏆 **今週のリアクション大賞** 🏆"
	threadTitle      = "リアクション大賞 つづき"
	nothingToReport  = "今週はリアクションの集まったメッセージがありませんでした 😢"
	embedColorAward  = 0xffd700
	threadArchiveMin = 1440
)

// Messenger is the slice of the Discord session the composer posts through.
type Messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageThreadStartComplex(channelID, messageID string, data *discordgo.ThreadStart, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Block is one outbound content unit: a heading plus the embeds for a single
// rank group.
type Block struct {
	Content string
	Embeds  []*discordgo.MessageEmbed
}

// Composer turns rank groups into channel messages. The first block becomes
// the primary message; any further blocks continue in a thread anchored on
// it. Oversized blocks are split into sequential sends of at most ten embeds
// each, preserving order.
type Composer struct {
	messenger Messenger
	limiter   *rate.Limiter
	log       *zap.SugaredLogger
}

func NewComposer(messenger Messenger, limiter *rate.Limiter, log *zap.SugaredLogger) *Composer {
	return &Composer{messenger: messenger, limiter: limiter, log: log}
}

// BuildBlocks renders rank groups into content blocks. Timestamps inside the
// embeds are shown in loc.
func BuildBlocks(groups []RankGroup, loc *time.Location) []Block {
	blocks := make([]Block, 0, len(groups))
	for _, group := range groups {
		embeds := make([]*discordgo.MessageEmbed, 0, len(group.Items))
		for _, item := range group.Items {
			embeds = append(embeds, messageEmbed(item, loc))
		}
		blocks = append(blocks, Block{
			Content: fmt.Sprintf("%s（%d リアクション）", rankLabel(group.Rank), group.Count),
			Embeds:  embeds,
		})
	}
	return blocks
}

func rankLabel(rank int) string {
	if rank == 1 {
		return "👑 最多リアクション"
	}
	return fmt.Sprintf("🏅 %d番目", rank)
}

func messageEmbed(item models.TrackedMessage, loc *time.Location) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name:    item.AuthorName,
			IconURL: item.AuthorAvatar,
		},
		Description: item.Content,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "メッセージ", Value: item.URL},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "#" + item.ChannelName},
		Timestamp: item.PostedAt.In(loc).Format(time.RFC3339),
		Color:     embedColorAward,
	}
}

// Post sends the report. Every send is independently fallible: a failed
// chunk is logged and skipped, and its siblings still go out.
func (c *Composer) Post(channelID string, blocks []Block) {
	if len(blocks) == 0 {
		return
	}

	primary := c.sendBlock(channelID, reportHeader+"\n"+blocks[0].Content, blocks[0].Embeds)

	rest := blocks[1:]
	if len(rest) == 0 {
		return
	}

	targetID := channelID
	if primary != nil {
		thread, err := c.messenger.MessageThreadStartComplex(channelID, primary.ID, &discordgo.ThreadStart{
			Name:                threadTitle,
			AutoArchiveDuration: threadArchiveMin,
		})
		if err != nil {
			c.log.Errorw("error starting report thread, continuing in channel",
				"channel_id", channelID, "err", err)
		} else {
			targetID = thread.ID
		}
	}

	for _, block := range rest {
		c.sendBlock(targetID, block.Content, block.Embeds)
	}
}

// PostEmpty announces that nothing met the threshold this week. The absence
// of a report is itself reported; a silent cycle would look like a failure.
func (c *Composer) PostEmpty(channelID string) {
	c.sendBlock(channelID, nothingToReport, nil)
}

// sendBlock sends one block, splitting the embeds across messages where the
// transport limit requires it. Returns the first successfully sent message.
func (c *Composer) sendBlock(channelID, content string, embeds []*discordgo.MessageEmbed) *discordgo.Message {
	var first *discordgo.Message

	chunks := chunkEmbeds(embeds)
	if len(chunks) == 0 {
		chunks = [][]*discordgo.MessageEmbed{nil}
	}

	for i, chunk := range chunks {
		send := &discordgo.MessageSend{Embeds: chunk}
		if i == 0 {
			send.Content = content
		}

		c.wait()
		msg, err := c.messenger.ChannelMessageSendComplex(channelID, send)
		if err != nil {
			c.log.Errorw("error sending report chunk",
				"channel_id", channelID, "chunk", i, "err", err)
			continue
		}
		if first == nil {
			first = msg
		}
	}
	return first
}

func (c *Composer) wait() {
	if c.limiter != nil {
		_ = c.limiter.Wait(context.Background())
	}
}

func chunkEmbeds(embeds []*discordgo.MessageEmbed) [][]*discordgo.MessageEmbed {
	if len(embeds) == 0 {
		return nil
	}
	var chunks [][]*discordgo.MessageEmbed
	for len(embeds) > maxEmbedsPerMessage {
		chunks = append(chunks, embeds[:maxEmbedsPerMessage])
		embeds = embeds[maxEmbedsPerMessage:]
	}
	return append(chunks, embeds)
}
