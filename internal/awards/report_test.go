package awards

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/sh1ma/hibikase/internal/models"
)

type sentMessage struct {
	ChannelID string
	Content   string
	Embeds    int
}

type fakeMessenger struct {
	sent      []sentMessage
	failSends map[int]bool
	failThread bool

	threadParent string
	nextID       int
}

func (m *fakeMessenger) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	call := len(m.sent) + 1
	if m.failSends[call] {
		m.sent = append(m.sent, sentMessage{ChannelID: channelID, Content: "<failed>"})
		return nil, errors.New("send failed")
	}
	m.sent = append(m.sent, sentMessage{
		ChannelID: channelID,
		Content:   data.Content,
		Embeds:    len(data.Embeds),
	})
	m.nextID++
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", m.nextID), ChannelID: channelID}, nil
}

func (m *fakeMessenger) MessageThreadStartComplex(channelID, messageID string, data *discordgo.ThreadStart, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if m.failThread {
		return nil, errors.New("thread failed")
	}
	m.threadParent = messageID
	return &discordgo.Channel{ID: "thread-1", Name: data.Name}, nil
}

func testItems(n int) []models.TrackedMessage {
	items := make([]models.TrackedMessage, n)
	for i := range items {
		items[i] = models.TrackedMessage{
			GuildID:     "g1",
			ChannelID:   "c1",
			MessageID:   fmt.Sprintf("m%02d", i),
			ChannelName: "general",
			AuthorName:  "alice",
			Content:     "hello",
			PostedAt:    time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC),
		}
	}
	return items
}

func TestPostSplitsOversizedBlock(t *testing.T) {
	m := &fakeMessenger{}
	c := NewComposer(m, nil, zap.NewNop().Sugar())

	c.Post("c1", []Block{{Content: "top", Embeds: buildEmbeds(testItems(23))}})

	want := []sentMessage{
		{ChannelID: "c1", Content: reportHeader + "\ntop", Embeds: 10},
		{ChannelID: "c1", Content: "", Embeds: 10},
		{ChannelID: "c1", Content: "", Embeds: 3},
	}
	if diff := cmp.Diff(want, m.sent); diff != "" {
		t.Errorf("sent messages mismatch (-want +got):\n%s", diff)
	}
}

func TestPostContinuesInThread(t *testing.T) {
	m := &fakeMessenger{}
	c := NewComposer(m, nil, zap.NewNop().Sugar())

	blocks := []Block{
		{Content: "first", Embeds: buildEmbeds(testItems(2))},
		{Content: "second", Embeds: buildEmbeds(testItems(1))},
		{Content: "third", Embeds: buildEmbeds(testItems(1))},
	}
	c.Post("c1", blocks)

	if m.threadParent != "msg-1" {
		t.Errorf("thread anchored on %q, want the primary message msg-1", m.threadParent)
	}
	want := []sentMessage{
		{ChannelID: "c1", Content: reportHeader + "\nfirst", Embeds: 2},
		{ChannelID: "thread-1", Content: "second", Embeds: 1},
		{ChannelID: "thread-1", Content: "third", Embeds: 1},
	}
	if diff := cmp.Diff(want, m.sent); diff != "" {
		t.Errorf("sent messages mismatch (-want +got):\n%s", diff)
	}
}

func TestPostThreadFailureFallsBackToChannel(t *testing.T) {
	m := &fakeMessenger{failThread: true}
	c := NewComposer(m, nil, zap.NewNop().Sugar())

	c.Post("c1", []Block{
		{Content: "first", Embeds: buildEmbeds(testItems(1))},
		{Content: "second", Embeds: buildEmbeds(testItems(1))},
	})

	if len(m.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(m.sent))
	}
	if m.sent[1].ChannelID != "c1" {
		t.Errorf("continuation went to %q, want the original channel", m.sent[1].ChannelID)
	}
}

func TestPostSkipsFailedChunk(t *testing.T) {
	// Second send fails; the third still goes out.
	m := &fakeMessenger{failSends: map[int]bool{2: true}}
	c := NewComposer(m, nil, zap.NewNop().Sugar())

	c.Post("c1", []Block{{Content: "top", Embeds: buildEmbeds(testItems(23))}})

	if len(m.sent) != 3 {
		t.Fatalf("attempted %d sends, want 3", len(m.sent))
	}
	if m.sent[2].Embeds != 3 {
		t.Errorf("final chunk carried %d embeds, want 3", m.sent[2].Embeds)
	}
}

func TestPostEmpty(t *testing.T) {
	m := &fakeMessenger{}
	c := NewComposer(m, nil, zap.NewNop().Sugar())

	c.PostEmpty("c1")

	if len(m.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(m.sent))
	}
	if m.sent[0].Content != nothingToReport {
		t.Errorf("content = %q, want the empty-week notice", m.sent[0].Content)
	}
}

func TestBuildBlocksLabels(t *testing.T) {
	groups := []RankGroup{
		{Rank: 1, Count: 12, Items: testItems(2)},
		{Rank: 3, Count: 7, Items: testItems(1)},
	}
	blocks := BuildBlocks(groups, time.UTC)

	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if !strings.Contains(blocks[0].Content, "👑 最多リアクション") || !strings.Contains(blocks[0].Content, "12 リアクション") {
		t.Errorf("rank 1 label = %q", blocks[0].Content)
	}
	if !strings.Contains(blocks[1].Content, "🏅 3番目") || !strings.Contains(blocks[1].Content, "7 リアクション") {
		t.Errorf("rank 3 label = %q", blocks[1].Content)
	}
	if got := len(blocks[0].Embeds); got != 2 {
		t.Errorf("rank 1 embeds = %d, want 2", got)
	}
}

func buildEmbeds(items []models.TrackedMessage) []*discordgo.MessageEmbed {
	embeds := make([]*discordgo.MessageEmbed, 0, len(items))
	for _, item := range items {
		embeds = append(embeds, messageEmbed(item, time.UTC))
	}
	return embeds
}
