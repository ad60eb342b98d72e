package awards

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sh1ma/hibikase/internal/models"
)

func tallyItem(guildID string, n, count int) models.TrackedMessage {
	return models.TrackedMessage{
		GuildID:       guildID,
		ChannelID:     "chan-1",
		MessageID:     fmt.Sprintf("msg-%d", n),
		ReactionCount: count,
		PostedAt:      time.Date(2026, 8, 1, 0, 0, n, 0, time.UTC),
	}
}

func TestTallyTieBreak(t *testing.T) {
	items := []models.TrackedMessage{
		tallyItem("g1", 1, 10),
		tallyItem("g1", 2, 10),
		tallyItem("g1", 3, 7),
		tallyItem("g1", 4, 5),
	}

	got := Tally(items, "g1", 1, 2)

	want := []RankGroup{
		{Rank: 1, Count: 10, Items: []models.TrackedMessage{items[0], items[1]}},
		{Rank: 3, Count: 7, Items: []models.TrackedMessage{items[2]}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tally() mismatch (-want +got):\n%s", diff)
	}
}

func TestTallyThreshold(t *testing.T) {
	items := []models.TrackedMessage{
		tallyItem("g1", 1, 9),
		tallyItem("g1", 2, 4),
		tallyItem("g1", 3, 5),
	}

	got := Tally(items, "g1", 5, 10)

	if len(got) != 2 {
		t.Fatalf("expected 2 rank groups, got %d", len(got))
	}
	if got[0].Count != 9 || got[1].Count != 5 {
		t.Errorf("counts = [%d, %d], want [9, 5]", got[0].Count, got[1].Count)
	}
}

func TestTallyFiltersOtherGuilds(t *testing.T) {
	items := []models.TrackedMessage{
		tallyItem("g1", 1, 8),
		tallyItem("g2", 2, 20),
	}

	got := Tally(items, "g1", 1, 10)

	if len(got) != 1 {
		t.Fatalf("expected 1 rank group, got %d", len(got))
	}
	if got[0].Items[0].GuildID != "g1" {
		t.Errorf("ranked an item from another guild: %+v", got[0].Items[0])
	}
}

func TestTallyEmpty(t *testing.T) {
	items := []models.TrackedMessage{
		tallyItem("g1", 1, 2),
	}

	if got := Tally(items, "g1", 5, 3); len(got) != 0 {
		t.Errorf("expected empty tally below threshold, got %+v", got)
	}
	if got := Tally(nil, "g1", 1, 3); len(got) != 0 {
		t.Errorf("expected empty tally for no items, got %+v", got)
	}
}

func TestTallyRankAdvancesByGroupSize(t *testing.T) {
	items := []models.TrackedMessage{
		tallyItem("g1", 1, 9),
		tallyItem("g1", 2, 9),
		tallyItem("g1", 3, 9),
		tallyItem("g1", 4, 6),
		tallyItem("g1", 5, 6),
		tallyItem("g1", 6, 2),
	}

	got := Tally(items, "g1", 1, 10)

	ranks := make([]int, len(got))
	for i, group := range got {
		ranks[i] = group.Rank
	}
	want := []int{1, 4, 6}
	if diff := cmp.Diff(want, ranks); diff != "" {
		t.Errorf("rank numbering mismatch (-want +got):\n%s", diff)
	}
}
