// Package awards implements the weekly reaction-awards feature: ranking
// tracked messages by reaction count, scheduling the per-guild report and
// composing the announcement messages.
package awards

import (
	"sort"

	"github.com/sh1ma/hibikase/internal/models"
)

// RankGroup is one tied place in the ranking: every message sharing the same
// reaction count. Rank numbers advance by the preceding group's size, so a
// two-way tie at rank 1 pushes the next group to rank 3.
type RankGroup struct {
	Rank  int
	Count int
	Items []models.TrackedMessage
}

// Tally ranks a snapshot of tracked messages for one guild. Messages below
// minReactions are dropped, the rest are grouped by exact count, sorted
// descending, and the first ranks groups are returned. An empty result means
// the caller must announce "nothing to report" rather than stay silent.
func Tally(items []models.TrackedMessage, guildID string, minReactions, ranks int) []RankGroup {
	byCount := make(map[int][]models.TrackedMessage)
	for _, item := range items {
		if item.GuildID != guildID {
			continue
		}
		if item.ReactionCount < minReactions {
			continue
		}
		byCount[item.ReactionCount] = append(byCount[item.ReactionCount], item)
	}

	counts := make([]int, 0, len(byCount))
	for count := range byCount {
		counts = append(counts, count)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	if len(counts) > ranks {
		counts = counts[:ranks]
	}

	groups := make([]RankGroup, 0, len(counts))
	rank := 1
	for _, count := range counts {
		tied := byCount[count]
		sort.Slice(tied, func(i, j int) bool {
			if !tied[i].PostedAt.Equal(tied[j].PostedAt) {
				return tied[i].PostedAt.Before(tied[j].PostedAt)
			}
			return tied[i].MessageID < tied[j].MessageID
		})
		groups = append(groups, RankGroup{Rank: rank, Count: count, Items: tied})
		rank += len(tied)
	}
	return groups
}
