package models

import (
	"time"
)

// AwardConfig is the per-guild configuration for the weekly awards feature.
type AwardConfig struct {
	GuildID      string    `gorm:"primaryKey;column:guild_id"`
	GuildName    string    `gorm:"column:guild_name"`
	ChannelName  string    `gorm:"column:channel_name"`
	MinReactions int       `gorm:"column:min_reactions"`
	Ranks        int       `gorm:"column:ranks"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (AwardConfig) TableName() string {
	return "award_configs"
}

// GuildKey implements store.GuildRecord.
func (c AwardConfig) GuildKey() string { return c.GuildID }

// Valid reports whether a decoded row still has the shape we expect.
// Malformed rows are treated as absent, not as errors.
func (c AwardConfig) Valid() bool {
	return c.GuildID != "" && c.ChannelName != "" && c.MinReactions > 0 && c.Ranks > 0
}

// AwardSchedule is the weekly trigger time for a guild's award report.
type AwardSchedule struct {
	GuildID   string    `gorm:"primaryKey;column:guild_id"`
	Weekday   int       `gorm:"column:weekday"`
	Hour      int       `gorm:"column:hour"`
	Minute    int       `gorm:"column:minute"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (AwardSchedule) TableName() string {
	return "award_schedules"
}

func (s AwardSchedule) GuildKey() string { return s.GuildID }

func (s AwardSchedule) Valid() bool {
	return s.GuildID != "" &&
		s.Weekday >= 0 && s.Weekday <= 6 &&
		s.Hour >= 0 && s.Hour <= 23 &&
		s.Minute >= 0 && s.Minute <= 59
}

// TrackedMessage is one message being watched for reactions. It exists only
// while its reaction count is positive and it is younger than the retention
// window.
type TrackedMessage struct {
	GuildID       string    `gorm:"primaryKey;column:guild_id"`
	ChannelID     string    `gorm:"primaryKey;column:channel_id"`
	MessageID     string    `gorm:"primaryKey;column:message_id"`
	GuildName     string    `gorm:"column:guild_name"`
	ChannelName   string    `gorm:"column:channel_name"`
	Content       string    `gorm:"column:content"`
	AuthorID      string    `gorm:"column:author_id"`
	AuthorName    string    `gorm:"column:author_name"`
	AuthorAvatar  string    `gorm:"column:author_avatar"`
	URL           string    `gorm:"column:url"`
	ReactionCount int       `gorm:"column:reaction_count"`
	PostedAt      time.Time `gorm:"column:posted_at"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (TrackedMessage) TableName() string {
	return "tracked_messages"
}

// QuakeConfig is the per-guild configuration for the earthquake relay.
// LastEventID is the relay cursor: only feed events with a larger id are
// announced.
type QuakeConfig struct {
	GuildID     string    `gorm:"primaryKey;column:guild_id"`
	GuildName   string    `gorm:"column:guild_name"`
	ChannelID   string    `gorm:"column:channel_id"`
	ChannelName string    `gorm:"column:channel_name"`
	MinScale    int       `gorm:"column:min_scale"`
	LastEventID string    `gorm:"column:last_event_id"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (QuakeConfig) TableName() string {
	return "quake_configs"
}

func (c QuakeConfig) GuildKey() string { return c.GuildID }

func (c QuakeConfig) Valid() bool {
	return c.GuildID != "" && c.ChannelID != "" && c.MinScale > 0
}

// APIHealthStat accumulates outcome counts for calls against an external API.
type APIHealthStat struct {
	ServiceName        string `gorm:"primaryKey;column:service_name"`
	TotalRequests      uint64 `gorm:"column:total_requests"`
	SuccessfulRequests uint64 `gorm:"column:successful_requests"`
}

func (APIHealthStat) TableName() string {
	return "api_health_stats"
}
