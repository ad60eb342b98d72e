package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sh1ma/hibikase/internal/database"
	"github.com/sh1ma/hibikase/internal/models"
)

// RecordStore owns persistence for tracked messages. Reaction counts are
// last-write-wins per key: Set always replaces the stored count, never adds
// to it.
type RecordStore struct {
	db *gorm.DB
}

func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Get returns one tracked message, or (nil, nil) when absent.
func (r *RecordStore) Get(guildID, channelID, messageID string) (*models.TrackedMessage, error) {
	var msg models.TrackedMessage
	err := database.WithRetry(func() error {
		result := r.db.Where(
			"guild_id = ? AND channel_id = ? AND message_id = ?",
			guildID, channelID, messageID,
		).First(&msg)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		return result.Error
	})
	if err != nil {
		return nil, err
	}
	if msg.MessageID == "" {
		return nil, nil
	}
	return &msg, nil
}

// Set upserts a tracked message snapshot. On conflict the original posted_at
// and created_at are preserved; mutable fields and the reaction count are
// overwritten.
func (r *RecordStore) Set(msg models.TrackedMessage) error {
	return database.WithRetry(func() error {
		return r.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "guild_id"}, {Name: "channel_id"}, {Name: "message_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"guild_name", "channel_name", "content",
				"author_id", "author_name", "author_avatar",
				"url", "reaction_count", "updated_at",
			}),
		}).Create(&msg).Error
	})
}

// Delete removes one tracked message. Absent rows are a no-op.
func (r *RecordStore) Delete(guildID, channelID, messageID string) error {
	return database.WithRetry(func() error {
		return r.db.Delete(
			&models.TrackedMessage{},
			"guild_id = ? AND channel_id = ? AND message_id = ?",
			guildID, channelID, messageID,
		).Error
	})
}

// DeleteGuild removes every tracked message for a guild.
func (r *RecordStore) DeleteGuild(guildID string) error {
	return database.WithRetry(func() error {
		return r.db.Delete(&models.TrackedMessage{}, "guild_id = ?", guildID).Error
	})
}

// All returns a full snapshot of tracked messages.
func (r *RecordStore) All() ([]models.TrackedMessage, error) {
	var msgs []models.TrackedMessage
	err := database.WithRetry(func() error {
		return r.db.Find(&msgs).Error
	})
	return msgs, err
}

// ForEach streams tracked messages in batches. Every call starts a fresh
// snapshot of current state; there is no shared cursor.
func (r *RecordStore) ForEach(batchSize int, fn func(models.TrackedMessage) error) error {
	var batch []models.TrackedMessage
	result := r.db.FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		for _, msg := range batch {
			if err := fn(msg); err != nil {
				return err
			}
		}
		return nil
	})
	return result.Error
}

// DeleteOutdated reports how many of the guild's tracked messages are older
// than maxAgeDays (measured against posted_at, in elapsed time rather than
// calendar days), then deletes them. Callers use the count to decide whether
// a storage-reclamation pass is worth running.
func (r *RecordStore) DeleteOutdated(guildID string, maxAgeDays int) (int64, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)

	var count int64
	err := database.WithRetry(func() error {
		return r.db.Model(&models.TrackedMessage{}).
			Where("guild_id = ? AND posted_at < ?", guildID, cutoff).
			Count(&count).Error
	})
	if err != nil {
		return 0, fmt.Errorf("counting outdated messages: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	err = database.WithRetry(func() error {
		return r.db.Delete(
			&models.TrackedMessage{},
			"guild_id = ? AND posted_at < ?", guildID, cutoff,
		).Error
	})
	if err != nil {
		return 0, fmt.Errorf("deleting outdated messages: %w", err)
	}
	return count, nil
}

// Reclaim compacts the storage file after a bulk delete. Only SQLite needs
// (or supports) this; on other dialects it is a no-op.
func (r *RecordStore) Reclaim() error {
	switch r.db.Dialector.Name() {
	case "sqlite", "sqlite3":
		return database.WithRetry(func() error {
			return r.db.Exec("VACUUM").Error
		})
	default:
		return nil
	}
}

// Transaction applies fn as a single atomic unit. Under contention the whole
// unit is retried, not the individual statements.
func (r *RecordStore) Transaction(fn func(tx *gorm.DB) error) error {
	return database.WithRetry(func() error {
		return r.db.Transaction(fn)
	})
}
