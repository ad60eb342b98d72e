// Package store implements the per-guild settings pattern shared by every
// feature: one row per guild, upsert-on-register, delete-on-unregister, with
// reads that treat malformed rows as absent.
package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sh1ma/hibikase/internal/database"
)

// GuildRecord is a persisted row keyed by guild id. Valid reports whether a
// decoded row still has the shape the feature expects; rows failing it are
// treated as absent at every read boundary.
type GuildRecord interface {
	GuildKey() string
	Valid() bool
}

// ConfigStore is a typed accessor for one feature's per-guild settings table.
type ConfigStore[T GuildRecord] struct {
	db      *gorm.DB
	updates []string
}

// NewConfigStore builds a store for T. updateColumns are the payload columns
// overwritten when Register hits an existing row; created_at is never among
// them, updated_at always is.
func NewConfigStore[T GuildRecord](db *gorm.DB, updateColumns ...string) *ConfigStore[T] {
	return &ConfigStore[T]{
		db:      db,
		updates: append(updateColumns, "updated_at"),
	}
}

// Get returns the guild's row, or (nil, nil) when there is none or the
// stored row no longer decodes to a valid shape.
func (s *ConfigStore[T]) Get(guildID string) (*T, error) {
	var row T
	err := database.WithRetry(func() error {
		result := s.db.Where("guild_id = ?", guildID).First(&row)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		return result.Error
	})
	if err != nil {
		return nil, err
	}
	if !row.Valid() {
		return nil, nil
	}
	return &row, nil
}

// Register upserts the guild's row. A second call with identical fields
// leaves everything but updated_at untouched.
func (s *ConfigStore[T]) Register(row T) error {
	return database.WithRetry(func() error {
		return s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}},
			DoUpdates: clause.AssignmentColumns(s.updates),
		}).Create(&row).Error
	})
}

// Unregister deletes the guild's row. Deleting an absent row is a no-op.
func (s *ConfigStore[T]) Unregister(guildID string) error {
	var row T
	return database.WithRetry(func() error {
		return s.db.Where("guild_id = ?", guildID).Delete(&row).Error
	})
}

// List returns every valid row. Order is not significant; callers re-sort or
// treat the result as a set.
func (s *ConfigStore[T]) List() ([]T, error) {
	var rows []T
	err := database.WithRetry(func() error {
		return s.db.Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	valid := rows[:0]
	for _, row := range rows {
		if row.Valid() {
			valid = append(valid, row)
		}
	}
	return valid, nil
}
