// Package health accumulates external API call outcomes in memory and
// periodically flushes them to the database, keeping per-call overhead to a
// pair of atomic increments.
package health

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sh1ma/hibikase/internal/database"
	"github.com/sh1ma/hibikase/internal/models"
)

type Aggregator struct {
	db          *gorm.DB
	serviceName string
	log         *zap.SugaredLogger

	totalRequests      atomic.Uint64
	successfulRequests atomic.Uint64

	done chan struct{}
}

func NewAggregator(db *gorm.DB, serviceName string, log *zap.SugaredLogger) *Aggregator {
	return &Aggregator{
		db:          db,
		serviceName: serviceName,
		log:         log,
		done:        make(chan struct{}),
	}
}

// RecordCall increments the in-memory counters. Non-blocking.
func (a *Aggregator) RecordCall(success bool) {
	a.totalRequests.Add(1)
	if success {
		a.successfulRequests.Add(1)
	}
}

// Flush writes the accumulated counts to the database and resets them.
func (a *Aggregator) Flush() {
	total := a.totalRequests.Swap(0)
	successful := a.successfulRequests.Swap(0)
	if total == 0 {
		return
	}

	err := database.WithRetry(func() error {
		result := a.db.Model(&models.APIHealthStat{}).
			Where("service_name = ?", a.serviceName).
			Updates(map[string]any{
				"total_requests":      gorm.Expr("total_requests + ?", total),
				"successful_requests": gorm.Expr("successful_requests + ?", successful),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return a.db.Create(&models.APIHealthStat{
				ServiceName:        a.serviceName,
				TotalRequests:      total,
				SuccessfulRequests: successful,
			}).Error
		}
		return nil
	})
	if err != nil {
		a.log.Errorw("error flushing api health stats",
			"service", a.serviceName, "err", err)
	}
}

// Start flushes on the given interval until Stop is called.
func (a *Aggregator) Start(interval time.Duration) {
	a.log.Infow("health aggregator started",
		"service", a.serviceName, "interval", interval)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-a.done:
				return
			case <-ticker.C:
				a.Flush()
			}
		}
	}()
}

// Stop halts the periodic flush and writes out whatever is pending.
func (a *Aggregator) Stop() {
	close(a.done)
	a.Flush()
}
