package health

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/sh1ma/hibikase/internal/database"
	"github.com/sh1ma/hibikase/internal/models"
)

func testAggregator(t *testing.T) *Aggregator {
	t.Helper()
	if err := database.Init("sqlite", filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("init database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return NewAggregator(database.DB, "p2pquake", zap.NewNop().Sugar())
}

func statRow(t *testing.T) models.APIHealthStat {
	t.Helper()
	var stat models.APIHealthStat
	if err := database.DB.Where("service_name = ?", "p2pquake").First(&stat).Error; err != nil {
		t.Fatalf("reading stat row: %v", err)
	}
	return stat
}

func TestFlushCreatesRow(t *testing.T) {
	a := testAggregator(t)

	a.RecordCall(true)
	a.RecordCall(true)
	a.RecordCall(false)
	a.Flush()

	stat := statRow(t)
	if stat.TotalRequests != 3 || stat.SuccessfulRequests != 2 {
		t.Errorf("stat = %d/%d, want 3 total / 2 successful",
			stat.TotalRequests, stat.SuccessfulRequests)
	}
}

func TestFlushAccumulates(t *testing.T) {
	a := testAggregator(t)

	a.RecordCall(true)
	a.Flush()
	a.RecordCall(false)
	a.Flush()

	stat := statRow(t)
	if stat.TotalRequests != 2 || stat.SuccessfulRequests != 1 {
		t.Errorf("stat = %d/%d, want 2 total / 1 successful",
			stat.TotalRequests, stat.SuccessfulRequests)
	}
}

func TestFlushNoopWhenIdle(t *testing.T) {
	a := testAggregator(t)

	a.Flush()

	var count int64
	if err := database.DB.Model(&models.APIHealthStat{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("idle flush wrote %d rows, want 0", count)
	}
}
