package awards

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sh1ma/hibikase/internal/models"
)

type fakeConfigSource struct{ cfg *models.AwardConfig }

func (f fakeConfigSource) Get(string) (*models.AwardConfig, error) { return f.cfg, nil }

type fakeScheduleSource struct{ sched *models.AwardSchedule }

func (f fakeScheduleSource) Get(string) (*models.AwardSchedule, error) { return f.sched, nil }

type countingRunner struct {
	mu   sync.Mutex
	runs int
	ran  chan struct{}
}

func newCountingRunner() *countingRunner {
	return &countingRunner{ran: make(chan struct{}, 16)}
}

func (r *countingRunner) RunCycle(string) {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
	r.ran <- struct{}{}
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// 2026-08-31 is a Monday.
var (
	matchingTime    = time.Date(2026, 8, 31, 12, 30, 0, 0, time.UTC)
	nonMatchingTime = time.Date(2026, 8, 31, 12, 29, 0, 0, time.UTC)
)

func testScheduler(runner CycleRunner, clock *fakeClock) *Scheduler {
	s := NewScheduler(
		fakeConfigSource{&models.AwardConfig{
			GuildID: "g1", GuildName: "g", ChannelName: "general", MinReactions: 1, Ranks: 3,
		}},
		fakeScheduleSource{&models.AwardSchedule{
			GuildID: "g1", Weekday: 1, Hour: 12, Minute: 30,
		}},
		runner,
		time.UTC,
		zap.NewNop().Sugar(),
	)
	s.poll = time.Millisecond
	s.resched = time.Hour
	s.now = clock.now
	return s
}

func waitForRun(t *testing.T, runner *countingRunner) {
	t.Helper()
	select {
	case <-runner.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a report cycle")
	}
}

func TestStartReplacesExistingTimer(t *testing.T) {
	runner := newCountingRunner()
	clock := &fakeClock{t: nonMatchingTime}
	s := testScheduler(runner, clock)
	defer s.StopAll()

	s.Start("g1")
	s.Start("g1")

	s.mu.Lock()
	live := len(s.timers)
	s.mu.Unlock()
	if live != 1 {
		t.Fatalf("expected exactly 1 live timer after double Start, got %d", live)
	}

	clock.set(matchingTime)
	waitForRun(t, runner)

	// Only the surviving timer fires at the matching tick.
	time.Sleep(50 * time.Millisecond)
	if got := runner.count(); got != 1 {
		t.Errorf("cycles run = %d, want 1", got)
	}
}

func TestExactMatchRequired(t *testing.T) {
	runner := newCountingRunner()
	// Right weekday and hour, wrong minute: never fires.
	clock := &fakeClock{t: nonMatchingTime}
	s := testScheduler(runner, clock)
	defer s.StopAll()

	s.Start("g1")

	time.Sleep(50 * time.Millisecond)
	if got := runner.count(); got != 0 {
		t.Errorf("cycles run = %d, want 0 without an exact match", got)
	}
}

func TestReschedulesAfterCycle(t *testing.T) {
	runner := newCountingRunner()
	clock := &fakeClock{t: matchingTime}
	s := testScheduler(runner, clock)
	s.resched = 10 * time.Millisecond
	defer s.StopAll()

	s.Start("g1")

	// The clock stays on the matching minute, so every reschedule window
	// expiry produces another cycle.
	waitForRun(t, runner)
	waitForRun(t, runner)

	if !s.Running("g1") {
		t.Error("timer gone after report cycles; expected it rescheduled")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	runner := newCountingRunner()
	clock := &fakeClock{t: nonMatchingTime}
	s := testScheduler(runner, clock)

	s.Start("g1")
	if !s.Running("g1") {
		t.Fatal("expected timer after Start")
	}

	s.Stop("g1")
	if s.Running("g1") {
		t.Error("expected no timer after Stop")
	}
	// Stopping again must not panic or error.
	s.Stop("g1")
}

func TestStartWithoutConfigDoesNotSchedule(t *testing.T) {
	runner := newCountingRunner()
	clock := &fakeClock{t: matchingTime}

	s := testScheduler(runner, clock)
	s.configs = fakeConfigSource{nil}
	s.Start("g1")
	if s.Running("g1") {
		t.Error("scheduled a guild with no config")
	}

	s = testScheduler(runner, clock)
	s.schedules = fakeScheduleSource{nil}
	s.Start("g1")
	if s.Running("g1") {
		t.Error("scheduled a guild with no trigger time")
	}
}
