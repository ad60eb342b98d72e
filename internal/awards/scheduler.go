package awards

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sh1ma/hibikase/internal/models"
)

// ConfigSource yields a guild's award configuration, (nil, nil) when absent.
type ConfigSource interface {
	Get(guildID string) (*models.AwardConfig, error)
}

// ScheduleSource yields a guild's trigger time, (nil, nil) when absent.
type ScheduleSource interface {
	Get(guildID string) (*models.AwardSchedule, error)
}

// CycleRunner runs one report cycle for a guild.
type CycleRunner interface {
	RunCycle(guildID string)
}

// Scheduler keeps one recurring report timer per registered guild. Timers
// are independent; ticks for different guilds may interleave freely, while a
// single guild's ticks are strictly sequential because each cycle finishes
// before the next wait begins.
type Scheduler struct {
	configs   ConfigSource
	schedules ScheduleSource
	runner    CycleRunner
	loc       *time.Location
	log       *zap.SugaredLogger

	poll    time.Duration
	resched time.Duration
	now     func() time.Time

	mu     sync.Mutex
	timers map[string]chan struct{}
}

func NewScheduler(configs ConfigSource, schedules ScheduleSource, runner CycleRunner, loc *time.Location, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		configs:   configs,
		schedules: schedules,
		runner:    runner,
		loc:       loc,
		log:       log,
		poll:      time.Second,
		// Slightly short of seven days so clock drift cannot skip the
		// target minute; the poll loop absorbs the remainder.
		resched: 7*24*time.Hour - 2*time.Hour,
		now:     time.Now,
		timers:  make(map[string]chan struct{}),
	}
}

// Start schedules the guild's weekly report. A guild with no configuration
// or no trigger time is logged and left unscheduled; this is not an error.
// Starting a guild that already has a live timer replaces it, never stacks.
func (s *Scheduler) Start(guildID string) {
	cfg, err := s.configs.Get(guildID)
	if err != nil {
		s.log.Errorw("error reading award config", "guild_id", guildID, "err", err)
		return
	}
	if cfg == nil {
		s.log.Infow("guild has no award config, not scheduling", "guild_id", guildID)
		return
	}

	sched, err := s.schedules.Get(guildID)
	if err != nil {
		s.log.Errorw("error reading award schedule", "guild_id", guildID, "err", err)
		return
	}
	if sched == nil {
		s.log.Infow("guild has no award schedule, not scheduling", "guild_id", guildID)
		return
	}

	s.mu.Lock()
	if stop, ok := s.timers[guildID]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	s.timers[guildID] = stop
	s.mu.Unlock()

	s.log.Infow("award schedule started",
		"guild_id", guildID,
		"weekday", time.Weekday(sched.Weekday).String(),
		"hour", sched.Hour,
		"minute", sched.Minute,
	)
	go s.run(guildID, *sched, stop)
}

// Stop cancels the guild's timer. Safe to call when none is running. A cycle
// already past its wait runs to completion; only the timer is cancelled.
func (s *Scheduler) Stop(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.timers[guildID]; ok {
		close(stop)
		delete(s.timers, guildID)
	}
}

// StopAll cancels every live timer.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for guildID, stop := range s.timers {
		close(stop)
		delete(s.timers, guildID)
	}
}

// Running reports whether the guild currently has a live timer.
func (s *Scheduler) Running(guildID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[guildID]
	return ok
}

func (s *Scheduler) run(guildID string, sched models.AwardSchedule, stop chan struct{}) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := s.now().In(s.loc)
			// Exact match on all three fields. A minute missed while the
			// process was down is simply caught next week.
			if int(now.Weekday()) != sched.Weekday || now.Hour() != sched.Hour || now.Minute() != sched.Minute {
				continue
			}

			s.runner.RunCycle(guildID)

			select {
			case <-stop:
				return
			case <-time.After(s.resched):
			}
		}
	}
}
