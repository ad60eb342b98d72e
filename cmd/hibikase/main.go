/*
Hibikase is a Discord community bot. It runs a weekly per-guild "reaction
awards" report (most-reacted messages, announced on a configurable weekday
and time) and relays JMA earthquake information from the P2PQuake feed, each
backed by a small per-guild configuration table in an embedded database.
*/
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/sh1ma/hibikase/internal/awards"
	"github.com/sh1ma/hibikase/internal/bot"
	"github.com/sh1ma/hibikase/internal/config"
	"github.com/sh1ma/hibikase/internal/database"
	"github.com/sh1ma/hibikase/internal/health"
	"github.com/sh1ma/hibikase/internal/logging"
	"github.com/sh1ma/hibikase/internal/models"
	"github.com/sh1ma/hibikase/internal/quake"
	"github.com/sh1ma/hibikase/internal/store"
)

const version = "v0.3.0"

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatalf("error loading config: %s", err)
	}

	l := logging.New(cfg.Debug)
	defer func() {
		_ = l.Sync()
	}()

	l.Infof("hibikase %s starting", version)

	if err := database.Init(cfg.DatabaseType, cfg.DatabaseConnectionString()); err != nil {
		l.Fatalf("error initializing database: %s", err)
	}
	defer database.Close()

	awardConfigs := store.NewConfigStore[models.AwardConfig](database.DB,
		"guild_name", "channel_name", "min_reactions", "ranks")
	awardSchedules := store.NewConfigStore[models.AwardSchedule](database.DB,
		"weekday", "hour", "minute")
	quakeConfigs := store.NewConfigStore[models.QuakeConfig](database.DB,
		"guild_name", "channel_id", "channel_name", "min_scale", "last_event_id")
	records := store.NewRecordStore(database.DB)

	aggregator := health.NewAggregator(database.DB, "p2pquake_api", l.Named("health"))
	aggregator.Start(time.Duration(cfg.HealthFlushIntervalSecond) * time.Second)

	// Discord allows bursts but sustained sends should stay well under its
	// per-channel limit.
	sendLimiter := rate.NewLimiter(rate.Every(time.Second), 5)

	b, err := bot.New(cfg.DiscordToken, bot.Deps{
		AwardConfigs:   awardConfigs,
		AwardSchedules: awardSchedules,
		QuakeConfigs:   quakeConfigs,
		Records:        records,
		Location:       cfg.Location(),
	}, l.Named("bot"))
	if err != nil {
		l.Fatalf("error creating bot: %s", err)
	}

	composer := awards.NewComposer(b.Session, sendLimiter, l.Named("composer"))
	reporter := awards.NewReporter(awardConfigs, records, b.Session, composer, cfg.Location(), l.Named("reporter"))
	scheduler := awards.NewScheduler(awardConfigs, awardSchedules, reporter, cfg.Location(), l.Named("scheduler"))
	b.SetScheduler(scheduler)

	if err := b.Start(); err != nil {
		l.Fatalf("error starting bot: %s", err)
	}

	quakeClient := quake.NewClient(cfg.QuakeAPIBaseURL, aggregator)
	relay := quake.NewRelay(quakeConfigs, quakeClient, b.Session,
		time.Duration(cfg.QuakePollIntervalSeconds)*time.Second, l.Named("quake"))
	relay.Start()

	l.Info("bot is running, press CTRL-C to exit")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	relay.Stop()
	aggregator.Stop()
	b.Stop()
}
