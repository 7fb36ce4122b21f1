package indexer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs an incremental index every hour
const DefaultSchedule = "@every 1h"

// cronParser accepts five field specs, six field specs with seconds and descriptors
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler runs Sync on a cron schedule
type Scheduler struct {
	indexer *Indexer
	source  CandidateSource
	cron    *cron.Cron
	timeout time.Duration
	logger  *slog.Logger
}

// NewScheduler creates a scheduler syncing source into indexer
func NewScheduler(indexer *Indexer, source CandidateSource, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		indexer: indexer,
		source:  source,
		cron:    cron.New(cron.WithParser(cronParser)),
		timeout: 30 * time.Minute,
		logger:  logger,
	}
}

// Start schedules the sync. An empty schedule uses DefaultSchedule.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	_, err := s.cron.AddFunc(schedule, s.RunNow)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Indexing scheduler started", slog.String("schedule", schedule))

	return nil
}

// Stop stops the scheduler and waits for a running sync to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Indexing scheduler stopped")
}

// RunNow runs one sync and blocks until it is done
func (s *Scheduler) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	added, err := s.indexer.Sync(ctx, s.source)
	if errors.Is(err, ErrIndexerBusy) {
		s.logger.Info("Skipping scheduled indexing, previous run still active")
		return
	} else if err != nil {
		s.logger.Error("Scheduled indexing failed", slog.String("error", err.Error()))
		return
	}

	s.logger.Info("Scheduled indexing finished", slog.Int("added", added), slog.Duration("duration", time.Since(start)))
}

// ValidateSchedule reports whether schedule is a valid cron expression
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}
