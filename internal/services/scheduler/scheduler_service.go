package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/common"
	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
	"github.com/mishrapravin114/pharmadoc/internal/models"
)

// Service implements SchedulerService. Its single maintenance task sweeps
// jobs left in a processing state with no recent heartbeat (typically after a
// crash or restart) and marks them failed so clients stop waiting on them.
type Service struct {
	jobStorage       interfaces.IndexJobStorage
	events           interfaces.EventService
	cron             *cron.Cron
	logger           arbor.ILogger
	schedule         string
	heartbeatTimeout time.Duration
	running          bool
}

// NewService creates a new scheduler service
func NewService(config *common.SchedulerConfig, indexerConfig *common.IndexerConfig, jobStorage interfaces.IndexJobStorage, events interfaces.EventService, logger arbor.ILogger) interfaces.SchedulerService {
	timeout := 10 * time.Minute
	if indexerConfig != nil && indexerConfig.HeartbeatTimeout != "" {
		if d, err := time.ParseDuration(indexerConfig.HeartbeatTimeout); err == nil {
			timeout = d
		} else {
			logger.Warn().Str("heartbeat_timeout", indexerConfig.HeartbeatTimeout).Msg("Invalid indexer.heartbeat_timeout, using default")
		}
	}

	return &Service{
		jobStorage:       jobStorage,
		events:           events,
		cron:             cron.New(),
		logger:           logger,
		schedule:         config.Schedule,
		heartbeatTimeout: timeout,
	}
}

// Start registers and starts the stale-job sweep
func (s *Service) Start() error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sweepStaleJobs); err != nil {
		return fmt.Errorf("failed to register stale-job sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().Str("schedule", s.schedule).Msg("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// sweepStaleJobs marks processing/paused jobs without a recent heartbeat as
// failed. Paused jobs heartbeat on resume, so only genuinely abandoned runs
// are swept.
func (s *Service) sweepStaleJobs() {
	ctx := context.Background()
	cutoff := time.Now().Add(-s.heartbeatTimeout)

	for _, status := range []models.JobStatus{models.JobStatusProcessing, models.JobStatusPaused} {
		jobs, err := s.jobStorage.ListJobs(ctx, &interfaces.JobListOptions{Status: string(status)})
		if err != nil {
			s.logger.Error().Err(err).Msg("Stale-job sweep failed to list jobs")
			return
		}

		for _, job := range jobs {
			if job.LastHeartbeat != nil && job.LastHeartbeat.After(cutoff) {
				continue
			}
			if job.LastHeartbeat == nil && job.CreatedAt.After(cutoff) {
				continue
			}

			job.MarkFailed(fmt.Sprintf("Timeout: no activity for %s", s.heartbeatTimeout))
			if err := s.jobStorage.SaveJob(ctx, job); err != nil {
				s.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist stale job")
				continue
			}

			s.logger.Warn().
				Str("job_id", job.ID).
				Str("collection_id", job.CollectionID).
				Msg("Marked stale indexing job as failed")

			s.events.Publish(ctx, interfaces.Event{
				Type:    interfaces.EventJobSnapshot,
				Payload: job,
			})
		}
	}
}
