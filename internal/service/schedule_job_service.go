package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/section-allocator/internal/dto"
	appErrors "github.com/noah-isme/section-allocator/pkg/errors"
	"github.com/noah-isme/section-allocator/pkg/jobs"
)

// JobTypeGenerateSchedule identifies queued scheduling runs.
const JobTypeGenerateSchedule = "schedule.generate"

type jobList interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context, wait time.Duration) ([]byte, error)
}

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleResult, error)
}

// ScheduleJobConfig tunes the worker.
type ScheduleJobConfig struct {
	Tries      int
	Timeout    time.Duration
	RetryDelay time.Duration
	PollWait   time.Duration
}

// ScheduleJobService moves scheduling runs through a Redis list into an in-process worker queue.
// Producers only need Enqueue; the API process calls Run to consume.
type ScheduleJobService struct {
	list      jobList
	generator scheduleGenerator
	queue     *jobs.Queue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleJobConfig
	now       func() time.Time
}

// NewScheduleJobService builds the service. generator may be nil for enqueue-only callers.
func NewScheduleJobService(list jobList, generator scheduleGenerator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ScheduleJobConfig) *ScheduleJobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Tries <= 0 {
		cfg.Tries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 600 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.PollWait <= 0 {
		cfg.PollWait = 5 * time.Second
	}
	s := &ScheduleJobService{
		list:      list,
		generator: generator,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
	// one worker: runs for the same semester must not overlap
	s.queue = jobs.NewQueue("schedule-runs", s.handle, jobs.QueueConfig{
		Workers:     1,
		MaxAttempts: cfg.Tries,
		RetryDelay:  cfg.RetryDelay,
		Timeout:     cfg.Timeout,
		OnFailure:   s.onFailure,
		Logger:      logger,
	})
	return s
}

// Enqueue validates and pushes a run onto the shared list.
func (s *ScheduleJobService) Enqueue(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleJobPayload, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule request")
	}
	payload := &dto.ScheduleJobPayload{
		JobID:       uuid.NewString(),
		SemesterID:  req.SemesterID,
		Options:     req.Options,
		RequestedAt: s.now(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule job")
	}
	if err := s.list.Push(ctx, raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to queue schedule job")
	}
	s.metrics.ObserveJob("queued")
	s.logger.Info("schedule_job_queued", zap.String("job_id", payload.JobID), zap.String("semester_id", payload.SemesterID))
	return payload, nil
}

// Run consumes the list until ctx is cancelled.
func (s *ScheduleJobService) Run(ctx context.Context) error {
	if s.generator == nil {
		return fmt.Errorf("schedule job worker has no generator")
	}
	s.queue.Start(ctx)
	defer s.queue.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		raw, err := s.list.Pop(ctx, s.cfg.PollWait)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("schedule job poll failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.cfg.PollWait):
			}
			continue
		}
		if raw == nil {
			continue
		}
		if err := s.dispatch(raw); err != nil {
			s.logger.Error("schedule job dropped", zap.Error(err))
		}
	}
}

func (s *ScheduleJobService) dispatch(raw []byte) error {
	var payload dto.ScheduleJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode schedule job: %w", err)
	}
	if payload.SemesterID == "" {
		return errors.New("schedule job without semester")
	}
	if payload.JobID == "" {
		payload.JobID = uuid.NewString()
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      payload.JobID,
		Type:    JobTypeGenerateSchedule,
		Tag:     "semester:" + payload.SemesterID,
		Payload: payload,
	})
}

func (s *ScheduleJobService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(dto.ScheduleJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	log := s.logger.With(zap.String("job_id", job.ID), zap.String("tag", job.Tag), zap.Int("attempt", job.Attempt))

	result, err := s.generator.Generate(ctx, dto.GenerateScheduleRequest{SemesterID: payload.SemesterID, Options: payload.Options})
	if err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) || appErrors.Is(err, appErrors.ErrValidation) {
			s.metrics.ObserveJob("failed")
			log.Error("schedule_job_rejected", zap.Error(err))
			return nil
		}
		return err
	}
	s.metrics.ObserveJob("succeeded")
	log.Info("schedule_job_completed",
		zap.Bool("is_valid", result.IsValid),
		zap.Int("sections_assigned", result.Stats.SectionsAssigned),
		zap.Bool("requires_admin_intervention", result.RequiresAdminIntervention()))
	return nil
}

func (s *ScheduleJobService) onFailure(job jobs.Job, err error) {
	s.metrics.ObserveJob("failed")
	s.logger.Error("schedule_job_failed", zap.String("job_id", job.ID), zap.String("tag", job.Tag), zap.Int("attempts", job.Attempt), zap.Error(err))
}
