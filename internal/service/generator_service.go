package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-portal-api/internal/dto"
	"github.com/noah-isme/timetable-portal-api/internal/engine"
	"github.com/noah-isme/timetable-portal-api/internal/models"
	appErrors "github.com/noah-isme/timetable-portal-api/pkg/errors"
	"github.com/noah-isme/timetable-portal-api/pkg/jobs"
)

// Job states for asynchronous generation runs.
const (
	JobStateQueued    = "QUEUED"
	JobStateRunning   = "RUNNING"
	JobStateCompleted = "COMPLETED"
	JobStateFailed    = "FAILED"
)

const studentTimetableCachePattern = "timetable:student:*"

type rosterReader interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	ListEnrollments(ctx context.Context) ([]models.Enrollment, error)
}

type timetableStore interface {
	CreateVersioned(ctx context.Context, timetable *models.Timetable, entries []models.TimetableEntry) error
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	List(ctx context.Context) ([]models.Timetable, error)
	ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error)
	Publish(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// GeneratorConfig tunes default generation behaviour; requests may override
// the worker count and deadline per run.
type GeneratorConfig struct {
	Workers  int
	Deadline time.Duration
}

// GeneratorService runs the scheduling engine over the stored roster and
// persists the outcome as versioned timetables.
type GeneratorService struct {
	roster     rosterReader
	timetables timetableStore
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	config     GeneratorConfig

	queue *jobs.Queue

	mu      sync.RWMutex
	jobList map[string]*dto.GenerationJobStatus
}

// NewGeneratorService constructs the service. Call StartJobs before enqueueing
// asynchronous runs and StopJobs on shutdown.
func NewGeneratorService(roster rosterReader, timetables timetableStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config GeneratorConfig, queueCfg jobs.QueueConfig) *GeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.Deadline <= 0 {
		config.Deadline = 10 * time.Second
	}

	s := &GeneratorService{
		roster:     roster,
		timetables: timetables,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		config:     config,
		jobList:    make(map[string]*dto.GenerationJobStatus),
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("timetable-generation", s.handleGenerationJob, queueCfg)
	return s
}

// StartJobs starts the background generation workers.
func (s *GeneratorService) StartJobs(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopJobs drains interactions and stops the workers.
func (s *GeneratorService) StopJobs() {
	s.queue.Stop()
}

// Generate runs one generation synchronously and persists the result as a new
// draft version.
func (s *GeneratorService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	return s.run(ctx, req)
}

// GenerateAsync queues a generation run and returns a trackable job.
func (s *GeneratorService) GenerateAsync(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobStatus, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}

	status := &dto.GenerationJobStatus{
		JobID:      uuid.NewString(),
		State:      JobStateQueued,
		EnqueuedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobList[status.JobID] = status
	s.mu.Unlock()

	job := jobs.Job{ID: status.JobID, Type: "generate", Payload: req}
	if err := s.queue.Enqueue(job); err != nil {
		s.mu.Lock()
		delete(s.jobList, status.JobID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue generation")
	}

	copied := *status
	return &copied, nil
}

// JobStatus reports the state of an asynchronous generation run.
func (s *GeneratorService) JobStatus(jobID string) (*dto.GenerationJobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.jobList[jobID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
	}
	copied := *status
	return &copied, nil
}

func (s *GeneratorService) handleGenerationJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateTimetableRequest)
	if !ok {
		s.finishJob(job.ID, JobStateFailed, "", "unexpected job payload")
		return nil
	}

	s.setJobState(job.ID, JobStateRunning)
	resp, err := s.run(ctx, req)
	if err != nil {
		s.finishJob(job.ID, JobStateFailed, "", err.Error())
		s.logger.Error("async generation failed", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	s.finishJob(job.ID, JobStateCompleted, resp.TimetableID, "")
	return nil
}

func (s *GeneratorService) setJobState(jobID, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.jobList[jobID]; ok {
		status.State = state
	}
}

func (s *GeneratorService) finishJob(jobID, state, timetableID, errMsg string) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.jobList[jobID]; ok {
		status.State = state
		status.TimetableID = timetableID
		status.Error = errMsg
		status.FinishedAt = &now
	}
}

func (s *GeneratorService) run(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	roster, err := s.loadRoster(ctx)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roster is empty, import enrollments first")
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	workers := s.config.Workers
	if req.Parallelism > 0 {
		workers = req.Parallelism
	}
	deadline := s.config.Deadline
	if req.DeadlineMs > 0 {
		deadline = time.Duration(req.DeadlineMs) * time.Millisecond
	}

	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	started := time.Now()
	result := engine.ParallelGenerate(runCtx, roster, engine.ParallelOptions{Workers: workers, Seed: seed})
	elapsed := time.Since(started)

	if s.metrics != nil {
		s.metrics.ObserveGeneration(result.FullyPlaced, result.Attempts, len(result.Unplaced), elapsed)
	}
	s.logger.Info("timetable generated",
		zap.Bool("fully_placed", result.FullyPlaced),
		zap.Int("attempts", result.Attempts),
		zap.Int("unplaced", len(result.Unplaced)),
		zap.Int64("seed", seed),
		zap.Duration("elapsed", elapsed))

	meta, err := json.Marshal(models.TimetableMeta{
		Seed:     seed,
		Attempts: result.Attempts,
		Workers:  workers,
		Unplaced: result.Unplaced,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode run metadata")
	}

	timetable := &models.Timetable{
		ID:          uuid.NewString(),
		Status:      models.TimetableStatusDraft,
		FullyPlaced: result.FullyPlaced,
		Meta:        types.JSONText(meta),
	}
	entries := entriesFromAssignment(timetable.ID, roster, result.Assignment)

	if err := s.timetables.CreateVersioned(ctx, timetable, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable")
	}

	return &dto.GenerateTimetableResponse{
		TimetableID: timetable.ID,
		Version:     timetable.Version,
		FullyPlaced: result.FullyPlaced,
		Unplaced:    result.Unplaced,
		Attempts:    result.Attempts,
		Entries:     entryDTOs(entries),
	}, nil
}

// Publish promotes a draft to the single published version and drops any
// cached student views of the previous one.
func (s *GeneratorService) Publish(ctx context.Context, id string) (*models.Timetable, error) {
	if err := s.timetables.Publish(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, studentTimetableCachePattern); err != nil {
			s.logger.Warn("failed to invalidate student timetable cache", zap.Error(err))
		}
	}

	timetable, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published timetable")
	}
	return timetable, nil
}

// List returns every stored timetable version, newest first.
func (s *GeneratorService) List(ctx context.Context) ([]models.Timetable, error) {
	timetables, err := s.timetables.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return timetables, nil
}

// Get returns one timetable version with its placed entries.
func (s *GeneratorService) Get(ctx context.Context, id string) (*models.Timetable, []models.TimetableEntry, error) {
	timetable, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	entries, err := s.timetables.ListEntries(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	return timetable, entries, nil
}

// Delete removes a timetable version.
func (s *GeneratorService) Delete(ctx context.Context, id string) error {
	if err := s.timetables.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

// loadRoster materialises the stored roster into the engine's input shape.
func (s *GeneratorService) loadRoster(ctx context.Context) (engine.Roster, error) {
	courses, err := s.roster.ListCourses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	enrollments, err := s.roster.ListEnrollments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	students := make(map[string][]string, len(courses))
	for _, e := range enrollments {
		students[e.Subject] = append(students[e.Subject], e.StudentID)
	}

	roster := make(engine.Roster, len(courses))
	for _, c := range courses {
		roster.Add(engine.NewCourse(c.Subject, c.Faculty, students[c.Subject]))
	}
	return roster, nil
}

func entriesFromAssignment(timetableID string, roster engine.Roster, assignment engine.Assignment) []models.TimetableEntry {
	subjects := make([]string, 0, len(assignment))
	for subject := range assignment {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	entries := make([]models.TimetableEntry, 0, len(subjects))
	for _, subject := range subjects {
		placement := assignment[subject]
		entries = append(entries, models.TimetableEntry{
			ID:          uuid.NewString(),
			TimetableID: timetableID,
			Subject:     subject,
			Faculty:     roster[subject].Faculty,
			Day:         placement.Day.String(),
			Slot:        string(placement.Slot),
			Room:        placement.Room,
		})
	}
	return entries
}

func entryDTOs(entries []models.TimetableEntry) []dto.TimetableEntryDTO {
	out := make([]dto.TimetableEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.TimetableEntryDTO{
			Subject: e.Subject,
			Faculty: e.Faculty,
			Day:     e.Day,
			Slot:    e.Slot,
			Room:    e.Room,
		})
	}
	return out
}
