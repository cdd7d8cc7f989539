package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-portal-api/internal/dto"
	"github.com/noah-isme/timetable-portal-api/internal/engine"
	"github.com/noah-isme/timetable-portal-api/internal/models"
	appErrors "github.com/noah-isme/timetable-portal-api/pkg/errors"
)

type enrollmentReader interface {
	FindEnrollmentsByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type publishedTimetableReader interface {
	FindPublished(ctx context.Context) (*models.Timetable, error)
	ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error)
}

// TimetableService projects the published timetable into per-student weekly
// views.
type TimetableService struct {
	roster     enrollmentReader
	timetables publishedTimetableReader
	cache      *CacheService
	logger     *zap.Logger
	cacheTTL   time.Duration
}

// NewTimetableService constructs the service.
func NewTimetableService(roster enrollmentReader, timetables publishedTimetableReader, cache *CacheService, logger *zap.Logger, cacheTTL time.Duration) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &TimetableService{
		roster:     roster,
		timetables: timetables,
		cache:      cache,
		logger:     logger,
		cacheTTL:   cacheTTL,
	}
}

// StudentTimetable returns the authenticated student's slice of the published
// timetable: only the entries for subjects the student is enrolled in, laid
// out as a slot-rows by day-columns grid.
func (s *TimetableService) StudentTimetable(ctx context.Context, studentID, studentName string) (*dto.StudentTimetable, error) {
	published, err := s.timetables.FindPublished(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNoPublishedVersion
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published timetable")
	}

	cacheKey := fmt.Sprintf("timetable:student:%s:%s", studentID, published.ID)
	if s.cache != nil {
		var cached dto.StudentTimetable
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	enrollments, err := s.roster.FindEnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	entries, err := s.timetables.ListEntries(ctx, published.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}

	enrolled := make(map[string]struct{}, len(enrollments))
	name := studentName
	for _, e := range enrollments {
		enrolled[e.Subject] = struct{}{}
		if name == "" {
			name = e.StudentName
		}
	}

	var mine []models.TimetableEntry
	for _, entry := range entries {
		if _, ok := enrolled[entry.Subject]; ok {
			mine = append(mine, entry)
		}
	}

	view := &dto.StudentTimetable{
		StudentID:   studentID,
		StudentName: name,
		TimetableID: published.ID,
		Version:     published.Version,
		Grid:        BuildWeeklyGrid(mine),
		Courses:     entryDTOs(mine),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, view, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache student timetable", zap.Error(err))
		}
	}
	return view, nil
}

// PublishedTimetable returns the full published version with all entries.
func (s *TimetableService) PublishedTimetable(ctx context.Context) (*models.Timetable, []models.TimetableEntry, error) {
	published, err := s.timetables.FindPublished(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNoPublishedVersion
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published timetable")
	}
	entries, err := s.timetables.ListEntries(ctx, published.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	return published, entries, nil
}

// BuildWeeklyGrid lays out entries as slot rows and day columns. Empty cells
// are free windows. Entries with unknown day or slot labels are skipped.
func BuildWeeklyGrid(entries []models.TimetableEntry) dto.WeeklyGrid {
	grid := dto.WeeklyGrid{
		Days:  make([]string, 0, len(engine.Days)),
		Slots: make([]string, 0, len(engine.Slots)),
		Cells: make([][]string, len(engine.Slots)),
	}
	for _, d := range engine.Days {
		grid.Days = append(grid.Days, d.String())
	}
	for i, s := range engine.Slots {
		grid.Slots = append(grid.Slots, string(s))
		grid.Cells[i] = make([]string, len(engine.Days))
	}

	for _, entry := range entries {
		day, ok := engine.ParseDay(entry.Day)
		if !ok {
			continue
		}
		row := engine.SlotIndex(engine.Slot(entry.Slot))
		if row < 0 {
			continue
		}
		grid.Cells[row][int(day)] = entry.Subject
	}
	return grid
}
