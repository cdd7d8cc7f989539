package service

import (
	"context"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-portal-api/internal/dto"
	"github.com/noah-isme/timetable-portal-api/internal/ingest"
	"github.com/noah-isme/timetable-portal-api/internal/models"
	appErrors "github.com/noah-isme/timetable-portal-api/pkg/errors"
)

type rosterWriter interface {
	Replace(ctx context.Context, courses []models.Course, enrollments []models.Enrollment) error
	Summary(ctx context.Context) (*models.RosterSummary, error)
}

// ImportFile pairs an uploaded sheet with its original filename.
type ImportFile struct {
	Name   string
	Reader io.Reader
}

// RosterService ingests uploaded course sheets and replaces the stored
// roster.
type RosterService struct {
	repo   rosterWriter
	parser *ingest.Parser
	logger *zap.Logger
}

// NewRosterService constructs the service.
func NewRosterService(repo rosterWriter, parser *ingest.Parser, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parser == nil {
		parser = ingest.NewParser(logger)
	}
	return &RosterService{repo: repo, parser: parser, logger: logger}
}

// Import parses the uploaded sheets and replaces the stored roster in one
// transaction. Sheets that yield no enrollment records are reported as
// skipped rather than failing the whole import.
func (s *RosterService) Import(ctx context.Context, files []ImportFile) (*dto.RosterImportResponse, error) {
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no course sheets provided")
	}

	var (
		courses     []models.Course
		enrollments []models.Enrollment
		skipped     []string
	)
	seenSubjects := make(map[string]struct{})

	for _, file := range files {
		parsed, err := s.parser.ParseFile(file.Name, file.Reader)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to parse "+file.Name)
		}
		if len(parsed.Records) == 0 {
			skipped = append(skipped, file.Name)
			continue
		}
		if _, ok := seenSubjects[parsed.Subject]; ok {
			s.logger.Warn("duplicate subject in upload, keeping first sheet",
				zap.String("subject", parsed.Subject), zap.String("file", file.Name))
			skipped = append(skipped, file.Name)
			continue
		}
		seenSubjects[parsed.Subject] = struct{}{}

		courses = append(courses, models.Course{Subject: parsed.Subject, Faculty: parsed.Faculty})
		for _, record := range parsed.Records {
			enrollments = append(enrollments, models.Enrollment{
				ID:          uuid.NewString(),
				StudentID:   string(record.StudentID),
				StudentName: record.StudentName,
				Subject:     record.Subject,
			})
		}
	}

	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "none of the uploaded sheets contained enrollments")
	}

	if err := s.repo.Replace(ctx, courses, enrollments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store roster")
	}

	s.logger.Info("roster replaced",
		zap.Int("files", len(files)),
		zap.Int("courses", len(courses)),
		zap.Int("enrollments", len(enrollments)),
		zap.Int("skipped", len(skipped)))

	return &dto.RosterImportResponse{
		Files:       len(files),
		Courses:     len(courses),
		Enrollments: len(enrollments),
		Skipped:     skipped,
	}, nil
}

// Summary reports roster size for admin views.
func (s *RosterService) Summary(ctx context.Context) (*models.RosterSummary, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster summary")
	}
	return summary, nil
}
