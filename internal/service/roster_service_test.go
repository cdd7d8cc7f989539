package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-portal-api/internal/models"
	appErrors "github.com/noah-isme/timetable-portal-api/pkg/errors"
)

type stubRosterWriter struct {
	courses     []models.Course
	enrollments []models.Enrollment
	summary     *models.RosterSummary
}

func (s *stubRosterWriter) Replace(ctx context.Context, courses []models.Course, enrollments []models.Enrollment) error {
	s.courses = courses
	s.enrollments = enrollments
	return nil
}

func (s *stubRosterWriter) Summary(ctx context.Context) (*models.RosterSummary, error) {
	return s.summary, nil
}

const dataStructuresSheet = `Faculty Name,Dr. Rao
Data Structures
Group Mail ID,ds@school.edu
SN,Student ID,Student Name
1,c1001,Aditi Sharma
2,C1002,Rohan Gupta
3,nan,
`

const emptySheet = `Just a note
nothing tabular here
`

func TestImportReplacesRoster(t *testing.T) {
	repo := &stubRosterWriter{}
	svc := NewRosterService(repo, nil, nil)

	resp, err := svc.Import(context.Background(), []ImportFile{
		{Name: "ds.csv", Reader: strings.NewReader(dataStructuresSheet)},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Files)
	assert.Equal(t, 1, resp.Courses)
	assert.Equal(t, 2, resp.Enrollments)
	assert.Empty(t, resp.Skipped)

	require.Len(t, repo.courses, 1)
	assert.Equal(t, "Data Structures", repo.courses[0].Subject)
	assert.Equal(t, "Dr. Rao", repo.courses[0].Faculty)

	require.Len(t, repo.enrollments, 2)
	assert.Equal(t, "C1001", repo.enrollments[0].StudentID)
	assert.NotEmpty(t, repo.enrollments[0].ID)
}

func TestImportSkipsSheetsWithoutRecords(t *testing.T) {
	repo := &stubRosterWriter{}
	svc := NewRosterService(repo, nil, nil)

	resp, err := svc.Import(context.Background(), []ImportFile{
		{Name: "ds.csv", Reader: strings.NewReader(dataStructuresSheet)},
		{Name: "notes.csv", Reader: strings.NewReader(emptySheet)},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Files)
	assert.Equal(t, 1, resp.Courses)
	assert.Equal(t, []string{"notes.csv"}, resp.Skipped)
}

func TestImportDuplicateSubjectKeepsFirst(t *testing.T) {
	repo := &stubRosterWriter{}
	svc := NewRosterService(repo, nil, nil)

	resp, err := svc.Import(context.Background(), []ImportFile{
		{Name: "ds.csv", Reader: strings.NewReader(dataStructuresSheet)},
		{Name: "ds-copy.csv", Reader: strings.NewReader(dataStructuresSheet)},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Courses)
	assert.Equal(t, []string{"ds-copy.csv"}, resp.Skipped)
	require.Len(t, repo.courses, 1)
}

func TestImportNoFiles(t *testing.T) {
	svc := NewRosterService(&stubRosterWriter{}, nil, nil)

	_, err := svc.Import(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportAllSheetsEmpty(t *testing.T) {
	svc := NewRosterService(&stubRosterWriter{}, nil, nil)

	_, err := svc.Import(context.Background(), []ImportFile{
		{Name: "notes.csv", Reader: strings.NewReader(emptySheet)},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSummary(t *testing.T) {
	repo := &stubRosterWriter{summary: &models.RosterSummary{Courses: 5, Students: 120, Enrollments: 480}}
	svc := NewRosterService(repo, nil, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Courses)
	assert.Equal(t, 120, summary.Students)
	assert.Equal(t, 480, summary.Enrollments)
}
