package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-portal-api/internal/models"
	appErrors "github.com/noah-isme/timetable-portal-api/pkg/errors"
)

func exportFixture() *ExportService {
	roster := &stubEnrollmentReader{enrollments: map[string][]models.Enrollment{
		"C1001": {
			{StudentID: "C1001", StudentName: "Aditi Sharma", Subject: "Data Structures"},
			{StudentID: "C1001", StudentName: "Aditi Sharma", Subject: "Operating Systems"},
		},
	}}
	timetables := NewTimetableService(roster, publishedFixture(), nil, nil, 0)
	return NewExportService(timetables, nil)
}

func TestExportStudentTimetablePDF(t *testing.T) {
	svc := exportFixture()

	result, err := svc.StudentTimetable(context.Background(), "C1001", "Aditi Sharma", ExportFormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "timetable-C1001-v3.pdf", result.Filename)
	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF")))
}

func TestExportStudentTimetableCSV(t *testing.T) {
	svc := exportFixture()

	result, err := svc.StudentTimetable(context.Background(), "C1001", "Aditi Sharma", ExportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv", result.ContentType)
	assert.Contains(t, string(result.Data), "Subject,Faculty,Day,Slot,Room")
	assert.Contains(t, string(result.Data), "Data Structures")
	assert.NotContains(t, string(result.Data), "Databases")
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := exportFixture()

	_, err := svc.StudentTimetable(context.Background(), "C1001", "Aditi Sharma", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportNoPublishedVersion(t *testing.T) {
	timetables := NewTimetableService(&stubEnrollmentReader{}, &stubPublishedReader{}, nil, nil, 0)
	svc := NewExportService(timetables, nil)

	_, err := svc.StudentTimetable(context.Background(), "C1001", "", ExportFormatPDF)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoPublishedVersion.Code, appErrors.FromError(err).Code)
}
