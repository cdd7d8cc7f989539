package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-portal-api/internal/dto"
	"github.com/noah-isme/timetable-portal-api/internal/models"
	"github.com/noah-isme/timetable-portal-api/internal/service"
)

type rosterMock struct {
	captured []string
}

func (m *rosterMock) Import(ctx context.Context, files []service.ImportFile) (*dto.RosterImportResponse, error) {
	for _, f := range files {
		m.captured = append(m.captured, f.Name)
		_, _ = io.ReadAll(f.Reader)
	}
	return &dto.RosterImportResponse{Files: len(files), Courses: len(files)}, nil
}

func (m *rosterMock) Summary(ctx context.Context) (*models.RosterSummary, error) {
	return &models.RosterSummary{Courses: 3, Students: 90, Enrollments: 270}, nil
}

func multipartUpload(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, name := range names {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("SN,Student ID,Student Name\n1,C1001,Aditi Sharma\n"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestRosterImport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &rosterMock{}
	handler := &RosterHandler{service: mockSvc}
	router := gin.New()
	router.POST("/roster/import", handler.Import)

	body, contentType := multipartUpload(t, "ds.csv", "os.csv")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/roster/import", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, []string{"ds.csv", "os.csv"}, mockSvc.captured)
}

func TestRosterImportNotMultipart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &RosterHandler{service: &rosterMock{}}
	router := gin.New()
	router.POST("/roster/import", handler.Import)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/roster/import", bytes.NewReader([]byte(`{"not":"multipart"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRosterSummaryRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &RosterHandler{service: &rosterMock{}}
	router := gin.New()
	router.GET("/roster/summary", handler.Summary)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/roster/summary", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"courses":3`)
}
