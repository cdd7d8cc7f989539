package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-portal-api/internal/dto"
	"github.com/noah-isme/timetable-portal-api/internal/models"
	"github.com/noah-isme/timetable-portal-api/internal/service"
	appErrors "github.com/noah-isme/timetable-portal-api/pkg/errors"
	"github.com/noah-isme/timetable-portal-api/pkg/response"
)

type timetableViewer interface {
	StudentTimetable(ctx context.Context, studentID, studentName string) (*dto.StudentTimetable, error)
	PublishedTimetable(ctx context.Context) (*models.Timetable, []models.TimetableEntry, error)
}

type timetableExporter interface {
	StudentTimetable(ctx context.Context, studentID, studentName, format string) (*service.ExportResult, error)
}

// TimetableHandler serves student views of the published timetable.
type TimetableHandler struct {
	timetables timetableViewer
	exports    timetableExporter
}

// NewTimetableHandler creates a new handler.
func NewTimetableHandler(timetables *service.TimetableService, exports *service.ExportService) *TimetableHandler {
	return &TimetableHandler{timetables: timetables, exports: exports}
}

// MyTimetable godoc
// @Summary Get my weekly timetable
// @Description Returns the authenticated student's slice of the published timetable as a weekly grid
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/me/timetable [get]
func (h *TimetableHandler) MyTimetable(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	view, err := h.timetables.StudentTimetable(c.Request.Context(), claims.SubjectID, claims.FullName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Published godoc
// @Summary Get the published timetable
// @Description Returns the currently published version with all entries
// @Tags Timetables
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/published [get]
func (h *TimetableHandler) Published(c *gin.Context) {
	timetable, entries, err := h.timetables.PublishedTimetable(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"timetable": timetable, "entries": entries}, nil)
}

// Export godoc
// @Summary Download my timetable
// @Description Renders the authenticated student's timetable as PDF or CSV
// @Tags Students
// @Produce application/pdf
// @Produce text/csv
// @Param format query string true "Export format" Enums(pdf, csv)
// @Success 200 {file} binary "Rendered document"
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/me/timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := c.DefaultQuery("format", service.ExportFormatPDF)
	result, err := h.exports.StudentTimetable(c.Request.Context(), claims.SubjectID, claims.FullName, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
