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

type rosterImporter interface {
	Import(ctx context.Context, files []service.ImportFile) (*dto.RosterImportResponse, error)
	Summary(ctx context.Context) (*models.RosterSummary, error)
}

// RosterHandler serves roster import and summary endpoints.
type RosterHandler struct {
	service rosterImporter
}

// NewRosterHandler creates a new handler.
func NewRosterHandler(svc *service.RosterService) *RosterHandler {
	return &RosterHandler{service: svc}
}

// Import godoc
// @Summary Import course sheets
// @Description Replace the stored roster with the uploaded CSV course sheets
// @Tags Roster
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Course CSV sheets"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /roster/import [post]
func (h *RosterHandler) Import(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "expected multipart form upload"))
		return
	}

	uploads := form.File["files"]
	files := make([]service.ImportFile, 0, len(uploads))
	opened := make([]interface{ Close() error }, 0, len(uploads))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for _, upload := range uploads {
		f, err := upload.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read "+upload.Filename))
			return
		}
		opened = append(opened, f)
		files = append(files, service.ImportFile{Name: upload.Filename, Reader: f})
	}

	res, err := h.service.Import(c.Request.Context(), files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, res, nil)
}

// Summary godoc
// @Summary Roster summary
// @Description Reports course, student and enrollment counts
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roster/summary [get]
func (h *RosterHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
