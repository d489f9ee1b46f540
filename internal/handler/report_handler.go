package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
	"github.com/noah-isme/attendance-tracker/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, format models.ReportFormat) (*models.AttendanceReport, error)
	Open(token string) (*os.File, models.ReportFormat, error)
}

// ReportRequest selects the export format.
type ReportRequest struct {
	Format string `json:"format"`
}

// ReportHandler exposes attendance report exports.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Create godoc
// @Summary Export attendance report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body handler.ReportRequest false "csv (default) or pdf"
// @Success 201 {object} response.Envelope
// @Router /reports/attendance [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req ReportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	format, err := service.ParseFormat(req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.service.Generate(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Download godoc
// @Summary Download a generated report
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, format, err := h.service.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(file.Name())))
	c.DataFromReader(http.StatusOK, info.Size(), format.ContentType(), file, nil)
}
