package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
	"github.com/noah-isme/attendance-tracker/pkg/response"
)

type subjectService interface {
	List() []models.SubjectView
	Get(index int) (*models.SubjectView, error)
	GetByID(id string) (*models.SubjectView, error)
	Add(ctx context.Context, input service.SubjectInput) (*models.SubjectView, error)
	Update(ctx context.Context, index int, input service.SubjectInput) (*models.SubjectView, error)
	Remove(ctx context.Context, index int) error
	IncrementAttendedAndTotal(ctx context.Context, index int) (*models.SubjectView, error)
	IncrementTotalOnly(ctx context.Context, index int) (*models.SubjectView, error)
}

// SubjectHandler handles subject endpoints.
type SubjectHandler struct {
	service subjectService
}

// NewSubjectHandler constructs a subject handler.
func NewSubjectHandler(svc subjectService) *SubjectHandler {
	return &SubjectHandler{service: svc}
}

// List godoc
// @Summary List subjects with attendance percentage and recommendation
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	subjects := h.service.List()
	response.JSON(c, http.StatusOK, subjects, map[string]interface{}{"count": len(subjects)})
}

// Get godoc
// @Summary Get subject by position
// @Tags Subjects
// @Produce json
// @Param index path int true "Subject index"
// @Success 200 {object} response.Envelope
// @Router /subjects/{index} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	subject, err := h.service.Get(index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject)
}

// GetByID godoc
// @Summary Get subject by identifier
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subject-ids/{id} [get]
func (h *SubjectHandler) GetByID(c *gin.Context) {
	subject, err := h.service.GetByID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject)
}

// Create godoc
// @Summary Add subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body service.SubjectInput true "Name with attended and missed as JSON strings holding whole numbers >= 0"
// @Success 201 {object} response.Envelope
// @Router /subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var req service.SubjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.service.Add(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Update godoc
// @Summary Edit subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param index path int true "Subject index"
// @Param payload body service.SubjectInput true "Name with attended and missed as JSON strings holding whole numbers >= 0"
// @Success 200 {object} response.Envelope
// @Router /subjects/{index} [put]
func (h *SubjectHandler) Update(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var req service.SubjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.service.Update(c.Request.Context(), index, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject)
}

// Delete godoc
// @Summary Delete subject
// @Tags Subjects
// @Produce json
// @Param index path int true "Subject index"
// @Param confirm query bool true "Must be true"
// @Success 204
// @Router /subjects/{index} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	if confirmed, _ := strconv.ParseBool(c.Query("confirm")); !confirmed {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "deletion requires confirm=true"))
		return
	}
	if err := h.service.Remove(c.Request.Context(), index); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Attend godoc
// @Summary Record an attended class
// @Tags Subjects
// @Produce json
// @Param index path int true "Subject index"
// @Success 200 {object} response.Envelope
// @Router /subjects/{index}/attend [post]
func (h *SubjectHandler) Attend(c *gin.Context) {
	h.increment(c, h.service.IncrementAttendedAndTotal)
}

// Miss godoc
// @Summary Record a missed class
// @Tags Subjects
// @Produce json
// @Param index path int true "Subject index"
// @Success 200 {object} response.Envelope
// @Router /subjects/{index}/miss [post]
func (h *SubjectHandler) Miss(c *gin.Context) {
	h.increment(c, h.service.IncrementTotalOnly)
}

func (h *SubjectHandler) increment(c *gin.Context, op func(context.Context, int) (*models.SubjectView, error)) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	subject, err := op(c.Request.Context(), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject)
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "index must be a whole number"))
		return 0, false
	}
	return index, true
}
