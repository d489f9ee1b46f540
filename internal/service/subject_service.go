package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// Store operation names used in logs and metrics.
const (
	OpLoad           = "load"
	OpSave           = "save"
	OpAdd            = "add"
	OpUpdate         = "update"
	OpRemove         = "remove"
	OpMarkAttended   = "attend"
	OpMarkMissed     = "miss"
	subjectNotFound  = "subject index out of range"
	subjectIDMissing = "subject not found"
)

type subjectRepository interface {
	Load(ctx context.Context) ([]models.Subject, error)
	Save(ctx context.Context, subjects []models.Subject) error
}

// SubjectInput carries the free-text form fields for add and edit.
type SubjectInput struct {
	Name     string `json:"name"`
	Attended string `json:"attended"`
	Missed   string `json:"missed"`
}

type subjectCounts struct {
	Name     string `validate:"required"`
	Attended int    `validate:"min=0"`
	Missed   int    `validate:"min=0"`
}

// SubjectService is the in-memory subject store. Every successful mutation is
// followed by a full save of the list.
type SubjectService struct {
	mu        sync.Mutex
	subjects  []models.Subject
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	newID     func() string
}

// NewSubjectService creates an empty store. Call Load to pull persisted state.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{
		subjects:  []models.Subject{},
		repo:      repo,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		newID:     uuid.NewString,
	}
}

// Load replaces the in-memory list with the persisted one. Failures leave the
// store empty and are returned only for reporting.
func (s *SubjectService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	subjects, err := s.repo.Load(ctx)
	s.metrics.ObservePersistence(OpLoad, time.Since(start), err)
	if err != nil {
		s.logger.Warn("subject slot unreadable, starting empty", zap.Error(err))
		s.subjects = []models.Subject{}
		s.metrics.SetSubjectCount(0)
		return err
	}
	s.subjects = subjects
	s.metrics.SetSubjectCount(len(subjects))
	s.logger.Debug("subjects loaded", zap.Int("count", len(subjects)))
	return nil
}

// List returns every subject with derived fields, in store order.
func (s *SubjectService) List() []models.SubjectView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]models.SubjectView, 0, len(s.subjects))
	for i, subject := range s.subjects {
		views = append(views, Describe(i, subject))
	}
	return views
}

// Len returns the number of subjects.
func (s *SubjectService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subjects)
}

// Get returns the subject at index.
func (s *SubjectService) Get(index int) (*models.SubjectView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inRange(index) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, subjectNotFound)
	}
	view := Describe(index, s.subjects[index])
	return &view, nil
}

// IndexOf resolves a subject id to its current position.
func (s *SubjectService) IndexOf(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id)
}

// GetByID returns the subject with the given id.
func (s *SubjectService) GetByID(id string) (*models.SubjectView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.indexOf(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, subjectIDMissing)
	}
	view := Describe(index, s.subjects[index])
	return &view, nil
}

// Add appends a new subject with total = attended + missed.
func (s *SubjectService) Add(ctx context.Context, input SubjectInput) (*models.SubjectView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts, err := s.parse(input)
	if err != nil {
		s.reject(OpAdd, err)
		return nil, err
	}

	subject := models.Subject{
		ID:       s.newID(),
		Name:     counts.Name,
		Attended: counts.Attended,
		Total:    counts.Attended + counts.Missed,
	}
	s.subjects = append(s.subjects, subject)
	index := len(s.subjects) - 1

	s.commit(ctx, OpAdd, zap.String("subject_id", subject.ID))
	view := Describe(index, subject)
	return &view, nil
}

// Update overwrites name and counts of the subject at index, keeping its id.
func (s *SubjectService) Update(ctx context.Context, index int, input SubjectInput) (*models.SubjectView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inRange(index) {
		err := appErrors.Clone(appErrors.ErrNotFound, subjectNotFound)
		s.reject(OpUpdate, err)
		return nil, err
	}
	counts, err := s.parse(input)
	if err != nil {
		s.reject(OpUpdate, err)
		return nil, err
	}

	subject := &s.subjects[index]
	subject.Name = counts.Name
	subject.Attended = counts.Attended
	subject.Total = counts.Attended + counts.Missed

	s.commit(ctx, OpUpdate, zap.String("subject_id", subject.ID))
	view := Describe(index, *subject)
	return &view, nil
}

// Remove deletes the subject at index, keeping the order of the rest.
func (s *SubjectService) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inRange(index) {
		err := appErrors.Clone(appErrors.ErrNotFound, subjectNotFound)
		s.reject(OpRemove, err)
		return err
	}

	id := s.subjects[index].ID
	s.subjects = append(s.subjects[:index], s.subjects[index+1:]...)

	s.commit(ctx, OpRemove, zap.String("subject_id", id))
	return nil
}

// IncrementAttendedAndTotal records an attended class.
func (s *SubjectService) IncrementAttendedAndTotal(ctx context.Context, index int) (*models.SubjectView, error) {
	return s.increment(ctx, OpMarkAttended, index, true)
}

// IncrementTotalOnly records a missed class.
func (s *SubjectService) IncrementTotalOnly(ctx context.Context, index int) (*models.SubjectView, error) {
	return s.increment(ctx, OpMarkMissed, index, false)
}

func (s *SubjectService) increment(ctx context.Context, op string, index int, attended bool) (*models.SubjectView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inRange(index) {
		err := appErrors.Clone(appErrors.ErrNotFound, subjectNotFound)
		s.reject(op, err)
		return nil, err
	}

	subject := &s.subjects[index]
	if subject.Total == math.MaxInt || (attended && subject.Attended == math.MaxInt) {
		err := appErrors.Clone(appErrors.ErrValidation, "class count is at its maximum")
		s.reject(op, err)
		return nil, err
	}
	if attended {
		subject.Attended++
	}
	subject.Total++

	s.commit(ctx, op, zap.String("subject_id", subject.ID))
	view := Describe(index, *subject)
	return &view, nil
}

// parse trims the name and converts the free-text counts. Nothing is mutated.
func (s *SubjectService) parse(input SubjectInput) (*subjectCounts, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	attended, err := strconv.Atoi(strings.TrimSpace(input.Attended))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "attended must be a whole number")
	}
	missed, err := strconv.Atoi(strings.TrimSpace(input.Missed))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missed must be a whole number")
	}

	counts := &subjectCounts{Name: name, Attended: attended, Missed: missed}
	if err := s.validator.Struct(counts); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "counts must not be negative")
	}
	// total is attended + missed and must stay representable.
	if counts.Attended > math.MaxInt-counts.Missed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "counts are too large")
	}
	return counts, nil
}

// commit saves the whole list. A failed save is logged and counted but the
// in-memory change stands.
func (s *SubjectService) commit(ctx context.Context, op string, fields ...zap.Field) {
	s.metrics.RecordMutation(op, true)
	s.metrics.SetSubjectCount(len(s.subjects))

	snapshot := make([]models.Subject, len(s.subjects))
	copy(snapshot, s.subjects)

	start := time.Now()
	err := s.repo.Save(ctx, snapshot)
	s.metrics.ObservePersistence(OpSave, time.Since(start), err)
	if err != nil {
		s.logger.Warn("subject save failed", append(fields, zap.String("operation", op), zap.Error(err))...)
		return
	}
	s.logger.Debug("subject store committed", append(fields, zap.String("operation", op))...)
}

func (s *SubjectService) reject(op string, err error) {
	s.metrics.RecordMutation(op, false)
	s.logger.Debug("subject mutation rejected", zap.String("operation", op), zap.Error(err))
}

func (s *SubjectService) inRange(index int) bool {
	return index >= 0 && index < len(s.subjects)
}

func (s *SubjectService) indexOf(id string) (int, bool) {
	for i, subject := range s.subjects {
		if subject.ID == id {
			return i, true
		}
	}
	return -1, false
}
