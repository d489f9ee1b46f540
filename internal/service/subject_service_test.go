package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/repository"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

type subjectRepoStub struct {
	loaded  []models.Subject
	loadErr error
	saveErr error
	saves   [][]models.Subject
}

func (s *subjectRepoStub) Load(ctx context.Context) ([]models.Subject, error) {
	if s.loadErr != nil {
		return []models.Subject{}, s.loadErr
	}
	return s.loaded, nil
}

func (s *subjectRepoStub) Save(ctx context.Context, subjects []models.Subject) error {
	s.saves = append(s.saves, subjects)
	return s.saveErr
}

func newSubjectServiceForTest(t *testing.T, seed ...models.Subject) (*SubjectService, *subjectRepoStub) {
	t.Helper()
	repo := &subjectRepoStub{loaded: seed}
	if seed == nil {
		repo.loaded = []models.Subject{}
	}
	svc := NewSubjectService(repo, nil, nil, NewMetricsService())
	require.NoError(t, svc.Load(context.Background()))
	return svc, repo
}

func seedSubjects(n int) []models.Subject {
	subjects := make([]models.Subject, n)
	for i := range subjects {
		subjects[i] = models.Subject{ID: fmt.Sprintf("id-%d", i), Name: fmt.Sprintf("Subject %d", i), Attended: 5, Total: 10}
	}
	return subjects
}

func TestSubjectServiceAdd(t *testing.T) {
	svc, repo := newSubjectServiceForTest(t)

	view, err := svc.Add(context.Background(), SubjectInput{Name: "Physics", Attended: "18", Missed: "2"})
	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, 0, view.Index)

	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Physics", list[0].Name)
	assert.Equal(t, 18, list[0].Attended)
	assert.Equal(t, 20, list[0].Total)
	assert.InDelta(t, 90.0, list[0].Percentage, 1e-9)
	assert.Equal(t, models.AttendanceColorOK, list[0].Color)

	require.Len(t, repo.saves, 1)
	assert.Equal(t, []models.Subject{list[0].Subject}, repo.saves[0])
}

func TestSubjectServiceAddTrimsName(t *testing.T) {
	svc, _ := newSubjectServiceForTest(t)

	view, err := svc.Add(context.Background(), SubjectInput{Name: "  Maths ", Attended: " 3", Missed: "1 "})
	require.NoError(t, err)
	assert.Equal(t, "Maths", view.Name)
	assert.Equal(t, 4, view.Total)
}

func TestSubjectServiceAddRejections(t *testing.T) {
	cases := []struct {
		name    string
		input   SubjectInput
		message string
	}{
		{name: "blank name", input: SubjectInput{Name: "", Attended: "3", Missed: "1"}, message: "name is required"},
		{name: "whitespace name", input: SubjectInput{Name: "   ", Attended: "3", Missed: "1"}, message: "name is required"},
		{name: "non numeric attended", input: SubjectInput{Name: "Physics", Attended: "abc", Missed: "1"}, message: "attended must be a whole number"},
		{name: "non numeric missed", input: SubjectInput{Name: "Physics", Attended: "1", Missed: "1.5"}, message: "missed must be a whole number"},
		{name: "empty count", input: SubjectInput{Name: "Physics", Attended: "", Missed: "1"}, message: "attended must be a whole number"},
		{name: "negative count", input: SubjectInput{Name: "Physics", Attended: "-1", Missed: "1"}, message: "counts must not be negative"},
		{name: "total overflows", input: SubjectInput{Name: "Physics", Attended: strconv.Itoa(math.MaxInt), Missed: "1"}, message: "counts are too large"},
		{name: "both counts huge", input: SubjectInput{Name: "Physics", Attended: strconv.Itoa(math.MaxInt / 2), Missed: strconv.Itoa(math.MaxInt/2 + 2)}, message: "counts are too large"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newSubjectServiceForTest(t)

			view, err := svc.Add(context.Background(), tc.input)
			require.Error(t, err)
			assert.Nil(t, view)
			assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
			assert.Equal(t, tc.message, appErrors.FromError(err).Message)
			assert.Empty(t, svc.List())
			assert.Empty(t, repo.saves)
		})
	}
}

func TestSubjectServiceAddLargestTotal(t *testing.T) {
	svc, _ := newSubjectServiceForTest(t)

	view, err := svc.Add(context.Background(), SubjectInput{Name: "Physics", Attended: strconv.Itoa(math.MaxInt - 1), Missed: "1"})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, view.Total)
	assert.GreaterOrEqual(t, view.Percentage, 0.0)
}

func TestSubjectServiceIncrementAtMaximum(t *testing.T) {
	svc, repo := newSubjectServiceForTest(t,
		models.Subject{ID: "a", Name: "Physics", Attended: 5, Total: math.MaxInt},
		models.Subject{ID: "b", Name: "Chemistry", Attended: math.MaxInt - 1, Total: math.MaxInt},
	)
	before := svc.List()

	_, err := svc.IncrementTotalOnly(context.Background(), 0)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
	_, err = svc.IncrementAttendedAndTotal(context.Background(), 1)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	assert.Equal(t, before, svc.List())
	assert.Empty(t, repo.saves)
}

func TestSubjectServiceUpdate(t *testing.T) {
	svc, repo := newSubjectServiceForTest(t, seedSubjects(2)...)

	view, err := svc.Update(context.Background(), 1, SubjectInput{Name: "Biology", Attended: "3", Missed: "9"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", view.ID)
	assert.Equal(t, "Biology", view.Name)
	assert.Equal(t, 3, view.Attended)
	assert.Equal(t, 12, view.Total)
	assert.Equal(t, models.AttendanceColorLow, view.Color)
	require.Len(t, repo.saves, 1)
	assert.Equal(t, "Subject 0", repo.saves[0][0].Name)
}

func TestSubjectServiceUpdateRejections(t *testing.T) {
	svc, repo := newSubjectServiceForTest(t, seedSubjects(1)...)
	before := svc.List()

	_, err := svc.Update(context.Background(), 1, SubjectInput{Name: "Biology", Attended: "3", Missed: "9"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	_, err = svc.Update(context.Background(), -1, SubjectInput{Name: "Biology", Attended: "3", Missed: "9"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	_, err = svc.Update(context.Background(), 0, SubjectInput{Name: "Biology", Attended: "x", Missed: "9"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	_, err = svc.Update(context.Background(), 0, SubjectInput{Name: " ", Attended: "3", Missed: "9"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	assert.Equal(t, before, svc.List())
	assert.Empty(t, repo.saves)
}

func TestSubjectServiceRemovePreservesOrder(t *testing.T) {
	svc, repo := newSubjectServiceForTest(t, seedSubjects(3)...)

	require.NoError(t, svc.Remove(context.Background(), 1))

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, "id-0", list[0].ID)
	assert.Equal(t, "id-2", list[1].ID)
	assert.Equal(t, 1, list[1].Index)
	require.Len(t, repo.saves, 1)
	assert.Len(t, repo.saves[0], 2)

	err := svc.Remove(context.Background(), 5)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	assert.Equal(t, 2, svc.Len())
	assert.Len(t, repo.saves, 1)
}

func TestSubjectServiceIncrements(t *testing.T) {
	svc, repo := newSubjectServiceForTest(t, models.Subject{ID: "a", Name: "Physics", Attended: 5, Total: 10})

	view, err := svc.IncrementTotalOnly(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Attended)
	assert.Equal(t, 11, view.Total)

	svc2, _ := newSubjectServiceForTest(t, models.Subject{ID: "a", Name: "Physics", Attended: 5, Total: 10})
	view, err = svc2.IncrementAttendedAndTotal(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 6, view.Attended)
	assert.Equal(t, 11, view.Total)

	_, err = svc.IncrementAttendedAndTotal(context.Background(), 3)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	_, err = svc.IncrementTotalOnly(context.Background(), -1)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	assert.Len(t, repo.saves, 1)
}

func TestSubjectServiceIdentityLookups(t *testing.T) {
	svc, _ := newSubjectServiceForTest(t, seedSubjects(3)...)

	index, ok := svc.IndexOf("id-2")
	require.True(t, ok)
	assert.Equal(t, 2, index)

	require.NoError(t, svc.Remove(context.Background(), 0))
	index, ok = svc.IndexOf("id-2")
	require.True(t, ok)
	assert.Equal(t, 1, index)

	view, err := svc.GetByID("id-2")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Index)

	_, ok = svc.IndexOf("id-0")
	assert.False(t, ok)
	_, err = svc.GetByID("id-0")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	_, err = svc.Get(9)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestSubjectServiceSaveFailureKeepsMutation(t *testing.T) {
	svc, repo := newSubjectServiceForTest(t)
	repo.saveErr = errors.New("disk full")

	view, err := svc.Add(context.Background(), SubjectInput{Name: "Physics", Attended: "1", Missed: "0"})
	require.NoError(t, err)
	assert.Equal(t, "Physics", view.Name)
	assert.Equal(t, 1, svc.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.persistFailures.WithLabelValues(OpSave)))
}

func TestSubjectServiceLoadFailureStartsEmpty(t *testing.T) {
	repo := &subjectRepoStub{loadErr: errors.New("decode subjects: bad json")}
	svc := NewSubjectService(repo, nil, nil, nil)

	err := svc.Load(context.Background())
	require.Error(t, err)
	assert.Empty(t, svc.List())
	assert.NotNil(t, svc.List())
}

func TestSubjectServiceMetrics(t *testing.T) {
	svc, _ := newSubjectServiceForTest(t)

	_, err := svc.Add(context.Background(), SubjectInput{Name: "Physics", Attended: "1", Missed: "0"})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), SubjectInput{Name: "", Attended: "1", Missed: "0"})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.mutations.WithLabelValues(OpAdd, OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.mutations.WithLabelValues(OpAdd, OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.subjects))
}

func TestSubjectServicePersistsThroughKVStore(t *testing.T) {
	kv := repository.NewMemoryKVRepository()
	repo := repository.NewSubjectRepository(kv, "subjects")
	ctx := context.Background()

	first := NewSubjectService(repo, nil, nil, nil)
	require.NoError(t, first.Load(ctx))
	_, err := first.Add(ctx, SubjectInput{Name: "Physics", Attended: "18", Missed: "2"})
	require.NoError(t, err)
	_, err = first.Add(ctx, SubjectInput{Name: "Chemistry", Attended: "5", Missed: "5"})
	require.NoError(t, err)
	_, err = first.IncrementTotalOnly(ctx, 1)
	require.NoError(t, err)

	second := NewSubjectService(repo, nil, nil, nil)
	require.NoError(t, second.Load(ctx))
	assert.Equal(t, first.List(), second.List())
	assert.Equal(t, 11, second.List()[1].Total)
}
