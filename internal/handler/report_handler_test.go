package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/repository"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/pkg/storage"
)

func buildReportRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	subjects := service.NewSubjectService(repository.NewSubjectRepository(repository.NewMemoryKVRepository(), "subjects"), nil, nil, nil)
	_, err := subjects.Add(context.Background(), service.SubjectInput{Name: "Physics", Attended: "18", Missed: "2"})
	require.NoError(t, err)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	reports := service.NewReportService(subjects, store, storage.NewSignedURLSigner("secret", time.Hour),
		service.ReportConfig{APIPrefix: "/api/v1"}, nil, nil, nil, nil)

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), NewSubjectHandler(subjects), NewReportHandler(reports))
	return router
}

func TestReportRoutesGenerateAndDownload(t *testing.T) {
	router := buildReportRouter(t)

	resp := performRequest(router, http.MethodPost, "/api/v1/reports/attendance", `{"format":"csv"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	var report models.AttendanceReport
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &report))
	assert.Equal(t, models.ReportFormatCSV, report.Format)
	require.NotEmpty(t, report.URL)

	resp = performRequest(router, http.MethodGet, report.URL, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/csv", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, resp.Body.String(), "1,Physics,18,20,90.00,You can bunk 4 classes")
}

func TestReportRoutesDefaultFormatAndErrors(t *testing.T) {
	router := buildReportRouter(t)

	resp := performRequest(router, http.MethodPost, "/api/v1/reports/attendance", "")
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = performRequest(router, http.MethodPost, "/api/v1/reports/attendance", `{"format":"xlsx"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = performRequest(router, http.MethodGet, "/api/v1/reports/download/bogus", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}
