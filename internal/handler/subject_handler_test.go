package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/repository"
	"github.com/noah-isme/attendance-tracker/internal/service"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func buildSubjectRouter(t *testing.T) (*gin.Engine, *service.SubjectService, *repository.MemoryKVRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	kv := repository.NewMemoryKVRepository()
	svc := service.NewSubjectService(repository.NewSubjectRepository(kv, "subjects"), nil, nil, nil)
	require.NoError(t, svc.Load(context.Background()))

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), NewSubjectHandler(svc), nil)
	return router, svc, kv
}

func performRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestSubjectRoutesLifecycle(t *testing.T) {
	router, svc, kv := buildSubjectRouter(t)

	resp := performRequest(router, http.MethodPost, "/api/v1/subjects", `{"name":"Physics","attended":"18","missed":"2"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	var created models.SubjectView
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &created))
	assert.Equal(t, 20, created.Total)
	assert.Equal(t, models.AttendanceColorOK, created.Color)
	assert.Equal(t, "You can bunk 4 classes", created.Status)

	resp = performRequest(router, http.MethodPost, "/api/v1/subjects/0/miss", "")
	require.Equal(t, http.StatusOK, resp.Code)
	resp = performRequest(router, http.MethodPost, "/api/v1/subjects/0/attend", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var view models.SubjectView
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &view))
	assert.Equal(t, 19, view.Attended)
	assert.Equal(t, 22, view.Total)

	resp = performRequest(router, http.MethodPut, "/api/v1/subjects/0", `{"name":"Physics II","attended":"1","missed":"3"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &view))
	assert.Equal(t, created.ID, view.ID)
	assert.Equal(t, models.AttendanceColorLow, view.Color)

	resp = performRequest(router, http.MethodGet, "/api/v1/subject-ids/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = performRequest(router, http.MethodGet, "/api/v1/subjects", "")
	require.Equal(t, http.StatusOK, resp.Code)
	env := decodeEnvelope(t, resp)
	assert.EqualValues(t, 1, env.Meta["count"])

	raw, err := kv.Get(context.Background(), "subjects")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name":"Physics II"`)

	resp = performRequest(router, http.MethodDelete, "/api/v1/subjects/0?confirm=true", "")
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, 0, svc.Len())
}

func TestSubjectRoutesRejections(t *testing.T) {
	router, svc, _ := buildSubjectRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{name: "blank name", method: http.MethodPost, path: "/api/v1/subjects", body: `{"name":" ","attended":"3","missed":"1"}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "non numeric", method: http.MethodPost, path: "/api/v1/subjects", body: `{"name":"Physics","attended":"abc","missed":"1"}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "numeric json counts", method: http.MethodPost, path: "/api/v1/subjects", body: `{"name":"Physics","attended":18,"missed":2}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "negative count", method: http.MethodPost, path: "/api/v1/subjects", body: `{"name":"Physics","attended":"-3","missed":"1"}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "overflowing total", method: http.MethodPost, path: "/api/v1/subjects", body: `{"name":"Physics","attended":"9223372036854775807","missed":"1"}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "malformed json", method: http.MethodPost, path: "/api/v1/subjects", body: `{`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "bad index", method: http.MethodGet, path: "/api/v1/subjects/first", status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "missing index", method: http.MethodPost, path: "/api/v1/subjects/4/attend", status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "update missing", method: http.MethodPut, path: "/api/v1/subjects/0", body: `{"name":"A","attended":"1","missed":"1"}`, status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "unknown id", method: http.MethodGet, path: "/api/v1/subject-ids/nope", status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "delete without confirm", method: http.MethodDelete, path: "/api/v1/subjects/0", status: http.StatusPreconditionFailed, code: "PRECONDITION_FAILED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := performRequest(router, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, resp.Code)
			env := decodeEnvelope(t, resp)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
	assert.Equal(t, 0, svc.Len())
}
