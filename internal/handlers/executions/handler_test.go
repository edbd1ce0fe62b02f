package executions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chartlab/chartlab/internal/core/services/execution"
	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/static/errs"
)

type fakeExecutionService struct {
	execs     map[uuid.UUID]*domain.Execution
	cancelErr error
	followUps []uuid.UUID
}

func newFakeExecutionService() *fakeExecutionService {
	return &fakeExecutionService{execs: make(map[uuid.UUID]*domain.Execution)}
}

func (f *fakeExecutionService) Submit(_ context.Context, req execution.SubmitRequest) (*domain.Execution, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, errs.CodeRequired
	}
	if strings.TrimSpace(req.Language) == "" {
		return nil, errs.LanguageRequired
	}
	if req.Language == "cobol" {
		return nil, errs.LanguageInactive
	}
	if req.Language == "ruby" {
		return nil, errs.LanguageUnsupported
	}
	exec := domain.NewExecution(req.Code, req.Language, req.SessionID, req.UserID)
	f.execs[exec.ID] = exec
	return exec, nil
}

func (f *fakeExecutionService) Get(_ context.Context, id uuid.UUID) (*domain.Execution, error) {
	return f.execs[id], nil
}

func (f *fakeExecutionService) ListBySession(context.Context, uuid.UUID, int) ([]*domain.Execution, error) {
	return nil, nil
}

func (f *fakeExecutionService) Cancel(_ context.Context, id uuid.UUID) error {
	return f.cancelErr
}

func (f *fakeExecutionService) RequestFollowUp(_ context.Context, id uuid.UUID) error {
	if _, ok := f.execs[id]; !ok {
		return errs.ExecutionNotFound
	}
	f.followUps = append(f.followUps, id)
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

func newTestRouter(svc execution.IExecutionService) *mux.Router {
	router := mux.NewRouter()
	NewExecutionHandler(svc, nopLogger{}).RegisterRoutes(router)
	return router
}

func TestExecute(t *testing.T) {
	t.Run("accepts a valid submission", func(t *testing.T) {
		router := newTestRouter(newFakeExecutionService())

		body := `{"code":"print(1)","language":"python"}`
		req := httptest.NewRequest(http.MethodPost, "/api/sandbox/execute/", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code)

		var resp ExecuteResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, domain.ExecutionStatusPending, resp.Status)
		_, err := uuid.Parse(resp.ExecutionID)
		assert.NoError(t, err)
	})

	t.Run("missing code is a 400 with an error body", func(t *testing.T) {
		router := newTestRouter(newFakeExecutionService())

		req := httptest.NewRequest(http.MethodPost, "/api/sandbox/execute/", strings.NewReader(`{"language":"python"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "code is required", resp["error"])
	})

	t.Run("inactive language is a 422", func(t *testing.T) {
		router := newTestRouter(newFakeExecutionService())

		body := `{"code":"DISPLAY 'HI'","language":"cobol"}`
		req := httptest.NewRequest(http.MethodPost, "/api/sandbox/execute/", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unsupported language is a 422", func(t *testing.T) {
		router := newTestRouter(newFakeExecutionService())

		body := `{"code":"puts 1","language":"ruby"}`
		req := httptest.NewRequest(http.MethodPost, "/api/sandbox/execute/", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed json is a 400", func(t *testing.T) {
		router := newTestRouter(newFakeExecutionService())

		req := httptest.NewRequest(http.MethodPost, "/api/sandbox/execute/", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad session id is a 400", func(t *testing.T) {
		router := newTestRouter(newFakeExecutionService())

		body := `{"code":"1","language":"python","session_id":"not-a-uuid"}`
		req := httptest.NewRequest(http.MethodPost, "/api/sandbox/execute/", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetExecution(t *testing.T) {
	svc := newFakeExecutionService()
	exec, err := svc.Submit(context.Background(), execution.SubmitRequest{Code: "1", Language: "python"})
	require.NoError(t, err)
	router := newTestRouter(svc)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sandbox/executions/"+exec.ID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got domain.Execution
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, exec.ID, got.ID)
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sandbox/executions/"+uuid.New().String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id is a 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sandbox/executions/nope", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAnalyzeExecution(t *testing.T) {
	svc := newFakeExecutionService()
	exec, err := svc.Submit(context.Background(), execution.SubmitRequest{Code: "1", Language: "python"})
	require.NoError(t, err)
	router := newTestRouter(svc)

	t.Run("queues follow-up work with 202", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sandbox/executions/"+exec.ID.String()+"/analyze", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, []uuid.UUID{exec.ID}, svc.followUps)
	})

	t.Run("unknown execution is a 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sandbox/executions/"+uuid.New().String()+"/analyze", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCancelExecution(t *testing.T) {
	t.Run("pending cancels with 204", func(t *testing.T) {
		router := newTestRouter(newFakeExecutionService())

		req := httptest.NewRequest(http.MethodPost, "/api/sandbox/executions/"+uuid.New().String()+"/cancel", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("already running is a 409", func(t *testing.T) {
		svc := newFakeExecutionService()
		svc.cancelErr = errs.ExecutionNotPending
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/sandbox/executions/"+uuid.New().String()+"/cancel", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
