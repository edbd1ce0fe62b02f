package results

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chartlab/chartlab/internal/core/services/result"
	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/sandbox"
	"github.com/chartlab/chartlab/internal/static/errs"
)

type fakeResultService struct {
	sessionResults map[uuid.UUID][]*result.ResultWithImages
	images         map[uuid.UUID]*domain.GeneratedImage
}

func newFakeResultService() *fakeResultService {
	return &fakeResultService{
		sessionResults: make(map[uuid.UUID][]*result.ResultWithImages),
		images:         make(map[uuid.UUID]*domain.GeneratedImage),
	}
}

func (f *fakeResultService) ProcessRunResult(context.Context, *domain.Execution, sandbox.RunResult) (*domain.Result, error) {
	return nil, nil
}

func (f *fakeResultService) GetSessionResults(_ context.Context, sessionID uuid.UUID, _ int) ([]*result.ResultWithImages, error) {
	return f.sessionResults[sessionID], nil
}

func (f *fakeResultService) GetResultByExecution(_ context.Context, executionID uuid.UUID) (*result.ResultWithImages, error) {
	for _, entries := range f.sessionResults {
		for _, entry := range entries {
			if entry.Result.ExecutionID == executionID {
				return entry, nil
			}
		}
	}
	return nil, errs.ResultNotFound
}

func (f *fakeResultService) GetImage(_ context.Context, imageID uuid.UUID) (*domain.GeneratedImage, error) {
	if img, ok := f.images[imageID]; ok {
		return img, nil
	}
	return nil, errs.ImageNotFound
}

func (f *fakeResultService) ImproveImageNames(context.Context, uuid.UUID) error { return nil }

func (f *fakeResultService) UpdateSummary(context.Context, uuid.UUID, string) error { return nil }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

func newTestRouter(svc result.IResultService) *mux.Router {
	router := mux.NewRouter()
	NewResultHandler(svc, nopLogger{}).RegisterRoutes(router)
	return router
}

func TestGetSessionResults(t *testing.T) {
	svc := newFakeResultService()
	sessionID := uuid.New()

	res := domain.NewResult(uuid.New(), "correlation analysis done", true)
	img := &domain.GeneratedImage{
		ID:          uuid.New(),
		ResultID:    res.ID,
		Name:        "Correlation Analysis - 20250314_092653_0",
		ImageData:   "data:image/png;base64,aW1n",
		ImageFormat: "png",
		SourceType:  domain.SourceTypeSandbox,
	}
	svc.sessionResults[sessionID] = []*result.ResultWithImages{
		{Result: res, Images: []*domain.GeneratedImage{img}},
	}
	router := newTestRouter(svc)

	t.Run("returns success flag and results with images", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/enhanced-chat/sandbox-results/?session_id="+sessionID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp SessionResultsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, res.ID, resp.Results[0].ID)
		assert.Equal(t, "correlation analysis done", resp.Results[0].Summary)
		require.Len(t, resp.Results[0].Images, 1)
		assert.Equal(t, img.Name, resp.Results[0].Images[0].Name)
	})

	t.Run("empty session still succeeds with empty results", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/enhanced-chat/sandbox-results/?session_id="+uuid.New().String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp SessionResultsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotNil(t, resp.Results)
		assert.Empty(t, resp.Results)
	})

	t.Run("missing session_id is a 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/enhanced-chat/sandbox-results/", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetImage(t *testing.T) {
	svc := newFakeResultService()
	img := &domain.GeneratedImage{
		ID:          uuid.New(),
		Name:        "Data Overview - 20250314_092653_0",
		ImageData:   "data:image/png;base64,aW1n",
		ImageFormat: "png",
	}
	svc.images[img.ID] = img
	router := newTestRouter(svc)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/images/"+img.ID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got domain.GeneratedImage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, img.ID, got.ID)
		assert.Equal(t, img.ImageData, got.ImageData)
	})

	t.Run("unknown image is a 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/images/"+uuid.New().String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetExecutionResult(t *testing.T) {
	svc := newFakeResultService()
	sessionID := uuid.New()
	executionID := uuid.New()
	res := domain.NewResult(executionID, "summary", false)
	svc.sessionResults[sessionID] = []*result.ResultWithImages{{Result: res}}
	router := newTestRouter(svc)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sandbox/executions/"+executionID.String()+"/result", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got ResultEntry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, executionID, got.ExecutionID)
		assert.NotNil(t, got.Images)
	})

	t.Run("no result yet is a 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sandbox/executions/"+uuid.New().String()+"/result", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
