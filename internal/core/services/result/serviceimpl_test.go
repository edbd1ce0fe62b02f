package result

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/sandbox"
	"github.com/chartlab/chartlab/internal/static/errs"
)

type fakeResultRepo struct {
	results map[uuid.UUID]*domain.Result
	images  map[uuid.UUID][]*domain.GeneratedImage
	renames map[uuid.UUID]string
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{
		results: make(map[uuid.UUID]*domain.Result),
		images:  make(map[uuid.UUID][]*domain.GeneratedImage),
		renames: make(map[uuid.UUID]string),
	}
}

func (f *fakeResultRepo) SaveResult(_ context.Context, result *domain.Result, images []*domain.GeneratedImage) error {
	f.results[result.ID] = result
	if len(images) > 0 {
		f.images[result.ID] = images
	}
	return nil
}

func (f *fakeResultRepo) GetResult(_ context.Context, id uuid.UUID) (*domain.Result, error) {
	return f.results[id], nil
}

func (f *fakeResultRepo) GetResultByExecution(_ context.Context, executionID uuid.UUID) (*domain.Result, error) {
	for _, r := range f.results {
		if r.ExecutionID == executionID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeResultRepo) ListBySession(_ context.Context, _ uuid.UUID, _ int) ([]*domain.Result, error) {
	out := make([]*domain.Result, 0, len(f.results))
	for _, r := range f.results {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeResultRepo) GetImages(_ context.Context, resultID uuid.UUID) ([]*domain.GeneratedImage, error) {
	return f.images[resultID], nil
}

func (f *fakeResultRepo) GetImage(_ context.Context, imageID uuid.UUID) (*domain.GeneratedImage, error) {
	for _, imgs := range f.images {
		for _, img := range imgs {
			if img.ID == imageID {
				return img, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeResultRepo) RenameImage(_ context.Context, imageID uuid.UUID, name string) error {
	f.renames[imageID] = name
	for _, imgs := range f.images {
		for _, img := range imgs {
			if img.ID == imageID {
				img.Name = name
			}
		}
	}
	return nil
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}

func TestProcessRunResult(t *testing.T) {
	repo := newFakeResultRepo()
	svc := NewResultService(repo, noopLogger{})
	exec := domain.NewExecution("plot()", "python", nil, nil)

	run := sandbox.RunResult{
		Stdout: "correlation analysis done\nmore output\n",
		Artifacts: []sandbox.Artifact{
			{Filename: "chart.png", Format: "png", Data: []byte("not-a-real-png")},
			{Filename: "chart2.png", Format: "png", Data: []byte("also-fake")},
		},
	}

	res, err := svc.ProcessRunResult(context.Background(), exec, run)
	require.NoError(t, err)

	assert.Equal(t, exec.ID, res.ExecutionID)
	assert.Equal(t, "correlation analysis done", res.Summary)
	assert.True(t, res.HasImages)

	images := repo.images[res.ID]
	require.Len(t, images, 2)
	assert.Equal(t, 0, images[0].Position)
	assert.Equal(t, 1, images[1].Position)
	// Summary mentions a catalog label, so both names carry it
	assert.Contains(t, images[0].Name, "Correlation Analysis")
	assert.Contains(t, images[0].ImageData, "base64,")
	assert.Equal(t, domain.SourceTypeSandbox, images[0].SourceType)
	assert.NotEqual(t, images[0].Name, images[1].Name)
}

func TestProcessRunResultNoImages(t *testing.T) {
	repo := newFakeResultRepo()
	svc := NewResultService(repo, noopLogger{})
	exec := domain.NewExecution("print(1)", "python", nil, nil)

	res, err := svc.ProcessRunResult(context.Background(), exec, sandbox.RunResult{Stdout: "1\n"})
	require.NoError(t, err)

	assert.False(t, res.HasImages)
	assert.Empty(t, repo.images[res.ID])
}

func TestImproveImageNames(t *testing.T) {
	repo := newFakeResultRepo()
	svc := NewResultService(repo, noopLogger{})
	exec := domain.NewExecution("plot()", "python", nil, nil)

	res, err := svc.ProcessRunResult(context.Background(), exec, sandbox.RunResult{
		Stdout:    "raw output with no obvious label",
		Artifacts: []sandbox.Artifact{{Filename: "c.png", Format: "png", Data: []byte("x")}},
	})
	require.NoError(t, err)

	// A later pass updated the summary with analysis context
	res.Summary = "time series of monthly totals"
	require.NoError(t, repo.SaveResult(context.Background(), res, nil))

	require.NoError(t, svc.ImproveImageNames(context.Background(), res.ID))

	images := repo.images[res.ID]
	require.Len(t, images, 1)
	assert.Contains(t, images[0].Name, "Time Series")

	t.Run("rerun is a no-op", func(t *testing.T) {
		renamed := len(repo.renames)
		require.NoError(t, svc.ImproveImageNames(context.Background(), res.ID))
		assert.Len(t, repo.renames, renamed)
	})
}

func TestImproveImageNamesMissingResult(t *testing.T) {
	svc := NewResultService(newFakeResultRepo(), noopLogger{})
	err := svc.ImproveImageNames(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ResultNotFound)
}

func TestUpdateSummary(t *testing.T) {
	repo := newFakeResultRepo()
	svc := NewResultService(repo, noopLogger{})
	exec := domain.NewExecution("print(1)", "python", nil, nil)

	res, err := svc.ProcessRunResult(context.Background(), exec, sandbox.RunResult{Stdout: "old"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateSummary(context.Background(), exec.ID, "new summary"))
	assert.Equal(t, "new summary", repo.results[res.ID].Summary)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "first line", Summarize("\n\n  first line  \nsecond"))
	assert.Equal(t, "", Summarize("   \n\n"))

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, Summarize(string(long)), 280)

	t.Run("truncation keeps multibyte output valid utf-8", func(t *testing.T) {
		got := Summarize(strings.Repeat("世", 120) + "\nrest")
		assert.True(t, utf8.ValidString(got))
		assert.LessOrEqual(t, len(got), 280)
		assert.Equal(t, strings.Repeat("世", 93), got)
	})
}
