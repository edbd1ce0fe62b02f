package execution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/static/errs"
)

type fakeExecutionRepo struct {
	execs map[uuid.UUID]*domain.Execution
}

func newFakeExecutionRepo() *fakeExecutionRepo {
	return &fakeExecutionRepo{execs: make(map[uuid.UUID]*domain.Execution)}
}

func (f *fakeExecutionRepo) SaveExecution(_ context.Context, execution *domain.Execution) error {
	f.execs[execution.ID] = execution
	return nil
}

func (f *fakeExecutionRepo) GetExecution(_ context.Context, id uuid.UUID) (*domain.Execution, error) {
	return f.execs[id], nil
}

func (f *fakeExecutionRepo) ListBySession(context.Context, uuid.UUID, int) ([]*domain.Execution, error) {
	return nil, nil
}

func (f *fakeExecutionRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to domain.ExecutionStatus) (bool, error) {
	exec, ok := f.execs[id]
	if !ok || exec.Status != from || !from.CanTransitionTo(to) {
		return false, nil
	}
	exec.Status = to
	return true, nil
}

func (f *fakeExecutionRepo) GetStuckRunning(context.Context, time.Time, int) ([]*domain.Execution, error) {
	return nil, nil
}

func (f *fakeExecutionRepo) ResetStuckRunning(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeExecutionRepo) FailStuckRunning(context.Context, uuid.UUID, string) (bool, error) {
	return false, nil
}

func (f *fakeExecutionRepo) DeleteCompletedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeLanguageRepo struct {
	configs map[string]*domain.LanguageConfig
}

func newFakeLanguageRepo(configs ...*domain.LanguageConfig) *fakeLanguageRepo {
	repo := &fakeLanguageRepo{configs: make(map[string]*domain.LanguageConfig)}
	for _, c := range configs {
		repo.configs[c.Language] = c
	}
	return repo
}

func (f *fakeLanguageRepo) GetLanguageConfig(_ context.Context, language string) (*domain.LanguageConfig, error) {
	return f.configs[language], nil
}

func (f *fakeLanguageRepo) GetAllLanguageConfigs(context.Context) ([]*domain.LanguageConfig, error) {
	return nil, nil
}

func (f *fakeLanguageRepo) GetActiveLanguages(context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeLanguageRepo) SaveLanguageConfig(_ context.Context, config *domain.LanguageConfig) error {
	f.configs[config.Language] = config
	return nil
}

func (f *fakeLanguageRepo) SetActive(_ context.Context, language string, active bool) error {
	if c, ok := f.configs[language]; ok {
		c.Active = active
	}
	return nil
}

type fakeDispatcher struct {
	mu    sync.Mutex
	lanes map[domain.Lane][]*domain.JobMessage
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{lanes: make(map[domain.Lane][]*domain.JobMessage)}
}

func (f *fakeDispatcher) Enqueue(_ context.Context, msg *domain.JobMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lanes[msg.Lane] = append(f.lanes[msg.Lane], msg)
	return nil
}

func (f *fakeDispatcher) Dequeue(_ context.Context, lane domain.Lane, _ time.Duration) (*domain.JobMessage, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	queue := f.lanes[lane]
	if len(queue) == 0 {
		return nil, false, nil
	}
	msg := queue[0]
	f.lanes[lane] = queue[1:]
	return msg, true, nil
}

func (f *fakeDispatcher) Depth(_ context.Context, lane domain.Lane) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.lanes[lane])), nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

func newTestService(repo *fakeExecutionRepo, languages *fakeLanguageRepo, dispatcher *fakeDispatcher) *ExecutionService {
	return NewExecutionService(repo, languages, dispatcher, nopLogger{})
}

func TestSubmit(t *testing.T) {
	t.Run("persists pending execution and enqueues sandbox job", func(t *testing.T) {
		repo := newFakeExecutionRepo()
		languages := newFakeLanguageRepo(&domain.LanguageConfig{
			Language: "python", TimeoutSeconds: 45, MemoryLimitMB: 1024, CPULimit: 2, RetryLimit: 3, Active: true,
		})
		dispatcher := newFakeDispatcher()
		svc := newTestService(repo, languages, dispatcher)

		exec, err := svc.Submit(context.Background(), SubmitRequest{Code: "print(1)", Language: "Python"})
		require.NoError(t, err)

		assert.Equal(t, domain.ExecutionStatusPending, exec.Status)
		assert.Equal(t, "python", exec.Language)
		assert.Equal(t, 45, exec.TimeoutSec)
		assert.Equal(t, 1024, exec.MemoryLimitMB)
		assert.Equal(t, 3, exec.RetryLimit)
		require.Contains(t, repo.execs, exec.ID)

		msg, ok, err := dispatcher.Dequeue(context.Background(), domain.LaneSandbox, time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.JobKindExecuteCode, msg.Kind)
		assert.Equal(t, exec.ID.String(), msg.Payload["executionId"])
	})

	t.Run("blank code is rejected", func(t *testing.T) {
		svc := newTestService(newFakeExecutionRepo(), newFakeLanguageRepo(), newFakeDispatcher())
		_, err := svc.Submit(context.Background(), SubmitRequest{Code: "   ", Language: "python"})
		assert.ErrorIs(t, err, errs.CodeRequired)
	})

	t.Run("unsupported language is rejected before anything is persisted", func(t *testing.T) {
		repo := newFakeExecutionRepo()
		dispatcher := newFakeDispatcher()
		svc := newTestService(repo, newFakeLanguageRepo(), dispatcher)

		_, err := svc.Submit(context.Background(), SubmitRequest{Code: "puts 1", Language: "ruby"})
		assert.ErrorIs(t, err, errs.LanguageUnsupported)

		assert.Empty(t, repo.execs)
		depth, _ := dispatcher.Depth(context.Background(), domain.LaneSandbox)
		assert.Zero(t, depth)
	})

	t.Run("inactive language is rejected", func(t *testing.T) {
		languages := newFakeLanguageRepo(&domain.LanguageConfig{Language: "r", Active: false})
		svc := newTestService(newFakeExecutionRepo(), languages, newFakeDispatcher())

		_, err := svc.Submit(context.Background(), SubmitRequest{Code: "plot(x)", Language: "r"})
		assert.ErrorIs(t, err, errs.LanguageInactive)
	})

	t.Run("unconfigured supported language gets defaults", func(t *testing.T) {
		repo := newFakeExecutionRepo()
		svc := newTestService(repo, newFakeLanguageRepo(), newFakeDispatcher())

		exec, err := svc.Submit(context.Background(), SubmitRequest{Code: "1", Language: "javascript"})
		require.NoError(t, err)

		defaults := domain.DefaultLanguageConfig("javascript")
		assert.Equal(t, defaults.TimeoutSeconds, exec.TimeoutSec)
		assert.Equal(t, defaults.MemoryLimitMB, exec.MemoryLimitMB)
	})
}

func TestCancel(t *testing.T) {
	repo := newFakeExecutionRepo()
	svc := newTestService(repo, newFakeLanguageRepo(), newFakeDispatcher())

	exec, err := svc.Submit(context.Background(), SubmitRequest{Code: "1", Language: "python"})
	require.NoError(t, err)

	t.Run("pending cancels", func(t *testing.T) {
		require.NoError(t, svc.Cancel(context.Background(), exec.ID))
		assert.Equal(t, domain.ExecutionStatusCancelled, repo.execs[exec.ID].Status)
	})

	t.Run("terminal cannot cancel again", func(t *testing.T) {
		assert.ErrorIs(t, svc.Cancel(context.Background(), exec.ID), errs.ExecutionNotPending)
	})

	t.Run("unknown execution", func(t *testing.T) {
		assert.ErrorIs(t, svc.Cancel(context.Background(), uuid.New()), errs.ExecutionNotFound)
	})
}

func TestRequestFollowUp(t *testing.T) {
	repo := newFakeExecutionRepo()
	dispatcher := newFakeDispatcher()
	svc := newTestService(repo, newFakeLanguageRepo(), dispatcher)

	exec, err := svc.Submit(context.Background(), SubmitRequest{Code: "1", Language: "python"})
	require.NoError(t, err)

	t.Run("enqueues on the agent lane", func(t *testing.T) {
		require.NoError(t, svc.RequestFollowUp(context.Background(), exec.ID))

		msg, ok, err := dispatcher.Dequeue(context.Background(), domain.LaneAgent, time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.JobKindAgentRun, msg.Kind)
		assert.Equal(t, exec.ID.String(), msg.Payload["executionId"])
	})

	t.Run("unknown execution", func(t *testing.T) {
		assert.ErrorIs(t, svc.RequestFollowUp(context.Background(), uuid.New()), errs.ExecutionNotFound)
	})
}
