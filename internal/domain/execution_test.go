package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionStatusTransitions(t *testing.T) {
	t.Run("pending can start, fail or cancel", func(t *testing.T) {
		assert.True(t, ExecutionStatusPending.CanTransitionTo(ExecutionStatusRunning))
		assert.True(t, ExecutionStatusPending.CanTransitionTo(ExecutionStatusFailed))
		assert.True(t, ExecutionStatusPending.CanTransitionTo(ExecutionStatusCancelled))
		assert.False(t, ExecutionStatusPending.CanTransitionTo(ExecutionStatusSucceeded))
	})

	t.Run("running can only finish", func(t *testing.T) {
		assert.True(t, ExecutionStatusRunning.CanTransitionTo(ExecutionStatusSucceeded))
		assert.True(t, ExecutionStatusRunning.CanTransitionTo(ExecutionStatusFailed))
		assert.False(t, ExecutionStatusRunning.CanTransitionTo(ExecutionStatusPending))
		assert.False(t, ExecutionStatusRunning.CanTransitionTo(ExecutionStatusCancelled))
	})

	t.Run("terminal states never leave", func(t *testing.T) {
		all := []ExecutionStatus{
			ExecutionStatusPending,
			ExecutionStatusRunning,
			ExecutionStatusSucceeded,
			ExecutionStatusFailed,
			ExecutionStatusCancelled,
		}
		for _, terminal := range []ExecutionStatus{ExecutionStatusSucceeded, ExecutionStatusFailed, ExecutionStatusCancelled} {
			for _, next := range all {
				assert.False(t, terminal.CanTransitionTo(next), "%s -> %s", terminal, next)
			}
		}
	})

	t.Run("self transition is rejected", func(t *testing.T) {
		assert.False(t, ExecutionStatusRunning.CanTransitionTo(ExecutionStatusRunning))
	})
}

func TestExecutionStatusIsTerminal(t *testing.T) {
	assert.False(t, ExecutionStatusPending.IsTerminal())
	assert.False(t, ExecutionStatusRunning.IsTerminal())
	assert.True(t, ExecutionStatusSucceeded.IsTerminal())
	assert.True(t, ExecutionStatusFailed.IsTerminal())
	assert.True(t, ExecutionStatusCancelled.IsTerminal())
}

func TestNewExecution(t *testing.T) {
	exec := NewExecution("print(1)", "python", nil, nil)

	require.NotNil(t, exec)
	assert.Equal(t, ExecutionStatusPending, exec.Status)
	assert.Equal(t, "print(1)", exec.Code)
	assert.Equal(t, "python", exec.Language)
	assert.NotZero(t, exec.ID)
	assert.Nil(t, exec.StartedAt)
	assert.Nil(t, exec.CompletedAt)
}
