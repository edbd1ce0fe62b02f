package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus represents the lifecycle state of a sandbox execution
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "PENDING"
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusSucceeded ExecutionStatus = "SUCCEEDED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
	ExecutionStatusCancelled ExecutionStatus = "CANCELLED"
)

// IsTerminal reports whether the status is final
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusSucceeded, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a status change is allowed.
// Transitions are monotonic: a terminal execution never leaves its state.
func (s ExecutionStatus) CanTransitionTo(next ExecutionStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case ExecutionStatusPending:
		return next == ExecutionStatusRunning || next == ExecutionStatusFailed || next == ExecutionStatusCancelled
	case ExecutionStatusRunning:
		return next == ExecutionStatusSucceeded || next == ExecutionStatusFailed
	}
	return false
}

// Execution represents one submitted code run
type Execution struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	SessionID       *uuid.UUID      `db:"session_id" json:"session_id,omitempty"`
	UserID          *string         `db:"user_id" json:"user_id,omitempty"`
	Code            string          `db:"code" json:"code"`
	Language        string          `db:"language" json:"language"`
	Status          ExecutionStatus `db:"status" json:"status"`
	Output          string          `db:"output" json:"output"`
	ErrorText       string          `db:"error_text" json:"error,omitempty"`
	ExecutionTimeMs int64           `db:"execution_time_ms" json:"execution_time_ms"`
	MemoryUsedMB    float64         `db:"memory_used_mb" json:"memory_used_mb"`
	WorkerID        *string         `db:"worker_id" json:"worker_id,omitempty"`
	RetryCount      int             `db:"retry_count" json:"retry_count"`
	RetryLimit      int             `db:"retry_limit" json:"retry_limit"`
	TimeoutSec      int             `db:"timeout_seconds" json:"timeout_seconds"`
	MemoryLimitMB   int             `db:"memory_limit_mb" json:"memory_limit_mb"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	StartedAt       *time.Time      `db:"started_at" json:"started_at,omitempty"`
	CompletedAt     *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// NewExecution creates a pending execution for submitted code
func NewExecution(code, language string, sessionID *uuid.UUID, userID *string) *Execution {
	return &Execution{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		Code:      code,
		Language:  language,
		Status:    ExecutionStatusPending,
		CreatedAt: time.Now(),
	}
}

type ExecutionTable struct {
	ID              string
	SessionID       string
	UserID          string
	Code            string
	Language        string
	Status          string
	Output          string
	ErrorText       string
	ExecutionTimeMs string
	MemoryUsedMB    string
	WorkerID        string
	RetryCount      string
	RetryLimit      string
	TimeoutSec      string
	MemoryLimitMB   string
	CreatedAt       string
	StartedAt       string
	CompletedAt     string
}

func GetExecutionTable() ExecutionTable {
	return ExecutionTable{
		ID:              "id",
		SessionID:       "session_id",
		UserID:          "user_id",
		Code:            "code",
		Language:        "language",
		Status:          "status",
		Output:          "output",
		ErrorText:       "error_text",
		ExecutionTimeMs: "execution_time_ms",
		MemoryUsedMB:    "memory_used_mb",
		WorkerID:        "worker_id",
		RetryCount:      "retry_count",
		RetryLimit:      "retry_limit",
		TimeoutSec:      "timeout_seconds",
		MemoryLimitMB:   "memory_limit_mb",
		CreatedAt:       "created_at",
		StartedAt:       "started_at",
		CompletedAt:     "completed_at",
	}
}

func (ExecutionTable) TableName() string {
	return "sandbox_executions"
}
