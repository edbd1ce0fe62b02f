package executions

import "github.com/chartlab/chartlab/internal/domain"

// ExecuteRequest is the body of POST /api/sandbox/execute/
type ExecuteRequest struct {
	Code      string  `json:"code"`
	Language  string  `json:"language"`
	SessionID *string `json:"session_id,omitempty"`
	UserID    *string `json:"user_id,omitempty"`
}

// ExecuteResponse acknowledges an accepted submission
type ExecuteResponse struct {
	ExecutionID string                 `json:"execution_id"`
	Status      domain.ExecutionStatus `json:"status"`
}
