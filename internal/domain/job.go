package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lane is a named queue channel consumed by a dedicated worker pool
type Lane string

const (
	LaneFileProcessing Lane = "file_processing"
	LaneAnalysis       Lane = "analysis"
	LaneLLM            Lane = "llm"
	LaneAgent          Lane = "agent"
	LaneReports        Lane = "reports"
	LaneImages         Lane = "images"
	LaneSandbox        Lane = "sandbox"
	LaneMaintenance    Lane = "maintenance"
)

// AllLanes returns every lane in dispatch order
func AllLanes() []Lane {
	return []Lane{
		LaneFileProcessing,
		LaneAnalysis,
		LaneLLM,
		LaneAgent,
		LaneReports,
		LaneImages,
		LaneSandbox,
		LaneMaintenance,
	}
}

// ValidLane reports whether name is a known lane
func ValidLane(name string) bool {
	for _, l := range AllLanes() {
		if string(l) == name {
			return true
		}
	}
	return false
}

// JobKind identifies what a lane job does
type JobKind string

const (
	JobKindExecuteCode    JobKind = "execute_code"
	JobKindImproveNames   JobKind = "improve_image_names"
	JobKindAnalyzeResult  JobKind = "analyze_result"
	JobKindSummarizeLLM   JobKind = "llm_summarize"
	JobKindAgentRun       JobKind = "agent_run"
	JobKindSessionReport  JobKind = "session_report"
	JobKindProcessDataset JobKind = "process_dataset"
	JobKindMaintenance    JobKind = "maintenance_sweep"
)

// JobMessage is the wire unit pushed onto a queue lane
type JobMessage struct {
	JobID      uuid.UUID              `json:"jobId"`
	Lane       Lane                   `json:"lane"`
	Kind       JobKind                `json:"kind"`
	Payload    map[string]interface{} `json:"payload"`
	EnqueuedAt time.Time              `json:"enqueuedAt"`
	Attempt    int                    `json:"attempt"`
}

// NewJobMessage creates a job message for a lane
func NewJobMessage(lane Lane, kind JobKind, payload map[string]interface{}) *JobMessage {
	return &JobMessage{
		JobID:      uuid.New(),
		Lane:       lane,
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}
}

// ExecutionID extracts the execution id payload field, if present
func (m *JobMessage) ExecutionID() (uuid.UUID, bool) {
	raw, ok := m.Payload["executionId"].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
