package domain

import (
	"time"

	"github.com/google/uuid"
)

// SourceTypeSandbox marks images produced by the sandbox pipeline
const SourceTypeSandbox = "sandbox"

// Result represents the structured outcome of one execution
type Result struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ExecutionID uuid.UUID `db:"execution_id" json:"execution_id"`
	Summary     string    `db:"summary" json:"summary"`
	HasImages   bool      `db:"has_images" json:"has_images"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NewResult creates a result for a completed execution
func NewResult(executionID uuid.UUID, summary string, hasImages bool) *Result {
	return &Result{
		ID:          uuid.New(),
		ExecutionID: executionID,
		Summary:     summary,
		HasImages:   hasImages,
		CreatedAt:   time.Now(),
	}
}

// GeneratedImage represents one chart image produced by an execution.
// Only the name may change after creation; the naming-improvement pass
// revises it once analysis context is available.
type GeneratedImage struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ResultID    uuid.UUID `db:"result_id" json:"result_id"`
	Name        string    `db:"name" json:"name"`
	ImageData   string    `db:"image_data" json:"image_data"`
	ImageFormat string    `db:"image_format" json:"image_format"`
	Width       int       `db:"width" json:"width"`
	Height      int       `db:"height" json:"height"`
	SourceType  string    `db:"source_type" json:"source_type"`
	Position    int       `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type ResultTable struct {
	ID          string
	ExecutionID string
	Summary     string
	HasImages   string
	CreatedAt   string
}

func GetResultTable() ResultTable {
	return ResultTable{
		ID:          "id",
		ExecutionID: "execution_id",
		Summary:     "summary",
		HasImages:   "has_images",
		CreatedAt:   "created_at",
	}
}

func (ResultTable) TableName() string {
	return "sandbox_results"
}

type GeneratedImageTable struct {
	ID          string
	ResultID    string
	Name        string
	ImageData   string
	ImageFormat string
	Width       string
	Height      string
	SourceType  string
	Position    string
	CreatedAt   string
}

func GetGeneratedImageTable() GeneratedImageTable {
	return GeneratedImageTable{
		ID:          "id",
		ResultID:    "result_id",
		Name:        "name",
		ImageData:   "image_data",
		ImageFormat: "image_format",
		Width:       "width",
		Height:      "height",
		SourceType:  "source_type",
		Position:    "position",
		CreatedAt:   "created_at",
	}
}

func (GeneratedImageTable) TableName() string {
	return "generated_images"
}
