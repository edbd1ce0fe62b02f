package domain

import (
	"time"

	"github.com/google/uuid"
)

// DatasetStatus represents the processing state of an uploaded dataset
type DatasetStatus string

const (
	DatasetStatusUploaded   DatasetStatus = "UPLOADED"
	DatasetStatusProcessing DatasetStatus = "PROCESSING"
	DatasetStatusReady      DatasetStatus = "READY"
	DatasetStatusFailed     DatasetStatus = "FAILED"
)

// Dataset represents an uploaded data file awaiting processing
type Dataset struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	SessionID   *uuid.UUID    `db:"session_id" json:"session_id,omitempty"`
	Filename    string        `db:"filename" json:"filename"`
	ContentType string        `db:"content_type" json:"content_type"`
	SizeBytes   int64         `db:"size_bytes" json:"size_bytes"`
	SHA256      string        `db:"sha256" json:"sha256,omitempty"`
	StoredPath  string        `db:"stored_path" json:"-"`
	Status      DatasetStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// NewDataset creates an uploaded dataset record
func NewDataset(filename, contentType, storedPath string, sizeBytes int64, sessionID *uuid.UUID) *Dataset {
	return &Dataset{
		ID:          uuid.New(),
		SessionID:   sessionID,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		StoredPath:  storedPath,
		Status:      DatasetStatusUploaded,
		CreatedAt:   time.Now(),
	}
}
