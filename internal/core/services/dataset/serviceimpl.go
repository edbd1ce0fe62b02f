package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/domain"
)

var _ IDatasetService = (*DatasetService)(nil)

// DatasetService implements the IDatasetService interface
type DatasetService struct {
	datasetRepo secondary.DatasetRepository
	dispatcher  secondary.QueueDispatcher
	logger      primary.Logger
}

// NewDatasetService creates a new dataset service
func NewDatasetService(
	datasetRepo secondary.DatasetRepository,
	dispatcher secondary.QueueDispatcher,
	logger primary.Logger,
) *DatasetService {
	return &DatasetService{
		datasetRepo: datasetRepo,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// RegisterUpload records a stored upload and enqueues it on the
// file_processing lane
func (s *DatasetService) RegisterUpload(ctx context.Context, dataset *domain.Dataset) error {
	if err := s.datasetRepo.SaveDataset(ctx, dataset); err != nil {
		s.logger.Error("Failed to save dataset", "error", err)
		return fmt.Errorf("failed to save dataset: %w", err)
	}

	msg := domain.NewJobMessage(domain.LaneFileProcessing, domain.JobKindProcessDataset, map[string]interface{}{
		"datasetId": dataset.ID.String(),
	})
	if err := s.dispatcher.Enqueue(ctx, msg); err != nil {
		s.logger.Error("Failed to enqueue dataset processing", "datasetId", dataset.ID, "error", err)
		return fmt.Errorf("failed to enqueue dataset processing: %w", err)
	}

	s.logger.Info("Dataset upload registered", "datasetId", dataset.ID, "filename", dataset.Filename)
	return nil
}

// Get retrieves a dataset by ID
func (s *DatasetService) Get(ctx context.Context, id uuid.UUID) (*domain.Dataset, error) {
	dataset, err := s.datasetRepo.GetDataset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return dataset, nil
}

// ListBySession retrieves datasets for a session, newest first
func (s *DatasetService) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Dataset, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	datasets, err := s.datasetRepo.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return datasets, nil
}

// Process verifies the stored file and marks the dataset ready
func (s *DatasetService) Process(ctx context.Context, datasetID uuid.UUID) error {
	dataset, err := s.datasetRepo.GetDataset(ctx, datasetID)
	if err != nil {
		return fmt.Errorf("failed to get dataset: %w", err)
	}
	if dataset == nil {
		s.logger.Warn("Dataset not found for processing", "datasetId", datasetID)
		return nil
	}

	// Re-delivered jobs for an already processed dataset are a no-op
	if dataset.Status == domain.DatasetStatusReady || dataset.Status == domain.DatasetStatusFailed {
		return nil
	}

	if err := s.datasetRepo.UpdateStatus(ctx, datasetID, domain.DatasetStatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to mark dataset processing: %w", err)
	}

	checksum, err := hashFile(dataset.StoredPath)
	if err != nil {
		s.logger.Error("Failed to hash dataset file", "datasetId", datasetID, "error", err)
		if updateErr := s.datasetRepo.UpdateStatus(ctx, datasetID, domain.DatasetStatusFailed, ""); updateErr != nil {
			return fmt.Errorf("failed to mark dataset failed: %w", updateErr)
		}
		return nil
	}

	if err := s.datasetRepo.UpdateStatus(ctx, datasetID, domain.DatasetStatusReady, checksum); err != nil {
		return fmt.Errorf("failed to mark dataset ready: %w", err)
	}

	s.logger.Info("Dataset processed", "datasetId", datasetID, "sha256", checksum)
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
