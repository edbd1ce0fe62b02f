package result

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/imaging"
	"github.com/chartlab/chartlab/internal/sandbox"
	"github.com/chartlab/chartlab/internal/static/errs"
)

const maxSummaryLen = 280

var _ IResultService = (*ResultService)(nil)

// ResultService implements the IResultService interface
type ResultService struct {
	resultRepo secondary.ResultRepository
	logger     primary.Logger
}

// NewResultService creates a new result service
func NewResultService(resultRepo secondary.ResultRepository, logger primary.Logger) *ResultService {
	return &ResultService{
		resultRepo: resultRepo,
		logger:     logger,
	}
}

// ProcessRunResult converts a raw sandbox run into a stored Result with
// its generated images
func (s *ResultService) ProcessRunResult(ctx context.Context, execution *domain.Execution, run sandbox.RunResult) (*domain.Result, error) {
	summary := Summarize(run.Stdout)
	result := domain.NewResult(execution.ID, summary, len(run.Artifacts) > 0)

	images := make([]*domain.GeneratedImage, 0, len(run.Artifacts))
	for i, artifact := range run.Artifacts {
		meta := imaging.Sniff(artifact.Format, artifact.Data)
		images = append(images, &domain.GeneratedImage{
			ID:          uuid.New(),
			ResultID:    result.ID,
			Name:        imaging.Name(i, summary, result.CreatedAt),
			ImageData:   imaging.EncodeDataURL(meta.Format, artifact.Data),
			ImageFormat: meta.Format,
			Width:       meta.Width,
			Height:      meta.Height,
			SourceType:  domain.SourceTypeSandbox,
			Position:    i,
			CreatedAt:   result.CreatedAt,
		})
	}

	if err := s.resultRepo.SaveResult(ctx, result, images); err != nil {
		s.logger.Error("Failed to save result", "executionId", execution.ID, "error", err)
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	s.logger.Info("Result processed", "executionId", execution.ID, "images", len(images))
	return result, nil
}

// GetSessionResults retrieves results with images for a session
func (s *ResultService) GetSessionResults(ctx context.Context, sessionID uuid.UUID, limit int) ([]*ResultWithImages, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	results, err := s.resultRepo.ListBySession(ctx, sessionID, limit)
	if err != nil {
		s.logger.Error("Failed to list session results", "sessionId", sessionID, "error", err)
		return nil, fmt.Errorf("failed to list session results: %w", err)
	}

	out := make([]*ResultWithImages, 0, len(results))
	for _, result := range results {
		entry := &ResultWithImages{Result: result}
		if result.HasImages {
			images, err := s.resultRepo.GetImages(ctx, result.ID)
			if err != nil {
				s.logger.Error("Failed to get result images", "resultId", result.ID, "error", err)
				return nil, fmt.Errorf("failed to get result images: %w", err)
			}
			entry.Images = images
		}
		out = append(out, entry)
	}

	return out, nil
}

// GetResultByExecution retrieves the result of one execution with images
func (s *ResultService) GetResultByExecution(ctx context.Context, executionID uuid.UUID) (*ResultWithImages, error) {
	result, err := s.resultRepo.GetResultByExecution(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if result == nil {
		return nil, errs.ResultNotFound
	}

	entry := &ResultWithImages{Result: result}
	if result.HasImages {
		images, err := s.resultRepo.GetImages(ctx, result.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get result images: %w", err)
		}
		entry.Images = images
	}

	return entry, nil
}

// GetImage retrieves one stored image
func (s *ResultService) GetImage(ctx context.Context, imageID uuid.UUID) (*domain.GeneratedImage, error) {
	image, err := s.resultRepo.GetImage(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	if image == nil {
		return nil, errs.ImageNotFound
	}
	return image, nil
}

// ImproveImageNames re-derives image names using the result summary as
// analysis context. Names that come out identical are left untouched, so
// re-running the pass is a no-op.
func (s *ResultService) ImproveImageNames(ctx context.Context, resultID uuid.UUID) error {
	result, err := s.resultRepo.GetResult(ctx, resultID)
	if err != nil {
		return fmt.Errorf("failed to get result: %w", err)
	}
	if result == nil {
		return errs.ResultNotFound
	}

	images, err := s.resultRepo.GetImages(ctx, resultID)
	if err != nil {
		return fmt.Errorf("failed to get result images: %w", err)
	}

	for _, image := range images {
		name := imaging.Name(image.Position, result.Summary, image.CreatedAt)
		if name == image.Name {
			continue
		}
		if err := s.resultRepo.RenameImage(ctx, image.ID, name); err != nil {
			return fmt.Errorf("failed to rename image: %w", err)
		}
		s.logger.Debug("Image renamed", "imageId", image.ID, "name", name)
	}

	return nil
}

// UpdateSummary replaces the summary of an execution's result
func (s *ResultService) UpdateSummary(ctx context.Context, executionID uuid.UUID, summary string) error {
	result, err := s.resultRepo.GetResultByExecution(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to get result: %w", err)
	}
	if result == nil {
		return errs.ResultNotFound
	}

	result.Summary = summary
	// SaveResult upserts on execution_id, which updates the summary in place
	if err := s.resultRepo.SaveResult(ctx, result, nil); err != nil {
		return fmt.Errorf("failed to update result summary: %w", err)
	}

	return nil
}

// Summarize derives a short result summary from execution output: the
// first non-empty line, truncated
func Summarize(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > maxSummaryLen {
			// Cut on a rune boundary so multibyte output stays valid UTF-8
			cut := maxSummaryLen
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			return line[:cut]
		}
		return line
	}
	return ""
}
