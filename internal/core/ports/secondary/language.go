package secondary

import (
	"context"

	"github.com/chartlab/chartlab/internal/domain"
)

// LanguageConfigRepository defines the interface for per-language
// sandbox execution limits
type LanguageConfigRepository interface {
	// GetLanguageConfig retrieves the config for one language, nil when absent
	GetLanguageConfig(ctx context.Context, language string) (*domain.LanguageConfig, error)

	// GetAllLanguageConfigs retrieves all configs, including inactive ones
	GetAllLanguageConfigs(ctx context.Context) ([]*domain.LanguageConfig, error)

	// GetActiveLanguages retrieves all active language identifiers
	GetActiveLanguages(ctx context.Context) ([]string, error)

	// SaveLanguageConfig inserts or updates a language config
	SaveLanguageConfig(ctx context.Context, config *domain.LanguageConfig) error

	// SetActive activates or deactivates a language
	SetActive(ctx context.Context, language string, active bool) error
}
