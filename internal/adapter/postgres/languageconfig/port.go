// package languageconfig contains the PostgreSQL implementation of the
// language config repository
package languageconfig

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/domain"
)

// LanguageConfigRepository implements the LanguageConfigRepository
// interface with PostgreSQL
type LanguageConfigRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

var _ secondary.LanguageConfigRepository = (*LanguageConfigRepository)(nil)

// NewLanguageConfigRepository creates a new PostgreSQL language config repository
func NewLanguageConfigRepository(db *sqlx.DB, logger primary.Logger) *LanguageConfigRepository {
	return &LanguageConfigRepository{
		db:     db,
		logger: logger,
	}
}

// GetLanguageConfig retrieves the config for one language
func (r *LanguageConfigRepository) GetLanguageConfig(ctx context.Context, language string) (*domain.LanguageConfig, error) {
	query := `
		SELECT language, description, timeout_seconds, memory_limit_mb, cpu_limit,
			   retry_limit, active, created_at, updated_at
		FROM language_configs
		WHERE language = $1
	`

	var config domain.LanguageConfig
	if err := r.db.GetContext(ctx, &config, query, language); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get language config", "language", language, "error", err)
		return nil, fmt.Errorf("failed to get language config: %w", err)
	}

	return &config, nil
}

// GetAllLanguageConfigs retrieves all configs, including inactive ones
func (r *LanguageConfigRepository) GetAllLanguageConfigs(ctx context.Context) ([]*domain.LanguageConfig, error) {
	query := `
		SELECT language, description, timeout_seconds, memory_limit_mb, cpu_limit,
			   retry_limit, active, created_at, updated_at
		FROM language_configs
		ORDER BY language
	`

	configs := []*domain.LanguageConfig{}
	if err := r.db.SelectContext(ctx, &configs, query); err != nil {
		r.logger.Error("Failed to get language configs", "error", err)
		return nil, fmt.Errorf("failed to get language configs: %w", err)
	}

	return configs, nil
}

// GetActiveLanguages retrieves all active language identifiers
func (r *LanguageConfigRepository) GetActiveLanguages(ctx context.Context) ([]string, error) {
	query := `SELECT language FROM language_configs WHERE active = true ORDER BY language`

	languages := []string{}
	if err := r.db.SelectContext(ctx, &languages, query); err != nil {
		r.logger.Error("Failed to get active languages", "error", err)
		return nil, fmt.Errorf("failed to get active languages: %w", err)
	}

	return languages, nil
}

// SaveLanguageConfig inserts or updates a language config
func (r *LanguageConfigRepository) SaveLanguageConfig(ctx context.Context, config *domain.LanguageConfig) error {
	query := `
		INSERT INTO language_configs (
			language, description, timeout_seconds, memory_limit_mb, cpu_limit,
			retry_limit, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (language) DO UPDATE SET
			description = EXCLUDED.description,
			timeout_seconds = EXCLUDED.timeout_seconds,
			memory_limit_mb = EXCLUDED.memory_limit_mb,
			cpu_limit = EXCLUDED.cpu_limit,
			retry_limit = EXCLUDED.retry_limit,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	config.UpdatedAt = time.Now()

	if _, err := r.db.ExecContext(ctx, query,
		config.Language, config.Description, config.TimeoutSeconds, config.MemoryLimitMB,
		config.CPULimit, config.RetryLimit, config.Active, config.CreatedAt, config.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to save language config", "language", config.Language, "error", err)
		return fmt.Errorf("failed to save language config: %w", err)
	}

	return nil
}

// SetActive activates or deactivates a language
func (r *LanguageConfigRepository) SetActive(ctx context.Context, language string, active bool) error {
	query := `UPDATE language_configs SET active = $1, updated_at = NOW() WHERE language = $2`

	res, err := r.db.ExecContext(ctx, query, active, language)
	if err != nil {
		r.logger.Error("Failed to update language active flag", "language", language, "error", err)
		return fmt.Errorf("failed to update language active flag: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("language not found: %s", language)
	}

	return nil
}
