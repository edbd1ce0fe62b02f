package domain

import "time"

// LanguageConfig holds execution limits for one sandbox language
type LanguageConfig struct {
	Language       string    `db:"language" json:"language"`
	Description    string    `db:"description" json:"description"`
	TimeoutSeconds int       `db:"timeout_seconds" json:"timeout_seconds"`
	MemoryLimitMB  int       `db:"memory_limit_mb" json:"memory_limit_mb"`
	CPULimit       float64   `db:"cpu_limit" json:"cpu_limit"`
	RetryLimit     int       `db:"retry_limit" json:"retry_limit"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultLanguageConfig returns conservative limits for a language
func DefaultLanguageConfig(language string) *LanguageConfig {
	now := time.Now()
	return &LanguageConfig{
		Language:       language,
		TimeoutSeconds: 30,
		MemoryLimitMB:  512,
		CPULimit:       1.0,
		RetryLimit:     2,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
