package sandbox

import (
	"fmt"

	"github.com/chartlab/chartlab/internal/config"
	"github.com/chartlab/chartlab/internal/core/ports/primary"
)

// NewRunner creates the sandbox backend selected by the configuration
func NewRunner(logger primary.Logger, cfg *config.SandboxConfig) (Runner, error) {
	switch cfg.Backend {
	case "docker":
		return NewDockerRunner(logger, cfg.ImagePrefix, cfg.NetworkEnabled), nil
	case "local":
		return NewLocalRunner(logger), nil
	default:
		return nil, fmt.Errorf("unsupported sandbox backend: %s", cfg.Backend)
	}
}
