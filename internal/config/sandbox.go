package config

import "strconv"

type SandboxConfig struct {
	// Backend selects the isolation mechanism: "docker" or "local".
	// Local runs without isolation and is only meant for development.
	Backend           string
	DefaultTimeoutSec int
	DefaultMemoryMB   int
	NetworkEnabled    bool
	ImagePrefix       string
}

func NewSandboxConfig() *SandboxConfig {
	timeout, err := strconv.Atoi(getEnv("SANDBOX_TIMEOUT_SEC", "30"))
	if err != nil {
		timeout = 30
	}
	memory, err := strconv.Atoi(getEnv("SANDBOX_MEMORY_MB", "512"))
	if err != nil {
		memory = 512
	}
	return &SandboxConfig{
		Backend:           getEnv("SANDBOX_BACKEND", "docker"),
		DefaultTimeoutSec: timeout,
		DefaultMemoryMB:   memory,
		NetworkEnabled:    getEnv("SANDBOX_NETWORK_ENABLED", "false") == "true",
		ImagePrefix:       getEnv("SANDBOX_IMAGE_PREFIX", "chartlab/runtime"),
	}
}
