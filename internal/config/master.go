package config

import "os"

type AppConfig struct {
	DebugMode      bool
	ServerConfig   *ServerConfig
	RedisConfig    *RedisConfig
	PostgresConfig *PostgresConfig
	SandboxConfig  *SandboxConfig
	WorkerConfig   *WorkerConfig
	SweeperConfig  *SweeperConfig
	LLMConfig      *LLMConfig
	UploadConfig   *UploadConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:      os.Getenv("DEBUG_MODE") == "true",
		ServerConfig:   NewServerConfig(),
		RedisConfig:    NewRedisConfig(),
		PostgresConfig: NewPostgresConfig(),
		SandboxConfig:  NewSandboxConfig(),
		WorkerConfig:   NewWorkerConfig(),
		SweeperConfig:  NewSweeperConfig(),
		LLMConfig:      NewLLMConfig(),
		UploadConfig:   NewUploadConfig(),
	}
}

// getEnv gets an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
