package config

import "strconv"

type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

func NewUploadConfig() *UploadConfig {
	maxMB, err := strconv.Atoi(getEnv("UPLOAD_MAX_SIZE_MB", "50"))
	if err != nil {
		maxMB = 50
	}
	return &UploadConfig{
		Dir:          getEnv("UPLOAD_DIR", "./uploads"),
		MaxSizeBytes: int64(maxMB) * 1024 * 1024,
	}
}
