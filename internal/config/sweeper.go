package config

import (
	"strconv"
	"time"
)

type SweeperConfig struct {
	StuckRunningInterval time.Duration
	MaintenanceInterval  time.Duration
	ExecutionRetention   time.Duration
}

func NewSweeperConfig() *SweeperConfig {
	stuckSec, err := strconv.Atoi(getEnv("SWEEP_STUCK_INTERVAL_SEC", "60"))
	if err != nil {
		stuckSec = 60
	}
	maintSec, err := strconv.Atoi(getEnv("SWEEP_MAINTENANCE_INTERVAL_SEC", "300"))
	if err != nil {
		maintSec = 300
	}
	retentionHours, err := strconv.Atoi(getEnv("EXECUTION_RETENTION_HOURS", "168"))
	if err != nil {
		retentionHours = 168
	}
	return &SweeperConfig{
		StuckRunningInterval: time.Duration(stuckSec) * time.Second,
		MaintenanceInterval:  time.Duration(maintSec) * time.Second,
		ExecutionRetention:   time.Duration(retentionHours) * time.Hour,
	}
}
