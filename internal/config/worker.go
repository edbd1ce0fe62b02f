package config

import (
	"strconv"
	"strings"
)

type WorkerConfig struct {
	ServerURL string
	// Lanes lists the queue lanes this worker consumes. Empty means all.
	Lanes []string
	// Concurrency is the per-lane goroutine pool size.
	Concurrency       int
	HeartbeatInterval int
	DequeueTimeoutSec int
}

func NewWorkerConfig() *WorkerConfig {
	concurrency, err := strconv.Atoi(getEnv("WORKER_CONCURRENCY", "2"))
	if err != nil || concurrency < 1 {
		concurrency = 2
	}
	heartbeat, err := strconv.Atoi(getEnv("WORKER_HEARTBEAT_SEC", "30"))
	if err != nil {
		heartbeat = 30
	}
	dequeue, err := strconv.Atoi(getEnv("WORKER_DEQUEUE_TIMEOUT_SEC", "5"))
	if err != nil {
		dequeue = 5
	}

	var lanes []string
	if raw := getEnv("WORKER_LANES", ""); raw != "" {
		for _, lane := range strings.Split(raw, ",") {
			lane = strings.TrimSpace(lane)
			if lane != "" {
				lanes = append(lanes, lane)
			}
		}
	}

	return &WorkerConfig{
		ServerURL:         getEnv("SERVER_URL", "http://localhost:8082"),
		Lanes:             lanes,
		Concurrency:       concurrency,
		HeartbeatInterval: heartbeat,
		DequeueTimeoutSec: dequeue,
	}
}
