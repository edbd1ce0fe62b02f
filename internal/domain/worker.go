package domain

import "time"

// WorkerInfo represents information about a worker process
type WorkerInfo struct {
	ID            string    `json:"id"`
	Lanes         []string  `json:"lanes"`
	Concurrency   int       `json:"concurrency"`
	CurrentLoad   int       `json:"current_load"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	Hostname      string    `json:"hostname"`
	Version       string    `json:"version"`
	IsActive      bool      `json:"is_active"`
}

// Capacity returns the total number of jobs the worker can hold at once
func (w *WorkerInfo) Capacity() int {
	return w.Concurrency * len(w.Lanes)
}
