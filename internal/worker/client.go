package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/domain"
)

// Client registers a worker with the API server and keeps its
// heartbeat fresh
type Client struct {
	serverURL  string
	httpClient *http.Client
	logger     primary.Logger
}

// NewClient creates a worker API client
func NewClient(serverURL string, logger primary.Logger) *Client {
	return &Client{
		serverURL:  serverURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Register registers the worker with the server
func (c *Client) Register(ctx context.Context, info *domain.WorkerInfo) error {
	c.logger.Info("Registering worker", "id", info.ID, "lanes", info.Lanes)

	body, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal registration body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/workers", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send registration request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("registration failed with status code: %d", resp.StatusCode)
	}

	c.logger.Info("Worker registered successfully")
	return nil
}

// SendHeartbeats sends periodic heartbeats until ctx is cancelled
func (c *Client) SendHeartbeats(ctx context.Context, workerID string, interval time.Duration, load func() int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sendHeartbeat(ctx, workerID, load())
		}
	}
}

func (c *Client) sendHeartbeat(ctx context.Context, workerID string, load int) {
	c.logger.Debug("Sending heartbeat", "load", load)

	body, err := json.Marshal(map[string]interface{}{"load": load})
	if err != nil {
		c.logger.Error("Failed to marshal heartbeat body", "error", err)
		return
	}

	url := fmt.Sprintf("%s/api/workers/%s/heartbeat", c.serverURL, workerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Failed to create heartbeat request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to send heartbeat", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Heartbeat failed", "statusCode", resp.StatusCode)
	}
}
