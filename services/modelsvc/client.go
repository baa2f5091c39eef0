package modelsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NotFound is the sentinel the service returns when no model number
// can be inferred from a title.
const NotFound = "N/A"

// Client talks to the external model-number extraction service.
// The service maps a free-text product title to a canonical model number,
// answering NotFound rather than an error on inconclusive input.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a model service client with a bounded timeout
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type extractRequest struct {
	Title string `json:"title"`
}

type extractResponse struct {
	Model string `json:"model"`
}

// ExtractModel asks the service for the best-guess model number of a title.
// An inconclusive answer is returned as NotFound with a nil error; callers
// fall back to local pattern extraction on NotFound or on error.
func (c *Client) ExtractModel(ctx context.Context, title string) (string, error) {
	payload, err := json.Marshal(extractRequest{Title: title})
	if err != nil {
		return NotFound, fmt.Errorf("failed to marshal extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/extract", bytes.NewBuffer(payload))
	if err != nil {
		return NotFound, fmt.Errorf("failed to create extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return NotFound, fmt.Errorf("model service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NotFound, fmt.Errorf("model service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NotFound, fmt.Errorf("failed to read model service response: %w", err)
	}

	var result extractResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return NotFound, fmt.Errorf("failed to parse model service response: %w", err)
	}

	model := strings.TrimSpace(result.Model)
	if model == "" {
		return NotFound, nil
	}

	return model, nil
}

// HealthCheck verifies the service is reachable
func (c *Client) HealthCheck() error {
	resp, err := c.client.Get(c.baseURL + "/health")
	if err != nil {
		return fmt.Errorf("model service not reachable at %s: %v", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model service health check returned status %d", resp.StatusCode)
	}
	return nil
}
