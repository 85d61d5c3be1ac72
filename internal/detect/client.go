package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aronrissato/CarboPratos/internal/imaging"
)

// Client talks to an external recognition service over HTTP. The service
// receives the raw image bytes and returns labeled regions; everything past
// that boundary (model choice, inference) is the service's business.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	config     *ClientConfig
}

type ClientConfig struct {
	Timeout             time.Duration
	MaxRetries          int
	RetryDelay          time.Duration
	HealthCheckInterval time.Duration
}

type detectRequest struct {
	ImageData []byte `json:"image_data"`
	Filename  string `json:"filename"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type detectResponse struct {
	Detections     []RawDetection `json:"detections"`
	ModelVersion   string         `json:"model_version"`
	ProcessingTime float64        `json:"processing_time"`
}

// NewClient builds a client over the given recognition service. Zero config
// values fall back to the defaults.
func NewClient(baseURL string, config ClientConfig, logger *zap.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 1 * time.Second
	}
	if config.HealthCheckInterval <= 0 {
		config.HealthCheckInterval = 30 * time.Second
	}

	client := &Client{
		baseURL: baseURL,
		logger:  logger,
		config:  &config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:       10,
				IdleConnTimeout:    30 * time.Second,
				DisableCompression: true,
			},
		},
	}

	if err := client.HealthCheck(context.Background()); err != nil {
		logger.Warn("Recognition service not available at startup", zap.Error(err))
	}

	return client
}

func (c *Client) Name() string {
	return "http"
}

// Detect sends the image to the recognition service, retrying transient
// failures with a linear backoff.
func (c *Client) Detect(ctx context.Context, img *imaging.Image) ([]RawDetection, error) {
	request := &detectRequest{
		ImageData: img.Data,
		Filename:  img.Name,
		Width:     img.Width,
		Height:    img.Height,
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying detection request",
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		detections, err := c.executeDetectRequest(ctx, request)
		if err == nil {
			return detections, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("detection failed after %d attempts: %w",
		c.config.MaxRetries, lastErr)
}

func (c *Client) executeDetectRequest(ctx context.Context, request *detectRequest) ([]RawDetection, error) {
	requestData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/detect", c.baseURL)
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("User-Agent", "carbopratos/1.0")

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(response.Body)
		return nil, fmt.Errorf("recognition service error (status %d): %s",
			response.StatusCode, string(bodyBytes))
	}

	var result detectResponse
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Detections, nil
}

// HealthCheck probes the recognition service's health endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", c.baseURL)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("recognition service unhealthy (status %d)", response.StatusCode)
	}

	return nil
}

// StartHealthChecker probes the service periodically until ctx is cancelled.
// Long-running server mode uses it; the batch CLI does not.
func (c *Client) StartHealthChecker(ctx context.Context) {
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.HealthCheck(ctx); err != nil {
				c.logger.Error("Recognition service health check failed", zap.Error(err))
			} else {
				c.logger.Debug("Recognition service health check passed")
			}
		case <-ctx.Done():
			return
		}
	}
}
