// Package httpclient is the authenticated JSON transport shared by the
// remote sync client.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/anshul-jain-devx108/shopmind/pkg/config"
)

const (
	// compressionThreshold is the minimum payload size to compress.
	// Below this, compression overhead isn't worth it.
	compressionThreshold = 1024 // 1KB

	// DefaultTimeout bounds every remote call at the transport boundary.
	DefaultTimeout = 30 * time.Second
)

// ErrUnauthorized is returned when the server returns 401 or 403.
// This typically means the API key is invalid or expired.
var ErrUnauthorized = errors.New("unauthorized")

// Client is a configured HTTP client for making authenticated requests to
// the remote session service.
type Client struct {
	cfg        *config.RemoteConfig
	httpClient *http.Client
	encoder    *zstd.Encoder
}

// NewClient creates a new authenticated HTTP client. A zero timeout falls
// back to DefaultTimeout.
func NewClient(cfg *config.RemoteConfig, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	// Default compression level is a good balance of speed/ratio
	encoder, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		encoder: encoder,
	}
}

// DoJSON performs an HTTP request with JSON body and parses JSON response.
// Automatically sets Content-Type, Authorization, and handles error
// responses. Payloads larger than 1KB are compressed with zstd.
func (c *Client) DoJSON(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	var bodyReader io.Reader
	var contentEncoding string

	if reqBody != nil {
		payload, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		if len(payload) >= compressionThreshold {
			compressed := c.encoder.EncodeAll(payload, make([]byte, 0, len(payload)/2))
			bodyReader = bytes.NewReader(compressed)
			contentEncoding = "zstd"
		} else {
			bodyReader = bytes.NewReader(payload)
		}
	}

	url := c.cfg.BackendURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
		if contentEncoding != "" {
			req.Header.Set("Content-Encoding", contentEncoding)
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d: %s", ErrUnauthorized, resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if respBody != nil {
		if err := json.Unmarshal(body, respBody); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Get performs a GET request with JSON response parsing
func (c *Client) Get(ctx context.Context, path string, respBody interface{}) error {
	return c.DoJSON(ctx, "GET", path, nil, respBody)
}

// Post performs a POST request with JSON body and response
func (c *Client) Post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	return c.DoJSON(ctx, "POST", path, reqBody, respBody)
}

// Put performs a PUT request with JSON body and response
func (c *Client) Put(ctx context.Context, path string, reqBody, respBody interface{}) error {
	return c.DoJSON(ctx, "PUT", path, reqBody, respBody)
}

// Delete performs a DELETE request with JSON response parsing
func (c *Client) Delete(ctx context.Context, path string, respBody interface{}) error {
	return c.DoJSON(ctx, "DELETE", path, nil, respBody)
}
