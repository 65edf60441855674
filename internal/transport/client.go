package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ossi-voice/ossi/internal/model"
)

// DefaultAPIVersion is sent in the anthropic-version header when none is configured.
const DefaultAPIVersion = "2023-06-01"

// maxErrorBody caps how much of a failed response body is kept on HTTPError.
const maxErrorBody = 2048

// Ensure Client implements model.Transport.
var _ model.Transport = (*Client)(nil)

// Client calls the /v1/messages endpoint. It performs exactly one request per
// Send; retries are layered on top by the retry package.
type Client struct {
	baseURL    string
	apiKey     string
	apiVersion string
	httpClient *http.Client
}

// NewClient creates a transport targeting baseURL (e.g. https://api.anthropic.com/v1).
// httpClient carries the per-request timeout and the shared connection pool.
func NewClient(baseURL, apiKey, apiVersion string, httpClient *http.Client) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiVersion: apiVersion,
		httpClient: httpClient,
	}
}

// Send posts req and decodes the response body.
func (c *Client) Send(ctx context.Context, req model.MessageRequest) (*model.MessageResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal messages request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create messages request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", c.apiVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Caller cancellation is not a connectivity problem and must not be retried.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("messages request: %w", ctxErr)
		}
		return nil, &model.ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.ConnectionError{Err: fmt.Errorf("read messages response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(respBytes), maxErrorBody)}
	}

	var out model.MessageResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return nil, fmt.Errorf("decode messages response: %w", err)
	}
	return &out, nil
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
