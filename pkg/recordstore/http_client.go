package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxResponseBytes bounds a response body read by HTTPClient.
const DefaultMaxResponseBytes = 32 << 20

// HTTPConfig configures an HTTPClient.
type HTTPConfig struct {
	BaseURL   string
	ProjectID string
	PublicKey string
	// Timeout of zero means no client-side timeout.
	Timeout time.Duration
	// MaxResponseBytes of zero means DefaultMaxResponseBytes.
	MaxResponseBytes int64
	// HTTPClient overrides the underlying client, mostly for tests.
	HTTPClient *http.Client
}

// HTTPClient implements API against the hosted record store.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	projectID  string
	publicKey  string
	maxBody    int64
}

// NewHTTPClient creates a client for the hosted record store
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxResponseBytes
	}

	return &HTTPClient{
		httpClient: hc,
		maxBody:    maxBody,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		projectID:  cfg.ProjectID,
		publicKey:  cfg.PublicKey,
	}, nil
}

// FetchRecords lists records of a table
func (c *HTTPClient) FetchRecords(ctx context.Context, table string, q Query) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.tablePath(table, "records", "query"), q)
}

// GetRecordByID fetches one record
func (c *HTTPClient) GetRecordByID(ctx context.Context, table string, id int64, q Query) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.tablePath(table, "records", strconv.FormatInt(id, 10), "query"), q)
}

// CreateRecord submits a batch of new records
func (c *HTTPClient) CreateRecord(ctx context.Context, table string, req RecordsRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.tablePath(table, "records"), req)
}

// UpdateRecord submits a batch of record updates
func (c *HTTPClient) UpdateRecord(ctx context.Context, table string, req RecordsRequest) (*Response, error) {
	return c.do(ctx, http.MethodPut, c.tablePath(table, "records"), req)
}

// DeleteRecord submits a batch of record ids for deletion
func (c *HTTPClient) DeleteRecord(ctx context.Context, table string, req DeleteRequest) (*Response, error) {
	return c.do(ctx, http.MethodDelete, c.tablePath(table, "records"), req)
}

func (c *HTTPClient) tablePath(table string, parts ...string) string {
	segs := append([]string{c.baseURL, "tables", url.PathEscape(table)}, parts...)
	return strings.Join(segs, "/")
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.projectID != "" {
		req.Header.Set("X-Project-Id", c.projectID)
	}
	if c.publicKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.publicKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if int64(len(bodyBytes)) > c.maxBody {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("response exceeds %d bytes", c.maxBody)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(bodyBytes, &errBody)
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    errBody.Message,
		}
	}

	var out Response
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return &out, nil
}

// Ensure HTTPClient implements API
var _ API = (*HTTPClient)(nil)
