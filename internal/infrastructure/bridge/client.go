// Package bridge implements the outbound push transport to a tenant's
// external-ledger bridge process.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fieldops/backend/internal/domain/ledgersync"
)

// DefaultTimeout bounds a single push call. A call exceeding it is treated
// as a failed delivery attempt.
const DefaultTimeout = 30 * time.Second

// ErrTimeout is returned when the bridge does not answer within the timeout
var ErrTimeout = errors.New("bridge timeout")

// PushRequest is the wire payload sent to a tenant's bridge endpoint
type PushRequest struct {
	ItemID     string            `json:"item_id"`
	ClientID   string            `json:"client_id"`
	ExternalID *string           `json:"external_id,omitempty"`
	Operation  string            `json:"operation"`
	Payload    map[string]string `json:"payload"`
}

// PushResult carries the bridge's answer to a push
type PushResult struct {
	// RawBody is the bridge's response body, preserved verbatim for the
	// audit trail.
	RawBody string
	// ExternalID is the identifier the external system assigned on create
	ExternalID string
}

// Client delivers queue items to a tenant's bridge process
type Client interface {
	// Push delivers one queue item using the tenant's bridge configuration.
	// A timeout is reported as ErrTimeout; any other non-2xx answer as an error
	// carrying the response body.
	Push(ctx context.Context, cfg *ledgersync.BridgeConfig, item *ledgersync.QueueItem) (*PushResult, error)
}

// HTTPClient is the production Client implementation
type HTTPClient struct {
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures an HTTPClient
type Option func(*HTTPClient)

// WithTimeout overrides the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// NewHTTPClient creates a bridge client with the default timeout
func NewHTTPClient(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pushResponse struct {
	ExternalID string `json:"external_id"`
	Error      string `json:"error"`
}

// Push implements Client
func (c *HTTPClient) Push(ctx context.Context, cfg *ledgersync.BridgeConfig, item *ledgersync.QueueItem) (*PushResult, error) {
	if !cfg.IsConfigured() {
		return nil, errors.New("bridge is not configured for tenant")
	}

	body, err := json.Marshal(PushRequest{
		ItemID:     item.ID.String(),
		ClientID:   item.ClientID.String(),
		ExternalID: item.ExternalID,
		Operation:  string(item.Operation),
		Payload:    item.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal push request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+string(cfg.Credentials))
	// The external system deduplicates on this key, so a crash between the
	// claim and the recorded outcome cannot double-apply the change.
	req.Header.Set("X-Idempotency-Key", item.IdempotencyKey())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("push to bridge: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read bridge response: %w", err)
	}

	result := &PushResult{RawBody: string(raw)}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed pushResponse
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != "" {
			return result, fmt.Errorf("bridge rejected push: %s", parsed.Error)
		}
		return result, fmt.Errorf("bridge rejected push: status %d", resp.StatusCode)
	}

	var parsed pushResponse
	if json.Unmarshal(raw, &parsed) == nil {
		result.ExternalID = parsed.ExternalID
	}
	return result, nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
