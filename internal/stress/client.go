package stress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrMalformedResponse is returned when the service answers 200 but the body
// lacks the expected result-array shape.
var ErrMalformedResponse = errors.New("malformed stress response")

// DefaultTimeout bounds one stress call end to end.
const DefaultTimeout = 60 * time.Second

// Client calls the external stress-calculation service. Calls are not
// retried; a failure surfaces as a single error for the caller to report.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL. timeout <= 0
// selects DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type runRequest struct {
	CSVText string `json:"csv_text"`
	Params  Params `json:"params"`
}

// Run submits the original raw CSV text with the given parameters and
// returns the service's outcome. The CSV is passed through unmodified; the
// service does its own parsing.
func (c *Client) Run(ctx context.Context, csvText string, params Params) (*Outcome, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("stress params: %w", err)
	}

	body, err := json.Marshal(runRequest{CSVText: csvText, Params: params})
	if err != nil {
		return nil, fmt.Errorf("stress service: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stress", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("stress service: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stress service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stress service: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out Outcome
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.Results == nil {
		return nil, ErrMalformedResponse
	}
	return &out, nil
}
