// Package ibkr provides client functionality for the IB gateway back-ends.
//
// Back-ends expose the same logical operations under slightly different
// URL paths depending on their deployment generation, so every call walks
// an ordered list of candidate paths and stops at the first authoritative
// answer.
package ibkr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Outcome classifies a single path attempt
type Outcome string

const (
	OutcomeSuccess        Outcome = "SUCCESS"
	OutcomeNotFound       Outcome = "NOT_FOUND"
	OutcomeMalformed      Outcome = "MALFORMED"
	OutcomeTransportError Outcome = "TRANSPORT_ERROR"
)

// Attempt records the outcome of probing one candidate path
type Attempt struct {
	Path    string  `json:"path"`
	Outcome Outcome `json:"outcome"`
	Status  int     `json:"status,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Result is an authoritative broker answer: any JSON body, regardless of
// HTTP status. A 500 with a JSON body from the back-end is a real answer
// that callers must see, not a reason to keep probing.
type Result struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// AggregatedError is returned when every candidate path failed to produce
// an authoritative answer.
type AggregatedError struct {
	Tried []Attempt
}

// Error implements the error interface
func (e *AggregatedError) Error() string {
	parts := make([]string, 0, len(e.Tried))
	for _, a := range e.Tried {
		if a.Error != "" {
			parts = append(parts, fmt.Sprintf("%s: %s (%s)", a.Path, a.Outcome, a.Error))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", a.Path, a.Outcome))
		}
	}
	return "all paths failed: " + strings.Join(parts, "; ")
}

// Last returns the final attempt, or nil when nothing was tried
func (e *AggregatedError) Last() *Attempt {
	if len(e.Tried) == 0 {
		return nil
	}
	return &e.Tried[len(e.Tried)-1]
}

// BaseURLFunc resolves the broker base URL at call time. Resolution is
// deliberately per-request so an admin mode flip takes effect immediately.
type BaseURLFunc func() string

// Proxy probes candidate paths on the currently resolved back-end
type Proxy struct {
	baseURL    BaseURLFunc
	httpClient *http.Client
	log        zerolog.Logger
}

// NewProxy creates a proxy over the given base URL resolver
func NewProxy(baseURL BaseURLFunc, log zerolog.Logger) *Proxy {
	return &Proxy{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		log:        log.With().Str("client", "ibkr_proxy").Logger(),
	}
}

// TryPaths walks the candidate paths in order and returns the first
// authoritative answer. 404s, non-JSON bodies and transport failures move
// on to the next path; any other status with a parseable JSON body is
// returned immediately. When every path fails the returned error is an
// *AggregatedError listing each attempt.
func (p *Proxy) TryPaths(ctx context.Context, method string, paths []string, payload interface{}, timeout time.Duration) (*Result, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	base := p.baseURL()
	tried := make([]Attempt, 0, len(paths))

	for _, path := range paths {
		result, attempt := p.tryOne(ctx, method, base+path, body, timeout)
		if result != nil {
			p.log.Debug().
				Str("path", path).
				Int("status", result.Status).
				Msg("Broker path answered")
			return result, nil
		}

		p.log.Warn().
			Str("path", path).
			Str("outcome", string(attempt.Outcome)).
			Str("error", attempt.Error).
			Msg("Broker path failed, trying next")
		tried = append(tried, attempt)
	}

	return nil, &AggregatedError{Tried: tried}
}

// tryOne performs a single attempt against one URL
func (p *Proxy) tryOne(ctx context.Context, method, url string, body []byte, timeout time.Duration) (*Result, Attempt) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
	if err != nil {
		return nil, Attempt{Path: url, Outcome: OutcomeTransportError, Error: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, Attempt{Path: url, Outcome: OutcomeTransportError, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, Attempt{Path: url, Outcome: OutcomeNotFound, Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Attempt{Path: url, Outcome: OutcomeTransportError, Status: resp.StatusCode, Error: err.Error()}
	}

	if !json.Valid(raw) {
		return nil, Attempt{
			Path:    url,
			Outcome: OutcomeMalformed,
			Status:  resp.StatusCode,
			Error:   "response body is not valid JSON",
		}
	}

	return &Result{Status: resp.StatusCode, Body: raw}, Attempt{Path: url, Outcome: OutcomeSuccess, Status: resp.StatusCode}
}
