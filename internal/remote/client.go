// Package remote talks to the prediction and catalog service. Every call has
// a fixed deadline and either succeeds or fails with *UnavailableError.
// There are no retries at this layer.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/metrics"
	"github.com/sandevgo/storedash/pkg/log"
	"golang.org/x/sync/singleflight"
)

const (
	EndpointPredict = "predict"
	EndpointCatalog = "catalog"
	EndpointHealth  = "health"

	// the backend rejects top_k outside this range
	minTopK = 1
	maxTopK = 50

	maxErrorBody = 512
)

var _ core.HealthChecker = (*Client)(nil)

type Config struct {
	BaseURL      string
	CallTimeout  time.Duration
	ProbeTimeout time.Duration
}

type Client struct {
	http     *http.Client
	baseURL  string
	timeout  time.Duration
	probe    time.Duration
	validate *validator.Validate
	metrics  *metrics.Metrics
	health   singleflight.Group
}

func NewClient(cfg Config, m *metrics.Metrics) *Client {
	return &Client{
		// deadlines come from the per-call context
		http:     &http.Client{},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timeout:  cfg.CallTimeout,
		probe:    cfg.ProbeTimeout,
		validate: validator.New(),
		metrics:  m,
	}
}

// Predict asks the service for the most likely next purchases.
func (c *Client) Predict(ctx context.Context, cart []core.CartLine, topK int) ([]core.Candidate, error) {
	req := predictRequest{
		Cart: make([]cartItem, 0, len(cart)),
		TopK: clamp(topK, minTopK, maxTopK),
	}
	for _, l := range cart {
		req.Cart = append(req.Cart, cartItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	var resp predictResponse
	if err := c.call(ctx, EndpointPredict, c.timeout, http.MethodPost, "/predict", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.candidates(), nil
}

// Catalog fetches one page of products. Department and aisle are sent under
// both the brand/category names and the names the backend reads.
func (c *Client) Catalog(ctx context.Context, f core.Filter, page, pageSize int) (core.CatalogPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Department != "" {
		q.Set("brand", f.Department)
		q.Set("department", f.Department)
	}
	if f.Aisle != "" {
		q.Set("category", f.Aisle)
		q.Set("aisle", f.Aisle)
	}

	var resp catalogResponse
	if err := c.call(ctx, EndpointCatalog, c.timeout, http.MethodGet, "/products", q, nil, &resp); err != nil {
		return core.CatalogPage{}, err
	}
	return resp.page(), nil
}

// Probe performs one health request and reports failures.
func (c *Client) Probe(ctx context.Context) (core.Health, error) {
	var resp healthResponse
	if err := c.call(ctx, EndpointHealth, c.probe, http.MethodGet, "/health", nil, nil, &resp); err != nil {
		return core.Health{}, err
	}
	return core.Health{Status: resp.Status, ModelLoaded: resp.ModelLoaded}, nil
}

// Health never fails: an unreachable service reports as unhealthy.
// Concurrent callers share one in-flight probe.
func (c *Client) Health(ctx context.Context) core.Health {
	v, _, _ := c.health.Do(EndpointHealth, func() (any, error) {
		h, err := c.Probe(context.WithoutCancel(ctx))
		if err != nil {
			return core.UnhealthyStatus(), nil
		}
		return h, nil
	})
	return v.(core.Health)
}

func (c *Client) call(ctx context.Context, endpoint string, timeout time.Duration, method, path string, query url.Values, body, out any) (err error) {
	logger := log.FromCtx(ctx)
	start := time.Now()

	defer func() {
		outcome := metrics.OutcomeSuccess
		if ue, ok := err.(*UnavailableError); ok {
			outcome = ue.Cause.outcome()
			logger.Warn().
				Str("endpoint", endpoint).
				Str("cause", string(ue.Cause)).
				Int("status", ue.Status).
				Err(ue.Err).
				Msg("remote call unavailable")
		}
		c.metrics.ObserveRemoteCall(endpoint, outcome, time.Since(start))
	}()

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.doRequest(callCtx, method, path, query, body)
	if err != nil {
		return &UnavailableError{Endpoint: endpoint, Cause: transportCause(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UnavailableError{
			Endpoint: endpoint,
			Cause:    CauseBadStatus,
			Status:   resp.StatusCode,
			Err:      errors.New(strings.TrimSpace(string(snippet))),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UnavailableError{Endpoint: endpoint, Cause: transportCause(err), Err: fmt.Errorf("read body: %w", err)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &UnavailableError{Endpoint: endpoint, Cause: CauseMalformed, Err: fmt.Errorf("decode: %w", err)}
	}
	if err := c.validate.Struct(out); err != nil {
		return &UnavailableError{Endpoint: endpoint, Cause: CauseMalformed, Err: fmt.Errorf("validate: %w", err)}
	}

	logger.Debug().Str("endpoint", endpoint).Dur("took", time.Since(start)).Msg("remote call succeeded")
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", core.AppUserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
