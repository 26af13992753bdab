// internal/market/client.go
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rovshanmuradov/mintwatch/internal/utils/metrics"
)

const (
	// NativeSOLMint is the wrapped SOL mint used as the quote input.
	NativeSOLMint = "So11111111111111111111111111111111111111112"

	defaultTimeout = 10 * time.Second
)

// NewHTTPClient returns the resty client shared by the market services.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Accept", "application/json")
}

// getJSON performs a GET and decodes a 200 response body into out.
func getJSON(ctx context.Context, c *resty.Client, m *metrics.Collector, provider, url string, query map[string]string, out interface{}) error {
	start := time.Now()
	resp, err := c.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(url)
	if err == nil && resp.StatusCode() != 200 {
		err = fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	m.RecordMarketLatency(provider, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s request: %w", provider, err)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s decode response: %w", provider, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// flexFloat accepts a JSON number, a numeric string or null.
type flexFloat struct {
	v     float64
	valid bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = flexFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		// Нечисловое значение считаем отсутствующим
		*f = flexFloat{}
		return nil
	}
	*f = flexFloat{v: v, valid: true}
	return nil
}

// Ptr returns nil for an absent value.
func (f flexFloat) Ptr() *float64 {
	if !f.valid {
		return nil
	}
	v := f.v
	return &v
}
