// internal/market/jupiter.go
package market

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/utils/metrics"
)

const (
	DefaultJupiterURL = "https://quote-api.jup.ag/v6/quote"
	// quoteAmount is 0.001 SOL in lamports.
	quoteAmount = 1_000_000
)

// RouteChecker asks the Jupiter quote API whether SOL can be swapped into a
// mint.
type RouteChecker struct {
	client  *resty.Client
	url     string
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewRouteChecker creates a checker. A nil client gets the package default.
func NewRouteChecker(url string, client *resty.Client, m *metrics.Collector, logger *zap.Logger) *RouteChecker {
	if url == "" {
		url = DefaultJupiterURL
	}
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &RouteChecker{
		client:  client,
		url:     url,
		metrics: m,
		logger:  logger.Named("jupiter"),
	}
}

type quoteResponse struct {
	Data      []map[string]interface{} `json:"data"`
	RoutePlan []map[string]interface{} `json:"routePlan"`
}

// HasRoute reports whether a quote with at least one route exists. Any
// failure counts as no route.
func (r *RouteChecker) HasRoute(ctx context.Context, mint string, slippageBps int) bool {
	query := map[string]string{
		"inputMint":        NativeSOLMint,
		"outputMint":       mint,
		"amount":           strconv.Itoa(quoteAmount),
		"slippageBps":      strconv.Itoa(slippageBps),
		"onlyDirectRoutes": "false",
	}

	var resp quoteResponse
	if err := getJSON(ctx, r.client, r.metrics, "jupiter", r.url, query, &resp); err != nil {
		r.logger.Debug("Quote request failed", zap.String("mint", mint), zap.Error(err))
		return false
	}
	return len(resp.Data) > 0 || len(resp.RoutePlan) > 0
}
