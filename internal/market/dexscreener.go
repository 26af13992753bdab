// internal/market/dexscreener.go
package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
	"github.com/rovshanmuradov/mintwatch/internal/utils/metrics"
)

const (
	DefaultDexScreenerURL = "https://api.dexscreener.com"
	solanaChain           = "solana"
	// StatsTTL is how long a stats lookup (including "no pair") is reused.
	StatsTTL = 15 * time.Second
)

// Pair содержит информацию о паре DexScreener
type Pair struct {
	ChainID     string             `json:"chainId"`
	DexID       string             `json:"dexId"`
	PairAddress string             `json:"pairAddress"`
	PriceUsd    flexFloat          `json:"priceUsd"`
	PriceNative flexFloat          `json:"priceNative"`
	Liquidity   *Liquidity         `json:"liquidity"`
	Volume      map[string]float64 `json:"volume"`
	Fdv         flexFloat          `json:"fdv"`
	MarketCap   flexFloat          `json:"marketCap"`
}

// Liquidity содержит информацию о ликвидности
type Liquidity struct {
	USD flexFloat `json:"usd"`
}

func (p *Pair) liquidityUSD() float64 {
	if p.Liquidity == nil || !p.Liquidity.USD.valid {
		return 0
	}
	return p.Liquidity.USD.v
}

func (p *Pair) volume24h() *float64 {
	for _, k := range []string{"h24", "24h", "day"} {
		if v, ok := p.Volume[k]; ok {
			return &v
		}
	}
	return nil
}

// BestPair returns the pair with the highest USD liquidity; ties keep the
// earlier pair.
func BestPair(pairs []Pair) *Pair {
	if len(pairs) == 0 {
		return nil
	}
	best := &pairs[0]
	for i := 1; i < len(pairs); i++ {
		if pairs[i].liquidityUSD() > best.liquidityUSD() {
			best = &pairs[i]
		}
	}
	return best
}

// DexScreener is a thin client for the token pairs endpoint.
type DexScreener struct {
	client  *resty.Client
	baseURL string
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewDexScreener creates a client. A nil client gets the package default.
func NewDexScreener(baseURL string, client *resty.Client, m *metrics.Collector, logger *zap.Logger) *DexScreener {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &DexScreener{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: m,
		logger:  logger.Named("dexscreener"),
	}
}

// TokenPairs получает все пары токена в сети Solana
func (d *DexScreener) TokenPairs(ctx context.Context, mint string) ([]Pair, error) {
	url := fmt.Sprintf("%s/tokens/v1/%s/%s", d.baseURL, solanaChain, mint)

	var pairs []Pair
	if err := getJSON(ctx, d.client, d.metrics, "dexscreener", url, nil, &pairs); err != nil {
		return nil, fmt.Errorf("failed to get token pairs: %w", err)
	}
	return pairs, nil
}

// SolPricer resolves the SOL/USD rate.
type SolPricer interface {
	SolUsd(ctx context.Context) (float64, bool)
}

// StatsService resolves market stats of a routed mint.
type StatsService struct {
	dex    *DexScreener
	sol    SolPricer
	cache  *TTLCache[*domain.Stats]
	logger *zap.Logger
}

// NewStatsService creates the stats service. sol may be nil, in which case
// priceSol is only taken from priceNative.
func NewStatsService(dex *DexScreener, sol SolPricer, logger *zap.Logger) *StatsService {
	return &StatsService{
		dex:    dex,
		sol:    sol,
		cache:  NewTTLCache[*domain.Stats](DefaultCacheSize, StatsTTL),
		logger: logger.Named("stats"),
	}
}

// GetStats returns stats of the most liquid pair, or nil when the mint has
// no pair or the provider failed. Both outcomes are cached for StatsTTL.
func (s *StatsService) GetStats(ctx context.Context, mint string) *domain.Stats {
	stats, _ := s.cache.GetOrLoad(ctx, mint, func(ctx context.Context) (*domain.Stats, error) {
		pairs, err := s.dex.TokenPairs(ctx, mint)
		if err != nil {
			s.logger.Debug("Stats lookup failed", zap.String("mint", mint), zap.Error(err))
			return nil, nil
		}
		best := BestPair(pairs)
		if best == nil {
			return nil, nil
		}
		return s.fromPair(ctx, best), nil
	})
	return stats
}

func (s *StatsService) fromPair(ctx context.Context, p *Pair) *domain.Stats {
	stats := &domain.Stats{
		DexID:       p.DexID,
		PairAddress: p.PairAddress,
		PriceUsd:    p.PriceUsd.Ptr(),
		PriceSol:    p.PriceNative.Ptr(),
		Volume24h:   p.volume24h(),
		Fdv:         p.Fdv.Ptr(),
		MarketCap:   p.MarketCap.Ptr(),
		Source:      "dexscreener",
	}
	if p.Liquidity != nil {
		stats.LiquidityUsd = p.Liquidity.USD.Ptr()
	}

	// priceNative отсутствует: пересчитываем из priceUsd через курс SOL
	if stats.PriceSol == nil && stats.PriceUsd != nil && s.sol != nil {
		if solUsd, ok := s.sol.SolUsd(ctx); ok && solUsd > 0 {
			v := *stats.PriceUsd / solUsd
			stats.PriceSol = &v
		}
	}
	return stats
}
