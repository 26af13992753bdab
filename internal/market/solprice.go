// internal/market/solprice.go
package market

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/utils/metrics"
)

const (
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3/simple/price"
	// SolPriceTTL is how long a resolved SOL/USD rate is reused.
	SolPriceTTL = 20 * time.Second

	solPriceKey = "solana:usd"
)

var errNoPrice = errors.New("sol price unavailable")

// SolPriceService resolves SOL/USD from CoinGecko with a DexScreener fallback.
type SolPriceService struct {
	client    *resty.Client
	coingecko string
	dex       *DexScreener
	metrics   *metrics.Collector
	cache     *TTLCache[float64]
	logger    *zap.Logger
}

// NewSolPriceService creates the price service. dex may be nil to disable
// the fallback.
func NewSolPriceService(coingeckoURL string, client *resty.Client, dex *DexScreener, m *metrics.Collector, logger *zap.Logger) *SolPriceService {
	if coingeckoURL == "" {
		coingeckoURL = DefaultCoinGeckoURL
	}
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &SolPriceService{
		client:    client,
		coingecko: coingeckoURL,
		dex:       dex,
		metrics:   m,
		cache:     NewTTLCache[float64](1, SolPriceTTL),
		logger:    logger.Named("sol_price"),
	}
}

// SolUsd returns the SOL/USD rate. Only successful lookups are cached.
func (s *SolPriceService) SolUsd(ctx context.Context) (float64, bool) {
	usd, err := s.cache.GetOrLoad(ctx, solPriceKey, s.load)
	if err != nil {
		s.logger.Debug("SOL price unavailable", zap.Error(err))
		return 0, false
	}
	return usd, true
}

func (s *SolPriceService) load(ctx context.Context) (float64, error) {
	usd, err := s.fromCoinGecko(ctx)
	if err == nil {
		return usd, nil
	}
	s.logger.Debug("CoinGecko failed, trying DexScreener", zap.Error(err))

	if s.dex == nil {
		return 0, err
	}
	pairs, dexErr := s.dex.TokenPairs(ctx, NativeSOLMint)
	if dexErr != nil {
		return 0, errors.Join(err, dexErr)
	}
	best := BestPair(pairs)
	if best == nil || !best.PriceUsd.valid {
		return 0, errors.Join(err, errNoPrice)
	}
	return best.PriceUsd.v, nil
}

func (s *SolPriceService) fromCoinGecko(ctx context.Context) (float64, error) {
	var body struct {
		Solana struct {
			USD flexFloat `json:"usd"`
		} `json:"solana"`
	}
	query := map[string]string{"ids": "solana", "vs_currencies": "usd"}
	if err := getJSON(ctx, s.client, s.metrics, "coingecko", s.coingecko, query, &body); err != nil {
		return 0, err
	}
	usd := body.Solana.USD
	if !usd.valid {
		return 0, errNoPrice
	}
	return usd.v, nil
}
