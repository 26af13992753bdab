// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	RPCHTTPURL       string        `mapstructure:"rpc_http_url"`
	RPCWSURL         string        `mapstructure:"rpc_ws_url"`
	Launchpads       string        `mapstructure:"launchpads"`
	ActiveLaunchpads []string      `mapstructure:"active_launchpads"`
	ShowMintInfo     bool          `mapstructure:"show_mint_info"`
	CheckRoute       bool          `mapstructure:"check_route"`
	SlippageBps      int           `mapstructure:"slippage_bps"`
	EventsBuffer     int           `mapstructure:"events_buffer"`
	SubscriberBuffer int           `mapstructure:"subscriber_buffer"`
	HTTPAddr         string        `mapstructure:"http_addr"`
	DebugLogging     bool          `mapstructure:"debug_logging"`
	LogFormat        string        `mapstructure:"log_format"`
	TxFetchRetries   int           `mapstructure:"tx_fetch_retries"`
	MaxInFlight      int           `mapstructure:"max_inflight"`
	DedupTTL         time.Duration `mapstructure:"dedup_ttl"`
	DedupSize        int           `mapstructure:"dedup_size"`
	ActivitySweep    time.Duration `mapstructure:"activity_sweep"`
	JupiterURL       string        `mapstructure:"jupiter_url"`
	DexScreenerURL   string        `mapstructure:"dexscreener_url"`
	CoinGeckoURL     string        `mapstructure:"coingecko_url"`
	JournalPath      string        `mapstructure:"journal_path"`
	JournalFormat    string        `mapstructure:"journal_format"`
	Kafka            KafkaConfig   `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

const (
	DefaultSlippageBps      = 200
	DefaultEventsBuffer     = 300
	DefaultSubscriberBuffer = 256
	DefaultHTTPAddr         = ":3000"
	DefaultTxFetchRetries   = 3
	DefaultMaxInFlight      = 64
	DefaultDedupTTL         = 10 * time.Minute
	DefaultDedupSize        = 100_000
	DefaultActivitySweep    = time.Minute
	DefaultKafkaTopic       = "mint-events"

	LogFormatPretty = "pretty"
	LogFormatJSON   = "json"

	JournalFormatJSONL = "jsonl"
	JournalFormatCSV   = "csv"

	envPrefix = "MINTWATCH"
)

// legacyEnv maps config keys to the unprefixed variable names older
// deployments use.
var legacyEnv = map[string]string{
	"rpc_http_url":   "RPC_HTTP_URL",
	"rpc_ws_url":     "RPC_WS_URL",
	"launchpads":     "LAUNCHPADS",
	"show_mint_info": "SHOW_MINT_INFO",
	"check_route":    "CHECK_JUP_ROUTE",
	"slippage_bps":   "SLIPPAGE_BPS",
	"events_buffer":  "EVENTS_BUFFER",
}

// LoadConfig reads path (optional when empty) and overlays the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"rpc_http_url":      "",
		"rpc_ws_url":        "",
		"launchpads":        "",
		"active_launchpads": []string{},
		"show_mint_info":    true,
		"check_route":       true,
		"slippage_bps":      DefaultSlippageBps,
		"events_buffer":     DefaultEventsBuffer,
		"subscriber_buffer": DefaultSubscriberBuffer,
		"http_addr":         DefaultHTTPAddr,
		"debug_logging":     false,
		"log_format":        LogFormatPretty,
		"tx_fetch_retries":  DefaultTxFetchRetries,
		"max_inflight":      DefaultMaxInFlight,
		"dedup_ttl":         DefaultDedupTTL,
		"dedup_size":        DefaultDedupSize,
		"activity_sweep":    DefaultActivitySweep,
		"jupiter_url":       "",
		"dexscreener_url":   "",
		"coingecko_url":     "",
		"journal_path":      "",
		"journal_format":    JournalFormatJSONL,
		"kafka.brokers":     []string{},
		"kafka.topic":       DefaultKafkaTopic,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if err := loadEnvironmentVariables(v, defaults); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.ActiveLaunchpads = cleanList(cfg.ActiveLaunchpads)
	cfg.Kafka.Brokers = cleanList(cfg.Kafka.Brokers)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.RPCHTTPURL == "" {
		return errors.New("rpc_http_url is empty")
	}
	if err := validateURLWithCache(cfg.RPCHTTPURL, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	if cfg.RPCWSURL == "" {
		return errors.New("rpc_ws_url is empty")
	}
	if err := validateURLWithCache(cfg.RPCWSURL, "ws"); err != nil {
		return errors.New("invalid WebSocket URL protocol")
	}
	for _, u := range []string{cfg.JupiterURL, cfg.DexScreenerURL, cfg.CoinGeckoURL} {
		if u == "" {
			continue
		}
		if err := validateURLWithCache(u, "http"); err != nil {
			return errors.New("invalid market API URL protocol")
		}
	}
	if cfg.HTTPAddr == "" {
		return errors.New("http_addr is empty")
	}
	if cfg.LogFormat != LogFormatPretty && cfg.LogFormat != LogFormatJSON {
		return errors.New("log_format must be pretty or json")
	}
	if cfg.JournalPath != "" && cfg.JournalFormat != JournalFormatJSONL && cfg.JournalFormat != JournalFormatCSV {
		return errors.New("journal_format must be jsonl or csv")
	}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic == "" {
		return errors.New("kafka.topic is empty")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.SlippageBps < 0 || cfg.SlippageBps > 10_000 {
		return errors.New("invalid slippage_bps")
	}
	if cfg.EventsBuffer < 0 {
		return errors.New("invalid events_buffer")
	}
	if cfg.SubscriberBuffer < 0 {
		return errors.New("invalid subscriber_buffer")
	}
	if cfg.TxFetchRetries < 0 {
		return errors.New("invalid tx_fetch_retries")
	}
	if cfg.MaxInFlight <= 0 {
		return errors.New("invalid max_inflight")
	}
	if cfg.DedupTTL <= 0 {
		return errors.New("invalid dedup_ttl")
	}
	if cfg.DedupSize <= 0 {
		return errors.New("invalid dedup_size")
	}
	if cfg.ActivitySweep <= 0 {
		return errors.New("invalid activity_sweep")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	cacheKey := protocol + "|" + rawURL
	if _, ok := urlCache.Load(cacheKey); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(cacheKey, parsed)
	return nil
}

// loadEnvironmentVariables binds MINTWATCH_<KEY> for every key, plus the
// legacy name where one exists. The prefixed name wins.
func loadEnvironmentVariables(v *viper.Viper, defaults map[string]interface{}) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key := range defaults {
		names := []string{key, envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		if err := v.BindEnv(names...); err != nil {
			return err
		}
	}
	return nil
}

// cleanList splits comma separated items (env values arrive as one string)
// and drops blanks.
func cleanList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if clean := strings.TrimSpace(part); clean != "" {
				out = append(out, clean)
			}
		}
	}
	return out
}
