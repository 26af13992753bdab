package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
rpc_http_url: https://api.mainnet-beta.solana.com
rpc_ws_url: wss://api.mainnet-beta.solana.com
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.ShowMintInfo)
	assert.True(t, cfg.CheckRoute)
	assert.Equal(t, DefaultSlippageBps, cfg.SlippageBps)
	assert.Equal(t, DefaultEventsBuffer, cfg.EventsBuffer)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, LogFormatPretty, cfg.LogFormat)
	assert.Equal(t, DefaultDedupTTL, cfg.DedupTTL)
	assert.Equal(t, DefaultDedupSize, cfg.DedupSize)
	assert.Equal(t, DefaultKafkaTopic, cfg.Kafka.Topic)
	assert.Equal(t, JournalFormatJSONL, cfg.JournalFormat)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.ActiveLaunchpads)
}

func TestLoadConfigFileValues(t *testing.T) {
	path := writeConfig(t, `
rpc_http_url: http://localhost:8899
rpc_ws_url: ws://localhost:8900
launchpads: "pump:6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
active_launchpads: [pump]
slippage_bps: 50
dedup_ttl: 90s
dedup_size: 5000
kafka:
  brokers: ["k1:9092", "k2:9092"]
  topic: mints
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"pump"}, cfg.ActiveLaunchpads)
	assert.Equal(t, 50, cfg.SlippageBps)
	assert.Equal(t, 90*time.Second, cfg.DedupTTL)
	assert.Equal(t, 5000, cfg.DedupSize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "mints", cfg.Kafka.Topic)
}

func TestLoadConfigLegacyEnvironment(t *testing.T) {
	t.Setenv("RPC_HTTP_URL", "https://rpc.example.com")
	t.Setenv("RPC_WS_URL", "wss://rpc.example.com")
	t.Setenv("SHOW_MINT_INFO", "false")
	t.Setenv("CHECK_JUP_ROUTE", "false")
	t.Setenv("SLIPPAGE_BPS", "300")
	t.Setenv("EVENTS_BUFFER", "120")
	t.Setenv("MINTWATCH_ACTIVE_LAUNCHPADS", "pump, moonit")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example.com", cfg.RPCHTTPURL)
	assert.False(t, cfg.ShowMintInfo)
	assert.False(t, cfg.CheckRoute)
	assert.Equal(t, 300, cfg.SlippageBps)
	assert.Equal(t, 120, cfg.EventsBuffer)
	assert.Equal(t, []string{"pump", "moonit"}, cfg.ActiveLaunchpads)
}

func TestPrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("RPC_HTTP_URL", "https://legacy.example.com")
	t.Setenv("MINTWATCH_RPC_HTTP_URL", "https://new.example.com")
	t.Setenv("RPC_WS_URL", "wss://rpc.example.com")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com", cfg.RPCHTTPURL)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			RPCHTTPURL:    "https://rpc.example.com",
			RPCWSURL:      "wss://rpc.example.com",
			HTTPAddr:      ":3000",
			LogFormat:     LogFormatPretty,
			SlippageBps:   200,
			MaxInFlight:   1,
			DedupTTL:      time.Minute,
			DedupSize:     1000,
			ActivitySweep: time.Minute,
		}
	}
	require.NoError(t, validateConfig(valid()))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing rpc", func(c *Config) { c.RPCHTTPURL = "" }},
		{"ws scheme on rpc", func(c *Config) { c.RPCHTTPURL = "wss://rpc.example.com" }},
		{"http scheme on ws", func(c *Config) { c.RPCWSURL = "https://rpc.example.com" }},
		{"bad market url", func(c *Config) { c.JupiterURL = "ftp://quote" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"slippage", func(c *Config) { c.SlippageBps = 20_000 }},
		{"inflight", func(c *Config) { c.MaxInFlight = 0 }},
		{"dedup ttl", func(c *Config) { c.DedupTTL = 0 }},
		{"dedup size", func(c *Config) { c.DedupSize = 0 }},
		{"journal format", func(c *Config) { c.JournalPath = "j.log"; c.JournalFormat = "xml" }},
		{"kafka topic", func(c *Config) { c.Kafka = KafkaConfig{Brokers: []string{"k:9092"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
}
