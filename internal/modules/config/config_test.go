package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"signal_bot/internal/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "values_test.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
db:
  dsn: "postgres://u:p@localhost:5432/db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.LockTimeout != 15*time.Second {
		t.Fatalf("LockTimeout=%s, want 15s", cfg.DB.LockTimeout)
	}
	if cfg.Trader.StaleThreshold != 5*time.Minute {
		t.Fatalf("StaleThreshold=%s, want 5m", cfg.Trader.StaleThreshold)
	}
	if cfg.Trader.PollInterval != 10*time.Second || cfg.Source.PollInterval != 10*time.Second {
		t.Fatalf("poll intervals=%s/%s, want 10s", cfg.Trader.PollInterval, cfg.Source.PollInterval)
	}
	if cfg.Trader.SettleDelay != 5*time.Second {
		t.Fatalf("SettleDelay=%s, want 5s", cfg.Trader.SettleDelay)
	}
	if cfg.Trader.MarginMode != models.MarginCross {
		t.Fatalf("MarginMode=%s, want cross", cfg.Trader.MarginMode)
	}
	if cfg.Notional() != 1000 {
		t.Fatalf("Notional=%v, want 1000", cfg.Notional())
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
db:
  dsn: "postgres://u:p@localhost:5432/db"
trader:
  margin_usdt: 50
  leverage: 20
  stale_threshold: 2m
  settle_delay: 0s
telegram:
  chat_id: -1001234
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Trader.MarginUSDT != 50 || cfg.Trader.Leverage != 20 {
		t.Fatalf("margin/leverage=%v/%d", cfg.Trader.MarginUSDT, cfg.Trader.Leverage)
	}
	if cfg.Trader.StaleThreshold != 2*time.Minute {
		t.Fatalf("StaleThreshold=%s, want 2m", cfg.Trader.StaleThreshold)
	}
	if cfg.Trader.SettleDelay != 0 {
		t.Fatalf("SettleDelay=%s, want 0", cfg.Trader.SettleDelay)
	}
	if cfg.Telegram.ChatID != -1001234 {
		t.Fatalf("ChatID=%d", cfg.Telegram.ChatID)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
db:
  dsn: "postgres://file"
`)
	t.Setenv(databaseDSNENV, "postgres://env")
	t.Setenv(coinexAccessIDENV, "id")
	t.Setenv(coinexSecretKeyENV, "secret")
	t.Setenv(chatTelegramENV, "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.DSN != "postgres://env" {
		t.Fatalf("DSN=%q", cfg.DB.DSN)
	}
	if cfg.CoinEx.AccessID != "id" || cfg.CoinEx.SecretKey != "secret" {
		t.Fatalf("coinex creds not overridden")
	}
	if cfg.Telegram.ChatID != 42 {
		t.Fatalf("ChatID=%d, want 42", cfg.Telegram.ChatID)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(databaseDSNENV, "")
	cases := map[string]string{
		"missing dsn":      `trader: {leverage: 10}`,
		"zero leverage":    "db: {dsn: x}\ntrader: {leverage: 0}",
		"bad margin mode":  "db: {dsn: x}\ntrader: {margin_mode: hedge}",
		"negative margin":  "db: {dsn: x}\ntrader: {margin_usdt: -1}",
		"bad log level":    "db: {dsn: x}\nservice: {log_level: loud}",
		"bad stale window": "db: {dsn: x}\ntrader: {stale_threshold: soon}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
