package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RefreshInterval != 20*time.Second {
		t.Fatalf("refresh interval default mismatch: %v", cfg.RefreshInterval)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("poll interval default mismatch: %v", cfg.PollInterval)
	}
	if cfg.BatchSize != 2000 {
		t.Fatalf("batch size default mismatch: %d", cfg.BatchSize)
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("max retries default mismatch: %d", cfg.MaxRetries)
	}
	if cfg.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("retry backoff default mismatch: %v", cfg.RetryBackoff)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level default mismatch: %s", cfg.LogLevel)
	}
}

func TestLoadFromFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("bot-token", "", "")
	flags.Duration("poll-interval", 5*time.Second, "")
	if err := flags.Parse([]string{"--rpc=https://rpc.example.com", "--bot-token=abc", "--poll-interval=2s"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RPCURL != "https://rpc.example.com" {
		t.Fatalf("rpc mismatch: %s", cfg.RPCURL)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("poll interval mismatch: %v", cfg.PollInterval)
	}
	if cfg.SystemBotToken != "abc" {
		t.Fatalf("system token must default to bot token: %s", cfg.SystemBotToken)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BUYPULSE_STATS_URL", "https://graph.example.com")
	t.Setenv("BUYPULSE_SYSTEM_CHAT_ID", "-100321")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StatsURL != "https://graph.example.com" {
		t.Fatalf("stats url env mismatch: %s", cfg.StatsURL)
	}
	if cfg.SystemChatID != -100321 {
		t.Fatalf("system chat id env mismatch: %d", cfg.SystemChatID)
	}
}
