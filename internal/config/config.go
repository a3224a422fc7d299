package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL          string
	ChatsAPIURL     string
	StatsURL        string
	ReferencePool   string
	WETHAddress     string
	BotToken        string
	SystemBotToken  string
	SystemChatID    int64
	SystemThreadID  int
	RefreshInterval time.Duration
	PollInterval    time.Duration
	FromBlock       uint64
	BatchSize       uint64
	MaxRetries      int
	RetryBackoff    time.Duration
	PostgresDSN     string
	LogLevel        string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BUYPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("refresh-interval", 20*time.Second)
	v.SetDefault("poll-interval", 5*time.Second)
	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		ChatsAPIURL:     v.GetString("chats-api"),
		StatsURL:        v.GetString("stats-url"),
		ReferencePool:   v.GetString("reference-pool"),
		WETHAddress:     v.GetString("weth"),
		BotToken:        v.GetString("bot-token"),
		SystemBotToken:  v.GetString("system-bot-token"),
		SystemChatID:    v.GetInt64("system-chat-id"),
		SystemThreadID:  v.GetInt("system-thread-id"),
		RefreshInterval: v.GetDuration("refresh-interval"),
		PollInterval:    v.GetDuration("poll-interval"),
		FromBlock:       v.GetUint64("from-block"),
		BatchSize:       v.GetUint64("batch-size"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		PostgresDSN:     v.GetString("pg-dsn"),
		LogLevel:        v.GetString("log-level"),
	}

	if cfg.SystemBotToken == "" {
		cfg.SystemBotToken = cfg.BotToken
	}

	return cfg, nil
}
