package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"buypulse/internal/alert"
	"buypulse/internal/chain"
	"buypulse/internal/chatsapi"
	"buypulse/internal/config"
	"buypulse/internal/logging"
	"buypulse/internal/monitor"
	"buypulse/internal/price"
	"buypulse/internal/registry"
	"buypulse/internal/stats"
	"buypulse/internal/storage/postgres"
	"buypulse/internal/telegram"
)

func main() {
	root := &cobra.Command{
		Use:          "buypulse",
		Short:        "Telegram buy alerts for watched ERC-20 pools",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the buy monitor",
		RunE:  runMonitor,
	}

	runCmd.Flags().String("rpc", "", "chain RPC URL")
	runCmd.Flags().String("chats-api", "", "chats store base URL")
	runCmd.Flags().String("stats-url", "", "holding-stats subgraph URL")
	runCmd.Flags().String("reference-pool", "", "USDC/WETH reference pool address")
	runCmd.Flags().String("weth", "", "wrapped native token address")
	runCmd.Flags().String("bot-token", "", "Telegram bot token")
	runCmd.Flags().String("system-bot-token", "", "Telegram system bot token (defaults to bot-token)")
	runCmd.Flags().Int64("system-chat-id", 0, "operational log chat id")
	runCmd.Flags().Int("system-thread-id", 0, "operational log thread id")
	runCmd.Flags().Duration("refresh-interval", 20*time.Second, "chat registry refresh cadence")
	runCmd.Flags().Duration("poll-interval", 5*time.Second, "swap log polling interval")
	runCmd.Flags().Uint64("from-block", 0, "starting block floor, 0 means head")
	runCmd.Flags().Uint64("batch-size", 2000, "max blocks per log fetch during catch-up")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for the alert journal")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.ChatsAPIURL == "" {
		return fmt.Errorf("chats api url is required")
	}
	if cfg.BotToken == "" {
		return fmt.Errorf("bot token is required")
	}
	if !common.IsHexAddress(cfg.ReferencePool) {
		return fmt.Errorf("reference pool address is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	dispatcher, err := telegram.NewDispatcher(cfg.BotToken, cfg.SystemBotToken, cfg.SystemChatID, cfg.SystemThreadID, logger)
	if err != nil {
		return err
	}

	oracle := price.NewOracle(chainClient, common.HexToAddress(cfg.ReferencePool), logger)
	chatsClient := chatsapi.NewClient(cfg.ChatsAPIURL)
	reg := registry.New(chatsClient, oracle, cfg.RefreshInterval, logger, dispatcher)

	statsClient := stats.NewClient(cfg.StatsURL)
	selector := alert.NewSelector(alert.NewHTTPFetcher(), logger)

	var journal monitor.Journal
	if cfg.PostgresDSN != "" {
		pgJournal, err := postgres.NewJournal(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open alert journal: %w", err)
		}
		defer pgJournal.Close()
		journal = pgJournal
	}

	enricher := monitor.NewEnricher(chainClient, statsClient, oracle, dispatcher, selector, journal, logger)

	manager, err := monitor.NewManager(monitor.Config{
		WETHAddress:  cfg.WETHAddress,
		PollInterval: cfg.PollInterval,
		FromBlock:    cfg.FromBlock,
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, reg, oracle, enricher, journal, dispatcher, logger)
	if err != nil {
		return err
	}

	// Populate the snapshot and the price before monitoring starts; a zero
	// price is a fatal precondition for Run.
	reg.Refresh(ctx)
	go reg.Run(ctx)

	logger.Info("buy monitor start",
		zap.String("chats_api", cfg.ChatsAPIURL),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Uint64("from_block", cfg.FromBlock),
		zap.Bool("journal_enabled", journal != nil),
	)

	return manager.Run(ctx)
}
