package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"buypulse/internal/dex"
	"buypulse/internal/model"
)

// defaultWETH is the wrapped native token on Base.
const defaultWETH = "0x4200000000000000000000000000000000000006"

// seenLimit bounds the in-memory dedup index.
const seenLimit = 16384

// ChatSource exposes the registry's current snapshot and change signal.
type ChatSource interface {
	Snapshot() []model.WatchedChat
	Rebuilds() <-chan struct{}
}

// EventLogger posts operational messages to the system channel.
type EventLogger interface {
	LogEvent(message string, fields ...zap.Field)
}

// Config holds runtime settings for the subscription manager.
type Config struct {
	WETHAddress  string
	PollInterval time.Duration
	FromBlock    uint64
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// Manager owns the single active swap subscription across the current pool
// set and rebuilds it whenever the set changes.
type Manager struct {
	cfg       Config
	chain     ChainClient
	chats     ChatSource
	price     PriceSource
	enricher  *Enricher
	journal   Journal
	ops       EventLogger
	logger    *zap.Logger
	weth      common.Address
	swapTopic common.Hash

	lastBlock uint64
	seen      map[string]struct{}
}

// NewManager builds a Manager. journal and ops may be nil.
func NewManager(cfg Config, chain ChainClient, chats ChatSource, price PriceSource, enricher *Enricher, journal Journal, ops EventLogger, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 2000
	}

	weth := cfg.WETHAddress
	if weth == "" {
		weth = defaultWETH
	}
	if !common.IsHexAddress(weth) {
		return nil, fmt.Errorf("invalid weth address: %s", weth)
	}

	swapTopic, err := dex.SwapTopic()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	return &Manager{
		cfg:       cfg,
		chain:     chain,
		chats:     chats,
		price:     price,
		enricher:  enricher,
		journal:   journal,
		ops:       ops,
		logger:    logger,
		weth:      common.HexToAddress(weth),
		swapTopic: swapTopic,
		seen:      make(map[string]struct{}),
	}, nil
}

// Run drives the subscription until the context ends. Monitoring refuses to
// start while the ETH/USD price is unavailable, since all USD math depends
// on it.
func (m *Manager) Run(ctx context.Context) error {
	if m.price.Current() == 0 {
		return fmt.Errorf("eth/usd price is 0, refusing to start monitoring")
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		bindings, chatIndex, err := m.buildBindings(ctx)
		if err != nil {
			m.logger.Warn("subscription build failed", zap.Error(err))
			m.logEvent("Error building swap subscription", zap.Error(err))
			if !m.waitForChange(ctx, m.cfg.PollInterval) {
				return nil
			}
			continue
		}

		if len(bindings) == 0 {
			m.logger.Info("no pools to watch, idle")
			select {
			case <-ctx.Done():
				return nil
			case <-m.chats.Rebuilds():
				continue
			}
		}

		m.logger.Info("subscription active", zap.Int("pools", len(bindings)))
		if !m.poll(ctx, bindings, chatIndex) {
			return nil
		}
		m.logger.Info("pool set changed, rebuilding subscription")
	}
}

// buildBindings reads pool token ordering for each distinct watched pool.
// Chats with malformed pool addresses are excluded from the watch set.
func (m *Manager) buildBindings(ctx context.Context) (map[common.Address]model.PoolBinding, map[common.Address][]model.WatchedChat, error) {
	bindings := make(map[common.Address]model.PoolBinding)
	chatIndex := make(map[common.Address][]model.WatchedChat)

	for _, chat := range m.chats.Snapshot() {
		if !chat.Eligible() || !common.IsHexAddress(chat.PoolAddress) {
			continue
		}
		pool := common.HexToAddress(chat.PoolAddress)
		if pool == (common.Address{}) {
			continue
		}

		if _, ok := bindings[pool]; !ok {
			var token0 common.Address
			err := withRetry(ctx, m.cfg.MaxRetries, m.cfg.RetryBackoff, func(ctx context.Context) error {
				var err error
				token0, err = dex.Token0(ctx, m.chain, pool)
				return err
			})
			if err != nil {
				return nil, nil, fmt.Errorf("read token0 for %s: %w", pool.Hex(), err)
			}
			bindings[pool] = model.PoolBinding{
				Pool:         pool.Hex(),
				IsBaseToken0: token0 == m.weth,
			}
		}
		chatIndex[pool] = append(chatIndex[pool], chat)
	}

	return bindings, chatIndex, nil
}

// poll runs the active subscription. Returns false when the context ended,
// true when the pool set changed and the caller should rebuild.
func (m *Manager) poll(ctx context.Context, bindings map[common.Address]model.PoolBinding, chatIndex map[common.Address][]model.WatchedChat) bool {
	addresses := make([]common.Address, 0, len(bindings))
	for pool := range bindings {
		addresses = append(addresses, pool)
	}

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-m.chats.Rebuilds():
			return true
		case <-ticker.C:
			if err := m.pollOnce(ctx, addresses, bindings, chatIndex); err != nil {
				m.logger.Warn("swap poll failed", zap.Error(err))
				m.logEvent("Error watching swap events", zap.Error(err))
			}
		}
	}
}

func (m *Manager) pollOnce(ctx context.Context, addresses []common.Address, bindings map[common.Address]model.PoolBinding, chatIndex map[common.Address][]model.WatchedChat) error {
	var latest uint64
	err := withRetry(ctx, m.cfg.MaxRetries, m.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		latest, err = m.chain.LatestBlockNumber(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}

	if m.lastBlock == 0 {
		if m.cfg.FromBlock > 0 {
			m.lastBlock = m.cfg.FromBlock - 1
		} else {
			// No configured floor: start at the head instead of replaying
			// history.
			m.lastBlock = latest
			return nil
		}
	}
	if latest <= m.lastBlock {
		return nil
	}

	ranges, err := SplitRange(m.lastBlock+1, latest, m.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("split range %d-%d: %w", m.lastBlock+1, latest, err)
	}

	// The cursor advances per completed chunk so a mid-catch-up failure
	// keeps the progress made so far.
	for _, blockRange := range ranges {
		var logs []types.Log
		err = withRetry(ctx, m.cfg.MaxRetries, m.cfg.RetryBackoff, func(ctx context.Context) error {
			var err error
			logs, err = m.chain.FilterLogs(ctx, blockRange.From, blockRange.To, addresses, []common.Hash{m.swapTopic})
			return err
		})
		if err != nil {
			return fmt.Errorf("filter logs %d-%d: %w", blockRange.From, blockRange.To, err)
		}
		m.lastBlock = blockRange.To

		for _, lg := range logs {
			if lg.Removed {
				continue
			}
			m.handleLog(ctx, lg, bindings, chatIndex)
		}
	}
	return nil
}

// handleLog processes one swap log. Failures are logged with transaction and
// pool context and never abort the batch.
func (m *Manager) handleLog(ctx context.Context, lg types.Log, bindings map[common.Address]model.PoolBinding, chatIndex map[common.Address][]model.WatchedChat) {
	if m.isDuplicate(ctx, lg) {
		return
	}

	binding, ok := bindings[lg.Address]
	if !ok {
		return
	}

	swap, err := dex.DecodeSwap(lg)
	if err != nil {
		m.logger.Warn("swap decode failed",
			zap.String("tx_hash", lg.TxHash.Hex()),
			zap.String("pool", lg.Address.Hex()),
			zap.Error(err))
		m.logEvent("Error processing buy event", zap.String("tx_hash", lg.TxHash.Hex()), zap.Error(err))
		return
	}

	amounts := ClassifyBuy(swap.Amount0, swap.Amount1, binding.IsBaseToken0)
	if amounts == nil {
		return
	}

	if err := m.enricher.HandleBuy(ctx, swap, binding, chatIndex[lg.Address], amounts); err != nil {
		m.logger.Warn("buy event handling failed",
			zap.String("tx_hash", swap.TxHash),
			zap.String("pool", swap.Pool),
			zap.Error(err))
		m.logEvent("Error handling buy event",
			zap.String("tx_hash", swap.TxHash),
			zap.String("pool", swap.Pool),
			zap.Error(err))
	}
}

func (m *Manager) isDuplicate(ctx context.Context, lg types.Log) bool {
	key := strings.ToLower(fmt.Sprintf("%s:%d", lg.TxHash.Hex(), lg.Index))
	if _, ok := m.seen[key]; ok {
		return true
	}
	if len(m.seen) >= seenLimit {
		m.seen = make(map[string]struct{})
	}
	m.seen[key] = struct{}{}

	if m.journal != nil {
		if seen, err := m.journal.Seen(ctx, lg.TxHash.Hex(), lg.Index); err == nil && seen {
			return true
		}
	}
	return false
}

func (m *Manager) waitForChange(ctx context.Context, wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-m.chats.Rebuilds():
		return true
	case <-timer.C:
		return true
	}
}

func (m *Manager) logEvent(message string, fields ...zap.Field) {
	if m.ops != nil {
		m.ops.LogEvent(message, fields...)
	}
}
