package monitor

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"buypulse/internal/alert"
	"buypulse/internal/dex"
	"buypulse/internal/model"
)

// ChainClient is the chain surface the monitoring pipeline reads from.
type ChainClient interface {
	dex.ContractCaller
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	TransactionSender(ctx context.Context, txHash common.Hash) (common.Address, error)
}

// StatsProvider answers buyer holding-duration lookups.
type StatsProvider interface {
	Stats(ctx context.Context, buyer, token, pool string, isBaseToken0 bool) (*model.HoldingStats, error)
}

// PriceSource exposes the cached ETH/USD price. 0 signals oracle failure.
type PriceSource interface {
	Current() float64
}

// Dispatcher delivers composed alerts.
type Dispatcher interface {
	SendText(ctx context.Context, chatID int64, threadID int, text string) error
	SendMedia(ctx context.Context, chatID int64, threadID int, media *alert.Media, caption string) error
	LogEvent(message string, fields ...zap.Field)
}

// Journal optionally persists dispatched alerts for restart-safe dedup.
type Journal interface {
	Seen(ctx context.Context, txHash string, logIndex uint) (bool, error)
	Record(ctx context.Context, txHash string, logIndex uint, pool string, chatID int64, spentUsd float64) error
}

const baseTokenDecimals = 18

// Enricher turns a classified buy into a priced event and fans alerts out to
// every chat watching the pool.
type Enricher struct {
	chain      ChainClient
	stats      StatsProvider
	price      PriceSource
	dispatcher Dispatcher
	media      *alert.Selector
	journal    Journal
	logger     *zap.Logger
}

// NewEnricher builds an Enricher. journal may be nil.
func NewEnricher(chain ChainClient, stats StatsProvider, price PriceSource, dispatcher Dispatcher, media *alert.Selector, journal Journal, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		chain:      chain,
		stats:      stats,
		price:      price,
		dispatcher: dispatcher,
		media:      media,
		journal:    journal,
		logger:     logger,
	}
}

// HandleBuy runs the enrichment chain for one buy swap. Each step is
// independently failable; a failure aborts this swap's alerts only.
func (e *Enricher) HandleBuy(ctx context.Context, swap model.SwapEvent, binding model.PoolBinding, chats []model.WatchedChat, amounts *BuyAmounts) error {
	if len(chats) == 0 || amounts == nil {
		return nil
	}

	ethUsd := e.price.Current()
	if ethUsd == 0 {
		return fmt.Errorf("eth/usd price unavailable")
	}

	buyer, err := e.chain.TransactionSender(ctx, common.HexToHash(swap.TxHash))
	if err != nil {
		return fmt.Errorf("resolve sender: %w", err)
	}

	token := chats[0].Token
	balance, err := dex.BalanceOf(ctx, e.chain, common.HexToAddress(token.Address), buyer)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}

	holding, err := e.stats.Stats(ctx, buyer.Hex(), token.Address, swap.Pool, binding.IsBaseToken0)
	if err != nil {
		return fmt.Errorf("holding stats: %w", err)
	}

	amountIn := formatUnits(amounts.Base, baseTokenDecimals)
	amountOut := formatUnits(amounts.Token, token.Decimals)
	if amountOut == 0 {
		return fmt.Errorf("zero token amount")
	}

	basePerToken := amountIn / amountOut
	spentUsd := amountIn * ethUsd
	formattedBalance := formatUnits(balance, token.Decimals)
	balanceUsd := formattedBalance * basePerToken * ethUsd

	event := model.BuyEvent{
		Buyer:            buyer.Hex(),
		Balance:          balance,
		FormattedBalance: formattedBalance,
		AmountInBase:     amountIn,
		AmountOutToken:   amountOut,
		SpentUsd:         spentUsd,
		BalanceUsd:       balanceUsd,
		BasePerToken:     basePerToken,
		BaseUsdPrice:     ethUsd,
		Stats:            holding,
		TxHash:           swap.TxHash,
	}

	for _, chat := range chats {
		if chat.Settings.MinBuyUsd > 0 && spentUsd < chat.Settings.MinBuyUsd {
			continue
		}

		text := alert.ComposeMessage(chat, event)

		var media *alert.Media
		if e.media != nil {
			media = e.media.Select(ctx, chat, spentUsd, swap.TxHash)
		}

		var sendErr error
		if media != nil {
			sendErr = e.dispatcher.SendMedia(ctx, chat.ChatID, chat.ThreadID, media, text)
		} else {
			sendErr = e.dispatcher.SendText(ctx, chat.ChatID, chat.ThreadID, text)
		}
		if sendErr != nil {
			continue
		}

		if e.journal != nil {
			if err := e.journal.Record(ctx, swap.TxHash, swap.LogIndex, swap.Pool, chat.ChatID, spentUsd); err != nil {
				e.logger.Warn("journal record failed",
					zap.String("tx_hash", swap.TxHash),
					zap.Int64("chat_id", chat.ChatID),
					zap.Error(err))
			}
		}
	}

	return nil
}

func formatUnits(value *big.Int, decimals uint8) float64 {
	if value == nil {
		return 0
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	out, _ := new(big.Float).Quo(
		new(big.Float).SetInt(value),
		new(big.Float).SetInt(denom),
	).Float64()
	return out
}
