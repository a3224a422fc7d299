package price

import (
	"context"
	"math"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"buypulse/internal/dex"
)

const usdcDecimals = 6

// Oracle tracks the current ETH/USD price read from a USDC/WETH reference
// pool. A stored value of 0 signals an oracle failure and suppresses all USD
// math downstream.
type Oracle struct {
	caller dex.ContractCaller
	pool   common.Address
	logger *zap.Logger

	bits atomic.Uint64
}

// NewOracle builds an Oracle against the given reference pool.
func NewOracle(caller dex.ContractCaller, pool common.Address, logger *zap.Logger) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{caller: caller, pool: pool, logger: logger}
}

// Refresh reads the reference pool and updates the cached price. On failure
// the price is set to 0.
func (o *Oracle) Refresh(ctx context.Context) {
	sqrtPrice, err := dex.Slot0SqrtPriceX96(ctx, o.caller, o.pool)
	if err != nil {
		o.logger.Warn("eth/usd price fetch failed", zap.Error(err))
		o.bits.Store(math.Float64bits(0))
		return
	}
	o.bits.Store(math.Float64bits(FromSqrtPriceX96(sqrtPrice)))
}

// Current returns the last fetched ETH/USD price, 0 when unavailable.
func (o *Oracle) Current() float64 {
	return math.Float64frombits(o.bits.Load())
}

// FromSqrtPriceX96 converts a USDC/WETH pool sqrt price into ETH/USD.
func FromSqrtPriceX96(sqrtPriceX96 *big.Int) float64 {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() == 0 {
		return 0
	}
	ratio, _ := new(big.Float).SetInt(sqrtPriceX96).Float64()
	ratio /= math.Pow(2, 96)
	return ratio * ratio * math.Pow(10, usdcDecimals*2)
}
