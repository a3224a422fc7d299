package monitor

import "math/big"

// BuyAmounts holds the sign-stripped magnitudes of a qualifying buy swap.
type BuyAmounts struct {
	Base  *big.Int
	Token *big.Int
}

// ClassifyBuy maps signed swap amounts to an optional buy. A swap is a buy
// iff the non-base signed amount is negative, i.e. the pool is sending the
// tracked token out. Returns nil for sells and degenerate swaps.
func ClassifyBuy(amount0, amount1 *big.Int, isBaseToken0 bool) *BuyAmounts {
	if amount0 == nil || amount1 == nil {
		return nil
	}

	baseAmount, tokenAmount := amount0, amount1
	if !isBaseToken0 {
		baseAmount, tokenAmount = amount1, amount0
	}

	if tokenAmount.Sign() >= 0 {
		return nil
	}
	if baseAmount.Sign() == 0 {
		return nil
	}

	return &BuyAmounts{
		Base:  new(big.Int).Abs(baseAmount),
		Token: new(big.Int).Abs(tokenAmount),
	}
}
