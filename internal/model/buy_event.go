package model

import "math/big"

// HoldingStats describes how long a buyer has held the tracked token, as
// reported by the analytics collaborator.
type HoldingStats struct {
	HeldForDays int  `json:"heldForDays"`
	HasSold     bool `json:"hasSold,omitempty"`
}

// BuyEvent is the fully-priced view of one qualifying buy swap. It exists
// only for the duration of alert composition.
type BuyEvent struct {
	Buyer            string
	Balance          *big.Int
	FormattedBalance float64
	AmountInBase     float64
	AmountOutToken   float64
	SpentUsd         float64
	BalanceUsd       float64
	BasePerToken     float64
	BaseUsdPrice     float64
	Stats            *HoldingStats
	TxHash           string
}
