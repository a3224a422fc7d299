package model

import "math/big"

// PoolBinding tags a pool with which side of it is the reference (wrapped
// native) asset. Recomputed whenever the pool set changes.
type PoolBinding struct {
	Pool         string
	IsBaseToken0 bool
}

// SwapEvent is the decoded V3 Swap log payload. Consumed once, never stored.
type SwapEvent struct {
	Pool        string
	Sender      string
	Recipient   string
	Amount0     *big.Int
	Amount1     *big.Int
	TxHash      string
	BlockNumber uint64
	LogIndex    uint
}
