package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"buypulse/internal/model"
)

// DecodeSwap converts a raw Swap log into a SwapEvent.
func DecodeSwap(lg types.Log) (model.SwapEvent, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return model.SwapEvent{}, fmt.Errorf("parse pool abi: %w", err)
	}
	event := poolABI.Events["Swap"]

	if len(lg.Topics) == 0 || lg.Topics[0] != event.ID {
		return model.SwapEvent{}, fmt.Errorf("unexpected topic0")
	}
	indexed := indexedArguments(event.Inputs)
	if len(lg.Topics) != len(indexed)+1 {
		return model.SwapEvent{}, fmt.Errorf("expected %d topics, got %d", len(indexed)+1, len(lg.Topics))
	}

	var participants struct {
		Sender    common.Address
		Recipient common.Address
	}
	if err := abi.ParseTopics(&participants, indexed, lg.Topics[1:]); err != nil {
		return model.SwapEvent{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := event.Inputs.NonIndexed().Unpack(lg.Data)
	if err != nil {
		return model.SwapEvent{}, fmt.Errorf("unpack swap: %w", err)
	}
	if len(values) != 5 {
		return model.SwapEvent{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	amount0, err := asBigInt(values[0])
	if err != nil {
		return model.SwapEvent{}, err
	}
	amount1, err := asBigInt(values[1])
	if err != nil {
		return model.SwapEvent{}, err
	}

	return model.SwapEvent{
		Pool:        lg.Address.Hex(),
		Sender:      participants.Sender.Hex(),
		Recipient:   participants.Recipient.Hex(),
		Amount0:     amount0,
		Amount1:     amount1,
		TxHash:      lg.TxHash.Hex(),
		BlockNumber: lg.BlockNumber,
		LogIndex:    lg.Index,
	}, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
