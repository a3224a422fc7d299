package alert

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"buypulse/internal/model"
)

const (
	defaultEmoji   = "🟢"
	defaultStepUsd = 10
)

// EmojiCount returns how many times the chat emoji is repeated for a spend.
// Never less than 1.
func EmojiCount(spentUsd, stepUsd float64) int {
	if stepUsd <= 0 {
		stepUsd = defaultStepUsd
	}
	count := int(math.Floor(spentUsd / stepUsd))
	if count < 1 {
		return 1
	}
	return count
}

// BuyerStatus classifies the buyer. The conditions are sequential overriding
// assignments, not exclusive branches: the last matching one wins, so a
// non-positive resulting balance always reads as a flip.
func BuyerStatus(statsData *model.HoldingStats, balance *big.Int) string {
	heldForDays := 0
	if statsData != nil {
		heldForDays = statsData.HeldForDays
	}

	status := "🌟 New Buyer"
	if heldForDays >= 7 {
		status = "🦾 Iron Hands"
	}
	if heldForDays >= 30 {
		status = "💎 Diamond Hands"
	}
	if balance != nil && balance.Sign() <= 0 {
		status = "⚡ Quick Flip"
	}
	return status
}

// ComposeMessage renders the Markdown alert body. Identical inputs yield
// byte-identical output.
func ComposeMessage(chat model.WatchedChat, event model.BuyEvent) string {
	emoji := chat.Settings.Emoji
	if emoji == "" {
		emoji = defaultEmoji
	}
	emojiLine := strings.Repeat(emoji, EmojiCount(event.SpentUsd, chat.Settings.EmojiStepUsd))

	tokenPriceUsd := event.BasePerToken * event.BaseUsdPrice

	lines := []string{
		fmt.Sprintf("*%s Buy!*", chat.Token.Symbol),
		emojiLine,
		fmt.Sprintf("*Spent:* %s WETH ($%s)", FormatNumber(event.AmountInBase), FormatNumber(event.SpentUsd)),
		fmt.Sprintf("*Received:* %s %s", FormatNumber(event.AmountOutToken), chat.Token.Symbol),
		fmt.Sprintf("*Buyer:* %s", ShortenAddress(event.Buyer, true)),
		fmt.Sprintf("*Buyer Status:* %s", BuyerStatus(event.Stats, event.Balance)),
	}
	if event.Balance != nil && event.Balance.Sign() > 0 {
		lines = append(lines, fmt.Sprintf("*Buyer Position:* %s %s ($%s)",
			FormatNumber(event.FormattedBalance), chat.Token.Symbol, FormatNumber(event.BalanceUsd)))
	}
	lines = append(lines, fmt.Sprintf("*Price:* $%s", FormatNumber(tokenPriceUsd)))
	if totalSupply, err := strconv.ParseFloat(chat.Token.TotalSupply, 64); err == nil {
		lines = append(lines, fmt.Sprintf("*MarketCap:* $%s", FormatNumber(totalSupply*tokenPriceUsd)))
	}
	lines = append(lines,
		fmt.Sprintf("\n[TX](https://basescan.org/tx/%s) | [DEX](https://dexscreener.com/base/%s) | [BUY](https://app.uniswap.org/explore/tokens/base/%s)",
			event.TxHash, chat.Token.Address, chat.Token.Address),
	)

	return strings.Join(lines, "\n")
}
