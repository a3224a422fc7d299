package model

// TokenInfo captures ERC20 metadata for the tracked token. Immutable once a
// chat finishes setup.
type TokenInfo struct {
	Address     string `json:"address"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"total_supply"`
}

// MediaKind enumerates Telegram media types for alert attachments.
type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaAnimation MediaKind = "animation"
)

// MediaThreshold maps a USD spend level to a media asset.
type MediaThreshold struct {
	ThresholdUsd float64   `json:"threshold_usd"`
	FileID       string    `json:"file_id"`
	Kind         MediaKind `json:"kind"`
}

// AlertSettings holds per-chat alert rendering preferences.
type AlertSettings struct {
	Emoji        string           `json:"emoji,omitempty"`
	EmojiStepUsd float64          `json:"emoji_step_usd,omitempty"`
	MinBuyUsd    float64          `json:"min_buy_usd,omitempty"`
	Thresholds   []MediaThreshold `json:"thresholds,omitempty"`
	WebhookURL   string           `json:"webhook_url,omitempty"`
}

// WatchedChat identifies one Telegram destination tracking one token.
type WatchedChat struct {
	ChatID      int64         `json:"chat_id"`
	ThreadID    int           `json:"thread_id,omitempty"`
	Token       TokenInfo     `json:"token"`
	PoolAddress string        `json:"pool_address"`
	Settings    AlertSettings `json:"settings"`
}

// Eligible reports whether the chat carries enough setup data to be
// monitored. Chats failing this are dropped before subscription.
func (c WatchedChat) Eligible() bool {
	return c.Token.Address != "" && c.PoolAddress != ""
}
