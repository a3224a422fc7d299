package chatsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"buypulse/internal/model"
)

// Client fetches watched-chat configurations from the chats store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient builds a chats-store client for the given base URL.
func NewClient(baseURL string) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ChatsAPI",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    breaker,
	}
}

type chatsResponse struct {
	Data map[string]chatEntry `json:"data"`
}

type chatEntry struct {
	ID       string        `json:"id"`
	ThreadID int           `json:"threadId"`
	Info     tokenInfo     `json:"info"`
	Pools    chatPools     `json:"pools"`
	Settings *chatSettings `json:"settings"`
}

type tokenInfo struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Decimals    string `json:"decimals"`
	TotalSupply string `json:"totalSupply"`
}

type chatPools struct {
	UniswapV3 string `json:"UniswapV3"`
}

type chatSettings struct {
	Emoji            string          `json:"emoji"`
	EmojiStepAmount  float64         `json:"emojiStepAmount"`
	MinBuyAmount     float64         `json:"minBuyAmount"`
	Thresholds       []chatThreshold `json:"thresholds"`
	CustomWebhookURL string          `json:"customWebhookUrl"`
}

type chatThreshold struct {
	Threshold float64 `json:"threshold"`
	FileID    string  `json:"fileId"`
	Type      string  `json:"type"`
}

// ListWatchedChats fetches the full chat set. Entries missing a token address
// or a V3 pool are dropped. The result is ordered by chat key so callers can
// compare successive snapshots structurally.
func (c *Client) ListWatchedChats(ctx context.Context) ([]model.WatchedChat, error) {
	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, c.baseURL)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch chats: %w", err)
	}

	var decoded chatsResponse
	if err := json.Unmarshal(body.([]byte), &decoded); err != nil {
		return nil, fmt.Errorf("decode chats: %w", err)
	}

	keys := make([]string, 0, len(decoded.Data))
	for key := range decoded.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	chats := make([]model.WatchedChat, 0, len(keys))
	for _, key := range keys {
		chat, err := toWatchedChat(decoded.Data[key])
		if err != nil {
			continue
		}
		if !chat.Eligible() {
			continue
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}
	return body, nil
}

func toWatchedChat(entry chatEntry) (model.WatchedChat, error) {
	chatID, err := strconv.ParseInt(entry.ID, 10, 64)
	if err != nil {
		return model.WatchedChat{}, fmt.Errorf("parse chat id %q: %w", entry.ID, err)
	}

	var decimals uint8 = 18
	if entry.Info.Decimals != "" {
		parsed, err := strconv.ParseUint(entry.Info.Decimals, 10, 8)
		if err != nil {
			return model.WatchedChat{}, fmt.Errorf("parse decimals %q: %w", entry.Info.Decimals, err)
		}
		decimals = uint8(parsed)
	}

	chat := model.WatchedChat{
		ChatID:   chatID,
		ThreadID: entry.ThreadID,
		Token: model.TokenInfo{
			Address:     entry.Info.ID,
			Symbol:      entry.Info.Symbol,
			Decimals:    decimals,
			TotalSupply: entry.Info.TotalSupply,
		},
		PoolAddress: entry.Pools.UniswapV3,
	}

	if entry.Settings != nil {
		chat.Settings = model.AlertSettings{
			Emoji:        entry.Settings.Emoji,
			EmojiStepUsd: entry.Settings.EmojiStepAmount,
			MinBuyUsd:    entry.Settings.MinBuyAmount,
			WebhookURL:   entry.Settings.CustomWebhookURL,
		}
		for _, t := range entry.Settings.Thresholds {
			chat.Settings.Thresholds = append(chat.Settings.Thresholds, model.MediaThreshold{
				ThresholdUsd: t.Threshold,
				FileID:       t.FileID,
				Kind:         model.MediaKind(t.Type),
			})
		}
	}

	return chat, nil
}
