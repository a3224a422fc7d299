package chatsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"buypulse/internal/model"
)

const chatsPayload = `{
  "data": {
    "-100500": {
      "id": "-100500",
      "threadId": 42,
      "info": {
        "id": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
        "symbol": "DEMO",
        "decimals": "18",
        "totalSupply": "1000000"
      },
      "pools": {"UniswapV3": "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"},
      "settings": {
        "emoji": "🔥",
        "emojiStepAmount": 25,
        "minBuyAmount": 100,
        "thresholds": [{"threshold": 50, "fileId": "imgB", "type": "photo"}],
        "customWebhookUrl": "https://media.example.com/buy"
      }
    },
    "-100100": {
      "id": "-100100",
      "info": {"id": "0xcccccccccccccccccccccccccccccccccccccccc", "symbol": "OTHER", "decimals": "6"},
      "pools": {"UniswapV3": "0xdddddddddddddddddddddddddddddddddddddddd"}
    },
    "-100999": {
      "id": "-100999",
      "info": {"id": "", "symbol": "NOPOOL"},
      "pools": {"UniswapV3": ""}
    },
    "garbage": {
      "id": "not-a-number",
      "info": {"id": "0xeeee", "symbol": "BAD"},
      "pools": {"UniswapV3": "0xffff"}
    }
  }
}`

func TestListWatchedChats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, chatsPayload)
	}))
	defer server.Close()

	chats, err := NewClient(server.URL).ListWatchedChats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(chats) != 2 {
		t.Fatalf("expected 2 eligible chats, got %d: %+v", len(chats), chats)
	}

	// Sorted by chat key: "-100100" before "-100500".
	if chats[0].ChatID != -100100 || chats[1].ChatID != -100500 {
		t.Fatalf("chat order mismatch: %d %d", chats[0].ChatID, chats[1].ChatID)
	}

	chat := chats[1]
	if chat.ThreadID != 42 {
		t.Fatalf("thread id mismatch: %d", chat.ThreadID)
	}
	if chat.Token.Symbol != "DEMO" || chat.Token.Decimals != 18 || chat.Token.TotalSupply != "1000000" {
		t.Fatalf("token info mismatch: %+v", chat.Token)
	}
	if chat.Settings.Emoji != "🔥" || chat.Settings.EmojiStepUsd != 25 || chat.Settings.MinBuyUsd != 100 {
		t.Fatalf("settings mismatch: %+v", chat.Settings)
	}
	if chat.Settings.WebhookURL != "https://media.example.com/buy" {
		t.Fatalf("webhook mismatch: %s", chat.Settings.WebhookURL)
	}
	if len(chat.Settings.Thresholds) != 1 {
		t.Fatalf("thresholds mismatch: %+v", chat.Settings.Thresholds)
	}
	threshold := chat.Settings.Thresholds[0]
	if threshold.ThresholdUsd != 50 || threshold.FileID != "imgB" || threshold.Kind != model.MediaPhoto {
		t.Fatalf("threshold content mismatch: %+v", threshold)
	}

	if chats[0].Token.Decimals != 6 {
		t.Fatalf("decimals mismatch: %d", chats[0].Token.Decimals)
	}
	if chats[0].Settings.Emoji != "" {
		t.Fatalf("missing settings must stay zero: %+v", chats[0].Settings)
	}
}

func TestListWatchedChatsDeterministicOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, chatsPayload)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	first, err := client.ListWatchedChats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := client.ListWatchedChats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first {
		if first[i].ChatID != second[i].ChatID {
			t.Fatalf("order not stable across fetches: %+v != %+v", first, second)
		}
	}
}

func TestListWatchedChatsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).ListWatchedChats(context.Background()); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestToWatchedChatDefaults(t *testing.T) {
	chat, err := toWatchedChat(chatEntry{
		ID:    "123",
		Info:  tokenInfo{ID: "0xaaaa", Symbol: "X"},
		Pools: chatPools{UniswapV3: "0xbbbb"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chat.Token.Decimals != 18 {
		t.Fatalf("decimals must default to 18: %d", chat.Token.Decimals)
	}
}
