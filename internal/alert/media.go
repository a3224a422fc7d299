package alert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"buypulse/internal/model"
)

// Media is the resolved alert attachment: an inline Telegram file reference
// or webhook-fetched bytes. A nil *Media means text-only.
type Media struct {
	Kind   model.MediaKind
	FileID string
	Bytes  []byte
}

// Fetcher retrieves webhook media, returning the body and content type.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Selector resolves the media attachment for a buy alert.
type Selector struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewSelector builds a Selector. A nil fetcher disables webhook media.
func NewSelector(fetcher Fetcher, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{fetcher: fetcher, logger: logger}
}

// SelectThreshold picks the media entry with the largest threshold not above
// spentUsd, or nil when no entry qualifies.
func SelectThreshold(thresholds []model.MediaThreshold, spentUsd float64) *model.MediaThreshold {
	var winner *model.MediaThreshold
	for i := range thresholds {
		entry := &thresholds[i]
		if entry.ThresholdUsd > spentUsd {
			continue
		}
		if winner == nil || entry.ThresholdUsd > winner.ThresholdUsd {
			winner = entry
		}
	}
	return winner
}

// Select resolves the attachment for a spend. Webhook failures fall back to
// text-only, never to an error.
func (s *Selector) Select(ctx context.Context, chat model.WatchedChat, spentUsd float64, txHash string) *Media {
	winner := SelectThreshold(chat.Settings.Thresholds, spentUsd)
	if winner == nil {
		return nil
	}

	if winner.FileID != "" {
		return &Media{Kind: winner.Kind, FileID: winner.FileID}
	}

	if chat.Settings.WebhookURL == "" || s.fetcher == nil || txHash == "" {
		return nil
	}

	url := fmt.Sprintf("%s/%s?", chat.Settings.WebhookURL, txHash)
	body, contentType, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.logger.Warn("webhook media fetch failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	if len(body) == 0 {
		s.logger.Warn("webhook media response empty", zap.String("url", url))
		return nil
	}

	kind := model.MediaPhoto
	contentType = strings.ToLower(contentType)
	switch {
	case strings.Contains(contentType, "video"):
		kind = model.MediaVideo
	case strings.Contains(contentType, "gif"):
		kind = model.MediaAnimation
	}

	return &Media{Kind: kind, Bytes: body}
}

// HTTPFetcher fetches webhook media over HTTP with a bounded timeout.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: 15 * time.Second}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("http status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}
