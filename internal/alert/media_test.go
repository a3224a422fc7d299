package alert

import (
	"context"
	"errors"
	"testing"

	"buypulse/internal/model"
)

type stubFetcher struct {
	body        []byte
	contentType string
	err         error
	lastURL     string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) ([]byte, string, error) {
	f.lastURL = url
	return f.body, f.contentType, f.err
}

func thresholdFixture() []model.MediaThreshold {
	return []model.MediaThreshold{
		{ThresholdUsd: 0, FileID: "imgA", Kind: model.MediaPhoto},
		{ThresholdUsd: 50, FileID: "imgB", Kind: model.MediaPhoto},
		{ThresholdUsd: 100, FileID: "vidC", Kind: model.MediaVideo},
	}
}

func TestSelectThreshold(t *testing.T) {
	thresholds := thresholdFixture()

	got := SelectThreshold(thresholds, 75)
	if got == nil || got.FileID != "imgB" {
		t.Fatalf("expected imgB at $75, got %+v", got)
	}

	got = SelectThreshold(thresholds, 100)
	if got == nil || got.FileID != "vidC" {
		t.Fatalf("expected vidC at $100, got %+v", got)
	}

	got = SelectThreshold(thresholds, 0)
	if got == nil || got.FileID != "imgA" {
		t.Fatalf("expected imgA at $0, got %+v", got)
	}
}

func TestSelectThresholdMonotonic(t *testing.T) {
	thresholds := thresholdFixture()

	prev := -1.0
	for _, spent := range []float64{0, 10, 50, 75, 100, 1000} {
		winner := SelectThreshold(thresholds, spent)
		if winner == nil {
			t.Fatalf("expected winner at $%v", spent)
		}
		if winner.ThresholdUsd < prev {
			t.Fatalf("winner threshold decreased at $%v: %v < %v", spent, winner.ThresholdUsd, prev)
		}
		prev = winner.ThresholdUsd
	}
}

func TestSelectThresholdNoneQualify(t *testing.T) {
	thresholds := []model.MediaThreshold{{ThresholdUsd: 500, FileID: "big"}}
	if got := SelectThreshold(thresholds, 100); got != nil {
		t.Fatalf("expected nil below every threshold, got %+v", got)
	}
	if got := SelectThreshold(nil, 100); got != nil {
		t.Fatalf("expected nil for empty thresholds, got %+v", got)
	}
}

func TestSelectInlineFileID(t *testing.T) {
	selector := NewSelector(nil, nil)
	chat := model.WatchedChat{Settings: model.AlertSettings{Thresholds: thresholdFixture()}}

	media := selector.Select(context.Background(), chat, 75, "0xabc")
	if media == nil || media.FileID != "imgB" || media.Kind != model.MediaPhoto {
		t.Fatalf("inline media mismatch: %+v", media)
	}
	if len(media.Bytes) != 0 {
		t.Fatalf("inline media must not carry bytes")
	}
}

func TestSelectWebhookMedia(t *testing.T) {
	fetcher := &stubFetcher{body: []byte("frames"), contentType: "video/mp4"}
	selector := NewSelector(fetcher, nil)

	chat := model.WatchedChat{Settings: model.AlertSettings{
		Thresholds: []model.MediaThreshold{{ThresholdUsd: 10}},
		WebhookURL: "https://media.example.com/buy",
	}}

	media := selector.Select(context.Background(), chat, 50, "0xabc")
	if media == nil || media.Kind != model.MediaVideo {
		t.Fatalf("webhook media mismatch: %+v", media)
	}
	if string(media.Bytes) != "frames" {
		t.Fatalf("webhook body mismatch: %q", media.Bytes)
	}
	if fetcher.lastURL != "https://media.example.com/buy/0xabc?" {
		t.Fatalf("webhook url mismatch: %s", fetcher.lastURL)
	}
}

func TestSelectWebhookContentTypes(t *testing.T) {
	chat := model.WatchedChat{Settings: model.AlertSettings{
		Thresholds: []model.MediaThreshold{{ThresholdUsd: 0}},
		WebhookURL: "https://media.example.com/buy",
	}}

	fetcher := &stubFetcher{body: []byte("x"), contentType: "image/GIF"}
	media := NewSelector(fetcher, nil).Select(context.Background(), chat, 50, "0xabc")
	if media == nil || media.Kind != model.MediaAnimation {
		t.Fatalf("gif must map to animation: %+v", media)
	}

	fetcher = &stubFetcher{body: []byte("x"), contentType: "image/png"}
	media = NewSelector(fetcher, nil).Select(context.Background(), chat, 50, "0xabc")
	if media == nil || media.Kind != model.MediaPhoto {
		t.Fatalf("image must map to photo: %+v", media)
	}
}

func TestSelectWebhookFailureFallsBack(t *testing.T) {
	chat := model.WatchedChat{Settings: model.AlertSettings{
		Thresholds: []model.MediaThreshold{{ThresholdUsd: 0}},
		WebhookURL: "https://media.example.com/buy",
	}}

	fetcher := &stubFetcher{err: errors.New("boom")}
	if media := NewSelector(fetcher, nil).Select(context.Background(), chat, 50, "0xabc"); media != nil {
		t.Fatalf("fetch failure must fall back to text, got %+v", media)
	}

	fetcher = &stubFetcher{body: nil, contentType: "image/png"}
	if media := NewSelector(fetcher, nil).Select(context.Background(), chat, 50, "0xabc"); media != nil {
		t.Fatalf("empty body must fall back to text, got %+v", media)
	}

	if media := NewSelector(nil, nil).Select(context.Background(), chat, 50, "0xabc"); media != nil {
		t.Fatalf("nil fetcher must fall back to text, got %+v", media)
	}
}
