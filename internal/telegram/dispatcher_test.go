package telegram

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"buypulse/internal/model"
)

func TestMediaEndpoint(t *testing.T) {
	endpoint, field := mediaEndpoint(model.MediaPhoto)
	if endpoint != "sendPhoto" || field != "photo" {
		t.Fatalf("photo endpoint mismatch: %s %s", endpoint, field)
	}

	endpoint, field = mediaEndpoint(model.MediaVideo)
	if endpoint != "sendVideo" || field != "video" {
		t.Fatalf("video endpoint mismatch: %s %s", endpoint, field)
	}

	endpoint, field = mediaEndpoint(model.MediaAnimation)
	if endpoint != "sendAnimation" || field != "animation" {
		t.Fatalf("animation endpoint mismatch: %s %s", endpoint, field)
	}

	endpoint, field = mediaEndpoint(model.MediaKind("mystery"))
	if endpoint != "sendPhoto" || field != "photo" {
		t.Fatalf("unknown kind must fall back to photo: %s %s", endpoint, field)
	}
}

func TestMarkdownEscaper(t *testing.T) {
	got := markdownEscaper.ReplaceAllString("tx_hash [0xabc] (pending)", "\\$1")
	want := "tx\\_hash \\[0xabc\\] \\(pending\\)"
	if got != want {
		t.Fatalf("escape mismatch: %q != %q", got, want)
	}
}

func TestSystemMessageParams(t *testing.T) {
	d := &Dispatcher{systemChatID: -100321, systemThreadID: 7}

	params := d.systemMessageParams("Error watching swap events", []zap.Field{
		zap.String("tx_hash", "0xabc"),
	})

	if params["parse_mode"] != "MarkdownV2" {
		t.Fatalf("parse mode mismatch: %q", params["parse_mode"])
	}
	if params["chat_id"] != "-100321" || params["message_thread_id"] != "7" {
		t.Fatalf("destination mismatch: %+v", params)
	}
	want := "🚨 Error watching swap events\ntx\\_hash\\=0xabc"
	if params["text"] != want {
		t.Fatalf("text mismatch: %q != %q", params["text"], want)
	}
}

func TestRenderFields(t *testing.T) {
	got := renderFields([]zap.Field{
		zap.String("pool", "0xabc"),
		zap.Int64("chat_id", -100),
		zap.Error(errors.New("boom")),
	})
	want := "chat_id=-100 error=boom pool=0xabc"
	if got != want {
		t.Fatalf("fields mismatch: %q != %q", got, want)
	}

	if got := renderFields(nil); got != "" {
		t.Fatalf("empty fields must render empty: %q", got)
	}
}
