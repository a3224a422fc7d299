package model

import "testing"

func TestWatchedChatEligible(t *testing.T) {
	chat := WatchedChat{
		Token:       TokenInfo{Address: "0xaaaa"},
		PoolAddress: "0xbbbb",
	}
	if !chat.Eligible() {
		t.Fatalf("configured chat must be eligible")
	}

	chat.Token.Address = ""
	if chat.Eligible() {
		t.Fatalf("chat without token must not be eligible")
	}

	chat.Token.Address = "0xaaaa"
	chat.PoolAddress = ""
	if chat.Eligible() {
		t.Fatalf("chat without pool must not be eligible")
	}
}
