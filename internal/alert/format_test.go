package alert

import "testing"

func TestFormatNumberZero(t *testing.T) {
	if got := FormatNumber(0); got != "0.00" {
		t.Fatalf("zero mismatch: %s", got)
	}
}

func TestFormatNumberLarge(t *testing.T) {
	if got := FormatNumber(1234567.891); got != "1,234,567.89" {
		t.Fatalf("grouping mismatch: %s", got)
	}
	if got := FormatNumber(1000); got != "1,000" {
		t.Fatalf("round value mismatch: %s", got)
	}
	if got := FormatNumber(1.5); got != "1.5" {
		t.Fatalf("trailing zero not trimmed: %s", got)
	}
	if got := FormatNumber(-45000); got != "-45,000" {
		t.Fatalf("negative grouping mismatch: %s", got)
	}
}

func TestFormatNumberSmall(t *testing.T) {
	if got := FormatNumber(0.5); got != "0.5000" {
		t.Fatalf("0.5 mismatch: %s", got)
	}
	if got := FormatNumber(0.000123); got != "0.0001230" {
		t.Fatalf("0.000123 mismatch: %s", got)
	}
	if got := FormatNumber(0.0000004); got != "0.0000004000" {
		t.Fatalf("0.0000004 mismatch: %s", got)
	}
}

func TestShortenAddress(t *testing.T) {
	addr := "0xcccccccccccccccccccccccccccccccccccccccc"

	if got := ShortenAddress(addr, false); got != "0xcccc...cccc" {
		t.Fatalf("shorten mismatch: %s", got)
	}

	want := "[0xcccc...cccc](https://basescan.org/address/" + addr + ")"
	if got := ShortenAddress(addr, true); got != want {
		t.Fatalf("link mismatch: %s", got)
	}

	if got := ShortenAddress("0xabc", false); got != "0xabc" {
		t.Fatalf("short input must pass through: %s", got)
	}
}
