package types

import (
	"errors"
	"testing"
	"time"
)

// go test -v --run TestParseInterval
func TestParseInterval(t *testing.T) {
	cases := []struct {
		token      string
		want       time.Duration
		volatility float64
	}{
		{"1h", time.Hour, 0.005},
		{"4h", 4 * time.Hour, 0.01},
		{"1d", 24 * time.Hour, 0.02},
		{"1w", 7 * 24 * time.Hour, 0.04},
		{"15m", 15 * time.Minute, 0.04},
		{"15", 15 * time.Minute, 0.04},
		{"1H", time.Hour, 0.005},
	}

	for _, tc := range cases {
		got, err := ParseInterval(tc.token)
		if err != nil {
			t.Fatalf("ParseInterval(%q) returned error: %v", tc.token, err)
		}
		if got.Duration != tc.want {
			t.Errorf("ParseInterval(%q) = %v, want %v", tc.token, got.Duration, tc.want)
		}
		if got.Volatility() != tc.volatility {
			t.Errorf("ParseInterval(%q).Volatility() = %v, want %v", tc.token, got.Volatility(), tc.volatility)
		}
	}
}

// go test -v --run TestParseIntervalMillis
func TestParseIntervalMillis(t *testing.T) {
	got, err := ParseInterval("1h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Millis() != 3_600_000 {
		t.Errorf("expected 3600000 ms, got %d", got.Millis())
	}
}

// go test -v --run TestParseIntervalInvalid
func TestParseIntervalInvalid(t *testing.T) {
	for _, token := range []string{"", "h", "0h", "-1d", "abc", "1.5h", "20000w", "999999999999h"} {
		if _, err := ParseInterval(token); !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("ParseInterval(%q) error = %v, want ErrInvalidInterval", token, err)
		}
	}
}

// go test -v --run TestParseIntervalLargestWeek
func TestParseIntervalLargestWeek(t *testing.T) {
	got, err := ParseInterval("15000w")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Duration <= 0 {
		t.Errorf("duration wrapped around: %v", got.Duration)
	}
}

// go test -v --run TestParseSignalType
func TestParseSignalType(t *testing.T) {
	got, err := ParseSignalType("buy")
	if err != nil || got != SignalBuy {
		t.Fatalf("ParseSignalType(buy) = %q, %v", got, err)
	}
	if !got.IsDirectional() {
		t.Error("BUY should be directional")
	}
	if SignalNeutral.IsDirectional() {
		t.Error("NEUTRAL should not be directional")
	}
	if _, err := ParseSignalType("HOLD"); err == nil {
		t.Error("expected error for HOLD")
	}
}
