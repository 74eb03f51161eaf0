package types

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInterval is returned for interval tokens that do not describe a positive duration.
var ErrInvalidInterval = errors.New("invalid interval")

// Interval is a parsed candle interval token such as "1h", "4h", "1d", "1w" or "15".
type Interval struct {
	Token    string // normalized (lower case) token
	Unit     byte   // 'm', 'h', 'd' or 'w'
	Value    int
	Duration time.Duration
}

// ParseInterval resolves an interval token. The trailing unit is h, d or w;
// anything else, including a bare number, counts minutes.
func ParseInterval(token string) (Interval, error) {
	tok := strings.ToLower(strings.TrimSpace(token))
	if tok == "" {
		return Interval{}, fmt.Errorf("%w: empty", ErrInvalidInterval)
	}

	unit := tok[len(tok)-1]
	digits := tok
	if unit < '0' || unit > '9' {
		digits = tok[:len(tok)-1]
	} else {
		unit = 'm'
	}

	value, err := strconv.Atoi(digits)
	if err != nil || value <= 0 {
		return Interval{}, fmt.Errorf("%w: %q", ErrInvalidInterval, token)
	}

	var step time.Duration
	switch unit {
	case 'h':
		step = time.Hour
	case 'd':
		step = 24 * time.Hour
	case 'w':
		step = 7 * 24 * time.Hour
	default:
		unit = 'm'
		step = time.Minute
	}
	if int64(value) > math.MaxInt64/int64(step) {
		return Interval{}, fmt.Errorf("%w: %q is too long", ErrInvalidInterval, token)
	}

	return Interval{
		Token:    tok,
		Unit:     unit,
		Value:    value,
		Duration: time.Duration(value) * step,
	}, nil
}

// Millis returns the interval length in milliseconds.
func (i Interval) Millis() int64 {
	return i.Duration.Milliseconds()
}

// Volatility is the per-step price bound used by the synthetic series.
func (i Interval) Volatility() float64 {
	switch i.Token {
	case "1h":
		return 0.005
	case "4h":
		return 0.01
	case "1d":
		return 0.02
	default:
		return 0.04
	}
}

func (i Interval) String() string {
	return i.Token
}
