package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"bnb-dashboard/pkg/types"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *OKXClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOKXClient(srv.URL, types.NetworkConfig{})
}

// go test -v --run TestInstrumentID
func TestInstrumentID(t *testing.T) {
	cases := map[string]string{
		"BNBUSDT":  "BNB-USDT",
		"btcusdt":  "BTC-USDT",
		"ETHBTC":   "ETH-BTC",
		"SOLUSDC":  "SOL-USDC",
		"BNB-USDT": "BNB-USDT",
		"USDT":     "USDT",
	}
	for in, want := range cases {
		if got := InstrumentID(in); got != want {
			t.Errorf("InstrumentID(%q) = %q, want %q", in, got, want)
		}
	}
}

// go test -v --run TestBar
func TestBar(t *testing.T) {
	cases := map[string]string{"1h": "1H", "4h": "4H", "1d": "1D", "1w": "1W", "15": "15m", "15m": "15m"}
	for token, want := range cases {
		iv, err := types.ParseInterval(token)
		if err != nil {
			t.Fatal(err)
		}
		if got := Bar(iv); got != want {
			t.Errorf("Bar(%q) = %q, want %q", token, got, want)
		}
	}
}

// go test -v --run TestTicker
func TestTicker(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/market/ticker" || r.URL.Query().Get("instId") != "BNB-USDT" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Write([]byte(`{"code":"0","msg":"","data":[{"instId":"BNB-USDT","last":"585.126","ts":"1714564800000"}]}`))
	})

	p, err := client.Ticker(context.Background(), "BNBUSDT")
	if err != nil {
		t.Fatalf("Ticker returned error: %v", err)
	}
	if p.Price != "585.13" || p.Source != types.SourceOKX || p.Symbol != "BNBUSDT" {
		t.Errorf("unexpected price point %+v", p)
	}
	if p.LastUpdate.UnixMilli() != 1714564800000 {
		t.Errorf("lastUpdate = %v", p.LastUpdate)
	}
}

// go test -v --run TestTickerAPIError
func TestTickerAPIError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"51001","msg":"Instrument ID does not exist","data":[]}`))
	})

	if _, err := client.Ticker(context.Background(), "FOOUSDT"); err == nil {
		t.Fatal("expected error for non-zero code")
	}
}

// go test -v --run TestTickerHTTPStatus
func TestTickerHTTPStatus(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := client.Ticker(context.Background(), "BNBUSDT"); err == nil {
		t.Fatal("expected error for 429")
	}
}

// go test -v --run TestTickerHonoursContext
func TestTickerHonoursContext(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := client.Ticker(ctx, "BNBUSDT"); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Error("request outlived its context")
	}
}

// go test -v --run TestCandles
func TestCandles(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("bar") != "1H" || q.Get("limit") != "3" || q.Get("instId") != "BNB-USDT" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"code":"0","msg":"","data":[
			["1714572000000","582","586","581","585","1200","0","0","1"],
			["1714568400000","580","583","579","582","900","0","0","1"],
			["1714564800000","578","581","577","580","1000","0","0","1"]
		]}`))
	})

	iv, _ := types.ParseInterval("1h")
	candles, err := client.Candles(context.Background(), "BNBUSDT", iv, 3)
	if err != nil {
		t.Fatalf("Candles returned error: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp <= candles[i-1].Timestamp {
			t.Fatalf("candles not ascending: %+v", candles)
		}
	}
	if candles[2].Close != 585 || candles[0].Volume != 1000 {
		t.Errorf("unexpected values %+v", candles)
	}
}

// go test -v --run TestCandlesSkipsMalformedRows
func TestCandlesSkipsMalformedRows(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"0","msg":"","data":[["1714568400000","580"],["1714564800000","578","581","577","580","1000"]]}`))
	})

	iv, _ := types.ParseInterval("1h")
	candles, err := client.Candles(context.Background(), "BNBUSDT", iv, 2)
	if err != nil {
		t.Fatalf("Candles returned error: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected 1 valid candle, got %d", len(candles))
	}
}

// go test -v --run TestCandlesPaging
func TestCandlesPaging(t *testing.T) {
	const newest = int64(1714572000000)
	hour := time.Hour.Milliseconds()

	var limits, cursors []string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limits = append(limits, q.Get("limit"))
		cursors = append(cursors, q.Get("after"))

		size, _ := strconv.Atoi(q.Get("limit"))
		if size > 300 {
			w.Write([]byte(`{"code":"51000","msg":"Parameter limit error","data":[]}`))
			return
		}
		start := newest
		if after := q.Get("after"); after != "" {
			ts, _ := strconv.ParseInt(after, 10, 64)
			start = ts - hour
		}

		rows := make([]string, 0, size)
		for i := 0; i < size; i++ {
			ts := start - int64(i)*hour
			rows = append(rows, fmt.Sprintf(`["%d","1","2","0.5","1.5","10"]`, ts))
		}
		fmt.Fprintf(w, `{"code":"0","msg":"","data":[%s]}`, strings.Join(rows, ","))
	})

	iv, _ := types.ParseInterval("1h")
	candles, err := client.Candles(context.Background(), "BNBUSDT", iv, 450)
	if err != nil {
		t.Fatalf("Candles returned error: %v", err)
	}
	if len(candles) != 450 {
		t.Fatalf("expected 450 candles, got %d", len(candles))
	}
	if len(limits) != 2 || limits[0] != "300" || limits[1] != "150" {
		t.Errorf("page sizes = %v, want [300 150]", limits)
	}
	if cursors[0] != "" || cursors[1] != strconv.FormatInt(newest-299*hour, 10) {
		t.Errorf("cursors = %v", cursors)
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp-candles[i-1].Timestamp != hour {
			t.Fatalf("gap or overlap at %d: %d -> %d", i, candles[i-1].Timestamp, candles[i].Timestamp)
		}
	}
	if candles[len(candles)-1].Timestamp != newest {
		t.Errorf("last candle = %d, want %d", candles[len(candles)-1].Timestamp, newest)
	}
}

// go test -v --run TestCandlesShortHistory
func TestCandlesShortHistory(t *testing.T) {
	calls := 0
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"code":"0","msg":"","data":[["1714568400000","580","583","579","582","900"]]}`))
	})

	iv, _ := types.ParseInterval("1h")
	candles, err := client.Candles(context.Background(), "BNBUSDT", iv, 500)
	if err != nil {
		t.Fatalf("Candles returned error: %v", err)
	}
	if len(candles) != 1 || calls != 1 {
		t.Errorf("candles = %d calls = %d, want 1 and 1", len(candles), calls)
	}
}
