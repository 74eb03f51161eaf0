package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bnb-dashboard/pkg/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://www.okx.com"
	// largest page served by /api/v5/market/candles
	maxCandlesPerPage = 300
)

// quoteCurrencies are the suffixes recognised when turning BNBUSDT into BNB-USDT.
var quoteCurrencies = []string{"USDT", "USDC", "BTC", "ETH"}

// ErrEmptyResponse is returned when OKX answers with code "0" but no rows.
var ErrEmptyResponse = errors.New("okx returned no data")

// OKXClient reads public market data from the OKX V5 REST API.
type OKXClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOKXClient builds a client. An empty baseURL uses the public endpoint and
// a non-empty proxy routes requests through it.
func NewOKXClient(baseURL string, networkConfig types.NetworkConfig) *OKXClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if networkConfig.Proxy != "" {
		proxyURL, err := url.Parse(networkConfig.Proxy)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
			zap.L().Info("✅ HTTP proxy configured", zap.String("proxy", networkConfig.Proxy))
		} else {
			zap.L().Warn("⚠️ invalid proxy address, connecting directly", zap.Error(err))
		}
	}

	return &OKXClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// per-call deadlines come from the caller's context
		httpClient: &http.Client{Transport: transport},
	}
}

// InstrumentID maps an exchange-agnostic symbol (BNBUSDT) to the OKX instrument id (BNB-USDT).
func InstrumentID(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.Contains(s, "-") {
		return s
	}
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return s[:len(s)-len(quote)] + "-" + quote
		}
	}
	return s
}

// Bar maps an interval onto the OKX bar parameter.
func Bar(interval types.Interval) string {
	switch interval.Unit {
	case 'h':
		return fmt.Sprintf("%dH", interval.Value)
	case 'd':
		return fmt.Sprintf("%dD", interval.Value)
	case 'w':
		return fmt.Sprintf("%dW", interval.Value)
	default:
		return fmt.Sprintf("%dm", interval.Value)
	}
}

type apiResponse[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

// Ticker is the subset of the OKX ticker payload the dashboard reads.
type Ticker struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
	Ts     string `json:"ts"`
}

// Ticker returns the latest traded price for symbol.
func (c *OKXClient) Ticker(ctx context.Context, symbol string) (types.PricePoint, error) {
	q := url.Values{}
	q.Set("instId", InstrumentID(symbol))

	var resp apiResponse[Ticker]
	if err := c.get(ctx, "/api/v5/market/ticker", q, &resp); err != nil {
		return types.PricePoint{}, err
	}
	if len(resp.Data) == 0 {
		return types.PricePoint{}, ErrEmptyResponse
	}

	tk := resp.Data[0]
	price, err := decimal.NewFromString(tk.Last)
	if err != nil {
		return types.PricePoint{}, fmt.Errorf("parse last price %q: %w", tk.Last, err)
	}
	if !price.IsPositive() {
		return types.PricePoint{}, fmt.Errorf("non-positive last price %q", tk.Last)
	}

	updated := time.Now()
	if ms, err := strconv.ParseInt(tk.Ts, 10, 64); err == nil {
		updated = time.UnixMilli(ms)
	}

	return types.PricePoint{
		Symbol:     symbol,
		Price:      price.StringFixed(2),
		LastUpdate: updated,
		Source:     types.SourceOKX,
	}, nil
}

// Candles returns up to limit candles for symbol, oldest first. Requests above
// maxCandlesPerPage are paged backwards with the "after" cursor.
func (c *OKXClient) Candles(ctx context.Context, symbol string, interval types.Interval, limit int) ([]types.Candle, error) {
	// newest first, as OKX returns them
	var collected []types.Candle
	after := ""
	for fetched := 0; fetched < limit; {
		size := min(limit-fetched, maxCandlesPerPage)
		rows, err := c.candlePage(ctx, symbol, interval, size, after)
		if err != nil {
			return nil, err
		}

		page := make([]types.Candle, 0, len(rows))
		for _, row := range rows {
			candle, err := parseCandle(row)
			if err != nil {
				zap.L().Warn("skip malformed candle row", zap.String("symbol", symbol), zap.Error(err))
				continue
			}
			page = append(page, candle)
		}
		collected = append(collected, page...)
		fetched += len(rows)

		if len(rows) < size || len(page) == 0 {
			break
		}
		after = strconv.FormatInt(page[len(page)-1].Timestamp, 10)
	}
	if len(collected) == 0 {
		return nil, ErrEmptyResponse
	}

	candles := make([]types.Candle, 0, len(collected))
	for i := len(collected) - 1; i >= 0; i-- {
		candles = append(candles, collected[i])
	}
	return candles, nil
}

func (c *OKXClient) candlePage(ctx context.Context, symbol string, interval types.Interval, size int, after string) ([][]string, error) {
	q := url.Values{}
	q.Set("instId", InstrumentID(symbol))
	q.Set("bar", Bar(interval))
	q.Set("limit", strconv.Itoa(size))
	if after != "" {
		q.Set("after", after)
	}

	var resp apiResponse[[]string]
	if err := c.get(ctx, "/api/v5/market/candles", q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// parseCandle decodes [ts, o, h, l, c, vol, ...].
func parseCandle(row []string) (types.Candle, error) {
	if len(row) < 6 {
		return types.Candle{}, fmt.Errorf("short candle row: %d fields", len(row))
	}

	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("parse timestamp %q: %w", row[0], err)
	}

	values := make([]float64, 5)
	for i := range values {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return types.Candle{}, fmt.Errorf("parse field %d %q: %w", i+1, row[i+1], err)
		}
		values[i] = v
	}

	return types.Candle{
		Timestamp: ts,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}

func (c *OKXClient) get(ctx context.Context, path string, query url.Values, out interface{ errorCode() (string, string) }) error {
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "bnb-dashboard/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	if code, msg := out.errorCode(); code != "0" {
		return fmt.Errorf("okx error code=%s msg=%s", code, msg)
	}
	return nil
}

func (r *apiResponse[T]) errorCode() (string, string) {
	return r.Code, r.Msg
}
