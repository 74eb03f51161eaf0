package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
	"time"

	"bnb-dashboard/pkg/types"

	"go.uber.org/zap"
)

const defaultTelegramAPI = "https://api.telegram.org"

// Interface delivers a pre-formatted message.
type Interface interface {
	Notify(ctx context.Context, message string) error
}

// New picks the Telegram notifier when a token is configured, the log notifier otherwise.
func New(cfg types.TelegramConfig) Interface {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		zap.L().Info("🔧 Telegram not configured, notifications go to the log")
		return NewLogNotifier()
	}
	zap.L().Info("✅ Telegram notifications enabled", zap.String("chat_id", cfg.ChatID))
	return NewTelegramNotifier(cfg)
}

// LogNotifier writes notifications to the application log.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (ln *LogNotifier) Notify(_ context.Context, message string) error {
	zap.L().Info("📣 notification", zap.String("message", message))
	return nil
}

// TelegramNotifier posts messages through the Telegram Bot API.
type TelegramNotifier struct {
	apiURL     string
	botToken   string
	chatID     string
	httpClient *http.Client
	fallback   *LogNotifier
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func NewTelegramNotifier(cfg types.TelegramConfig) *TelegramNotifier {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultTelegramAPI
	}
	return &TelegramNotifier{
		apiURL:     strings.TrimRight(apiURL, "/"),
		botToken:   cfg.BotToken,
		chatID:     cfg.ChatID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		fallback:   NewLogNotifier(),
	}
}

// Notify sends message. On failure the message is logged instead and nil is returned.
func (tn *TelegramNotifier) Notify(ctx context.Context, message string) error {
	if err := tn.send(ctx, message); err != nil {
		zap.L().Warn("❌ Telegram send failed, logging instead", zap.Error(err))
		return tn.fallback.Notify(ctx, message)
	}
	zap.L().Debug("✅ Telegram message sent")
	return nil
}

func (tn *TelegramNotifier) send(ctx context.Context, message string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    tn.chatID,
		Text:      message,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", tn.apiURL, tn.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tn.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post sendMessage: %w", err)
	}
	defer resp.Body.Close()

	var out sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		return fmt.Errorf("telegram api status %d: %s", resp.StatusCode, out.Description)
	}
	return nil
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	case d < 24*time.Hour:
		return fmt.Sprintf("%.1fh", d.Hours())
	default:
		return fmt.Sprintf("%.1fd", d.Hours()/24)
	}
}

func arrow(change float64) string {
	if change < 0 {
		return "📉"
	}
	return "📈"
}

// FormatAlert renders one price alert as Telegram HTML.
func FormatAlert(alert *types.AlertData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s 🚨 <b>Price alert: %s</b>\n\n", arrow(alert.ChangePercent), html.EscapeString(alert.Symbol))
	fmt.Fprintf(&b, "<b>Price:</b> $%.4f\n", alert.CurrentPrice)
	fmt.Fprintf(&b, "<b>%s ago:</b> $%.4f\n", formatDuration(alert.MonitorPeriod), alert.PastPrice)
	fmt.Fprintf(&b, "<b>Change:</b> %+.2f%%\n", alert.ChangePercent)
	fmt.Fprintf(&b, "\n<i>%s</i>", alert.AlertTime.Format("2006-01-02 15:04:05"))
	return b.String()
}

// FormatBatchAlerts renders several alerts in one message, risers first,
// each side ordered by the size of the move.
func FormatBatchAlerts(alerts []*types.AlertData) string {
	if len(alerts) == 1 {
		return FormatAlert(alerts[0])
	}

	var up, down []*types.AlertData
	for _, a := range alerts {
		if a.ChangePercent > 0 {
			up = append(up, a)
		} else {
			down = append(down, a)
		}
	}
	sort.Slice(up, func(i, j int) bool { return up[i].ChangePercent > up[j].ChangePercent })
	sort.Slice(down, func(i, j int) bool { return down[i].ChangePercent < down[j].ChangePercent })

	var b strings.Builder
	fmt.Fprintf(&b, "🚨 <b>%d price alerts</b>\n", len(alerts))
	fmt.Fprintf(&b, "📈 up: %d  📉 down: %d\n", len(up), len(down))

	section := func(title string, list []*types.AlertData) {
		if len(list) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n<b>%s</b>\n", title)
		for i, a := range list {
			fmt.Fprintf(&b, "%d. %s %s: $%.4f (%+.2f%%)\n", i+1, arrow(a.ChangePercent), html.EscapeString(a.Symbol), a.CurrentPrice, a.ChangePercent)
		}
	}
	section("Rising", up)
	section("Falling", down)

	if len(alerts) > 0 {
		fmt.Fprintf(&b, "\n<i>%s</i>", alerts[0].AlertTime.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

// FormatOrder renders a simulated manual order.
func FormatOrder(o types.OrderDetails) string {
	return fmt.Sprintf("🔄 Manual %s order executed: %s @ $%.2f (notional $%s, id %s)",
		html.EscapeString(o.Type), formatAmount(o.Amount), o.Price, o.Notional, o.OrderID)
}

// FormatText escapes free-form text for the HTML parse mode.
func FormatText(text string) string {
	return html.EscapeString(text)
}

// FormatAutoTrading renders an auto-trading toggle.
func FormatAutoTrading(enabled bool) string {
	if enabled {
		return "🔄 Auto trading enabled"
	}
	return "🔄 Auto trading disabled"
}

func formatAmount(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.8f", v), "0"), ".")
}
