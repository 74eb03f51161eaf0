package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bnb-dashboard/internal/demo"
	"bnb-dashboard/internal/notifier"
	"bnb-dashboard/pkg/types"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultInterval  = "1d"
	defaultOrderType = "BUY"
	defaultAmount    = 0.5

	// upper bound for a background notification
	notifyTimeout = 15 * time.Second

	orderFailedMessage  = "Failed to process trading order"
	notifyFailedMessage = "Failed to send Telegram notification"
)

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// queryLimit reads an integer limit. A missing value yields def; anything
// present must parse and is clamped to [lo, hi].
func queryLimit(c *gin.Context, def, lo, hi int) (int, error) {
	raw, ok := c.GetQuery("limit")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return demo.ClampLimit(0, def, lo, hi, false), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return demo.ClampLimit(n, def, lo, hi, true), nil
}

func symbolParam(c *gin.Context) string {
	if s := strings.TrimSpace(c.Query("symbol")); s != "" {
		return strings.ToUpper(s)
	}
	return demo.DefaultSymbol
}

// health reports the market mode, the bot flag and each configured store.
// A store that does not answer turns the status into "degraded".
func (s *Server) health(c *gin.Context) {
	status := "ok"
	stores := make(map[string]string, len(s.stores))
	for name, store := range s.stores {
		if err := store.Health(c.Request.Context()); err != nil {
			zap.L().Warn("health check failed", zap.String("store", name), zap.Error(err))
			stores[name] = "down"
			status = "degraded"
			continue
		}
		stores[name] = "up"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"mode":       s.market.Mode(),
		"botRunning": s.runner.Running(),
		"stores":     stores,
	})
}

func (s *Server) getPrice(c *gin.Context) {
	c.JSON(http.StatusOK, s.market.Price(c.Request.Context(), symbolParam(c)))
}

func (s *Server) getHistorical(c *gin.Context) {
	interval, err := types.ParseInterval(c.DefaultQuery("interval", defaultInterval))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	limit, err := queryLimit(c, demo.DefaultHistoricalLimit, 1, demo.MaxHistoricalLimit)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, s.market.Historical(c.Request.Context(), symbolParam(c), interval, limit))
}

func (s *Server) getSignals(c *gin.Context) {
	limit, err := queryLimit(c, demo.DefaultSignalLimit, 0, demo.MaxSignalLimit)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var forced types.SignalType
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		forced, err = types.ParseSignalType(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	c.JSON(http.StatusOK, s.demo.Signals(limit, forced))
}

func (s *Server) getTradingStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.stats.Get())
}

func (s *Server) getBotStatus(c *gin.Context) {
	st := s.demo.BotStatus(s.bot)
	st.Running = s.runner.Running()
	c.JSON(http.StatusOK, st)
}

func (s *Server) startBot(c *gin.Context) {
	if !s.runner.Start() {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Bot already running"})
		return
	}
	s.notifyAsync("🟢 Bot started")
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Bot started"})
}

func (s *Server) stopBot(c *gin.Context) {
	if !s.runner.Stop() {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Bot not running"})
		return
	}
	s.notifyAsync("🔴 Bot stopped")
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Bot stopped"})
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// toggleAutoTrading simulates switching auto trading. The configured flag is
// not changed; the requested value is echoed after the artificial delay.
func (s *Server) toggleAutoTrading(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	enabled := *req.Enabled

	if s.toggleDelay > 0 {
		timer := time.NewTimer(s.toggleDelay)
		defer timer.Stop()
		select {
		case <-c.Request.Context().Done():
			zap.L().Info("toggle request cancelled", zap.Bool("enabled", enabled))
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		case <-timer.C:
		}
	}

	zap.L().Info("🔄 auto trading toggled", zap.Bool("enabled", enabled))
	s.notifyAsync(notifier.FormatAutoTrading(enabled))

	c.JSON(http.StatusOK, gin.H{"success": true, "autoTrading": enabled})
}

func (s *Server) getPrediction(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": s.prediction})
}

type orderRequest struct {
	OrderType string   `json:"orderType"`
	Amount    *float64 `json:"amount"`
}

// bindOptionalJSON decodes the body into out. An empty body leaves out untouched.
func bindOptionalJSON(c *gin.Context, out any) error {
	err := c.ShouldBindJSON(out)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// placeOrder simulates a manual order. Nothing is sent to an exchange.
func (s *Server) placeOrder(c *gin.Context) {
	var req orderRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		zap.L().Warn("invalid order body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": orderFailedMessage})
		return
	}

	orderType := strings.ToUpper(strings.TrimSpace(req.OrderType))
	if orderType == "" {
		orderType = defaultOrderType
	}
	amount := defaultAmount
	if req.Amount != nil && *req.Amount != 0 {
		amount = *req.Amount
	}
	price := s.prediction.CurrentPrice

	order := types.OrderDetails{
		OrderID:   s.newOrderID(),
		Type:      orderType,
		Amount:    amount,
		Price:     price,
		Notional:  decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(price)).StringFixed(2),
		Timestamp: s.now(),
	}

	zap.L().Info("🧾 simulated order", zap.String("order_id", order.OrderID), zap.String("type", order.Type), zap.Float64("amount", order.Amount))
	s.notifyAsync(notifier.FormatOrder(order))

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"message":      "Trading order executed successfully",
		"orderDetails": order,
	})
}

type notifyRequest struct {
	Message string `json:"message"`
}

func (s *Server) telegramNotify(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("invalid notification body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": notifyFailedMessage})
		return
	}

	zap.L().Info("sending notification", zap.String("message", req.Message))
	if req.Message != "" {
		if err := s.notifier.Notify(c.Request.Context(), notifier.FormatText(req.Message)); err != nil {
			zap.L().Error("❌ notification failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": notifyFailedMessage})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Notification sent to Telegram"})
}

// notifyAsync delivers a side-channel message off the request path.
// Failures are only logged.
func (s *Server) notifyAsync(message string) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, message); err != nil {
			zap.L().Warn("notification failed", zap.Error(err))
		}
	}()
}
