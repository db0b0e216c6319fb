package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

const defaultAPIURL = "https://api.telegram.org"

// TelegramNotifier forwards dashboard alerts to a Telegram chat.
type TelegramNotifier struct {
	Config models.MTelegramConfig
	Client *http.Client
	Logger *logger.Logger

	backoff time.Duration
}

// -----------------------------------------------------------------------------

func NewTelegramNotifier(cfg models.MTelegramConfig, log *logger.Logger) *TelegramNotifier {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	return &TelegramNotifier{
		Config:  cfg,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Logger:  log,
		backoff: time.Second,
	}
}

// -----------------------------------------------------------------------------

// Notify implements the alert sink.
func (t *TelegramNotifier) Notify(ctx context.Context, alert models.MAlert) error {
	return t.SendWithRetry(ctx, FormatAlert(alert), t.Config.Retries)
}

// -----------------------------------------------------------------------------

// Send posts one message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.Config.APIURL, "/"), t.Config.BotToken)
	body, err := json.Marshal(map[string]string{
		"chat_id":    t.Config.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry retries Send with exponential backoff, maxRetries times after
// the first attempt.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		wait := t.backoff * time.Duration(1<<uint(i))
		t.Logger.Warning("Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("all %d attempts exhausted: %w", maxRetries+1, lastErr)
}

// -----------------------------------------------------------------------------

// FormatAlert renders an alert as Telegram HTML.
func FormatAlert(a models.MAlert) string {
	icon := "⚪"
	switch a.Signal {
	case models.SignalBuy:
		icon = "🟢"
	case models.SignalSell:
		icon = "🔴"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s %s</b>", icon, a.Symbol, a.Signal)
	if a.Confidence != nil {
		fmt.Fprintf(&b, " | confidence %.0f%%", *a.Confidence)
	}
	if a.Previous != "" && a.Previous != a.Signal {
		fmt.Fprintf(&b, "\nprevious: %s", a.Previous)
	}
	if a.Message != "" {
		fmt.Fprintf(&b, "\n%s", a.Message)
	}
	if !a.Time.IsZero() {
		fmt.Fprintf(&b, "\n<i>%s</i>", a.Time.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	return b.String()
}
