package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notification describes a staleness incident: rates for an asset have not
// refreshed within the configured threshold.
type Notification struct {
	Asset       string
	LastSuccess time.Time
	Age         time.Duration
	Threshold   time.Duration
	FailedSince time.Time
}

// Notifier delivers staleness notifications.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes notifications through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify sends the rendered message via the sendMessage API.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected telegram status: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram replied ok=false")
		}
	}

	n.logger.Info().Str("asset", note.Asset).
		Dur("age", note.Age).
		Msg("staleness alert sent")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[ratewatcher] stale rate\n")
	builder.WriteString(fmt.Sprintf("Asset: %s\n", note.Asset))
	if note.LastSuccess.IsZero() {
		builder.WriteString("Last success: never\n")
	} else {
		builder.WriteString(fmt.Sprintf("Last success: %s UTC\n", note.LastSuccess.UTC().Format(time.RFC3339)))
	}
	builder.WriteString(fmt.Sprintf("Age: %s (threshold %s)\n", note.Age.Round(time.Second), note.Threshold))
	if !note.FailedSince.IsZero() {
		builder.WriteString(fmt.Sprintf("Failing since: %s UTC\n", note.FailedSince.UTC().Format(time.RFC3339)))
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
