package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/internal/adapters/config"
	"github.com/hat3ck/cryptosense/pkg/logger"
	"github.com/hat3ck/cryptosense/pkg/models"
)

// Notifier sends prediction summaries to a Telegram chat
type Notifier struct {
	api *tgbotapi.BotAPI
	cfg *config.TelegramConfig
}

// NewNotifier creates new Telegram notifier
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{api: bot, cfg: cfg}, nil
}

// NotifyPredictions sends a summary of a completed prediction cycle
func (n *Notifier) NotifyPredictions(records []models.PredictionRecord) error {
	if !n.cfg.AlertOnPredictions || len(records) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("📈 New price predictions\n\n")

	for _, rec := range records {
		targetAt := time.Unix(rec.PredictionTimestamp, 0).UTC().Format("2006-01-02 15:04 MST")
		sb.WriteString(fmt.Sprintf("%s: %s → %s %s (by %s)\n",
			strings.ToUpper(rec.Currency),
			rec.CurrencyPrice.StringFixed(2),
			rec.PredictedPrice.StringFixed(2),
			strings.ToUpper(rec.PricedIn),
			targetAt,
		))
	}

	msg := tgbotapi.NewMessage(n.cfg.ChatID, sb.String())
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send prediction alert: %w", err)
	}

	return nil
}
