package service

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_portal/internal/models"
	"signal_portal/internal/modules/config"
	"signal_portal/pkg/logger"
)

const disclaimer = "⚠️ DISCLAIMER ⚠️\nThis is NOT investment advice.\nDo your own analysis before trading."

// Notifier is a passive outbound sender: it consumes emitted signals and
// pushes them to the configured chat. Without a token it degrades to a
// no-op so the rest of the service keeps running.
type Notifier struct {
	bot               *tgbot.BotAPI
	chatID            int64
	includeDisclaimer bool
}

func NewNotifier(cfg *config.Config) (*Notifier, error) {
	n := &Notifier{
		chatID:            cfg.Telegram.ChatID,
		includeDisclaimer: cfg.Telegram.IncludeDisclaimer,
	}
	if cfg.Telegram.Token == "" {
		logger.Warn("telegram token not set, notifications disabled")
		return n, nil
	}
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	n.bot = b
	return n, nil
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.bot != nil && n.chatID != 0
}

func (n *Notifier) Send(text string) {
	if !n.Enabled() {
		return
	}
	if n.includeDisclaimer {
		text += "\n" + disclaimer
	}
	msg := tgbot.NewMessage(n.chatID, text)
	msg.ParseMode = tgbot.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		logger.Error("telegram send: %v", err)
	}
}

func (n *Notifier) SendSignal(sig models.Signal) {
	n.Send(FormatSignal(sig))
}

// Run drains the signal channel until the context is cancelled or the
// channel closes.
func (n *Notifier) Run(ctx context.Context, in <-chan models.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-in:
			if !ok {
				return
			}
			n.SendSignal(sig)
		}
	}
}

var displayNames = map[models.StrategyKind]string{
	models.KindRSIEMA50: "RSI EMA50",
	models.KindDayTrade: "DAY TRADE",
	models.KindSwing:    "SWING TRADE",
}

// FormatSignal renders the Markdown message body for one signal.
func FormatSignal(sig models.Signal) string {
	name, ok := displayNames[sig.Strategy]
	if !ok {
		name = strings.ReplaceAll(string(sig.Strategy), "_", " ")
	}

	arrow := "⬆️"
	if sig.Direction == models.DirShort {
		arrow = "⬇️"
	}

	lines := []string{
		fmt.Sprintf("*%s*", name),
		"",
		fmt.Sprintf("*Symbol: %s 🧩*", sig.Symbol),
		fmt.Sprintf("_Signal: %s %s_", sig.Direction, arrow),
		"",
		fmt.Sprintf("Timeframe: %s ⏱️", sig.Timeframe),
		"",
		fmt.Sprintf("Price: %s", formatPrice(sig.Price)),
	}

	snap := sig.Snapshot
	var ind []string
	switch sig.Strategy {
	case models.KindRSI:
		if snap.RSI != nil {
			ind = append(ind, fmt.Sprintf("RSI: %.2f", *snap.RSI))
		}
	case models.KindMACD:
		if snap.MACD != nil && snap.MACDSignal != nil {
			ind = append(ind, fmt.Sprintf("MACD: %.4f | Signal: %.4f", *snap.MACD, *snap.MACDSignal))
		}
	case models.KindRSIEMA50, models.KindScalping:
		if snap.RSI != nil {
			ind = append(ind, fmt.Sprintf("RSI: %.2f", *snap.RSI))
		}
		if snap.EMA50 != nil {
			ind = append(ind, fmt.Sprintf("EMA50: %.4f", *snap.EMA50))
		}
	}
	if len(ind) > 0 {
		lines = append(lines, "")
		lines = append(lines, ind...)
	}

	if sig.Strategy == models.KindJFN {
		if hr, ok := snap.Raw["hit_rate"]; ok {
			lines = append(lines, "", fmt.Sprintf("Hit rate: %.2f%% 🎯", hr))
		}
	}

	return strings.Join(lines, "\n")
}

func formatPrice(v float64) string {
	switch {
	case v >= 1:
		return fmt.Sprintf("%.4f", v)
	case v >= 0.01:
		return fmt.Sprintf("%.6f", v)
	default:
		return fmt.Sprintf("%.8f", v)
	}
}
