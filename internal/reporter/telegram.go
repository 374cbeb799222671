// Package reporter pushes run summaries to Telegram. Reporting is
// optional: a nil *TelegramReporter is safe to call, so callers never
// branch on whether the bot is configured.
package reporter

import (
	"fmt"
	"log"

	"go-jobpilot-automation/internal/pipeline"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramReporter returns nil when no token is configured.
func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	return &TelegramReporter{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	if t == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML" //use HTML for bold/italic
	_, err := t.bot.Send(msg)
	return err
}

// SendRunReport delivers the end-of-run summary. Delivery failure is
// logged, never propagated; reporting must not fail a finished run.
func (t *TelegramReporter) SendRunReport(report *pipeline.Report) {
	if t == nil {
		return
	}

	var text string
	if report.AbortReason != "" {
		text = fmt.Sprintf(
			"🛑 <b>JobPilot run aborted</b>\n%s\nRun: <code>%s</code>",
			report.AbortReason, report.RunID,
		)
	} else {
		text = fmt.Sprintf(
			"📊 <b>JobPilot run finished</b> (%s)\n"+
				"🌐 Scraped: %d (%d new)\n"+
				"✅ Applied: %d\n"+
				"↪️ Skipped: %d\n"+
				"❌ Failed: %d\n"+
				"Run: <code>%s</code>",
			report.Duration, report.Scraped, report.New,
			report.Applied, report.Skipped, report.Failed, report.RunID,
		)
	}

	if err := t.SendMessage(text); err != nil {
		log.Printf("⚠️ Failed to send telegram report: %v", err)
	}
}

func (t *TelegramReporter) SendError(errReq error) {
	if t == nil {
		return
	}
	text := fmt.Sprintf("⚠️ <b>JobPilot Error</b>:\n%v", errReq)
	if err := t.SendMessage(text); err != nil {
		log.Printf("⚠️ Failed to send telegram error: %v", err)
	}
}
