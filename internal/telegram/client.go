// Package telegram delivers bot notifications via the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ziamudasar52-stack/deep-Bot/internal/models"
)

// headers maps each alert kind to its message header.
var headers = map[models.AlertKind]string{
	models.KindBidMatchExact:     "⚡ Exact Bid Match",
	models.KindBidMatchHighValue: "⚡ High Value Bid",
	models.KindVolumeSpike:       "📊 Volume Spike",
	models.KindInsiderActivity:   "🕵️ Insider Activity",
	models.KindOptionsActivity:   "🎯 Unusual Options Activity",
	models.KindHalt:              "⛔ Trading Halt",
	models.KindLargeSale:         "💰 Large Insider Sale",
	models.KindSummary:           "🏆 Top Gainers",
}

// Client sends formatted notifications to a single chat.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a Telegram client bound to one chat.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ListenForCommands starts a goroutine that polls for Telegram updates and
// handles bot commands. It returns immediately; the goroutine stops when
// ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	}
}

// Send delivers an alert body under the header for its kind.
func (c *Client) Send(text string, kind models.AlertKind) error {
	header, ok := headers[kind]
	if !ok {
		header = "🔔 Alert"
	}
	return c.sendMarkdownV2(fmt.Sprintf("*%s*\n%s", escapeMarkdownV2(header), escapeMarkdownV2(text)))
}

// SendStatus delivers a lifecycle notice (startup, heartbeat, shutdown).
func (c *Client) SendStatus(text string) error {
	return c.sendMarkdownV2("🤖 " + escapeMarkdownV2(text))
}

// SendError sends a task failure notification. Call this only on the
// first occurrence of a consecutive error sequence.
func (c *Client) SendError(taskName string, taskErr error) error {
	text := fmt.Sprintf("⚠️ *Task %s failed*\n`%s`",
		escapeMarkdownV2(taskName), escapeMarkdownV2(taskErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(taskName string, failureCount int) error {
	text := fmt.Sprintf("✅ *Task %s recovered* after %d consecutive failure\\(s\\)",
		escapeMarkdownV2(taskName), failureCount)
	return c.sendMarkdownV2(text)
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
