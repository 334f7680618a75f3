package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fx_bot/internal/models"
	"fx_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// PositionSource — кто умеет отдавать открытые позиции для /positions.
type PositionSource func() []models.Position

// Telegram — пассивный нотифайер + команда /positions.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64

	mu        sync.Mutex
	positions PositionSource
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
	}, nil
}

// SetPositionSource — подключается после старта trade-менеджера,
// чтобы не заводить цикл в графе зависимостей.
func (t *Telegram) SetPositionSource(src PositionSource) {
	t.mu.Lock()
	t.positions = src
	t.mu.Unlock()
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

func (t *Telegram) handlePositions() {
	t.mu.Lock()
	src := t.positions
	t.mu.Unlock()
	if src == nil {
		t.Send("❗️ Трейд-менеджер ещё не запущен")
		return
	}

	positions := src()
	if len(positions) == 0 {
		t.Send("📭 Открытых позиций нет")
		return
	}

	var b strings.Builder
	b.WriteString("📊 Открытые позиции:\n")
	for _, p := range positions {
		fmt.Fprintf(&b, "- %s [%s] lot=%.2f @ %.5f SL=%.5f TP=%.5f (%s, #%s)\n",
			p.Symbol, p.Side, p.Lot, p.Entry, p.SL, p.TP, p.Strategy, p.Ticket)
	}
	t.Send(b.String())
}

// Start: long-polling только ради команд.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}
				switch upd.Message.Command() {
				case "positions":
					go t.handlePositions()
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() {}

// Stdout — заглушка: всё в лог.
type Stdout struct{}

func NewStdout() *Stdout                           { return &Stdout{} }
func (s *Stdout) Send(msg string)                  { logger.Info("%s", msg) }
func (s *Stdout) Sendf(format string, args ...any) { logger.Info(format, args...) }
