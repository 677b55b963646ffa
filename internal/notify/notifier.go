package notify

import (
	"context"
	"html"
	"net/http"
	"sync"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier best-effort алерты оператору. Send никогда не блокирует и не возвращает ошибку.
type Notifier interface {
	Send(ctx context.Context, msg string)
}

// Escape экранирует динамические куски для HTML parse mode.
func Escape(s string) string { return html.EscapeString(s) }

type sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram: пассивный нотифайер с очередью: Send кладёт в буфер, отправляет отдельная горутина.
type Telegram struct {
	bot    sender
	chatID int64
	log    *zap.Logger

	mu     sync.Mutex
	closed bool
	queue  chan string
	done   chan struct{}
}

func NewTelegram(token string, chatID int64, queueSize int, log *zap.Logger) (*Telegram, error) {
	b, err := tgbot.NewBotAPIWithClient(token, tgbot.APIEndpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, err
	}
	return newTelegram(b, chatID, queueSize, log), nil
}

func newTelegram(bot sender, chatID int64, queueSize int, log *zap.Logger) *Telegram {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		log:    log,
		queue:  make(chan string, queueSize),
		done:   make(chan struct{}),
	}
}

// Start запускает отправщика.
func (t *Telegram) Start() {
	go func() {
		defer close(t.done)
		for msg := range t.queue {
			t.deliver(msg)
		}
	}()
}

// Stop дожидается отправки того, что уже в очереди, но не дольше ctx.
func (t *Telegram) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Telegram) Send(_ context.Context, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		t.log.Warn("notifier stopped, message dropped", zap.String("msg", msg))
		return
	}
	select {
	case t.queue <- msg:
	default:
		t.log.Warn("notifier queue is full, message dropped", zap.String("msg", msg))
	}
}

func (t *Telegram) deliver(text string) {
	msg := tgbot.NewMessage(t.chatID, text)
	msg.ParseMode = tgbot.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Error("telegram send failed", zap.Error(err))
	}
}

// Stdout: заглушка без токена, всё уходит в лог.
type Stdout struct {
	log *zap.Logger
}

func NewStdout(log *zap.Logger) *Stdout { return &Stdout{log: log} }

func (s *Stdout) Send(_ context.Context, msg string) { s.log.Info("notify", zap.String("msg", msg)) }
