package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeBot struct {
	mu    sync.Mutex
	sent  []tgbot.MessageConfig
	err   error
	block chan struct{}
}

func (f *fakeBot) Send(c tgbot.Chattable) (tgbot.Message, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbot.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbot.Message{}, f.err
}

func (f *fakeBot) messages() []tgbot.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbot.MessageConfig(nil), f.sent...)
}

func TestTelegram_DeliversInOrderWithHTML(t *testing.T) {
	bot := &fakeBot{}
	tg := newTelegram(bot, 42, 8, zap.NewNop())
	tg.Start()

	ctx := context.Background()
	tg.Send(ctx, "<b>one</b>")
	tg.Send(ctx, "<b>two</b>")

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := tg.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	got := bot.messages()
	if len(got) != 2 {
		t.Fatalf("sent=%d, want 2", len(got))
	}
	if got[0].Text != "<b>one</b>" || got[1].Text != "<b>two</b>" {
		t.Fatalf("unexpected texts: %q %q", got[0].Text, got[1].Text)
	}
	if got[0].ChatID != 42 || got[0].ParseMode != tgbot.ModeHTML {
		t.Fatalf("chat=%d parse=%q", got[0].ChatID, got[0].ParseMode)
	}
}

func TestTelegram_SendNeverBlocks(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	bot := &fakeBot{block: make(chan struct{})}
	tg := newTelegram(bot, 1, 1, zap.New(core))
	tg.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			tg.Send(context.Background(), "msg")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Send blocked on a stuck bot")
	}
	if logs.FilterMessage("notifier queue is full, message dropped").Len() == 0 {
		t.Fatalf("expected drop warnings")
	}
	close(bot.block)
	_ = tg.Stop(context.Background())
}

func TestTelegram_FailureIsOnlyLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bot := &fakeBot{err: errors.New("forbidden")}
	tg := newTelegram(bot, 1, 4, zap.New(core))
	tg.Start()
	tg.Send(context.Background(), "x")
	_ = tg.Stop(context.Background())

	if logs.FilterMessage("telegram send failed").Len() != 1 {
		t.Fatalf("send failure must be logged once")
	}
}

func TestTelegram_SendAfterStop(t *testing.T) {
	tg := newTelegram(&fakeBot{}, 1, 4, zap.NewNop())
	tg.Start()
	_ = tg.Stop(context.Background())
	// не паникует на закрытом канале
	tg.Send(context.Background(), "late")
	_ = tg.Stop(context.Background())
}

func TestEscape(t *testing.T) {
	if got := Escape(`a<b>&"c"`); got != "a&lt;b&gt;&amp;&#34;c&#34;" {
		t.Fatalf("Escape=%q", got)
	}
}
