// Package daemon запускает цикл опроса в жизненном цикле fx: уведомления о старте и остановке,
// health-состояние, метрики ошибок цикла.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/models"
	hs "signal_bot/internal/modules/health/service"
	"signal_bot/internal/notify"
	"signal_bot/pkg/poller"
)

type Params struct {
	Name       string
	Interval   time.Duration
	BackoffMax time.Duration
	Step       poller.Step

	Notifier notify.Notifier
	State    *hs.State
	Metrics  *hs.Metrics
	Log      *zap.Logger

	StartMessage string
	StopMessage  string
}

// Classified известная ошибка из таксономии: повтор через обычный интервал.
func Classified(err error) bool { return models.KindOf(err) != models.KindUnknown }

func NewLoop(p Params) *poller.Loop {
	return &poller.Loop{
		Name:     p.Name,
		Interval: p.Interval,
		Policy:   poller.NewResumePolicy(p.Interval, p.BackoffMax, Classified),
		Step:     p.Step,
		Log:      p.Log,
		OnCycle:  onCycle(p),
	}
}

func onCycle(p Params) func(ctx context.Context, err error) {
	return func(ctx context.Context, err error) {
		if p.State != nil {
			p.State.TouchCycle(time.Now(), err)
		}
		if err == nil {
			return
		}
		kind := models.KindOf(err)
		p.Metrics.CycleError(p.Name, kind)
		if kind != models.KindUnknown {
			// классифицированные ошибки шаг уведомляет сам
			return
		}
		var pe *poller.PanicError
		if errors.As(err, &pe) && p.Log != nil {
			p.Log.Error("poll step panicked", zap.Any("panic", pe.Value), zap.ByteString("stack", pe.Stack))
		}
		p.Notifier.Send(ctx, fmt.Sprintf(
			"<b>❌ CRITICAL ERROR (%s loop)</b>\n\nUnexpected error, resuming after backoff.\n\n<b>Error:</b>\n<code>%s</code>",
			notify.Escape(p.Name), notify.Escape(err.Error()),
		))
	}
}

// Run вешает цикл на lifecycle. Остановка: отмена контекста и ожидание текущего цикла.
func Run(lc fx.Lifecycle, p Params) {
	loop := NewLoop(p)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if p.StartMessage != "" {
				p.Notifier.Send(ctx, p.StartMessage)
			}
			go func() {
				defer close(done)
				if err := loop.Run(ctx); err != nil && p.Log != nil {
					p.Log.Error("poll loop exited", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
				if p.Log != nil {
					p.Log.Warn("poll cycle still running at shutdown", zap.String("loop", p.Name))
				}
			}
			if p.StopMessage != "" {
				p.Notifier.Send(stopCtx, p.StopMessage)
			}
			return nil
		},
	})
}
