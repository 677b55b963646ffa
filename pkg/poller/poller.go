// Package poller цикл опроса по таймеру с политикой реакции на ошибки цикла.
package poller

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// Step один цикл опроса. Ошибка: ошибка уровня процесса (не отдельного сигнала).
type Step func(ctx context.Context) error

// Decision что делать после ошибки цикла.
type Decision struct {
	Terminate bool
	Delay     time.Duration
}

type Policy interface {
	OnSuccess()
	OnError(err error) Decision
}

// PanicError паника внутри Step, перехваченная циклом.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic in poll step: %v", e.Value) }

type Loop struct {
	Name     string
	Interval time.Duration
	Policy   Policy
	Step     Step
	Log      *zap.Logger
	// OnCycle вызывается после каждого цикла (err == nil при успехе).
	OnCycle func(ctx context.Context, err error)
}

// Run крутит Step до отмены ctx. Остановка проверяется только между циклами:
// начатый цикл доигрывается с контекстом без отмены.
// Возвращает nil при отмене ctx и ошибку, если политика решила завершиться.
func (l *Loop) Run(ctx context.Context) error {
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("loop", l.Name))
	log.Info("poll loop started", zap.Duration("interval", l.Interval))

	for {
		if ctx.Err() != nil {
			log.Info("poll loop stopped")
			return nil
		}

		err := l.runStep(context.WithoutCancel(ctx))
		if l.OnCycle != nil {
			l.OnCycle(ctx, err)
		}

		delay := l.Interval
		if err != nil {
			d := l.Policy.OnError(err)
			if d.Terminate {
				log.Error("poll loop terminated", zap.Error(err))
				return err
			}
			delay = d.Delay
			log.Warn("poll cycle failed", zap.Error(err), zap.Duration("retry_in", delay))
		} else {
			l.Policy.OnSuccess()
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("poll loop stopped")
			return nil
		case <-timer.C:
		}
	}
}

func (l *Loop) runStep(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()
	return l.Step(ctx)
}
