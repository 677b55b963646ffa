package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

var errKnown = errors.New("known")

func isKnown(err error) bool { return errors.Is(err, errKnown) }

type stopPolicy struct{}

func (stopPolicy) OnSuccess() {}
func (stopPolicy) OnError(error) Decision { return Decision{Terminate: true} }

func TestLoop_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	l := &Loop{
		Name:     "test",
		Interval: 5 * time.Millisecond,
		Policy:   NewResumePolicy(5*time.Millisecond, 20*time.Millisecond, isKnown),
		Step: func(ctx context.Context) error {
			if calls.Add(1) == 3 {
				cancel()
			}
			return nil
		},
	}

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop")
	}
	if calls.Load() != 3 {
		t.Fatalf("calls=%d, want 3", calls.Load())
	}
}

func TestLoop_StepCompletesDespiteCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var stepCtxErr error
	l := &Loop{
		Interval: time.Hour,
		Policy:   NewResumePolicy(time.Hour, time.Hour, nil),
		Step: func(stepCtx context.Context) error {
			cancel()
			stepCtxErr = stepCtx.Err()
			return nil
		},
	}
	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stepCtxErr != nil {
		t.Fatalf("in-flight step must not observe cancellation, got %v", stepCtxErr)
	}
}

func TestLoop_RecoversPanicAndContinues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cycles []error
	var calls int
	l := &Loop{
		Interval: time.Millisecond,
		Policy:   NewResumePolicy(time.Millisecond, 4*time.Millisecond, isKnown),
		Step: func(context.Context) error {
			calls++
			if calls == 1 {
				panic("boom")
			}
			cancel()
			return nil
		},
		OnCycle: func(_ context.Context, err error) { cycles = append(cycles, err) },
	}
	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cycles) != 2 {
		t.Fatalf("cycles=%d, want 2", len(cycles))
	}
	var pe *PanicError
	if !errors.As(cycles[0], &pe) || pe.Value != "boom" {
		t.Fatalf("first cycle must report the panic, got %v", cycles[0])
	}
	if cycles[1] != nil {
		t.Fatalf("second cycle err=%v", cycles[1])
	}
}

func TestLoop_TerminatePolicy(t *testing.T) {
	l := &Loop{
		Interval: time.Millisecond,
		Policy:   stopPolicy{},
		Step:     func(context.Context) error { return errKnown },
	}
	if err := l.Run(context.Background()); !errors.Is(err, errKnown) {
		t.Fatalf("Run=%v, want errKnown", err)
	}
}

func TestResumePolicy(t *testing.T) {
	p := NewResumePolicy(10*time.Second, time.Minute, isKnown)

	if d := p.OnError(errKnown); d.Terminate || d.Delay != 10*time.Second {
		t.Fatalf("known error: %+v", d)
	}
	unknown := errors.New("surprise")
	if d := p.OnError(unknown); d.Delay != 10*time.Second {
		t.Fatalf("first unknown: %+v", d)
	}
	if d := p.OnError(unknown); d.Delay != 20*time.Second {
		t.Fatalf("second unknown: %+v", d)
	}
	p.OnError(unknown)
	if d := p.OnError(unknown); d.Delay != time.Minute || d.Terminate {
		t.Fatalf("capped unknown: %+v", d)
	}
	p.OnSuccess()
	if d := p.OnError(unknown); d.Delay != 10*time.Second {
		t.Fatalf("after success: %+v", d)
	}
}
