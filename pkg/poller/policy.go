package poller

import (
	"time"

	"signal_bot/pkg/backoff"
)

// ResumePolicy никогда не останавливает процесс.
// Известные ошибки (classified == true): повтор через обычный интервал.
// Неизвестные и паники: экспоненциальный backoff от интервала до max.
type ResumePolicy struct {
	interval   time.Duration
	backoff    *backoff.Backoff
	classified func(error) bool
}

func NewResumePolicy(interval, max time.Duration, classified func(error) bool) *ResumePolicy {
	if classified == nil {
		classified = func(error) bool { return false }
	}
	return &ResumePolicy{
		interval:   interval,
		backoff:    backoff.New(interval, max),
		classified: classified,
	}
}

func (p *ResumePolicy) OnSuccess() { p.backoff.Reset() }

func (p *ResumePolicy) OnError(err error) Decision {
	if p.classified(err) {
		return Decision{Delay: p.interval}
	}
	return Decision{Delay: p.backoff.Next()}
}
