// Package backoff экспоненциальная задержка без джиттера: base, 2*base, 4*base ... до max.
package backoff

import "time"

type Backoff struct {
	base    time.Duration
	max     time.Duration
	attempt int
}

func New(base, max time.Duration) *Backoff {
	if max < base {
		max = base
	}
	return &Backoff{base: base, max: max}
}

// Next задержка для текущей попытки, счётчик увеличивается.
func (b *Backoff) Next() time.Duration {
	delay := b.max
	// сравниваем с max>>attempt, чтобы сдвиг base не переполнил int64
	if b.attempt < 63 && b.base <= b.max>>uint(b.attempt) {
		delay = b.base << uint(b.attempt)
	}
	b.attempt++
	return delay
}

func (b *Backoff) Reset() { b.attempt = 0 }

func (b *Backoff) Attempt() int { return b.attempt }
