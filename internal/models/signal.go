package models

import (
	"fmt"
	"strings"
	"time"
)

// Side направление сигнала/позиции.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide принимает "buy"/"sell" в любом регистре.
func ParseSide(raw string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(raw))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", fmt.Errorf("unknown side %q", raw)
	}
}

// Opposite возвращает противоположную сторону.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

func (s Side) Valid() bool { return s == SideBuy || s == SideSell }

// Status статус сигнала в очереди. new -> ровно один терминальный статус.
type Status string

const (
	StatusNew                Status = "new"
	StatusProcessed          Status = "processed"
	StatusProcessedBurnt     Status = "processed_burnt"
	StatusProcessedDuplicate Status = "processed_duplicate"
	StatusProcessedError     Status = "processed_error"
)

// AllStatuses в порядке объявления, используется для CHECK в схеме и метрик.
var AllStatuses = []Status{
	StatusNew,
	StatusProcessed,
	StatusProcessedBurnt,
	StatusProcessedDuplicate,
	StatusProcessedError,
}

func ParseStatus(raw string) (Status, error) {
	for _, s := range AllStatuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// Terminal true для всех статусов кроме new.
func (s Status) Terminal() bool {
	switch s {
	case StatusProcessed, StatusProcessedBurnt, StatusProcessedDuplicate, StatusProcessedError:
		return true
	default:
		return false
	}
}

// CanTransition разрешает только переход new -> терминальный статус.
func CanTransition(from, to Status) bool {
	return from == StatusNew && to.Terminal()
}

// Signal строка очереди signals.
type Signal struct {
	ID         int64
	Symbol     string
	Side       Side
	Price      float64
	SignalTime time.Time // UTC
	Status     Status
	CreatedAt  time.Time
}

// Age возраст сигнала относительно now.
func (s Signal) Age(now time.Time) time.Duration {
	return now.UTC().Sub(s.SignalTime.UTC())
}
