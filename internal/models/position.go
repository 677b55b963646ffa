package models

import "time"

// Position то, что трейдер считает открытым по символу. Живёт только в памяти процесса.
type Position struct {
	Symbol   string
	Side     Side
	Amount   float64
	OrderRef string
	OpenedAt time.Time
}

// OrderRequest параметры createOrder. ReduceOnly: только закрытие.
type OrderRequest struct {
	Symbol     string
	Side       Side
	Amount     float64
	Price      float64
	ReduceOnly bool
	ClientID   string
}

// Order ответ биржи на createOrder.
type Order struct {
	ID       string
	ClientID string
	Symbol   string
	Side     Side
	Amount   float64
	Price    float64
}

// MarginMode режим маржи на бирже.
type MarginMode string

const (
	MarginCross    MarginMode = "cross"
	MarginIsolated MarginMode = "isolated"
)
