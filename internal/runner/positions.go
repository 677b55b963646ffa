package runner

import (
	"sort"

	"signal_bot/internal/models"
)

// PositionBook позиции трейдера по символам, не больше одной на символ.
// Владелец один (цикл Reconciler), поэтому без блокировок. После рестарта пустая.
type PositionBook struct {
	m map[string]models.Position
}

func NewPositionBook() *PositionBook {
	return &PositionBook{m: make(map[string]models.Position)}
}

func (b *PositionBook) Get(symbol string) (models.Position, bool) {
	p, ok := b.m[symbol]
	return p, ok
}

// Put заменяет позицию по символу.
func (b *PositionBook) Put(p models.Position) { b.m[p.Symbol] = p }

func (b *PositionBook) Remove(symbol string) { delete(b.m, symbol) }

func (b *PositionBook) Len() int { return len(b.m) }

// Snapshot копия позиций, отсортированная по символу.
func (b *PositionBook) Snapshot() []models.Position {
	out := make([]models.Position, 0, len(b.m))
	for _, p := range b.m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
