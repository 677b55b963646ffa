package service

import (
	"fmt"
	"strings"

	"signal_bot/internal/models"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS signals (
	id          BIGSERIAL PRIMARY KEY,
	symbol      TEXT NOT NULL,
	side        TEXT NOT NULL CHECK (side IN ('buy', 'sell')),
	price       DOUBLE PRECISION NOT NULL CHECK (price > 0),
	signal_time TIMESTAMPTZ NOT NULL,
	status      TEXT NOT NULL DEFAULT 'new' CHECK (status IN (%s)),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// частичный индекс: трейдер читает только new
const createNewIndexSQL = `
CREATE INDEX IF NOT EXISTS signals_new_idx ON signals (id) WHERE status = 'new'`

const insertSQL = `
INSERT INTO signals (symbol, side, price, signal_time, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

const listNewSQL = `
SELECT id, symbol, side, price, signal_time, status, created_at
FROM signals
WHERE status = $1
ORDER BY id ASC`

const transitionSQL = `
UPDATE signals SET status = $2
WHERE id = $1 AND status = $3`

const statusByIDSQL = `
SELECT status FROM signals WHERE id = $1`

func schemaStatements() []string {
	quoted := make([]string, 0, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		quoted = append(quoted, "'"+string(s)+"'")
	}
	return []string{
		fmt.Sprintf(createTableSQL, strings.Join(quoted, ", ")),
		createNewIndexSQL,
	}
}
