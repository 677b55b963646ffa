package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signal_bot/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Коды postgres, при которых операцию имеет смысл повторить в следующем цикле.
const (
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

type PoolConfig struct {
	DSN              string
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

type PgTxManager struct {
	poolMaster       *pgxpool.Pool
	lockTimeout      time.Duration
	statementTimeout time.Duration
}

func NewPgTxManager(poolMaster *pgxpool.Pool, conf PoolConfig) *PgTxManager {
	return &PgTxManager{
		poolMaster:       poolMaster,
		lockTimeout:      conf.LockTimeout,
		statementTimeout: conf.StatementTimeout,
	}
}

func (m *PgTxManager) Close() {
	m.poolMaster.Close()
}

func NewPool(ctx context.Context, conf PoolConfig) (*pgxpool.Pool, error) {
	pgCfg, err := pgxpool.ParseConfig(conf.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	// два демона, одиночные запросы: большой пул не нужен
	pgCfg.MaxConns = 4
	return pgxpool.NewWithConfig(ctx, pgCfg)
}

func (m *PgTxManager) Ping(ctx context.Context) error {
	return m.poolMaster.Ping(ctx)
}

// RunMaster пишущая транзакция READ COMMITTED с ограничением ожидания блокировок.
func (m *PgTxManager) RunMaster(ctx context.Context, fn func(ctxTx context.Context, tx Transaction) error) error {
	options := pgx.TxOptions{
		IsoLevel: pgx.ReadCommitted,
	}
	return m.inTx(ctx, m.poolMaster, options, fn)
}

// RunReadOnly согласованное чтение, писателей не блокирует.
func (m *PgTxManager) RunReadOnly(ctx context.Context, fn func(ctxTx context.Context, tx Transaction) error) error {
	options := pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadOnly,
	}
	return m.inTx(ctx, m.poolMaster, options, fn)
}

func (m *PgTxManager) Conn() Transaction {
	return m.poolMaster
}

func (m *PgTxManager) inTx(
	ctx context.Context,
	pool *pgxpool.Pool,
	options pgx.TxOptions,
	f func(ctxTx context.Context, tx Transaction) error,
) (err error) {
	tx, err := pool.BeginTx(ctx, options)
	if err != nil {
		return fmt.Errorf("failed to begin tx, err: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Info("%v", p)
			_ = tx.Rollback(ctx)
			panic(p) // fallthrough panic after rollback on caught panic
		} else if err != nil {
			_ = tx.Rollback(ctx) // if error during computations
		} else if cErr := tx.Commit(ctx); cErr != nil {
			err = fmt.Errorf("failed to commit tx, err: %w", cErr)
		}
	}()

	if err = m.setTimeouts(ctx, tx); err != nil {
		return err
	}

	err = f(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to run fn, err: %w", err)
	}

	return nil
}

func (m *PgTxManager) setTimeouts(ctx context.Context, tx pgx.Tx) error {
	if m.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", m.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}
	if m.statementTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", m.statementTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}
	return nil
}

// IsRetryable true для таймаута блокировки, отмены по statement_timeout, сериализации и дедлока.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeLockNotAvailable, codeQueryCanceled, codeSerializationFailure, codeDeadlockDetected:
		return true
	default:
		return false
	}
}
