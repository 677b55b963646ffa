package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"signal_bot/internal/models"
	"signal_bot/pkg/db"
)

// оба демона могут стартовать одновременно, DDL сериализуем advisory-локом
const schemaLockKey = 0x5167

// Store очередь сигналов в postgres. Пишет ingester, читает и переводит статусы trader.
type Store struct {
	db db.TxManager
}

// New instance
func New(tx db.TxManager) *Store {
	return &Store{db: tx}
}

// Setup создаёт таблицу и индекс, если их нет.
func (s *Store) Setup(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = models.StoreError("setup schema", err)
		}
	}()
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		if _, err := tx.Exec(ctxTx, "SELECT pg_advisory_xact_lock($1)", schemaLockKey); err != nil {
			return errors.Wrap(err, "schema lock")
		}
		for _, stmt := range schemaStatements() {
			if _, err := tx.Exec(ctxTx, stmt); err != nil {
				return errors.Wrap(err, "exec ddl")
			}
		}
		return nil
	})
}

// Append вставляет один сигнал со статусом new и возвращает его id.
func (s *Store) Append(ctx context.Context, sig models.Signal) (id int64, err error) {
	ids, err := s.AppendBatch(ctx, []models.Signal{sig})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// AppendBatch вставляет пачку в одной транзакции: либо все, либо ничего.
func (s *Store) AppendBatch(ctx context.Context, sigs []models.Signal) (ids []int64, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "signal_store.append")
	defer span.Finish()
	defer func() {
		if err != nil {
			span.SetTag("error", true)
			err = models.StoreError("append", err)
		}
	}()

	for _, sig := range sigs {
		if err = validateForAppend(sig); err != nil {
			return nil, err
		}
	}

	ids = make([]int64, 0, len(sigs))
	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		for _, sig := range sigs {
			var id int64
			row := tx.QueryRow(ctxTx, insertSQL,
				sig.Symbol, string(sig.Side), sig.Price, sig.SignalTime.UTC(), string(models.StatusNew))
			if err := row.Scan(&id); err != nil {
				return errors.Wrapf(err, "insert %s", sig.Symbol)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetTag("count", len(ids))
	return ids, nil
}

// ListNew все сигналы в статусе new по возрастанию id. Пустой результат: не ошибка.
func (s *Store) ListNew(ctx context.Context) (out []models.Signal, err error) {
	defer func() {
		if err != nil {
			err = models.StoreError("list new", err)
		}
	}()

	err = s.db.RunReadOnly(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		rows, err := tx.Query(ctxTx, listNewSQL, string(models.StatusNew))
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, scanSignal)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transition атомарно переводит new -> терминальный статус. Терминальный статус не перезаписывается.
func (s *Store) Transition(ctx context.Context, id int64, to models.Status) error {
	if !models.CanTransition(models.StatusNew, to) {
		return models.StoreError("transition", fmt.Errorf("status %q is not terminal", to))
	}

	var notFound, terminal bool
	err := s.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		tag, err := tx.Exec(ctxTx, transitionSQL, id, string(to), string(models.StatusNew))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
		var current string
		err = tx.QueryRow(ctxTx, statusByIDSQL, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			notFound = true
			return nil
		}
		if err != nil {
			return err
		}
		terminal = true
		return nil
	})
	switch {
	case err != nil:
		return models.StoreError("transition", err)
	case notFound:
		return errors.Wrapf(models.ErrSignalNotFound, "id=%d", id)
	case terminal:
		return errors.Wrapf(models.ErrAlreadyTerminal, "id=%d", id)
	}
	return nil
}

func scanSignal(row pgx.CollectableRow) (models.Signal, error) {
	var (
		sig          models.Signal
		side, status string
	)
	if err := row.Scan(&sig.ID, &sig.Symbol, &side, &sig.Price, &sig.SignalTime, &status, &sig.CreatedAt); err != nil {
		return models.Signal{}, err
	}
	var err error
	if sig.Side, err = models.ParseSide(side); err != nil {
		return models.Signal{}, err
	}
	if sig.Status, err = models.ParseStatus(status); err != nil {
		return models.Signal{}, err
	}
	sig.SignalTime = sig.SignalTime.UTC()
	sig.CreatedAt = sig.CreatedAt.UTC()
	return sig, nil
}

func validateForAppend(sig models.Signal) error {
	switch {
	case sig.Symbol == "":
		return errors.New("empty symbol")
	case !sig.Side.Valid():
		return errors.Errorf("invalid side %q", sig.Side)
	case sig.Price <= 0:
		return errors.Errorf("non-positive price %v", sig.Price)
	case sig.SignalTime.IsZero():
		return errors.New("zero signal time")
	}
	return nil
}
