package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"signal_bot/internal/models"
	hs "signal_bot/internal/modules/health/service"
	source "signal_bot/internal/modules/signal_source/service"
	"signal_bot/internal/notify"
	"signal_bot/pkg/db"
	"signal_bot/pkg/tracing"
)

type Source interface {
	Fetch(ctx context.Context) ([]json.RawMessage, error)
}

type Appender interface {
	AppendBatch(ctx context.Context, sigs []models.Signal) ([]int64, error)
}

// PollResult итог одного опроса источника.
type PollResult struct {
	Received int
	Stored   int
	Skipped  int
}

type Ingester struct {
	src     Source
	store   Appender
	n       notify.Notifier
	log     *zap.Logger
	metrics *hs.Metrics
}

func New(src Source, store Appender, n notify.Notifier, log *zap.Logger, metrics *hs.Metrics) *Ingester {
	return &Ingester{src: src, store: store, n: n, log: log, metrics: metrics}
}

// Poll забирает пачку, нормализует записи по одной и пишет годные в очередь со статусом new.
// Битая запись пропускается с предупреждением, остальная пачка пишется.
// Ошибка источника -> SourceError без записи, ошибка записи -> StoreError.
func (i *Ingester) Poll(ctx context.Context) (res PollResult, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ingester.poll")
	defer func() {
		span.SetTag("received", res.Received)
		span.SetTag("stored", res.Stored)
		span.SetTag("skipped", res.Skipped)
		tracing.Finish(span, err)
	}()

	raws, err := i.src.Fetch(ctx)
	if err != nil {
		i.notifySourceError(ctx, err)
		return res, err
	}
	res.Received = len(raws)
	if len(raws) == 0 {
		i.log.Info("no signals received from source")
		return res, nil
	}
	i.log.Info("received signals from source", zap.Int("count", len(raws)))

	sigs := make([]models.Signal, 0, len(raws))
	for idx, raw := range raws {
		sig, perr := source.Normalize(raw)
		if perr != nil {
			res.Skipped++
			i.log.Warn("skipping malformed signal record",
				zap.Int("index", idx),
				zap.ByteString("record", raw),
				zap.Error(perr),
			)
			continue
		}
		sigs = append(sigs, sig)
	}
	i.metrics.Skipped(res.Skipped)

	if len(sigs) == 0 {
		return res, nil
	}

	ids, err := i.store.AppendBatch(ctx, sigs)
	if err != nil {
		i.log.Error("store signals failed",
			zap.Int("count", len(sigs)), zap.Bool("retryable", db.IsRetryable(err)), zap.Error(err))
		i.n.Send(ctx, fmt.Sprintf(
			"<b>❌ Database Error (Listener)</b>\n\n<b>Error:</b>\n<code>%s</code>", notify.Escape(err.Error()),
		))
		return res, err
	}
	res.Stored = len(ids)
	i.metrics.Ingested(res.Stored)
	i.log.Info("stored new signals", zap.Int("stored", res.Stored), zap.Int("skipped", res.Skipped))
	return res, nil
}

func (i *Ingester) notifySourceError(ctx context.Context, err error) {
	var statusErr *source.StatusError
	if errors.As(err, &statusErr) {
		i.log.Warn("source request failed", zap.Int("status", statusErr.Code))
		i.n.Send(ctx, fmt.Sprintf("<b>⚠️ API Request Failed (Listener)</b>\n\nStatus Code: %d", statusErr.Code))
		return
	}
	i.log.Error("source unreachable", zap.Error(err))
	i.n.Send(ctx, fmt.Sprintf(
		"<b>❌ Network Error (Listener)</b>\n\nCould not connect to API.\n\n<b>Error:</b>\n<code>%s</code>",
		notify.Escape(err.Error()),
	))
}
