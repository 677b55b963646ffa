// Package runner трейдер: разбирает очередь new-сигналов и сводит их с позициями.
package runner

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"signal_bot/internal/models"
	hs "signal_bot/internal/modules/health/service"
	"signal_bot/internal/notify"
	"signal_bot/pkg/db"
	"signal_bot/pkg/tracing"
)

type Store interface {
	ListNew(ctx context.Context) ([]models.Signal, error)
	Transition(ctx context.Context, id int64, to models.Status) error
}

type Gateway interface {
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	SetMarginMode(ctx context.Context, symbol string, mode models.MarginMode) error
	CreateOrder(ctx context.Context, req models.OrderRequest) (models.Order, error)
}

type Settings struct {
	Margin         float64
	Leverage       int
	MarginMode     models.MarginMode
	StaleThreshold time.Duration
	SettleDelay    time.Duration
}

// CycleResult сколько сигналов в какой статус ушло за цикл.
type CycleResult struct {
	Listed           int
	ByStatus         map[models.Status]int
	TransitionFailed int
}

type Reconciler struct {
	store   Store
	gw      Gateway
	n       notify.Notifier
	book    *PositionBook
	set     Settings
	log     *zap.Logger
	metrics *hs.Metrics

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)

	// символы, для которых уже выставляли плечо и режим маржи
	configured map[string]struct{}
}

func New(store Store, gw Gateway, n notify.Notifier, book *PositionBook, set Settings, log *zap.Logger, metrics *hs.Metrics) *Reconciler {
	return &Reconciler{
		store:      store,
		gw:         gw,
		n:          n,
		book:       book,
		set:        set,
		log:        log,
		metrics:    metrics,
		now:        time.Now,
		sleep:      sleepCtx,
		configured: make(map[string]struct{}),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Cycle один проход по очереди: все new по возрастанию id, строго по одному.
// Ошибка возвращается только если не удалось прочитать очередь.
func (r *Reconciler) Cycle(ctx context.Context) (res CycleResult, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reconciler.cycle")
	defer func() {
		span.SetTag("listed", res.Listed)
		tracing.Finish(span, err)
	}()

	sigs, err := r.store.ListNew(ctx)
	if err != nil {
		r.log.Error("list new signals failed", zap.Error(err))
		r.n.Send(ctx, listFailedMessage(err))
		return res, err
	}
	res.Listed = len(sigs)
	res.ByStatus = make(map[models.Status]int)
	if len(sigs) == 0 {
		r.log.Debug("no new signals to process")
		return res, nil
	}

	for _, sig := range sigs {
		status, terr := r.ProcessSignal(ctx, sig)
		if terr != nil {
			res.TransitionFailed++
			continue
		}
		res.ByStatus[status]++
	}
	return res, nil
}

// ProcessSignal решает судьбу одного сигнала и переводит его в терминальный статус.
// Ошибки биржи остаются внутри (processed_error). Возвращается только ошибка перевода статуса:
// сигнал тогда остаётся new и будет взят в следующем цикле.
func (r *Reconciler) ProcessSignal(ctx context.Context, sig models.Signal) (status models.Status, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reconciler.signal")
	span.SetTag("signal.id", sig.ID)
	span.SetTag("signal.symbol", sig.Symbol)
	span.SetTag("signal.side", string(sig.Side))
	defer func() {
		span.SetTag("signal.status", string(status))
		tracing.Finish(span, err)
	}()

	log := r.log.With(
		zap.Int64("signal_id", sig.ID),
		zap.String("symbol", sig.Symbol),
		zap.String("side", string(sig.Side)),
		zap.Float64("price", sig.Price),
	)
	log.Info("processing signal")

	status = r.decide(ctx, sig, log)

	if err = r.store.Transition(ctx, sig.ID, status); err != nil {
		log.Error("transition failed, signal stays new",
			zap.String("status", string(status)), zap.Bool("retryable", db.IsRetryable(err)), zap.Error(err))
		r.n.Send(ctx, transitionFailedMessage(sig, status, err))
		return status, err
	}
	r.metrics.SignalStatus(status)
	log.Info("signal processed", zap.String("status", string(status)))
	return status, nil
}

func (r *Reconciler) decide(ctx context.Context, sig models.Signal, log *zap.Logger) models.Status {
	if age := sig.Age(r.now()); age > r.set.StaleThreshold {
		log.Info("skipping burnt signal", zap.Duration("age", age), zap.Duration("threshold", r.set.StaleThreshold))
		return models.StatusProcessedBurnt
	}

	if pos, ok := r.book.Get(sig.Symbol); ok {
		if pos.Side == sig.Side {
			log.Info("same side as open position, skipping")
			return models.StatusProcessedDuplicate
		}

		log.Info("reverse signal, closing existing position",
			zap.String("position_side", string(pos.Side)), zap.Float64("amount", pos.Amount))
		if err := r.closePosition(ctx, pos, sig); err != nil {
			log.Error("close for reversal failed, keeping position", zap.Error(err))
			r.n.Send(ctx, orderFailedMessage("close position", sig, err))
			return models.StatusProcessedError
		}
	}

	if err := r.openPosition(ctx, sig, log); err != nil {
		log.Error("open position failed", zap.Error(err))
		r.n.Send(ctx, orderFailedMessage("open position", sig, err))
		return models.StatusProcessedError
	}
	return models.StatusProcessed
}

// closePosition reduce-only ордер на весь объём позиции по цене сигнала.
// После успеха ждём settle delay и только потом считаем символ свободным.
func (r *Reconciler) closePosition(ctx context.Context, pos models.Position, sig models.Signal) error {
	_, err := r.gw.CreateOrder(ctx, models.OrderRequest{
		Symbol:     pos.Symbol,
		Side:       pos.Side.Opposite(),
		Amount:     pos.Amount,
		Price:      sig.Price,
		ReduceOnly: true,
	})
	r.metrics.Order("close", err)
	if err != nil {
		return err
	}

	r.n.Send(ctx, closedMessage(pos, sig.Price))
	r.sleep(ctx, r.set.SettleDelay)
	r.book.Remove(pos.Symbol)
	r.metrics.OpenPositions(r.book.Len())
	return nil
}

func (r *Reconciler) openPosition(ctx context.Context, sig models.Signal, log *zap.Logger) error {
	r.configureSymbol(ctx, sig.Symbol, log)

	amount := OrderAmount(r.set.Margin, r.set.Leverage, sig.Price)
	order, err := r.gw.CreateOrder(ctx, models.OrderRequest{
		Symbol: sig.Symbol,
		Side:   sig.Side,
		Amount: amount,
		Price:  sig.Price,
	})
	r.metrics.Order("open", err)
	if err != nil {
		return err
	}

	// биржа могла округлить объём: запоминаем то, что реально стоит
	if order.Amount > 0 {
		amount = order.Amount
	}
	r.book.Put(models.Position{
		Symbol:   sig.Symbol,
		Side:     sig.Side,
		Amount:   amount,
		OrderRef: order.ID,
		OpenedAt: r.now().UTC(),
	})
	r.metrics.OpenPositions(r.book.Len())

	log.Info("new position opened", zap.String("order_id", order.ID), zap.Float64("amount", amount))
	r.n.Send(ctx, openedMessage(sig, amount, Notional(r.set.Margin, r.set.Leverage)))
	return nil
}

// configureSymbol выставляет режим маржи и плечо один раз на символ за время жизни процесса.
// Ошибки только логируются и уведомляются, ордер ставится в любом случае.
func (r *Reconciler) configureSymbol(ctx context.Context, symbol string, log *zap.Logger) {
	if _, ok := r.configured[symbol]; ok {
		return
	}
	r.configured[symbol] = struct{}{}

	if r.set.MarginMode != "" {
		if err := r.gw.SetMarginMode(ctx, symbol, r.set.MarginMode); err != nil {
			log.Warn("set margin mode failed", zap.String("mode", string(r.set.MarginMode)), zap.Error(err))
			r.n.Send(ctx, setupFailedMessage(symbol, err))
		}
	}
	if err := r.gw.SetLeverage(ctx, symbol, r.set.Leverage); err != nil {
		log.Warn("set leverage failed", zap.Int("leverage", r.set.Leverage), zap.Error(err))
		r.n.Send(ctx, setupFailedMessage(symbol, err))
	}
}

// Book позиции трейдера.
func (r *Reconciler) Book() *PositionBook { return r.book }
