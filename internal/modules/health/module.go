package health

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/health/service"
	"signal_bot/pkg/db"
)

const pingTimeout = 2 * time.Second

type Config struct {
	Addr string // например ":8080"
}

func NewConfig(cfg *config.Config) Config {
	return Config{Addr: cfg.Service.HealthAddr}
}

// Pinger проверка зависимости для readiness, например postgres.
type Pinger interface {
	Ping(ctx context.Context) error
}

type MuxParams struct {
	fx.In

	State   *service.State
	Metrics *service.Metrics
	DB      *db.PgTxManager `optional:"true"`
}

func newMux(p MuxParams) *http.ServeMux {
	var pinger Pinger
	if p.DB != nil {
		pinger = p.DB
	}
	return NewMux(p.State, p.Metrics, pinger)
}

// NewMux pinger может быть nil.
func NewMux(state *service.State, metrics *service.Metrics, pinger Pinger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: хотя бы один цикл опроса прошёл и postgres отвечает
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		lastErr, failures := state.LastError()
		var lastCycle int64
		if t := state.LastCycle(); !t.IsZero() {
			lastCycle = t.Unix()
		}
		resp := map[string]any{
			"ready":         state.Ready(),
			"uptimeSec":     int64(state.Uptime().Seconds()),
			"lastError":     lastErr,
			"failedInARow":  failures,
			"lastCycleUnix": lastCycle,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux, log *zap.Logger) {
	if cfg.Addr == "" {
		log.Info("health server disabled")
		return
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					log.Error("health server failed", zap.Error(err))
				}
			}()
			log.Info("health server started", zap.String("addr", cfg.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			service.NewMetrics,
			NewConfig,
			newMux,
		),
		fx.Invoke(RunHTTP),
	)
}
