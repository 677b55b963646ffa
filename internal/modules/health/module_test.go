package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/health/service"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestMux_ReadyAfterFirstCycle(t *testing.T) {
	state := service.NewState()
	mux := NewMux(state, service.NewMetrics(), nil)

	if rec := get(t, mux, "/livez"); rec.Code != http.StatusOK {
		t.Fatalf("livez=%d", rec.Code)
	}
	if rec := get(t, mux, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before first cycle=%d", rec.Code)
	}

	state.TouchCycle(time.Unix(1714564800, 0), errors.New("source down"))
	if rec := get(t, mux, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz after cycle=%d", rec.Code)
	}

	rec := get(t, mux, "/healthz")
	var body struct {
		Ready         bool   `json:"ready"`
		LastError     string `json:"lastError"`
		FailedInARow  int    `json:"failedInARow"`
		LastCycleUnix int64  `json:"lastCycleUnix"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("healthz body: %v", err)
	}
	if !body.Ready || body.LastError != "source down" || body.FailedInARow != 1 || body.LastCycleUnix != 1714564800 {
		t.Fatalf("unexpected healthz: %+v", body)
	}

	state.TouchCycle(time.Unix(1714564810, 0), nil)
	lastErr, failures := state.LastError()
	if lastErr != "" || failures != 0 {
		t.Fatalf("clean cycle must reset the error: %q %d", lastErr, failures)
	}
}

func TestMux_Metrics(t *testing.T) {
	m := service.NewMetrics()
	m.Ingested(2)
	m.SignalStatus(models.StatusProcessedBurnt)
	m.Order("close", errors.New("rejected"))
	m.CycleError("trader", models.KindStore)
	m.OpenPositions(3)

	rec := get(t, NewMux(service.NewState(), m, nil), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics=%d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"signalq_ingested_total 2",
		`signalq_signals_total{status="processed_burnt"} 1`,
		`signalq_orders_total{purpose="close",result="error"} 1`,
		`signalq_cycle_errors_total{daemon="trader",kind="store"} 1`,
		"signalq_open_positions 3",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output lacks %q", want)
		}
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *service.Metrics
	m.Ingested(1)
	m.Skipped(1)
	m.SignalStatus(models.StatusProcessed)
	m.Order("open", nil)
	m.CycleError("ingester", models.KindUnknown)
	m.OpenPositions(0)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestMux_ReadyzPingsDatabase(t *testing.T) {
	state := service.NewState()
	state.TouchCycle(time.Unix(1714564800, 0), nil)

	var dbErr error
	mux := NewMux(state, service.NewMetrics(), pingFunc(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Errorf("ping must be bounded by a deadline")
		}
		return dbErr
	}))

	if rec := get(t, mux, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz with healthy db=%d", rec.Code)
	}
	dbErr = errors.New("connection refused")
	rec := get(t, mux, "/readyz")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "db unavailable") {
		t.Fatalf("readyz with db down=%d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, mux, "/livez"); rec.Code != http.StatusOK {
		t.Fatalf("livez must not depend on db, got %d", rec.Code)
	}
}
