package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"

	"signal_bot/internal/models"
)

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method=%s, want GET", r.Method)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second)
}

func TestClient_Fetch_Batch(t *testing.T) {
	c := serve(t, http.StatusOK, `[
		{"symbol":"BTCUSDT","signal_type":"buy","price":50000,"signal_time_utc":"2025-06-01 12:30:00"},
		{"symbol":"ETHUSDT","signal_type":"sell","signal_time_utc":"2025-06-01 12:30:00"},
		{"symbol":"SOLUSDT","signal_type":"buy","price":150,"signal_time_utc":1748781000}
	]`)
	recs, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len=%d, want 3", len(recs))
	}
	// каждая запись декодируется отдельно, битая не мешает соседям
	if _, err := Normalize(recs[1]); err == nil {
		t.Fatalf("record without price must fail")
	}
	if _, err := Normalize(recs[2]); err != nil {
		t.Fatalf("record 3: %v", err)
	}
}

func TestClient_Fetch_Empty(t *testing.T) {
	for _, body := range []string{"", "null", "[]", "  \n"} {
		recs, err := serve(t, http.StatusOK, body).Fetch(context.Background())
		if err != nil {
			t.Fatalf("body %q: %v", body, err)
		}
		if len(recs) != 0 {
			t.Fatalf("body %q: len=%d", body, len(recs))
		}
	}
}

func TestClient_Fetch_NonSuccess(t *testing.T) {
	_, err := serve(t, http.StatusBadGateway, "upstream down").Fetch(context.Background())
	if models.KindOf(err) != models.KindSource {
		t.Fatalf("kind=%s, want source", models.KindOf(err))
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Fatalf("want StatusError 502, got %v", err)
	}
}

func TestClient_Fetch_NotArray(t *testing.T) {
	_, err := serve(t, http.StatusOK, `{"signals":[]}`).Fetch(context.Background())
	if models.KindOf(err) != models.KindSource {
		t.Fatalf("kind=%s, want source", models.KindOf(err))
	}
}

func TestClient_Fetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Fetch(context.Background())
	if models.KindOf(err) != models.KindSource {
		t.Fatalf("kind=%s, want source", models.KindOf(err))
	}
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	start := time.Now()
	_, err := NewClient(srv.URL, 100*time.Millisecond).Fetch(context.Background())
	if models.KindOf(err) != models.KindSource {
		t.Fatalf("kind=%s, want source", models.KindOf(err))
	}
	if time.Since(start) > time.Second {
		t.Fatalf("fetch was not bounded by the client timeout")
	}
}
