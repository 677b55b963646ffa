package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"signal_bot/internal/models"
)

// 4 MiB хватает с запасом, больше источник не отдаёт
const maxBodySize = 4 << 20

// Client забирает пачку сигналов у внешнего источника.
type Client struct {
	http *http.Client
	url  string
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
		url:  url,
	}
}

// Fetch возвращает сырые записи по одной. Пустой ответ или null: пустая пачка.
// Недоступность источника и не-2xx -> SourceError.
func (c *Client) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "signal_source.fetch")
	defer span.Finish()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, models.SourceError("new request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.SetTag("error", true)
		return nil, models.SourceError("get signals", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, models.SourceError("read body", err)
	}
	span.SetTag("http.status_code", resp.StatusCode)
	if resp.StatusCode/100 != 2 {
		return nil, models.SourceError("get signals", &StatusError{Code: resp.StatusCode, Body: string(body)})
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}

	var records []json.RawMessage
	if err := sonic.Unmarshal(body, &records); err != nil {
		return nil, models.SourceError("decode batch", errors.Wrap(err, "expected json array"))
	}
	return records, nil
}

// StatusError не-2xx ответ источника.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if len(e.Body) > 256 {
		return fmt.Sprintf("http %d: %s...", e.Code, e.Body[:256])
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}
