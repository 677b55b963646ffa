package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"signal_bot/internal/models"
	"signal_bot/pkg/tracing"
)

const maxResponseBytes = 1 << 20

type Options struct {
	BaseURL    string
	AccessID   string
	SecretKey  string
	MarketType string
	Timeout    time.Duration

	// Значения по умолчанию для adjust-position-leverage, биржа требует оба поля сразу.
	Leverage   int
	MarginMode models.MarginMode
}

// Client REST-клиент фьючерсов CoinEx v2.
type Client struct {
	http       *http.Client
	baseURL    string
	accessID   string
	secretKey  string
	marketType string

	leverage   int
	marginMode models.MarginMode

	now func() time.Time

	mu        sync.Mutex
	modes     map[string]models.MarginMode
	leverages map[string]int
	precision map[string]Precision
}

func NewClient(opts Options) *Client {
	if opts.MarketType == "" {
		opts.MarketType = "FUTURES"
	}
	if opts.MarginMode == "" {
		opts.MarginMode = models.MarginCross
	}
	if opts.Leverage <= 0 {
		opts.Leverage = 1
	}
	return &Client{
		http:       &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		accessID:   opts.AccessID,
		secretKey:  opts.SecretKey,
		marketType: opts.MarketType,
		leverage:   opts.Leverage,
		marginMode: opts.MarginMode,
		now:        time.Now,
		modes:      make(map[string]models.MarginMode),
		leverages:  make(map[string]int),
		precision:  make(map[string]Precision),
	}
}

// sign hex(HMAC-SHA256(secret, method + path?query + body + timestamp)) в нижнем регистре.
func sign(secret, method, pathWithQuery, body, ts string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strings.ToUpper(method) + pathWithQuery + body + ts))
	return hex.EncodeToString(h.Sum(nil))
}

// do подписывает запрос, разбирает envelope и кладёт data в out.
// Любая ошибка -> ExchangeError с op.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) (err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "coinex.request")
	span.SetTag("coinex.op", op)
	span.SetTag("http.method", method)
	defer func() { tracing.Finish(span, err) }()

	if err = c.request(ctx, method, path, query, in, out); err != nil {
		return models.ExchangeError(op, err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if c.accessID == "" || c.secretKey == "" {
		return errors.New("api creds empty")
	}

	var body []byte
	if in != nil {
		b, err := sonic.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshal")
		}
		body = b
	}

	pathWithQuery := path
	if len(query) > 0 {
		pathWithQuery += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathWithQuery, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "new request")
	}

	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	req.Header.Set("X-COINEX-KEY", c.accessID)
	req.Header.Set("X-COINEX-SIGN", sign(c.secretKey, method, pathWithQuery, string(body), ts))
	req.Header.Set("X-COINEX-TIMESTAMP", ts)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "do")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	var env envelope
	if uerr := sonic.Unmarshal(data, &env); uerr != nil {
		if resp.StatusCode/100 != 2 {
			return &HTTPError{Status: resp.StatusCode, Body: string(data)}
		}
		return errors.Wrapf(uerr, "decode envelope; body=%s", string(data))
	}
	if env.Code != 0 {
		return &APIError{Code: env.Code, Message: env.Message}
	}
	if resp.StatusCode/100 != 2 {
		return &HTTPError{Status: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(env.Data, out); err != nil {
		return errors.Wrapf(err, "decode data; body=%s", string(data))
	}
	return nil
}
