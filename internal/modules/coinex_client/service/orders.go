package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"signal_bot/internal/models"
)

const (
	adjustLeveragePath = "/v2/futures/adjust-position-leverage"
	orderPath          = "/v2/futures/order"
	closePositionPath  = "/v2/futures/close-position"
	marketPath         = "/v2/futures/market"

	// точность, если метаданные рынка недоступны
	fallbackPrecision = 8
)

// SetLeverage плечо для рынка. Режим маржи берётся последний выставленный, иначе из настроек.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if leverage <= 0 {
		return models.ExchangeError("set leverage", errors.Errorf("leverage must be positive, got %d", leverage))
	}
	c.mu.Lock()
	mode, ok := c.modes[symbol]
	if !ok {
		mode = c.marginMode
	}
	c.mu.Unlock()

	if err := c.adjust(ctx, "set leverage", symbol, leverage, mode); err != nil {
		return err
	}
	c.mu.Lock()
	c.leverages[symbol] = leverage
	c.mu.Unlock()
	return nil
}

// SetMarginMode режим маржи для рынка. Плечо берётся последнее выставленное, иначе из настроек.
func (c *Client) SetMarginMode(ctx context.Context, symbol string, mode models.MarginMode) error {
	if mode != models.MarginCross && mode != models.MarginIsolated {
		return models.ExchangeError("set margin mode", errors.Errorf("unsupported margin mode %q", mode))
	}
	c.mu.Lock()
	lev, ok := c.leverages[symbol]
	if !ok {
		lev = c.leverage
	}
	c.mu.Unlock()

	if err := c.adjust(ctx, "set margin mode", symbol, lev, mode); err != nil {
		return err
	}
	c.mu.Lock()
	c.modes[symbol] = mode
	c.mu.Unlock()
	return nil
}

func (c *Client) adjust(ctx context.Context, op, symbol string, leverage int, mode models.MarginMode) error {
	return c.do(ctx, op, http.MethodPost, adjustLeveragePath, nil, adjustLeverageRequest{
		Market:     symbol,
		MarketType: c.marketType,
		MarginMode: string(mode),
		Leverage:   leverage,
	}, nil)
}

// CreateOrder лимитный ордер. ReduceOnly уходит в close-position: он только уменьшает позицию.
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (models.Order, error) {
	if !req.Side.Valid() {
		return models.Order{}, models.ExchangeError("create order", errors.Errorf("invalid side %q", req.Side))
	}
	if req.Amount <= 0 || req.Price <= 0 {
		return models.Order{}, models.ExchangeError("create order",
			errors.Errorf("amount and price must be positive, got amount=%v price=%v", req.Amount, req.Price))
	}

	prec := c.MarketPrecision(ctx, req.Symbol)
	amount := decimal.NewFromFloat(req.Amount).Truncate(prec.Amount)
	if !amount.IsPositive() {
		return models.Order{}, models.ExchangeError("create order",
			errors.Errorf("amount %v rounds to zero at precision %d", req.Amount, prec.Amount))
	}
	price := decimal.NewFromFloat(req.Price).Round(prec.Price)

	clientID := req.ClientID
	if clientID == "" {
		clientID = NewClientID()
	}

	var (
		data orderData
		err  error
	)
	if req.ReduceOnly {
		err = c.do(ctx, "close position", http.MethodPost, closePositionPath, nil, closePositionRequest{
			Market:     req.Symbol,
			MarketType: c.marketType,
			Type:       "limit",
			Amount:     amount.String(),
			Price:      price.String(),
			ClientID:   clientID,
		}, &data)
	} else {
		err = c.do(ctx, "create order", http.MethodPost, orderPath, nil, orderRequest{
			Market:     req.Symbol,
			MarketType: c.marketType,
			Side:       string(req.Side),
			Type:       "limit",
			Amount:     amount.String(),
			Price:      price.String(),
			ClientID:   clientID,
		}, &data)
	}
	if err != nil {
		return models.Order{}, err
	}

	return toOrder(data, req, amount, price, clientID), nil
}

func toOrder(d orderData, req models.OrderRequest, amount, price decimal.Decimal, clientID string) models.Order {
	o := models.Order{
		ID:       strconv.FormatInt(d.OrderID, 10),
		ClientID: clientID,
		Symbol:   req.Symbol,
		Side:     req.Side,
		Amount:   amount.InexactFloat64(),
		Price:    price.InexactFloat64(),
	}
	if d.OrderID == 0 {
		o.ID = ""
	}
	if d.Market != "" {
		o.Symbol = d.Market
	}
	if s, err := models.ParseSide(d.Side); err == nil {
		o.Side = s
	}
	if v, err := decimal.NewFromString(d.Amount); err == nil && v.IsPositive() {
		o.Amount = v.InexactFloat64()
	}
	if v, err := decimal.NewFromString(d.Price); err == nil && v.IsPositive() {
		o.Price = v.InexactFloat64()
	}
	if d.ClientID != "" {
		o.ClientID = d.ClientID
	}
	return o
}

// MarketPrecision точность рынка из кэша или с биржи. Ошибка не фатальна: берём запасную точность.
func (c *Client) MarketPrecision(ctx context.Context, symbol string) Precision {
	c.mu.Lock()
	p, ok := c.precision[symbol]
	c.mu.Unlock()
	if ok {
		return p
	}

	var markets []marketData
	q := url.Values{}
	q.Set("market", symbol)
	if err := c.do(ctx, "market info", http.MethodGet, marketPath, q, nil, &markets); err != nil || len(markets) == 0 {
		return Precision{Amount: fallbackPrecision, Price: fallbackPrecision}
	}

	p = Precision{Amount: markets[0].BaseCcyPrecision, Price: markets[0].QuoteCcyPrecision}
	c.mu.Lock()
	c.precision[symbol] = p
	c.mu.Unlock()
	return p
}

// NewClientID 32 символа: CoinEx не принимает client_id длиннее.
func NewClientID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
