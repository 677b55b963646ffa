package service

import (
	"encoding/json"
	"fmt"
)

// envelope общий ответ CoinEx v2: {"code":0,"data":...,"message":"OK"}.
type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// APIError биржа ответила code != 0.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coinex code=%d: %s", e.Code, e.Message)
}

// HTTPError ответ не 2xx без разборчивого тела.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("coinex http %d: %s", e.Status, e.Body)
}

type adjustLeverageRequest struct {
	Market     string `json:"market"`
	MarketType string `json:"market_type"`
	MarginMode string `json:"margin_mode"`
	Leverage   int    `json:"leverage"`
}

type orderRequest struct {
	Market     string `json:"market"`
	MarketType string `json:"market_type"`
	Side       string `json:"side"`
	Type       string `json:"type"`
	Amount     string `json:"amount"`
	Price      string `json:"price"`
	ClientID   string `json:"client_id,omitempty"`
}

// closePositionRequest закрытие позиции, на бирже reduce-only по определению.
type closePositionRequest struct {
	Market     string `json:"market"`
	MarketType string `json:"market_type"`
	Type       string `json:"type"`
	Amount     string `json:"amount"`
	Price      string `json:"price"`
	ClientID   string `json:"client_id,omitempty"`
}

type orderData struct {
	OrderID  int64  `json:"order_id"`
	Market   string `json:"market"`
	Side     string `json:"side"`
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Price    string `json:"price"`
	ClientID string `json:"client_id"`
}

type marketData struct {
	Market            string `json:"market"`
	BaseCcyPrecision  int32  `json:"base_ccy_precision"`
	QuoteCcyPrecision int32  `json:"quote_ccy_precision"`
	MinAmount         string `json:"min_amount"`
}

// Precision точность объёма и цены для рынка.
type Precision struct {
	Amount int32
	Price  int32
}
