package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"signal_bot/internal/models"
)

// SignalTimeLayout текстовый формат signal_time_utc у источника.
const SignalTimeLayout = "2006-01-02 15:04:05"

// границы величины epoch: до 1e10 секунды (это ~ 2286 год), дальше мс, мкс и нс
const (
	epochMillisFrom = 1e10
	epochMicrosFrom = 1e13
	epochNanosFrom  = 1e16
)

// сигнал из будущего дальше этого запаса считаем битым
const maxFutureSkew = 24 * time.Hour

// now подменяется в тестах
var now = time.Now

// RawSignal запись источника как есть.
type RawSignal struct {
	Symbol     string `json:"symbol" validate:"required"`
	SignalType string `json:"signal_type" validate:"required"`
	Price      any    `json:"price"`
	SignalTime any    `json:"signal_time_utc"`
}

var validate = validator.New()

// Normalize приводит одну сырую запись к models.Signal. Любая проблема -> ParseError.
func Normalize(raw []byte) (models.Signal, error) {
	var rec RawSignal
	if err := sonic.Unmarshal(raw, &rec); err != nil {
		return models.Signal{}, models.ParseError("decode record", err)
	}
	return rec.Normalize()
}

func (r RawSignal) Normalize() (models.Signal, error) {
	if err := validate.Struct(r); err != nil {
		return models.Signal{}, models.ParseError("validate record", err)
	}
	symbol := strings.ToUpper(strings.TrimSpace(r.Symbol))
	if symbol == "" {
		return models.Signal{}, models.ParseError("symbol", errors.New("blank symbol"))
	}
	if r.Price == nil {
		return models.Signal{}, models.ParseError("price", errors.New("missing price"))
	}
	if r.SignalTime == nil {
		return models.Signal{}, models.ParseError("signal_time_utc", errors.New("missing timestamp"))
	}

	side, err := models.ParseSide(r.SignalType)
	if err != nil {
		return models.Signal{}, models.ParseError("signal_type", err)
	}

	price, err := parsePrice(r.Price)
	if err != nil {
		return models.Signal{}, models.ParseError("price", err)
	}

	ts, err := ParseSignalTime(r.SignalTime)
	if err != nil {
		return models.Signal{}, models.ParseError("signal_time_utc", err)
	}

	return models.Signal{
		Symbol:     symbol,
		Side:       side,
		Price:      price,
		SignalTime: ts,
		Status:     models.StatusNew,
	}, nil
}

func parsePrice(v any) (float64, error) {
	var p float64
	switch t := v.(type) {
	case float64:
		p = t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parse %q", t)
		}
		p = f
	default:
		return 0, errors.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0, errors.Errorf("price must be positive, got %v", p)
	}
	return p, nil
}

// ParseSignalTime принимает "2006-01-02 15:04:05" (UTC) или epoch в секундах, мс, мкс или нс
// (числом или строкой) и всегда возвращает время в UTC.
// Время не позже эпохи и дальше maxFutureSkew в будущем отвергается.
func ParseSignalTime(v any) (time.Time, error) {
	ts, err := parseSignalTime(v)
	if err != nil {
		return time.Time{}, err
	}
	if ts.Unix() <= 0 {
		return time.Time{}, errors.Errorf("timestamp %s is not after the unix epoch", ts.Format(time.RFC3339))
	}
	if limit := now().UTC().Add(maxFutureSkew); ts.After(limit) {
		return time.Time{}, errors.Errorf("timestamp %s is too far in the future", ts.Format(time.RFC3339))
	}
	return ts, nil
}

func parseSignalTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case float64:
		return fromEpoch(t)
	case string:
		s := strings.TrimSpace(t)
		if ts, err := time.ParseInLocation(SignalTimeLayout, s, time.UTC); err == nil {
			return ts.UTC(), nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromEpochInt(n)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, errors.Errorf("unparsable timestamp %q", s)
		}
		return fromEpoch(f)
	default:
		return time.Time{}, errors.Errorf("unsupported timestamp type %T", v)
	}
}

func fromEpoch(f float64) (time.Time, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return time.Time{}, errors.Errorf("invalid epoch %v", f)
	}
	if f >= epochMillisFrom {
		if f >= math.MaxInt64 {
			return time.Time{}, errors.Errorf("epoch %v out of range", f)
		}
		return fromEpochInt(int64(f))
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), nil
}

func fromEpochInt(n int64) (time.Time, error) {
	switch {
	case n <= 0:
		return time.Time{}, errors.Errorf("invalid epoch %d", n)
	case n < epochMillisFrom:
		return time.Unix(n, 0).UTC(), nil
	case n < epochMicrosFrom:
		return time.UnixMilli(n).UTC(), nil
	case n < epochNanosFrom:
		return time.UnixMicro(n).UTC(), nil
	default:
		return time.Unix(0, n).UTC(), nil
	}
}
