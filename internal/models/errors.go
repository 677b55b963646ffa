package models

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind класс ошибки шага (fetch, normalize, createOrder, transition).
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindSource
	KindParse
	KindStore
	KindExchange
)

func (k ErrorKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindParse:
		return "parse"
	case KindStore:
		return "store"
	case KindExchange:
		return "exchange"
	default:
		return "unknown"
	}
}

// Error ошибка с классом и операцией.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func SourceError(op string, err error) error   { return &Error{Kind: KindSource, Op: op, Err: err} }
func ParseError(op string, err error) error    { return &Error{Kind: KindParse, Op: op, Err: err} }
func StoreError(op string, err error) error    { return &Error{Kind: KindStore, Op: op, Err: err} }
func ExchangeError(op string, err error) error { return &Error{Kind: KindExchange, Op: op, Err: err} }

// KindOf возвращает класс первой *Error в цепочке, иначе KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

var (
	ErrSignalNotFound  = StoreError("transition", errors.New("signal not found"))
	ErrAlreadyTerminal = StoreError("transition", errors.New("signal already in terminal status"))
)
