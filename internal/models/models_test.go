package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pkg/errors"
)

func TestParseSide(t *testing.T) {
	for raw, want := range map[string]Side{"buy": SideBuy, " SELL ": SideSell, "Buy": SideBuy} {
		got, err := ParseSide(raw)
		if err != nil || got != want {
			t.Fatalf("ParseSide(%q)=%v,%v", raw, got, err)
		}
	}
	if _, err := ParseSide("long"); err == nil {
		t.Fatalf("long is not a side")
	}
	if SideBuy.Opposite() != SideSell || SideSell.Opposite() != SideBuy {
		t.Fatalf("Opposite is broken")
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses {
		got, err := ParseStatus(string(s))
		if err != nil || got != s {
			t.Fatalf("ParseStatus(%q)=%v,%v", s, got, err)
		}
	}
	if _, err := ParseStatus("done"); err == nil {
		t.Fatalf("unknown status must fail")
	}
}

func TestProperty_StatusTransitionsAreOneWay(t *testing.T) {
	properties := gopter.NewProperties(nil)
	statusGen := gen.IntRange(0, len(AllStatuses)-1).Map(func(i int) Status { return AllStatuses[i] })

	properties.Property("only new -> terminal is allowed", prop.ForAll(
		func(from, to Status) bool {
			return CanTransition(from, to) == (from == StatusNew && to != StatusNew)
		},
		statusGen, statusGen,
	))

	properties.Property("a terminal status is never left", prop.ForAll(
		func(path []Status) bool {
			cur := StatusNew
			moves := 0
			for _, next := range path {
				if CanTransition(cur, next) {
					cur = next
					moves++
				}
			}
			return moves <= 1
		},
		gen.SliceOf(statusGen),
	))

	properties.TestingRun(t)
}

func TestSignalAge(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := Signal{SignalTime: at}
	now := at.Add(10 * time.Minute).In(time.FixedZone("UTC+3", 3*3600))
	if got := s.Age(now); got != 10*time.Minute {
		t.Fatalf("age=%v", got)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{SourceError("fetch", errors.New("x")), KindSource},
		{errors.Wrap(ParseError("price", errors.New("x")), "record 2"), KindParse},
		{fmt.Errorf("cycle: %w", ErrAlreadyTerminal), KindStore},
		{ExchangeError("create order", nil), KindExchange},
		{errors.New("plain"), KindUnknown},
		{nil, KindUnknown},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v)=%v, want %v", tc.err, got, tc.want)
		}
	}
	if !errors.Is(fmt.Errorf("x: %w", ErrSignalNotFound), ErrSignalNotFound) {
		t.Fatalf("sentinel must survive wrapping")
	}
}
