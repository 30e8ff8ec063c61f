package models

import (
	"fmt"
	"time"
)

type Direction string

const (
	DirLong  Direction = "LONG"
	DirShort Direction = "SHORT"
)

// Snapshot carries the indicator values at the moment a signal fired.
// Nil pointers mean the strategy does not use that indicator.
type Snapshot struct {
	RSI        *float64           `json:"rsi,omitempty"`
	MACD       *float64           `json:"macd,omitempty"`
	MACDSignal *float64           `json:"macd_signal,omitempty"`
	EMA50      *float64           `json:"ema50,omitempty"`
	Raw        map[string]float64 `json:"raw,omitempty"`
}

// Signal is one emitted alert. Immutable after creation.
type Signal struct {
	Symbol         string       `json:"symbol"`
	Timeframe      Timeframe    `json:"timeframe"`
	Strategy       StrategyKind `json:"strategy"`
	Direction      Direction    `json:"direction"`
	Price          float64      `json:"price"`
	Message        string       `json:"message"`
	Snapshot       Snapshot     `json:"snapshot"`
	TriggerBarTime time.Time    `json:"trigger_bar_time"`
	EmittedAt      time.Time    `json:"emitted_at"`
}

// Pair is one (symbol, timeframe) evaluation target.
type Pair struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
}

func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Symbol, p.Timeframe)
}

// DedupKey identifies the "has this alert already fired" bookkeeping entry.
type DedupKey struct {
	Symbol    string
	Timeframe Timeframe
	Strategy  StrategyKind
}

func (k DedupKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Symbol, k.Timeframe, k.Strategy)
}

// Filter is a conjunctive subscriber filter; empty fields match everything.
type Filter struct {
	Symbols    []string       `json:"symbols,omitempty"`
	Timeframes []Timeframe    `json:"timeframes,omitempty"`
	Strategies []StrategyKind `json:"strategies,omitempty"`
}

func (f Filter) Match(s Signal) bool {
	if len(f.Symbols) > 0 && !containsString(f.Symbols, s.Symbol) {
		return false
	}
	if len(f.Timeframes) > 0 && !containsTF(f.Timeframes, s.Timeframe) {
		return false
	}
	if len(f.Strategies) > 0 && !containsKind(f.Strategies, s.Strategy) {
		return false
	}
	return true
}

func containsString(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func containsTF(xs []Timeframe, v Timeframe) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func containsKind(xs []StrategyKind, v StrategyKind) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// Float is a shorthand for optional snapshot values.
func Float(v float64) *float64 { return &v }
