package models

import "fmt"

// StrategyKind is the closed set of strategy variants.
type StrategyKind string

const (
	KindRSI      StrategyKind = "RSI"
	KindMACD     StrategyKind = "MACD"
	KindGCM      StrategyKind = "GCM"
	KindRSIEMA50 StrategyKind = "RSI_EMA50"
	KindScalping StrategyKind = "SCALPING"
	KindSwing    StrategyKind = "SWING_TRADE"
	KindDayTrade StrategyKind = "DAY_TRADE"
	KindCombo    StrategyKind = "COMBO"
	KindJFN      StrategyKind = "JFN"
)

// AllStrategyKinds in evaluation order.
var AllStrategyKinds = []StrategyKind{
	KindRSI, KindMACD, KindGCM, KindRSIEMA50,
	KindScalping, KindSwing, KindDayTrade, KindCombo, KindJFN,
}

func (k StrategyKind) Valid() bool {
	for _, v := range AllStrategyKinds {
		if v == k {
			return true
		}
	}
	return false
}

type RSIParams struct {
	Period       int     `json:"period" yaml:"period"`
	SignalPeriod int     `json:"signal_period" yaml:"signal_period"`
	Overbought   float64 `json:"overbought" yaml:"overbought"`
	Oversold     float64 `json:"oversold" yaml:"oversold"`
	UseEMAFilter bool    `json:"use_ema_filter" yaml:"use_ema_filter"`
}

type MACDParams struct {
	FastPeriod   int `json:"fast_period" yaml:"fast_period"`
	SlowPeriod   int `json:"slow_period" yaml:"slow_period"`
	SignalPeriod int `json:"signal_period" yaml:"signal_period"`
}

type GCMParams struct {
	Length int `json:"length" yaml:"length"`
	Smooth int `json:"smooth" yaml:"smooth"`
}

type RSIEMA50Params struct {
	RSIPeriod  int     `json:"rsi_period" yaml:"rsi_period"`
	RSISignal  int     `json:"rsi_signal" yaml:"rsi_signal"`
	EMAPeriod  int     `json:"ema_period" yaml:"ema_period"`
	Overbought float64 `json:"overbought" yaml:"overbought"`
	Oversold   float64 `json:"oversold" yaml:"oversold"`
}

type ScalpingParams struct {
	EMAFast    int     `json:"ema_fast" yaml:"ema_fast"`
	EMASlow    int     `json:"ema_slow" yaml:"ema_slow"`
	RSIPeriod  int     `json:"rsi_period" yaml:"rsi_period"`
	RSINeutral float64 `json:"rsi_neutral" yaml:"rsi_neutral"`
}

type SwingParams struct {
	Length    int `json:"length" yaml:"length"`
	Smooth    int `json:"smooth" yaml:"smooth"`
	EMAFilter int `json:"ema_filter" yaml:"ema_filter"`
}

type DayTradeParams struct {
	MACDFast      int `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow      int `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal    int `json:"macd_signal" yaml:"macd_signal"`
	RSIPeriod     int `json:"rsi_period" yaml:"rsi_period"`
	RSIMAPeriod   int `json:"rsi_ma_period" yaml:"rsi_ma_period"`
	ConfirmWindow int `json:"confirm_window" yaml:"confirm_window"`
}

type ComboParams struct {
	RSIPeriod     int  `json:"rsi_period" yaml:"rsi_period"`
	RSISignal     int  `json:"rsi_signal" yaml:"rsi_signal"`
	MACDFast      int  `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow      int  `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal    int  `json:"macd_signal" yaml:"macd_signal"`
	ConfirmWindow int  `json:"confirm_window" yaml:"confirm_window"`
	RequireEMA50  bool `json:"require_ema50" yaml:"require_ema50"`
	AllowMixedDir bool `json:"allow_mixed_dir" yaml:"allow_mixed_dir"`
}

type JFNParams struct {
	FastLength   int     `json:"fast_length" yaml:"fast_length"`
	SlowLength   int     `json:"slow_length" yaml:"slow_length"`
	TakePct      float64 `json:"take_pct" yaml:"take_pct"`
	StopPct      float64 `json:"stop_pct" yaml:"stop_pct"`
	MaxHoldBars  int     `json:"max_hold_bars" yaml:"max_hold_bars"`
	TradesWindow int     `json:"trades_window" yaml:"trades_window"`
	AssertMin    float64 `json:"assert_min" yaml:"assert_min"`
}

// StrategyConfig holds every strategy's parameter payload. Replaced wholesale
// on configuration update, never mutated in place.
type StrategyConfig struct {
	RSI      RSIParams      `json:"rsi" yaml:"rsi"`
	MACD     MACDParams     `json:"macd" yaml:"macd"`
	GCM      GCMParams      `json:"gcm" yaml:"gcm"`
	RSIEMA50 RSIEMA50Params `json:"rsi_ema50" yaml:"rsi_ema50"`
	Scalping ScalpingParams `json:"scalping" yaml:"scalping"`
	Swing    SwingParams    `json:"swing_trade" yaml:"swing_trade"`
	DayTrade DayTradeParams `json:"day_trade" yaml:"day_trade"`
	Combo    ComboParams    `json:"combo" yaml:"combo"`
	JFN      JFNParams      `json:"jfn" yaml:"jfn"`
}

// DefaultStrategyConfig mirrors the stock parameter set.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		RSI:      RSIParams{Period: 14, SignalPeriod: 9, Overbought: 85, Oversold: 15, UseEMAFilter: true},
		MACD:     MACDParams{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9},
		GCM:      GCMParams{Length: 10, Smooth: 5},
		RSIEMA50: RSIEMA50Params{RSIPeriod: 14, RSISignal: 9, EMAPeriod: 50, Overbought: 80, Oversold: 20},
		Scalping: ScalpingParams{EMAFast: 9, EMASlow: 50, RSIPeriod: 14, RSINeutral: 50},
		Swing:    SwingParams{Length: 14, Smooth: 7, EMAFilter: 100},
		DayTrade: DayTradeParams{MACDFast: 12, MACDSlow: 26, MACDSignal: 9, RSIPeriod: 14, RSIMAPeriod: 9, ConfirmWindow: 6},
		Combo:    ComboParams{RSIPeriod: 14, RSISignal: 9, MACDFast: 12, MACDSlow: 26, MACDSignal: 9, ConfirmWindow: 6, RequireEMA50: true},
		JFN:      JFNParams{FastLength: 20, SlowLength: 50, TakePct: 1.6, StopPct: 0.8, MaxHoldBars: 120, TradesWindow: 50, AssertMin: 40},
	}
}

// Validate rejects parameter sets the evaluators cannot run with. The prior
// valid configuration stays active when this fails.
func (c StrategyConfig) Validate() error {
	check := func(name string, vals ...int) error {
		for _, v := range vals {
			if v <= 0 {
				return fmt.Errorf("config %s: period must be positive, got %d", name, v)
			}
		}
		return nil
	}
	if err := check("rsi", c.RSI.Period, c.RSI.SignalPeriod); err != nil {
		return err
	}
	if c.RSI.Oversold >= c.RSI.Overbought {
		return fmt.Errorf("config rsi: oversold %.1f must be below overbought %.1f", c.RSI.Oversold, c.RSI.Overbought)
	}
	if err := check("macd", c.MACD.FastPeriod, c.MACD.SlowPeriod, c.MACD.SignalPeriod); err != nil {
		return err
	}
	if c.MACD.FastPeriod >= c.MACD.SlowPeriod {
		return fmt.Errorf("config macd: fast period %d must be below slow period %d", c.MACD.FastPeriod, c.MACD.SlowPeriod)
	}
	if err := check("gcm", c.GCM.Length, c.GCM.Smooth); err != nil {
		return err
	}
	if err := check("rsi_ema50", c.RSIEMA50.RSIPeriod, c.RSIEMA50.RSISignal, c.RSIEMA50.EMAPeriod); err != nil {
		return err
	}
	if c.RSIEMA50.Oversold >= c.RSIEMA50.Overbought {
		return fmt.Errorf("config rsi_ema50: oversold %.1f must be below overbought %.1f", c.RSIEMA50.Oversold, c.RSIEMA50.Overbought)
	}
	if err := check("scalping", c.Scalping.EMAFast, c.Scalping.EMASlow, c.Scalping.RSIPeriod); err != nil {
		return err
	}
	if err := check("swing_trade", c.Swing.Length, c.Swing.Smooth, c.Swing.EMAFilter); err != nil {
		return err
	}
	if err := check("day_trade", c.DayTrade.MACDFast, c.DayTrade.MACDSlow, c.DayTrade.MACDSignal,
		c.DayTrade.RSIPeriod, c.DayTrade.RSIMAPeriod, c.DayTrade.ConfirmWindow); err != nil {
		return err
	}
	if err := check("combo", c.Combo.RSIPeriod, c.Combo.RSISignal, c.Combo.MACDFast,
		c.Combo.MACDSlow, c.Combo.MACDSignal, c.Combo.ConfirmWindow); err != nil {
		return err
	}
	if err := check("jfn", c.JFN.FastLength, c.JFN.SlowLength, c.JFN.MaxHoldBars); err != nil {
		return err
	}
	return nil
}

// ActiveMatrix maps a strategy kind to the pairs it currently watches.
type ActiveMatrix map[StrategyKind][]Pair

// Clone makes a deep copy so tick workers read a stable snapshot.
func (m ActiveMatrix) Clone() ActiveMatrix {
	out := make(ActiveMatrix, len(m))
	for k, pairs := range m {
		cp := make([]Pair, len(pairs))
		copy(cp, pairs)
		out[k] = cp
	}
	return out
}

// Pairs returns the distinct (symbol, timeframe) targets across all kinds,
// so each pair is fetched once per tick.
func (m ActiveMatrix) Pairs() []Pair {
	seen := make(map[Pair]struct{})
	var out []Pair
	for _, kind := range AllStrategyKinds {
		for _, p := range m[kind] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// StrategiesFor lists the kinds targeting a pair, in stable order.
func (m ActiveMatrix) StrategiesFor(p Pair) []StrategyKind {
	var out []StrategyKind
	for _, kind := range AllStrategyKinds {
		for _, q := range m[kind] {
			if q == p {
				out = append(out, kind)
				break
			}
		}
	}
	return out
}

// BuildMatrix enables every kind in kinds for the full symbols × timeframes
// grid, the way the stock configuration activates strategies.
func BuildMatrix(kinds []StrategyKind, symbols []string, timeframes []Timeframe) ActiveMatrix {
	m := make(ActiveMatrix, len(kinds))
	for _, k := range kinds {
		pairs := make([]Pair, 0, len(symbols)*len(timeframes))
		for _, s := range symbols {
			for _, tf := range timeframes {
				pairs = append(pairs, Pair{Symbol: s, Timeframe: tf})
			}
		}
		m[k] = pairs
	}
	return m
}
