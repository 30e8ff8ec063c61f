package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"signal_portal/internal/models"
	"signal_portal/internal/modules/config"
)

// Binance API error codes we care about.
const (
	codeUnknownSymbol = -1121
)

// Client fetches candle series from Binance spot. One shared rate limiter
// keeps the whole tick worker pool under the exchange request budget.
type Client struct {
	api     *binance.Client
	limiter *rate.Limiter
}

func NewClient(cfg *config.Config) *Client {
	api := binance.NewClient(cfg.Exchange.APIKey, cfg.Exchange.APISecret)
	rl := cfg.Exchange.RateLimit
	if rl <= 0 {
		rl = 10
	}
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(rl), 1),
	}
}

// GetCandles returns up to limit closed bars ascending by open time. The
// still-open last kline is dropped so only fully elapsed bars are evaluated.
func (c *Client) GetCandles(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &models.FetchError{Symbol: symbol, Timeframe: tf, Transient: true, Err: err}
	}

	klines, err := c.api.NewKlinesService().
		Symbol(symbol).
		Interval(string(tf)).
		Limit(limit + 1).
		Do(ctx)
	if err != nil {
		return nil, classify(symbol, tf, err)
	}

	now := time.Now().UnixMilli()
	out := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		if k.CloseTime >= now {
			continue // bar still open
		}
		candle, err := parseKline(k)
		if err != nil {
			return nil, &models.FetchError{Symbol: symbol, Timeframe: tf, Transient: false,
				Err: errors.Wrap(err, "malformed kline")}
		}
		out = append(out, candle)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// TopUSDTVolume lists the n USDT pairs with the highest 24h quote volume,
// the discovery source for the default watch grid.
func (c *Client) TopUSDTVolume(ctx context.Context, n int) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}
	stats, err := c.api.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "price change stats")
	}

	type pair struct {
		symbol string
		volume float64
	}
	pairs := make([]pair, 0, len(stats))
	for _, s := range stats {
		if len(s.Symbol) <= 4 || s.Symbol[len(s.Symbol)-4:] != "USDT" {
			continue
		}
		v, err := strconv.ParseFloat(s.QuoteVolume, 64)
		if err != nil {
			continue
		}
		pairs = append(pairs, pair{symbol: s.Symbol, volume: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].volume > pairs[j].volume })

	if n > len(pairs) {
		n = len(pairs)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = pairs[i].symbol
	}
	return out, nil
}

// GetTicker returns the 24h rolling stats for one symbol.
func (c *Client) GetTicker(ctx context.Context, symbol string) (models.Ticker, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.Ticker{}, errors.Wrap(err, "rate limiter")
	}
	stats, err := c.api.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return models.Ticker{}, classify(symbol, "", err)
	}
	if len(stats) == 0 {
		return models.Ticker{}, &models.FetchError{Symbol: symbol, Transient: false,
			Err: errors.New("no ticker data")}
	}
	s := stats[0]
	t := models.Ticker{Symbol: s.Symbol}
	t.LastPrice, _ = strconv.ParseFloat(s.LastPrice, 64)
	t.PriceChangePct, _ = strconv.ParseFloat(s.PriceChangePercent, 64)
	t.QuoteVolume, _ = strconv.ParseFloat(s.QuoteVolume, 64)
	t.High, _ = strconv.ParseFloat(s.HighPrice, 64)
	t.Low, _ = strconv.ParseFloat(s.LowPrice, 64)
	return t, nil
}

func parseKline(k *binance.Kline) (models.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return models.Candle{}, err
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return models.Candle{}, err
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return models.Candle{}, err
	}
	closeP, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return models.Candle{}, err
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return models.Candle{}, err
	}
	return models.Candle{
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closeP,
		Volume:   volume,
		OpenTime: time.UnixMilli(k.OpenTime).UTC(),
	}, nil
}

// classify splits exchange failures into transient (retry next tick) and
// permanent (skip until configuration removes the pair).
func classify(symbol string, tf models.Timeframe, err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		transient := apiErr.Code != codeUnknownSymbol
		return &models.FetchError{Symbol: symbol, Timeframe: tf, Transient: transient,
			Err: errors.Wrapf(err, "binance code %d", apiErr.Code)}
	}
	// network level failures are always worth retrying
	return &models.FetchError{Symbol: symbol, Timeframe: tf, Transient: true, Err: err}
}
