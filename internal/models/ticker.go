package models

// Ticker is a 24h rolling market summary for one symbol.
type Ticker struct {
	Symbol         string  `json:"symbol"`
	LastPrice      float64 `json:"last_price"`
	PriceChangePct float64 `json:"price_change_pct"`
	QuoteVolume    float64 `json:"quote_volume"`
	High           float64 `json:"high"`
	Low            float64 `json:"low"`
}
