package models

// Ticker is a realtime snapshot of a symbol: last traded price and 24h change.
type Ticker struct {
	Price     float64
	Change24h float64
}

// PremiumIndex carries mark/index prices and the current funding data.
// All values come from a single exchange endpoint.
type PremiumIndex struct {
	MarkPrice       float64
	IndexPrice      float64
	LastFundingRate float64
	NextFundingTime int64
}

// CoinMetrics is the per-symbol result of one scan. It is built once per
// scan and never mutated afterwards. Pointer fields are absent when the
// corresponding computation failed or did not apply; consumers must not
// read absence as zero.
type CoinMetrics struct {
	Symbol          string   `json:"symbol"`
	RSI             float64  `json:"rsi"`
	Price           float64  `json:"price"`
	Change24h       float64  `json:"change24h"`
	MarkPrice       *float64 `json:"markPrice,omitempty"`
	IndexPrice      *float64 `json:"indexPrice,omitempty"`
	FundingRate     *float64 `json:"fundingRate,omitempty"`
	NextFundingTime int64    `json:"nextFundingTime,omitempty"`
	// PriceDifference is ((price - first1mClose) / first1mClose) * 100 where
	// first1mClose is the close of the first 1m candle after the last closed
	// 30m candle.
	PriceDifference *float64 `json:"priceDifference,omitempty"`
	IsShortSignal   *bool    `json:"isShortSignal,omitempty"`
	// Price2 is the close of the most recent of the last seven closed 30m
	// candles whose backward-looking RSI sat in [45,55].
	Price2 *float64 `json:"price2,omitempty"`
	// Price3 is the fractional-digit magnitude of |Price2 - Price|,
	// e.g. a difference of 0.005578 gives 5578.
	Price3 *int64 `json:"price3,omitempty"`
}
