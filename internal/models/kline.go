package models

import "github.com/shopspring/decimal"

// KLine is one exchange candle. OpenTime and CloseTime are epoch milliseconds.
type KLine struct {
	OpenTime   int64
	OpenPrice  decimal.Decimal
	HighPrice  decimal.Decimal
	LowPrice   decimal.Decimal
	ClosePrice decimal.Decimal
	Volume     decimal.Decimal
	CloseTime  int64
}

// Closed reports whether the candle's interval has already ended at nowMs.
func (k KLine) Closed(nowMs int64) bool {
	return k.CloseTime < nowMs
}
