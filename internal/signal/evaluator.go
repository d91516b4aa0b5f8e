// Package signal evaluates one symbol at a time: it assembles the close
// series the scan works on, computes RSI, the price-difference marker, the
// SHORT signal and the mean-reversion price markers.
package signal

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gitlab.com/lienminh/rsiscan/internal/indicator"
	"gitlab.com/lienminh/rsiscan/internal/models"
)

// MarketData is the slice of the exchange gateway the evaluator needs.
type MarketData interface {
	Get24hTicker(symbol string) (models.Ticker, error)
	GetPremiumIndex(symbol string) (models.PremiumIndex, error)
	GetFuturesKLines(symbol string, interval models.TimeFrame, limit int, endTime int64) ([]models.KLine, error)
}

const (
	// closedWindow closed 30m closes plus one realtime tick feed RSI(14),
	// so the full series is seriesLen long.
	closedWindow = 200
	seriesLen    = closedWindow + 1

	// markerWindow is how many of the most recent closed candles are
	// scanned for a neutral-RSI close (Price2).
	markerWindow  = 7
	markerRSILow  = 45
	markerRSIHigh = 55
)

// Evaluate builds the CoinMetrics record for symbol as of now. The record
// is produced only when the primary RSI is computable; the secondary
// fields (price difference, SHORT signal, Price2/Price3) are left nil when
// their own computation fails.
func Evaluate(md MarketData, symbol string, now time.Time) (models.CoinMetrics, error) {
	nowMs := now.UnixMilli()

	ticker, err := md.Get24hTicker(symbol)
	if err != nil {
		return models.CoinMetrics{}, errors.Wrap(err, "get ticker")
	}

	metrics := models.CoinMetrics{
		Symbol:    symbol,
		Price:     ticker.Price,
		Change24h: ticker.Change24h,
	}

	// Funding is optional: an unreachable premium index leaves the field
	// absent rather than failing the symbol.
	if premium, err := md.GetPremiumIndex(symbol); err != nil {
		logrus.WithField("symbol", symbol).WithError(err).Warn("funding rate unavailable")
	} else {
		rate := premium.LastFundingRate
		markPrice := premium.MarkPrice
		indexPrice := premium.IndexPrice
		metrics.FundingRate = &rate
		metrics.NextFundingTime = premium.NextFundingTime
		metrics.MarkPrice = &markPrice
		metrics.IndexPrice = &indexPrice
	}

	raw, err := md.GetFuturesKLines(symbol, models.Minute30, seriesLen, 0)
	if err != nil {
		return models.CoinMetrics{}, errors.Wrap(err, "get 30m klines")
	}
	if len(raw) < closedWindow {
		return models.CoinMetrics{}, errors.Errorf("only %d raw 30m klines", len(raw))
	}

	closed := make([]models.KLine, 0, len(raw))
	for _, k := range raw {
		if k.Closed(nowMs) {
			closed = append(closed, k)
		}
	}
	if len(closed) < closedWindow {
		return models.CoinMetrics{}, errors.Errorf("only %d closed 30m klines", len(closed))
	}

	last200 := closed[len(closed)-closedWindow:]
	closes := make([]float64, 0, seriesLen)
	for _, k := range last200 {
		closes = append(closes, k.ClosePrice.InexactFloat64())
	}
	allCloses := append(closes, ticker.Price)
	if len(allCloses) != seriesLen {
		return models.CoinMetrics{}, errors.Errorf("close series length %d, want %d", len(allCloses), seriesLen)
	}

	rsi, err := indicator.RSI(allCloses, indicator.RSIPeriod)
	if err != nil {
		return models.CoinMetrics{}, errors.Wrap(err, "rsi")
	}
	metrics.RSI = rsi

	if diff, err := priceDifference(md, symbol, ticker.Price, closed); err != nil {
		logrus.WithField("symbol", symbol).WithError(err).Warn("price difference unavailable")
	} else {
		metrics.PriceDifference = &diff

		if short, err := shortSignal(raw, closed, ticker.Price, diff); err != nil {
			logrus.WithField("symbol", symbol).WithError(err).Warn("short signal unavailable")
		} else {
			metrics.IsShortSignal = &short
		}
	}

	metrics.Price2, metrics.Price3 = priceMarkers(last200, closes, ticker.Price)

	return metrics, nil
}

// priceDifference returns the percentage change between price and the
// close of the first 1m candle after the most recent closed 30m candle.
func priceDifference(md MarketData, symbol string, price float64, closed30m []models.KLine) (float64, error) {
	if len(closed30m) == 0 {
		return 0, errors.New("no closed 30m klines")
	}
	boundary := closed30m[len(closed30m)-1].CloseTime

	// 35 one-minute candles cover the whole 30m bucket plus slack.
	klines1m, err := md.GetFuturesKLines(symbol, models.Minute, 35, 0)
	if err != nil {
		return 0, errors.Wrap(err, "get 1m klines")
	}
	if len(klines1m) == 0 {
		return 0, errors.New("no 1m klines")
	}

	var first1m *models.KLine
	for i := range klines1m {
		if klines1m[i].OpenTime == boundary {
			first1m = &klines1m[i]
			break
		}
	}
	if first1m == nil {
		// The exchange stamps closeTime one millisecond short of the next
		// bucket, so fall back to the first candle opening within a minute
		// of the boundary.
		for i := range klines1m {
			if klines1m[i].OpenTime >= boundary && klines1m[i].OpenTime < boundary+models.Minute.Duration().Milliseconds() {
				first1m = &klines1m[i]
				break
			}
		}
	}
	if first1m == nil {
		return 0, errors.New("no 1m kline after 30m boundary")
	}

	base := first1m.ClosePrice.InexactFloat64()
	if base == 0 {
		return 0, errors.New("first 1m close is zero")
	}
	return (price - base) / base * 100, nil
}

// shortSignal checks the three SHORT conditions on the currently forming
// 30m candle: the price-difference marker is negative, the candle high
// pierced the upper Bollinger band, and the price is back under it. The
// band is computed over the last 20 closed closes plus the realtime price.
func shortSignal(raw, closed30m []models.KLine, price, priceDiff float64) (bool, error) {
	if len(raw) == 0 {
		return false, errors.New("no raw 30m klines")
	}
	forming := raw[len(raw)-1]

	if len(closed30m) < indicator.BollingerPeriod {
		return false, indicator.ErrInsufficientData
	}
	closesForBB := make([]float64, 0, indicator.BollingerPeriod+1)
	for _, k := range closed30m[len(closed30m)-indicator.BollingerPeriod:] {
		closesForBB = append(closesForBB, k.ClosePrice.InexactFloat64())
	}
	closesForBB = append(closesForBB, price)

	bands, err := indicator.BollingerBands(closesForBB, indicator.BollingerPeriod, indicator.BollingerMultiplier)
	if err != nil {
		return false, errors.Wrap(err, "bollinger bands")
	}

	high := forming.HighPrice.InexactFloat64()
	condRedCandle := priceDiff < 0
	condPierced := high > bands.Upper
	condBelowBand := price < bands.Upper
	return condRedCandle && condPierced && condBelowBand, nil
}

// priceMarkers finds Price2 and Price3. Scanning runs newest to oldest
// over the last markerWindow closed candles; the first close whose
// backward-looking RSI is neutral wins.
func priceMarkers(last200 []models.KLine, closes []float64, price float64) (*float64, *int64) {
	var price2 *float64
	start := len(last200) - markerWindow
	if start < 0 {
		start = 0
	}
	for i := len(last200) - 1; i >= start && i >= indicator.RSIPeriod; i-- {
		rsiAt, err := indicator.RSI(closes[:i+1], indicator.RSIPeriod)
		if err != nil {
			continue
		}
		if rsiAt >= markerRSILow && rsiAt <= markerRSIHigh {
			v := last200[i].ClosePrice.InexactFloat64()
			price2 = &v
			break
		}
	}
	if price2 == nil {
		return nil, nil
	}
	m3 := marker3(*price2, price)
	return price2, &m3
}
