// Package scan drives whole-market scans: it fans the per-symbol
// evaluator out in fixed-size batches, tolerates individual failures and
// sorts the aggregate.
package scan

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gitlab.com/lienminh/rsiscan/internal/indicator"
	"gitlab.com/lienminh/rsiscan/internal/models"
	"gitlab.com/lienminh/rsiscan/internal/signal"
)

// DefaultBatchSize bounds how many symbols are evaluated concurrently.
// Batches run strictly one after another to keep request pressure on the
// exchange flat.
const DefaultBatchSize = 10

// Gateway is the full market data contract the scanner needs: everything
// the evaluator uses plus the symbol universe.
type Gateway interface {
	signal.MarketData
	GetUSDTPerpetuals() ([]string, error)
}

type Scanner struct {
	gw        Gateway
	batchSize int
}

func New(gw Gateway, batchSize int) *Scanner {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Scanner{gw: gw, batchSize: batchSize}
}

// ScanRSI evaluates every active USDT perpetual and returns the surviving
// records sorted by RSI descending. A symbol that fails evaluation is
// logged and dropped; an empty universe yields an empty result.
func (s *Scanner) ScanRSI(now time.Time) ([]models.CoinMetrics, error) {
	symbols, err := s.gw.GetUSDTPerpetuals()
	if err != nil {
		return nil, errors.Wrap(err, "list perpetual pairs")
	}
	logrus.WithField("pairs", len(symbols)).Info("starting rsi scan")

	results := s.runBatches(symbols, func(symbol string) (*models.CoinMetrics, error) {
		m, err := signal.Evaluate(s.gw, symbol, now)
		if err != nil {
			return nil, err
		}
		return &m, nil
	})

	sort.Slice(results, func(i, j int) bool {
		return results[i].RSI > results[j].RSI
	})
	return results, nil
}

// ScanFunding is the lightweight variant: ticker and funding rate only, no
// candles and no RSI. Symbols without a funding rate are dropped. Results
// are sorted by funding rate descending.
func (s *Scanner) ScanFunding() ([]models.CoinMetrics, error) {
	symbols, err := s.gw.GetUSDTPerpetuals()
	if err != nil {
		return nil, errors.Wrap(err, "list perpetual pairs")
	}
	logrus.WithField("pairs", len(symbols)).Info("starting funding scan")

	results := s.runBatches(symbols, func(symbol string) (*models.CoinMetrics, error) {
		ticker, err := s.gw.Get24hTicker(symbol)
		if err != nil {
			return nil, errors.Wrap(err, "get ticker")
		}
		premium, err := s.gw.GetPremiumIndex(symbol)
		if err != nil {
			return nil, errors.Wrap(err, "get premium index")
		}
		rate := premium.LastFundingRate
		return &models.CoinMetrics{
			Symbol:          symbol,
			Price:           ticker.Price,
			Change24h:       ticker.Change24h,
			FundingRate:     &rate,
			NextFundingTime: premium.NextFundingTime,
		}, nil
	})

	sort.Slice(results, func(i, j int) bool {
		return *results[i].FundingRate > *results[j].FundingRate
	})
	return results, nil
}

// runBatches starts one goroutine per symbol within a batch, waits for the
// whole batch to settle, then appends the successes. The aggregate slice
// is only ever touched between batches.
func (s *Scanner) runBatches(symbols []string, eval func(string) (*models.CoinMetrics, error)) []models.CoinMetrics {
	results := make([]models.CoinMetrics, 0, len(symbols))
	for start := 0; start < len(symbols); start += s.batchSize {
		end := start + s.batchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		batch := symbols[start:end]

		metrics := make([]*models.CoinMetrics, len(batch))
		var wg sync.WaitGroup
		for i, symbol := range batch {
			wg.Add(1)
			go func(i int, symbol string) {
				defer wg.Done()
				m, err := eval(symbol)
				if err != nil {
					logrus.WithField("symbol", symbol).WithError(err).Warn("symbol skipped")
					return
				}
				metrics[i] = m
			}(i, symbol)
		}
		wg.Wait()

		for _, m := range metrics {
			if m != nil {
				results = append(results, *m)
			}
		}
	}
	return results
}

// RSIAtTimeResult is a retrospective RSI reading built from closed candles
// only, with no realtime tick blended in.
type RSIAtTimeResult struct {
	Symbol        string
	RSI           float64
	AtTime        int64
	ClosesUsed    int
	LastCloseTime int64
	PriceAtTime   float64
}

// RSIAtTime computes RSI(14) for symbol as of atTime, over the last 200
// 30m candles that closed strictly before that moment.
func (s *Scanner) RSIAtTime(symbol string, atTime time.Time) (RSIAtTimeResult, error) {
	atMs := atTime.UnixMilli()
	klines, err := s.gw.GetFuturesKLines(symbol, models.Minute30, 200, atMs)
	if err != nil {
		return RSIAtTimeResult{}, errors.Wrap(err, "get 30m klines")
	}
	if len(klines) < indicator.RSIPeriod+1 {
		return RSIAtTimeResult{}, indicator.ErrInsufficientData
	}
	if len(klines) > 200 {
		klines = klines[len(klines)-200:]
	}
	closes := make([]float64, 0, len(klines))
	for _, k := range klines {
		closes = append(closes, k.ClosePrice.InexactFloat64())
	}
	rsi, err := indicator.RSI(closes, indicator.RSIPeriod)
	if err != nil {
		return RSIAtTimeResult{}, errors.Wrap(err, "rsi")
	}
	last := klines[len(klines)-1]
	return RSIAtTimeResult{
		Symbol:        symbol,
		RSI:           rsi,
		AtTime:        atMs,
		ClosesUsed:    len(closes),
		LastCloseTime: last.CloseTime,
		PriceAtTime:   last.ClosePrice.InexactFloat64(),
	}, nil
}
