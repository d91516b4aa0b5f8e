package scan

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gitlab.com/lienminh/rsiscan/internal/models"
)

var testNow = time.UnixMilli(1700000000000)

const thirtyMinMs = 30 * 60 * 1000

type fakeGateway struct {
	symbols     []string
	failSymbols map[string]bool
	candles     map[string][]models.KLine

	inFlight    int32
	maxInFlight int32
	tickerCalls int32
}

func (f *fakeGateway) GetUSDTPerpetuals() ([]string, error) {
	return f.symbols, nil
}

func (f *fakeGateway) Get24hTicker(symbol string) (models.Ticker, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, cur) {
			break
		}
	}
	atomic.AddInt32(&f.tickerCalls, 1)
	time.Sleep(5 * time.Millisecond)

	if f.failSymbols[symbol] {
		return models.Ticker{}, errors.New("ticker down")
	}
	return models.Ticker{Price: 100, Change24h: 1}, nil
}

func (f *fakeGateway) GetPremiumIndex(symbol string) (models.PremiumIndex, error) {
	// Distinct rates per symbol so the funding sort is observable.
	var n int
	fmt.Sscanf(symbol, "SYM%dUSDT", &n)
	return models.PremiumIndex{LastFundingRate: float64(n) * 0.0001}, nil
}

func (f *fakeGateway) GetFuturesKLines(symbol string, interval models.TimeFrame, limit int, endTime int64) ([]models.KLine, error) {
	klines := f.candles[symbol]
	if endTime != 0 {
		filtered := make([]models.KLine, 0, len(klines))
		for _, k := range klines {
			if k.CloseTime < endTime {
				filtered = append(filtered, k)
			}
		}
		klines = filtered
	}
	if len(klines) > limit {
		klines = klines[len(klines)-limit:]
	}
	return klines, nil
}

func symbols(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("SYM%dUSDT", i+1)
	}
	return out
}

func series(nowMs int64, n int, step float64) []models.KLine {
	klines := make([]models.KLine, 0, n)
	for i := 0; i < n; i++ {
		openTime := nowMs - int64(n-i)*thirtyMinMs
		d := decimal.NewFromFloat(100 + float64(i)*step)
		klines = append(klines, models.KLine{
			OpenTime:   openTime,
			OpenPrice:  d,
			HighPrice:  d,
			LowPrice:   d,
			ClosePrice: d,
			CloseTime:  openTime + thirtyMinMs - 1,
		})
	}
	return klines
}

func TestScanFunding_BatchingAndSort(t *testing.T) {
	gw := &fakeGateway{symbols: symbols(25)}
	s := New(gw, 10)

	coins, err := s.ScanFunding()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(coins) != 25 {
		t.Fatalf("expected 25 coins, got %d", len(coins))
	}
	if calls := atomic.LoadInt32(&gw.tickerCalls); calls != 25 {
		t.Errorf("expected 25 ticker calls, got %d", calls)
	}
	// Three batches of 10, 10 and 5: concurrency tops out at the batch
	// size and never exceeds it.
	if max := atomic.LoadInt32(&gw.maxInFlight); max != 10 {
		t.Errorf("max concurrent evaluations = %d, want 10", max)
	}
	for i := 1; i < len(coins); i++ {
		if *coins[i-1].FundingRate < *coins[i].FundingRate {
			t.Fatalf("funding sort violated at %d: %v < %v", i, *coins[i-1].FundingRate, *coins[i].FundingRate)
		}
	}
}

func TestScanFunding_FailedSymbolDropped(t *testing.T) {
	gw := &fakeGateway{
		symbols:     symbols(12),
		failSymbols: map[string]bool{"SYM3USDT": true},
	}
	s := New(gw, 10)

	coins, err := s.ScanFunding()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(coins) != 11 {
		t.Fatalf("expected 11 coins after one failure, got %d", len(coins))
	}
	for _, c := range coins {
		if c.Symbol == "SYM3USDT" {
			t.Error("failed symbol leaked into results")
		}
	}
}

func TestScanRSI_PartialUniverse(t *testing.T) {
	syms := symbols(3)
	gw := &fakeGateway{
		symbols: syms,
		candles: map[string][]models.KLine{
			// SYM2 has only 150 closed candles and must be dropped.
			syms[0]: series(testNow.UnixMilli(), 201, 1),
			syms[1]: series(testNow.UnixMilli(), 150, 1),
			syms[2]: series(testNow.UnixMilli(), 201, 1),
		},
	}
	s := New(gw, 10)

	coins, err := s.ScanRSI(testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(coins) != 2 {
		t.Fatalf("expected 2 coins, got %d", len(coins))
	}
	for _, c := range coins {
		if c.Symbol == syms[1] {
			t.Error("symbol with short history leaked into results")
		}
		if c.RSI <= 0 {
			t.Errorf("%s: missing RSI", c.Symbol)
		}
	}
	for i := 1; i < len(coins); i++ {
		if coins[i-1].RSI < coins[i].RSI {
			t.Fatalf("rsi sort violated at %d", i)
		}
	}
}

func TestRSIAtTime_ClosedCandlesOnly(t *testing.T) {
	syms := symbols(1)
	at := testNow.Add(-3 * time.Hour)
	gw := &fakeGateway{
		symbols: syms,
		candles: map[string][]models.KLine{
			syms[0]: series(testNow.UnixMilli(), 400, 1),
		},
	}
	s := New(gw, 10)

	res, err := s.RSIAtTime(syms[0], at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ClosesUsed != 200 {
		t.Errorf("closes used = %d, want 200", res.ClosesUsed)
	}
	if res.LastCloseTime >= at.UnixMilli() {
		t.Errorf("last candle closes at %d, not strictly before %d", res.LastCloseTime, at.UnixMilli())
	}
	if res.RSI != 100 {
		t.Errorf("uptrend at any point in time is fully overbought, got %v", res.RSI)
	}
}

func TestRSIAtTime_InsufficientHistory(t *testing.T) {
	syms := symbols(1)
	gw := &fakeGateway{
		symbols: syms,
		candles: map[string][]models.KLine{
			syms[0]: series(testNow.UnixMilli(), 10, 1),
		},
	}
	s := New(gw, 10)

	if _, err := s.RSIAtTime(syms[0], testNow); err == nil {
		t.Fatal("expected error with 10 candles of history")
	}
}
