package alert

import (
	"testing"

	"gitlab.com/lienminh/rsiscan/internal/models"
)

func coin(rsi float64, funding *float64, short *bool) models.CoinMetrics {
	return models.CoinMetrics{
		Symbol:        "TESTUSDT",
		RSI:           rsi,
		FundingRate:   funding,
		IsShortSignal: short,
	}
}

func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		m    models.CoinMetrics
		want Status
	}{
		{"red", coin(92, fptr(0.0007), nil), StatusRed},
		{"red lower bound", coin(85, fptr(0.0005), nil), StatusRed},
		{"black at 0.005 percent", coin(72, fptr(0.00005), nil), StatusBlack},
		{"black at 0.01 percent", coin(90, fptr(0.0001), nil), StatusBlack},
		{"pink", coin(76, fptr(0.0006), bptr(true)), StatusPink},
		{"yellow", coin(76, fptr(0.0006), nil), StatusYellow},
		{"yellow short false", coin(76, fptr(0.0006), bptr(false)), StatusYellow},
		{"green", coin(71, fptr(0.001), nil), StatusGreen},
		{"rsi below everything", coin(69.99, fptr(0.01), nil), StatusNone},
		{"funding too small", coin(95, fptr(0.0004), nil), StatusNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.m); got != tc.want {
				t.Errorf("Classify(%+v) = %q, want %q", tc.m, got, tc.want)
			}
		})
	}
}

func TestClassify_Precedence(t *testing.T) {
	// Satisfies pink, yellow and green at once; only the first rule fires.
	m := coin(78, fptr(0.0007), bptr(true))
	if got := Classify(m); got != StatusPink {
		t.Errorf("pink must beat yellow and green, got %q", got)
	}

	m = coin(92, fptr(0.0007), bptr(true))
	if got := Classify(m); got != StatusRed {
		t.Errorf("red must beat everything, got %q", got)
	}

	// Black outranks pink/yellow/green when the exact funding value hits.
	m = coin(76, fptr(0.0001), bptr(true))
	if got := Classify(m); got != StatusBlack {
		t.Errorf("black must beat pink, got %q", got)
	}
}

func TestClassify_AbsentFundingIsNotZero(t *testing.T) {
	if got := Classify(coin(95, nil, nil)); got != StatusNone {
		t.Errorf("absent funding must not alert, got %q", got)
	}
	// A real funding rate of zero is also below every gate, but it must
	// flow through the predicates, not be conjured from absence.
	if got := Classify(coin(95, fptr(0), nil)); got != StatusNone {
		t.Errorf("zero funding must not alert, got %q", got)
	}
}

func TestClassify_BlackEpsilon(t *testing.T) {
	// Values inside the percentage-space epsilon of 0.005% still match.
	if got := Classify(coin(72, fptr(0.0000500000001), nil)); got != StatusBlack {
		t.Errorf("funding within epsilon must be black, got %q", got)
	}
	if got := Classify(coin(72, fptr(0.00008), nil)); got == StatusBlack {
		t.Errorf("funding outside epsilon must not be black")
	}
}

func i64ptr(v int64) *int64 { return &v }

func TestPriceMarker(t *testing.T) {
	base := models.CoinMetrics{FundingRate: fptr(0.0001)}

	cases := []struct {
		name   string
		m      models.CoinMetrics
		label  string
		wantOK bool
	}{
		{"below first band", withPrice3(base, 100), "", false},
		{"first band low edge", withPrice3(base, 101), "100-300", true},
		{"first band high edge", withPrice3(base, 300), "100-300", true},
		{"second band", withPrice3(base, 301), "300-600", true},
		{"middle band", withPrice3(base, 1000), "900-1200", true},
		{"last band", withPrice3(base, 2100), "1800-2100", true},
		{"past last band", withPrice3(base, 2101), "", false},
		{"tiny marker", withPrice3(base, 7), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			band, ok := PriceMarker(tc.m)
			if ok != tc.wantOK {
				t.Fatalf("PriceMarker ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && band.Label != tc.label {
				t.Errorf("PriceMarker label = %q, want %q", band.Label, tc.label)
			}
		})
	}
}

func TestPriceMarker_FundingGate(t *testing.T) {
	m := models.CoinMetrics{Price3: i64ptr(500)}

	if _, ok := PriceMarker(m); ok {
		t.Error("absent funding must not fire the marker alert")
	}

	m.FundingRate = fptr(0.00004)
	if _, ok := PriceMarker(m); ok {
		t.Error("funding below gate must not fire")
	}

	m.FundingRate = fptr(0.00005)
	if _, ok := PriceMarker(m); !ok {
		t.Error("funding at lower gate edge must fire")
	}

	m.FundingRate = fptr(0.02)
	if _, ok := PriceMarker(m); !ok {
		t.Error("funding at upper gate edge must fire")
	}

	m.FundingRate = fptr(0.021)
	if _, ok := PriceMarker(m); ok {
		t.Error("funding above gate must not fire")
	}
}

func withPrice3(m models.CoinMetrics, v int64) models.CoinMetrics {
	m.Price3 = &v
	return m
}
