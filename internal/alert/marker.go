package alert

import "gitlab.com/lienminh/rsiscan/internal/models"

// MarkerBand is one Price3 alert band covering (Low, High].
type MarkerBand struct {
	Label string
	Low   int64
	High  int64
}

var markerBands = []MarkerBand{
	{"100-300", 100, 300},
	{"300-600", 300, 600},
	{"600-900", 600, 900},
	{"900-1200", 900, 1200},
	{"1200-1500", 1200, 1500},
	{"1500-1800", 1500, 1800},
	{"1800-2100", 1800, 2100},
}

const (
	// Funding gate for the price-marker channel: 0.005% to 2%.
	markerFundingMin = 0.00005
	markerFundingMax = 0.02
)

// PriceMarker is the second, independent alert channel: it fires when
// Price3 falls into one of the bands and the funding rate sits inside the
// gate. It neither replaces nor suppresses the RSI/funding category.
func PriceMarker(m models.CoinMetrics) (MarkerBand, bool) {
	if m.Price3 == nil || m.FundingRate == nil {
		return MarkerBand{}, false
	}
	if *m.FundingRate < markerFundingMin || *m.FundingRate > markerFundingMax {
		return MarkerBand{}, false
	}
	for _, b := range markerBands {
		if *m.Price3 > b.Low && *m.Price3 <= b.High {
			return b, true
		}
	}
	return MarkerBand{}, false
}
