// Package alert classifies scan records into alert categories. The rules
// live in an ordered list so their precedence is visible and testable:
// the first matching rule wins and no record ever carries two categories.
package alert

import (
	"math"

	"gitlab.com/lienminh/rsiscan/internal/models"
)

type Status string

const (
	StatusRed    Status = "red"
	StatusBlack  Status = "black"
	StatusPink   Status = "pink"
	StatusYellow Status = "yellow"
	StatusGreen  Status = "green"
	StatusNone   Status = ""
)

const (
	// fundingAlertMin is 0.05% in decimal form.
	fundingAlertMin = 0.0005

	// The black alert matches two exact funding values, 0.005% and 0.01%,
	// compared in percentage space with an epsilon that absorbs float
	// representation error.
	blackFundingTargetA = 0.005
	blackFundingTargetB = 0.01
	blackFundingEps     = 0.0001
)

type rule struct {
	status Status
	match  func(m models.CoinMetrics) bool
}

var rules = []rule{
	{StatusRed, func(m models.CoinMetrics) bool {
		return m.RSI >= 85 && m.RSI <= 100 && fundingAtLeast(m, fundingAlertMin)
	}},
	{StatusBlack, func(m models.CoinMetrics) bool {
		return m.RSI >= 70 && blackFunding(m)
	}},
	{StatusPink, func(m models.CoinMetrics) bool {
		return m.IsShortSignal != nil && *m.IsShortSignal &&
			m.RSI >= 70 && m.RSI <= 79 && fundingAtLeast(m, fundingAlertMin)
	}},
	{StatusYellow, func(m models.CoinMetrics) bool {
		return m.RSI >= 75 && m.RSI <= 79 && fundingAtLeast(m, fundingAlertMin)
	}},
	{StatusGreen, func(m models.CoinMetrics) bool {
		return m.RSI >= 70 && fundingAtLeast(m, fundingAlertMin)
	}},
}

// Classify maps a scan record to at most one alert category.
func Classify(m models.CoinMetrics) Status {
	for _, r := range rules {
		if r.match(m) {
			return r.status
		}
	}
	return StatusNone
}

// fundingAtLeast treats an absent funding rate as a non-match. An unknown
// rate is not a rate of zero.
func fundingAtLeast(m models.CoinMetrics, min float64) bool {
	return m.FundingRate != nil && *m.FundingRate >= min
}

func blackFunding(m models.CoinMetrics) bool {
	if m.FundingRate == nil {
		return false
	}
	pct := *m.FundingRate * 100
	return math.Abs(pct-blackFundingTargetA) < blackFundingEps ||
		math.Abs(pct-blackFundingTargetB) < blackFundingEps
}
