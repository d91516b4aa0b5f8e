// Package indicator holds the pure numeric indicator functions. None of
// them do I/O and all of them report missing history through
// ErrInsufficientData instead of returning a value that could be mistaken
// for a real reading.
package indicator

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInsufficientData is returned when a series is shorter than the
// indicator's window.
var ErrInsufficientData = errors.New("insufficient data")

const (
	RSIPeriod           = 14
	BollingerPeriod     = 20
	BollingerMultiplier = 2.0
)

// RSI computes Wilder's Relative Strength Index over closes. It needs at
// least period+1 closes. The result is rounded to two decimal places; a
// series with zero average loss yields exactly 100.
func RSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Errorf("invalid rsi period %d", period)
	}
	if len(closes) < period+1 {
		return 0, ErrInsufficientData
	}

	// Seed the averages from the first period differences.
	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d >= 0 {
			gainSum += d
		} else {
			lossSum -= d
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)

	// Wilder smoothing over the remaining differences.
	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		var gain, loss float64
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)
	return math.Round(rsi*100) / 100, nil
}

// SMA is the arithmetic mean of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 || len(values) < period {
		return 0, ErrInsufficientData
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// StdDev is the population standard deviation of the last period values.
func StdDev(values []float64, period int) (float64, error) {
	mean, err := SMA(values, period)
	if err != nil {
		return 0, err
	}
	return StdDevFromMean(values, period, mean)
}

// StdDevFromMean is StdDev with a precomputed mean, so Bollinger bands do
// not average the same window twice. Variance divides by period, not
// period-1.
func StdDevFromMean(values []float64, period int, mean float64) (float64, error) {
	if period <= 0 || len(values) < period {
		return 0, ErrInsufficientData
	}
	var variance float64
	for _, v := range values[len(values)-period:] {
		d := v - mean
		variance += d * d
	}
	variance /= float64(period)
	return math.Sqrt(variance), nil
}

// Bands is a Bollinger envelope around a price series.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands computes middle = SMA(closes, period) and
// upper/lower = middle +/- multiplier*stddev.
func BollingerBands(closes []float64, period int, multiplier float64) (Bands, error) {
	middle, err := SMA(closes, period)
	if err != nil {
		return Bands{}, err
	}
	sd, err := StdDevFromMean(closes, period, middle)
	if err != nil {
		return Bands{}, err
	}
	return Bands{
		Upper:  middle + multiplier*sd,
		Middle: middle,
		Lower:  middle - multiplier*sd,
	}, nil
}
