package signal

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// marker3 condenses |price2 - price| into its fractional digits: the
// difference is written with eight decimal places, the integer part and
// trailing zeros are dropped, and what remains is read as an integer.
// 0.005578 becomes 5578; a whole-number difference becomes 0.
func marker3(price2, price float64) int64 {
	diff := decimal.NewFromFloat(math.Abs(price2 - price))
	fixed := diff.StringFixed(8)
	parts := strings.SplitN(fixed, ".", 2)
	if len(parts) < 2 {
		return 0
	}
	frac := strings.TrimRight(parts[1], "0")
	if frac == "" {
		return 0
	}
	n, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
