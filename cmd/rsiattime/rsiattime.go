package main

import (
	"flag"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gitlab.com/lienminh/rsiscan/internal/scan"
	"gitlab.com/lienminh/rsiscan/pkg/binance"
)

var (
	symbol = flag.String("symbol", "BTCUSDT", "trading pair")
	at     = flag.String("t", "", "point in time, RFC3339 or epoch milliseconds")
)

func main() {
	flag.Parse()

	atTime, err := parseTime(*at)
	if err != nil {
		logrus.Fatal(err.Error())
	}

	scanner := scan.New(binance.NewClient(), scan.DefaultBatchSize)
	res, err := scanner.RSIAtTime(strings.ToUpper(*symbol), atTime)
	if err != nil {
		logrus.Fatal(err.Error())
	}

	logrus.WithFields(logrus.Fields{
		"symbol":          res.Symbol,
		"rsi":             res.RSI,
		"at":              time.UnixMilli(res.AtTime).UTC().Format(time.RFC3339),
		"closes_used":     res.ClosesUsed,
		"last_close_time": time.UnixMilli(res.LastCloseTime).UTC().Format(time.RFC3339),
		"price_at_time":   res.PriceAtTime,
	}).Info("rsi at time")
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Parse(time.RFC3339, raw)
}
