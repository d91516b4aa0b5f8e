package main

import (
	"flag"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"gitlab.com/lienminh/rsiscan/internal/config"
	"gitlab.com/lienminh/rsiscan/internal/email"
	"gitlab.com/lienminh/rsiscan/internal/models"
	"gitlab.com/lienminh/rsiscan/internal/postgres"
	"gitlab.com/lienminh/rsiscan/internal/scan"
	"gitlab.com/lienminh/rsiscan/pkg/binance"
)

var (
	configPath = flag.String("c", "./configs/config.yml", "config file path")
	mode       = flag.String("mode", "rsi", "scan mode: rsi or funding")
	once       = flag.Bool("once", false, "run a single scan and exit")
)

// Only coins at or above this RSI make it into scan history.
const persistRSIMin = 70

func main() {
	flag.Parse()
	cfg, err := config.New(*configPath)
	if err != nil {
		logrus.Fatal(err.Error())
	}
	loc, err := time.LoadLocation(cfg.Scan.Timezone)
	if err != nil {
		logrus.Fatal(err.Error())
	}
	db, err := postgres.Open(cfg.Database)
	if err != nil {
		logrus.Fatal(err.Error())
	}
	defer db.Close()

	scanner := scan.New(binance.NewClient(), cfg.Scan.BatchSize)
	limiter := scan.NewLimiter(time.Duration(cfg.Scan.CooldownMinutes) * time.Minute)

	for {
		if wait := limiter.Remaining(time.Now()); wait > 0 {
			logrus.WithField("wait", wait).Info("cooling down before next scan")
			time.Sleep(wait)
		}
		limiter.Mark(time.Now())

		switch *mode {
		case "funding":
			runFundingScan(scanner)
		default:
			runRSIScan(scanner, db, cfg, loc)
		}

		if *once {
			return
		}
	}
}

func runRSIScan(scanner *scan.Scanner, db *sqlx.DB, cfg *config.Config, loc *time.Location) {
	started := time.Now()
	coins, err := scanner.ScanRSI(started)
	if err != nil {
		logrus.WithError(err).Error("rsi scan failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"coins": len(coins),
		"took":  time.Since(started),
	}).Info("rsi scan finished")
	if len(coins) == 0 {
		return
	}

	scanTime := started.In(loc).Format("02/01/2006, 15:04:05")

	// Notification is fire-and-forget: the scan result stands whether or
	// not the mail goes out.
	go func() {
		sent, err := email.Notify(cfg.SMTP, coins, scanTime)
		if err != nil {
			logrus.WithError(err).Error("alert notification failed")
			return
		}
		if sent > 0 {
			logrus.WithField("alerts", sent).Info("alert notification sent")
		}
	}()

	qualifying := make([]models.CoinMetrics, 0, len(coins))
	for _, coin := range coins {
		if coin.RSI >= persistRSIMin {
			qualifying = append(qualifying, coin)
		}
	}
	if len(qualifying) > 0 {
		if err := postgres.InsertScan(db, scanTime, qualifying); err != nil {
			logrus.WithError(err).Error("save scan history failed")
		}
	}

	cutoff := time.Now().Add(-time.Duration(cfg.Scan.RetentionHours) * time.Hour)
	pruned, err := postgres.DeleteOlderThan(db, cutoff)
	if err != nil {
		logrus.WithError(err).Error("prune scan history failed")
	} else if pruned > 0 {
		logrus.WithField("rows", pruned).Info("pruned old scan history")
	}
}

func runFundingScan(scanner *scan.Scanner) {
	started := time.Now()
	coins, err := scanner.ScanFunding()
	if err != nil {
		logrus.WithError(err).Error("funding scan failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"coins": len(coins),
		"took":  time.Since(started),
	}).Info("funding scan finished")
	for i, coin := range coins {
		if i >= 20 {
			break
		}
		logrus.WithFields(logrus.Fields{
			"symbol":  coin.Symbol,
			"funding": *coin.FundingRate,
			"price":   coin.Price,
		}).Info("top funding")
	}
}
