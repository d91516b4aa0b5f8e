// Package email delivers the alert digest. Delivery is fire-and-forget
// from the scanner's point of view: a failed send is logged by the caller
// and never fails a scan.
package email

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"gitlab.com/lienminh/rsiscan/internal/alert"
	"gitlab.com/lienminh/rsiscan/internal/config"
	"gitlab.com/lienminh/rsiscan/internal/models"
)

// Notify classifies coins, and when at least one carries an alert, mails
// an HTML digest to the configured recipients. It returns how many coins
// alerted; zero means no mail was sent.
func Notify(cfg config.SMTP, coins []models.CoinMetrics, scanTime string) (int, error) {
	grouped := map[alert.Status][]models.CoinMetrics{}
	var total int
	for _, coin := range coins {
		status := alert.Classify(coin)
		if status == alert.StatusNone {
			continue
		}
		grouped[status] = append(grouped[status], coin)
		total++
	}
	if total == 0 {
		return 0, nil
	}

	if cfg.User == "" || cfg.Password == "" {
		return total, errors.New("smtp credentials not configured")
	}
	if len(cfg.To) == 0 {
		return total, errors.New("no recipients configured")
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", cfg.User, "Binance Futures Alert")
	msg.SetHeader("To", cfg.To...)
	msg.SetHeader("Subject", subject(grouped, scanTime))
	msg.SetBody("text/html", body(grouped, scanTime))

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return total, errors.Wrap(err, "send alert mail")
	}
	return total, nil
}

type section struct {
	status alert.Status
	title  string
}

// Sections render in alert priority order.
var sections = []section{
	{alert.StatusRed, "Red alert (RSI 85-100 and funding rate >= 0.05%)"},
	{alert.StatusBlack, "Black alert (RSI >= 70 and funding rate = 0.005% or 0.01%)"},
	{alert.StatusPink, "Pink alert (SHORT signal, RSI 70-79 and funding rate >= 0.05%)"},
	{alert.StatusYellow, "Yellow alert (RSI 75-79 and funding rate >= 0.05%)"},
	{alert.StatusGreen, "Green alert (RSI >= 70 and funding rate >= 0.05%)"},
}

func subject(grouped map[alert.Status][]models.CoinMetrics, scanTime string) string {
	for _, s := range sections {
		if n := len(grouped[s.status]); n > 0 {
			return fmt.Sprintf("[%s ALERT] %d coin - Binance Futures Scan %s",
				strings.ToUpper(string(s.status)), n, scanTime)
		}
	}
	return "Binance Futures Scan " + scanTime
}

func body(grouped map[alert.Status][]models.CoinMetrics, scanTime string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<p>Scan time: %s (GMT+7)</p>", scanTime)
	for _, s := range sections {
		coins := grouped[s.status]
		if len(coins) == 0 {
			continue
		}
		fmt.Fprintf(&b, "<h3>%s</h3>", s.title)
		b.WriteString("<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\">")
		b.WriteString("<tr><th>Symbol</th><th>RSI</th><th>Funding Rate</th><th>Price (USDT)</th></tr>")
		for _, coin := range coins {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%.2f</td><td>%s</td><td>%s</td></tr>",
				coin.Symbol, coin.RSI, formatFundingRate(coin.FundingRate), formatPrice(coin.Price))
		}
		b.WriteString("</table>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

func formatFundingRate(rate *float64) string {
	if rate == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f%%", *rate*100)
}

func formatPrice(price float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.8f", price), "0"), ".")
}
