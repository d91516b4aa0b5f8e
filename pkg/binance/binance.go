// Package binance is the market data gateway for Binance USDT-margined
// perpetual futures.
package binance

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gitlab.com/lienminh/rsiscan/internal/models"
)

const futuresHost = "fapi.binance.com"

type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GetUSDTPerpetuals returns all symbols that are actively trading USDT
// perpetual contracts.
func (c *Client) GetUSDTPerpetuals() ([]string, error) {
	var resp struct {
		Symbols []struct {
			Symbol       string `json:"symbol"`
			Status       string `json:"status"`
			ContractType string `json:"contractType"`
			QuoteAsset   string `json:"quoteAsset"`
		} `json:"symbols"`
	}
	err := c.sendHTTPRequest(http.MethodGet, c.buildURL("fapi/v1/exchangeInfo", nil), &resp)
	if err != nil {
		return nil, errors.Wrap(err, "fetch exchange info")
	}
	pairs := make([]string, 0, len(resp.Symbols))
	for _, s := range resp.Symbols {
		if s.Status == "TRADING" && s.ContractType == "PERPETUAL" && s.QuoteAsset == "USDT" {
			pairs = append(pairs, s.Symbol)
		}
	}
	return pairs, nil
}

// GetFuturesKLines returns up to limit candles for symbol/interval ordered
// oldest to newest. When endTime is non-zero only candles whose closeTime
// is strictly before endTime are returned.
func (c *Client) GetFuturesKLines(symbol string, interval models.TimeFrame, limit int, endTime int64) ([]models.KLine, error) {
	values := url.Values{}
	values.Set("symbol", symbol)
	values.Set("interval", string(interval))
	values.Set("limit", strconv.Itoa(limit))
	if endTime != 0 {
		values.Set("endTime", fmt.Sprintf("%d", endTime))
	}

	var resp [][]interface{}
	err := c.sendHTTPRequest(http.MethodGet, c.buildURL("fapi/v1/klines", values), &resp)
	if err != nil {
		return nil, errors.Wrap(err, "fetch klines")
	}
	klines := make([]models.KLine, 0, len(resp))
	for _, rec := range resp {
		if len(rec) < 7 {
			return nil, errors.Errorf("malformed kline record of length %d", len(rec))
		}
		openPrice, _ := decimal.NewFromString(rec[1].(string))
		highPrice, _ := decimal.NewFromString(rec[2].(string))
		lowPrice, _ := decimal.NewFromString(rec[3].(string))
		closePrice, _ := decimal.NewFromString(rec[4].(string))
		volume, _ := decimal.NewFromString(rec[5].(string))
		kline := models.KLine{
			OpenTime:   int64(rec[0].(float64)),
			OpenPrice:  openPrice,
			HighPrice:  highPrice,
			LowPrice:   lowPrice,
			ClosePrice: closePrice,
			Volume:     volume,
			CloseTime:  int64(rec[6].(float64)),
		}
		if endTime != 0 && kline.CloseTime >= endTime {
			continue
		}
		klines = append(klines, kline)
	}
	return klines, nil
}

// Get24hTicker returns the last traded price and the 24h change of symbol.
// The last traded price is what the exchange itself displays, as opposed
// to the mark or index price.
func (c *Client) Get24hTicker(symbol string) (models.Ticker, error) {
	values := url.Values{}
	values.Set("symbol", symbol)

	var resp struct {
		LastPrice          string `json:"lastPrice"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	err := c.sendHTTPRequest(http.MethodGet, c.buildURL("fapi/v1/ticker/24hr", values), &resp)
	if err != nil {
		return models.Ticker{}, errors.Wrap(err, "fetch 24h ticker")
	}
	price, err := strconv.ParseFloat(resp.LastPrice, 64)
	if err != nil {
		return models.Ticker{}, errors.Wrapf(err, "parse last price %q", resp.LastPrice)
	}
	change, err := strconv.ParseFloat(resp.PriceChangePercent, 64)
	if err != nil {
		return models.Ticker{}, errors.Wrapf(err, "parse price change %q", resp.PriceChangePercent)
	}
	return models.Ticker{Price: price, Change24h: change}, nil
}

// GetPremiumIndex returns mark/index prices and the current funding rate
// of symbol.
func (c *Client) GetPremiumIndex(symbol string) (models.PremiumIndex, error) {
	values := url.Values{}
	values.Set("symbol", symbol)

	var resp struct {
		MarkPrice       string `json:"markPrice"`
		IndexPrice      string `json:"indexPrice"`
		LastFundingRate string `json:"lastFundingRate"`
		NextFundingTime int64  `json:"nextFundingTime"`
	}
	err := c.sendHTTPRequest(http.MethodGet, c.buildURL("fapi/v1/premiumIndex", values), &resp)
	if err != nil {
		return models.PremiumIndex{}, errors.Wrap(err, "fetch premium index")
	}
	markPrice, _ := strconv.ParseFloat(resp.MarkPrice, 64)
	indexPrice, _ := strconv.ParseFloat(resp.IndexPrice, 64)
	fundingRate, err := strconv.ParseFloat(resp.LastFundingRate, 64)
	if err != nil {
		return models.PremiumIndex{}, errors.Wrapf(err, "parse funding rate %q", resp.LastFundingRate)
	}
	return models.PremiumIndex{
		MarkPrice:       markPrice,
		IndexPrice:      indexPrice,
		LastFundingRate: fundingRate,
		NextFundingTime: resp.NextFundingTime,
	}, nil
}

func (c *Client) buildURL(path string, values url.Values) string {
	u := &url.URL{
		Scheme: "https",
		Host:   futuresHost,
		Path:   path,
	}
	if values != nil {
		u.RawQuery = values.Encode()
	}
	return u.String()
}

func (c *Client) sendHTTPRequest(method, path string, result interface{}) error {
	req, err := http.NewRequest(method, path, nil)
	if err != nil {
		return errors.Wrap(err, "create new http request")
	}
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send http request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response body")
	}
	if resp.StatusCode != 200 {
		return errors.New(string(respBody))
	}

	err = jsoniter.Unmarshal(respBody, &result)
	if err != nil {
		return errors.Wrap(err, "parse response bytes to struct")
	}
	return nil
}
