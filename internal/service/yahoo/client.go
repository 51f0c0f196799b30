package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ADRFeed/internal/domain/models"
	drepo "ADRFeed/internal/domain/repository"
	xhttp "ADRFeed/pkg/http"
	xlogger "ADRFeed/pkg/logger"
	"ADRFeed/pkg/util"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoData means the chart metadata lacks a usable price or previous close.
	ErrNoData = errors.New("yahoo: no price data")
	// ErrNoResult means chart.result was missing or empty.
	ErrNoResult = errors.New("yahoo: empty chart result")
)

// exactExp is below the smallest float64 exponent, so a decimal built with it
// carries the full binary expansion.
const exactExp = -1100

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta chartMeta `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

type chartMeta struct {
	RegularMarketPrice *float64     `json:"regularMarketPrice"`
	PreviousClose      presentFloat `json:"previousClose"`
	PostMarketPrice    *float64     `json:"postMarketPrice"`
}

// presentFloat tells an explicit null apart from a missing key.
type presentFloat struct {
	present bool
	value   *float64
}

func (f *presentFloat) UnmarshalJSON(b []byte) error {
	f.present = true
	if string(b) == "null" {
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.value = &v
	return nil
}

// Client implements a QuoteSource backed by the Yahoo Finance chart endpoint.
type Client struct {
	baseURL string
	http    *xhttp.Client
	logger  *xlogger.Logger
	metrics drepo.Metrics
	now     func() time.Time
}

// New creates a chart client. metrics may be nil.
func New(baseURL string, httpClient *xhttp.Client, logger *xlogger.Logger, metrics drepo.Metrics) *Client {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Fetch calls the chart endpoint once for ticker and normalizes the result.
// Transport and decode errors are logged and returned as FetchFailed.
func (c *Client) Fetch(ctx context.Context, ticker string, mode models.Mode) models.FetchResult {
	start := time.Now()
	res := c.fetch(ctx, ticker, mode)
	c.observe(res, time.Since(start))

	switch {
	case res.Failed() && errors.Is(res.Err, ErrNoData):
		c.logger.Warn("no price data", xlogger.String("ticker", ticker), xlogger.String("mode", mode.String()))
	case res.Failed():
		c.logger.Error("fetch failed", xlogger.String("ticker", ticker), xlogger.Error(res.Err))
	default:
		p, _ := res.Price()
		c.logger.Debug("fetched",
			xlogger.String("ticker", ticker),
			xlogger.String("status", res.Status.String()),
			xlogger.Float64("price", p),
		)
	}
	return res
}

func (c *Client) fetch(ctx context.Context, ticker string, mode models.Mode) models.FetchResult {
	var body chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/" + url.PathEscape(ticker),
	}, &body)
	if err != nil {
		return failed(ticker, mode, fmt.Errorf("fetch %s: %w", ticker, err))
	}
	if len(body.Chart.Result) == 0 {
		return failed(ticker, mode, ErrNoResult)
	}

	meta := body.Chart.Result[0].Meta
	ts := util.FormatISO(c.now())

	if mode == models.ModeClosing {
		return closingResult(ticker, meta, ts)
	}
	return regularResult(ticker, meta, ts)
}

func regularResult(ticker string, meta chartMeta, ts string) models.FetchResult {
	price := valueOf(meta.RegularMarketPrice)
	prev := price
	if meta.PreviousClose.present {
		prev = valueOf(meta.PreviousClose.value)
	}
	if price == 0 || prev == 0 {
		return failed(ticker, models.ModeRegular, ErrNoData)
	}

	current, variation := normalize(price, prev)
	return models.FetchResult{
		Status: models.FetchOK,
		Ticker: ticker,
		Mode:   models.ModeRegular,
		Quote: &models.Quote{
			Current:      current,
			VariationPct: variation,
			Timestamp:    ts,
			Ticker:       ticker,
			Source:       models.SourceRegularMarket,
		},
	}
}

func closingResult(ticker string, meta chartMeta, ts string) models.FetchResult {
	price := valueOf(meta.RegularMarketPrice)
	prev := valueOf(meta.PreviousClose.value)

	if price == 0 || prev == 0 {
		return models.FetchResult{
			Status: models.FetchNoData,
			Ticker: ticker,
			Mode:   models.ModeClosing,
			Closing: &models.ClosingQuote{
				Timestamp: ts,
				Ticker:    ticker,
				Source:    models.SourceNoData,
				DataType:  models.DataTypeClosing,
				Message:   models.MessageNoData,
			},
		}
	}

	current, variation := normalize(price, prev)
	return models.FetchResult{
		Status: models.FetchOK,
		Ticker: ticker,
		Mode:   models.ModeClosing,
		Closing: &models.ClosingQuote{
			Current:        &current,
			VariationPct:   &variation,
			Timestamp:      ts,
			Ticker:         ticker,
			Source:         models.SourceClosingPrice,
			HasAfterMarket: valueOf(meta.PostMarketPrice) != 0,
			DataType:       models.DataTypeClosing,
			Message:        models.MessageClosing,
		},
	}
}

// normalize rounds price and the percent change against prev to 2 places.
// The change is computed in float64. prev must be non-zero.
func normalize(price, prev float64) (current, variation float64) {
	return round2(price), round2((price-prev)/prev*100)
}

// round2 rounds the exact binary value of f to 2 places, ties to even.
func round2(f float64) float64 {
	return decimal.NewFromFloatWithExponent(f, exactExp).RoundBank(2).InexactFloat64()
}

func (c *Client) observe(res models.FetchResult, d time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordFetch(res.Mode.String(), res.Status.String(), d.Seconds())
	if res.Failed() {
		c.metrics.RecordError("fetch")
		return
	}
	if p, ok := res.Price(); ok {
		c.metrics.RecordLastPrice(res.Ticker, p)
	}
}

func failed(ticker string, mode models.Mode, err error) models.FetchResult {
	return models.FetchResult{Status: models.FetchFailed, Ticker: ticker, Mode: mode, Err: err}
}

func valueOf(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
