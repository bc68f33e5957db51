package backtest

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// This file contains the adapter fetching daily crypto bars from the
// CryptoCompare API (https://min-api.cryptocompare.com). The payload nests
// the bars two levels deep, so it is unpacked with jsonpath rather than a
// dedicated struct tree.
//
//	{
//	    "Response": "Success",
//	    "Data": {
//	        "TimeFrom": 1700000000,
//	        "TimeTo": 1700500000,
//	        "Data": [
//	            {"time": 1700000000, "open": 36500.1, "high": 37000.0,
//	             "low": 36200.2, "close": 36800.4, "volumeto": 12345.6}
//	        ]
//	    }
//	}

// CryptoCompare fetches daily crypto bars. Symbols use the "BASE-QUOTE"
// notation, e.g. "BTC-USD".
type CryptoCompare struct {
	client *http.Client
	host   string // overridable for tests
}

// NewCryptoCompare returns an adapter with the daily disk cache.
func NewCryptoCompare() *CryptoCompare {
	return &CryptoCompare{client: daily(), host: "https://min-api.cryptocompare.com"}
}

// Fetch retrieves the daily bars of a crypto pair within the given range.
// The API pages backwards from 'toTs', so the range start only trims the
// response.
func (c *CryptoCompare) Fetch(symbol string, r Range) ([]Bar, error) {
	fsym, tsym, ok := strings.Cut(symbol, "-")
	if !ok || fsym == "" || tsym == "" {
		return nil, fmt.Errorf("invalid crypto pair %q, want \"BASE-QUOTE\" like \"BTC-USD\"", symbol)
	}

	limit := 2000 // API maximum; trimmed to the range below
	if !r.From.IsZero() && !r.To.IsZero() {
		if days := r.To.Sub(r.From); days < limit {
			limit = days + 1
		}
	}
	addr := fmt.Sprintf("%s/data/v2/histoday?fsym=%s&tsym=%s&limit=%d",
		c.host, url.QueryEscape(fsym), url.QueryEscape(tsym), limit)
	if !r.To.IsZero() {
		addr += fmt.Sprintf("&toTs=%d", time.Date(r.To.Year(), r.To.Month(), r.To.Day(), 0, 0, 0, 0, time.UTC).Unix())
	}

	var jobj any
	if err := jwget(c.client, addr, &jobj); err != nil {
		return nil, fmt.Errorf("fetching %q from cryptocompare: %w", symbol, err)
	}

	jresp, err := jsonpath.Get("$.Response", jobj)
	if err != nil || jresp != "Success" {
		return nil, fmt.Errorf("cryptocompare refused %q: %v", symbol, jobj)
	}
	jrows, err := jsonpath.Get("$.Data.Data", jobj)
	if err != nil {
		return nil, fmt.Errorf("unexpected cryptocompare payload for %q: %w", symbol, err)
	}
	rows, ok := jrows.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected cryptocompare payload for %q: %T is not a list", symbol, jrows)
	}

	bars := make([]Bar, 0, len(rows))
	for _, row := range rows {
		b, err := cryptoCompareBar(symbol, row)
		if err != nil {
			return nil, err
		}
		if !r.Contains(b.On) {
			continue
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("cryptocompare returned an invalid bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// cryptoCompareBar unpacks one row of the histoday payload.
func cryptoCompareBar(symbol string, row any) (Bar, error) {
	fields, ok := row.(map[string]any)
	if !ok {
		return Bar{}, fmt.Errorf("unexpected cryptocompare row for %q: %T is not an object", symbol, row)
	}
	num := func(name string) (float64, error) {
		v, ok := fields[name].(float64)
		if !ok {
			return 0, fmt.Errorf("cryptocompare row for %q: %q is not a number but %T", symbol, name, fields[name])
		}
		return v, nil
	}
	ts, err := num("time")
	if err != nil {
		return Bar{}, err
	}
	b := Bar{Symbol: symbol, On: NewDate(time.Unix(int64(ts), 0).UTC().Date())}
	if b.Open, err = num("open"); err != nil {
		return Bar{}, err
	}
	if b.High, err = num("high"); err != nil {
		return Bar{}, err
	}
	if b.Low, err = num("low"); err != nil {
		return Bar{}, err
	}
	if b.Close, err = num("close"); err != nil {
		return Bar{}, err
	}
	if b.Volume, err = num("volumeto"); err != nil {
		return Bar{}, err
	}
	return b, nil
}
