package backtest

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
)

// This file contains the adapter fetching end-of-day OHLC data from the
// EODHD API (https://eodhd.com).

const eodhdAPIKeyEnv = "EODHD_API_KEY"

var eodhdAPIFlag = flag.String("eodhd-api-key", "", "EODHD API key to use for fetching prices from EODHD.com.\n If missing it will read the environment variable \""+eodhdAPIKeyEnv+"\". You can get one at https://eodhd.com/")

func eodhdAPIKey() string {
	// If the flag is not set, we try to read it from the environment variable.
	if *eodhdAPIFlag == "" {
		*eodhdAPIFlag = os.Getenv(eodhdAPIKeyEnv)
	}
	return *eodhdAPIFlag
}

// EODHD fetches daily equity bars from the EODHD end-of-day API.
type EODHD struct {
	client *http.Client
	host   string // overridable for tests
	apiKey func() string
}

// NewEODHD returns an adapter with the daily disk cache and the API key from
// flag or environment.
func NewEODHD() *EODHD {
	return &EODHD{client: daily(), host: "https://eodhd.com", apiKey: eodhdAPIKey}
}

// Fetch retrieves the daily bars of a symbol (in EODHD "TICKER.EXCHANGE"
// notation) within the given range.
func (e *EODHD) Fetch(symbol string, r Range) ([]Bar, error) {
	key := e.apiKey()
	if key == "" {
		return nil, fmt.Errorf("missing EODHD API key: set -eodhd-api-key or %s", eodhdAPIKeyEnv)
	}

	addr := fmt.Sprintf("%s/api/eod/%s?period=d&fmt=json&api_token=%s", e.host, url.PathEscape(symbol), url.QueryEscape(key))
	if !r.From.IsZero() {
		addr += "&from=" + r.From.String()
	}
	if !r.To.IsZero() {
		addr += "&to=" + r.To.String()
	}

	// jbar is the object read from the API using the json parser.
	type jbar struct {
		Date   Date    `json:"date"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	}
	content := make([]jbar, 0)
	if err := jwget(e.client, addr, &content); err != nil {
		return nil, fmt.Errorf("fetching %q from eodhd: %w", symbol, err)
	}

	bars := make([]Bar, 0, len(content))
	for _, jb := range content {
		b := Bar{
			Symbol: symbol,
			On:     jb.Date,
			Open:   jb.Open,
			High:   jb.High,
			Low:    jb.Low,
			Close:  jb.Close,
			Volume: jb.Volume,
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("eodhd returned an invalid bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}
