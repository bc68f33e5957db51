package backtest

import (
	"fmt"
	"sort"
)

// Fetcher retrieves daily bars for a symbol from a third-party source.
// Fetchers perform network I/O; the simulation core never calls them.
type Fetcher interface {
	Fetch(symbol string, r Range) ([]Bar, error)
}

// fetcherFactories is the explicit registry mapping an adapter name to its
// constructor. A name absent from this map is an "unknown adapter" error;
// there is no runtime string-to-type lookup.
var fetcherFactories = map[string]func() Fetcher{
	"eodhd":         func() Fetcher { return NewEODHD() },
	"cryptocompare": func() Fetcher { return NewCryptoCompare() },
}

// FetcherNames lists the registered adapter names in alphabetical order.
func FetcherNames() []string {
	names := make([]string, 0, len(fetcherFactories))
	for name := range fetcherFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewFetcher builds the named adapter.
func NewFetcher(name string) (Fetcher, error) {
	factory, ok := fetcherFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown adapter %q, want one of %v", name, FetcherNames())
	}
	return factory(), nil
}
