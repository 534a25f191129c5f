package edgar

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// TickerIndex maps uppercased ticker symbols to zero-padded CIK strings.
// It is built once per run from the SEC's company ticker table and passed
// to whoever needs resolution; there is no package-level copy, so tests
// can substitute a small fixture via NewTickerIndex.
type TickerIndex struct {
	byTicker map[string]string
}

// tickerEntry matches one row of company_tickers.json.
type tickerEntry struct {
	CIKStr int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// ParseTickerTable parses the company ticker table JSON, keyed by row
// number, into a TickerIndex.
func ParseTickerTable(r io.Reader) (*TickerIndex, error) {
	var table map[string]tickerEntry
	if err := json.NewDecoder(r).Decode(&table); err != nil {
		return nil, fmt.Errorf("parse ticker table: %w", err)
	}
	byTicker := make(map[string]string, len(table))
	for _, entry := range table {
		byTicker[strings.ToUpper(entry.Ticker)] = fmt.Sprintf("%010d", entry.CIKStr)
	}
	return &TickerIndex{byTicker: byTicker}, nil
}

// NewTickerIndex builds an index from a ticker → CIK map. CIK values are
// zero-padded to 10 digits.
func NewTickerIndex(tickers map[string]string) *TickerIndex {
	byTicker := make(map[string]string, len(tickers))
	for ticker, cik := range tickers {
		byTicker[strings.ToUpper(ticker)] = fmt.Sprintf("%010s", cik)
	}
	return &TickerIndex{byTicker: byTicker}
}

// Resolve returns the zero-padded CIK for a ticker symbol. Matching is
// case-insensitive. A ticker absent from the table is a hard failure
// wrapping ErrTickerNotFound; there is no partial matching or fallback.
func (ti *TickerIndex) Resolve(ticker string) (string, error) {
	cik, ok := ti.byTicker[strings.ToUpper(ticker)]
	if !ok {
		return "", fmt.Errorf("ticker %q: %w", ticker, ErrTickerNotFound)
	}
	return cik, nil
}

// Len reports the number of tickers in the index.
func (ti *TickerIndex) Len() int {
	return len(ti.byTicker)
}
