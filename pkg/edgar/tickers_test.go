package edgar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tickerTableJSON = `{
	"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
	"1": {"cik_str": 789019, "ticker": "MSFT", "title": "MICROSOFT CORP"},
	"2": {"cik_str": 1652044, "ticker": "GOOGL", "title": "Alphabet Inc."}
}`

func TestParseTickerTable(t *testing.T) {
	idx, err := ParseTickerTable(strings.NewReader(tickerTableJSON))
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())

	cik, err := idx.Resolve("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "0000320193", cik)
}

func TestResolveCaseInsensitive(t *testing.T) {
	idx, err := ParseTickerTable(strings.NewReader(tickerTableJSON))
	require.NoError(t, err)

	for _, ticker := range []string{"msft", "MSFT", "Msft", "mSfT"} {
		cik, err := idx.Resolve(ticker)
		require.NoError(t, err, "ticker %q should resolve", ticker)
		assert.Equal(t, "0000789019", cik, "ticker %q", ticker)
	}
}

func TestResolveNotFound(t *testing.T) {
	idx, err := ParseTickerTable(strings.NewReader(tickerTableJSON))
	require.NoError(t, err)

	_, err = idx.Resolve("ZZZZ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTickerNotFound)
}

func TestParseTickerTableMalformed(t *testing.T) {
	_, err := ParseTickerTable(strings.NewReader("not json"))
	assert.Error(t, err)
}

func TestNewTickerIndexPadsCIKs(t *testing.T) {
	idx := NewTickerIndex(map[string]string{"aapl": "320193"})

	cik, err := idx.Resolve("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "0000320193", cik)
}
