package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saranrapjs/filing-text/pkg/edgar"
	"github.com/saranrapjs/filing-text/pkg/manifest"
)

// stubRegistry serves canned data without the network.
type stubRegistry struct {
	tickers     *edgar.TickerIndex
	tickersErr  error
	submissions map[string]*edgar.Submissions
	document    []byte
}

func (s *stubRegistry) Tickers(_ context.Context) (*edgar.TickerIndex, error) {
	return s.tickers, s.tickersErr
}

func (s *stubRegistry) Submissions(_ context.Context, cik string) (*edgar.Submissions, error) {
	subs, ok := s.submissions[cik]
	if !ok {
		return nil, fmt.Errorf("%w: no submissions for %s", edgar.ErrRegistryUnavailable, cik)
	}
	return subs, nil
}

func (s *stubRegistry) LocatePrimary(_ context.Context, f edgar.Filing) (edgar.DocumentReference, error) {
	if f.PrimaryDocument == "" {
		return edgar.DocumentReference{}, edgar.ErrNoPrimaryDocument
	}
	return edgar.DocumentReference{Filing: f, Name: f.PrimaryDocument}, nil
}

func (s *stubRegistry) Document(_ context.Context, _ edgar.DocumentReference) ([]byte, error) {
	return s.document, nil
}

// memStore collects saved files in memory.
type memStore struct {
	files map[string]string
}

func (m *memStore) Save(name, text string) error {
	if m.files == nil {
		m.files = make(map[string]string)
	}
	m.files[name] = text
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func submissionsFixture() *edgar.Submissions {
	return &edgar.Submissions{
		Filings: edgar.FilingsData{
			Recent: edgar.RecentFilings{
				AccessionNumber: []string{"0000320193-23-000106", "0000320193-23-000077"},
				FilingDate:      []string{"2023-11-03", "2023-08-04"},
				ReportDate:      []string{"2023-09-30", "2023-07-01"},
				Form:            []string{"10-K", "10-Q"},
				PrimaryDocument: []string{"aapl-20230930.htm", "aapl-20230701.htm"},
			},
		},
	}
}

func TestRunBatchFailureIsolation(t *testing.T) {
	registry := &stubRegistry{
		tickers: edgar.NewTickerIndex(map[string]string{"AAPL": "320193", "MSFT": "789019"}),
		submissions: map[string]*edgar.Submissions{
			"0000320193": submissionsFixture(),
			"0000789019": submissionsFixture(),
		},
		document: []byte("<html><body><p>Narrative text of the filing.</p></body></html>"),
	}
	store := &memStore{}
	runner := NewRunner(registry, store, WithLogger(quietLogger()))

	reqs := []edgar.SelectionRequest{
		{Ticker: "AAPL", Form: "10-K", Year: 2023},
		{Ticker: "ZZZZ", Form: "10-K", Year: 2023},
		{Ticker: "MSFT", Form: "10-K", Year: 2023},
	}
	outcomes := runner.Run(context.Background(), reqs)

	// one failure in the middle never short-circuits the batch
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes["AAPL-10-K-2023"].Success())
	assert.True(t, outcomes["MSFT-10-K-2023"].Success())

	failed := outcomes["ZZZZ-10-K-2023"]
	require.False(t, failed.Success())
	assert.ErrorIs(t, failed.Err, edgar.ErrTickerNotFound)
	assert.NotEmpty(t, failed.Reason())

	assert.Len(t, store.files, 2)
	assert.Contains(t, store.files, "10K-AAPL-2023.txt")
	assert.Contains(t, store.files["10K-AAPL-2023.txt"], "Narrative text of the filing.")
}

func TestRunBatchNoMatchOutcome(t *testing.T) {
	registry := &stubRegistry{
		tickers:     edgar.NewTickerIndex(map[string]string{"AAPL": "320193"}),
		submissions: map[string]*edgar.Submissions{"0000320193": submissionsFixture()},
		document:    []byte("<p>text</p>"),
	}
	runner := NewRunner(registry, &memStore{}, WithLogger(quietLogger()))

	outcomes := runner.Run(context.Background(), []edgar.SelectionRequest{
		{Ticker: "AAPL", Form: "10-K", Year: 1999},
	})
	out := outcomes["AAPL-10-K-1999"]
	require.False(t, out.Success())
	assert.ErrorIs(t, out.Err, edgar.ErrNoMatch)
}

func TestRunBatchInjectedTickerIndex(t *testing.T) {
	// a seeded index means the registry's ticker endpoint is never hit
	registry := &stubRegistry{
		tickersErr:  errors.New("ticker endpoint should not be called"),
		submissions: map[string]*edgar.Submissions{"0000320193": submissionsFixture()},
		document:    []byte("<p>text</p>"),
	}
	idx := edgar.NewTickerIndex(map[string]string{"AAPL": "320193"})
	runner := NewRunner(registry, &memStore{}, WithLogger(quietLogger()), WithTickerIndex(idx))

	outcomes := runner.Run(context.Background(), []edgar.SelectionRequest{
		{Ticker: "AAPL", Form: "10-K"},
	})
	assert.True(t, outcomes["AAPL-10-K"].Success())
}

func TestRunBatchRecordsManifest(t *testing.T) {
	ledger, err := manifest.Open(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	defer ledger.Close()

	registry := &stubRegistry{
		tickers:     edgar.NewTickerIndex(map[string]string{"AAPL": "320193"}),
		submissions: map[string]*edgar.Submissions{"0000320193": submissionsFixture()},
		document:    []byte("<p>text</p>"),
	}
	runner := NewRunner(registry, &memStore{}, WithLogger(quietLogger()), WithManifest(ledger))

	runner.Run(context.Background(), []edgar.SelectionRequest{
		{Ticker: "AAPL", Form: "10-K", Year: 2023},
		{Ticker: "NOPE", Form: "10-K", Year: 2023},
	})

	entries, err := ledger.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	failures, err := ledger.Failures()
	require.NoError(t, err)
	assert.Equal(t, []string{"NOPE-10-K-2023"}, failures)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name   string
		ticker string
		filing edgar.Filing
		want   string
	}{
		{
			"annual",
			"aapl",
			edgar.Filing{Form: "10-K", FilingDate: "2023-11-03", ReportDate: "2023-09-30"},
			"10K-AAPL-2023.txt",
		},
		{
			"quarterly",
			"AAPL",
			edgar.Filing{Form: "10-Q", FilingDate: "2023-08-04", ReportDate: "2023-07-01"},
			"10Q-AAPL-Q32023.txt",
		},
		{
			"quarterly without report date",
			"AAPL",
			edgar.Filing{Form: "10-Q", FilingDate: "2023-08-04"},
			"10Q-AAPL-2023.txt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.ticker, tt.filing))
		})
	}
}

func TestExpand(t *testing.T) {
	reqs := Expand([]string{"AAPL", "MSFT"}, []string{"10-K", "10-Q"}, []int{2022, 2023}, 0)
	assert.Len(t, reqs, 8)
	assert.Contains(t, reqs, edgar.SelectionRequest{Ticker: "MSFT", Form: "10-Q", Year: 2022})

	// no years: one most-recent request per ticker/form pair
	reqs = Expand([]string{"AAPL"}, []string{"10-K"}, nil, 0)
	require.Len(t, reqs, 1)
	assert.Zero(t, reqs[0].Year)

	reqs = Expand([]string{"AAPL"}, []string{"10-Q"}, []int{2023}, 3)
	require.Len(t, reqs, 1)
	assert.Equal(t, 3, reqs[0].Quarter)
}
