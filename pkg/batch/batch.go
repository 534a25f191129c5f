// Package batch drives the filing pipeline over a list of requests:
// resolve ticker, read the filing history, select a filing, locate its
// primary document, fetch it, extract text, and persist the result.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saranrapjs/filing-text/pkg/edgar"
	"github.com/saranrapjs/filing-text/pkg/extract"
	"github.com/saranrapjs/filing-text/pkg/manifest"
)

// Registry is the slice of edgar.Client the runner needs. Tests stub it
// to run batches without the network.
type Registry interface {
	Tickers(ctx context.Context) (*edgar.TickerIndex, error)
	Submissions(ctx context.Context, cik string) (*edgar.Submissions, error)
	LocatePrimary(ctx context.Context, f edgar.Filing) (edgar.DocumentReference, error)
	Document(ctx context.Context, ref edgar.DocumentReference) ([]byte, error)
}

// Store persists extracted documents. The runner hands it a file name per
// the naming rule and the cleaned text; where and how it writes is the
// caller's business.
type Store interface {
	Save(name, text string) error
}

// Outcome is one item's result. Err is nil on success.
type Outcome struct {
	FileName string
	Filing   edgar.Filing
	Err      error
}

// Success reports whether the item completed.
func (o Outcome) Success() bool { return o.Err == nil }

// Reason is the human-readable failure reason, empty on success.
func (o Outcome) Reason() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return ""
}

// Runner executes batches sequentially. Requests are processed one at a
// time so the registry client's request pacing is respected; the only
// state shared across items is the read-only ticker index, loaded on
// first need.
type Runner struct {
	registry   Registry
	store      Store
	heuristics extract.Heuristics
	ledger     *manifest.DB
	log        *slog.Logger
	index      *edgar.TickerIndex
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithHeuristics overrides the extraction thresholds.
func WithHeuristics(h extract.Heuristics) RunnerOption {
	return func(r *Runner) { r.heuristics = h }
}

// WithManifest records each item's outcome in the given ledger.
func WithManifest(db *manifest.DB) RunnerOption {
	return func(r *Runner) { r.ledger = db }
}

// WithLogger substitutes the slog logger.
func WithLogger(log *slog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// WithTickerIndex seeds the ticker index up front, skipping the network
// fetch. Tests use this with a fixture table.
func WithTickerIndex(idx *edgar.TickerIndex) RunnerOption {
	return func(r *Runner) { r.index = idx }
}

// NewRunner creates a Runner over a registry and a store.
func NewRunner(registry Registry, store Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry:   registry,
		store:      store,
		heuristics: extract.DefaultHeuristics(),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes the requests strictly in order and returns an outcome per
// request key. Every failure is caught and recorded against its own item;
// the batch never short-circuits.
func (r *Runner) Run(ctx context.Context, reqs []edgar.SelectionRequest) map[string]Outcome {
	outcomes := make(map[string]Outcome, len(reqs))
	for _, req := range reqs {
		key := req.Key()
		out := r.runOne(ctx, req)
		if out.Err != nil {
			r.log.Error("item failed", "key", key, "err", out.Err)
		} else {
			r.log.Info("item saved", "key", key, "file", out.FileName)
		}
		if r.ledger != nil {
			entry := manifest.Entry{
				Key:      key,
				Ticker:   strings.ToUpper(req.Ticker),
				Form:     req.Form,
				FileName: out.FileName,
				OK:       out.Success(),
				Reason:   out.Reason(),
			}
			if err := r.ledger.Record(entry); err != nil {
				r.log.Warn("recording outcome", "key", key, "err", err)
			}
		}
		outcomes[key] = out
	}
	return outcomes
}

func (r *Runner) runOne(ctx context.Context, req edgar.SelectionRequest) Outcome {
	if r.index == nil {
		idx, err := r.registry.Tickers(ctx)
		if err != nil {
			return Outcome{Err: fmt.Errorf("loading ticker index: %w", err)}
		}
		r.index = idx
		r.log.Info("loaded ticker index", "tickers", idx.Len())
	}

	cik, err := r.index.Resolve(req.Ticker)
	if err != nil {
		return Outcome{Err: err}
	}
	r.log.Info("resolved ticker", "ticker", req.Ticker, "cik", cik)

	subs, err := r.registry.Submissions(ctx, cik)
	if err != nil {
		return Outcome{Err: err}
	}

	filing, err := edgar.Select(subs.History(cik), req)
	if err != nil {
		return Outcome{Err: err}
	}
	r.log.Info("selected filing", "form", filing.Form, "filed", filing.FilingDate, "accession", filing.AccessionNumber)

	ref, err := r.registry.LocatePrimary(ctx, filing)
	if err != nil {
		return Outcome{Filing: filing, Err: err}
	}

	raw, err := r.registry.Document(ctx, ref)
	if err != nil {
		return Outcome{Filing: filing, Err: err}
	}

	text := extract.Text(raw, r.heuristics)
	name := FileName(req.Ticker, filing)
	if err := r.store.Save(name, text); err != nil {
		return Outcome{FileName: name, Filing: filing, Err: fmt.Errorf("saving %s: %w", name, err)}
	}
	return Outcome{FileName: name, Filing: filing}
}

// FileName derives the output name from the selected filing's fiscal
// period (not the requested one, which may have been omitted): annual
// filings as 10K-TICKER-YEAR.txt, quarterly as 10Q-TICKER-QnYEAR.txt.
// A quarterly filing whose quarter cannot be derived falls back to the
// annual shape.
func FileName(ticker string, f edgar.Filing) string {
	form := strings.ReplaceAll(f.Form, "-", "")
	ticker = strings.ToUpper(ticker)
	if q := f.FiscalQuarter(); f.Quarterly() && q > 0 {
		return fmt.Sprintf("%s-%s-Q%d%d.txt", form, ticker, q, f.FiscalYear())
	}
	return fmt.Sprintf("%s-%s-%d.txt", form, ticker, f.FiscalYear())
}

// Expand builds the request cross product of tickers × forms × years.
// Nil years yields one most-recent request per ticker/form pair. quarter
// applies to quarterly forms only and is carried as-is.
func Expand(tickers, forms []string, years []int, quarter int) []edgar.SelectionRequest {
	var reqs []edgar.SelectionRequest
	for _, ticker := range tickers {
		for _, form := range forms {
			if len(years) == 0 {
				reqs = append(reqs, edgar.SelectionRequest{Ticker: ticker, Form: form, Quarter: quarter})
				continue
			}
			for _, year := range years {
				reqs = append(reqs, edgar.SelectionRequest{Ticker: ticker, Form: form, Year: year, Quarter: quarter})
			}
		}
	}
	return reqs
}
