package edgar

import (
	"fmt"
	"strings"
)

// SelectionRequest asks for one filing of a company: a form, and
// optionally a fiscal year and quarter. Year 0 means "most recent".
// Quarter 0 means "any"; a quarter on an annual form is ignored rather
// than rejected.
type SelectionRequest struct {
	Ticker  string
	Form    string
	Year    int
	Quarter int
}

// Key identifies the request in batch outcomes and manifests.
func (r SelectionRequest) Key() string {
	key := fmt.Sprintf("%s-%s", strings.ToUpper(r.Ticker), r.Form)
	if r.Year > 0 {
		key = fmt.Sprintf("%s-%d", key, r.Year)
	}
	return key
}

func (r SelectionRequest) quarterly() bool {
	return strings.HasPrefix(r.Form, "10-Q")
}

// Select picks exactly one filing from a history. Filtering narrows by
// exact form, then fiscal year, then quarter; an empty set at any step is
// ErrNoMatch, never a fallback to a broader selection. Among survivors
// (amendments, re-filings) the latest filing date wins; a date tie breaks
// to the record appearing first in registry order, which keeps repeated
// selections over the same history deterministic.
func Select(history FilingHistory, req SelectionRequest) (Filing, error) {
	var candidates []Filing
	for _, f := range history {
		if f.Form == req.Form {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return Filing{}, fmt.Errorf("no %s filings in history: %w", req.Form, ErrNoMatch)
	}

	if req.Year > 0 {
		candidates = filter(candidates, func(f Filing) bool { return f.FiscalYear() == req.Year })
		if len(candidates) == 0 {
			return Filing{}, fmt.Errorf("no %s filing for fiscal year %d: %w", req.Form, req.Year, ErrNoMatch)
		}
	}

	if req.Quarter > 0 && req.quarterly() {
		candidates = filter(candidates, func(f Filing) bool { return f.FiscalQuarter() == req.Quarter })
		if len(candidates) == 0 {
			return Filing{}, fmt.Errorf("no %s filing for Q%d: %w", req.Form, req.Quarter, ErrNoMatch)
		}
	}

	// Strict After means equal dates keep the earlier registry position.
	best := candidates[0]
	for _, f := range candidates[1:] {
		if f.filingTime().After(best.filingTime()) {
			best = f
		}
	}
	return best, nil
}

func filter(filings []Filing, keep func(Filing) bool) []Filing {
	var out []Filing
	for _, f := range filings {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}
