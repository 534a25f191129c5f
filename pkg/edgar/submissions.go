package edgar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Submissions is the per-company payload from data.sec.gov. Filing data
// arrives as parallel arrays under filings.recent.
type Submissions struct {
	CIK       string      `json:"cik"`
	Name      string      `json:"name"`
	Tickers   []string    `json:"tickers"`
	Exchanges []string    `json:"exchanges"`
	Filings   FilingsData `json:"filings"`
}

// FilingsData holds the recent-filings window. EDGAR paginates older
// filings into separate files which this package does not follow.
type FilingsData struct {
	Recent RecentFilings `json:"recent"`
}

// RecentFilings is the parallel-array form of the filing list: index i of
// each array describes the same filing.
type RecentFilings struct {
	AccessionNumber       []string `json:"accessionNumber"`
	FilingDate            []string `json:"filingDate"`
	ReportDate            []string `json:"reportDate"`
	Form                  []string `json:"form"`
	IsXBRL                []int    `json:"isXBRL"`
	IsInlineXBRL          []int    `json:"isInlineXBRL"`
	PrimaryDocument       []string `json:"primaryDocument"`
	PrimaryDocDescription []string `json:"primaryDocDescription"`
}

// Filing is one filing instance flattened out of the parallel arrays.
type Filing struct {
	CIK                   string `json:"cik"`
	AccessionNumber       string `json:"accessionNumber"`
	FilingDate            string `json:"filingDate"`
	ReportDate            string `json:"reportDate"`
	Form                  string `json:"form"`
	IsXBRL                int    `json:"isXBRL"`
	IsInlineXBRL          int    `json:"isInlineXBRL"`
	PrimaryDocument       string `json:"primaryDocument"`
	PrimaryDocDescription string `json:"primaryDocDescription"`
}

// FilingHistory is a company's filing records in registry order. EDGAR
// returns most-recent-first, but nothing here relies on that: selection
// compares dates explicitly.
type FilingHistory []Filing

// History flattens the recent window into a FilingHistory owned by the
// given CIK. The arrays are usually the same length but the optional ones
// (report date, primary document) are read defensively: a missing value
// stays empty rather than failing the whole history.
func (s *Submissions) History(cik string) FilingHistory {
	recent := s.Filings.Recent
	history := make(FilingHistory, 0, len(recent.Form))
	for i := range recent.Form {
		history = append(history, Filing{
			CIK:                   cik,
			AccessionNumber:       stringAt(recent.AccessionNumber, i),
			FilingDate:            stringAt(recent.FilingDate, i),
			ReportDate:            stringAt(recent.ReportDate, i),
			Form:                  recent.Form[i],
			IsXBRL:                intAt(recent.IsXBRL, i),
			IsInlineXBRL:          intAt(recent.IsInlineXBRL, i),
			PrimaryDocument:       stringAt(recent.PrimaryDocument, i),
			PrimaryDocDescription: stringAt(recent.PrimaryDocDescription, i),
		})
	}
	return history
}

func stringAt(ss []string, i int) string {
	if i < len(ss) {
		return ss[i]
	}
	return ""
}

func intAt(ns []int, i int) int {
	if i < len(ns) {
		return ns[i]
	}
	return 0
}

// FiscalYear derives the filing's fiscal year as the calendar year of the
// filing date. This is an approximation: companies with non-calendar
// fiscal years can be off by one. Returns 0 when the date is unparseable.
func (f Filing) FiscalYear() int {
	if len(f.FilingDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(f.FilingDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// FiscalQuarter derives the fiscal quarter from the report date's month.
// Returns 0 when the report date is missing or unparseable.
func (f Filing) FiscalQuarter() int {
	t, err := time.Parse("2006-01-02", f.ReportDate)
	if err != nil {
		return 0
	}
	return (int(t.Month())-1)/3 + 1
}

// filingTime parses the filing date for recency comparisons; unparseable
// dates sort as the zero time.
func (f Filing) filingTime() time.Time {
	t, _ := time.Parse("2006-01-02", f.FilingDate)
	return t
}

// Quarterly reports whether the filing's form is a quarterly report.
func (f Filing) Quarterly() bool {
	return strings.HasPrefix(f.Form, "10-Q")
}

// DocumentReference identifies one document within a filing's archive
// directory.
type DocumentReference struct {
	Filing Filing
	Name   string
}

// URL is the document's public archive address.
func (r DocumentReference) URL() string {
	cik := strings.TrimLeft(r.Filing.CIK, "0")
	if cik == "" {
		cik = "0"
	}
	accession := strings.ReplaceAll(r.Filing.AccessionNumber, "-", "")
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s", defaultArchivesBase, cik, accession, r.Name)
}
