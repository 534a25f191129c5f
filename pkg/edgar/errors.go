package edgar

import "errors"

// Sentinel errors for the fetch pipeline. All of them are per-filing
// failures: callers running a batch match them with errors.Is and move on
// to the next item.
var (
	// ErrTickerNotFound means the ticker is absent from the SEC company
	// index. Lookups never fall back to partial matches.
	ErrTickerNotFound = errors.New("ticker not found in company index")

	// ErrRegistryUnavailable covers transport or parse failures against
	// the ticker table or submissions endpoints.
	ErrRegistryUnavailable = errors.New("registry unavailable")

	// ErrNoMatch means no filing in the company's recent history satisfies
	// the requested form/year/quarter.
	ErrNoMatch = errors.New("no filing matches the request")

	// ErrNoPrimaryDocument means the filing's document set contains no
	// qualifying primary document, only exhibits or XBRL artifacts.
	ErrNoPrimaryDocument = errors.New("no primary document in filing")

	// ErrDocumentFetch covers transport failures fetching a document body.
	ErrDocumentFetch = errors.New("document fetch failed")
)
