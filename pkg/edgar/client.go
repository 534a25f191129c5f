// Package edgar fetches company filings from the SEC's EDGAR system:
// ticker-to-CIK resolution, per-company submission histories, and the
// documents inside each filing's archive directory.
package edgar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultFilesBase    = "https://www.sec.gov"
	defaultDataBase     = "https://data.sec.gov"
	defaultArchivesBase = "https://www.sec.gov"

	// SEC asks for identified, throttled access; see
	// https://www.sec.gov/os/webmaster-faq#code-support
	defaultMetadataTimeout = 10 * time.Second
	defaultDocumentTimeout = 15 * time.Second
)

// Client handles communications with EDGAR endpoints. Every outbound
// request acquires a token from a shared limiter before hitting the wire,
// so the minimum delay between requests holds no matter which method (or
// caller) issues them.
type Client struct {
	userAgent  string
	httpClient *http.Client

	filesBase    string
	dataBase     string
	archivesBase string

	metadataTimeout time.Duration
	documentTimeout time.Duration
}

// pacedTransport wraps an HTTP transport with rate limiting.
type pacedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (p *pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := p.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return p.transport.RoundTrip(req)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client, bypassing the
// default paced transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points every endpoint at the given base. Tests use this to
// target an httptest server.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.filesBase = base
		c.dataBase = base
		c.archivesBase = base
	}
}

// WithTimeouts overrides the per-request timeouts for metadata calls and
// document bodies.
func WithTimeouts(metadata, document time.Duration) Option {
	return func(c *Client) {
		c.metadataTimeout = metadata
		c.documentTimeout = document
	}
}

// NewClient creates an EDGAR client. userAgent identifies the caller as
// required by the SEC's access policy. minDelay is the floor between
// successive outbound requests; <= 0 disables pacing.
func NewClient(userAgent string, minDelay time.Duration, opts ...Option) *Client {
	c := &Client{
		userAgent:       userAgent,
		filesBase:       defaultFilesBase,
		dataBase:        defaultDataBase,
		archivesBase:    defaultArchivesBase,
		metadataTimeout: defaultMetadataTimeout,
		documentTimeout: defaultDocumentTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: &pacedTransport{
				transport: http.DefaultTransport,
				limiter:   rate.NewLimiter(rate.Every(minDelay), 1),
			},
		}
	}
	return c
}

// get performs a paced GET and returns the response body. The timeout
// bounds the whole call, body read included.
func (c *Client) get(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

// Tickers fetches and parses the SEC's company ticker table. The table is
// large; callers fetch it once per run and reuse the returned index.
func (c *Client) Tickers(ctx context.Context) (*TickerIndex, error) {
	body, err := c.get(ctx, c.filesBase+"/files/company_tickers.json", c.metadataTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: ticker table: %s", ErrRegistryUnavailable, err)
	}
	idx, err := ParseTickerTable(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: ticker table: %s", ErrRegistryUnavailable, err)
	}
	return idx, nil
}

// Submissions fetches EDGAR submissions data for a given CIK. The
// response's recent window covers roughly the last 1000 filings; older
// filings live in paginated files this client does not follow, so very
// active filers have incomplete accessible history.
func (c *Client) Submissions(ctx context.Context, cik string) (*Submissions, error) {
	url := fmt.Sprintf("%s/submissions/CIK%010s.json", c.dataBase, cik)
	body, err := c.get(ctx, url, c.metadataTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: submissions for CIK %s: %s", ErrRegistryUnavailable, cik, err)
	}
	var subs Submissions
	if err := json.Unmarshal(body, &subs); err != nil {
		return nil, fmt.Errorf("%w: submissions for CIK %s: %s", ErrRegistryUnavailable, cik, err)
	}
	return &subs, nil
}

// Document fetches the raw bytes of a document within a filing's archive
// directory. Bodies can be large, so this uses the longer document timeout.
func (c *Client) Document(ctx context.Context, ref DocumentReference) ([]byte, error) {
	body, err := c.get(ctx, c.archiveDirURL(ref.Filing)+ref.Name, c.documentTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentFetch, err)
	}
	return body, nil
}

// archiveDirURL is the filing's archive directory, which uses the
// unpadded CIK and the accession number with hyphens removed.
func (c *Client) archiveDirURL(f Filing) string {
	cik := strings.TrimLeft(f.CIK, "0")
	if cik == "" {
		cik = "0"
	}
	accession := strings.ReplaceAll(f.AccessionNumber, "-", "")
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s/", c.archivesBase, cik, accession)
}
