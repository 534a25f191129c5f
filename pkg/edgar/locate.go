package edgar

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// viewer renders like R1.htm, R24.htm are generated XBRL report pages,
// not the filed document.
var viewerRenderRe = regexp.MustCompile(`^r\d+\.htm$`)

// LocatePrimary determines which document in the filing's document set is
// the primary filing document. The submissions feed usually flags it via
// primaryDocument; when that is absent (or points at a structured-data
// artifact) the filing's archive directory index is fetched and scanned
// for the main .htm document, skipping exhibits, viewer renders and
// XBRL schemas/linkbases even when they appear first in the listing.
func (c *Client) LocatePrimary(ctx context.Context, f Filing) (DocumentReference, error) {
	if f.PrimaryDocument != "" && !structuredDataFile(f.PrimaryDocument) {
		return DocumentReference{Filing: f, Name: f.PrimaryDocument}, nil
	}

	body, err := c.get(ctx, c.archiveDirURL(f), c.metadataTimeout)
	if err != nil {
		return DocumentReference{}, fmt.Errorf("%w: directory index for %s: %s", ErrNoPrimaryDocument, f.AccessionNumber, err)
	}

	name, err := primaryFromIndex(body)
	if err != nil {
		return DocumentReference{}, fmt.Errorf("%s: %w", f.AccessionNumber, err)
	}
	return DocumentReference{Filing: f, Name: name}, nil
}

// primaryFromIndex scans an archive directory listing for the primary
// document. Preference order: the first .htm file that is neither an
// exhibit nor a viewer render, then r1.htm, then any .htm file at all.
func primaryFromIndex(indexHTML []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(indexHTML))
	if err != nil {
		return "", fmt.Errorf("%w: parsing directory index: %s", ErrNoPrimaryDocument, err)
	}

	var primary, render1, fallback string
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		name := strings.ToLower(path.Base(href))
		if !strings.HasSuffix(name, ".htm") && !strings.HasSuffix(name, ".html") {
			return
		}
		if strings.Contains(name, "index") || structuredDataFile(name) {
			return
		}
		if fallback == "" {
			fallback = path.Base(href)
		}
		if name == "r1.htm" && render1 == "" {
			render1 = path.Base(href)
		}
		if strings.Contains(name, "exhibit") || strings.HasPrefix(name, "ex-") || viewerRenderRe.MatchString(name) {
			return
		}
		if primary == "" {
			primary = path.Base(href)
		}
	})

	switch {
	case primary != "":
		return primary, nil
	case render1 != "":
		return render1, nil
	case fallback != "":
		return fallback, nil
	}
	return "", ErrNoPrimaryDocument
}

// structuredDataFile reports whether a file name denotes an XBRL
// structured-data artifact: schemas (.xsd) or XML instance documents and
// calculation/definition/label/presentation linkbases (_cal.xml, _def.xml,
// _lab.xml, _pre.xml, *_htm.xml). These carry machine-readable data only
// and never qualify as the primary document.
func structuredDataFile(name string) bool {
	switch path.Ext(strings.ToLower(name)) {
	case ".xsd", ".xml":
		return true
	}
	return false
}
