// Package extract converts the iXBRL-laden HTML of an EDGAR filing into
// readable plain text: structured-data markup and metadata are stripped,
// narrative and tabular text is kept in document order.
package extract

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Heuristics are the tunable thresholds of the line-noise filter. The
// filter is best effort: it trades occasional false positives (a dropped
// table value) for output free of XBRL metadata fragments, and the
// thresholds are exported so tests can probe boundary behavior.
type Heuristics struct {
	// MaxCodeLen is the longest line still treated as a lone
	// namespace-qualified token (e.g. "us-gaap:NetIncomeLoss") or
	// taxonomy URL.
	MaxCodeLen int
	// MaxNoiseWords is the word-count ceiling for the digit-density
	// rule: lines with more words are always narrative.
	MaxNoiseWords int
	// MaxDigitDensity is the digit-and-symbol share of a short line at
	// or above which it is dropped as noise.
	MaxDigitDensity float64
}

// DefaultHeuristics returns the shipped thresholds.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		MaxCodeLen:      100,
		MaxNoiseWords:   2,
		MaxDigitDensity: 0.5,
	}
}

// Text renders raw filing markup as cleaned plain text. It never fails:
// if the markup cannot be parsed as HTML the tags are stripped by pattern
// matching instead, which is lossy but non-fatal. Content is only ever
// removed or collapsed, never reordered.
func Text(raw []byte, h Heuristics) string {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return postProcess(stripTags(string(raw)), h)
	}
	var b strings.Builder
	extractText(doc, &b)
	return postProcess(b.String(), h)
}

// page furniture that never carries filing text
var droppedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"head":     true,
	"meta":     true,
	"link":     true,
	"title":    true,
	"button":   true,
	"noscript": true,
}

// ix: sections that hold contexts, units and hidden facts; their text is
// metadata, not prose
var metadataCarriers = map[string]bool{
	"header":     true,
	"hidden":     true,
	"resources":  true,
	"references": true,
}

// metadata elements dropped regardless of namespace prefix
var metadataElements = map[string]bool{
	"context":   true,
	"unit":      true,
	"measure":   true,
	"schemaref": true,
}

// dropNode reports whether an element's whole subtree is excluded from
// output. Elements with a namespace prefix are structured data (us-gaap:,
// dei:, xbrli:, company taxonomies) and drop entirely — except the ix:
// namespace, whose fact elements wrap narrative text inline and are kept
// as transparent containers.
func dropNode(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	name := strings.ToLower(n.Data)
	if droppedElements[name] {
		return true
	}
	prefix, local, qualified := strings.Cut(name, ":")
	if metadataElements[name] || (qualified && metadataElements[local]) {
		return true
	}
	if !qualified {
		return false
	}
	if prefix == "ix" {
		return metadataCarriers[local]
	}
	return true
}

func isInlineNode(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return true
	}
	switch n.Data {
	case "span", "em", "strong", "b", "i", "u", "a", "br", "sup", "sub", "font":
		return true
	}
	// ix:nonfraction etc. appear mid-sentence
	return strings.HasPrefix(n.Data, "ix:")
}

// extractText stringifies a node the way it would display: block nodes
// wrap their content in line returns, inline runs have contiguous
// whitespace collapsed to one space, and excluded subtrees are omitted.
func extractText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	var cb strings.Builder
	allInline := onlyInlineChildren(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if dropNode(c) {
			continue
		}
		if !allInline && c.Type == html.TextNode {
			continue
		}
		extractText(c, &cb)
	}
	if allInline {
		b.WriteString(strings.Join(strings.Fields(cb.String()), " "))
	} else {
		b.WriteString(cb.String())
	}
	if n.Type == html.ElementNode && !isInlineNode(n) {
		b.WriteString("\n")
	}
}

func onlyInlineChildren(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if dropNode(c) {
			continue
		}
		if !isInlineNode(c) {
			return false
		}
	}
	return true
}

var tagRe = regexp.MustCompile(`(?s)<[^>]*>`)

// stripTags is the parse-failure fallback: markup tags become line breaks
// and the remaining text goes through the same post-processing.
func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, "\n")
}

var (
	bareNumberRe = regexp.MustCompile(`^[\(\[]?[-+]?\$?\s?\d[\d,]*(?:\.\d+)?%?[\)\]]?$`)
	isoDateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDateRe  = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`)
	monthDateRe  = regexp.MustCompile(`^(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}$`)
)

// postProcess filters the extracted lines and collapses whitespace. Runs
// of blank lines become a single blank line; leading and trailing
// whitespace goes away entirely.
func postProcess(s string, h Heuristics) string {
	var out []string
	pendingBlank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			pendingBlank = len(out) > 0
			continue
		}
		if noiseLine(line, h) {
			continue
		}
		if pendingBlank {
			out = append(out, "")
			pendingBlank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// noiseLine reports whether a line is non-narrative residue: a bare
// number, a bare date, a lone namespace-qualified token or taxonomy URL,
// or a short line that is mostly digits and symbols. Heuristic by nature;
// some tabular values are lost and some codes survive.
func noiseLine(line string, h Heuristics) bool {
	if bareNumberRe.MatchString(line) {
		return true
	}
	if isoDateRe.MatchString(line) || slashDateRe.MatchString(line) || monthDateRe.MatchString(line) {
		return true
	}
	if !strings.ContainsAny(line, " \t") && strings.Contains(line, ":") && len(line) < h.MaxCodeLen {
		return true
	}
	if len(strings.Fields(line)) <= h.MaxNoiseWords && digitDensity(line) >= h.MaxDigitDensity {
		return true
	}
	return false
}

// digitDensity is the share of runes that are digits or symbols (neither
// letters nor spaces).
func digitDensity(line string) float64 {
	if line == "" {
		return 0
	}
	var n int
	for _, r := range line {
		if unicode.IsDigit(r) || (!unicode.IsLetter(r) && !unicode.IsSpace(r)) {
			n++
		}
	}
	return float64(n) / float64(utf8.RuneCountInString(line))
}
