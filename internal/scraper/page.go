package scraper

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxTextRunes = 8000

// Region identifies the page area an anchor was found in. Links placed in
// header, footer, nav or explicitly social-marked containers are treated as
// higher-confidence sources for profile URLs than body links.
type Region string

const (
	RegionNone   Region = ""
	RegionHeader Region = "header"
	RegionFooter Region = "footer"
	RegionNav    Region = "nav"
	RegionSocial Region = "social"
)

// Priority reports whether links in the region outrank body links.
func (r Region) Priority() bool {
	return r != RegionNone
}

// RegionRule maps an ancestor element's tag and class/id attributes to a
// Region. Classification by class-name substrings is inherently fuzzy, so the
// rule is injectable and unit-tested on its own.
type RegionRule func(tag, class, id string) Region

// DefaultRegionRule classifies the structural chrome tags directly and falls
// back to class/id token sniffing for div-soup markup.
func DefaultRegionRule(tag, class, id string) Region {
	switch tag {
	case "header":
		return RegionHeader
	case "footer":
		return RegionFooter
	case "nav":
		return RegionNav
	}
	markers := strings.ToLower(class + " " + id)
	switch {
	case strings.Contains(markers, "social"):
		return RegionSocial
	case strings.Contains(markers, "footer"):
		return RegionFooter
	case strings.Contains(markers, "header"), strings.Contains(markers, "masthead"):
		return RegionHeader
	case strings.Contains(markers, "navbar"), strings.Contains(markers, "nav-"):
		return RegionNav
	}
	return RegionNone
}

// Anchor is one <a href> element with its resolved region.
type Anchor struct {
	Href   string
	Text   string
	Region Region
}

// PageDocument is the parsed, immutable view of one fetched page: flattened
// text, the anchor set and any embedded JSON-LD blocks. It is built once per
// fetch and discarded after extraction.
type PageDocument struct {
	// Text is the whitespace-collapsed page text with script/style removed,
	// bounded to maxTextRunes. Header and footer content is retained because
	// contact details commonly live there.
	Text string
	// SummaryText additionally drops nav/header/footer chrome; it is the
	// variant handed to keyword and language-model consumers.
	SummaryText string
	Anchors     []Anchor
	// StructuredData holds every decoded JSON-LD object on the page.
	StructuredData []map[string]any

	doc *goquery.Document
}

// ParsePage builds a PageDocument from raw HTML using the default region
// rule. The second return is false when the markup produced no usable tree.
func ParsePage(rawHTML string) (*PageDocument, bool) {
	return ParsePageWithRule(rawHTML, DefaultRegionRule)
}

// ParsePageWithRule is ParsePage with a custom region classification rule.
func ParsePageWithRule(rawHTML string, rule RegionRule) (*PageDocument, bool) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, false
	}

	page := &PageDocument{
		Text:           flattenText(doc, false),
		SummaryText:    flattenText(doc, true),
		Anchors:        collectAnchors(doc, rule),
		StructuredData: collectStructuredData(doc),
		doc:            doc,
	}
	return page, true
}

func collectAnchors(doc *goquery.Document, rule RegionRule) []Anchor {
	var anchors []Anchor
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" {
			return
		}
		anchors = append(anchors, Anchor{
			Href:   href,
			Text:   strings.TrimSpace(sel.Text()),
			Region: classifyAncestors(sel, rule),
		})
	})
	return anchors
}

func classifyAncestors(sel *goquery.Selection, rule RegionRule) Region {
	region := RegionNone
	sel.Parents().EachWithBreak(func(_ int, parent *goquery.Selection) bool {
		tag := goquery.NodeName(parent)
		if tag == "html" || tag == "body" {
			return true
		}
		if r := rule(tag, parent.AttrOr("class", ""), parent.AttrOr("id", "")); r != RegionNone {
			region = r
			return false
		}
		return true
	})
	return region
}

func collectStructuredData(doc *goquery.Document) []map[string]any {
	var blocks []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		var single map[string]any
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			blocks = append(blocks, single)
			return
		}
		var many []map[string]any
		if err := json.Unmarshal([]byte(raw), &many); err == nil {
			blocks = append(blocks, many...)
		}
	})
	return blocks
}

// flattenText renders the document as plain text. Script and style content is
// always removed; stripChrome additionally drops nav/header/footer so the
// result reflects main content only.
func flattenText(doc *goquery.Document, stripChrome bool) string {
	root := doc.Selection.Clone()
	root.Find("script,style,noscript").Remove()
	if stripChrome {
		root.Find("nav,header,footer").Remove()
	}
	return truncateRunes(collapseWhitespace(root.Text()), maxTextRunes)
}

// collapseWhitespace reduces runs of blank space to single line breaks,
// keeping one trimmed chunk per line.
func collapseWhitespace(raw string) string {
	var b strings.Builder
	for _, line := range strings.Split(raw, "\n") {
		for _, chunk := range strings.Split(line, "  ") {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(chunk)
		}
	}
	return b.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
