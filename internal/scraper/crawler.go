package scraper

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
)

const defaultMaxExtraPages = 3

// conventionalPaths are appended to the site root as candidate contact pages
// even when no anchor advertises them.
var conventionalPaths = []string{"/contact", "/contact-us", "/locations", "/about", "/about-us"}

// pageKeywords mark anchors that likely lead to contact or branch listings.
var pageKeywords = []string{"contact", "location", "branch", "office", "store"}

// CrawlOutcome distinguishes a crawl that inspected pages from one whose
// root never answered. The payload is empty either way; the tag lets callers
// and tests tell genuine absence from a dead site.
type CrawlOutcome string

const (
	OutcomeOK              CrawlOutcome = "ok"
	OutcomeRootUnreachable CrawlOutcome = "root_unreachable"
)

// CrawlReport is the aggregate result of one site crawl.
type CrawlReport struct {
	Outcome      CrawlOutcome     `json:"outcome"`
	Socials      SocialProfileSet `json:"socials"`
	Contact      ContactRecord    `json:"contact"`
	PagesCrawled int              `json:"pages_crawled"`
}

// Crawler visits a bounded set of same-site pages and aggregates contact and
// social-profile facts. Each crawl owns its state exclusively; a single
// Crawler is safe for concurrent crawls because it only holds configuration.
type Crawler struct {
	fetcher       *Fetcher
	maxExtraPages int
	regionRule    RegionRule
}

// CrawlerOption adjusts crawler construction.
type CrawlerOption func(*Crawler)

// WithMaxExtraPages caps how many sub-pages beyond the root are fetched.
func WithMaxExtraPages(n int) CrawlerOption {
	return func(c *Crawler) {
		if n >= 0 {
			c.maxExtraPages = n
		}
	}
}

// WithRegionRule overrides the anchor region classification rule.
func WithRegionRule(rule RegionRule) CrawlerOption {
	return func(c *Crawler) {
		if rule != nil {
			c.regionRule = rule
		}
	}
}

// NewCrawler builds a crawler around the provided HTTP client; a nil client
// selects the default browser-like fetcher configuration.
func NewCrawler(client *http.Client, opts ...CrawlerOption) *Crawler {
	c := &Crawler{
		fetcher:       NewFetcher(client),
		maxExtraPages: defaultMaxExtraPages,
		regionRule:    DefaultRegionRule,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl fetches the root page, resolves social links from it, then visits up
// to maxExtraPages discovered contact-style pages and merges their extracted
// records. A dead root degrades to an empty report, never an error.
func (c *Crawler) Crawl(ctx context.Context, rootURL string) CrawlReport {
	report := CrawlReport{Outcome: OutcomeOK}

	rootHTML, status := c.fetcher.Fetch(ctx, rootURL)
	if status != FetchOK {
		log.Printf("crawl root fetch failed url=%s status=%s", rootURL, status)
		report.Outcome = OutcomeRootUnreachable
		return report
	}

	rootPage, ok := ParsePageWithRule(rootHTML, c.regionRule)
	if !ok {
		report.Outcome = OutcomeRootUnreachable
		return report
	}

	// Social links are assumed discoverable from the root; sub-pages are not
	// re-scanned for them.
	report.Socials = ResolveSocialLinks(rootPage)

	report.Contact.Merge(ExtractContacts(rootPage))
	report.PagesCrawled = 1

	visited := map[string]struct{}{normalizePageKey(rootURL): {}}
	attempts := 0
	for _, candidate := range discoverCandidatePages(rootURL, rootPage) {
		if attempts >= c.maxExtraPages {
			break
		}
		key := normalizePageKey(candidate)
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}
		attempts++

		html, status := c.fetcher.Fetch(ctx, candidate)
		if status != FetchOK {
			continue
		}
		page, ok := ParsePageWithRule(html, c.regionRule)
		if !ok {
			continue
		}
		report.Contact.Merge(ExtractContacts(page))
		report.PagesCrawled++
	}

	report.Contact.Finalize()
	return report
}

// ExtractSocialLinks fetches the root page only and resolves its social
// profile links. All failures collapse to an all-absent set.
func (c *Crawler) ExtractSocialLinks(ctx context.Context, rootURL string) SocialProfileSet {
	html, status := c.fetcher.Fetch(ctx, rootURL)
	if status != FetchOK {
		return SocialProfileSet{}
	}
	page, ok := ParsePageWithRule(html, c.regionRule)
	if !ok {
		return SocialProfileSet{}
	}
	return ResolveSocialLinks(page)
}

// ExtractContactInfo runs a full crawl and returns the aggregated contact
// record. An unreachable site yields an empty record.
func (c *Crawler) ExtractContactInfo(ctx context.Context, rootURL string) ContactRecord {
	return c.Crawl(ctx, rootURL).Contact
}

// GetPageText fetches one page and returns its bounded, chrome-stripped plain
// text, or an empty string on any failure.
func (c *Crawler) GetPageText(ctx context.Context, pageURL string) string {
	html, status := c.fetcher.Fetch(ctx, pageURL)
	if status != FetchOK {
		return ""
	}
	page, ok := ParsePageWithRule(html, c.regionRule)
	if !ok {
		return ""
	}
	return page.SummaryText
}

// discoverCandidatePages lists sub-page URLs worth visiting: conventional
// contact paths first, then root-page anchors whose href or text carries a
// location keyword, in document order.
func discoverCandidatePages(rootURL string, rootPage *PageDocument) []string {
	root, err := url.Parse(rootURL)
	if err != nil || root.Host == "" {
		return nil
	}

	var candidates []string
	for _, path := range conventionalPaths {
		candidates = append(candidates, root.Scheme+"://"+root.Host+path)
	}

	for _, anchor := range rootPage.Anchors {
		lower := strings.ToLower(anchor.Href)
		if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "javascript:") {
			continue
		}
		if !containsKeyword(lower) && !containsKeyword(strings.ToLower(anchor.Text)) {
			continue
		}
		resolved, err := root.Parse(anchor.Href)
		if err != nil || !strings.EqualFold(resolved.Hostname(), root.Hostname()) {
			continue
		}
		resolved.Fragment = ""
		candidates = append(candidates, resolved.String())
	}
	return candidates
}

func containsKeyword(s string) bool {
	for _, keyword := range pageKeywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

func normalizePageKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.ToLower(rawURL)
	}
	u.Fragment = ""
	key := strings.ToLower(u.String())
	return strings.TrimRight(key, "/")
}
