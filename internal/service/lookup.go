package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/leadforge/enricher/internal/entity"
)

var (
	// ErrLookupNoResults indicates the search backend returned nothing usable.
	ErrLookupNoResults = errors.New("no search results for company")
	// ErrWebsiteNotFound indicates no result looked like an official website.
	ErrWebsiteNotFound = errors.New("could not determine official website")
)

// Directory and social hosts are never a company's own website.
var lookupSkipDomains = []string{
	"linkedin.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"yelp.com",
	"yellowpages.com",
	"wikipedia.org",
	"crunchbase.com",
	"glassdoor.com",
	"indeed.com",
	"bloomberg.com",
}

// SearchResult is a single entry returned by a search backend.
type SearchResult struct {
	Title   string
	Link    string
	Snippet string
}

// SearchProvider abstracts the web-search backend used for website lookup.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int64) ([]SearchResult, error)
}

// CustomSearchProvider implements SearchProvider on top of the Google
// Programmable Search Engine API.
type CustomSearchProvider struct {
	svc      *customsearch.Service
	engineID string
}

// NewCustomSearchProvider builds a provider using an API key and engine id.
func NewCustomSearchProvider(ctx context.Context, apiKey, engineID string) (*CustomSearchProvider, error) {
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("search api key and engine id must not be empty")
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create customsearch service: %w", err)
	}
	return &CustomSearchProvider{svc: svc, engineID: engineID}, nil
}

// Search runs a query against the configured search engine.
func (p *CustomSearchProvider) Search(ctx context.Context, query string, limit int64) ([]SearchResult, error) {
	if limit <= 0 || limit > 10 {
		limit = 10
	}
	resp, err := p.svc.Cse.List().Q(query).Cx(p.engineID).Num(limit).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("customsearch query: %w", err)
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, SearchResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}

// LookupService resolves company names to their official websites.
type LookupService struct {
	provider SearchProvider
}

// NewLookupService wires a lookup service over the given search backend.
func NewLookupService(provider SearchProvider) *LookupService {
	return &LookupService{provider: provider}
}

// LookupWebsite searches for a company's official website. The first result
// whose domain contains a token of the company name wins; directory and
// social hosts are skipped.
func (s *LookupService) LookupWebsite(ctx context.Context, companyName, location string) (*entity.WebsiteLookup, error) {
	name := strings.TrimSpace(companyName)
	if len(name) < 2 {
		return nil, fmt.Errorf("company name too short")
	}

	query := name
	if loc := strings.TrimSpace(location); loc != "" {
		query += " " + loc
	}
	query += " official website"

	results, err := s.provider.Search(ctx, query, 8)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrLookupNoResults
	}

	nameTokens := domainTokens(name)
	for rank, result := range results {
		parsed, err := url.Parse(result.Link)
		if err != nil || parsed.Host == "" {
			continue
		}
		domain := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
		if isSkippedDomain(domain) {
			continue
		}

		if !domainMatchesTokens(domain, nameTokens) {
			continue
		}

		return &entity.WebsiteLookup{
			CompanyName: name,
			Website:     parsed.Scheme + "://" + parsed.Host,
			Source:      "google_cse",
			Confidence:  rankConfidence(rank),
		}, nil
	}

	return nil, ErrWebsiteNotFound
}

func domainTokens(name string) []string {
	var tokens []string
	for _, part := range strings.Fields(strings.ToLower(name)) {
		part = strings.Trim(part, ".,&-")
		if len(part) > 2 {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

func domainMatchesTokens(domain string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(domain, token) {
			return true
		}
	}
	return false
}

func isSkippedDomain(domain string) bool {
	for _, skip := range lookupSkipDomains {
		if domain == skip || strings.HasSuffix(domain, "."+skip) {
			return true
		}
	}
	return false
}

func rankConfidence(rank int) float64 {
	confidence := 0.9 - 0.05*float64(rank)
	if confidence < 0.5 {
		confidence = 0.5
	}
	return confidence
}
