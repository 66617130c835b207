package service

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/leadforge/enricher/internal/scraper"
)

type stubDNSResolver struct {
	mx map[string]bool
}

func (r *stubDNSResolver) LookupMX(_ context.Context, domain string) ([]*net.MX, error) {
	if r.mx != nil && r.mx[domain] {
		return []*net.MX{{Host: "mx." + domain}}, nil
	}
	return nil, errors.New("no mx records")
}

type stubHTTPClient struct {
	responses map[string]int
}

func (c *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	key := req.Method + " " + req.URL.String()
	status, ok := c.responses[key]
	if !ok {
		return nil, errors.New("unexpected request " + key)
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

type noopHTTPClient struct{}

func (noopHTTPClient) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("no network in tests")
}

func TestCleanEmailsValidatesSyntaxAndMX(t *testing.T) {
	resolver := &stubDNSResolver{
		mx: map[string]bool{"acme.com": true},
	}
	p := NewDataProcessor("US", WithDNSResolver(resolver), WithHTTPClient(noopHTTPClient{}))

	emails := []string{
		"Sales@Acme.com",
		"sales@acme.com",
		"invalid@",
		"user@missingmx.com",
	}

	got := p.cleanEmails(context.Background(), emails)
	if len(got) != 1 || got[0] != "sales@acme.com" {
		t.Fatalf("expected only normalized valid email, got %#v", got)
	}
}

func TestNormalizePhonesDeduplicatesEquivalentForms(t *testing.T) {
	p := NewDataProcessor("US", WithHTTPClient(noopHTTPClient{}))

	phones := p.normalizePhones([]string{" (415) 555-2671 ", "+14155552671", "12345"})
	if len(phones) != 1 || phones[0] != "+14155552671" {
		t.Fatalf("unexpected normalized phones: %#v", phones)
	}
}

func TestValidateSocialsEnforcesPlatformDomains(t *testing.T) {
	p := NewDataProcessor("US", WithDNSResolver(&stubDNSResolver{}), WithHTTPClient(noopHTTPClient{}))

	raw := scraper.SocialProfileSet{
		LinkedIn:  "https://www.linkedin.com/company/acme?utm_source=newsletter",
		Instagram: "https://evil.example.com/not-instagram",
		GitHub:    "github.com/acme",
	}

	result := p.validateSocials(context.Background(), raw)

	if result.LinkedIn != "https://www.linkedin.com/company/acme" {
		t.Fatalf("linkedin not cleaned correctly: %s", result.LinkedIn)
	}
	if result.Instagram != "" {
		t.Fatalf("foreign domain must not pass as instagram: %s", result.Instagram)
	}
	if result.GitHub != "https://github.com/acme" {
		t.Fatalf("bare-domain href should normalize to https: %s", result.GitHub)
	}
}

func TestValidateSocialsOptionallyProbesURLs(t *testing.T) {
	httpClient := &stubHTTPClient{
		responses: map[string]int{
			"HEAD https://www.linkedin.com/company/alive": http.StatusOK,
			"HEAD https://twitter.com/gone":               http.StatusNotFound,
		},
	}
	p := NewDataProcessor("US",
		WithDNSResolver(&stubDNSResolver{}),
		WithHTTPClient(httpClient),
		WithSocialVerification(true),
	)

	raw := scraper.SocialProfileSet{
		LinkedIn: "https://www.linkedin.com/company/alive",
		Twitter:  "https://twitter.com/gone",
	}
	result := p.validateSocials(context.Background(), raw)

	if result.LinkedIn == "" {
		t.Fatalf("resolvable profile should be kept")
	}
	if result.Twitter != "" {
		t.Fatalf("dead profile should be dropped, got %s", result.Twitter)
	}
}

func TestCleanBranchesNormalizesAndDropsEmptyCards(t *testing.T) {
	p := NewDataProcessor("US", WithHTTPClient(noopHTTPClient{}))

	branches := p.cleanBranches([]scraper.BranchRecord{
		{Name: " Springfield ", Address: "123 Main St, Springfield", Phone: "(217) 555-2671", Email: "SPRINGFIELD@ACME.COM"},
		{Phone: "(217) 555-0000"},
	})

	if len(branches) != 1 {
		t.Fatalf("branch without name or address must drop: %#v", branches)
	}
	b := branches[0]
	if b.Name != "Springfield" || b.Phone != "+12175552671" || b.Email != "springfield@acme.com" {
		t.Fatalf("branch not normalized: %#v", b)
	}
}

func TestSelectBestAddressPrefersMostComplete(t *testing.T) {
	addresses := []string{
		"Short address",
		"Longer address, Suite 101",
		"",
		"Another, Address, Line, City",
	}

	best := selectBestAddress(addresses)
	if best != "Another, Address, Line, City" {
		t.Fatalf("unexpected best address: %s", best)
	}
}

func TestProcessReturnsStructuredOutput(t *testing.T) {
	resolver := &stubDNSResolver{mx: map[string]bool{"acme.com": true}}
	p := NewDataProcessor("US", WithDNSResolver(resolver), WithHTTPClient(noopHTTPClient{}))

	input := RawEnrichedData{
		CompanyID: "123",
		Website:   "https://acme.com",
		Report: scraper.CrawlReport{
			Outcome:      scraper.OutcomeOK,
			PagesCrawled: 3,
			Socials: scraper.SocialProfileSet{
				LinkedIn: "https://www.linkedin.com/company/acme?utm_medium=feed",
			},
			Contact: scraper.ContactRecord{
				Address: "500 Market Street, San Francisco, CA 94107",
				Phones:  []string{"(415) 555-2671"},
				Emails:  []string{"USER@ACME.COM"},
			},
		},
	}

	result, err := p.Process(context.Background(), input)
	if err != nil {
		t.Fatalf("process returned error: %v", err)
	}
	if result.CompanyID != "123" || result.Website != "https://acme.com" {
		t.Fatalf("identity fields lost: %#v", result)
	}
	if len(result.Emails) != 1 || result.Emails[0] != "user@acme.com" {
		t.Fatalf("emails not cleaned: %#v", result.Emails)
	}
	if len(result.Phones) != 1 || result.Phones[0] != "+14155552671" {
		t.Fatalf("phones not normalized: %#v", result.Phones)
	}
	if result.Socials.LinkedIn != "https://www.linkedin.com/company/acme" {
		t.Fatalf("socials not validated: %#v", result.Socials)
	}
	if result.Address != "500 Market Street, San Francisco, CA 94107" {
		t.Fatalf("primary address lost: %q", result.Address)
	}
	if result.Outcome != string(scraper.OutcomeOK) || result.PagesCrawled != 3 {
		t.Fatalf("crawl metadata lost: %#v", result)
	}
}

func TestProcessFallsBackToBranchAddress(t *testing.T) {
	p := NewDataProcessor("US", WithDNSResolver(&stubDNSResolver{}), WithHTTPClient(noopHTTPClient{}))

	input := RawEnrichedData{
		CompanyID: "123",
		Report: scraper.CrawlReport{
			Outcome: scraper.OutcomeOK,
			Contact: scraper.ContactRecord{
				Branches: []scraper.BranchRecord{
					{Name: "North", Address: "12 Short St"},
					{Name: "South", Address: "742 Evergreen Terrace, Springfield, IL 62704"},
				},
			},
		},
	}

	result, err := p.Process(context.Background(), input)
	if err != nil {
		t.Fatalf("process returned error: %v", err)
	}
	if result.Address != "742 Evergreen Terrace, Springfield, IL 62704" {
		t.Fatalf("expected most complete branch address, got %q", result.Address)
	}
}

func TestProcessRequiresCompanyID(t *testing.T) {
	p := NewDataProcessor("US", WithHTTPClient(noopHTTPClient{}))
	if _, err := p.Process(context.Background(), RawEnrichedData{}); err == nil {
		t.Fatalf("expected error for missing company id")
	}
}
