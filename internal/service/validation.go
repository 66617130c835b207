package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/leadforge/enricher/internal/scraper"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

const (
	trackingPrefix     = "utm_"
	defaultPhoneRegion = "US"
	defaultHTTPTimeout = 5 * time.Second
)

// allowedSocialDomains pins each platform to its legitimate hosts so a
// mis-classified crawler match cannot persist a foreign URL under a
// platform's name.
var allowedSocialDomains = map[scraper.Platform][]string{
	scraper.PlatformLinkedIn:    {"linkedin.com"},
	scraper.PlatformTwitter:     {"twitter.com", "x.com"},
	scraper.PlatformFacebook:    {"facebook.com", "fb.com"},
	scraper.PlatformInstagram:   {"instagram.com"},
	scraper.PlatformYouTube:     {"youtube.com", "youtu.be"},
	scraper.PlatformGitHub:      {"github.com"},
	scraper.PlatformWhatsApp:    {"wa.me", "whatsapp.com"},
	scraper.PlatformTikTok:      {"tiktok.com"},
	scraper.PlatformPinterest:   {"pinterest.com", "pinterest.co.uk"},
	scraper.PlatformSnapchat:    {"snapchat.com"},
	scraper.PlatformThreads:     {"threads.net", "threads.com"},
	scraper.PlatformTripAdvisor: {"tripadvisor.com"},
}

// RawEnrichedData is the unvalidated crawl output for one company.
type RawEnrichedData struct {
	CompanyID string
	Website   string
	Report    scraper.CrawlReport
}

// CleanedData is the validated, normalized form persisted for a company.
type CleanedData struct {
	CompanyID    string                   `json:"company_id"`
	Website      string                   `json:"website"`
	Emails       []string                 `json:"emails"`
	Phones       []string                 `json:"phones"`
	Socials      scraper.SocialProfileSet `json:"socials"`
	Address      string                   `json:"address"`
	Branches     []scraper.BranchRecord   `json:"branches"`
	Outcome      string                   `json:"outcome"`
	PagesCrawled int                      `json:"pages_crawled"`
}

// DNSResolver abstracts DNS lookups to simplify testing.
type DNSResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// HTTPClient abstracts HTTP requests for validation purposes.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DataProcessor encapsulates the cleaning and validation rules applied to
// crawl output before it is persisted.
type DataProcessor struct {
	DefaultRegion string
	dnsResolver   DNSResolver
	httpClient    HTTPClient
	verifySocials bool
}

// DataProcessorOption configures optional dependencies.
type DataProcessorOption func(*DataProcessor)

// WithDNSResolver overrides the default DNS resolver.
func WithDNSResolver(resolver DNSResolver) DataProcessorOption {
	return func(p *DataProcessor) {
		p.dnsResolver = resolver
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPClient) DataProcessorOption {
	return func(p *DataProcessor) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithSocialVerification toggles the HEAD/GET resolution probe on social
// URLs. Off by default: the crawl just saw these links on the live site.
func WithSocialVerification(enabled bool) DataProcessorOption {
	return func(p *DataProcessor) {
		p.verifySocials = enabled
	}
}

// NewDataProcessor builds a processor with sensible defaults.
func NewDataProcessor(defaultRegion string, opts ...DataProcessorOption) *DataProcessor {
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = defaultPhoneRegion
	}
	p := &DataProcessor{
		DefaultRegion: region,
		dnsResolver:   systemDNSResolver{},
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process executes all cleaning and validation rules over a crawl report.
func (p *DataProcessor) Process(ctx context.Context, input RawEnrichedData) (CleanedData, error) {
	companyID := strings.TrimSpace(input.CompanyID)
	if companyID == "" {
		return CleanedData{}, errors.New("company_id is required")
	}

	contact := input.Report.Contact
	branches := p.cleanBranches(contact.Branches)

	address := strings.TrimSpace(contact.Address)
	if address == "" {
		address = selectBestAddress(branchAddresses(branches))
	}

	return CleanedData{
		CompanyID:    companyID,
		Website:      strings.TrimSpace(input.Website),
		Emails:       p.cleanEmails(ctx, contact.Emails),
		Phones:       p.normalizePhones(contact.Phones),
		Socials:      p.validateSocials(ctx, input.Report.Socials),
		Address:      address,
		Branches:     branches,
		Outcome:      string(input.Report.Outcome),
		PagesCrawled: input.Report.PagesCrawled,
	}, nil
}

func (p *DataProcessor) cleanEmails(ctx context.Context, emails []string) []string {
	if len(emails) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(emails))
	domainCache := make(map[string]bool)
	valid := make([]string, 0, len(emails))

	for _, raw := range emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email == "" || !emailPattern.MatchString(email) {
			continue
		}
		parts := strings.SplitN(email, "@", 2)
		domain := parts[1]
		if !isDomainValid(domain) {
			continue
		}
		asciiDomain, err := idnaProfile.ToASCII(domain)
		if err != nil || asciiDomain == "" {
			continue
		}
		if ok, cached := domainCache[asciiDomain]; cached {
			if !ok {
				continue
			}
		} else {
			hasMX := p.hasMXRecord(ctx, asciiDomain)
			domainCache[asciiDomain] = hasMX
			if !hasMX {
				continue
			}
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		valid = append(valid, email)
	}
	if len(valid) == 0 {
		return nil
	}
	return valid
}

func (p *DataProcessor) normalizePhones(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	valid := make([]string, 0, len(candidates))

	for _, raw := range candidates {
		normalized := normalizePhone(raw, p.DefaultRegion)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		valid = append(valid, normalized)
	}
	if len(valid) == 0 {
		return nil
	}
	return valid
}

func (p *DataProcessor) validateSocials(ctx context.Context, raw scraper.SocialProfileSet) scraper.SocialProfileSet {
	var result scraper.SocialProfileSet
	for _, platform := range scraper.Platforms {
		candidate := raw.URL(platform)
		if candidate == "" {
			continue
		}
		if sanitized, ok := p.cleanSocialLink(ctx, platform, candidate); ok {
			result = result.With(platform, sanitized)
		}
	}
	return result
}

func (p *DataProcessor) cleanBranches(branches []scraper.BranchRecord) []scraper.BranchRecord {
	cleaned := make([]scraper.BranchRecord, 0, len(branches))
	for _, b := range branches {
		b.Name = strings.TrimSpace(b.Name)
		b.Address = strings.TrimSpace(b.Address)
		b.Phone = normalizePhone(b.Phone, p.DefaultRegion)
		b.Email = normalizeBranchEmail(b.Email)
		if b.Name == "" && b.Address == "" {
			continue
		}
		cleaned = append(cleaned, b)
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

func normalizeBranchEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !emailPattern.MatchString(email) {
		return ""
	}
	return email
}

func (p *DataProcessor) cleanSocialLink(ctx context.Context, platform scraper.Platform, raw string) (string, bool) {
	u, err := sanitizeURL(raw)
	if err != nil {
		return "", false
	}
	if !hostAllowedFor(platform, u.Hostname()) {
		return "", false
	}
	stripTracking(u)
	if p.verifySocials && !p.urlResolves(ctx, u.String()) {
		return "", false
	}
	return u.String(), true
}

func (p *DataProcessor) hasMXRecord(ctx context.Context, domain string) bool {
	if p.dnsResolver == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	records, err := p.dnsResolver.LookupMX(ctx, domain)
	return err == nil && len(records) > 0
}

func (p *DataProcessor) urlResolves(ctx context.Context, target string) bool {
	if p.httpClient == nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return true
		}
		if resp.StatusCode != http.StatusMethodNotAllowed {
			return false
		}
	}

	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	resp, err = p.httpClient.Do(getReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func branchAddresses(branches []scraper.BranchRecord) []string {
	addresses := make([]string, 0, len(branches))
	for _, b := range branches {
		if b.Address != "" {
			addresses = append(addresses, b.Address)
		}
	}
	return addresses
}

func hostAllowedFor(platform scraper.Platform, host string) bool {
	host = strings.ToLower(strings.Trim(strings.TrimSpace(host), "."))
	if host == "" {
		return false
	}
	for _, domain := range allowedSocialDomains[platform] {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func sanitizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errors.New("invalid url")
	}
	u.Scheme = "https"
	return u, nil
}

func stripTracking(u *url.URL) {
	if u == nil {
		return
	}
	query := u.Query()
	changed := false
	for key := range query {
		if strings.HasPrefix(strings.ToLower(key), trackingPrefix) {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}

func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func selectBestAddress(addresses []string) string {
	var best string
	var bestScore int
	for _, raw := range addresses {
		addr := strings.TrimSpace(raw)
		if addr == "" {
			continue
		}
		score := addressScore(addr)
		if score > bestScore {
			bestScore = score
			best = addr
		}
	}
	return best
}

func addressScore(addr string) int {
	segments := strings.FieldsFunc(addr, func(r rune) bool { return r == ',' || r == ';' })
	completeness := len(segments)
	lengthScore := len([]rune(addr))
	return completeness*1000 + lengthScore
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	parts := strings.Split(domain, ".")
	for _, part := range parts {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}

type systemDNSResolver struct{}

func (systemDNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return net.DefaultResolver.LookupMX(ctx, domain)
}
