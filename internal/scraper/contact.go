package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	minAddressLen  = 20
	maxAddressLen  = 500
	minPhoneDigits = 10
)

// Ordered loosest-last: local NXX-NXX-NXXX style, parenthesised area code,
// then loosely delimited international numbers.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{3}[-.\s]\d{3}[-.\s]\d{4}`),
	regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`),
	regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{1,4}[-.\s]?\d{2,4}[-.\s]?\d{2,4}[-.\s]?\d{0,4}`),
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// streetShapePattern recognises "123 Main Street" style lines inside branch
// cards that carry no explicit address element.
var streetShapePattern = regexp.MustCompile(`(?i)\d+[\w\s.,#\-]*\b(street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln|way|court|ct|plaza|suite|ste|floor)\b`)

// placeholderEmailDomains are template leftovers, never real contacts.
var placeholderEmailDomains = map[string]struct{}{
	"example.com": {},
	"test.com":    {},
	"domain.com":  {},
	"email.com":   {},
}

var addressClassTokens = []string{"address", "location", "contact", "office", "headquarter"}

var branchClassTokens = []string{"location", "branch", "office", "store", "showroom"}

// BranchRecord is one physical office or outlet. Two records with the same
// non-empty normalised address are the same branch.
type BranchRecord struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// ContactRecord accumulates contact facts additively across crawled pages.
// It only shrinks in Finalize, which applies set semantics to phones and
// emails and collapses duplicate branches.
type ContactRecord struct {
	Address  string         `json:"address,omitempty"`
	Phones   []string       `json:"phones"`
	Emails   []string       `json:"emails"`
	Branches []BranchRecord `json:"branches"`
}

// Merge folds another page's partial record into this one. The primary
// address is first-found-wins across pages; list fields append.
func (c *ContactRecord) Merge(other ContactRecord) {
	if c.Address == "" {
		c.Address = other.Address
	}
	c.Phones = append(c.Phones, other.Phones...)
	c.Emails = append(c.Emails, other.Emails...)
	c.Branches = append(c.Branches, other.Branches...)
}

// Finalize deduplicates phones by digit string, emails by exact value and
// branches by normalised address, keeping first occurrences.
func (c *ContactRecord) Finalize() {
	c.Phones = dedupBy(c.Phones, digitsOnly)
	c.Emails = dedupBy(c.Emails, func(s string) string { return s })

	if len(c.Branches) > 0 {
		seen := make(map[string]struct{}, len(c.Branches))
		kept := c.Branches[:0]
		for _, b := range c.Branches {
			key := normalizeAddressKey(b.Address)
			if key != "" {
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			kept = append(kept, b)
		}
		c.Branches = kept
	}
}

func dedupBy(values []string, key func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	kept := values[:0]
	for _, v := range values {
		k := key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, v)
	}
	return kept
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeAddressKey(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	return strings.Join(strings.Fields(addr), " ")
}

// ExtractContacts pulls phones, emails, a primary address and branch records
// from one parsed page. It is total: pages with nothing extractable yield an
// empty record.
func ExtractContacts(page *PageDocument) ContactRecord {
	var record ContactRecord
	if page == nil {
		return record
	}

	record.Phones = extractPhones(page)
	record.Emails = extractEmails(page)
	record.Address = extractPrimaryAddress(page)
	record.Branches = extractBranches(page)

	applyStructuredData(page, &record)
	record.Finalize()
	return record
}

func extractPhones(page *PageDocument) []string {
	var phones []string
	for _, pattern := range phonePatterns {
		for _, match := range pattern.FindAllString(page.Text, -1) {
			if phone := cleanPhone(match); phone != "" {
				phones = append(phones, phone)
			}
		}
	}
	for _, anchor := range page.Anchors {
		lower := strings.ToLower(anchor.Href)
		if !strings.HasPrefix(lower, "tel:") {
			continue
		}
		raw := strings.TrimSpace(anchor.Href[len("tel:"):])
		if phone := cleanPhone(raw); phone != "" {
			phones = append(phones, phone)
		}
	}
	return phones
}

// cleanPhone trims a match and discards anything with fewer than ten digits,
// which in practice is dates, prices or fragment noise.
func cleanPhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(digitsOnly(raw)) < minPhoneDigits {
		return ""
	}
	return raw
}

func extractEmails(page *PageDocument) []string {
	var emails []string
	for _, match := range emailPattern.FindAllString(page.Text, -1) {
		if email := cleanEmail(match); email != "" {
			emails = append(emails, email)
		}
	}
	for _, anchor := range page.Anchors {
		lower := strings.ToLower(anchor.Href)
		if !strings.HasPrefix(lower, "mailto:") {
			continue
		}
		raw := anchor.Href[len("mailto:"):]
		if idx := strings.Index(raw, "?"); idx != -1 {
			raw = raw[:idx]
		}
		if email := cleanEmail(raw); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

func cleanEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	match := emailPattern.FindString(email)
	if match == "" {
		return ""
	}
	at := strings.LastIndex(match, "@")
	domain := match[at+1:]
	if _, placeholder := placeholderEmailDomains[domain]; placeholder {
		return ""
	}
	return match
}

// extractPrimaryAddress scans address elements and address-flavoured class
// names and keeps the first candidate whose text is plausibly an address.
// The winner is never overwritten later in the same page.
func extractPrimaryAddress(page *PageDocument) string {
	found := ""
	consider := func(sel *goquery.Selection) bool {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if n := len([]rune(text)); n < minAddressLen || n > maxAddressLen {
			return true
		}
		found = text
		return false
	}

	page.doc.Find("address").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		return consider(sel)
	})
	if found != "" {
		return found
	}

	page.doc.Find("[class]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !classContainsAny(sel, addressClassTokens) {
			return true
		}
		return consider(sel)
	})
	return found
}

func classContainsAny(sel *goquery.Selection, tokens []string) bool {
	class := strings.ToLower(sel.AttrOr("class", ""))
	for _, token := range tokens {
		if strings.Contains(class, token) {
			return true
		}
	}
	return false
}

// extractBranches walks elements whose class suggests a location card and
// assembles one BranchRecord per card. Cards with neither a name nor an
// address are dropped as decoration.
func extractBranches(page *PageDocument) []BranchRecord {
	var branches []BranchRecord
	page.doc.Find("[class]").Each(func(_ int, sel *goquery.Selection) {
		if !classContainsAny(sel, branchClassTokens) {
			return
		}

		branch := BranchRecord{
			Name:    strings.TrimSpace(sel.Find("h1,h2,h3,h4,h5,h6").First().Text()),
			Address: branchAddress(sel),
		}
		text := sel.Text()
		for _, pattern := range phonePatterns {
			if phone := cleanPhone(pattern.FindString(text)); phone != "" {
				branch.Phone = phone
				break
			}
		}
		branch.Email = cleanEmail(emailPattern.FindString(text))

		if branch.Name != "" || branch.Address != "" {
			branches = append(branches, branch)
		}
	})
	return branches
}

func branchAddress(card *goquery.Selection) string {
	if addr := strings.Join(strings.Fields(card.Find("address").First().Text()), " "); addr != "" {
		return addr
	}
	found := ""
	card.Find("p,div,span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text == "" || len([]rune(text)) > maxAddressLen || !streetShapePattern.MatchString(text) {
			return true
		}
		found = text
		return false
	})
	return found
}

// schema.org types that describe the organisation itself rather than
// articles, breadcrumbs or products.
var organizationTypes = map[string]struct{}{
	"organization":  {},
	"localbusiness": {},
	"store":         {},
	"corporation":   {},
}

// applyStructuredData folds schema.org Organization/LocalBusiness blocks into
// the record: postal address parts are comma-joined, telephone and email feed
// the respective sets, and each entry of a location array becomes a branch.
func applyStructuredData(page *PageDocument, record *ContactRecord) {
	for _, block := range page.StructuredData {
		if !isOrganizationBlock(block) {
			continue
		}
		if addr := flattenSchemaAddress(block["address"]); addr != "" && record.Address == "" {
			record.Address = addr
		}
		if phone := cleanPhone(stringField(block, "telephone")); phone != "" {
			record.Phones = append(record.Phones, phone)
		}
		if email := cleanEmail(stringField(block, "email")); email != "" {
			record.Emails = append(record.Emails, email)
		}

		locations, _ := block["location"].([]any)
		for _, entry := range locations {
			loc, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			branch := BranchRecord{
				Name:    stringField(loc, "name"),
				Address: flattenSchemaAddress(loc["address"]),
				Phone:   cleanPhone(stringField(loc, "telephone")),
				Email:   cleanEmail(stringField(loc, "email")),
			}
			if branch.Name != "" || branch.Address != "" {
				record.Branches = append(record.Branches, branch)
			}
		}
	}
}

func isOrganizationBlock(block map[string]any) bool {
	switch typed := block["@type"].(type) {
	case string:
		_, ok := organizationTypes[strings.ToLower(typed)]
		return ok
	case []any:
		for _, entry := range typed {
			if name, ok := entry.(string); ok {
				if _, match := organizationTypes[strings.ToLower(name)]; match {
					return true
				}
			}
		}
	}
	return false
}

// flattenSchemaAddress accepts either a plain string or a PostalAddress
// object and joins the present parts with commas.
func flattenSchemaAddress(value any) string {
	switch addr := value.(type) {
	case string:
		return strings.TrimSpace(addr)
	case map[string]any:
		parts := make([]string, 0, 5)
		for _, field := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode", "addressCountry"} {
			if part := stringField(addr, field); part != "" {
				parts = append(parts, part)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
