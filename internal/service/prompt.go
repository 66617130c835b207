package service

import (
	"errors"
	"regexp"
	"strings"

	"github.com/leadforge/enricher/internal/dto"
)

var (
	stopwordExpr    = regexp.MustCompile(`(?i)\b(find|lookup|look up|search|get|fetch|the|official|website|site|url|for|of|me|please|company)\b`)
	locationPattern = regexp.MustCompile(`(?i)\b(?:in|near|from)\s+([a-zA-Z\s]+)$`)
)

// PromptService interprets free-form website lookup prompts such as
// "find the website for Acme Tools in Rotterdam".
type PromptService struct {
	DefaultCountry string
}

// PromptResult contains structured lookup parameters derived from a prompt.
type PromptResult struct {
	CompanyName string
	City        string
	Country     string
}

// NewPromptService creates a prompt parser with sensible defaults.
func NewPromptService(defaultCountry string) *PromptService {
	return &PromptService{DefaultCountry: strings.TrimSpace(defaultCountry)}
}

// Parse converts a prompt request into a structured lookup query.
func (s *PromptService) Parse(req dto.PromptLookupRequest) (PromptResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return PromptResult{}, errors.New("prompt is required")
	}

	country := strings.TrimSpace(req.Country)
	if country == "" {
		country = s.DefaultCountry
	}

	city, name := extractCityAndName(prompt)
	if name == "" {
		return PromptResult{}, errors.New("could not find a company name in prompt")
	}

	return PromptResult{
		CompanyName: name,
		City:        city,
		Country:     country,
	}, nil
}

func extractCityAndName(prompt string) (string, string) {
	match := locationPattern.FindStringSubmatch(prompt)
	city := ""
	if len(match) > 1 {
		city = titleCase(match[1])
	}

	lower := strings.ToLower(prompt)
	if len(match) > 0 {
		idx := strings.Index(lower, strings.ToLower(match[0]))
		if idx >= 0 {
			prompt = strings.TrimSpace(prompt[:idx])
		}
	}

	name := stopwordExpr.ReplaceAllString(prompt, "")
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, " ?.!,\"'")
	return city, name
}

func titleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	parts := strings.Fields(value)
	for i, p := range parts {
		lower := strings.ToLower(p)
		if len(lower) == 0 {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}
