package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/leadforge/enricher/internal/entity"
	"github.com/leadforge/enricher/internal/repository"
	"github.com/leadforge/enricher/internal/scraper"
	"github.com/leadforge/enricher/internal/service/scoring"
)

// ErrWebsiteRequired indicates a company has no website to crawl.
var ErrWebsiteRequired = errors.New("company website is required")

// SiteCrawler is the crawl surface EnrichService depends on.
type SiteCrawler interface {
	Crawl(ctx context.Context, rootURL string) scraper.CrawlReport
	GetPageText(ctx context.Context, pageURL string) string
}

// EnrichService runs the full crawl, clean, score and persist pipeline for a
// single company.
type EnrichService struct {
	crawler   SiteCrawler
	processor *DataProcessor
	repo      repository.CompaniesRepository
}

// NewEnrichService wires the enrichment pipeline.
func NewEnrichService(crawler SiteCrawler, processor *DataProcessor, repo repository.CompaniesRepository) *EnrichService {
	return &EnrichService{crawler: crawler, processor: processor, repo: repo}
}

// Enrich crawls the given website, validates what was found and stores the
// result. The website argument overrides the stored company website when set.
func (s *EnrichService) Enrich(ctx context.Context, companyID, website string) (*entity.CompanyEnrichment, error) {
	parsedID, err := uuid.Parse(strings.TrimSpace(companyID))
	if err != nil {
		return nil, ErrInvalidCompanyID
	}

	website = strings.TrimSpace(website)
	if website == "" {
		company, err := s.repo.GetByID(ctx, parsedID)
		if err != nil {
			return nil, err
		}
		if company.Website != nil {
			website = strings.TrimSpace(*company.Website)
		}
	}
	if website == "" {
		return nil, ErrWebsiteRequired
	}

	report := s.crawler.Crawl(ctx, website)
	log.Printf("enrich crawl company_id=%s website=%s outcome=%s pages=%d",
		parsedID, website, report.Outcome, report.PagesCrawled)

	cleaned, err := s.processor.Process(ctx, RawEnrichedData{
		CompanyID: parsedID.String(),
		Website:   website,
		Report:    report,
	})
	if err != nil {
		return nil, fmt.Errorf("process crawl report: %w", err)
	}

	score := scoring.ComputeScore(scoring.LeadFeatures{
		Emails:       cleaned.Emails,
		Phones:       cleaned.Phones,
		Socials:      cleaned.Socials,
		Address:      cleaned.Address,
		Website:      cleaned.Website,
		Branches:     len(cleaned.Branches),
		PagesCrawled: cleaned.PagesCrawled,
	})

	enrichment := &entity.CompanyEnrichment{
		CompanyID:    parsedID,
		Website:      cleaned.Website,
		Emails:       cleaned.Emails,
		Phones:       cleaned.Phones,
		Socials:      cleaned.Socials,
		Address:      normalizeString(cleaned.Address),
		Branches:     cleaned.Branches,
		Outcome:      cleaned.Outcome,
		PagesCrawled: cleaned.PagesCrawled,
		Score:        score.Total,
	}

	if err := s.repo.UpsertEnrichment(ctx, enrichment); err != nil {
		return nil, err
	}

	return enrichment, nil
}

// PageText returns the readable text of a single page, empty when the page
// could not be fetched.
func (s *EnrichService) PageText(ctx context.Context, pageURL string) (string, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return "", fmt.Errorf("url is required")
	}
	return s.crawler.GetPageText(ctx, pageURL), nil
}
