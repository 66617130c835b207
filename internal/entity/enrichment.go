package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/leadforge/enricher/internal/scraper"
)

// CompanyEnrichment stores the validated contact facts crawled from a
// company website.
type CompanyEnrichment struct {
	CompanyID    uuid.UUID                `json:"company_id"`
	Website      string                   `json:"website"`
	Emails       []string                 `json:"emails"`
	Phones       []string                 `json:"phones"`
	Socials      scraper.SocialProfileSet `json:"socials"`
	Address      *string                  `json:"address"`
	Branches     []scraper.BranchRecord   `json:"branches"`
	Outcome      string                   `json:"outcome"`
	PagesCrawled int                      `json:"pages_crawled"`
	Score        int                      `json:"score"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}
