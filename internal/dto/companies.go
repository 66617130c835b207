package dto

import "time"

// CompanyRequest carries a single company create-or-update payload.
type CompanyRequest struct {
	Company  string  `json:"company"`
	Address  string  `json:"address"`
	Phone    *string `json:"phone,omitempty"`
	Website  *string `json:"website,omitempty"`
	Industry *string `json:"industry,omitempty"`
	City     *string `json:"city,omitempty"`
	Country  *string `json:"country,omitempty"`
}

// ListFilter contains query parameters for company listing endpoints.
type ListFilter struct {
	Q              string
	Industry       string
	City           string
	Country        string
	WebsiteStatus  string
	EnrichedStatus string
	UpdatedSince   *time.Time
	Sort           string
	Page           int
	PerPage        int
}
