package dto

// EnrichRequest asks the service to crawl a company website and persist the
// extracted contact facts.
type EnrichRequest struct {
	CompanyID string `json:"company_id"`
	Website   string `json:"website"`
}

// PageTextResponse carries the bounded plain-text rendering of one page;
// Text is empty when the page could not be fetched.
type PageTextResponse struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}
