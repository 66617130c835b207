package dto

// LookupRequest asks for a company's official website.
type LookupRequest struct {
	CompanyName string `json:"company_name"`
	Country     string `json:"country,omitempty"`
}

// PromptLookupRequest carries a free-form prompt such as
// "find the website for Acme Tools in Rotterdam".
type PromptLookupRequest struct {
	Prompt  string `json:"prompt"`
	Country string `json:"country,omitempty"`
}
