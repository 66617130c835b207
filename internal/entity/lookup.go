package entity

// WebsiteLookup is a resolved company-name to website match.
type WebsiteLookup struct {
	CompanyName string  `json:"company_name"`
	Website     string  `json:"website"`
	Source      string  `json:"source"`
	Confidence  float64 `json:"confidence"`
}
