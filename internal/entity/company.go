package entity

import (
	"time"

	"github.com/google/uuid"
)

// Company represents a business stored in the leads catalogue.
type Company struct {
	ID         uuid.UUID  `json:"id"`
	Company    string     `json:"company"`
	Phone      *string    `json:"phone,omitempty"`
	Website    *string    `json:"website,omitempty"`
	Industry   *string    `json:"industry,omitempty"`
	Address    *string    `json:"address,omitempty"`
	City       *string    `json:"city,omitempty"`
	Country    *string    `json:"country,omitempty"`
	EnrichedAt *time.Time `json:"enriched_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
