package domain

import "time"

// VendorFacts are the relationship signals the priority engine consumes.
// A missing vendor yields the zero value, never an error.
type VendorFacts struct {
	IsKey             bool `json:"is_key"`
	HasActiveContract bool `json:"has_active_contract"`
	HasHistory        bool `json:"has_history"`
}

type Vendor struct {
	Ref           string      `json:"ref"`
	Name          string      `json:"name"`
	Company       string      `json:"company,omitempty"`
	ContactEmails []string    `json:"contact_emails,omitempty"`
	Facts         VendorFacts `json:"facts"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
