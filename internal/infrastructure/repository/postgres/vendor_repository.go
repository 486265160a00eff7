package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/projectcompass/compass/internal/core/domain"
)

// VendorRepository reads vendor relationship facts and tracks which staff
// member a vendor was last assigned to.
type VendorRepository struct {
	db *sql.DB
}

func NewVendorRepository(db *sql.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// GetVendorFacts returns the relationship signals for a vendor. An unknown
// vendor yields zero-value facts without an error.
func (r *VendorRepository) GetVendorFacts(ctx context.Context, vendorRef string) (domain.VendorFacts, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT is_key, has_active_contract, has_history
FROM vendors
WHERE ref = $1
`, vendorRef)

	var facts domain.VendorFacts
	err := row.Scan(&facts.IsKey, &facts.HasActiveContract, &facts.HasHistory)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.VendorFacts{}, nil
		}
		return domain.VendorFacts{}, fmt.Errorf("scan vendor facts: %w", err)
	}
	return facts, nil
}

// Upsert stores the vendor record, refreshing name, company, and facts.
func (r *VendorRepository) Upsert(ctx context.Context, vendor *domain.Vendor) error {
	emails, err := json.Marshal(vendor.ContactEmails)
	if err != nil {
		return fmt.Errorf("marshal contact emails: %w", err)
	}
	if vendor.ContactEmails == nil {
		emails = []byte("[]")
	}
	now := time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
INSERT INTO vendors (ref, name, company, contact_emails, is_key, has_active_contract, has_history, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
ON CONFLICT (ref) DO UPDATE
SET name = EXCLUDED.name, company = EXCLUDED.company, contact_emails = EXCLUDED.contact_emails,
	is_key = EXCLUDED.is_key, has_active_contract = EXCLUDED.has_active_contract,
	has_history = EXCLUDED.has_history, updated_at = EXCLUDED.updated_at
`,
		vendor.Ref, vendor.Name, vendor.Company, emails,
		vendor.Facts.IsKey, vendor.Facts.HasActiveContract, vendor.Facts.HasHistory, now,
	)
	if err != nil {
		return fmt.Errorf("upsert vendor: %w", err)
	}
	return nil
}

// GetPreviousAssignee returns the staff member last assigned to the vendor,
// or empty when the vendor has no assignment history.
func (r *VendorRepository) GetPreviousAssignee(ctx context.Context, vendorRef string) (string, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT assignee
FROM vendor_assignments
WHERE vendor_ref = $1
`, vendorRef)

	var assignee string
	err := row.Scan(&assignee)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("scan vendor assignment: %w", err)
	}
	return assignee, nil
}

// RecordAssignment upserts the vendor's current assignee.
func (r *VendorRepository) RecordAssignment(ctx context.Context, vendorRef, assignee string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO vendor_assignments (vendor_ref, assignee, updated_at)
VALUES ($1,$2,$3)
ON CONFLICT (vendor_ref) DO UPDATE
SET assignee = EXCLUDED.assignee, updated_at = EXCLUDED.updated_at
`, vendorRef, assignee, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record vendor assignment: %w", err)
	}
	return nil
}
