package routing

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/projectcompass/compass/internal/core/domain"
)

type historyFake struct {
	previous    string
	lookupErr   error
	recordErr   error
	recordedRef string
	recorded    string
}

func (f *historyFake) GetPreviousAssignee(context.Context, string) (string, error) {
	if f.lookupErr != nil {
		return "", f.lookupErr
	}
	return f.previous, nil
}

func (f *historyFake) RecordAssignment(_ context.Context, vendorRef, assignee string) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recordedRef = vendorRef
	f.recorded = assignee
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRouter(history AssignmentHistory, spread float64, seed int64) *Router {
	return New(DefaultDirectory(), history, rand.New(rand.NewSource(seed)), spread, quietLogger())
}

func TestRouteDepartmentByType(t *testing.T) {
	r := newTestRouter(nil, 0, 1)
	inq := &domain.Inquiry{
		Category: domain.CategoryFinance,
		Type:     domain.TypePaymentStatus,
		Priority: domain.PriorityHigh,
	}

	decision, err := r.Route(context.Background(), inq)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision.Department != "Accounts Payable" {
		t.Fatalf("department = %s, want Accounts Payable", decision.Department)
	}
	if decision.Assignee != "ap.senior@example.com" {
		t.Fatalf("assignee = %s, want ap.senior@example.com", decision.Assignee)
	}
	if decision.AssignedAt.IsZero() {
		t.Fatalf("assigned_at not set")
	}
}

func TestRouteDepartmentFallsBackToCategory(t *testing.T) {
	r := newTestRouter(nil, 0, 1)
	inq := &domain.Inquiry{Category: domain.CategoryContract, Priority: domain.PriorityMedium}

	decision, err := r.Route(context.Background(), inq)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision.Department != "Legal" {
		t.Fatalf("department = %s, want Legal", decision.Department)
	}
	if decision.Assignee != "legal.specialist@example.com" {
		t.Fatalf("assignee = %s", decision.Assignee)
	}
}

func TestRouteCriticalUsesUrgentResponseTeam(t *testing.T) {
	r := newTestRouter(nil, 0, 1)
	inq := &domain.Inquiry{
		Category: domain.CategoryIssue,
		Type:     domain.TypeTechnicalIssue,
		Priority: domain.PriorityCritical,
	}

	decision, err := r.Route(context.Background(), inq)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision.Assignee != "support.urgent@example.com" {
		t.Fatalf("assignee = %s, want support.urgent@example.com", decision.Assignee)
	}
}

func TestRouteVendorHistoryOverrides(t *testing.T) {
	history := &historyFake{previous: "ap.associate@example.com"}
	r := newTestRouter(history, 0, 1)
	inq := &domain.Inquiry{
		VendorRef: "VEN-123",
		Category:  domain.CategoryFinance,
		Type:      domain.TypeInvoiceIssue,
		Priority:  domain.PriorityHigh,
	}

	decision, err := r.Route(context.Background(), inq)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision.Assignee != "ap.associate@example.com" {
		t.Fatalf("assignee = %s, want history override", decision.Assignee)
	}
	if history.recordedRef != "VEN-123" || history.recorded != "ap.associate@example.com" {
		t.Fatalf("assignment not recorded: %+v", history)
	}
}

func TestRouteHistoryLookupErrorAbsorbed(t *testing.T) {
	history := &historyFake{lookupErr: errors.New("store down")}
	r := newTestRouter(history, 0, 1)
	inq := &domain.Inquiry{
		VendorRef: "VEN-123",
		Category:  domain.CategoryFinance,
		Type:      domain.TypePaymentStatus,
		Priority:  domain.PriorityHigh,
	}

	decision, err := r.Route(context.Background(), inq)
	if err != nil {
		t.Fatalf("Route() error = %v, want absorbed lookup failure", err)
	}
	if decision.Assignee != "ap.senior@example.com" {
		t.Fatalf("assignee = %s, want tier pick without override", decision.Assignee)
	}
}

func TestRouteSpreadKeepsAssigneeAtZeroProbability(t *testing.T) {
	r := newTestRouter(nil, 0, 7)
	inq := &domain.Inquiry{Category: domain.CategoryBidding, Priority: domain.PriorityMedium}

	for i := 0; i < 20; i++ {
		decision, err := r.Route(context.Background(), inq)
		if err != nil {
			t.Fatalf("Route() error = %v", err)
		}
		if decision.Assignee != "procurement.specialist@example.com" {
			t.Fatalf("run %d diverted to %s with spread 0", i, decision.Assignee)
		}
	}
}

func TestRouteSpreadDivertsToColleague(t *testing.T) {
	r := newTestRouter(nil, 1, 7)
	inq := &domain.Inquiry{Category: domain.CategoryBidding, Priority: domain.PriorityMedium}

	decision, err := r.Route(context.Background(), inq)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision.Assignee == "procurement.specialist@example.com" {
		t.Fatalf("spread 1 kept the default assignee")
	}
	found := false
	for _, member := range DefaultDirectory().Staff("Procurement") {
		if member == decision.Assignee {
			found = true
		}
	}
	if !found {
		t.Fatalf("diverted outside the department: %s", decision.Assignee)
	}
}

func TestRouteBumpsLoadCounters(t *testing.T) {
	r := newTestRouter(nil, 0, 1)
	inq := &domain.Inquiry{Category: domain.CategoryInformation, Priority: domain.PriorityLow}

	for i := 0; i < 3; i++ {
		if _, err := r.Route(context.Background(), inq); err != nil {
			t.Fatalf("Route() error = %v", err)
		}
	}

	departments, assignees := r.Loads()
	if departments["Vendor Relations"] != 3 {
		t.Fatalf("department load = %d, want 3", departments["Vendor Relations"])
	}
	if assignees["relations.associate@example.com"] != 3 {
		t.Fatalf("assignee load = %d, want 3", assignees["relations.associate@example.com"])
	}
}

func TestLoadDirectoryMergesOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staff.yaml")
	content := "departments:\n  Finance:\n    specialist: maria@corp.example\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	dir, err := LoadDirectory(path)
	if err != nil {
		t.Fatalf("LoadDirectory() error = %v", err)
	}
	if email, _ := dir.Lookup("Finance", RoleSpecialist); email != "maria@corp.example" {
		t.Fatalf("override not applied: %s", email)
	}
	if email, _ := dir.Lookup("Finance", RoleDepartmentHead); email != "finance.head@example.com" {
		t.Fatalf("default lost: %s", email)
	}
	if email, _ := dir.Lookup("Legal", RoleSpecialist); email != "legal.specialist@example.com" {
		t.Fatalf("unrelated department changed: %s", email)
	}
}

func TestLoadDirectoryMissingFile(t *testing.T) {
	if _, err := LoadDirectory(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
