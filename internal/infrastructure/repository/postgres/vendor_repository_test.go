package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/projectcompass/compass/internal/core/domain"
)

func newVendorRepoWithMock(t *testing.T) (*VendorRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &VendorRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetVendorFactsMissReturnsZeroValue(t *testing.T) {
	repo, mock, done := newVendorRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT is_key, has_active_contract, has_history").
		WithArgs("VEN-UNKNOWN").
		WillReturnError(sql.ErrNoRows)

	facts, err := repo.GetVendorFacts(context.Background(), "VEN-UNKNOWN")
	if err != nil {
		t.Fatalf("GetVendorFacts() error = %v, miss must not error", err)
	}
	if facts != (domain.VendorFacts{}) {
		t.Fatalf("facts = %+v, want zero value", facts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetVendorFactsScansRow(t *testing.T) {
	repo, mock, done := newVendorRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT is_key, has_active_contract, has_history").
		WithArgs("VEN-A").
		WillReturnRows(sqlmock.NewRows([]string{"is_key", "has_active_contract", "has_history"}).
			AddRow(true, true, false))

	facts, err := repo.GetVendorFacts(context.Background(), "VEN-A")
	if err != nil {
		t.Fatalf("GetVendorFacts() error = %v", err)
	}
	if !facts.IsKey || !facts.HasActiveContract || facts.HasHistory {
		t.Fatalf("facts = %+v", facts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetVendorFactsPropagatesQueryError(t *testing.T) {
	repo, mock, done := newVendorRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT is_key, has_active_contract, has_history").
		WithArgs("VEN-A").
		WillReturnError(errors.New("connection refused"))

	if _, err := repo.GetVendorFacts(context.Background(), "VEN-A"); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetPreviousAssigneeMissReturnsEmpty(t *testing.T) {
	repo, mock, done := newVendorRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT assignee").
		WithArgs("VEN-NEW").
		WillReturnError(sql.ErrNoRows)

	assignee, err := repo.GetPreviousAssignee(context.Background(), "VEN-NEW")
	if err != nil {
		t.Fatalf("GetPreviousAssignee() error = %v", err)
	}
	if assignee != "" {
		t.Fatalf("assignee = %q, want empty", assignee)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordAssignmentUpserts(t *testing.T) {
	repo, mock, done := newVendorRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO vendor_assignments").
		WithArgs("VEN-A", "ap.senior@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordAssignment(context.Background(), "VEN-A", "ap.senior@example.com"); err != nil {
		t.Fatalf("RecordAssignment() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
