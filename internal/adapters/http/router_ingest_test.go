package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/projectcompass/compass/internal/config"
	"github.com/projectcompass/compass/internal/core/domain"
	"github.com/projectcompass/compass/internal/core/monitor"
	"github.com/projectcompass/compass/internal/core/ports"
)

type ingestorFake struct {
	err error
}

func (f ingestorFake) Ingest(_ context.Context, payload ports.EmailPayload) (*domain.Inquiry, error) {
	if f.err != nil {
		return nil, f.err
	}
	now := time.Now().UTC()
	return &domain.Inquiry{
		ID: "INQ-AB12CD34",
		Email: domain.EmailMetadata{
			FromEmail: "vendor@acme.example",
			Subject:   payload.Subject,
		},
		RawContent: payload.Body,
		Category:   domain.CategoryOther,
		Status:     domain.StatusNew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

type storeFake struct {
	inquiry   *domain.Inquiry
	items     []domain.Inquiry
	count     int
	getErr    error
	listErr   error
	updateErr error

	lastFilter domain.InquiryFilter
	lastID     string
	lastStatus domain.Status
}

func (f *storeFake) Create(context.Context, *domain.Inquiry) error { return nil }

func (f *storeFake) GetByID(_ context.Context, id string) (*domain.Inquiry, error) {
	f.lastID = id
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.inquiry, nil
}

func (f *storeFake) Update(context.Context, *domain.Inquiry) error { return nil }

func (f *storeFake) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	f.lastID = id
	f.lastStatus = status
	return f.updateErr
}

func (f *storeFake) List(_ context.Context, filter domain.InquiryFilter) ([]domain.Inquiry, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func (f *storeFake) Count(_ context.Context, filter domain.InquiryFilter) (int, error) {
	if f.listErr != nil {
		return 0, f.listErr
	}
	return f.count, nil
}

func newTestHandler(cfg config.Config, ingest ports.InquiryIngestor, store ports.InquiryRepository, collector *monitor.Collector) http.Handler {
	return NewRouter(cfg, ingest, store, collector, nil).Handler()
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(config.Config{}, ingestorFake{}, &storeFake{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestIngestEmailAccepted(t *testing.T) {
	handler := newTestHandler(config.Config{}, ingestorFake{}, &storeFake{}, nil)

	payload, _ := json.Marshal(ports.EmailPayload{
		From:    "Acme Corp <vendor@acme.example>",
		To:      "vendors@example.com",
		Subject: "payment status",
		Body:    "where is invoice INV-1001",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/inquiries/email", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["id"] != "INQ-AB12CD34" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestIngestEmailRejectsInvalidJSON(t *testing.T) {
	handler := newTestHandler(config.Config{}, ingestorFake{}, &storeFake{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/inquiries/email", bytes.NewBufferString("not json"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestIngestEmailRejectsWrongMethod(t *testing.T) {
	handler := newTestHandler(config.Config{}, ingestorFake{}, &storeFake{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/inquiries/email", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestListInquiriesAppliesFilter(t *testing.T) {
	store := &storeFake{
		items: []domain.Inquiry{{ID: "INQ-11111111", Status: domain.StatusAssigned}},
		count: 7,
	}
	handler := newTestHandler(config.Config{}, ingestorFake{}, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/inquiries?status=assigned&category=finance&limit=5&offset=10", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if store.lastFilter.Status != domain.StatusAssigned {
		t.Fatalf("status filter not applied: %+v", store.lastFilter)
	}
	if store.lastFilter.Category != domain.CategoryFinance {
		t.Fatalf("category filter not applied: %+v", store.lastFilter)
	}
	if store.lastFilter.Limit != 5 || store.lastFilter.Offset != 10 {
		t.Fatalf("pagination not applied: %+v", store.lastFilter)
	}

	var resp struct {
		Items []domain.Inquiry `json:"items"`
		Total int              `json:"total"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Total != 7 {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestListInquiriesRejectsUnknownStatus(t *testing.T) {
	handler := newTestHandler(config.Config{}, ingestorFake{}, &storeFake{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/inquiries?status=misrouted", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUpdateStatusTransitionsInquiry(t *testing.T) {
	store := &storeFake{}
	handler := newTestHandler(config.Config{}, ingestorFake{}, store, monitor.NewCollector(nil))

	payload := bytes.NewBufferString(`{"status":"resolved"}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/inquiries/INQ-AB12CD34/status", payload)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if store.lastID != "INQ-AB12CD34" || store.lastStatus != domain.StatusResolved {
		t.Fatalf("update not applied: id=%q status=%q", store.lastID, store.lastStatus)
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	handler := newTestHandler(config.Config{}, ingestorFake{}, &storeFake{}, nil)

	payload := bytes.NewBufferString(`{"status":"misrouted"}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/inquiries/INQ-AB12CD34/status", payload)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUpdateStatusRejectsWrongMethod(t *testing.T) {
	handler := newTestHandler(config.Config{}, ingestorFake{}, &storeFake{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/inquiries/INQ-AB12CD34/status", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestSystemStatusCombinesPipelineAndStore(t *testing.T) {
	collector := monitor.NewCollector(nil)
	collector.RecordProcessed(&domain.Inquiry{
		ID:       "INQ-AB12CD34",
		Category: domain.CategoryFinance,
		Priority: domain.PriorityHigh,
		Status:   domain.StatusAssigned,
	}, 25*time.Millisecond)

	store := &storeFake{count: 2}
	handler := newTestHandler(config.Config{}, ingestorFake{}, store, collector)

	req := httptest.NewRequest(http.MethodGet, "/v1/system/status", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp struct {
		Pipeline struct {
			Processed int `json:"inquiries_processed"`
		} `json:"pipeline"`
		Store struct {
			Total int `json:"total"`
		} `json:"store"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Pipeline.Processed != 1 {
		t.Fatalf("expected 1 processed, got %d", resp.Pipeline.Processed)
	}
	if resp.Store.Total != 2*len(domain.Statuses) {
		t.Fatalf("expected store total %d, got %d", 2*len(domain.Statuses), resp.Store.Total)
	}
}
