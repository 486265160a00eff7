package ports

import (
	"context"
	"time"

	"github.com/projectcompass/compass/internal/core/domain"
)

// InquiryRepository persists and reads inquiry state.
type InquiryRepository interface {
	Create(ctx context.Context, inq *domain.Inquiry) error
	GetByID(ctx context.Context, id string) (*domain.Inquiry, error)
	Update(ctx context.Context, inq *domain.Inquiry) error
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	List(ctx context.Context, filter domain.InquiryFilter) ([]domain.Inquiry, error)
	Count(ctx context.Context, filter domain.InquiryFilter) (int, error)
}

// VendorFactsProvider looks up relationship facts for a vendor. A missing
// vendor yields zero-value facts, not an error.
type VendorFactsProvider interface {
	GetVendorFacts(ctx context.Context, vendorRef string) (domain.VendorFacts, error)
}

// MessageQueue publishes/consumes inquiry ingestion events.
type MessageQueue interface {
	PublishInquiryReceived(ctx context.Context, inquiryID string) error
	SubscribeInquiryReceived(ctx context.Context, handler func(context.Context, string) error) error
}

// ContentExtractor turns an email body into plain text suitable for
// classification.
type ContentExtractor interface {
	Extract(ctx context.Context, body, contentType string) (string, error)
}

// InquiryClassifier assigns category, type, and vendor identity.
type InquiryClassifier interface {
	Classify(inq *domain.Inquiry) domain.Classification
}

// PriorityScorer resolves the final priority and due date.
type PriorityScorer interface {
	Score(inq *domain.Inquiry, facts domain.VendorFacts) (domain.Priority, time.Time)
}

// InquiryRouter picks the department and assignee.
type InquiryRouter interface {
	Route(ctx context.Context, inq *domain.Inquiry) (domain.RoutingDecision, error)
}

// Notifier delivers assignment and escalation messages. The boolean reports
// whether the message went out; delivery failures are not pipeline errors.
type Notifier interface {
	Dispatch(ctx context.Context, inq *domain.Inquiry, decision domain.RoutingDecision) (bool, error)
	Escalate(ctx context.Context, inq *domain.Inquiry, decision domain.RoutingDecision) (bool, error)
}
