package ports

import (
	"context"

	"github.com/projectcompass/compass/internal/core/domain"
)

// EmailPayload is the raw inbound message as the ingest surface receives it.
type EmailPayload struct {
	From        string   `json:"from"`
	To          string   `json:"to"`
	CC          string   `json:"cc,omitempty"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	ContentType string   `json:"content_type,omitempty"`
	Date        string   `json:"date,omitempty"`
	MessageID   string   `json:"message_id,omitempty"`
	InReplyTo   string   `json:"in_reply_to,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// InquiryIngestor is the inbound contract for accepting vendor email.
type InquiryIngestor interface {
	Ingest(ctx context.Context, payload EmailPayload) (*domain.Inquiry, error)
}

// InquiryReader is the inbound read model for inquiry state.
type InquiryReader interface {
	GetByID(ctx context.Context, id string) (*domain.Inquiry, error)
	List(ctx context.Context, filter domain.InquiryFilter) ([]domain.Inquiry, error)
	Count(ctx context.Context, filter domain.InquiryFilter) (int, error)
}

// InquiryProcessor is the inbound contract for asynchronous pipeline runs.
type InquiryProcessor interface {
	ProcessByID(ctx context.Context, inquiryID string) error
}
