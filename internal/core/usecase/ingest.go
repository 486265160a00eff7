package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/projectcompass/compass/internal/core/domain"
	"github.com/projectcompass/compass/internal/core/ports"
)

var _ ports.InquiryIngestor = (*IngestInquiryUseCase)(nil)

var displayNamePattern = regexp.MustCompile(`^(.*?)\s*<(.+?)>$`)

// IngestInquiryUseCase turns a raw email payload into a persisted inquiry
// and publishes it for asynchronous processing.
type IngestInquiryUseCase struct {
	repo      ports.InquiryRepository
	extractor ports.ContentExtractor
	queue     ports.MessageQueue
	now       func() time.Time
}

func NewIngestInquiryUseCase(
	repo ports.InquiryRepository,
	extractor ports.ContentExtractor,
	queue ports.MessageQueue,
) *IngestInquiryUseCase {
	return &IngestInquiryUseCase{
		repo:      repo,
		extractor: extractor,
		queue:     queue,
		now:       time.Now,
	}
}

func (uc *IngestInquiryUseCase) Ingest(ctx context.Context, payload ports.EmailPayload) (*domain.Inquiry, error) {
	fromName, fromEmail := splitAddress(payload.From)
	if fromEmail == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest inquiry", fmt.Errorf("missing sender address"))
	}
	subject := strings.TrimSpace(payload.Subject)
	if subject == "" && strings.TrimSpace(payload.Body) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest inquiry", fmt.Errorf("empty subject and body"))
	}

	content, err := uc.extractor.Extract(ctx, payload.Body, payload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("extract email content: %w", err)
	}

	now := uc.now().UTC()
	vendorRef, vendorName := vendorIdentity(fromName, fromEmail)

	inq := &domain.Inquiry{
		ID:         newInquiryID(),
		VendorRef:  vendorRef,
		VendorName: vendorName,
		Email: domain.EmailMetadata{
			FromEmail:       fromEmail,
			FromName:        fromName,
			ToEmail:         strings.TrimSpace(payload.To),
			CC:              splitRecipients(payload.CC),
			Subject:         subject,
			DateReceived:    parseDate(payload.Date, now),
			HasAttachments:  len(payload.Attachments) > 0,
			AttachmentCount: len(payload.Attachments),
			AttachmentNames: payload.Attachments,
			ThreadID:        payload.MessageID,
			InReplyTo:       payload.InReplyTo,
		},
		RawContent: content,
		Category:   domain.CategoryOther,
		Status:     domain.StatusNew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.repo.Create(ctx, inq); err != nil {
		return nil, fmt.Errorf("create inquiry: %w", err)
	}

	if err := uc.queue.PublishInquiryReceived(ctx, inq.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return inq, nil
}

// splitAddress handles the "Name <addr@host>" form; a bare address comes
// back with an empty name.
func splitAddress(from string) (name, email string) {
	from = strings.TrimSpace(from)
	if match := displayNamePattern.FindStringSubmatch(from); match != nil {
		return strings.TrimSpace(match[1]), strings.TrimSpace(match[2])
	}
	return "", from
}

func splitRecipients(cc string) []string {
	var out []string
	for _, part := range strings.Split(cc, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDate(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed
	}
	return fallback
}

func newInquiryID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "INQ-" + strings.ToUpper(hex[:8])
}

// vendorIdentity derives the vendor name from the display name, falling
// back to the capitalized first label of the sender domain. The stable
// vendor ref is only minted when a display name is present.
func vendorIdentity(fromName, fromEmail string) (ref, name string) {
	if at := strings.LastIndex(fromEmail, "@"); at >= 0 && at < len(fromEmail)-1 {
		domainPart := fromEmail[at+1:]
		if label, _, _ := strings.Cut(domainPart, "."); label != "" {
			name = strings.ToUpper(label[:1]) + label[1:]
		}
	}
	if fromName != "" {
		name = fromName
		sum := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(fromName))
		hex := strings.ReplaceAll(sum.String(), "-", "")
		ref = "VEN-" + strings.ToUpper(hex[:8])
	}
	return ref, name
}
