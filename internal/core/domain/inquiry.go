package domain

import "time"

type Category string

const (
	CategoryPrequalification Category = "prequalification"
	CategoryFinance          Category = "finance"
	CategoryContract         Category = "contract"
	CategoryBidding          Category = "bidding"
	CategoryIssue            Category = "issue"
	CategoryInformation      Category = "information"
	CategoryOther            Category = "other"
)

// Categories lists every category in its documented precedence order:
// ties in keyword scoring resolve to the earliest entry.
var Categories = []Category{
	CategoryPrequalification,
	CategoryFinance,
	CategoryContract,
	CategoryBidding,
	CategoryIssue,
	CategoryInformation,
	CategoryOther,
}

type InquiryType string

const (
	TypeApplicationStatus    InquiryType = "application_status"
	TypeDocumentSubmission   InquiryType = "document_submission"
	TypeEligibilityCriteria  InquiryType = "eligibility_criteria"
	TypePaymentStatus        InquiryType = "payment_status"
	TypeInvoiceIssue         InquiryType = "invoice_issue"
	TypeTaxDocumentation     InquiryType = "tax_documentation"
	TypeContractTerms        InquiryType = "contract_terms"
	TypeRenewal              InquiryType = "renewal"
	TypeAmendment            InquiryType = "amendment"
	TypeBidSubmission        InquiryType = "bid_submission"
	TypeBidClarification     InquiryType = "bid_clarification"
	TypeBidResults           InquiryType = "bid_results"
	TypeTechnicalIssue       InquiryType = "technical_issue"
	TypePortalAccess         InquiryType = "portal_access"
	TypeDeliveryIssue        InquiryType = "delivery_issue"
	TypeProcessInformation   InquiryType = "process_information"
	TypeDocumentationRequest InquiryType = "documentation_request"
	TypeContactRequest       InquiryType = "contact_request"
	TypeGeneral              InquiryType = "general"
)

type Priority string

const (
	PriorityCritical      Priority = "critical"
	PriorityHigh          Priority = "high"
	PriorityMedium        Priority = "medium"
	PriorityLow           Priority = "low"
	PriorityInformational Priority = "informational"
)

var Priorities = []Priority{
	PriorityCritical,
	PriorityHigh,
	PriorityMedium,
	PriorityLow,
	PriorityInformational,
}

type Status string

const (
	StatusNew         Status = "new"
	StatusCategorized Status = "categorized"
	StatusPrioritized Status = "prioritized"
	StatusAssigned    Status = "assigned"
	StatusInProgress  Status = "in_progress"
	StatusPendingInfo Status = "pending_info"
	StatusResolved    Status = "resolved"
	StatusClosed      Status = "closed"
	StatusEscalated   Status = "escalated"
)

var Statuses = []Status{
	StatusNew,
	StatusCategorized,
	StatusPrioritized,
	StatusAssigned,
	StatusInProgress,
	StatusPendingInfo,
	StatusResolved,
	StatusClosed,
	StatusEscalated,
}

func ValidStatus(s Status) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// EmailMetadata is the immutable snapshot of the inbound message.
type EmailMetadata struct {
	FromEmail       string    `json:"from_email"`
	FromName        string    `json:"from_name,omitempty"`
	ToEmail         string    `json:"to_email"`
	CC              []string  `json:"cc,omitempty"`
	Subject         string    `json:"subject"`
	DateReceived    time.Time `json:"date_received"`
	HasAttachments  bool      `json:"has_attachments"`
	AttachmentCount int       `json:"attachment_count"`
	AttachmentNames []string  `json:"attachment_names,omitempty"`
	ThreadID        string    `json:"thread_id,omitempty"`
	InReplyTo       string    `json:"in_reply_to,omitempty"`
}

type Note struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Inquiry is the unit of work flowing through the pipeline. Each stage reads
// fields written by earlier stages and writes only its own.
type Inquiry struct {
	ID               string            `json:"id"`
	VendorRef        string            `json:"vendor_ref,omitempty"`
	VendorName       string            `json:"vendor_name,omitempty"`
	Email            EmailMetadata     `json:"email"`
	RawContent       string            `json:"raw_content"`
	ProcessedContent string            `json:"processed_content,omitempty"`
	Category         Category          `json:"category"`
	Type             InquiryType       `json:"type,omitempty"`
	Priority         Priority          `json:"priority,omitempty"`
	Status           Status            `json:"status"`
	Confidence       float64           `json:"confidence"`
	AssignedTo       string            `json:"assigned_to,omitempty"`
	DueBy            *time.Time        `json:"due_by,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Tags             []string          `json:"tags,omitempty"`
	Notes            []Note            `json:"notes,omitempty"`
	RelatedIDs       []string          `json:"related_ids,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Touch refreshes UpdatedAt; every mutating pipeline stage calls it.
func (inq *Inquiry) Touch(now time.Time) {
	inq.UpdatedAt = now
}

// Classification is the outcome of the analysis stage.
type Classification struct {
	Category      Category    `json:"category"`
	Type          InquiryType `json:"type"`
	Confidence    float64     `json:"confidence"`
	Digest        string      `json:"digest"`
	VendorName    string      `json:"vendor_name,omitempty"`
	VendorCompany string      `json:"vendor_company,omitempty"`
}

// RoutingDecision is the outcome of the routing stage.
type RoutingDecision struct {
	Department string    `json:"department"`
	Assignee   string    `json:"assignee"`
	Reason     string    `json:"reason"`
	AssignedAt time.Time `json:"assigned_at"`
}

// InquiryFilter narrows repository list/count queries. Zero values match all.
type InquiryFilter struct {
	Status   Status
	Category Category
	Priority Priority
	Limit    int
	Offset   int
}
