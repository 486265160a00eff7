// Package priority scores inquiries onto a five-level scale and derives the
// response due date. Adjustments only ever escalate: no signal lowers a
// priority once established.
package priority

import (
	"strings"
	"time"

	"github.com/projectcompass/compass/internal/core/domain"
)

var categoryPriorities = map[domain.Category]domain.Priority{
	domain.CategoryPrequalification: domain.PriorityMedium,
	domain.CategoryFinance:          domain.PriorityHigh,
	domain.CategoryContract:         domain.PriorityHigh,
	domain.CategoryBidding:          domain.PriorityHigh,
	domain.CategoryIssue:            domain.PriorityHigh,
	domain.CategoryInformation:      domain.PriorityLow,
	domain.CategoryOther:            domain.PriorityMedium,
}

var typePriorities = map[domain.InquiryType]domain.Priority{
	domain.TypeTechnicalIssue: domain.PriorityCritical,
	domain.TypePortalAccess:   domain.PriorityHigh,

	domain.TypePaymentStatus:    domain.PriorityHigh,
	domain.TypeInvoiceIssue:     domain.PriorityHigh,
	domain.TypeContractTerms:    domain.PriorityHigh,
	domain.TypeRenewal:          domain.PriorityHigh,
	domain.TypeBidSubmission:    domain.PriorityHigh,
	domain.TypeBidClarification: domain.PriorityHigh,

	domain.TypeApplicationStatus:   domain.PriorityMedium,
	domain.TypeDocumentSubmission:  domain.PriorityMedium,
	domain.TypeEligibilityCriteria: domain.PriorityMedium,
	domain.TypeTaxDocumentation:    domain.PriorityMedium,
	domain.TypeAmendment:           domain.PriorityMedium,
	domain.TypeBidResults:          domain.PriorityMedium,

	domain.TypeProcessInformation:   domain.PriorityLow,
	domain.TypeDocumentationRequest: domain.PriorityLow,
	domain.TypeContactRequest:       domain.PriorityLow,

	// GENERAL is deliberately absent: a no-keyword inquiry falls through to
	// its category default (OTHER resolves to MEDIUM).
}

// Urgency tiers are checked critical first, then high, then low; the first
// tier with any match wins.
var criticalKeywords = []string{
	"urgent", "immediately", "asap", "emergency", "critical", "crucial",
	"deadline", "today", "serious", "severe", "time-sensitive",
}

var highKeywords = []string{
	"important", "priority", "high priority", "significant", "pressing",
	"expedite", "quickly", "fast", "soon", "promptly",
}

var lowKeywords = []string{
	"whenever", "no rush", "at your convenience", "when possible",
	"not urgent", "routine", "regular", "standard",
}

var followupPhrases = []string{
	"following up", "follow up", "follow-up", "following-up",
	"previous email", "earlier email", "still waiting",
	"haven't heard", "no response", "any update",
}

var deadlinePhrases = []string{
	"deadline", "due date", "due by", "by tomorrow",
	"this week", "end of week", "by friday", "by monday",
}

var imminentPhrases = []string{
	"today", "tomorrow", "asap", "immediately",
	"right away", "urgent", "within 24 hours",
}

var delayPhrases = []string{
	"delayed", "waiting for", "long time", "weeks ago",
	"still pending", "overdue", "late",
}

var dueOffsets = map[domain.Priority]time.Duration{
	domain.PriorityCritical: 2 * time.Hour,
	domain.PriorityHigh:     8 * time.Hour,
	domain.PriorityMedium:   24 * time.Hour,
}

const defaultDueOffset = 72 * time.Hour

// timeSignals are the deadline and delay flags read from the inquiry text.
type timeSignals struct {
	hasDeadline   bool
	deadlineSoon  bool
	mentionsDelay bool
}

// Engine resolves the final priority and due date for a classified inquiry.
type Engine struct {
	now func() time.Time
}

func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Score resolves the priority from the base tables, urgency keywords, and
// contextual signals, then derives the due date from the same instant.
func (e *Engine) Score(inq *domain.Inquiry, facts domain.VendorFacts) (domain.Priority, time.Time) {
	text := strings.ToLower(inq.Email.Subject + " " + inq.RawContent)

	base := e.basePriority(inq)
	keyword, hasKeyword := urgencyKeywordPriority(text)
	followup := isFollowup(inq, text)
	signals := readTimeSignals(text)

	final := resolve(base, keyword, hasKeyword, followup, signals, facts)

	offset, ok := dueOffsets[final]
	if !ok {
		offset = defaultDueOffset
	}
	return final, e.now().Add(offset)
}

func (e *Engine) basePriority(inq *domain.Inquiry) domain.Priority {
	if inq.Type != "" {
		if p, ok := typePriorities[inq.Type]; ok {
			return p
		}
	}
	if p, ok := categoryPriorities[inq.Category]; ok {
		return p
	}
	return domain.PriorityMedium
}

func urgencyKeywordPriority(text string) (domain.Priority, bool) {
	if containsAny(text, criticalKeywords) {
		return domain.PriorityCritical, true
	}
	if containsAny(text, highKeywords) {
		return domain.PriorityHigh, true
	}
	if containsAny(text, lowKeywords) {
		return domain.PriorityLow, true
	}
	return "", false
}

func isFollowup(inq *domain.Inquiry, text string) bool {
	if inq.Email.InReplyTo != "" {
		return true
	}
	return containsAny(text, followupPhrases)
}

func readTimeSignals(text string) timeSignals {
	return timeSignals{
		hasDeadline:   containsAny(text, deadlinePhrases),
		deadlineSoon:  containsAny(text, imminentPhrases),
		mentionsDelay: containsAny(text, delayPhrases),
	}
}

func resolve(
	base domain.Priority,
	keyword domain.Priority,
	hasKeyword bool,
	followup bool,
	signals timeSignals,
	facts domain.VendorFacts,
) domain.Priority {
	var p domain.Priority
	switch {
	case hasKeyword && keyword == domain.PriorityCritical,
		base == domain.PriorityCritical:
		p = domain.PriorityCritical
	case hasKeyword && keyword == domain.PriorityHigh,
		base == domain.PriorityHigh:
		p = domain.PriorityHigh
	case base == domain.PriorityMedium:
		p = domain.PriorityMedium
	default:
		p = domain.PriorityLow
	}

	if followup {
		p = bumpOnce(p)
	}

	if signals.deadlineSoon {
		if p != domain.PriorityCritical {
			p = domain.PriorityHigh
		}
	} else if signals.hasDeadline && p == domain.PriorityLow {
		p = domain.PriorityMedium
	}

	if signals.mentionsDelay {
		p = bumpOnce(p)
	}

	if facts.IsKey {
		p = bumpOnce(p)
	}

	return p
}

// bumpOnce raises LOW to MEDIUM and MEDIUM to HIGH; HIGH and CRITICAL are
// left alone so no single signal can mint a critical.
func bumpOnce(p domain.Priority) domain.Priority {
	switch p {
	case domain.PriorityLow:
		return domain.PriorityMedium
	case domain.PriorityMedium:
		return domain.PriorityHigh
	default:
		return p
	}
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
