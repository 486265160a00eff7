// Package classify assigns a category and type to an inquiry by scoring
// keyword occurrences in the subject and body. Scoring is deterministic:
// ties resolve to the earliest entry in the table ordering.
package classify

import (
	"regexp"
	"strings"

	"github.com/projectcompass/compass/internal/core/domain"
)

// categoryOrder fixes the tie-break walk for category scoring.
var categoryOrder = []domain.Category{
	domain.CategoryPrequalification,
	domain.CategoryFinance,
	domain.CategoryContract,
	domain.CategoryBidding,
	domain.CategoryIssue,
	domain.CategoryInformation,
}

var categoryKeywords = map[domain.Category][]string{
	domain.CategoryPrequalification: {
		"prequalification", "pre-qualification", "qualify", "qualification",
		"prerequisites", "pre-requisites", "registration", "onboarding",
	},
	domain.CategoryFinance: {
		"payment", "invoice", "billing", "financial", "tax", "finance",
		"accounting", "receipt", "reimbursement", "credit", "debit",
	},
	domain.CategoryContract: {
		"contract", "agreement", "terms", "conditions", "clause",
		"termination", "renewal", "amendment", "legal", "contractual",
	},
	domain.CategoryBidding: {
		"bid", "tender", "proposal", "rfp", "rfi", "rfq", "offer",
		"quotation", "submission", "procurement", "pricing",
	},
	domain.CategoryIssue: {
		"issue", "problem", "error", "mistake", "bug", "defect",
		"malfunction", "trouble", "difficulty", "complaint", "concern",
	},
	domain.CategoryInformation: {
		"information", "details", "guide", "instructions", "clarification",
		"explain", "process", "procedure", "steps", "how to", "help",
	},
}

// typeOrder fixes the tie-break walk for type scoring.
var typeOrder = []domain.InquiryType{
	domain.TypeApplicationStatus,
	domain.TypeDocumentSubmission,
	domain.TypePaymentStatus,
	domain.TypeContractTerms,
	domain.TypeBidSubmission,
	domain.TypeTechnicalIssue,
	domain.TypeProcessInformation,
}

var typeKeywords = map[domain.InquiryType][]string{
	domain.TypeApplicationStatus: {
		"status", "application", "progress", "submitted", "review", "accepted", "rejected",
	},
	domain.TypeDocumentSubmission: {
		"document", "upload", "submit", "attach", "certificate", "form", "paperwork",
	},
	domain.TypePaymentStatus: {
		"payment", "paid", "pending", "overdue", "scheduled", "processed",
	},
	domain.TypeContractTerms: {
		"terms", "conditions", "clause", "agreement", "provision", "stipulation",
	},
	domain.TypeBidSubmission: {
		"submit", "submission", "deadline", "requirements", "upload", "proposal",
	},
	domain.TypeTechnicalIssue: {
		"technical", "system", "error", "platform", "website", "portal", "login",
	},
	domain.TypeProcessInformation: {
		"process", "procedure", "steps", "information", "guide", "instruction", "timeline",
	},
}

var digestIndicators = []string{
	"urgent", "important", "question", "request", "deadline",
	"need", "please", "help", "issue", "problem", "when",
	"where", "who", "how", "why", "what",
}

// Signature patterns run in order; the first match under 50 chars wins.
var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Regards,[\s\n]+([A-Za-z\s]+)`),
	regexp.MustCompile(`Sincerely,[\s\n]+([A-Za-z\s]+)`),
	regexp.MustCompile(`Best regards,[\s\n]+([A-Za-z\s]+)`),
	regexp.MustCompile(`Thanks,[\s\n]+([A-Za-z\s]+)`),
	regexp.MustCompile(`Thank you,[\s\n]+([A-Za-z\s]+)`),
	regexp.MustCompile(`\n([A-Za-z\s]+)\n[A-Za-z\s]*[Dd]epartment`),
	regexp.MustCompile(`\n([A-Za-z\s]+)\n[A-Za-z\s]*[Cc]ompany`),
}

var companyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[Cc]ompany:[\s\n]+([A-Za-z0-9\s&.,]+)`),
	regexp.MustCompile(`[Ff]rom[\s\n]+([A-Za-z0-9\s&.,]+)[Cc]ompany`),
	regexp.MustCompile(`on behalf of[\s\n]+([A-Za-z0-9\s&.,]+)`),
}

// Classifier scores inquiry text against static keyword tables.
// The zero value is not usable; construct with New.
type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

// Classify analyzes the subject and content of an inquiry and returns the
// winning category and type together with a blended confidence, a digest of
// the important lines, and any vendor identity found in the signature.
func (c *Classifier) Classify(inq *domain.Inquiry) domain.Classification {
	text := inq.Email.Subject + " " + inq.RawContent
	lowered := strings.ToLower(text)

	category, categoryConfidence := c.categorize(lowered)
	inquiryType, typeConfidence := c.determineType(lowered)

	result := domain.Classification{
		Category:   category,
		Type:       inquiryType,
		Confidence: (categoryConfidence + typeConfidence) / 2,
		Digest:     c.digest(text),
	}

	result.VendorName = extractByPatterns(text, signaturePatterns, 50)
	result.VendorCompany = extractByPatterns(text, companyPatterns, 100)
	return result
}

func (c *Classifier) categorize(lowered string) (domain.Category, float64) {
	best, bestScore, total := domain.CategoryOther, 0, 0
	for _, category := range categoryOrder {
		score := keywordScore(lowered, categoryKeywords[category])
		total += score
		if score > bestScore {
			best, bestScore = category, score
		}
	}
	if bestScore == 0 {
		return domain.CategoryOther, 0.5
	}
	confidence := float64(bestScore) / float64(total)
	return best, min(confidence+0.3, 1.0)
}

func (c *Classifier) determineType(lowered string) (domain.InquiryType, float64) {
	best, bestScore, total := domain.TypeGeneral, 0, 0
	for _, inquiryType := range typeOrder {
		score := keywordScore(lowered, typeKeywords[inquiryType])
		total += score
		if score > bestScore {
			best, bestScore = inquiryType, score
		}
	}
	if bestScore == 0 {
		return domain.TypeGeneral, 0.5
	}
	return best, float64(bestScore) / float64(total)
}

func keywordScore(lowered string, keywords []string) int {
	score := 0
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			score++
		}
	}
	return score
}

// digest keeps the lines carrying indicator words; when none match it falls
// back to the first five non-blank lines.
func (c *Classifier) digest(text string) string {
	var important []string
	var nonBlank []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		nonBlank = append(nonBlank, line)
		lowered := strings.ToLower(line)
		for _, indicator := range digestIndicators {
			if strings.Contains(lowered, indicator) {
				important = append(important, line)
				break
			}
		}
	}
	if len(important) == 0 {
		if len(nonBlank) > 5 {
			nonBlank = nonBlank[:5]
		}
		important = nonBlank
	}
	return strings.Join(important, "\n")
}

func extractByPatterns(text string, patterns []*regexp.Regexp, maxLen int) string {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		value := strings.TrimSpace(match[1])
		if value != "" && len(value) < maxLen {
			return value
		}
	}
	return ""
}
