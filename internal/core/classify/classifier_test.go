package classify

import (
	"strings"
	"testing"

	"github.com/projectcompass/compass/internal/core/domain"
)

func classifyText(t *testing.T, subject, body string) domain.Classification {
	t.Helper()
	c := New()
	return c.Classify(&domain.Inquiry{
		Email:      domain.EmailMetadata{Subject: subject},
		RawContent: body,
	})
}

func TestClassifyFinancePayment(t *testing.T) {
	cls := classifyText(t, "Invoice overdue", "Our payment for invoice 42 is overdue. Billing has not processed it.")

	if cls.Category != domain.CategoryFinance {
		t.Fatalf("category = %s, want finance", cls.Category)
	}
	if cls.Type != domain.TypePaymentStatus {
		t.Fatalf("type = %s, want payment_status", cls.Type)
	}
	if cls.Confidence <= 0 || cls.Confidence > 1 {
		t.Fatalf("confidence out of range: %f", cls.Confidence)
	}
}

func TestClassifyNoKeywordsFallsBack(t *testing.T) {
	cls := classifyText(t, "hello", "nothing matching here at all")

	if cls.Category != domain.CategoryOther {
		t.Fatalf("category = %s, want other", cls.Category)
	}
	if cls.Type != domain.TypeGeneral {
		t.Fatalf("type = %s, want general", cls.Type)
	}
	if cls.Confidence != 0.5 {
		t.Fatalf("confidence = %f, want 0.5", cls.Confidence)
	}
}

func TestClassifyTieBreaksToEarlierCategory(t *testing.T) {
	// One finance keyword and one issue keyword; finance comes first in the
	// table ordering so it must win the tie.
	cls := classifyText(t, "", "the invoice has a problem")

	if cls.Category != domain.CategoryFinance {
		t.Fatalf("category = %s, want finance on tie", cls.Category)
	}
}

func TestClassifyWinnerConfidenceCapped(t *testing.T) {
	// All matched keywords belong to one category: share 1.0, capped at 1.0
	// after the +0.3 base, and the type axis contributes its own share.
	cls := classifyText(t, "", "billing invoice payment tax receipt")

	if cls.Category != domain.CategoryFinance {
		t.Fatalf("category = %s, want finance", cls.Category)
	}
	if cls.Confidence > 1 {
		t.Fatalf("confidence = %f, exceeds 1", cls.Confidence)
	}
}

func TestDigestPrefersIndicatorLines(t *testing.T) {
	body := "Greetings from Acme.\nWe urgently need the portal fixed.\nHave a nice day."
	cls := classifyText(t, "", body)

	if !strings.Contains(cls.Digest, "urgently need") {
		t.Fatalf("digest missing indicator line: %q", cls.Digest)
	}
	if strings.Contains(cls.Digest, "Greetings") {
		t.Fatalf("digest kept non-indicator line: %q", cls.Digest)
	}
}

func TestDigestFallsBackToFirstFiveLines(t *testing.T) {
	body := "one\ntwo\nthree\nfour\nfive\nsix"
	cls := classifyText(t, "", body)

	lines := strings.Split(cls.Digest, "\n")
	if len(lines) != 5 {
		t.Fatalf("digest has %d lines, want 5: %q", len(lines), cls.Digest)
	}
	if lines[0] != "one" || lines[4] != "five" {
		t.Fatalf("digest lines wrong: %q", cls.Digest)
	}
}

func TestExtractVendorSignature(t *testing.T) {
	body := "Please advise on the contract renewal.\n\nBest regards,\nJordan Smith"
	cls := classifyText(t, "Contract question", body)

	if cls.VendorName != "Jordan Smith" {
		t.Fatalf("vendor name = %q, want Jordan Smith", cls.VendorName)
	}
}

func TestExtractVendorCompany(t *testing.T) {
	body := "Writing on behalf of Acme Industrial Supplies about our registration."
	cls := classifyText(t, "", body)

	if !strings.HasPrefix(cls.VendorCompany, "Acme Industrial Supplies") {
		t.Fatalf("vendor company = %q", cls.VendorCompany)
	}
}

func TestExtractVendorSignatureTooLongIgnored(t *testing.T) {
	longName := strings.Repeat("Aa ", 30)
	body := "Question about terms.\n\nRegards,\n" + longName
	cls := classifyText(t, "", body)

	if cls.VendorName != "" {
		t.Fatalf("vendor name = %q, want empty for oversized match", cls.VendorName)
	}
}
