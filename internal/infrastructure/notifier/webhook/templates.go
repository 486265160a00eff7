package webhook

import (
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/projectcompass/compass/internal/core/domain"
)

type messageVars struct {
	RecipientName string
	AssigneeName  string
	InquiryID     string
	VendorName    string
	Category      domain.Category
	InquiryType   domain.InquiryType
	Priority      domain.Priority
	DueBy         string
	Content       string
}

var assignmentSubject = template.Must(template.New("assignment-subject").Parse(
	"New Vendor Inquiry Assigned: {{.InquiryID}}"))

var assignmentBody = template.Must(template.New("assignment-body").Parse(`Dear {{.RecipientName}},

A new vendor inquiry has been assigned to you:

Inquiry ID: {{.InquiryID}}
Vendor: {{.VendorName}}
Category: {{.Category}}
Type: {{.InquiryType}}
Priority: {{.Priority}}
Due By: {{.DueBy}}

Inquiry Details:
{{.Content}}

Please respond to this inquiry by the due date.

Best regards,
Compass System
`))

var escalationSubject = template.Must(template.New("escalation-subject").Parse(
	"URGENT: Escalated Vendor Inquiry {{.InquiryID}}"))

var escalationBody = template.Must(template.New("escalation-body").Parse(`Dear {{.RecipientName}},

A vendor inquiry has been escalated due to its critical nature:

Inquiry ID: {{.InquiryID}}
Vendor: {{.VendorName}}
Category: {{.Category}}
Type: {{.InquiryType}}
Priority: {{.Priority}}
Due By: {{.DueBy}}
Assignee: {{.AssigneeName}}

Inquiry Details:
{{.Content}}

This inquiry requires immediate attention.

Best regards,
Compass System
`))

var reminderSubject = template.Must(template.New("reminder-subject").Parse(
	"Reminder: Pending Vendor Inquiry {{.InquiryID}}"))

var reminderBody = template.Must(template.New("reminder-body").Parse(`Dear {{.RecipientName}},

This is a reminder about a pending vendor inquiry assigned to you:

Inquiry ID: {{.InquiryID}}
Vendor: {{.VendorName}}
Category: {{.Category}}
Type: {{.InquiryType}}
Priority: {{.Priority}}
Due By: {{.DueBy}}

The inquiry is due soon. Please ensure timely resolution.

Best regards,
Compass System
`))

func buildVars(inq *domain.Inquiry, recipientName string) messageVars {
	vars := messageVars{
		RecipientName: recipientName,
		AssigneeName:  friendlyName(inq.AssignedTo),
		InquiryID:     inq.ID,
		VendorName:    inq.VendorName,
		Category:      inq.Category,
		InquiryType:   inq.Type,
		Priority:      inq.Priority,
		DueBy:         "Not specified",
		Content:       inq.ProcessedContent,
	}
	if vars.VendorName == "" {
		vars.VendorName = "Unknown Vendor"
	}
	if inq.DueBy != nil {
		vars.DueBy = inq.DueBy.Format("2006-01-02 15:04")
	}
	if vars.Content == "" {
		vars.Content = truncate(inq.RawContent, 200)
	}
	return vars
}

// friendlyName turns "ap.senior@example.com" into "Ap Senior".
func friendlyName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	parts := strings.Split(local, ".")
	for i, part := range parts {
		if part != "" {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

// truncate cuts on a rune boundary so multi-byte text stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func render(subject, body *template.Template, vars messageVars) (string, string, error) {
	var subjectBuf, bodyBuf strings.Builder
	if err := subject.Execute(&subjectBuf, vars); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	if err := body.Execute(&bodyBuf, vars); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return subjectBuf.String(), bodyBuf.String(), nil
}

func managerRecipient(department string) (email, name string) {
	email = fmt.Sprintf("manager.%s@example.com", strings.ToLower(strings.ReplaceAll(department, " ", "")))
	name = department + " Manager"
	return email, name
}
