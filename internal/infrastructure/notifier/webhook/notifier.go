// Package webhook delivers assignment, escalation, and reminder messages to
// a configured HTTP endpoint. With no endpoint configured it runs log-only,
// so the pipeline behaves the same in development and production.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/projectcompass/compass/internal/core/domain"
	"github.com/projectcompass/compass/internal/infrastructure/resilience"
)

type message struct {
	Kind      string `json:"kind"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	InquiryID string `json:"inquiry_id"`
}

type Options struct {
	Endpoint           string
	Timeout            time.Duration
	HTTPClient         *http.Client
	ResilienceExecutor *resilience.Executor
}

// Notifier posts rendered notification messages as JSON. Delivery outcome
// is reported via the sent boolean; only rendering problems are errors.
type Notifier struct {
	endpoint string
	client   *http.Client
	executor *resilience.Executor
	logger   *slog.Logger
}

func New(options Options, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	client := options.HTTPClient
	if client == nil {
		timeout := options.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Notifier{
		endpoint: options.Endpoint,
		client:   client,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}
}

// Dispatch sends the assignment notification to the assignee.
func (n *Notifier) Dispatch(ctx context.Context, inq *domain.Inquiry, decision domain.RoutingDecision) (bool, error) {
	vars := buildVars(inq, friendlyName(decision.Assignee))
	subject, body, err := render(assignmentSubject, assignmentBody, vars)
	if err != nil {
		return false, err
	}
	return n.send(ctx, message{
		Kind:      "assignment",
		Recipient: decision.Assignee,
		Subject:   subject,
		Body:      body,
		InquiryID: inq.ID,
	})
}

// Escalate notifies the department manager about a critical inquiry.
func (n *Notifier) Escalate(ctx context.Context, inq *domain.Inquiry, decision domain.RoutingDecision) (bool, error) {
	managerEmail, managerName := managerRecipient(decision.Department)
	vars := buildVars(inq, managerName)
	subject, body, err := render(escalationSubject, escalationBody, vars)
	if err != nil {
		return false, err
	}
	return n.send(ctx, message{
		Kind:      "escalation",
		Recipient: managerEmail,
		Subject:   subject,
		Body:      body,
		InquiryID: inq.ID,
	})
}

// Remind sends a due-date reminder to the current assignee. Intended for a
// scheduler, not the processing pipeline.
func (n *Notifier) Remind(ctx context.Context, inq *domain.Inquiry) (bool, error) {
	if inq.AssignedTo == "" {
		return false, fmt.Errorf("reminder for %s: no assignee", inq.ID)
	}
	vars := buildVars(inq, friendlyName(inq.AssignedTo))
	subject, body, err := render(reminderSubject, reminderBody, vars)
	if err != nil {
		return false, err
	}
	return n.send(ctx, message{
		Kind:      "reminder",
		Recipient: inq.AssignedTo,
		Subject:   subject,
		Body:      body,
		InquiryID: inq.ID,
	})
}

func (n *Notifier) send(ctx context.Context, msg message) (bool, error) {
	if n.endpoint == "" {
		n.logger.InfoContext(ctx, "notification (log only)",
			"kind", msg.Kind, "recipient", msg.Recipient, "subject", msg.Subject)
		return true, nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return false, fmt.Errorf("marshal notification: %w", err)
	}

	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build notification request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return fmt.Errorf("post notification: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("notification endpoint status %d", resp.StatusCode)
		}
		return nil
	}

	if n.executor != nil {
		err = n.executor.Execute(ctx, "webhook."+msg.Kind, call, classifyDeliveryError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func classifyDeliveryError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
