package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/projectcompass/compass/internal/core/domain"
	"github.com/projectcompass/compass/internal/core/monitor"
	"github.com/projectcompass/compass/internal/core/ports"
)

var _ ports.InquiryProcessor = (*ProcessInquiryUseCase)(nil)

// DefaultTrackerCapacity bounds the in-flight inquiry map.
const DefaultTrackerCapacity = 1024

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Result is the uniform outcome of a pipeline run.
type Result struct {
	InquiryID    string          `json:"inquiry_id"`
	Outcome      string          `json:"outcome"`
	Category     domain.Category `json:"category,omitempty"`
	Priority     domain.Priority `json:"priority,omitempty"`
	AssignedTo   string          `json:"assigned_to,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// tracker is a bounded map of recently processed inquiries. Insertion past
// capacity evicts the oldest entry.
type tracker struct {
	mu       sync.Mutex
	capacity int
	order    []string
	entries  map[string]*domain.Inquiry
}

func newTracker(capacity int) *tracker {
	if capacity <= 0 {
		capacity = DefaultTrackerCapacity
	}
	return &tracker{
		capacity: capacity,
		entries:  make(map[string]*domain.Inquiry, capacity),
	}
}

func (t *tracker) put(inq *domain.Inquiry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[inq.ID]; !exists {
		if len(t.order) >= t.capacity {
			oldest := t.order[0]
			t.order = t.order[1:]
			delete(t.entries, oldest)
		}
		t.order = append(t.order, inq.ID)
	}
	copied := *inq
	t.entries[inq.ID] = &copied
}

func (t *tracker) get(id string) (*domain.Inquiry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	inq, ok := t.entries[id]
	if !ok {
		return nil, false
	}
	copied := *inq
	return &copied, true
}

// ProcessInquiryUseCase runs an inquiry through classification, priority
// scoring, routing, and notification. A stage fault aborts the remaining
// stages and leaves the inquiry at the last completed status; notifier and
// vendor lookup failures are absorbed.
type ProcessInquiryUseCase struct {
	repo       ports.InquiryRepository
	facts      ports.VendorFactsProvider
	classifier ports.InquiryClassifier
	scorer     ports.PriorityScorer
	router     ports.InquiryRouter
	notifier   ports.Notifier
	collector  *monitor.Collector
	logger     *slog.Logger
	now        func() time.Time
	inflight   *tracker

	onNotification NotificationObserver
}

// NotificationObserver receives the outcome of every notification attempt.
type NotificationObserver func(kind string, sent bool)

// OnNotification registers an observer called after each dispatch and
// escalation attempt, e.g. to feed delivery counters.
func (uc *ProcessInquiryUseCase) OnNotification(observer NotificationObserver) {
	uc.onNotification = observer
}

func NewProcessInquiryUseCase(
	repo ports.InquiryRepository,
	facts ports.VendorFactsProvider,
	classifier ports.InquiryClassifier,
	scorer ports.PriorityScorer,
	router ports.InquiryRouter,
	notifier ports.Notifier,
	collector *monitor.Collector,
	logger *slog.Logger,
	trackerCapacity int,
) *ProcessInquiryUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessInquiryUseCase{
		repo:       repo,
		facts:      facts,
		classifier: classifier,
		scorer:     scorer,
		router:     router,
		notifier:   notifier,
		collector:  collector,
		logger:     logger,
		now:        time.Now,
		inflight:   newTracker(trackerCapacity),
	}
}

// ProcessByID loads the inquiry, runs the pipeline, and persists the final
// state. The persisted state reflects the last completed stage even when a
// later stage failed.
func (uc *ProcessInquiryUseCase) ProcessByID(ctx context.Context, inquiryID string) error {
	inq, err := uc.repo.GetByID(ctx, inquiryID)
	if err != nil {
		return fmt.Errorf("fetch inquiry by id: %w", err)
	}

	result := uc.Process(ctx, inq)

	if err := uc.repo.Update(ctx, inq); err != nil {
		return fmt.Errorf("save processed inquiry: %w", err)
	}

	if result.Outcome == OutcomeError {
		return domain.WrapError(domain.ErrStageFailure, "process inquiry", errors.New(result.ErrorMessage))
	}
	return nil
}

// Process mutates the inquiry in place and returns the uniform result.
func (uc *ProcessInquiryUseCase) Process(ctx context.Context, inq *domain.Inquiry) (result Result) {
	result = Result{InquiryID: inq.ID, Outcome: OutcomeSuccess}

	defer func() {
		if r := recover(); r != nil {
			uc.failStage(ctx, inq, "pipeline_panic", fmt.Errorf("panic: %v", r), &result)
		}
		uc.inflight.put(inq)
	}()

	uc.inflight.put(inq)
	uc.collector.RecordActivity("inquiry_received", map[string]string{"inquiry_id": inq.ID})

	if err := validate(inq); err != nil {
		uc.failStage(ctx, inq, "validation", err, &result)
		return result
	}

	uc.classify(ctx, inq)
	result.Category = inq.Category

	facts := uc.lookupFacts(ctx, inq)
	uc.score(inq, facts)
	result.Priority = inq.Priority

	decision, err := uc.router.Route(ctx, inq)
	if err != nil {
		uc.failStage(ctx, inq, "routing", err, &result)
		return result
	}
	uc.applyRouting(inq, decision)
	result.AssignedTo = inq.AssignedTo

	uc.notify(ctx, inq, decision)

	uc.collector.RecordProcessed(inq, uc.now().Sub(inq.CreatedAt))
	uc.logger.InfoContext(ctx, "inquiry processed",
		"inquiry_id", inq.ID,
		"category", inq.Category,
		"priority", inq.Priority,
		"assigned_to", inq.AssignedTo,
	)
	return result
}

// Tracked returns a copy of a recently processed inquiry, if it is still in
// the bounded in-flight map.
func (uc *ProcessInquiryUseCase) Tracked(inquiryID string) (*domain.Inquiry, bool) {
	return uc.inflight.get(inquiryID)
}

func validate(inq *domain.Inquiry) error {
	if inq.Email.FromEmail == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate inquiry", errors.New("missing sender address"))
	}
	if inq.Email.Subject == "" && inq.RawContent == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate inquiry", errors.New("empty subject and body"))
	}
	return nil
}

func (uc *ProcessInquiryUseCase) classify(ctx context.Context, inq *domain.Inquiry) {
	cls := uc.classifier.Classify(inq)
	inq.Category = cls.Category
	inq.Type = cls.Type
	inq.Confidence = cls.Confidence
	inq.ProcessedContent = cls.Digest
	if inq.VendorName == "" && cls.VendorName != "" {
		inq.VendorName = cls.VendorName
	}
	if cls.VendorCompany != "" {
		if inq.Metadata == nil {
			inq.Metadata = make(map[string]string)
		}
		inq.Metadata["vendor_company"] = cls.VendorCompany
	}
	inq.Status = domain.StatusCategorized
	inq.Touch(uc.now())

	uc.logger.DebugContext(ctx, "inquiry classified",
		"inquiry_id", inq.ID, "category", inq.Category, "type", inq.Type)
}

func (uc *ProcessInquiryUseCase) lookupFacts(ctx context.Context, inq *domain.Inquiry) domain.VendorFacts {
	if uc.facts == nil || inq.VendorRef == "" {
		return domain.VendorFacts{}
	}
	facts, err := uc.facts.GetVendorFacts(ctx, inq.VendorRef)
	if err != nil {
		uc.logger.WarnContext(ctx, "vendor facts lookup failed",
			"inquiry_id", inq.ID, "vendor_ref", inq.VendorRef, "error", err)
		uc.collector.RecordError("vendor_lookup", err.Error(), map[string]string{"inquiry_id": inq.ID})
		return domain.VendorFacts{}
	}
	return facts
}

func (uc *ProcessInquiryUseCase) score(inq *domain.Inquiry, facts domain.VendorFacts) {
	priority, dueBy := uc.scorer.Score(inq, facts)
	inq.Priority = priority
	inq.DueBy = &dueBy
	inq.Touch(uc.now())
}

func (uc *ProcessInquiryUseCase) applyRouting(inq *domain.Inquiry, decision domain.RoutingDecision) {
	inq.AssignedTo = decision.Assignee
	inq.Status = domain.StatusAssigned
	inq.Touch(uc.now())
}

func (uc *ProcessInquiryUseCase) notify(ctx context.Context, inq *domain.Inquiry, decision domain.RoutingDecision) {
	if uc.notifier == nil {
		return
	}
	sent, err := uc.notifier.Dispatch(ctx, inq, decision)
	if err != nil {
		uc.logger.WarnContext(ctx, "assignment notification failed",
			"inquiry_id", inq.ID, "error", err)
		uc.collector.RecordError("notification", err.Error(), map[string]string{"inquiry_id": inq.ID})
	} else if !sent {
		uc.logger.DebugContext(ctx, "assignment notification skipped", "inquiry_id", inq.ID)
	}
	uc.observeNotification("assignment", sent && err == nil)

	if inq.Priority != domain.PriorityCritical {
		return
	}
	escalated, err := uc.notifier.Escalate(ctx, inq, decision)
	if err != nil {
		uc.logger.WarnContext(ctx, "escalation notification failed",
			"inquiry_id", inq.ID, "error", err)
		uc.collector.RecordError("escalation", err.Error(), map[string]string{"inquiry_id": inq.ID})
	}
	uc.observeNotification("escalation", escalated && err == nil)
}

func (uc *ProcessInquiryUseCase) observeNotification(kind string, sent bool) {
	if uc.onNotification != nil {
		uc.onNotification(kind, sent)
	}
}

func (uc *ProcessInquiryUseCase) failStage(ctx context.Context, inq *domain.Inquiry, stage string, err error, result *Result) {
	uc.logger.ErrorContext(ctx, "pipeline stage failed",
		"inquiry_id", inq.ID, "stage", stage, "error", err)
	uc.collector.RecordError(stage, err.Error(), map[string]string{"inquiry_id": inq.ID})
	result.Outcome = OutcomeError
	result.ErrorMessage = err.Error()
	result.Category = inq.Category
	result.Priority = inq.Priority
	result.AssignedTo = inq.AssignedTo
}
