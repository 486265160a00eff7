// Package routing assigns inquiries to a department and a staff member.
// Department resolution walks the type table, then the category table, then
// the Vendor Relations default; assignee resolution walks the priority's
// role tiers. A configurable fraction of assignments is diverted to a random
// alternate to spread load.
package routing

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/projectcompass/compass/internal/core/domain"
)

const (
	fallbackDepartment = "Vendor Relations"

	// DefaultSpreadProbability is the fraction of assignments diverted to
	// an alternate staff member.
	DefaultSpreadProbability = 0.20
)

var categoryDepartments = map[domain.Category]string{
	domain.CategoryPrequalification: "Vendor Registration",
	domain.CategoryFinance:          "Finance",
	domain.CategoryContract:         "Legal",
	domain.CategoryBidding:          "Procurement",
	domain.CategoryIssue:            "Technical Support",
	domain.CategoryInformation:      "Vendor Relations",
	domain.CategoryOther:            "Vendor Relations",
}

var typeDepartments = map[domain.InquiryType]string{
	domain.TypeApplicationStatus:   "Vendor Registration",
	domain.TypeDocumentSubmission:  "Vendor Registration",
	domain.TypeEligibilityCriteria: "Vendor Registration",

	domain.TypePaymentStatus:    "Accounts Payable",
	domain.TypeInvoiceIssue:     "Accounts Payable",
	domain.TypeTaxDocumentation: "Finance",

	domain.TypeContractTerms: "Legal",
	domain.TypeRenewal:       "Contract Management",
	domain.TypeAmendment:     "Contract Management",

	domain.TypeBidSubmission:    "Procurement",
	domain.TypeBidClarification: "Procurement",
	domain.TypeBidResults:       "Procurement",

	domain.TypeTechnicalIssue: "Technical Support",
	domain.TypePortalAccess:   "Technical Support",
	domain.TypeDeliveryIssue:  "Logistics",

	domain.TypeProcessInformation:   "Vendor Relations",
	domain.TypeDocumentationRequest: "Vendor Relations",
	domain.TypeContactRequest:       "Vendor Relations",
	domain.TypeGeneral:              "Vendor Relations",
}

var priorityRoles = map[domain.Priority][]string{
	domain.PriorityCritical:      {RoleUrgentResponseTeam, RoleDepartmentHead},
	domain.PriorityHigh:          {RoleSeniorSpecialist, RoleSpecialist},
	domain.PriorityMedium:        {RoleSpecialist, RoleAssociate},
	domain.PriorityLow:           {RoleAssociate, RoleAssistant},
	domain.PriorityInformational: {RoleAssistant},
}

// AssignmentHistory remembers which staff member handled a vendor before.
type AssignmentHistory interface {
	GetPreviousAssignee(ctx context.Context, vendorRef string) (string, error)
	RecordAssignment(ctx context.Context, vendorRef, assignee string) error
}

// Router resolves routing decisions and tracks running load counters.
type Router struct {
	directory *Directory
	history   AssignmentHistory
	rng       *rand.Rand
	spread    float64
	logger    *slog.Logger
	now       func() time.Time

	mu              sync.Mutex
	departmentLoads map[string]int
	assigneeLoads   map[string]int
}

func New(directory *Directory, history AssignmentHistory, rng *rand.Rand, spread float64, logger *slog.Logger) *Router {
	if directory == nil {
		directory = DefaultDirectory()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if spread < 0 || spread > 1 {
		spread = DefaultSpreadProbability
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		directory:       directory,
		history:         history,
		rng:             rng,
		spread:          spread,
		logger:          logger,
		now:             time.Now,
		departmentLoads: make(map[string]int),
		assigneeLoads:   make(map[string]int),
	}
}

// Route picks the department and assignee for a classified, prioritized
// inquiry, records the vendor assignment, and bumps the load counters.
// History failures are logged and routing continues without the override.
func (r *Router) Route(ctx context.Context, inq *domain.Inquiry) (domain.RoutingDecision, error) {
	department := r.determineDepartment(inq)
	assignee, err := r.determineAssignee(inq.Priority, department)
	if err != nil {
		return domain.RoutingDecision{}, domain.WrapError(domain.ErrStageFailure, "routing.route", err)
	}

	if r.history != nil && inq.VendorRef != "" {
		previous, err := r.history.GetPreviousAssignee(ctx, inq.VendorRef)
		if err != nil {
			r.logger.WarnContext(ctx, "vendor history lookup failed",
				"vendor_ref", inq.VendorRef, "error", err)
		} else if previous != "" {
			assignee = previous
		}
	}

	assignee = r.spreadLoad(department, assignee)

	if r.history != nil && inq.VendorRef != "" {
		if err := r.history.RecordAssignment(ctx, inq.VendorRef, assignee); err != nil {
			r.logger.WarnContext(ctx, "vendor assignment record failed",
				"vendor_ref", inq.VendorRef, "error", err)
		}
	}

	r.bumpLoads(department, assignee)

	return domain.RoutingDecision{
		Department: department,
		Assignee:   assignee,
		Reason:     fmt.Sprintf("Routed based on %s category and %s priority", inq.Category, inq.Priority),
		AssignedAt: r.now(),
	}, nil
}

func (r *Router) determineDepartment(inq *domain.Inquiry) string {
	if inq.Type != "" {
		if department, ok := typeDepartments[inq.Type]; ok {
			return department
		}
	}
	if department, ok := categoryDepartments[inq.Category]; ok {
		return department
	}
	return fallbackDepartment
}

func (r *Router) determineAssignee(priority domain.Priority, department string) (string, error) {
	roles, ok := priorityRoles[priority]
	if !ok {
		roles = []string{RoleSpecialist}
	}
	if !r.directory.Has(department) {
		department = fallbackDepartment
	}

	for _, role := range roles {
		if email, ok := r.directory.Lookup(department, role); ok {
			return email, nil
		}
	}
	if email, ok := r.directory.Lookup(department, RoleSpecialist); ok {
		return email, nil
	}
	if members := r.directory.Staff(department); len(members) > 0 {
		return members[0], nil
	}
	return "", fmt.Errorf("no staff for department %q", department)
}

// spreadLoad keeps the chosen assignee most of the time and diverts the
// rest to a uniformly chosen colleague in the same department.
func (r *Router) spreadLoad(department, assignee string) string {
	r.mu.Lock()
	divert := r.rng.Float64() < r.spread
	r.mu.Unlock()
	if !divert {
		return assignee
	}

	var alternatives []string
	for _, member := range r.directory.Staff(department) {
		if member != assignee {
			alternatives = append(alternatives, member)
		}
	}
	if len(alternatives) == 0 {
		return assignee
	}

	r.mu.Lock()
	pick := alternatives[r.rng.Intn(len(alternatives))]
	r.mu.Unlock()
	return pick
}

func (r *Router) bumpLoads(department, assignee string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.departmentLoads[department]++
	r.assigneeLoads[assignee]++
}

// Loads returns copies of the running department and assignee counters.
func (r *Router) Loads() (departments map[string]int, assignees map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	departments = make(map[string]int, len(r.departmentLoads))
	for k, v := range r.departmentLoads {
		departments[k] = v
	}
	assignees = make(map[string]int, len(r.assigneeLoads))
	for k, v := range r.assigneeLoads {
		assignees[k] = v
	}
	return departments, assignees
}
