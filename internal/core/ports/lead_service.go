package ports

import (
	"context"
	"time"

	"github.com/estateline/crm-api/internal/core/domain"
)

// Caller identifies the authenticated actor for RBAC decisions.
type Caller struct {
	UserID string
	Role   string
}

// CreateLeadInput carries all data needed to create a new lead.
type CreateLeadInput struct {
	Name      string
	Phone     string
	Email     string
	Source    string
	LeadDated time.Time
	Status    string // empty defaults to "New"
	HotLead   bool
	Budget    string
	Location  string
}

// EditLeadInput carries the full editable field set. Assignment is not part
// of an edit; only Assign/Unassign mutate assigned_to.
type EditLeadInput struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	Source    string
	LeadDated time.Time
	Status    string
	HotLead   bool
	Budget    string
	Location  string
}

// ListLeadsInput carries all parameters for the listing endpoint.
type ListLeadsInput struct {
	Caller     Caller
	Search     string
	Status     string
	HotLead    *bool
	DateFilter string
	FromDate   time.Time
	ToDate     time.Time
	Page       int
	Limit      int
}

// ListLeadsResult is returned by ListLeads.
type ListLeadsResult struct {
	Leads        []*domain.Lead
	Total        int64
	Page         int
	TotalPages   int
	Stats        *LeadStats
	StatusCounts map[string]int64
}

// FollowUpInput is one follow-up submission against a lead.
type FollowUpInput struct {
	LeadID       string
	Remark       string
	NextTaskDate time.Time
}

// AssignmentItemResult reports the outcome for one lead in a batch
// assign/unassign call.
type AssignmentItemResult struct {
	LeadID string `json:"lead_id"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// AssignmentResult aggregates a batch assignment: per-item status plus counts.
type AssignmentResult struct {
	Assigned int                    `json:"assigned"`
	Failed   int                    `json:"failed"`
	Items    []AssignmentItemResult `json:"items"`
}

// SearchLeadsInput carries the quick-search parameters.
type SearchLeadsInput struct {
	Caller   Caller
	Query    string
	Assigned *bool
	Limit    int
}

// LeadService defines use-case operations over the lead pipeline.
type LeadService interface {
	CreateLead(ctx context.Context, input CreateLeadInput) (*domain.Lead, error)
	ListLeads(ctx context.Context, input ListLeadsInput) (*ListLeadsResult, error)
	EditLead(ctx context.Context, caller Caller, input EditLeadInput) (*domain.Lead, error)
	DeleteLead(ctx context.Context, caller Caller, id string) error
	AddFollowUp(ctx context.Context, caller Caller, input FollowUpInput) (*domain.Lead, error)
	// Assign sets the assignee on each lead; repeated assignment to the same
	// user is idempotent. Unassign clears it. Both report per-item results.
	Assign(ctx context.Context, caller Caller, leadIDs []string, userID string) (*AssignmentResult, error)
	Unassign(ctx context.Context, caller Caller, leadIDs []string) (*AssignmentResult, error)
	Search(ctx context.Context, input SearchLeadsInput) ([]*domain.Lead, error)
}
