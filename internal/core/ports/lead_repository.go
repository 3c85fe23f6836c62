package ports

import (
	"context"
	"time"

	"github.com/estateline/crm-api/internal/core/domain"
)

// ListLeadsFilter carries all query parameters for the lead listing.
// OwnerIDs is always set by the service layer from the caller's role:
// empty = no scoping (admin), non-empty = only leads assigned to those users.
type ListLeadsFilter struct {
	OwnerIDs []string
	// IncludeUnassigned widens a scoped query to also match unassigned leads
	// (managers work the unassigned pool; agents do not).
	IncludeUnassigned bool
	Search            string // partial match on name, email or phone
	Status            string // exact status, empty = all
	HotLead           *bool  // nil = all
	DateFilter        string // "", "all", "today", "overdue", "thisWeek", "thisMonth"
	FromDate          time.Time
	ToDate            time.Time
	Page              int // 1-based
	Limit             int // capped at 100 by the service
	Now               time.Time
}

// LeadStats is the aggregate block returned alongside each page.
type LeadStats struct {
	Total      int64 `json:"total"`
	HotLeads   int64 `json:"hot_leads"`
	Assigned   int64 `json:"assigned"`
	Unassigned int64 `json:"unassigned"`
}

// SearchLeadsFilter carries the parameters for the quick search endpoint.
// Assigned distinguishes the assign tab (false: unassigned candidates) from
// the unassign tab (true: currently assigned leads); nil searches both.
type SearchLeadsFilter struct {
	Query             string
	Assigned          *bool
	OwnerIDs          []string
	IncludeUnassigned bool
	Limit             int
}

// LeadRepository defines persistence operations for leads.
type LeadRepository interface {
	Create(ctx context.Context, l *domain.Lead) (*domain.Lead, error)
	CreateMany(ctx context.Context, leads []*domain.Lead) (int, error)
	FindByID(ctx context.Context, id string) (*domain.Lead, error)
	// List returns a page of leads, the total match count, scope-wide stats
	// and a per-status count map.
	List(ctx context.Context, filter ListLeadsFilter) ([]*domain.Lead, int64, *LeadStats, map[string]int64, error)
	Update(ctx context.Context, l *domain.Lead) error
	Delete(ctx context.Context, id string) error
	// AppendFollowUp atomically pushes one interaction and rewrites the
	// denormalised last_remark / next_task_date fields.
	AppendFollowUp(ctx context.Context, id string, remark string, nextTaskDate time.Time, at time.Time) error
	// SetAssignee sets assigned_to; an empty userID unassigns the lead.
	SetAssignee(ctx context.Context, id string, userID string) error
	Search(ctx context.Context, filter SearchLeadsFilter) ([]*domain.Lead, error)
}
