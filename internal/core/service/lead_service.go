package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

const maxPageSize = 100
const defaultPageSize = 10

// LeadService implements the lead pipeline use cases with role scoping:
// admins see everything, managers their team's leads, agents their own.
type LeadService struct {
	leads  ports.LeadRepository
	users  ports.UserRepository
	logger zerolog.Logger
}

func NewLeadService(leads ports.LeadRepository, users ports.UserRepository, logger zerolog.Logger) *LeadService {
	return &LeadService{leads: leads, users: users, logger: logger}
}

// ownerScope resolves the caller's visibility: nil means unrestricted.
func (s *LeadService) ownerScope(ctx context.Context, caller ports.Caller) ([]string, error) {
	switch caller.Role {
	case domain.RoleAdmin:
		return nil, nil
	case domain.RoleManager:
		team, err := s.users.TeamMemberIDs(ctx, caller.UserID)
		if err != nil {
			return nil, err
		}
		return append(team, caller.UserID), nil
	default:
		return []string{caller.UserID}, nil
	}
}

// canMutate reports whether the caller may modify the given lead.
func canMutate(caller ports.Caller, lead *domain.Lead, scope []string) bool {
	if caller.Role == domain.RoleAdmin {
		return true
	}
	if !lead.Assigned() {
		// unassigned leads are managed by managers only
		return caller.Role == domain.RoleManager
	}
	for _, id := range scope {
		if lead.AssignedTo == id {
			return true
		}
	}
	return false
}

func (s *LeadService) CreateLead(ctx context.Context, input ports.CreateLeadInput) (*domain.Lead, error) {
	status := domain.LeadStatus(input.Status)
	if status == "" {
		status = domain.StatusNew
	}
	if !domain.ValidLeadStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	now := time.Now().UTC()
	lead := &domain.Lead{
		Name:         input.Name,
		Phone:        input.Phone,
		Email:        input.Email,
		Source:       input.Source,
		LeadDated:    input.LeadDated,
		Status:       status,
		HotLead:      input.HotLead,
		Budget:       input.Budget,
		Location:     input.Location,
		Interactions: []domain.Interaction{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.leads.Create(ctx, lead)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create lead")
		return nil, err
	}

	s.logger.Info().Str("lead_id", created.ID).Str("source", created.Source).Msg("lead created")
	return created, nil
}

func (s *LeadService) ListLeads(ctx context.Context, input ports.ListLeadsInput) (*ports.ListLeadsResult, error) {
	scope, err := s.ownerScope(ctx, input.Caller)
	if err != nil {
		return nil, err
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	leads, total, stats, statusCounts, err := s.leads.List(ctx, ports.ListLeadsFilter{
		OwnerIDs:          scope,
		IncludeUnassigned: input.Caller.Role == domain.RoleManager,
		Search:            input.Search,
		Status:            input.Status,
		HotLead:           input.HotLead,
		DateFilter:        input.DateFilter,
		FromDate:          input.FromDate,
		ToDate:            input.ToDate,
		Page:              page,
		Limit:             limit,
		Now:               time.Now(),
	})
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListLeadsResult{
		Leads:        leads,
		Total:        total,
		Page:         page,
		TotalPages:   totalPages,
		Stats:        stats,
		StatusCounts: statusCounts,
	}, nil
}

func (s *LeadService) EditLead(ctx context.Context, caller ports.Caller, input ports.EditLeadInput) (*domain.Lead, error) {
	lead, err := s.leads.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	scope, err := s.ownerScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !canMutate(caller, lead, scope) {
		return nil, domain.ErrForbidden
	}

	status := domain.LeadStatus(input.Status)
	if !domain.ValidLeadStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	lead.Name = input.Name
	lead.Phone = input.Phone
	lead.Email = input.Email
	lead.Source = input.Source
	lead.LeadDated = input.LeadDated
	lead.Status = status
	lead.HotLead = input.HotLead
	lead.Budget = input.Budget
	lead.Location = input.Location
	lead.UpdatedAt = time.Now().UTC()

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *LeadService) DeleteLead(ctx context.Context, caller ports.Caller, id string) error {
	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return err
	}

	scope, err := s.ownerScope(ctx, caller)
	if err != nil {
		return err
	}
	if !canMutate(caller, lead, scope) {
		return domain.ErrForbidden
	}

	if err := s.leads.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("lead_id", id).Str("by", caller.UserID).Msg("lead deleted")
	return nil
}

// AddFollowUp appends one interaction and rewrites the denormalised
// last_remark / next_task_date pair in a single repository operation.
func (s *LeadService) AddFollowUp(ctx context.Context, caller ports.Caller, input ports.FollowUpInput) (*domain.Lead, error) {
	lead, err := s.leads.FindByID(ctx, input.LeadID)
	if err != nil {
		return nil, err
	}

	scope, err := s.ownerScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !canMutate(caller, lead, scope) {
		return nil, domain.ErrForbidden
	}

	now := time.Now().UTC()
	if err := s.leads.AppendFollowUp(ctx, input.LeadID, input.Remark, input.NextTaskDate, now); err != nil {
		return nil, err
	}

	return s.leads.FindByID(ctx, input.LeadID)
}

// Assign sets the assignee on each lead in one batch call. Repeated
// assignment of the same user is idempotent; per-item failures do not abort
// the rest of the batch.
func (s *LeadService) Assign(ctx context.Context, caller ports.Caller, leadIDs []string, userID string) (*ports.AssignmentResult, error) {
	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.Role == domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if caller.Role == domain.RoleManager && target.ManagerID != caller.UserID && target.ID != caller.UserID {
		return nil, domain.ErrForbidden
	}

	return s.applyAssignment(ctx, leadIDs, userID), nil
}

// Unassign clears the assignee on each lead in one batch call.
func (s *LeadService) Unassign(ctx context.Context, caller ports.Caller, leadIDs []string) (*ports.AssignmentResult, error) {
	if caller.Role != domain.RoleAdmin && caller.Role != domain.RoleManager {
		return nil, domain.ErrForbidden
	}
	return s.applyAssignment(ctx, leadIDs, ""), nil
}

func (s *LeadService) applyAssignment(ctx context.Context, leadIDs []string, userID string) *ports.AssignmentResult {
	result := &ports.AssignmentResult{Items: make([]ports.AssignmentItemResult, 0, len(leadIDs))}
	for _, id := range leadIDs {
		item := ports.AssignmentItemResult{LeadID: id, OK: true}
		if err := s.leads.SetAssignee(ctx, id, userID); err != nil {
			item.OK = false
			item.Error = err.Error()
			result.Failed++
		} else {
			result.Assigned++
		}
		result.Items = append(result.Items, item)
	}

	op := "assign"
	if userID == "" {
		op = "unassign"
	}
	s.logger.Info().Str("op", op).Int("ok", result.Assigned).Int("failed", result.Failed).Msg("batch assignment applied")
	return result
}

func (s *LeadService) Search(ctx context.Context, input ports.SearchLeadsInput) ([]*domain.Lead, error) {
	scope, err := s.ownerScope(ctx, input.Caller)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 || limit > maxPageSize {
		limit = 50
	}

	return s.leads.Search(ctx, ports.SearchLeadsFilter{
		Query:             input.Query,
		Assigned:          input.Assigned,
		OwnerIDs:          scope,
		IncludeUnassigned: input.Caller.Role == domain.RoleManager,
		Limit:             limit,
	})
}
