package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

// In-memory stub repositories shared by the service tests. They mirror the
// filters the real Mongo repositories apply.

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID map[string]*domain.User
	seq  int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	clone := *u
	clone.ID = fmt.Sprintf("user_%d", r.seq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, filter ports.ListUsersFilter) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.byID {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(u.Name), q) && !strings.Contains(strings.ToLower(u.Email), q) {
				continue
			}
		}
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *u
	r.byID[u.ID] = &clone
	return nil
}

func (r *stubUserRepo) TeamMemberIDs(_ context.Context, managerID string) ([]string, error) {
	var ids []string
	for _, u := range r.byID {
		if u.ManagerID == managerID {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

// seed inserts a user with a fixed ID, bypassing Create.
func (r *stubUserRepo) seed(u domain.User) *domain.User {
	clone := u
	r.byID[u.ID] = &clone
	return &clone
}

// ---------------------------------------------------------------------------
// leads
// ---------------------------------------------------------------------------

type stubLeadRepo struct {
	byID map[string]*domain.Lead
	seq  int
}

func newStubLeadRepo() *stubLeadRepo {
	return &stubLeadRepo{byID: make(map[string]*domain.Lead)}
}

func (r *stubLeadRepo) Create(_ context.Context, l *domain.Lead) (*domain.Lead, error) {
	r.seq++
	clone := *l
	clone.ID = fmt.Sprintf("lead_%d", r.seq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubLeadRepo) CreateMany(ctx context.Context, leads []*domain.Lead) (int, error) {
	for _, l := range leads {
		if _, err := r.Create(ctx, l); err != nil {
			return 0, err
		}
	}
	return len(leads), nil
}

func (r *stubLeadRepo) FindByID(_ context.Context, id string) (*domain.Lead, error) {
	l, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	clone := *l
	return &clone, nil
}

func matchesScope(l *domain.Lead, ownerIDs []string, includeUnassigned bool) bool {
	if ownerIDs == nil {
		return true
	}
	if !l.Assigned() {
		return includeUnassigned
	}
	for _, id := range ownerIDs {
		if l.AssignedTo == id {
			return true
		}
	}
	return false
}

func matchesDateFilter(l *domain.Lead, filter string, now time.Time) bool {
	switch filter {
	case "today":
		return domain.IsToday(l.NextTaskDate, now)
	case "overdue":
		return domain.IsOverdue(l.NextTaskDate, now)
	case "thisWeek":
		return domain.IsThisWeek(l.NextTaskDate, now)
	case "thisMonth":
		return domain.IsThisMonth(l.NextTaskDate, now)
	default:
		return true
	}
}

func (r *stubLeadRepo) List(_ context.Context, f ports.ListLeadsFilter) ([]*domain.Lead, int64, *ports.LeadStats, map[string]int64, error) {
	stats := &ports.LeadStats{}
	statusCounts := make(map[string]int64)

	var matched []*domain.Lead
	for _, l := range r.byID {
		if !matchesScope(l, f.OwnerIDs, f.IncludeUnassigned) {
			continue
		}

		// stats and status counts cover the whole scope, not the page filters
		stats.Total++
		if l.HotLead {
			stats.HotLeads++
		}
		if l.Assigned() {
			stats.Assigned++
		} else {
			stats.Unassigned++
		}
		statusCounts[string(l.Status)]++

		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(l.Name), q) &&
				!strings.Contains(strings.ToLower(l.Email), q) &&
				!strings.Contains(l.Phone, f.Search) {
				continue
			}
		}
		if f.Status != "" && string(l.Status) != f.Status {
			continue
		}
		if f.HotLead != nil && l.HotLead != *f.HotLead {
			continue
		}
		if !matchesDateFilter(l, f.DateFilter, f.Now) {
			continue
		}
		if !f.FromDate.IsZero() && l.LeadDated.Before(f.FromDate) {
			continue
		}
		if !f.ToDate.IsZero() && l.LeadDated.After(f.ToDate) {
			continue
		}
		clone := *l
		matched = append(matched, &clone)
	}

	total := int64(len(matched))
	limit := f.Limit
	if limit <= 0 {
		limit = len(matched)
	}
	skip := (f.Page - 1) * limit
	if skip < 0 {
		skip = 0
	}
	if skip > len(matched) {
		return []*domain.Lead{}, total, stats, statusCounts, nil
	}
	end := skip + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, stats, statusCounts, nil
}

func (r *stubLeadRepo) Update(_ context.Context, l *domain.Lead) error {
	if _, ok := r.byID[l.ID]; !ok {
		return domain.ErrLeadNotFound
	}
	clone := *l
	r.byID[l.ID] = &clone
	return nil
}

func (r *stubLeadRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrLeadNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubLeadRepo) AppendFollowUp(_ context.Context, id string, remark string, nextTaskDate time.Time, at time.Time) error {
	l, ok := r.byID[id]
	if !ok {
		return domain.ErrLeadNotFound
	}
	l.Interactions = append(l.Interactions, domain.Interaction{Remark: remark, Date: at})
	l.LastRemark = remark
	l.NextTaskDate = nextTaskDate
	l.UpdatedAt = at
	return nil
}

func (r *stubLeadRepo) SetAssignee(_ context.Context, id string, userID string) error {
	l, ok := r.byID[id]
	if !ok {
		return domain.ErrLeadNotFound
	}
	l.AssignedTo = userID
	return nil
}

func (r *stubLeadRepo) Search(_ context.Context, f ports.SearchLeadsFilter) ([]*domain.Lead, error) {
	var out []*domain.Lead
	for _, l := range r.byID {
		if !matchesScope(l, f.OwnerIDs, f.IncludeUnassigned) {
			continue
		}
		if f.Assigned != nil && l.Assigned() != *f.Assigned {
			continue
		}
		if f.Query != "" {
			q := strings.ToLower(f.Query)
			if !strings.Contains(strings.ToLower(l.Name), q) &&
				!strings.Contains(strings.ToLower(l.Email), q) &&
				!strings.Contains(l.Phone, f.Query) {
				continue
			}
		}
		clone := *l
		out = append(out, &clone)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// reports
// ---------------------------------------------------------------------------

type stubReportRepo struct {
	byID map[string]*domain.SalesReport
	seq  int
}

func newStubReportRepo() *stubReportRepo {
	return &stubReportRepo{byID: make(map[string]*domain.SalesReport)}
}

func (r *stubReportRepo) Create(_ context.Context, rep *domain.SalesReport) (*domain.SalesReport, error) {
	r.seq++
	clone := *rep
	clone.ID = fmt.Sprintf("report_%d", r.seq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubReportRepo) FindByID(_ context.Context, id string) (*domain.SalesReport, error) {
	rep, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	clone := *rep
	return &clone, nil
}

func (r *stubReportRepo) List(_ context.Context, f ports.ListReportsFilter) ([]*domain.SalesReport, error) {
	var out []*domain.SalesReport
	for _, rep := range r.byID {
		if f.UserIDs != nil {
			found := false
			for _, id := range f.UserIDs {
				if rep.UserID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if !f.FromDate.IsZero() && rep.Date.Before(f.FromDate) {
			continue
		}
		if !f.ToDate.IsZero() && !rep.Date.Before(f.ToDate) {
			continue
		}
		clone := *rep
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubReportRepo) Update(_ context.Context, rep *domain.SalesReport) error {
	if _, ok := r.byID[rep.ID]; !ok {
		return domain.ErrReportNotFound
	}
	clone := *rep
	r.byID[rep.ID] = &clone
	return nil
}

func (r *stubReportRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrReportNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubReportRepo) SetAddress(_ context.Context, id string, address string) error {
	rep, ok := r.byID[id]
	if !ok {
		return domain.ErrReportNotFound
	}
	rep.Address = address
	return nil
}

func (r *stubReportRepo) AppendFollowUp(_ context.Context, reportID, meetingID string, fu domain.FollowUp) error {
	rep, ok := r.byID[reportID]
	if !ok {
		return domain.ErrReportNotFound
	}
	for i := range rep.Meetings {
		if rep.Meetings[i].ID == meetingID {
			rep.Meetings[i].FollowUps = append(rep.Meetings[i].FollowUps, fu)
			return nil
		}
	}
	return domain.ErrReportNotFound
}

func (r *stubReportRepo) FindByFollowUpID(_ context.Context, followUpID string) (*domain.SalesReport, error) {
	for _, rep := range r.byID {
		for _, m := range rep.Meetings {
			for _, fu := range m.FollowUps {
				if fu.ID == followUpID {
					clone := *rep
					return &clone, nil
				}
			}
		}
	}
	return nil, domain.ErrFollowUpNotFound
}

func (r *stubReportRepo) UpdateFollowUp(_ context.Context, followUpID string, date time.Time, remark string) error {
	for _, rep := range r.byID {
		for i := range rep.Meetings {
			for j := range rep.Meetings[i].FollowUps {
				if rep.Meetings[i].FollowUps[j].ID == followUpID {
					rep.Meetings[i].FollowUps[j].Date = date
					rep.Meetings[i].FollowUps[j].Remark = remark
					return nil
				}
			}
		}
	}
	return domain.ErrFollowUpNotFound
}

func (r *stubReportRepo) DeleteFollowUp(_ context.Context, followUpID string) error {
	for _, rep := range r.byID {
		for i := range rep.Meetings {
			for j := range rep.Meetings[i].FollowUps {
				if rep.Meetings[i].FollowUps[j].ID == followUpID {
					fus := rep.Meetings[i].FollowUps
					rep.Meetings[i].FollowUps = append(fus[:j], fus[j+1:]...)
					return nil
				}
			}
		}
	}
	return domain.ErrFollowUpNotFound
}

func (r *stubReportRepo) CountsByUser(_ context.Context, todayStart, yesterdayStart time.Time) ([]ports.UserReportCounts, error) {
	byUser := make(map[string]*ports.UserReportCounts)
	for _, rep := range r.byID {
		c, ok := byUser[rep.UserID]
		if !ok {
			c = &ports.UserReportCounts{UserID: rep.UserID}
			byUser[rep.UserID] = c
		}
		c.Total++
		switch {
		case !rep.Date.Before(todayStart):
			c.Today++
		case !rep.Date.Before(yesterdayStart):
			c.Yesterday++
		}
	}
	out := make([]ports.UserReportCounts, 0, len(byUser))
	for _, c := range byUser {
		out = append(out, *c)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// geocode queue
// ---------------------------------------------------------------------------

type stubEnqueuer struct {
	jobs []ports.GeocodeJob
}

func (e *stubEnqueuer) Enqueue(job ports.GeocodeJob) {
	e.jobs = append(e.jobs, job)
}

// ---------------------------------------------------------------------------
// file store
// ---------------------------------------------------------------------------

type stubFileStore struct {
	saved   []string
	removed []string
}

func (f *stubFileStore) Save(filename, _ string, _ io.Reader) (string, error) {
	f.saved = append(f.saved, filename)
	return filename, nil
}

func (f *stubFileStore) Remove(path string) error {
	f.removed = append(f.removed, path)
	return nil
}
