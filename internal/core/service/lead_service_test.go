package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

func seedHierarchy(users *stubUserRepo) (admin, manager, agent, outsider ports.Caller) {
	users.seed(domain.User{ID: "admin_1", Name: "Root", Email: "root@example.com", Role: domain.RoleAdmin})
	users.seed(domain.User{ID: "mgr_1", Name: "Meera", Email: "meera@example.com", Role: domain.RoleManager})
	users.seed(domain.User{ID: "agent_1", Name: "Arun", Email: "arun@example.com", Role: domain.RoleUser, ManagerID: "mgr_1"})
	users.seed(domain.User{ID: "agent_2", Name: "Divya", Email: "divya@example.com", Role: domain.RoleUser, ManagerID: "mgr_2"})
	admin = ports.Caller{UserID: "admin_1", Role: domain.RoleAdmin}
	manager = ports.Caller{UserID: "mgr_1", Role: domain.RoleManager}
	agent = ports.Caller{UserID: "agent_1", Role: domain.RoleUser}
	outsider = ports.Caller{UserID: "agent_2", Role: domain.RoleUser}
	return
}

func TestLeadService_Create_DefaultsToNew(t *testing.T) {
	svc := NewLeadService(newStubLeadRepo(), newStubUserRepo(), discardLogger)

	lead, err := svc.CreateLead(context.Background(), ports.CreateLeadInput{
		Name:  "Ravi Kumar",
		Phone: "9876543210",
		Email: "ravi@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Status != domain.StatusNew {
		t.Errorf("expected status %q, got %q", domain.StatusNew, lead.Status)
	}
	if lead.Assigned() {
		t.Error("new lead must be unassigned")
	}
	if lead.Interactions == nil || len(lead.Interactions) != 0 {
		t.Error("new lead must start with an empty interaction history")
	}
}

func TestLeadService_Create_RejectsUnknownStatus(t *testing.T) {
	svc := NewLeadService(newStubLeadRepo(), newStubUserRepo(), discardLogger)

	_, err := svc.CreateLead(context.Background(), ports.CreateLeadInput{
		Name: "X", Phone: "1", Status: "Lukewarm",
	})
	if err != domain.ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestLeadService_List_HotLeadFilterMatchesStats(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	admin, _, _, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	for i := 0; i < 50; i++ {
		leads.Create(context.Background(), &domain.Lead{
			Name:    fmt.Sprintf("Lead %d", i),
			Phone:   fmt.Sprintf("90000000%02d", i),
			Status:  domain.StatusNew,
			HotLead: i < 10,
		})
	}

	hot := true
	result, err := svc.ListLeads(context.Background(), ports.ListLeadsInput{
		Caller: admin, HotLead: &hot, Limit: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Leads) != 10 {
		t.Errorf("expected 10 hot leads, got %d", len(result.Leads))
	}
	if result.Stats.HotLeads != 10 {
		t.Errorf("stats.hot_leads = %d, want 10", result.Stats.HotLeads)
	}
	if result.Stats.Total != 50 {
		t.Errorf("stats.total = %d, want 50", result.Stats.Total)
	}
	if result.StatusCounts[string(domain.StatusNew)] != 50 {
		t.Errorf("statusCounts[New] = %d, want 50", result.StatusCounts[string(domain.StatusNew)])
	}
}

func TestLeadService_List_DateFilterWindows(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	admin, _, _, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	now := time.Now()
	seed := func(name string, next time.Time) {
		leads.Create(context.Background(), &domain.Lead{
			Name: name, Phone: name, Status: domain.StatusNew, NextTaskDate: next,
		})
	}
	seed("due-now", now)
	// forty days back is always a previous month, so it only shows as overdue
	seed("long-overdue", now.AddDate(0, 0, -40))
	seed("far-future", now.AddDate(0, 2, 0))
	seed("unscheduled", time.Time{})

	cases := []struct {
		filter string
		want   []string
	}{
		{"today", []string{"due-now"}},
		{"overdue", []string{"long-overdue"}},
		{"thisWeek", []string{"due-now"}},
		{"thisMonth", []string{"due-now"}},
		{"", []string{"due-now", "far-future", "long-overdue", "unscheduled"}},
	}
	for _, tc := range cases {
		result, err := svc.ListLeads(context.Background(), ports.ListLeadsInput{
			Caller: admin, DateFilter: tc.filter, Limit: 100,
		})
		if err != nil {
			t.Fatalf("filter %q: unexpected error: %v", tc.filter, err)
		}
		var got []string
		for _, l := range result.Leads {
			got = append(got, l.Name)
		}
		sort.Strings(got)
		if len(got) != len(tc.want) {
			t.Errorf("filter %q: got %v, want %v", tc.filter, got, tc.want)
			continue
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("filter %q: got %v, want %v", tc.filter, got, tc.want)
				break
			}
		}
	}
}

func TestLeadService_List_ScopesAgentToOwnLeads(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	_, _, agent, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	leads.Create(context.Background(), &domain.Lead{Name: "Mine", Phone: "1", Status: domain.StatusNew, AssignedTo: "agent_1"})
	leads.Create(context.Background(), &domain.Lead{Name: "Theirs", Phone: "2", Status: domain.StatusNew, AssignedTo: "agent_2"})
	leads.Create(context.Background(), &domain.Lead{Name: "Pool", Phone: "3", Status: domain.StatusNew})

	result, err := svc.ListLeads(context.Background(), ports.ListLeadsInput{Caller: agent, Limit: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Leads) != 1 || result.Leads[0].Name != "Mine" {
		t.Fatalf("agent scope broken: %+v", result.Leads)
	}
}

func TestLeadService_List_ManagerSeesTeamAndPool(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	_, manager, _, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	leads.Create(context.Background(), &domain.Lead{Name: "Team", Phone: "1", Status: domain.StatusNew, AssignedTo: "agent_1"})
	leads.Create(context.Background(), &domain.Lead{Name: "Other", Phone: "2", Status: domain.StatusNew, AssignedTo: "agent_2"})
	leads.Create(context.Background(), &domain.Lead{Name: "Pool", Phone: "3", Status: domain.StatusNew})

	result, err := svc.ListLeads(context.Background(), ports.ListLeadsInput{Caller: manager, Limit: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Leads) != 2 {
		t.Fatalf("expected team lead + pool lead, got %d", len(result.Leads))
	}
}

func TestLeadService_Assign_Batch(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	admin, _, _, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	var ids []string
	for i := 0; i < 3; i++ {
		l, _ := leads.Create(context.Background(), &domain.Lead{Name: fmt.Sprintf("L%d", i), Phone: "1", Status: domain.StatusNew})
		ids = append(ids, l.ID)
	}

	result, err := svc.Assign(context.Background(), admin, ids, "agent_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Assigned != 3 || result.Failed != 0 {
		t.Fatalf("expected 3 assigned, got %+v", result)
	}
	for _, id := range ids {
		l, _ := leads.FindByID(context.Background(), id)
		if l.AssignedTo != "agent_1" {
			t.Errorf("lead %s not assigned: %q", id, l.AssignedTo)
		}
	}
}

func TestLeadService_Assign_Idempotent(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	admin, _, _, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	l, _ := leads.Create(context.Background(), &domain.Lead{Name: "L", Phone: "1", Status: domain.StatusNew})

	for i := 0; i < 3; i++ {
		if _, err := svc.Assign(context.Background(), admin, []string{l.ID}, "agent_1"); err != nil {
			t.Fatalf("assignment %d failed: %v", i, err)
		}
	}
	got, _ := leads.FindByID(context.Background(), l.ID)
	if got.AssignedTo != "agent_1" {
		t.Fatalf("expected agent_1, got %q", got.AssignedTo)
	}
}

func TestLeadService_Assign_PartialFailure(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	admin, _, _, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	l, _ := leads.Create(context.Background(), &domain.Lead{Name: "L", Phone: "1", Status: domain.StatusNew})

	result, err := svc.Assign(context.Background(), admin, []string{l.ID, "missing"}, "agent_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Assigned != 1 || result.Failed != 1 {
		t.Fatalf("expected 1/1, got %+v", result)
	}
	if result.Items[1].OK || result.Items[1].Error == "" {
		t.Fatalf("missing lead must carry a per-item error: %+v", result.Items[1])
	}
	// the successful item stays applied
	got, _ := leads.FindByID(context.Background(), l.ID)
	if got.AssignedTo != "agent_1" {
		t.Error("partial failure must not roll back successful items")
	}
}

func TestLeadService_Assign_RejectsAdminTarget(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	admin, _, _, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	if _, err := svc.Assign(context.Background(), admin, []string{"x"}, "admin_1"); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLeadService_Assign_ManagerOutsideTeamForbidden(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	_, manager, _, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	if _, err := svc.Assign(context.Background(), manager, []string{"x"}, "agent_2"); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLeadService_Unassign(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	admin, _, agent, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	l, _ := leads.Create(context.Background(), &domain.Lead{Name: "L", Phone: "1", Status: domain.StatusNew, AssignedTo: "agent_1"})

	if _, err := svc.Unassign(context.Background(), agent, []string{l.ID}); err != domain.ErrForbidden {
		t.Fatalf("agent unassign must be forbidden, got %v", err)
	}

	result, err := svc.Unassign(context.Background(), admin, []string{l.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Assigned != 1 {
		t.Fatalf("expected 1 processed, got %+v", result)
	}
	got, _ := leads.FindByID(context.Background(), l.ID)
	if got.Assigned() {
		t.Error("lead must be unassigned")
	}
}

func TestLeadService_AddFollowUp_AppendsAndDenormalises(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	_, _, agent, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	l, _ := leads.Create(context.Background(), &domain.Lead{
		Name: "L", Phone: "1", Status: domain.StatusFollowUp, AssignedTo: "agent_1",
		Interactions: []domain.Interaction{{Remark: "first call", Date: time.Now().AddDate(0, 0, -2)}},
		LastRemark:   "first call",
	})

	next := time.Now().AddDate(0, 0, 3).UTC()
	updated, err := svc.AddFollowUp(context.Background(), agent, ports.FollowUpInput{
		LeadID: l.ID, Remark: "site visit agreed", NextTaskDate: next,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Interactions) != 2 {
		t.Fatalf("expected 2 interactions, got %d", len(updated.Interactions))
	}
	if updated.LastRemark != "site visit agreed" {
		t.Errorf("last remark not denormalised: %q", updated.LastRemark)
	}
	if !updated.NextTaskDate.Equal(next) {
		t.Errorf("next task date not updated: %v", updated.NextTaskDate)
	}
}

func TestLeadService_AddFollowUp_ForbiddenForOtherAgent(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	_, _, _, outsider := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	l, _ := leads.Create(context.Background(), &domain.Lead{Name: "L", Phone: "1", Status: domain.StatusNew, AssignedTo: "agent_1"})

	_, err := svc.AddFollowUp(context.Background(), outsider, ports.FollowUpInput{LeadID: l.ID, Remark: "x"})
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLeadService_Edit_ValidatesStatus(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	admin, _, _, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	l, _ := leads.Create(context.Background(), &domain.Lead{Name: "L", Phone: "1", Status: domain.StatusNew})

	_, err := svc.EditLead(context.Background(), admin, ports.EditLeadInput{ID: l.ID, Name: "L", Phone: "1", Status: "Bogus"})
	if err != domain.ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestLeadService_Delete(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	admin, _, _, outsider := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	l, _ := leads.Create(context.Background(), &domain.Lead{Name: "L", Phone: "1", Status: domain.StatusNew, AssignedTo: "agent_1"})

	if err := svc.DeleteLead(context.Background(), outsider, l.ID); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteLead(context.Background(), admin, l.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := leads.FindByID(context.Background(), l.ID); err != domain.ErrLeadNotFound {
		t.Fatal("lead must be gone")
	}
}

func TestLeadService_Search_AssignedFilter(t *testing.T) {
	leads := newStubLeadRepo()
	users := newStubUserRepo()
	admin, _, _, _ := seedHierarchy(users)
	svc := NewLeadService(leads, users, discardLogger)

	leads.Create(context.Background(), &domain.Lead{Name: "Pool Lead", Phone: "1", Status: domain.StatusNew})
	leads.Create(context.Background(), &domain.Lead{Name: "Owned Lead", Phone: "2", Status: domain.StatusNew, AssignedTo: "agent_1"})

	unassigned := false
	got, err := svc.Search(context.Background(), ports.SearchLeadsInput{Caller: admin, Query: "lead", Assigned: &unassigned})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Pool Lead" {
		t.Fatalf("unassigned search broken: %+v", got)
	}

	assigned := true
	got, err = svc.Search(context.Background(), ports.SearchLeadsInput{Caller: admin, Query: "lead", Assigned: &assigned})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Owned Lead" {
		t.Fatalf("assigned search broken: %+v", got)
	}
}
