package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"

	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

// ReportService implements the sales-visit report use cases. Admins read,
// export and summarise; mutations are reserved to the owner and the owner's
// manager.
type ReportService struct {
	reports ports.ReportRepository
	users   ports.UserRepository
	geo     ports.GeocodeEnqueuer
	files   ports.FileStore
	logger  zerolog.Logger
}

func NewReportService(reports ports.ReportRepository, users ports.UserRepository, geo ports.GeocodeEnqueuer, files ports.FileStore, logger zerolog.Logger) *ReportService {
	return &ReportService{reports: reports, users: users, geo: geo, files: files, logger: logger}
}

// newID returns a random 24-hex-char identifier for embedded documents.
func newID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format("150405.000000")))
	}
	return hex.EncodeToString(b)
}

func followUpsFromStubs(stubs []ports.FollowUpStub) []domain.FollowUp {
	fus := make([]domain.FollowUp, 0, len(stubs))
	for _, stub := range stubs {
		if stub.Remark == "" && stub.Date.IsZero() {
			continue // the form always carries one empty stub
		}
		fus = append(fus, domain.FollowUp{
			ID:     newID(),
			Date:   stub.Date,
			Remark: stub.Remark,
		})
	}
	return fus
}

func buildMeetings(inputs []ports.MeetingInput) ([]domain.Meeting, error) {
	meetings := make([]domain.Meeting, 0, len(inputs))
	for _, in := range inputs {
		m := domain.Meeting{
			ID:           newID(),
			Type:         domain.MeetingType(in.Type),
			Broker:       in.Broker,
			Client:       in.Client,
			Remark:       in.Remark,
			VisitingCard: in.VisitingCard,
			FollowUps:    followUpsFromStubs(in.FollowUps),
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, nil
}

// mergeMeetings rebuilds the meetings array from an edit submission. An input
// carrying the ID of a stored meeting keeps that ID and its follow-up log;
// only the payload fields are replaced. Inputs without a matching ID are new
// meetings.
func mergeMeetings(existing []domain.Meeting, inputs []ports.MeetingInput) ([]domain.Meeting, error) {
	byID := make(map[string]domain.Meeting, len(existing))
	for _, m := range existing {
		byID[m.ID] = m
	}

	meetings := make([]domain.Meeting, 0, len(inputs))
	for _, in := range inputs {
		m := domain.Meeting{
			ID:           in.ID,
			Type:         domain.MeetingType(in.Type),
			Broker:       in.Broker,
			Client:       in.Client,
			Remark:       in.Remark,
			VisitingCard: in.VisitingCard,
		}
		if prev, kept := byID[in.ID]; in.ID != "" && kept {
			m.FollowUps = prev.FollowUps
		} else {
			m.ID = newID()
			m.FollowUps = followUpsFromStubs(in.FollowUps)
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, nil
}

func (s *ReportService) CreateReport(ctx context.Context, caller ports.Caller, input ports.CreateReportInput) (*domain.SalesReport, error) {
	if caller.Role == domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if input.Location.Latitude == 0 && input.Location.Longitude == 0 {
		return nil, domain.ErrLocationRequired
	}
	if len(input.Meetings) == 0 {
		return nil, domain.ErrInvalidMeetingType
	}

	meetings, err := buildMeetings(input.Meetings)
	if err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	now := time.Now().UTC()
	report := &domain.SalesReport{
		Date:      date,
		UserID:    caller.UserID,
		Location:  input.Location,
		Meetings:  meetings,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.reports.Create(ctx, report)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create report")
		return nil, err
	}

	// address resolution happens off the request path
	s.geo.Enqueue(ports.GeocodeJob{ReportID: created.ID, Location: created.Location})

	s.logger.Info().Str("report_id", created.ID).Str("user_id", caller.UserID).Int("meetings", len(meetings)).Msg("report created")
	return created, nil
}

func (s *ReportService) userScope(ctx context.Context, caller ports.Caller) ([]string, error) {
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

func inScope(scope []string, userID string) bool {
	if scope == nil {
		return true
	}
	for _, id := range scope {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *ReportService) ListReports(ctx context.Context, input ports.ListReportsInput) ([]*domain.SalesReport, error) {
	scope, err := s.userScope(ctx, input.Caller)
	if err != nil {
		return nil, err
	}

	switch {
	case input.ManagerID != "" && input.Caller.Role == domain.RoleAdmin:
		team, err := s.users.TeamMemberIDs(ctx, input.ManagerID)
		if err != nil {
			return nil, err
		}
		scope = append(team, input.ManagerID)
	case input.UserID != "":
		if !inScope(scope, input.UserID) {
			return nil, domain.ErrForbidden
		}
		scope = []string{input.UserID}
	}

	return s.reports.List(ctx, ports.ListReportsFilter{
		UserIDs:  scope,
		FromDate: input.FromDate,
		ToDate:   input.ToDate,
	})
}

// canMutate reports whether the caller may edit or delete the report: the
// owner, or the manager the owner reports to. Admins are read-only here.
func (s *ReportService) canMutate(ctx context.Context, caller ports.Caller, report *domain.SalesReport) (bool, error) {
	switch caller.Role {
	case domain.RoleUser:
		return report.UserID == caller.UserID, nil
	case domain.RoleManager:
		if report.UserID == caller.UserID {
			return true, nil
		}
		owner, err := s.users.FindByID(ctx, report.UserID)
		if err != nil {
			return false, err
		}
		return owner.ManagerID == caller.UserID, nil
	default:
		return false, nil
	}
}

func (s *ReportService) EditReport(ctx context.Context, caller ports.Caller, input ports.EditReportInput) (*domain.SalesReport, error) {
	report, err := s.reports.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	ok, err := s.canMutate(ctx, caller, report)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	meetings, err := mergeMeetings(report.Meetings, input.Meetings)
	if err != nil {
		return nil, err
	}
	orphaned := orphanedCards(report.Meetings, meetings)

	if !input.Date.IsZero() {
		report.Date = input.Date
	}
	report.Meetings = meetings
	report.UpdatedAt = time.Now().UTC()

	if err := s.reports.Update(ctx, report); err != nil {
		return nil, err
	}
	s.removeCards(orphaned)
	return report, nil
}

// orphanedCards lists stored card paths no longer referenced after an edit.
func orphanedCards(before, after []domain.Meeting) []string {
	kept := make(map[string]bool, len(after))
	for _, m := range after {
		kept[m.VisitingCard] = true
	}
	var paths []string
	for _, m := range before {
		if m.VisitingCard != "" && !kept[m.VisitingCard] {
			paths = append(paths, m.VisitingCard)
		}
	}
	return paths
}

func (s *ReportService) removeCards(paths []string) {
	for _, p := range paths {
		if err := s.files.Remove(p); err != nil {
			s.logger.Warn().Err(err).Str("path", p).Msg("visiting card cleanup failed")
		}
	}
}

func (s *ReportService) DeleteReport(ctx context.Context, caller ports.Caller, id string) error {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.canMutate(ctx, caller, report)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}

	if err := s.reports.Delete(ctx, id); err != nil {
		return err
	}
	var cards []string
	for _, m := range report.Meetings {
		if m.VisitingCard != "" {
			cards = append(cards, m.VisitingCard)
		}
	}
	s.removeCards(cards)
	s.logger.Info().Str("report_id", id).Str("by", caller.UserID).Msg("report deleted")
	return nil
}

func (s *ReportService) AddFollowUp(ctx context.Context, caller ports.Caller, input ports.ReportFollowUpInput) (*domain.FollowUp, error) {
	report, err := s.reports.FindByID(ctx, input.ReportID)
	if err != nil {
		return nil, err
	}

	ok, err := s.canMutate(ctx, caller, report)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	fu := domain.FollowUp{ID: newID(), Date: input.Date, Remark: input.Remark}
	if err := s.reports.AppendFollowUp(ctx, input.ReportID, input.MeetingID, fu); err != nil {
		return nil, err
	}
	return &fu, nil
}

func (s *ReportService) EditFollowUp(ctx context.Context, caller ports.Caller, followUpID string, date time.Time, remark string) error {
	report, err := s.reports.FindByFollowUpID(ctx, followUpID)
	if err != nil {
		return err
	}

	ok, err := s.canMutate(ctx, caller, report)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}

	return s.reports.UpdateFollowUp(ctx, followUpID, date, remark)
}

func (s *ReportService) DeleteFollowUp(ctx context.Context, caller ports.Caller, followUpID string) error {
	report, err := s.reports.FindByFollowUpID(ctx, followUpID)
	if err != nil {
		return err
	}

	ok, err := s.canMutate(ctx, caller, report)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}

	return s.reports.DeleteFollowUp(ctx, followUpID)
}

// meetingName is the display label for a meeting: firm for brokers, client
// name otherwise.
func meetingName(m domain.Meeting) string {
	if m.Type == domain.MeetingBroker && m.Broker != nil {
		return m.Broker.FirmName
	}
	if m.Client != nil {
		return m.Client.ClientName
	}
	return ""
}

func (s *ReportService) AllFollowUps(ctx context.Context, caller ports.Caller) (map[string][]domain.FollowUp, error) {
	scope, err := s.userScope(ctx, caller)
	if err != nil {
		return nil, err
	}

	reports, err := s.reports.List(ctx, ports.ListReportsFilter{UserIDs: scope})
	if err != nil {
		return nil, err
	}

	out := make(map[string][]domain.FollowUp)
	for _, r := range reports {
		for _, m := range r.Meetings {
			if len(m.FollowUps) > 0 {
				out[m.ID] = append(out[m.ID], m.FollowUps...)
			}
		}
	}
	return out, nil
}

func (s *ReportService) TodayFollowUps(ctx context.Context, caller ports.Caller) ([]ports.TodayFollowUpItem, error) {
	scope, err := s.userScope(ctx, caller)
	if err != nil {
		return nil, err
	}

	reports, err := s.reports.List(ctx, ports.ListReportsFilter{UserIDs: scope})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	items := []ports.TodayFollowUpItem{}
	for _, r := range reports {
		for _, m := range r.Meetings {
			for _, fu := range m.FollowUps {
				if !domain.IsToday(fu.Date, now) {
					continue
				}
				items = append(items, ports.TodayFollowUpItem{
					ReportID:    r.ID,
					MeetingID:   m.ID,
					MeetingName: meetingName(m),
					FollowUpID:  fu.ID,
					Date:        fu.Date,
					Remark:      fu.Remark,
					Bucket:      domain.BucketToday,
				})
			}
		}
	}
	return items, nil
}

func (s *ReportService) ReportFollowUps(ctx context.Context, caller ports.Caller, reportID string) ([]ports.MeetingFollowUps, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	scope, err := s.userScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !inScope(scope, report.UserID) {
		return nil, domain.ErrForbidden
	}

	out := make([]ports.MeetingFollowUps, 0, len(report.Meetings))
	for _, m := range report.Meetings {
		out = append(out, ports.MeetingFollowUps{
			MeetingID:   m.ID,
			MeetingType: string(m.Type),
			MeetingName: meetingName(m),
			FollowUps:   m.FollowUps,
		})
	}
	return out, nil
}

// Summary aggregates report activity per agent, grouped under each manager.
func (s *ReportService) Summary(ctx context.Context) ([]ports.ManagerActivity, error) {
	loc := time.Now().Location()
	now := time.Now().In(loc)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	yesterdayStart := todayStart.AddDate(0, 0, -1)

	counts, err := s.reports.CountsByUser(ctx, todayStart, yesterdayStart)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]ports.UserReportCounts, len(counts))
	for _, c := range counts {
		byUser[c.UserID] = c
	}

	users, err := s.users.List(ctx, ports.ListUsersFilter{})
	if err != nil {
		return nil, err
	}

	managers := make(map[string]*ports.ManagerActivity)
	order := []string{}
	for _, u := range users {
		if u.Role == domain.RoleManager {
			managers[u.ID] = &ports.ManagerActivity{ManagerID: u.ID, ManagerName: u.Name}
			order = append(order, u.ID)
		}
	}

	for _, u := range users {
		if u.Role != domain.RoleUser {
			continue
		}
		group, ok := managers[u.ManagerID]
		if !ok {
			continue
		}
		c := byUser[u.ID]
		group.Users = append(group.Users, ports.UserActivity{
			UserID:    u.ID,
			Name:      u.Name,
			Today:     c.Today,
			Yesterday: c.Yesterday,
			Total:     c.Total,
		})
	}

	out := make([]ports.ManagerActivity, 0, len(order))
	for _, id := range order {
		out = append(out, *managers[id])
	}
	return out, nil
}
