package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

const exportDateFormat = "2006-01-02"

// ExportService writes the admin .xlsx downloads: report exports over a date
// window and the manager-grouped activity summary.
type ExportService struct {
	reports ports.ReportService
	users   ports.UserRepository
	logger  zerolog.Logger
}

func NewExportService(reports ports.ReportService, users ports.UserRepository, logger zerolog.Logger) *ExportService {
	return &ExportService{reports: reports, users: users, logger: logger.With().Str("service", "export").Logger()}
}

// exportWindow resolves the predefined ranges. Custom from/to wins when set.
func exportWindow(input ports.ExportReportsInput, now time.Time) (time.Time, time.Time, error) {
	if !input.FromDate.IsZero() || !input.ToDate.IsZero() {
		from, to := input.FromDate, input.ToDate
		if to.IsZero() {
			to = now
		}
		if from.IsZero() {
			return time.Time{}, time.Time{}, fmt.Errorf("fromDate is required with toDate")
		}
		return from, to.AddDate(0, 0, 1), nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch input.Type {
	case "day":
		return today, today.AddDate(0, 0, 1), nil
	case "week":
		start := today.AddDate(0, 0, -int(today.Weekday()))
		return start, start.AddDate(0, 0, 7), nil
	case "month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown export type %q", input.Type)
	}
}

func (s *ExportService) WriteReports(ctx context.Context, w io.Writer, input ports.ExportReportsInput) error {
	from, to, err := exportWindow(input, time.Now())
	if err != nil {
		return err
	}

	admin := ports.Caller{Role: domain.RoleAdmin}
	reports, err := s.reports.ListReports(ctx, ports.ListReportsInput{Caller: admin, FromDate: from, ToDate: to})
	if err != nil {
		return err
	}

	names, err := s.userNames(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Reports"
	f.SetSheetName("Sheet1", sheet)

	header := []any{"Date", "Agent", "Address", "Meeting Type", "Name", "Phone", "Status", "Remark", "Follow Ups"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	rowNum := 2
	for _, r := range reports {
		for _, m := range r.Meetings {
			name, phone, status := meetingColumns(m)
			row := []any{
				r.Date.Format(exportDateFormat),
				names[r.UserID],
				r.Address,
				string(m.Type),
				name,
				phone,
				status,
				m.Remark,
				len(m.FollowUps),
			}
			cell := fmt.Sprintf("A%d", rowNum)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
			rowNum++
		}
	}

	s.logger.Info().Int("reports", len(reports)).Time("from", from).Time("to", to).Msg("report export written")
	return f.Write(w)
}

func meetingColumns(m domain.Meeting) (name, phone, status string) {
	switch {
	case m.Type == domain.MeetingBroker && m.Broker != nil:
		return m.Broker.FirmName, m.Broker.PhoneNumber, m.Broker.Status
	case m.Client != nil:
		return m.Client.ClientName, m.Client.PhoneLast5, m.Client.Status
	}
	return "", "", ""
}

func (s *ExportService) WriteSummary(ctx context.Context, w io.Writer) error {
	summary, err := s.reports.Summary(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Activity"
	f.SetSheetName("Sheet1", sheet)

	header := []any{"Manager", "Agent", "Reports Today", "Reports Yesterday", "Reports Total"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	rowNum := 2
	for _, group := range summary {
		for _, u := range group.Users {
			row := []any{group.ManagerName, u.Name, u.Today, u.Yesterday, u.Total}
			cell := fmt.Sprintf("A%d", rowNum)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
			rowNum++
		}
	}

	return f.Write(w)
}

func (s *ExportService) userNames(ctx context.Context) (map[string]string, error) {
	users, err := s.users.List(ctx, ports.ListUsersFilter{})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}
