package ports

import (
	"context"
	"time"

	"github.com/estateline/crm-api/internal/core/domain"
)

// MeetingInput is one meeting in a report submission. Exactly one of Broker
// and Client must be set, matching Type. VisitingCard is the stored file path
// produced by the upload layer before the service is called. On edit, ID
// identifies an existing meeting whose follow-up log must survive the edit;
// an empty ID means a new meeting.
type MeetingInput struct {
	ID           string
	Type         string
	Broker       *domain.BrokerDetails
	Client       *domain.ClientDetails
	Remark       string
	VisitingCard string
	FollowUps    []FollowUpStub
}

// FollowUpStub is a date+remark pair attached at creation time.
type FollowUpStub struct {
	Date   time.Time
	Remark string
}

// CreateReportInput carries a full report submission.
type CreateReportInput struct {
	Date     time.Time
	Location domain.Coordinates
	Meetings []MeetingInput
}

// EditReportInput re-submits the full meetings array. Meetings keeping their
// visiting card pass the stored path through unchanged.
type EditReportInput struct {
	ID       string
	Date     time.Time
	Meetings []MeetingInput
}

// ListReportsInput carries the role-aware listing filters: UserID for
// admin/manager, ManagerID for admin only.
type ListReportsInput struct {
	Caller    Caller
	FromDate  time.Time
	ToDate    time.Time
	UserID    string
	ManagerID string
}

// ReportFollowUpInput adds one follow-up to a meeting of an existing report.
type ReportFollowUpInput struct {
	ReportID  string
	MeetingID string
	Date      time.Time
	Remark    string
}

// TodayFollowUpItem is one entry in the notification view.
type TodayFollowUpItem struct {
	ReportID    string                `json:"report_id"`
	MeetingID   string                `json:"meeting_id"`
	MeetingName string                `json:"meeting_name"`
	FollowUpID  string                `json:"follow_up_id"`
	Date        time.Time             `json:"date"`
	Remark      string                `json:"remark"`
	Bucket      domain.FollowUpBucket `json:"bucket"`
}

// MeetingFollowUps is the per-meeting detail view for one report.
type MeetingFollowUps struct {
	MeetingID   string            `json:"meeting_id"`
	MeetingType string            `json:"meeting_type"`
	MeetingName string            `json:"meeting_name"`
	FollowUps   []domain.FollowUp `json:"follow_ups"`
}

// UserActivity is one agent row in the manager-grouped summary.
type UserActivity struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Today     int64  `json:"today"`
	Yesterday int64  `json:"yesterday"`
	Total     int64  `json:"total"`
}

// ManagerActivity groups agent activity under one manager.
type ManagerActivity struct {
	ManagerID   string         `json:"manager_id"`
	ManagerName string         `json:"manager_name"`
	Users       []UserActivity `json:"users"`
}

// ReportService defines use-case operations over sales reports.
// Admins read, export and summarise; only owners and their managers mutate.
type ReportService interface {
	CreateReport(ctx context.Context, caller Caller, input CreateReportInput) (*domain.SalesReport, error)
	ListReports(ctx context.Context, input ListReportsInput) ([]*domain.SalesReport, error)
	EditReport(ctx context.Context, caller Caller, input EditReportInput) (*domain.SalesReport, error)
	DeleteReport(ctx context.Context, caller Caller, id string) error

	AddFollowUp(ctx context.Context, caller Caller, input ReportFollowUpInput) (*domain.FollowUp, error)
	EditFollowUp(ctx context.Context, caller Caller, followUpID string, date time.Time, remark string) error
	DeleteFollowUp(ctx context.Context, caller Caller, followUpID string) error

	// AllFollowUps returns the global per-meeting follow-up map.
	AllFollowUps(ctx context.Context, caller Caller) (map[string][]domain.FollowUp, error)
	// TodayFollowUps returns the notification list for the current day.
	TodayFollowUps(ctx context.Context, caller Caller) ([]TodayFollowUpItem, error)
	// ReportFollowUps returns the on-demand detail view for one report.
	ReportFollowUps(ctx context.Context, caller Caller, reportID string) ([]MeetingFollowUps, error)

	Summary(ctx context.Context) ([]ManagerActivity, error)
}
