package ports

import (
	"context"
	"time"

	"github.com/estateline/crm-api/internal/core/domain"
)

// ListReportsFilter narrows the report listing. UserIDs is set by the service
// from the caller's role; empty = no scoping (admin).
type ListReportsFilter struct {
	UserIDs  []string
	FromDate time.Time
	ToDate   time.Time
}

// UserReportCounts is one row of the activity aggregation.
type UserReportCounts struct {
	UserID    string
	Today     int64
	Yesterday int64
	Total     int64
}

// ReportRepository defines persistence operations for sales reports and their
// embedded follow-ups.
type ReportRepository interface {
	Create(ctx context.Context, r *domain.SalesReport) (*domain.SalesReport, error)
	FindByID(ctx context.Context, id string) (*domain.SalesReport, error)
	List(ctx context.Context, filter ListReportsFilter) ([]*domain.SalesReport, error)
	Update(ctx context.Context, r *domain.SalesReport) error
	Delete(ctx context.Context, id string) error
	// SetAddress stores the reverse-geocoded address resolved by the workers.
	SetAddress(ctx context.Context, id string, address string) error

	AppendFollowUp(ctx context.Context, reportID, meetingID string, fu domain.FollowUp) error
	// FindByFollowUpID locates the report containing the follow-up.
	FindByFollowUpID(ctx context.Context, followUpID string) (*domain.SalesReport, error)
	UpdateFollowUp(ctx context.Context, followUpID string, date time.Time, remark string) error
	DeleteFollowUp(ctx context.Context, followUpID string) error

	// CountsByUser aggregates report counts per user for the activity summary.
	CountsByUser(ctx context.Context, todayStart, yesterdayStart time.Time) ([]UserReportCounts, error)
}
