package handler

import (
	"fmt"
	"time"

	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

type leadRequest struct {
	Name      string `json:"name"      validate:"required"`
	Phone     string `json:"phone"     validate:"required"`
	Email     string `json:"email"     validate:"omitempty,email"`
	Source    string `json:"source"`
	LeadDated string `json:"leadDated" validate:"required"`
	Status    string `json:"status"`
	HotLead   bool   `json:"hotLead"`
	Budget    string `json:"budget"`
	Location  string `json:"location"`
}

type followUpRequest struct {
	Remark       string `json:"remark"       validate:"required"`
	NextTaskDate string `json:"nextTaskDate" validate:"required"`
}

type assignRequest struct {
	IDs    []string `json:"ids"    validate:"required,min=1"`
	UserID string   `json:"userId"`
}

type listLeadsQuery struct {
	Page       int    `query:"page"`
	Limit      int    `query:"limit"`
	Search     string `query:"search"`
	Status     string `query:"status"`
	HotLead    string `query:"hotLead"`
	DateFilter string `query:"dateFilter"`
	FromDate   string `query:"fromDate"`
	ToDate     string `query:"toDate"`
}

type listLeadsResponse struct {
	Clients      []*domain.Lead   `json:"clients"`
	TotalPages   int              `json:"totalPages"`
	Page         int              `json:"page"`
	Total        int64            `json:"total"`
	Stats        *ports.LeadStats `json:"stats"`
	StatusCounts map[string]int64 `json:"statusCounts"`
}

// parseDate accepts the two formats clients send: a bare date or RFC 3339.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}
