package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

// ImportService turns an uploaded .xlsx workbook into leads. Rows are
// validated individually: a bad row is reported and skipped, it never aborts
// the rest of the file.
type ImportService struct {
	leads  ports.LeadRepository
	logger zerolog.Logger
}

func NewImportService(leads ports.LeadRepository, logger zerolog.Logger) *ImportService {
	return &ImportService{leads: leads, logger: logger.With().Str("service", "import").Logger()}
}

// Expected header columns, matched case-insensitively. Unknown columns are
// ignored so exports from other tools keep working.
var leadColumns = map[string]string{
	"name":      "name",
	"phone":     "phone",
	"email":     "email",
	"source":    "source",
	"lead date": "lead_dated",
	"leaddated": "lead_dated",
	"status":    "status",
	"hot lead":  "hot_lead",
	"budget":    "budget",
	"location":  "location",
}

func (s *ImportService) ImportLeads(ctx context.Context, r io.Reader) (*ports.ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook has no data rows")
	}

	// map column index -> field name from the header row
	fields := make(map[int]string)
	for i, h := range rows[0] {
		if field, ok := leadColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			fields[i] = field
		}
	}

	result := &ports.ImportResult{}
	now := time.Now().UTC()
	var batch []*domain.Lead

	for rowIdx, row := range rows[1:] {
		rowNum := rowIdx + 2 // 1-based, after header
		lead, err := parseLeadRow(row, fields, now)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ports.RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		batch = append(batch, lead)
	}

	if len(batch) > 0 {
		inserted, err := s.leads.CreateMany(ctx, batch)
		if err != nil {
			return nil, err
		}
		result.Imported = inserted
	}

	s.logger.Info().Int("imported", result.Imported).Int("failed", result.Failed).Msg("lead import finished")
	return result, nil
}

func parseLeadRow(row []string, fields map[int]string, now time.Time) (*domain.Lead, error) {
	lead := &domain.Lead{
		Status:       domain.StatusNew,
		Interactions: []domain.Interaction{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for i, value := range row {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch fields[i] {
		case "name":
			lead.Name = value
		case "phone":
			lead.Phone = value
		case "email":
			lead.Email = value
		case "source":
			lead.Source = value
		case "lead_dated":
			d, err := parseCellDate(value)
			if err != nil {
				return nil, fmt.Errorf("lead date: %v", err)
			}
			lead.LeadDated = d
		case "status":
			status := domain.LeadStatus(value)
			if !domain.ValidLeadStatus(status) {
				return nil, fmt.Errorf("unknown status %q", value)
			}
			lead.Status = status
		case "hot_lead":
			lead.HotLead = parseHotLead(value)
		case "budget":
			lead.Budget = value
		case "location":
			lead.Location = value
		}
	}

	if lead.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if lead.Phone == "" {
		return nil, fmt.Errorf("phone is required")
	}
	if lead.LeadDated.IsZero() {
		lead.LeadDated = now
	}
	return lead, nil
}

var cellDateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

// parseCellDate handles both textual dates and Excel serial numbers.
func parseCellDate(value string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return parsed.UTC(), nil
		}
	}
	for _, layout := range cellDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

func parseHotLead(value string) bool {
	switch strings.ToLower(value) {
	case "yes", "true", "1", "y":
		return true
	default:
		return false
	}
}
