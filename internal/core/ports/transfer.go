package ports

import (
	"context"
	"io"
	"time"
)

// RowError describes one rejected spreadsheet row.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult is the explicit outcome of a bulk import: no message-string
// sniffing, counts and per-row errors are first class.
type ImportResult struct {
	Imported int        `json:"imported"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors,omitempty"`
}

// ImportService parses an .xlsx workbook into leads.
type ImportService interface {
	ImportLeads(ctx context.Context, r io.Reader) (*ImportResult, error)
}

// ExportReportsInput selects the export window: a predefined range by Type
// ("day", "week", "month") or a custom FromDate/ToDate pair.
type ExportReportsInput struct {
	Type     string
	FromDate time.Time
	ToDate   time.Time
}

// ExportService writes .xlsx workbooks for the admin download endpoints.
type ExportService interface {
	WriteReports(ctx context.Context, w io.Writer, input ExportReportsInput) error
	WriteSummary(ctx context.Context, w io.Writer) error
}
