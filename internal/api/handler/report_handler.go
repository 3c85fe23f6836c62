package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/estateline/crm-api/internal/api/metrics"
	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles the sales-visit report endpoints under /api/report.
type ReportHandler struct {
	reportService ports.ReportService
	exportService ports.ExportService
	store         ports.FileStore
}

func NewReportHandler(reportService ports.ReportService, exportService ports.ExportService, store ports.FileStore) *ReportHandler {
	return &ReportHandler{reportService: reportService, exportService: exportService, store: store}
}

// Create handles POST /api/report/create. The body is multipart: a date,
// the geolocation fix, a "meetings" JSON field and one visiting-card file
// per meeting (parts visiting_card_0, visiting_card_1, …).
//
// @Summary      Submit a sales-visit report
// @Tags         reports
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        date       formData  string  false  "Visit date (YYYY-MM-DD), defaults to today"
// @Param        latitude   formData  number  true   "Latitude of the visit"
// @Param        longitude  formData  number  true   "Longitude of the visit"
// @Param        meetings   formData  string  true   "JSON array of meetings"
// @Success      201        {object}  domain.SalesReport
// @Failure      400        {object}  map[string]string
// @Failure      403        {object}  map[string]string
// @Failure      422        {object}  map[string]string
// @Router       /api/report/create [post]
func (h *ReportHandler) Create(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	location, err := parseLocation(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	date, err := parseDate(c.FormValue("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	meetings, err := parseReportForm(c, h.store)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	report, err := h.reportService.CreateReport(c.Request().Context(), caller, ports.CreateReportInput{
		Date:     date,
		Location: location,
		Meetings: meetings,
	})
	if err != nil {
		return err
	}

	metrics.ReportsCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, report)
}

// List handles GET /api/report/get. Admins may narrow by userId or managerId;
// managers see their team, agents only themselves.
//
// @Summary      List sales reports in scope
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        fromDate   query     string  false  "Range start (YYYY-MM-DD)"
// @Param        toDate     query     string  false  "Range end (YYYY-MM-DD)"
// @Param        userId     query     string  false  "Filter by agent"
// @Param        managerId  query     string  false  "Filter by manager's team (admin only)"
// @Success      200        {array}   domain.SalesReport
// @Failure      403        {object}  map[string]string
// @Router       /api/report/get [get]
func (h *ReportHandler) List(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	input := ports.ListReportsInput{
		Caller:    caller,
		UserID:    c.QueryParam("userId"),
		ManagerID: c.QueryParam("managerId"),
	}
	if input.FromDate, err = parseDate(c.QueryParam("fromDate")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if input.ToDate, err = parseDate(c.QueryParam("toDate")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !input.ToDate.IsZero() {
		// make the end date inclusive
		input.ToDate = input.ToDate.AddDate(0, 0, 1)
	}

	reports, err := h.reportService.ListReports(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

// Edit handles PUT /api/report/:id, re-submitting the full meetings array.
//
// @Summary      Edit a sales report
// @Tags         reports
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string  true   "Report ID"
// @Param        date      formData  string  false  "Visit date (YYYY-MM-DD)"
// @Param        meetings  formData  string  true   "JSON array of meetings"
// @Success      200       {object}  domain.SalesReport
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Failure      422       {object}  map[string]string
// @Router       /api/report/{id} [put]
func (h *ReportHandler) Edit(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	date, err := parseDate(c.FormValue("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	meetings, err := parseReportForm(c, h.store)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	report, err := h.reportService.EditReport(c.Request().Context(), caller, ports.EditReportInput{
		ID:       c.Param("id"),
		Date:     date,
		Meetings: meetings,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// Delete handles DELETE /api/report/:id.
//
// @Summary      Delete a sales report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Report ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/report/{id} [delete]
func (h *ReportHandler) Delete(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	if err := h.reportService.DeleteReport(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AllFollowUps handles GET /api/report/followups.
//
// @Summary      Follow-ups of every report in scope, keyed by meeting
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string][]domain.FollowUp
// @Router       /api/report/followups [get]
func (h *ReportHandler) AllFollowUps(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	followUps, err := h.reportService.AllFollowUps(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, followUps)
}

// TodayFollowUps handles GET /api/report/followups/today, the notification
// list.
//
// @Summary      Follow-ups due today
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  ports.TodayFollowUpItem
// @Router       /api/report/followups/today [get]
func (h *ReportHandler) TodayFollowUps(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	items, err := h.reportService.TodayFollowUps(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// ReportFollowUps handles GET /api/report/today/:reportId, the per-meeting
// detail view of one report.
//
// @Summary      Follow-ups of one report, grouped by meeting
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        reportId  path      string  true  "Report ID"
// @Success      200       {array}   ports.MeetingFollowUps
// @Failure      404       {object}  map[string]string
// @Router       /api/report/today/{reportId} [get]
func (h *ReportHandler) ReportFollowUps(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	groups, err := h.reportService.ReportFollowUps(c.Request().Context(), caller, c.Param("reportId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, groups)
}

// AddFollowUp handles POST /api/report/:reportId/follow-up.
//
// @Summary      Add a follow-up to a meeting
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reportId   path      string                 true  "Report ID"
// @Param        meetingId  query     string                 true  "Meeting ID within the report"
// @Param        body       body      reportFollowUpRequest  true  "Follow-up date and remark"
// @Success      201        {object}  domain.FollowUp
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Failure      422        {object}  map[string]string
// @Router       /api/report/{reportId}/follow-up [post]
func (h *ReportHandler) AddFollowUp(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req reportFollowUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	followUp, err := h.reportService.AddFollowUp(c.Request().Context(), caller, ports.ReportFollowUpInput{
		ReportID:  c.Param("reportId"),
		MeetingID: c.QueryParam("meetingId"),
		Date:      date,
		Remark:    req.Remark,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, followUp)
}

// EditFollowUp handles PUT /api/report/follow-up/:id.
//
// @Summary      Edit a follow-up
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Follow-up ID"
// @Param        body  body      reportFollowUpRequest  true  "New date and remark"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/report/follow-up/{id} [put]
func (h *ReportHandler) EditFollowUp(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req reportFollowUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.reportService.EditFollowUp(c.Request().Context(), caller, c.Param("id"), date, req.Remark); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteFollowUp handles DELETE /api/report/follow-up/:id.
//
// @Summary      Delete a follow-up
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Follow-up ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/report/follow-up/{id} [delete]
func (h *ReportHandler) DeleteFollowUp(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	if err := h.reportService.DeleteFollowUp(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Export handles GET /api/report/export (admin only), streaming an .xlsx of
// reports in the selected window.
//
// @Summary      Export reports as a spreadsheet
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        type      query  string  false  "day, week or month"
// @Param        fromDate  query  string  false  "Custom range start (YYYY-MM-DD)"
// @Param        toDate    query  string  false  "Custom range end (YYYY-MM-DD)"
// @Success      200
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/report/export [get]
func (h *ReportHandler) Export(c echo.Context) error {
	input := ports.ExportReportsInput{Type: c.QueryParam("type")}
	var err error
	if input.FromDate, err = parseDate(c.QueryParam("fromDate")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if input.ToDate, err = parseDate(c.QueryParam("toDate")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentType, xlsxMIME)
	c.Response().Header().Set(echo.HeaderContentDisposition,
		exportFilename("reports", time.Now().Format("2006-01-02")))

	if err := h.exportService.WriteReports(c.Request().Context(), c.Response(), input); err != nil {
		return err
	}

	metrics.ReportExportsTotal.WithLabelValues("reports").Inc()
	return nil
}

// Summary handles GET /api/report/summary (admin only): agent activity
// counters grouped under each manager.
//
// @Summary      Manager-grouped activity summary
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ports.ManagerActivity
// @Failure      403  {object}  map[string]string
// @Router       /api/report/summary [get]
func (h *ReportHandler) Summary(c echo.Context) error {
	summary, err := h.reportService.Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// DownloadSummary handles GET /api/report/download-summary (admin only),
// the spreadsheet form of Summary.
//
// @Summary      Download the activity summary as a spreadsheet
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200
// @Failure      403  {object}  map[string]string
// @Router       /api/report/download-summary [get]
func (h *ReportHandler) DownloadSummary(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, xlsxMIME)
	c.Response().Header().Set(echo.HeaderContentDisposition,
		exportFilename("activity-summary", time.Now().Format("2006-01-02")))

	if err := h.exportService.WriteSummary(c.Request().Context(), c.Response()); err != nil {
		return err
	}

	metrics.ReportExportsTotal.WithLabelValues("summary").Inc()
	return nil
}

func parseLocation(c echo.Context) (domain.Coordinates, error) {
	var loc domain.Coordinates
	var err error
	if raw := c.FormValue("latitude"); raw != "" {
		if loc.Latitude, err = strconv.ParseFloat(raw, 64); err != nil {
			return loc, err
		}
	}
	if raw := c.FormValue("longitude"); raw != "" {
		if loc.Longitude, err = strconv.ParseFloat(raw, 64); err != nil {
			return loc, err
		}
	}
	return loc, nil
}
