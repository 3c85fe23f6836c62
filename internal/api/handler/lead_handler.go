package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/estateline/crm-api/internal/api/metrics"
	"github.com/estateline/crm-api/internal/core/ports"
)

// LeadHandler handles the lead pipeline endpoints under /api/client.
type LeadHandler struct {
	leadService   ports.LeadService
	importService ports.ImportService
}

func NewLeadHandler(leadService ports.LeadService, importService ports.ImportService) *LeadHandler {
	return &LeadHandler{leadService: leadService, importService: importService}
}

// Create handles POST /api/client/create.
//
// @Summary      Create a lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      leadRequest  true  "Lead details"
// @Success      201   {object}  domain.Lead
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/client/create [post]
func (h *LeadHandler) Create(c echo.Context) error {
	var req leadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	leadDated, err := parseDate(req.LeadDated)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	lead, err := h.leadService.CreateLead(c.Request().Context(), ports.CreateLeadInput{
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Source:    req.Source,
		LeadDated: leadDated,
		Status:    req.Status,
		HotLead:   req.HotLead,
		Budget:    req.Budget,
		Location:  req.Location,
	})
	if err != nil {
		return err
	}

	metrics.LeadsCreatedTotal.WithLabelValues("manual").Inc()
	return c.JSON(http.StatusCreated, lead)
}

// List handles GET /api/client/get.
//
// @Summary      List leads with filters, pagination and scope-wide stats
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        page        query     int     false  "Page number (1-based)"
// @Param        limit       query     int     false  "Page size"
// @Param        search      query     string  false  "Name, phone or email substring"
// @Param        status      query     string  false  "Pipeline status"
// @Param        hotLead     query     bool    false  "Hot lead filter"
// @Param        dateFilter  query     string  false  "today, thisWeek or thisMonth"
// @Param        fromDate    query     string  false  "Custom range start (YYYY-MM-DD)"
// @Param        toDate      query     string  false  "Custom range end (YYYY-MM-DD)"
// @Success      200         {object}  listLeadsResponse
// @Failure      400         {object}  map[string]string
// @Router       /api/client/get [get]
func (h *LeadHandler) List(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var q listLeadsQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}

	input := ports.ListLeadsInput{
		Caller:     caller,
		Search:     q.Search,
		Status:     q.Status,
		DateFilter: q.DateFilter,
		Page:       q.Page,
		Limit:      q.Limit,
	}
	if q.HotLead != "" {
		hot, err := strconv.ParseBool(q.HotLead)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "hotLead must be true or false")
		}
		input.HotLead = &hot
	}
	if input.FromDate, err = parseDate(q.FromDate); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if input.ToDate, err = parseDate(q.ToDate); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.leadService.ListLeads(c.Request().Context(), input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listLeadsResponse{
		Clients:      result.Leads,
		TotalPages:   result.TotalPages,
		Page:         result.Page,
		Total:        result.Total,
		Stats:        result.Stats,
		StatusCounts: result.StatusCounts,
	})
}

// Edit handles PUT /api/client/edit/:id.
//
// @Summary      Edit a lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Lead ID"
// @Param        body  body      leadRequest  true  "Updated lead details"
// @Success      200   {object}  domain.Lead
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/client/edit/{id} [put]
func (h *LeadHandler) Edit(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req leadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	leadDated, err := parseDate(req.LeadDated)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	lead, err := h.leadService.EditLead(c.Request().Context(), caller, ports.EditLeadInput{
		ID:        c.Param("id"),
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Source:    req.Source,
		LeadDated: leadDated,
		Status:    req.Status,
		HotLead:   req.HotLead,
		Budget:    req.Budget,
		Location:  req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

// Delete handles DELETE /api/client/delete/:id.
//
// @Summary      Delete a lead
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Lead ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/client/delete/{id} [delete]
func (h *LeadHandler) Delete(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	if err := h.leadService.DeleteLead(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// FollowUp handles PUT /api/client/followup/:id.
//
// @Summary      Append a follow-up to a lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Lead ID"
// @Param        body  body      followUpRequest  true  "Follow-up remark and next task date"
// @Success      200   {object}  domain.Lead
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/client/followup/{id} [put]
func (h *LeadHandler) FollowUp(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req followUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	nextTask, err := parseDate(req.NextTaskDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	lead, err := h.leadService.AddFollowUp(c.Request().Context(), caller, ports.FollowUpInput{
		LeadID:       c.Param("id"),
		Remark:       req.Remark,
		NextTaskDate: nextTask,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

// Assign handles POST /api/client/assign as a single batch call with per-item
// results instead of one request per lead.
//
// @Summary      Assign leads to an agent
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      assignRequest  true  "Lead IDs and target user"
// @Success      200   {object}  ports.AssignmentResult
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/client/assign [post]
func (h *LeadHandler) Assign(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "userid is required")
	}

	result, err := h.leadService.Assign(c.Request().Context(), caller, req.IDs, req.UserID)
	if err != nil {
		return err
	}

	metrics.LeadAssignmentsTotal.WithLabelValues("assign", "ok").Add(float64(result.Assigned))
	metrics.LeadAssignmentsTotal.WithLabelValues("assign", "failed").Add(float64(result.Failed))
	return c.JSON(http.StatusOK, result)
}

// Unassign handles POST /api/client/unassign.
//
// @Summary      Return leads to the unassigned pool
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      assignRequest  true  "Lead IDs (userId ignored)"
// @Success      200   {object}  ports.AssignmentResult
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/client/unassign [post]
func (h *LeadHandler) Unassign(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := h.leadService.Unassign(c.Request().Context(), caller, req.IDs)
	if err != nil {
		return err
	}

	metrics.LeadAssignmentsTotal.WithLabelValues("unassign", "ok").Add(float64(result.Assigned))
	metrics.LeadAssignmentsTotal.WithLabelValues("unassign", "failed").Add(float64(result.Failed))
	return c.JSON(http.StatusOK, result)
}

// Search handles GET /api/client/search.
//
// @Summary      Quick-search leads
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        query     query     string  true   "Name, phone or email substring"
// @Param        assigned  query     bool    false  "Restrict to assigned or unassigned leads"
// @Param        limit     query     int     false  "Maximum results"
// @Success      200       {array}   domain.Lead
// @Failure      400       {object}  map[string]string
// @Router       /api/client/search [get]
func (h *LeadHandler) Search(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	input := ports.SearchLeadsInput{
		Caller: caller,
		Query:  c.QueryParam("query"),
	}
	if raw := c.QueryParam("assigned"); raw != "" {
		assigned, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "assigned must be true or false")
		}
		input.Assigned = &assigned
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a number")
		}
		input.Limit = limit
	}

	leads, err := h.leadService.Search(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, leads)
}

// UploadExcel handles POST /api/client/upload-excel (multipart, field "file").
//
// @Summary      Bulk import leads from an .xlsx workbook
// @Tags         leads
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Workbook with a header row"
// @Success      200   {object}  ports.ImportResult
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/client/upload-excel [post]
func (h *LeadHandler) UploadExcel(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	result, err := h.importService.ImportLeads(c.Request().Context(), src)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	metrics.LeadImportRowsTotal.WithLabelValues("imported").Add(float64(result.Imported))
	metrics.LeadImportRowsTotal.WithLabelValues("failed").Add(float64(result.Failed))
	metrics.LeadsCreatedTotal.WithLabelValues("import").Add(float64(result.Imported))
	return c.JSON(http.StatusOK, result)
}
