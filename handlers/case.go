package handlers

import (
	"net/http"
	"strconv"
	"time"

	"kanzlei_app_go/config"
	"kanzlei_app_go/db"
	"kanzlei_app_go/middleware"
	"kanzlei_app_go/models"
	"kanzlei_app_go/services"

	"github.com/labstack/echo/v4"
)

// caseResponse wraps a case with its display-rule party views
func caseResponse(kase *models.Case) map[string]interface{} {
	return map[string]interface{}{
		"case":             kase,
		"client_display":   kase.DisplayClient(),
		"opponent_display": kase.DisplayOpponent(),
	}
}

// ListCasesHandler returns the paginated case register with optional
// status, keyword and date-range filters
func ListCasesHandler(c echo.Context) error {
	query := db.DB.Model(&models.Case{}).Preload("Client").Preload("Opponent")

	if status := c.QueryParam("status"); status != "" {
		if !models.IsValidCaseStatus(status) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status filter")
		}
		query = query.Where("status = ?", status)
	}

	if q := c.QueryParam("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("file_number LIKE ? OR modus_operandi LIKE ?", like, like)
	}

	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD")
		}
		query = query.Where("created_at >= ?", t)
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD")
		}
		query = query.Where("created_at < ?", t.Add(24*time.Hour))
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 25
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count cases")
	}

	var cases []models.Case
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&cases).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch cases")
	}

	items := make([]map[string]interface{}, 0, len(cases))
	for i := range cases {
		items = append(items, caseResponse(&cases[i]))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"cases":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// CreateCaseRequest is the case creation payload
type CreateCaseRequest struct {
	FileNumber    string         `json:"file_number"`
	ClientID      string         `json:"client_id"`
	OpponentID    string         `json:"opponent_id"`
	ModusOperandi string         `json:"modus_operandi"`
	ExtraInfo     models.JSONMap `json:"extra_info"`
}

// CreateCaseHandler creates a case after the conflict check passes
func CreateCaseHandler(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req CreateCaseRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
		}

		kase, err := services.CreateCase(db.DB, cfg.FileNumberSuffix, services.CaseInput{
			FileNumber:    req.FileNumber,
			ClientID:      req.ClientID,
			OpponentID:    req.OpponentID,
			ModusOperandi: req.ModusOperandi,
			ExtraInfo:     req.ExtraInfo,
		})
		if err != nil {
			return respondServiceError(c, err)
		}

		services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
			models.AuditActionCreate, "case", kase.ID, kase.FileNumber,
			"Case created", nil, kase)

		return c.JSON(http.StatusCreated, caseResponse(kase))
	}
}

// GetCaseHandler returns a single case with display-rule party views
func GetCaseHandler(c echo.Context) error {
	kase, err := services.GetCase(db.DB, c.Param("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, caseResponse(kase))
}

// UpdateCaseRequest is the case edit payload; absent fields stay unchanged
type UpdateCaseRequest struct {
	ClientID      *string `json:"client_id"`
	OpponentID    *string `json:"opponent_id"`
	ModusOperandi *string `json:"modus_operandi"`
	Status        *string `json:"status"`
}

// UpdateCaseHandler edits a case's core fields. Closed cases reject edits;
// party changes re-run the conflict check.
func UpdateCaseHandler(c echo.Context) error {
	var req UpdateCaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	var old *models.Case
	if loaded, err := services.GetCase(db.DB, c.Param("id")); err == nil {
		old = loaded
	}

	kase, err := services.UpdateCase(db.DB, c.Param("id"), services.CaseUpdate{
		ClientID:      req.ClientID,
		OpponentID:    req.OpponentID,
		ModusOperandi: req.ModusOperandi,
		Status:        req.Status,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "case", kase.ID, kase.FileNumber,
		"Case updated", old, kase)

	return c.JSON(http.StatusOK, caseResponse(kase))
}

// DeleteCaseHandler soft-deletes a case. The route is admin-guarded.
func DeleteCaseHandler(c echo.Context) error {
	kase, err := services.GetCase(db.DB, c.Param("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	if err := db.DB.Delete(kase).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete case")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "case", kase.ID, kase.FileNumber,
		"Case deleted", kase, nil)

	return c.JSON(http.StatusOK, map[string]string{"message": "Case deleted"})
}

// CloseCaseHandler performs the terminal close transition, freezing the
// party snapshots
func CloseCaseHandler(c echo.Context) error {
	kase, err := services.CloseCase(db.DB, c.Param("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionClose, "case", kase.ID, kase.FileNumber,
		"Case closed, party data frozen", nil, kase)

	return c.JSON(http.StatusOK, caseResponse(kase))
}

// NextFileNumberHandler previews the next file number without reserving it
func NextFileNumberHandler(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		fileNumber, err := services.GenerateFileNumber(db.DB, cfg.FileNumberSuffix)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate file number")
		}
		return c.JSON(http.StatusOK, map[string]string{"file_number": fileNumber})
	}
}

// ExtraInfoRequest carries the flexible per-case JSON blob
type ExtraInfoRequest struct {
	JSONData models.JSONMap `json:"json_data"`
}

// CaseExtraInfoHandler replaces a case's extra-info blob transactionally
func CaseExtraInfoHandler(c echo.Context) error {
	var req ExtraInfoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.JSONData == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "json_data is required")
	}

	kase, err := services.WriteExtraInfo(db.DB, c.Param("id"), req.JSONData)
	if err != nil {
		return respondServiceError(c, err)
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "case", kase.ID, kase.FileNumber,
		"Extra info written", nil, req.JSONData)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"case": kase,
	})
}

// CasePrioritiesHandler lists active cases ordered by their nearest undone
// deadline, soonest first. Cases without open deadlines are omitted.
func CasePrioritiesHandler(c echo.Context) error {
	var deadlines []models.Deadline
	if err := db.DB.Preload("Case").Preload("Case.Client").Preload("Case.Opponent").
		Where("done = ?", false).
		Order("due_date ASC").
		Find(&deadlines).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deadlines")
	}

	seen := map[string]bool{}
	items := make([]map[string]interface{}, 0)
	for i := range deadlines {
		d := &deadlines[i]
		if d.Case == nil || seen[d.CaseID] || !d.Case.IsActive() {
			continue
		}
		seen[d.CaseID] = true
		entry := caseResponse(d.Case)
		entry["next_deadline"] = map[string]interface{}{
			"id":       d.ID,
			"label":    d.Label,
			"due_date": d.DueDate,
			"priority": d.Priority,
		}
		items = append(items, entry)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"cases": items,
	})
}
