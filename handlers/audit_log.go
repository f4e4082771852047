package handlers

import (
	"net/http"
	"strconv"
	"time"

	"kanzlei_app_go/db"
	"kanzlei_app_go/services"

	"github.com/labstack/echo/v4"
)

// ListAuditLogsHandler returns the paginated audit trail with optional
// user, resource, action and date filters (admin only)
func ListAuditLogsHandler(c echo.Context) error {
	filters := services.AuditLogFilters{
		UserID:       c.QueryParam("user_id"),
		ResourceType: c.QueryParam("resource_type"),
		Action:       c.QueryParam("action"),
	}

	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD")
		}
		filters.DateFrom = t
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD")
		}
		filters.DateTo = t.Add(24 * time.Hour)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 25
	}

	logs, total, err := services.GetAuditLogs(db.DB, filters, page, pageSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch audit logs")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"audit_logs": logs,
		"total":      total,
		"page":       page,
		"page_size":  pageSize,
	})
}

// ResourceAuditHistoryHandler returns the full audit history of one record,
// newest first (admin only)
func ResourceAuditHistoryHandler(c echo.Context) error {
	logs, err := services.GetResourceAuditHistory(db.DB, c.Param("resourceType"), c.Param("resourceID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch audit history")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"audit_logs": logs,
	})
}
