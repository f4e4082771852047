package handlers

import (
	"net/http"

	"kanzlei_app_go/db"
	"kanzlei_app_go/middleware"
	"kanzlei_app_go/models"
	"kanzlei_app_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ListPositionsHandler returns a case's ledger with folded totals
func ListPositionsHandler(c echo.Context) error {
	if _, err := services.GetCase(db.DB, c.Param("id")); err != nil {
		return respondServiceError(c, err)
	}

	positions, totals, err := services.GetLedger(db.DB, c.Param("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"positions": positions,
		"totals":    totals,
	})
}

// CreatePositionHandler adds a ledger position to a case
func CreatePositionHandler(c echo.Context) error {
	var pos models.FinancialPosition
	if err := c.Bind(&pos); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	pos.ID = ""
	pos.Document = nil

	if err := services.CreatePosition(db.DB, c.Param("id"), &pos); err != nil {
		return respondServiceError(c, err)
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionCreate, "financial_position", pos.ID, pos.Description,
		"Ledger position created", nil, pos)

	return c.JSON(http.StatusCreated, map[string]interface{}{"position": pos})
}

// UpdatePositionHandler edits a ledger position
func UpdatePositionHandler(c echo.Context) error {
	var pos models.FinancialPosition
	if err := db.DB.First(&pos, "id = ? AND case_id = ?", c.Param("pid"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Position not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch position")
	}

	old := pos

	if err := c.Bind(&pos); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	pos.ID = old.ID
	pos.CaseID = old.CaseID
	pos.CreatedAt = old.CreatedAt
	pos.Document = nil

	if pos.DebitAmount == nil && pos.CreditAmount == nil {
		return respondServiceError(c, services.NewValidationError("amount", "either debit_amount or credit_amount is required"))
	}
	if pos.DocumentID != nil {
		var doc models.Document
		if err := db.DB.First(&doc, "id = ? AND case_id = ?", *pos.DocumentID, pos.CaseID).Error; err != nil {
			return respondServiceError(c, services.NewValidationError("document_id", "document does not belong to this case"))
		}
	}

	if err := db.DB.Save(&pos).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update position")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "financial_position", pos.ID, pos.Description,
		"Ledger position updated", old, pos)

	return c.JSON(http.StatusOK, map[string]interface{}{"position": pos})
}

// DeletePositionHandler removes a ledger position
func DeletePositionHandler(c echo.Context) error {
	var pos models.FinancialPosition
	if err := db.DB.First(&pos, "id = ? AND case_id = ?", c.Param("pid"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Position not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch position")
	}

	if err := db.DB.Delete(&pos).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete position")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "financial_position", pos.ID, pos.Description,
		"Ledger position deleted", pos, nil)

	return c.JSON(http.StatusOK, map[string]string{"message": "Position deleted"})
}
