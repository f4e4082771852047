package handlers

import (
	"fmt"
	"net/http"

	"kanzlei_app_go/config"
	"kanzlei_app_go/db"
	"kanzlei_app_go/services"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportCasesHandler streams the case register as an xlsx workbook
func ExportCasesHandler(c echo.Context) error {
	buf, err := services.ExportCaseList(db.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export cases")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="cases.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportLedgerHandler streams a case's ledger as an xlsx workbook
func ExportLedgerHandler(c echo.Context) error {
	buf, filename, err := services.ExportCaseLedger(db.DB, c.Param("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// CoverSheetHandler renders the case cover sheet as a PDF
func CoverSheetHandler(c echo.Context) error {
	kase, err := services.GetCase(db.DB, c.Param("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	chromePath := ""
	if cfg, ok := c.Get("config").(*config.Config); ok {
		chromePath = cfg.ChromePath
	}

	pdf, err := services.GenerateCaseCoverSheet(kase, chromePath)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate cover sheet")
	}

	filename := fmt.Sprintf("coversheet_%s.pdf", services.SafeFileNumber(kase.FileNumber))
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
