package services

import (
	"bytes"
	"fmt"

	"kanzlei_app_go/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportCaseList writes the case register to an xlsx workbook.
// Party names go through the display rule, so closed cases export
// their frozen snapshot names.
func ExportCaseList(database *gorm.DB) (*bytes.Buffer, error) {
	var cases []models.Case
	if err := database.Preload("Client").Preload("Opponent").
		Order("file_number ASC").
		Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("failed to load cases for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Cases"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"File Number", "Status", "Client", "Opponent", "Created", "Closed", "Description"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "G1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 16)
	f.SetColWidth(sheet, "B", "D", 24)
	f.SetColWidth(sheet, "E", "F", 14)
	f.SetColWidth(sheet, "G", "G", 50)

	for i := range cases {
		kase := &cases[i]
		row := i + 2
		closed := ""
		if kase.ClosedAt != nil {
			closed = kase.ClosedAt.Format("02.01.2006")
		}
		values := []interface{}{
			kase.FileNumber,
			kase.Status,
			kase.DisplayClient().DisplayName,
			kase.DisplayOpponent().DisplayName,
			kase.CreatedAt.Format("02.01.2006"),
			closed,
			kase.ModusOperandi,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write case export: %w", err)
	}
	return buf, nil
}

// ExportCaseLedger writes a case's financial positions to an xlsx workbook,
// with a totals row folded from the position list.
func ExportCaseLedger(database *gorm.DB, caseID string) (*bytes.Buffer, string, error) {
	kase, err := GetCase(database, caseID)
	if err != nil {
		return nil, "", err
	}

	positions, totals, err := GetLedger(database, caseID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Ledger"
	f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	f.SetCellValue(sheet, "A1", fmt.Sprintf("Ledger for case %s", kase.FileNumber))
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	headers := []string{"Booked", "Description", "Debit", "Credit", "Document"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(sheet, cell, header)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A3", "E3", headerStyle)
	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 40)
	f.SetColWidth(sheet, "C", "D", 14)
	f.SetColWidth(sheet, "E", "E", 30)

	row := 4
	for i := range positions {
		pos := &positions[i]
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), pos.BookedAt.Format("02.01.2006"))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), pos.Description)
		if pos.DebitAmount != nil {
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), *pos.DebitAmount)
		}
		if pos.CreditAmount != nil {
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), *pos.CreditAmount)
		}
		if pos.Document != nil {
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), pos.Document.Title)
		}
		row++
	}

	row++
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row), totals.Debit)
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), totals.Credit)
	f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("D%d", row), headerStyle)
	row++
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), "Balance")
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), totals.Balance)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write ledger export: %w", err)
	}

	filename := fmt.Sprintf("ledger_%s.xlsx", SafeFileNumber(kase.FileNumber))
	return buf, filename, nil
}
