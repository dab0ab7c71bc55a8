package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/liblend/library-lending-go/lending"
)

const (
	sheetSummary   = "Summary"
	sheetDetailed  = "Detailed Borrows"
	sheetTopBooks  = "Top Borrowed Books"
	sheetBorrowers = "Active Borrowers"
)

// WriteXLSX writes the report as a workbook with a summary sheet, the
// detailed borrows, and the two rankings.
func WriteXLSX(w io.Writer, report lending.Report) error {
	workbook := excelize.NewFile()
	defer func() { _ = workbook.Close() }()

	if err := writeSummarySheet(workbook, report); err != nil {
		return err
	}

	if err := writeDetailedSheet(workbook, report); err != nil {
		return err
	}

	if err := writeTopBooksSheet(workbook, report); err != nil {
		return err
	}

	if err := writeBorrowersSheet(workbook, report); err != nil {
		return err
	}

	// The default sheet is replaced by Summary.
	if err := workbook.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	buffer, err := workbook.WriteToBuffer()
	if err != nil {
		return err
	}

	_, err = w.Write(buffer.Bytes())

	return err
}

func writeSummarySheet(workbook *excelize.File, report lending.Report) error {
	if _, err := workbook.NewSheet(sheetSummary); err != nil {
		return err
	}

	rows := [][]any{
		{"Report Period", fmt.Sprintf("%s to %s", report.Period.StartDate, report.Period.EndDate)},
		{"Total Borrows", report.Summary.TotalBorrows},
		{"Pending", report.Summary.PendingBorrows},
		{"Approved", report.Summary.ApprovedBorrows},
		{"Rejected", report.Summary.RejectedBorrows},
		{"Returned", report.Summary.ReturnedBorrows},
		{"Currently Overdue", report.Summary.OverdueBorrows},
	}

	return writeRows(workbook, sheetSummary, rows)
}

func writeDetailedSheet(workbook *excelize.File, report lending.Report) error {
	if _, err := workbook.NewSheet(sheetDetailed); err != nil {
		return err
	}

	rows := make([][]any, 0, len(report.DetailedBorrows)+1)

	header := make([]any, 0, len(csvHeader))
	for _, column := range csvHeader {
		header = append(header, column)
	}
	rows = append(rows, header)

	for _, entry := range report.DetailedBorrows {
		rows = append(rows, []any{
			entry.ID.String(),
			entry.BorrowedAt.Format(time.RFC3339),
			entry.DueAt.Format(time.RFC3339),
			optionalTimestamp(entry.ReturnedAt),
			optionalTimestamp(entry.ApprovedAt),
			string(entry.Status),
			optionalDays(entry.OverdueDays),
			entry.User.Name,
			entry.User.Email,
			entry.Book.Title,
			entry.Book.Author,
			entry.Book.ISBN,
			entry.Book.ShelfLocation,
		})
	}

	return writeRows(workbook, sheetDetailed, rows)
}

func writeTopBooksSheet(workbook *excelize.File, report lending.Report) error {
	if _, err := workbook.NewSheet(sheetTopBooks); err != nil {
		return err
	}

	rows := make([][]any, 0, len(report.TopBorrowedBooks)+1)
	rows = append(rows, []any{"title", "author", "isbn", "borrowCount"})

	for _, activity := range report.TopBorrowedBooks {
		rows = append(rows, []any{
			activity.Book.Title,
			activity.Book.Author,
			activity.Book.ISBN,
			activity.Count,
		})
	}

	return writeRows(workbook, sheetTopBooks, rows)
}

func writeBorrowersSheet(workbook *excelize.File, report lending.Report) error {
	if _, err := workbook.NewSheet(sheetBorrowers); err != nil {
		return err
	}

	rows := make([][]any, 0, len(report.MostActiveBorrowers)+1)
	rows = append(rows, []any{"name", "email", "borrowCount"})

	for _, activity := range report.MostActiveBorrowers {
		rows = append(rows, []any{
			activity.User.Name,
			activity.User.Email,
			activity.Count,
		})
	}

	return writeRows(workbook, sheetBorrowers, rows)
}

func writeRows(workbook *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}

		if err := workbook.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return nil
}
