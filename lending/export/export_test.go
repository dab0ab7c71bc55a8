package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/liblend/library-lending-go/lending"
	"github.com/liblend/library-lending-go/lending/export"
)

func givenReport(t *testing.T) lending.Report {
	t.Helper()

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	period := lending.ReportPeriod{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	user := lending.UserSummary{ID: uuid.New(), Name: "Avid Reader", Email: "reader@example.com"}
	book := lending.BookSummary{
		ID:            uuid.New(),
		Title:         "The Go Programming Language",
		Author:        "Donovan / Kernighan",
		ISBN:          "978-0134190440",
		ShelfLocation: "A-01",
	}

	approvedAt := now.AddDate(0, 0, -10)

	overdue := lending.BorrowRecord{
		Borrow: lending.Borrow{
			ID:         uuid.New(),
			UserID:     user.ID,
			BookID:     book.ID,
			Status:     lending.StatusApproved,
			BorrowedAt: now.AddDate(0, 0, -12),
			DueAt:      now.AddDate(0, 0, -5),
			ApprovedAt: &approvedAt,
		},
		User: user,
		Book: book,
	}

	pending := lending.BorrowRecord{
		Borrow: lending.Borrow{
			ID:         uuid.New(),
			UserID:     user.ID,
			BookID:     book.ID,
			Status:     lending.StatusPending,
			BorrowedAt: now.AddDate(0, 0, -1),
			DueAt:      now.AddDate(0, 0, 13),
		},
		User: user,
		Book: book,
	}

	return lending.BuildReport(period, []lending.BorrowRecord{overdue, pending}, now)
}

func Test_WriteJSON_RoundTripsTheReport(t *testing.T) {
	// arrange
	report := givenReport(t)
	var buffer bytes.Buffer

	// act
	err := export.WriteJSON(&buffer, report)

	// assert
	require.NoError(t, err)

	var decoded lending.Report
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(buffer.Bytes(), &decoded))

	assert.Equal(t, report.Summary.TotalBorrows, decoded.Summary.TotalBorrows)
	assert.Equal(t, report.Period, decoded.Period)
	assert.Len(t, decoded.DetailedBorrows, 2)
	assert.Equal(t, report.DetailedBorrows[0].ID, decoded.DetailedBorrows[0].ID)
}

func Test_MarshalJSON_OmitsThePasswordAndKeepsCamelCaseKeys(t *testing.T) {
	// arrange
	report := givenReport(t)

	// act
	payload, err := export.MarshalJSON(report)

	// assert
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"totalBorrows"`)
	assert.Contains(t, string(payload), `"topBorrowedBooks"`)
	assert.Contains(t, string(payload), `"shelfLocation"`)
	assert.NotContains(t, string(payload), "password")
}

func Test_WriteCSV_FixedHeaderAndOneRowPerBorrow(t *testing.T) {
	// arrange
	report := givenReport(t)
	var buffer bytes.Buffer

	// act
	err := export.WriteCSV(&buffer, report)

	// assert
	require.NoError(t, err)

	rows, err := csv.NewReader(&buffer).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"id", "borrowedAt", "dueAt", "returnedAt", "approvedAt", "status", "overdueDays",
		"user.name", "user.email", "book.title", "book.author", "book.isbn", "book.shelfLocation",
	}, rows[0])

	// the overdue borrow carries its days, the pending one renders empty cells
	assert.Equal(t, "APPROVED", rows[1][5])
	assert.Equal(t, "5", rows[1][6])
	assert.Equal(t, "", rows[1][3])

	assert.Equal(t, "PENDING", rows[2][5])
	assert.Equal(t, "", rows[2][6])
	assert.Equal(t, "", rows[2][4])

	assert.Equal(t, "Avid Reader", rows[1][7])
	assert.Equal(t, "978-0134190440", rows[1][11])
}

func Test_WriteXLSX_ContainsAllFourSheets(t *testing.T) {
	// arrange
	report := givenReport(t)
	var buffer bytes.Buffer

	// act
	err := export.WriteXLSX(&buffer, report)

	// assert
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(bytes.NewReader(buffer.Bytes()))
	require.NoError(t, err)
	defer func() { _ = workbook.Close() }()

	assert.ElementsMatch(t,
		[]string{"Summary", "Detailed Borrows", "Top Borrowed Books", "Active Borrowers"},
		workbook.GetSheetList())

	totalLabel, err := workbook.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Total Borrows", totalLabel)

	totalValue, err := workbook.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", totalValue)

	detailedRows, err := workbook.GetRows("Detailed Borrows")
	require.NoError(t, err)
	assert.Len(t, detailedRows, 3)

	topBooksHeader, err := workbook.GetCellValue("Top Borrowed Books", "A1")
	require.NoError(t, err)
	assert.Equal(t, "title", topBooksHeader)
}
