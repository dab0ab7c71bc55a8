package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/liblend/library-lending-go/lending"
)

// csvHeader fixes the column order of CSV exports. Downstream spreadsheet
// imports depend on it staying stable.
var csvHeader = []string{
	"id",
	"borrowedAt",
	"dueAt",
	"returnedAt",
	"approvedAt",
	"status",
	"overdueDays",
	"user.name",
	"user.email",
	"book.title",
	"book.author",
	"book.isbn",
	"book.shelfLocation",
}

// WriteCSV writes the detailed borrows of the report as CSV, one row per
// borrow. Unset timestamps and overdue days render as empty cells.
func WriteCSV(w io.Writer, report lending.Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, entry := range report.DetailedBorrows {
		row := []string{
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
		}

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

func optionalTimestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}

	return ts.Format(time.RFC3339)
}

func optionalDays(days *int) string {
	if days == nil {
		return ""
	}

	return strconv.Itoa(*days)
}
