package lending_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/liblend/library-lending-go/lending"
)

func Test_ParseReportPeriod_AcceptsPlainDatesAndTimestamps(t *testing.T) {
	// act
	fromDates, datesErr := lending.ParseReportPeriod("2026-01-01", "2026-01-31")
	fromTimestamps, timestampsErr := lending.ParseReportPeriod("2026-01-01T00:00:00Z", "2026-01-31T23:59:59Z")

	// assert
	assert.NoError(t, datesErr)
	assert.NoError(t, timestampsErr)
	assert.Equal(t, fromDates.Start, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, fromTimestamps.End, time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC))
}

func Test_ParseReportPeriod_RejectsMissingAndInvalidBounds(t *testing.T) {
	_, missingErr := lending.ParseReportPeriod("", "2026-01-31")
	assert.ErrorIs(t, missingErr, lending.ErrMissingReportPeriod)

	_, invalidErr := lending.ParseReportPeriod("not-a-date", "2026-01-31")
	assert.ErrorIs(t, invalidErr, lending.ErrInvalidReportPeriod)

	_, orderErr := lending.ParseReportPeriod("2026-02-01", "2026-01-01")
	assert.ErrorIs(t, orderErr, lending.ErrReportPeriodOrder)

	_, equalErr := lending.ParseReportPeriod("2026-01-01", "2026-01-01")
	assert.ErrorIs(t, equalErr, lending.ErrReportPeriodOrder)
}

func Test_BuildReport_SummaryCountsAndZeroFilledBreakdown(t *testing.T) {
	// arrange
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	period := givenPeriod()

	records := []lending.BorrowRecord{
		givenRecord(lending.StatusReturned, now.AddDate(0, 0, -20), now),
		givenRecord(lending.StatusReturned, now.AddDate(0, 0, -18), now),
		givenRecord(lending.StatusReturned, now.AddDate(0, 0, -15), now),
		givenRecord(lending.StatusPending, now.AddDate(0, 0, 10), now),
		givenRecord(lending.StatusPending, now.AddDate(0, 0, 12), now),
		givenRecord(lending.StatusRejected, now.AddDate(0, 0, -5), now),
	}

	// act
	report := lending.BuildReport(period, records, now)

	// assert
	assert.Equal(t, 6, report.Summary.TotalBorrows)
	assert.Equal(t, 3, report.Summary.ReturnedBorrows)
	assert.Equal(t, 2, report.Summary.PendingBorrows)
	assert.Equal(t, 1, report.Summary.RejectedBorrows)
	assert.Equal(t, 0, report.Summary.ApprovedBorrows)
	assert.Equal(t, 0, report.Summary.OverdueBorrows)

	assert.Len(t, report.Summary.StatusBreakdown, 4)
	assert.Equal(t, 0, report.Summary.StatusBreakdown[lending.StatusApproved])
	assert.Equal(t, 3, report.Summary.StatusBreakdown[lending.StatusReturned])

	assert.Len(t, report.DetailedBorrows, 6)
	assert.Equal(t, "2026-01-01", report.Period.StartDate)
	assert.Equal(t, "2026-01-31", report.Period.EndDate)
}

func Test_BuildReport_OverdueDaysOnlyForCurrentlyOverdueBorrows(t *testing.T) {
	// arrange
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	period := givenPeriod()

	overdue := givenRecord(lending.StatusApproved, now.AddDate(0, 0, -5), now)
	notYetDue := givenRecord(lending.StatusApproved, now.AddDate(0, 0, 5), now)
	returnedLate := givenRecord(lending.StatusReturned, now.AddDate(0, 0, -5), now)

	// act
	report := lending.BuildReport(period, []lending.BorrowRecord{overdue, notYetDue, returnedLate}, now)

	// assert
	assert.Equal(t, 1, report.Summary.OverdueBorrows)

	assert.NotNil(t, report.DetailedBorrows[0].OverdueDays)
	assert.Equal(t, 5, *report.DetailedBorrows[0].OverdueDays)

	assert.Nil(t, report.DetailedBorrows[1].OverdueDays)
	assert.Nil(t, report.DetailedBorrows[2].OverdueDays)
}

func Test_BuildReport_RankingsCountPerBookAndPerUser(t *testing.T) {
	// arrange
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	period := givenPeriod()

	popular := givenBookSummary("Popular Title")
	niche := givenBookSummary("Niche Title")
	heavyReader := givenUserSummary("Heavy Reader")
	casualReader := givenUserSummary("Casual Reader")

	records := []lending.BorrowRecord{
		givenRecordFor(heavyReader, popular, now),
		givenRecordFor(heavyReader, popular, now),
		givenRecordFor(heavyReader, niche, now),
		givenRecordFor(casualReader, popular, now),
	}

	// act
	report := lending.BuildReport(period, records, now)

	// assert
	assert.Len(t, report.TopBorrowedBooks, 2)
	assert.Equal(t, popular.ID, report.TopBorrowedBooks[0].Book.ID)
	assert.Equal(t, 3, report.TopBorrowedBooks[0].Count)
	assert.Equal(t, niche.ID, report.TopBorrowedBooks[1].Book.ID)
	assert.Equal(t, 1, report.TopBorrowedBooks[1].Count)

	assert.Len(t, report.MostActiveBorrowers, 2)
	assert.Equal(t, heavyReader.ID, report.MostActiveBorrowers[0].User.ID)
	assert.Equal(t, 3, report.MostActiveBorrowers[0].Count)
	assert.Equal(t, casualReader.ID, report.MostActiveBorrowers[1].User.ID)
	assert.Equal(t, 1, report.MostActiveBorrowers[1].Count)
}

func Test_BuildReport_RankingsKeepFirstSeenOrderOnTiesAndCapAtTen(t *testing.T) {
	// arrange
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	period := givenPeriod()

	books := make([]lending.BookSummary, 0, 12)
	records := make([]lending.BorrowRecord, 0, 12)

	for i := 0; i < 12; i++ {
		book := givenBookSummary("Equally Popular")
		books = append(books, book)
		records = append(records, givenRecordFor(givenUserSummary("Reader"), book, now))
	}

	// act
	report := lending.BuildReport(period, records, now)

	// assert
	assert.Len(t, report.TopBorrowedBooks, 10)
	for i := 0; i < 10; i++ {
		assert.Equal(t, books[i].ID, report.TopBorrowedBooks[i].Book.ID, "rank %d", i)
		assert.Equal(t, 1, report.TopBorrowedBooks[i].Count)
	}
}

func Test_BuildReport_EmptyPeriodYieldsEmptyCollectionsNotNil(t *testing.T) {
	// act
	report := lending.BuildReport(givenPeriod(), nil, time.Now().UTC())

	// assert
	assert.Equal(t, 0, report.Summary.TotalBorrows)
	assert.NotNil(t, report.TopBorrowedBooks)
	assert.NotNil(t, report.MostActiveBorrowers)
	assert.NotNil(t, report.DetailedBorrows)
	assert.Len(t, report.Summary.StatusBreakdown, 4)
}

func Test_OverdueDays_RoundsTowardsNegativeInfinity(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 5, lending.OverdueDays(now.AddDate(0, 0, -5), now))
	assert.Equal(t, 0, lending.OverdueDays(now.Add(-12*time.Hour), now))
	assert.Equal(t, -1, lending.OverdueDays(now.Add(12*time.Hour), now))
	assert.Equal(t, -5, lending.OverdueDays(now.AddDate(0, 0, 5), now))
}

/***** test helpers *****/

func givenPeriod() lending.ReportPeriod {
	return lending.ReportPeriod{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func givenRecord(status lending.BorrowStatus, dueAt time.Time, now time.Time) lending.BorrowRecord {
	record := lending.BorrowRecord{
		Borrow: givenBorrow(uuid.New(), status),
		User:   givenUserSummary("Some Reader"),
		Book:   givenBookSummary("Some Title"),
	}

	record.DueAt = dueAt
	record.BorrowedAt = now.AddDate(0, 0, -14)

	return record
}

func givenRecordFor(user lending.UserSummary, book lending.BookSummary, now time.Time) lending.BorrowRecord {
	record := givenRecord(lending.StatusReturned, now.AddDate(0, 0, 7), now)
	record.UserID = user.ID
	record.User = user
	record.BookID = book.ID
	record.Book = book

	return record
}

func givenUserSummary(name string) lending.UserSummary {
	return lending.UserSummary{ID: uuid.New(), Name: name, Email: name + "@example.com"}
}

func givenBookSummary(title string) lending.BookSummary {
	return lending.BookSummary{
		ID:            uuid.New(),
		Title:         title,
		Author:        "Some Author",
		ISBN:          uuid.NewString()[:13],
		ShelfLocation: "C-03",
	}
}
