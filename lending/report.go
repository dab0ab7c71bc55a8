package lending

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// topEntryLimit caps the top-borrowed-books and most-active-borrowers
// rankings.
const topEntryLimit = 10

const reportDateFormat = "2006-01-02"

// ReportPeriod is the half-open-to-none, fully inclusive [Start, End] range a
// report covers, matched against borrowedAt.
type ReportPeriod struct {
	Start time.Time
	End   time.Time
}

// ParseReportPeriod parses caller-supplied period bounds, accepting RFC 3339
// timestamps or plain dates.
func ParseReportPeriod(startDate, endDate string) (ReportPeriod, error) {
	var empty ReportPeriod

	if startDate == "" || endDate == "" {
		return empty, ErrMissingReportPeriod
	}

	start, startErr := parseReportDate(startDate)
	end, endErr := parseReportDate(endDate)

	if startErr != nil || endErr != nil {
		return empty, ErrInvalidReportPeriod
	}

	period := ReportPeriod{Start: start, End: end}
	if err := period.Validate(); err != nil {
		return empty, err
	}

	return period, nil
}

func parseReportDate(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}

	return time.Parse(reportDateFormat, value)
}

// Validate checks that both bounds are set and ordered.
func (p ReportPeriod) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return ErrMissingReportPeriod
	}

	if !p.Start.Before(p.End) {
		return ErrReportPeriodOrder
	}

	return nil
}

// PeriodDates is the period projection of a report, as plain dates.
type PeriodDates struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ReportSummary aggregates the pulled borrow set. StatusBreakdown always
// carries all four statuses, zero-filled for statuses without borrows.
type ReportSummary struct {
	TotalBorrows    int                  `json:"totalBorrows"`
	StatusBreakdown map[BorrowStatus]int `json:"statusBreakdown"`
	OverdueBorrows  int                  `json:"overdueBorrows"`
	ReturnedBorrows int                  `json:"returnedBorrows"`
	PendingBorrows  int                  `json:"pendingBorrows"`
	ApprovedBorrows int                  `json:"approvedBorrows"`
	RejectedBorrows int                  `json:"rejectedBorrows"`
}

// BookActivity is a ranking entry of the top borrowed books.
type BookActivity struct {
	Book  BookSummary `json:"book"`
	Count int         `json:"count"`
}

// BorrowerActivity is a ranking entry of the most active borrowers.
type BorrowerActivity struct {
	User  UserSummary `json:"user"`
	Count int         `json:"count"`
}

// ReportEntry is the per-borrow projection of a report. OverdueDays is nil
// unless the borrow is currently overdue.
type ReportEntry struct {
	ID          uuid.UUID    `json:"id"`
	BorrowedAt  time.Time    `json:"borrowedAt"`
	DueAt       time.Time    `json:"dueAt"`
	ReturnedAt  *time.Time   `json:"returnedAt"`
	ApprovedAt  *time.Time   `json:"approvedAt"`
	Status      BorrowStatus `json:"status"`
	OverdueDays *int         `json:"overdueDays"`
	User        UserSummary  `json:"user"`
	Book        BookSummary  `json:"book"`
}

// Report is the single analytics structure all output formats derive from.
type Report struct {
	Period              PeriodDates        `json:"period"`
	Summary             ReportSummary      `json:"summary"`
	TopBorrowedBooks    []BookActivity     `json:"topBorrowedBooks"`
	MostActiveBorrowers []BorrowerActivity `json:"mostActiveBorrowers"`
	DetailedBorrows     []ReportEntry      `json:"detailedBorrows"`
}

// BuildReport computes the period analytics once over the pulled borrow set,
// as of now. The borrows are expected ordered by borrowedAt descending; the
// rankings use stable sorting so ties keep that order.
func BuildReport(period ReportPeriod, borrows []BorrowRecord, now time.Time) Report {
	breakdown := make(map[BorrowStatus]int, len(AllBorrowStatuses()))
	for _, status := range AllBorrowStatuses() {
		breakdown[status] = 0
	}

	overdueCount := 0
	entries := make([]ReportEntry, 0, len(borrows))

	for _, borrow := range borrows {
		breakdown[borrow.Status]++

		var overdueDays *int
		if borrow.IsOverdue(now) {
			overdueCount++
			days := OverdueDays(borrow.DueAt, now)
			overdueDays = &days
		}

		entries = append(entries, ReportEntry{
			ID:          borrow.ID,
			BorrowedAt:  borrow.BorrowedAt,
			DueAt:       borrow.DueAt,
			ReturnedAt:  borrow.ReturnedAt,
			ApprovedAt:  borrow.ApprovedAt,
			Status:      borrow.Status,
			OverdueDays: overdueDays,
			User:        borrow.User,
			Book:        borrow.Book,
		})
	}

	return Report{
		Period: PeriodDates{
			StartDate: period.Start.Format(reportDateFormat),
			EndDate:   period.End.Format(reportDateFormat),
		},
		Summary: ReportSummary{
			TotalBorrows:    len(borrows),
			StatusBreakdown: breakdown,
			OverdueBorrows:  overdueCount,
			ReturnedBorrows: breakdown[StatusReturned],
			PendingBorrows:  breakdown[StatusPending],
			ApprovedBorrows: breakdown[StatusApproved],
			RejectedBorrows: breakdown[StatusRejected],
		},
		TopBorrowedBooks:    topBorrowedBooks(borrows),
		MostActiveBorrowers: mostActiveBorrowers(borrows),
		DetailedBorrows:     entries,
	}
}

// topBorrowedBooks groups the borrow set by book in first-seen order and
// returns the most borrowed ones, ties kept stable.
func topBorrowedBooks(borrows []BorrowRecord) []BookActivity {
	index := make(map[uuid.UUID]int, len(borrows))
	ranking := make([]BookActivity, 0)

	for _, borrow := range borrows {
		at, seen := index[borrow.Book.ID]
		if !seen {
			index[borrow.Book.ID] = len(ranking)
			ranking = append(ranking, BookActivity{Book: borrow.Book})
			at = index[borrow.Book.ID]
		}

		ranking[at].Count++
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})

	return capRanking(ranking)
}

// mostActiveBorrowers groups the borrow set by user in first-seen order and
// returns the most active ones, ties kept stable.
func mostActiveBorrowers(borrows []BorrowRecord) []BorrowerActivity {
	index := make(map[uuid.UUID]int, len(borrows))
	ranking := make([]BorrowerActivity, 0)

	for _, borrow := range borrows {
		at, seen := index[borrow.User.ID]
		if !seen {
			index[borrow.User.ID] = len(ranking)
			ranking = append(ranking, BorrowerActivity{User: borrow.User})
			at = index[borrow.User.ID]
		}

		ranking[at].Count++
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})

	return capRanking(ranking)
}

func capRanking[T any](ranking []T) []T {
	if len(ranking) > topEntryLimit {
		return ranking[:topEntryLimit]
	}

	return ranking
}
