package lending

import (
	"time"

	"github.com/google/uuid"
)

/***** BorrowFilter *****/

// BorrowFilter describes which borrows to list. It is a plain value built
// through BuildBorrowFilter; DB type-specific engines turn it into a composed
// query predicate, one clause per set field, combined with AND.
type BorrowFilter struct {
	userID        *uuid.UUID
	bookID        *uuid.UUID
	status        *BorrowStatus
	overdueOnly   bool
	sortByOverdue bool
	borrowedFrom  time.Time
	borrowedUntil time.Time
}

// UserID returns the user scope clause, if set.
func (f BorrowFilter) UserID() (uuid.UUID, bool) {
	if f.userID == nil {
		return uuid.Nil, false
	}

	return *f.userID, true
}

// BookID returns the book clause, if set.
func (f BorrowFilter) BookID() (uuid.UUID, bool) {
	if f.bookID == nil {
		return uuid.Nil, false
	}

	return *f.bookID, true
}

// Status returns the status clause, if set.
func (f BorrowFilter) Status() (BorrowStatus, bool) {
	if f.status == nil {
		return "", false
	}

	return *f.status, true
}

// OverdueOnly reports whether results are restricted to currently overdue
// borrows (APPROVED, past due, unreturned).
func (f BorrowFilter) OverdueOnly() bool {
	return f.overdueOnly
}

// SortByOverdue reports whether results should carry overdue days and be
// sorted descending by them.
func (f BorrowFilter) SortByOverdue() bool {
	return f.sortByOverdue
}

// BorrowedFrom returns the inclusive lower bound on borrowedAt; zero means
// unbounded.
func (f BorrowFilter) BorrowedFrom() time.Time {
	return f.borrowedFrom
}

// BorrowedUntil returns the inclusive upper bound on borrowedAt; zero means
// unbounded.
func (f BorrowFilter) BorrowedUntil() time.Time {
	return f.borrowedUntil
}

// BorrowedDuring returns a copy of the filter with the borrowedAt bounds set
// to the report period.
func (f BorrowFilter) BorrowedDuring(period ReportPeriod) BorrowFilter {
	f.borrowedFrom = period.Start
	f.borrowedUntil = period.End

	return f
}

// ScopedTo forces the user clause to the actor for non-admins, so visibility
// scoping cannot be bypassed by a caller-supplied filter.
func (f BorrowFilter) ScopedTo(actor Actor) BorrowFilter {
	if actor.IsAdmin() {
		return f
	}

	self := actor.ID
	f.userID = &self

	return f
}

/***** BorrowFilterBuilder *****/

// BorrowFilterBuilder builds a BorrowFilter from optional clauses. It
// sanitizes the input: nil UUIDs and empty statuses leave the clause unset.
type BorrowFilterBuilder struct {
	filter BorrowFilter
}

// BuildBorrowFilter creates a BorrowFilterBuilder which is finalized with
// Finalize().
func BuildBorrowFilter() *BorrowFilterBuilder {
	return &BorrowFilterBuilder{}
}

// ForUser restricts results to one user's borrows.
func (b *BorrowFilterBuilder) ForUser(id uuid.UUID) *BorrowFilterBuilder {
	if id != uuid.Nil {
		b.filter.userID = &id
	}

	return b
}

// ForBook restricts results to one book's borrows.
func (b *BorrowFilterBuilder) ForBook(id uuid.UUID) *BorrowFilterBuilder {
	if id != uuid.Nil {
		b.filter.bookID = &id
	}

	return b
}

// WithStatus restricts results to one lifecycle status.
func (b *BorrowFilterBuilder) WithStatus(status BorrowStatus) *BorrowFilterBuilder {
	if status.IsValid() {
		b.filter.status = &status
	}

	return b
}

// OverdueOnly restricts results to currently overdue borrows.
func (b *BorrowFilterBuilder) OverdueOnly() *BorrowFilterBuilder {
	b.filter.overdueOnly = true

	return b
}

// SortedByOverdue requests overdue days on each result and descending order
// by them.
func (b *BorrowFilterBuilder) SortedByOverdue() *BorrowFilterBuilder {
	b.filter.sortByOverdue = true

	return b
}

// BorrowedBetween bounds borrowedAt to the inclusive [from, until] range.
// Zero values leave the respective bound open.
func (b *BorrowFilterBuilder) BorrowedBetween(from, until time.Time) *BorrowFilterBuilder {
	b.filter.borrowedFrom = from
	b.filter.borrowedUntil = until

	return b
}

// Finalize returns the built filter.
func (b *BorrowFilterBuilder) Finalize() BorrowFilter {
	return b.filter
}
