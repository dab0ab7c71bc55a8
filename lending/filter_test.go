package lending_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/liblend/library-lending-go/lending"
)

func Test_BuildBorrowFilter_AllClausesSet(t *testing.T) {
	// arrange
	userID := uuid.New()
	bookID := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	// act
	filter := lending.BuildBorrowFilter().
		ForUser(userID).
		ForBook(bookID).
		WithStatus(lending.StatusApproved).
		OverdueOnly().
		SortedByOverdue().
		BorrowedBetween(from, until).
		Finalize()

	// assert
	gotUser, hasUser := filter.UserID()
	assert.True(t, hasUser)
	assert.Equal(t, userID, gotUser)

	gotBook, hasBook := filter.BookID()
	assert.True(t, hasBook)
	assert.Equal(t, bookID, gotBook)

	gotStatus, hasStatus := filter.Status()
	assert.True(t, hasStatus)
	assert.Equal(t, lending.StatusApproved, gotStatus)

	assert.True(t, filter.OverdueOnly())
	assert.True(t, filter.SortByOverdue())
	assert.Equal(t, from, filter.BorrowedFrom())
	assert.Equal(t, until, filter.BorrowedUntil())
}

func Test_BuildBorrowFilter_EmptyFilterHasNoClauses(t *testing.T) {
	// act
	filter := lending.BuildBorrowFilter().Finalize()

	// assert
	_, hasUser := filter.UserID()
	assert.False(t, hasUser)

	_, hasBook := filter.BookID()
	assert.False(t, hasBook)

	_, hasStatus := filter.Status()
	assert.False(t, hasStatus)

	assert.False(t, filter.OverdueOnly())
	assert.False(t, filter.SortByOverdue())
	assert.True(t, filter.BorrowedFrom().IsZero())
	assert.True(t, filter.BorrowedUntil().IsZero())
}

func Test_BuildBorrowFilter_SanitizesNilIDsAndInvalidStatus(t *testing.T) {
	// act
	filter := lending.BuildBorrowFilter().
		ForUser(uuid.Nil).
		ForBook(uuid.Nil).
		WithStatus(lending.BorrowStatus("LOST")).
		Finalize()

	// assert
	_, hasUser := filter.UserID()
	assert.False(t, hasUser)

	_, hasBook := filter.BookID()
	assert.False(t, hasBook)

	_, hasStatus := filter.Status()
	assert.False(t, hasStatus)
}

func Test_BorrowedDuring_BoundsTheFilterToThePeriod(t *testing.T) {
	// arrange
	period := lending.ReportPeriod{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	filter := lending.BuildBorrowFilter().WithStatus(lending.StatusReturned).Finalize()

	// act
	bounded := filter.BorrowedDuring(period)

	// assert
	assert.Equal(t, period.Start, bounded.BorrowedFrom())
	assert.Equal(t, period.End, bounded.BorrowedUntil())

	status, hasStatus := bounded.Status()
	assert.True(t, hasStatus)
	assert.Equal(t, lending.StatusReturned, status)
}

func Test_ScopedTo_ForcesTheUserClauseForMembers(t *testing.T) {
	// arrange
	member := givenMember()
	otherUserID := uuid.New()
	filter := lending.BuildBorrowFilter().ForUser(otherUserID).Finalize()

	// act
	scoped := filter.ScopedTo(member)

	// assert
	gotUser, hasUser := scoped.UserID()
	assert.True(t, hasUser)
	assert.Equal(t, member.ID, gotUser)
}

func Test_ScopedTo_LeavesAdminFiltersUntouched(t *testing.T) {
	// arrange
	admin := givenAdmin()
	otherUserID := uuid.New()
	filter := lending.BuildBorrowFilter().ForUser(otherUserID).Finalize()

	// act
	scoped := filter.ScopedTo(admin)

	// assert
	gotUser, hasUser := scoped.UserID()
	assert.True(t, hasUser)
	assert.Equal(t, otherUserID, gotUser)
}

func Test_ScopedTo_AdminWithoutUserClauseSeesEverything(t *testing.T) {
	// arrange
	admin := givenAdmin()
	filter := lending.BuildBorrowFilter().Finalize()

	// act
	scoped := filter.ScopedTo(admin)

	// assert
	_, hasUser := scoped.UserID()
	assert.False(t, hasUser)
}
