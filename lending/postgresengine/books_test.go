package postgresengine_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liblend/library-lending-go/lending"
	"github.com/liblend/library-lending-go/lending/postgresengine"
	"github.com/liblend/library-lending-go/testutil/postgresengine/helper/storewrapper"
)

func Test_CreateBook_AllCopiesStartAvailable(t *testing.T) {
	store, wrapper := setup(t)
	defer wrapper.Close()

	// act
	book, err := store.CreateBook(context.Background(), postgresengine.NewBook{
		ISBN:          "978-0134190440",
		Title:         "The Go Programming Language",
		Author:        "Donovan / Kernighan",
		ShelfLocation: "A-01",
		TotalQuantity: 4,
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 4, book.TotalQuantity)
	assert.Equal(t, 4, book.AvailableQuantity)
	assert.True(t, book.IsActive)

	reloaded, err := store.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ISBN, reloaded.ISBN)
}

func Test_CreateBook_RejectsMissingFieldsAndNegativeQuantity(t *testing.T) {
	store, wrapper := setup(t)
	defer wrapper.Close()

	_, err := store.CreateBook(context.Background(), postgresengine.NewBook{Title: "No ISBN"})
	assert.ErrorIs(t, err, lending.ErrMissingBookFields)

	_, err = store.CreateBook(context.Background(), postgresengine.NewBook{
		ISBN:          "978-1",
		Title:         "Negative",
		Author:        "Anyone",
		ShelfLocation: "Z-99",
		TotalQuantity: -1,
	})
	assert.ErrorIs(t, err, lending.ErrNegativeQuantity)
}

func Test_CreateBook_DuplicateISBN_IsConflict(t *testing.T) {
	store, wrapper := setup(t)
	defer wrapper.Close()

	// arrange
	book := storewrapper.GivenBook(t, store, 1)

	// act
	_, err := store.CreateBook(context.Background(), postgresengine.NewBook{
		ISBN:          book.ISBN,
		Title:         "Same ISBN Again",
		Author:        "Anyone",
		ShelfLocation: "Z-99",
		TotalQuantity: 1,
	})

	// assert
	assert.ErrorIs(t, err, lending.ErrDuplicateValue)
	assert.ErrorContains(t, err, "isbn")
}

func Test_GetBook_UnknownID_IsNotFound(t *testing.T) {
	store, wrapper := setup(t)
	defer wrapper.Close()

	_, err := store.GetBook(context.Background(), uuid.New())

	assert.ErrorIs(t, err, lending.ErrBookNotFound)
}

func Test_SearchBooks_MatchesCaseInsensitiveSubstrings(t *testing.T) {
	store, wrapper := setup(t)
	defer wrapper.Close()

	// arrange
	_, err := store.CreateBook(context.Background(), postgresengine.NewBook{
		ISBN: "978-0134190440", Title: "The Go Programming Language", Author: "Donovan / Kernighan", ShelfLocation: "A-01", TotalQuantity: 1,
	})
	require.NoError(t, err)

	_, err = store.CreateBook(context.Background(), postgresengine.NewBook{
		ISBN: "978-0201616224", Title: "The Pragmatic Programmer", Author: "Hunt / Thomas", ShelfLocation: "A-02", TotalQuantity: 1,
	})
	require.NoError(t, err)

	// act + assert
	byTitle, err := store.SearchBooks(context.Background(), postgresengine.BookSearch{Title: "go programming"})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "The Go Programming Language", byTitle[0].Title)

	byAuthor, err := store.SearchBooks(context.Background(), postgresengine.BookSearch{Author: "hunt"})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)

	all, err := store.SearchBooks(context.Background(), postgresengine.BookSearch{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := store.SearchBooks(context.Background(), postgresengine.BookSearch{Title: "rust"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func Test_SearchBooks_ActiveOnlyExcludesDeactivatedBooks(t *testing.T) {
	store, wrapper := setup(t)
	defer wrapper.Close()

	// arrange
	active := storewrapper.GivenBook(t, store, 1)
	deactivated := storewrapper.GivenBook(t, store, 1)

	inactive := false
	_, err := store.UpdateBook(context.Background(), deactivated.ID, lending.BookChanges{IsActive: &inactive})
	require.NoError(t, err)

	// act
	books, err := store.SearchBooks(context.Background(), postgresengine.BookSearch{ActiveOnly: true})

	// assert
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, active.ID, books[0].ID)
}

func Test_UpdateBook_TotalQuantityChange_PreservesTheLentOutCount(t *testing.T) {
	store, wrapper := setup(t)
	defer wrapper.Close()

	// arrange: 5 copies, 2 lent out
	admin := storewrapper.GivenAdmin(t, store)
	book := storewrapper.GivenBook(t, store, 5)

	storewrapper.GivenApprovedBorrow(t, store, admin, storewrapper.GivenMember(t, store), book.ID)
	storewrapper.GivenApprovedBorrow(t, store, admin, storewrapper.GivenMember(t, store), book.ID)

	// act: shrink the total to 3
	newTotal := 3
	updated, err := store.UpdateBook(context.Background(), book.ID, lending.BookChanges{TotalQuantity: &newTotal})

	// assert: available moved with the same delta, lent out stays 2
	require.NoError(t, err)
	assert.Equal(t, 3, updated.TotalQuantity)
	assert.Equal(t, 1, updated.AvailableQuantity)
	assert.Equal(t, 2, updated.LentOut())
}

func Test_UpdateBook_TotalBelowLentOut_IsConflict(t *testing.T) {
	store, wrapper := setup(t)
	defer wrapper.Close()

	// arrange: 2 copies, both lent out
	admin := storewrapper.GivenAdmin(t, store)
	book := storewrapper.GivenBook(t, store, 2)

	storewrapper.GivenApprovedBorrow(t, store, admin, storewrapper.GivenMember(t, store), book.ID)
	storewrapper.GivenApprovedBorrow(t, store, admin, storewrapper.GivenMember(t, store), book.ID)

	// act
	newTotal := 1
	_, err := store.UpdateBook(context.Background(), book.ID, lending.BookChanges{TotalQuantity: &newTotal})

	// assert
	assert.ErrorIs(t, err, lending.ErrQuantityBelowLentOut)

	reloaded, getErr := store.GetBook(context.Background(), book.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 2, reloaded.TotalQuantity)
}

func Test_UpdateBook_PartialUpdateLeavesOtherFieldsUntouched(t *testing.T) {
	store, wrapper := setup(t)
	defer wrapper.Close()

	// arrange
	book := storewrapper.GivenBook(t, store, 2)

	// act
	newTitle := "Renamed Title"
	updated, err := store.UpdateBook(context.Background(), book.ID, lending.BookChanges{Title: &newTitle})

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Renamed Title", updated.Title)
	assert.Equal(t, book.ISBN, updated.ISBN)
	assert.Equal(t, book.TotalQuantity, updated.TotalQuantity)
	assert.Equal(t, book.AvailableQuantity, updated.AvailableQuantity)
}

func Test_DeleteBook_ReferencedByBorrows_IsConflict(t *testing.T) {
	store, wrapper := setup(t)
	defer wrapper.Close()

	// arrange
	member := storewrapper.GivenMember(t, store)
	book := storewrapper.GivenBook(t, store, 1)
	storewrapper.GivenPendingBorrow(t, store, member, book.ID)

	// act
	err := store.DeleteBook(context.Background(), book.ID)

	// assert
	assert.ErrorIs(t, err, lending.ErrRecordInUse)
}

func Test_DeleteBook_UnreferencedBookIsRemoved(t *testing.T) {
	store, wrapper := setup(t)
	defer wrapper.Close()

	// arrange
	book := storewrapper.GivenBook(t, store, 1)

	// act
	require.NoError(t, store.DeleteBook(context.Background(), book.ID))

	// assert
	_, err := store.GetBook(context.Background(), book.ID)
	assert.ErrorIs(t, err, lending.ErrBookNotFound)

	assert.ErrorIs(t, store.DeleteBook(context.Background(), uuid.New()), lending.ErrBookNotFound)
}
