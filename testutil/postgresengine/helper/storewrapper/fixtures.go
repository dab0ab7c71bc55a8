package storewrapper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/liblend/library-lending-go/lending"
	"github.com/liblend/library-lending-go/lending/postgresengine"
)

// GivenAdmin arranges an admin actor backed by a stored user.
func GivenAdmin(t testing.TB, store *postgresengine.Store) lending.Actor {
	t.Helper()

	user, err := store.CreateUser(context.Background(), postgresengine.NewUser{
		Email: uniqueEmail("admin"),
		Name:  "Test Admin",
		Role:  lending.RoleAdmin,
	})
	assert.NoError(t, err, "error in arranging test data: admin user")

	return lending.Actor{ID: user.ID, Role: lending.RoleAdmin}
}

// GivenMember arranges a member actor backed by a stored user.
func GivenMember(t testing.TB, store *postgresengine.Store) lending.Actor {
	t.Helper()

	user, err := store.CreateUser(context.Background(), postgresengine.NewUser{
		Email: uniqueEmail("member"),
		Name:  "Test Member",
	})
	assert.NoError(t, err, "error in arranging test data: member user")

	return lending.Actor{ID: user.ID, Role: lending.RoleMember}
}

// GivenBook arranges an active book with the given number of copies.
func GivenBook(t testing.TB, store *postgresengine.Store, copies int) lending.Book {
	t.Helper()

	book, err := store.CreateBook(context.Background(), postgresengine.NewBook{
		ISBN:          uniqueISBN(),
		Title:         "The Pragmatic Programmer",
		Author:        "Hunt / Thomas",
		ShelfLocation: "A-12",
		TotalQuantity: copies,
	})
	assert.NoError(t, err, "error in arranging test data: book")

	return book
}

// GivenPendingBorrow arranges a PENDING borrow due in one week.
func GivenPendingBorrow(t testing.TB, store *postgresengine.Store, actor lending.Actor, bookID uuid.UUID) lending.Borrow {
	t.Helper()

	borrow, err := store.CreateBorrow(context.Background(), actor, bookID, time.Now().UTC().AddDate(0, 0, 7))
	assert.NoError(t, err, "error in arranging test data: pending borrow")

	return borrow
}

// GivenApprovedBorrow arranges an APPROVED borrow due in one week, approved
// by the given admin.
func GivenApprovedBorrow(
	t testing.TB,
	store *postgresengine.Store,
	admin lending.Actor,
	member lending.Actor,
	bookID uuid.UUID,
) lending.Borrow {

	t.Helper()

	pending := GivenPendingBorrow(t, store, member, bookID)

	status := lending.StatusApproved
	approved, err := store.UpdateBorrow(context.Background(), admin, pending.ID, lending.UpdateRequest{Status: &status})
	assert.NoError(t, err, "error in arranging test data: approved borrow")

	return approved
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}

func uniqueISBN() string {
	return fmt.Sprintf("978-%s", uuid.NewString()[:13])
}
