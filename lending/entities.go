package lending

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Role is the role of an authenticated principal as attached by the auth
// collaborator before a call reaches the engine.
type Role string

const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// Actor is the authenticated principal performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// BorrowStatus is the lifecycle status of a borrow.
type BorrowStatus string

const (
	StatusPending  BorrowStatus = "PENDING"
	StatusApproved BorrowStatus = "APPROVED"
	StatusRejected BorrowStatus = "REJECTED"
	StatusReturned BorrowStatus = "RETURNED"
)

// AllBorrowStatuses returns every lifecycle status in declaration order.
func AllBorrowStatuses() []BorrowStatus {
	return []BorrowStatus{StatusPending, StatusApproved, StatusRejected, StatusReturned}
}

// IsValid reports whether s is one of the four known statuses.
func (s BorrowStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusReturned:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s BorrowStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusReturned
}

// IsActive reports whether a borrow in this status still occupies the
// user+book uniqueness slot (PENDING or APPROVED).
func (s BorrowStatus) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

// User is a registered library user. The password hash is owned by the auth
// collaborator and never serialized.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Book is a title in the catalog. AvailableQuantity is the single source of
// truth for copies not currently lent out and must stay within
// [0, TotalQuantity] after every operation.
type Book struct {
	ID                uuid.UUID `json:"id"`
	ISBN              string    `json:"isbn"`
	Title             string    `json:"title"`
	Author            string    `json:"author"`
	ShelfLocation     string    `json:"shelfLocation"`
	TotalQuantity     int       `json:"totalQuantity"`
	AvailableQuantity int       `json:"availableQuantity"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// LentOut is the number of copies currently reserved by approved, unreturned
// borrows.
func (b Book) LentOut() int {
	return b.TotalQuantity - b.AvailableQuantity
}

// Borrow links a user and a book through the lending lifecycle.
// ApprovedAt and ReturnedAt are nil until the respective transition happened.
type Borrow struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"userId"`
	BookID     uuid.UUID    `json:"bookId"`
	Status     BorrowStatus `json:"status"`
	BorrowedAt time.Time    `json:"borrowedAt"`
	DueAt      time.Time    `json:"dueAt"`
	ApprovedAt *time.Time   `json:"approvedAt"`
	ReturnedAt *time.Time   `json:"returnedAt"`
}

// IsOverdue reports whether the borrow is approved, unreturned and past due
// at the given point in time.
func (b Borrow) IsOverdue(now time.Time) bool {
	return b.Status == StatusApproved && b.DueAt.Before(now) && b.ReturnedAt == nil
}

// UserSummary is the user projection joined onto borrow listings and reports.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// BookSummary is the book projection joined onto borrow listings and reports.
type BookSummary struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          string    `json:"isbn"`
	ShelfLocation string    `json:"shelfLocation"`
}

// BorrowRecord is a borrow with its user and book summaries joined.
// OverdueDays is only populated when a listing was requested sorted by
// overdue days; it may be negative for borrows not yet due.
type BorrowRecord struct {
	Borrow
	OverdueDays *int        `json:"overdueDays,omitempty"`
	User        UserSummary `json:"user"`
	Book        BookSummary `json:"book"`
}

// BookChanges is a partial update to a book. Nil fields are left unchanged.
// TotalQuantity edits preserve the currently lent-out count: the available
// quantity moves by the same delta as the total.
type BookChanges struct {
	ISBN          *string
	Title         *string
	Author        *string
	ShelfLocation *string
	TotalQuantity *int
	IsActive      *bool
}

// OverdueDays returns how many whole days the due date lies in the past,
// rounding towards negative infinity, so a due date in the future yields a
// negative value.
func OverdueDays(dueAt time.Time, now time.Time) int {
	return int(math.Floor(now.Sub(dueAt).Hours() / 24))
}

const dueDateOnlyFormat = "2006-01-02"

// ParseDueDate parses a caller-supplied due date, accepting RFC 3339
// timestamps or plain dates.
func ParseDueDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, ErrMissingBorrowFields
	}

	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}

	ts, err := time.Parse(dueDateOnlyFormat, value)
	if err != nil {
		return time.Time{}, ErrInvalidDueDate
	}

	return ts, nil
}
