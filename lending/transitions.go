package lending

import (
	"slices"

	"github.com/google/uuid"
)

// allowedTransitions is the complete borrow status machine. Statuses missing
// from a target list can never be reached from that source; REJECTED and
// RETURNED are terminal.
var allowedTransitions = map[BorrowStatus][]BorrowStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusReturned},
	StatusRejected: {},
	StatusReturned: {},
}

// CanTransition reports whether the status machine allows moving a borrow
// from one status to another.
func CanTransition(from, to BorrowStatus) bool {
	return slices.Contains(allowedTransitions[from], to)
}

// UpdateRequest is the requested change to a borrow. Owners may only set
// BookID, admins may only set Status; DecideUpdate enforces the dispatch.
type UpdateRequest struct {
	BookID *uuid.UUID
	Status *BorrowStatus
}

// UpdateDecision describes the writes the engine must apply for an accepted
// update request. AvailabilityDelta is the inventory adjustment that must be
// committed atomically with the status write; RequiresAvailableCopy marks
// decisions that additionally need availableQuantity > 0 at commit time.
type UpdateDecision struct {
	NewBookID             *uuid.UUID
	NewStatus             *BorrowStatus
	SetApprovedAt         bool
	SetReturnedAt         bool
	AvailabilityDelta     int
	RequiresAvailableCopy bool
}

// DecideUpdate implements the role dispatch and transition guards for borrow
// updates as a pure function over (actor, current state, requested change).
//
// Rules:
//
//	GIVEN: a borrow and an actor
//	WHEN: the actor is not an admin
//	THEN: only the book may change, only while the borrow is PENDING, and
//	      only by its owner; the new book is re-validated by the engine
//	WHEN: the actor is an admin
//	THEN: only the status may change, following the transition table;
//	      APPROVED reserves a copy, RETURNED releases one
func DecideUpdate(actor Actor, current Borrow, request UpdateRequest) (UpdateDecision, error) {
	var empty UpdateDecision

	if !actor.IsAdmin() {
		if current.UserID != actor.ID {
			return empty, ErrNotBorrowOwner
		}

		if current.Status != StatusPending {
			return empty, ErrBorrowNotPending
		}

		if request.BookID == nil || *request.BookID == uuid.Nil {
			return empty, ErrBookIDRequired
		}

		return UpdateDecision{NewBookID: request.BookID}, nil
	}

	if request.Status == nil {
		return empty, ErrStatusRequired
	}

	requested := *request.Status
	if !requested.IsValid() {
		return empty, ErrUnknownStatus
	}

	if !CanTransition(current.Status, requested) {
		return empty, InvalidTransitionError(current.Status, requested)
	}

	decision := UpdateDecision{NewStatus: &requested}

	switch requested {
	case StatusApproved:
		decision.SetApprovedAt = true
		decision.AvailabilityDelta = -1
		decision.RequiresAvailableCopy = true

	case StatusReturned:
		decision.SetReturnedAt = true
		decision.AvailabilityDelta = 1
	}

	return decision, nil
}

// DecideDelete returns the inventory adjustment a borrow deletion must apply,
// or an error if the actor may not delete the borrow. Deleting an APPROVED
// borrow compensates the reservation; admins may delete any borrow, owners
// only their own PENDING ones.
func DecideDelete(actor Actor, current Borrow) (int, error) {
	if !actor.IsAdmin() {
		if current.UserID != actor.ID {
			return 0, ErrNotBorrowOwner
		}

		if current.Status != StatusPending {
			return 0, ErrDeleteNotPending
		}

		return 0, nil
	}

	if current.Status == StatusApproved {
		return 1, nil
	}

	return 0, nil
}
