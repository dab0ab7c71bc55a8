package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/liblend/library-lending-go/lending"
	"github.com/liblend/library-lending-go/lending/postgresengine/internal/adapters"
)

const (
	opCreateBorrow = "create_borrow"
	opGetBorrow    = "get_borrow"
	opListBorrows  = "list_borrows"
	opUpdateBorrow = "update_borrow"
	opDeleteBorrow = "delete_borrow"

	logMsgBorrowCreated = "borrow created"
	logMsgBorrowUpdated = "borrow updated"
	logMsgBorrowDeleted = "borrow deleted"
	logMsgBorrowsListed = "borrows listed"
)

var errUnexpectedRowCount = errors.New("unexpected affected row count")

// CreateBorrow creates a borrow request in PENDING status for the acting
// user. Inventory is not touched; reservation happens at approval so multiple
// pending requests may compete for limited stock. The duplicate-active-borrow
// check and the insert run in one transaction with the book row locked, so
// two concurrent requests by the same user for the same book cannot both
// succeed.
func (s *Store) CreateBorrow(ctx context.Context, actor lending.Actor, bookID uuid.UUID, dueAt time.Time) (lending.Borrow, error) {
	ctx, finish := s.instrument(ctx, opCreateBorrow)

	borrow, err := s.createBorrow(ctx, actor, bookID, dueAt)
	finish(err)

	if err != nil {
		return lending.Borrow{}, err
	}

	s.logOperation(ctx, logMsgBorrowCreated,
		logAttrBorrowID, borrow.ID.String(),
		logAttrBookID, borrow.BookID.String(),
		logAttrUserID, borrow.UserID.String())

	return borrow, nil
}

func (s *Store) createBorrow(ctx context.Context, actor lending.Actor, bookID uuid.UUID, dueAt time.Time) (lending.Borrow, error) {
	var empty lending.Borrow

	if bookID == uuid.Nil || dueAt.IsZero() {
		return empty, lending.ErrMissingBorrowFields
	}

	borrow := lending.Borrow{
		ID:         uuid.New(),
		UserID:     actor.ID,
		BookID:     bookID,
		Status:     lending.StatusPending,
		BorrowedAt: s.clock(),
		DueAt:      dueAt,
	}

	txErr := s.withinTx(ctx, func(tx adapters.Querier) error {
		book, loadErr := s.loadBook(ctx, tx, bookID, lockForUpdate)
		if loadErr != nil {
			return loadErr
		}

		if !book.IsActive {
			return lending.ErrBookInactive
		}

		duplicate, dupErr := s.activeBorrowExists(ctx, tx, actor.ID, bookID)
		if dupErr != nil {
			return dupErr
		}

		if duplicate {
			return lending.ErrDuplicateActiveBorrow
		}

		return s.insertBorrow(ctx, tx, borrow)
	})
	if txErr != nil {
		return empty, txErr
	}

	return borrow, nil
}

// GetBorrow loads one borrow with its user and book summaries joined.
// Non-admin actors may only access their own borrows.
func (s *Store) GetBorrow(ctx context.Context, actor lending.Actor, borrowID uuid.UUID) (lending.BorrowRecord, error) {
	ctx, finish := s.instrument(ctx, opGetBorrow)

	record, err := s.getBorrow(ctx, actor, borrowID)
	finish(err)

	return record, err
}

func (s *Store) getBorrow(ctx context.Context, actor lending.Actor, borrowID uuid.UUID) (lending.BorrowRecord, error) {
	var empty lending.BorrowRecord

	stmt := s.borrowRecordDataset().Where(qualified(tableBorrows, colID).Eq(borrowID.String()))

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return empty, buildErr
	}

	records, queryErr := s.queryBorrowRecords(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}

	if len(records) == 0 {
		return empty, lending.ErrBorrowNotFound
	}

	record := records[0]
	if !actor.IsAdmin() && record.UserID != actor.ID {
		return empty, lending.ErrNotBorrowOwner
	}

	return record, nil
}

// ListBorrows lists borrows matching the filter, each with user and book
// summaries joined. Non-admin actors are always scoped to their own borrows
// regardless of the supplied filter. With SortByOverdue the results carry
// overdue days (negative when not yet due) and are ordered descending by
// them.
func (s *Store) ListBorrows(ctx context.Context, actor lending.Actor, filter lending.BorrowFilter) ([]lending.BorrowRecord, error) {
	ctx, finish := s.instrument(ctx, opListBorrows)

	records, err := s.listBorrows(ctx, actor, filter)
	finish(err)

	if err != nil {
		return nil, err
	}

	s.logOperation(ctx, logMsgBorrowsListed, logAttrResultCount, len(records))

	return records, nil
}

func (s *Store) listBorrows(ctx context.Context, actor lending.Actor, filter lending.BorrowFilter) ([]lending.BorrowRecord, error) {
	now := s.clock()
	scoped := filter.ScopedTo(actor)

	stmt := s.borrowRecordDataset().
		Where(s.borrowPredicates(scoped, now)...).
		Order(qualified(tableBorrows, colBorrowedAt).Desc())

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	records, queryErr := s.queryBorrowRecords(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}

	if scoped.SortByOverdue() {
		for i := range records {
			days := lending.OverdueDays(records[i].DueAt, now)
			records[i].OverdueDays = &days
		}

		sort.SliceStable(records, func(i, j int) bool {
			return *records[i].OverdueDays > *records[j].OverdueDays
		})
	}

	return records, nil
}

// UpdateBorrow applies the requested change to a borrow. Owners may repoint a
// PENDING borrow to another existing, active book; admins may transition the
// status following the transition table. Status writes and their inventory
// adjustments commit atomically; approving with no available copies fails
// with a conflict and changes nothing. Concurrent approvals racing for the
// last copy are serialized on the locked book row, so exactly one wins.
func (s *Store) UpdateBorrow(ctx context.Context, actor lending.Actor, borrowID uuid.UUID, request lending.UpdateRequest) (lending.Borrow, error) {
	ctx, finish := s.instrument(ctx, opUpdateBorrow)

	borrow, err := s.updateBorrow(ctx, actor, borrowID, request)
	finish(err)

	if err != nil {
		return lending.Borrow{}, err
	}

	s.logOperation(ctx, logMsgBorrowUpdated,
		logAttrBorrowID, borrow.ID.String(),
		logAttrStatus, string(borrow.Status))

	return borrow, nil
}

func (s *Store) updateBorrow(ctx context.Context, actor lending.Actor, borrowID uuid.UUID, request lending.UpdateRequest) (lending.Borrow, error) {
	var updated lending.Borrow

	txErr := s.withinTx(ctx, func(tx adapters.Querier) error {
		borrow, loadErr := s.loadBorrow(ctx, tx, borrowID, lockForUpdate)
		if loadErr != nil {
			return loadErr
		}

		decision, decideErr := lending.DecideUpdate(actor, borrow, request)
		if decideErr != nil {
			return decideErr
		}

		now := s.clock()

		if decision.NewBookID != nil {
			if err := s.applyBookChange(ctx, tx, &borrow, *decision.NewBookID); err != nil {
				return err
			}
		}

		if decision.NewStatus != nil {
			if err := s.applyStatusChange(ctx, tx, &borrow, decision, now); err != nil {
				return err
			}
		}

		updated = borrow

		return nil
	})
	if txErr != nil {
		return lending.Borrow{}, txErr
	}

	return updated, nil
}

// applyBookChange re-validates the new book exactly as in create, minus the
// duplicate-borrow check, and repoints the borrow.
func (s *Store) applyBookChange(ctx context.Context, tx adapters.Querier, borrow *lending.Borrow, newBookID uuid.UUID) error {
	book, loadErr := s.loadBook(ctx, tx, newBookID, lockNone)
	if loadErr != nil {
		return loadErr
	}

	if !book.IsActive {
		return lending.ErrBookInactive
	}

	if err := s.updateBorrowRow(ctx, tx, borrow.ID, goqu.Record{colBookID: newBookID.String()}); err != nil {
		return err
	}

	borrow.BookID = newBookID

	return nil
}

// applyStatusChange writes the status transition and its inventory adjustment
// as decided, within the caller's transaction.
func (s *Store) applyStatusChange(
	ctx context.Context,
	tx adapters.Querier,
	borrow *lending.Borrow,
	decision lending.UpdateDecision,
	now time.Time,
) error {

	if decision.AvailabilityDelta != 0 {
		book, loadErr := s.loadBook(ctx, tx, borrow.BookID, lockForUpdate)
		if loadErr != nil {
			return loadErr
		}

		if decision.RequiresAvailableCopy && book.AvailableQuantity <= 0 {
			return lending.ErrBookUnavailable
		}

		if err := s.setBookAvailability(ctx, tx, book.ID, book.AvailableQuantity+decision.AvailabilityDelta, now); err != nil {
			return err
		}
	}

	record := goqu.Record{colStatus: string(*decision.NewStatus)}

	if decision.SetApprovedAt {
		record[colApprovedAt] = now
		borrow.ApprovedAt = &now
	}

	if decision.SetReturnedAt {
		record[colReturnedAt] = now
		borrow.ReturnedAt = &now
	}

	if err := s.updateBorrowRow(ctx, tx, borrow.ID, record); err != nil {
		return err
	}

	borrow.Status = *decision.NewStatus

	return nil
}

// DeleteBorrow removes a borrow. Admins may delete any borrow; deleting an
// APPROVED one releases its reserved copy atomically with the delete. Owners
// may only delete their own PENDING borrows, with no inventory effect.
func (s *Store) DeleteBorrow(ctx context.Context, actor lending.Actor, borrowID uuid.UUID) error {
	ctx, finish := s.instrument(ctx, opDeleteBorrow)

	err := s.deleteBorrow(ctx, actor, borrowID)
	finish(err)

	if err != nil {
		return err
	}

	s.logOperation(ctx, logMsgBorrowDeleted, logAttrBorrowID, borrowID.String())

	return nil
}

func (s *Store) deleteBorrow(ctx context.Context, actor lending.Actor, borrowID uuid.UUID) error {
	return s.withinTx(ctx, func(tx adapters.Querier) error {
		borrow, loadErr := s.loadBorrow(ctx, tx, borrowID, lockForUpdate)
		if loadErr != nil {
			return loadErr
		}

		availabilityDelta, decideErr := lending.DecideDelete(actor, borrow)
		if decideErr != nil {
			return decideErr
		}

		if availabilityDelta != 0 {
			book, bookErr := s.loadBook(ctx, tx, borrow.BookID, lockForUpdate)
			if bookErr != nil {
				return bookErr
			}

			if err := s.setBookAvailability(ctx, tx, book.ID, book.AvailableQuantity+availabilityDelta, s.clock()); err != nil {
				return err
			}
		}

		stmt := s.builder().Delete(tableBorrows).Where(goqu.C(colID).Eq(borrow.ID.String()))

		sqlQuery, buildErr := s.toSQL(stmt)
		if buildErr != nil {
			return buildErr
		}

		rowsAffected, _, execErr := s.executeStatement(ctx, tx, sqlQuery)
		if execErr != nil {
			return execErr
		}

		if rowsAffected != 1 {
			return errors.Join(lending.ErrInternal, errUnexpectedRowCount)
		}

		return nil
	})
}

/***** row access helpers *****/

const (
	lockNone      = false
	lockForUpdate = true
)

func qualified(table, column string) exp.IdentifierExpression {
	return goqu.I(table + "." + column)
}

// borrowRecordDataset selects borrows joined with their user and book
// summaries, in scan order of scanBorrowRecord.
func (s *Store) borrowRecordDataset() *goqu.SelectDataset {
	return s.builder().
		From(tableBorrows).
		Join(goqu.T(tableBooks), goqu.On(qualified(tableBorrows, colBookID).Eq(qualified(tableBooks, colID)))).
		Join(goqu.T(tableUsers), goqu.On(qualified(tableBorrows, colUserID).Eq(qualified(tableUsers, colID)))).
		Select(
			qualified(tableBorrows, colID),
			qualified(tableBorrows, colUserID),
			qualified(tableBorrows, colBookID),
			qualified(tableBorrows, colStatus),
			qualified(tableBorrows, colBorrowedAt),
			qualified(tableBorrows, colDueAt),
			qualified(tableBorrows, colApprovedAt),
			qualified(tableBorrows, colReturnedAt),
			qualified(tableUsers, colName),
			qualified(tableUsers, colEmail),
			qualified(tableBooks, colTitle),
			qualified(tableBooks, colAuthor),
			qualified(tableBooks, colISBN),
			qualified(tableBooks, colShelfLocation),
		)
}

// borrowPredicates builds the composed borrow list predicate: one clause per
// set filter field, combined with AND.
func (s *Store) borrowPredicates(filter lending.BorrowFilter, now time.Time) []goqu.Expression {
	expressions := make([]goqu.Expression, 0)

	if userID, ok := filter.UserID(); ok {
		expressions = append(expressions, qualified(tableBorrows, colUserID).Eq(userID.String()))
	}

	if bookID, ok := filter.BookID(); ok {
		expressions = append(expressions, qualified(tableBorrows, colBookID).Eq(bookID.String()))
	}

	if status, ok := filter.Status(); ok {
		expressions = append(expressions, qualified(tableBorrows, colStatus).Eq(string(status)))
	}

	if filter.OverdueOnly() {
		expressions = append(expressions,
			qualified(tableBorrows, colStatus).Eq(string(lending.StatusApproved)),
			qualified(tableBorrows, colDueAt).Lt(now),
			qualified(tableBorrows, colReturnedAt).IsNull(),
		)
	}

	if !filter.BorrowedFrom().IsZero() {
		expressions = append(expressions, qualified(tableBorrows, colBorrowedAt).Gte(filter.BorrowedFrom()))
	}

	if !filter.BorrowedUntil().IsZero() {
		expressions = append(expressions, qualified(tableBorrows, colBorrowedAt).Lte(filter.BorrowedUntil()))
	}

	return expressions
}

// queryBorrowRecords executes a borrow record query and scans all rows.
func (s *Store) queryBorrowRecords(ctx context.Context, querier adapters.Querier, sqlQuery sqlQueryString) ([]lending.BorrowRecord, error) {
	rows, _, queryErr := s.executeQuery(ctx, querier, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	records := make([]lending.BorrowRecord, 0)

	for rows.Next() {
		var record lending.BorrowRecord
		var status string
		var approvedAt, returnedAt sql.NullTime

		scanErr := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.BookID,
			&status,
			&record.BorrowedAt,
			&record.DueAt,
			&approvedAt,
			&returnedAt,
			&record.User.Name,
			&record.User.Email,
			&record.Book.Title,
			&record.Book.Author,
			&record.Book.ISBN,
			&record.Book.ShelfLocation,
		)
		if scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr)
			return nil, errors.Join(lending.ErrInternal, scanErr)
		}

		record.Status = lending.BorrowStatus(status)
		record.User.ID = record.UserID
		record.Book.ID = record.BookID

		if approvedAt.Valid {
			ts := approvedAt.Time
			record.ApprovedAt = &ts
		}

		if returnedAt.Valid {
			ts := returnedAt.Time
			record.ReturnedAt = &ts
		}

		records = append(records, record)
	}

	return records, nil
}

// loadBorrow loads one borrow row, optionally locked for the duration of the
// surrounding transaction.
func (s *Store) loadBorrow(ctx context.Context, querier adapters.Querier, borrowID uuid.UUID, forUpdate bool) (lending.Borrow, error) {
	var empty lending.Borrow

	stmt := s.builder().
		From(tableBorrows).
		Select(colID, colUserID, colBookID, colStatus, colBorrowedAt, colDueAt, colApprovedAt, colReturnedAt).
		Where(goqu.C(colID).Eq(borrowID.String()))

	if forUpdate {
		stmt = stmt.ForUpdate(exp.Wait)
	}

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return empty, buildErr
	}

	rows, _, queryErr := s.executeQuery(ctx, querier, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return empty, lending.ErrBorrowNotFound
	}

	var borrow lending.Borrow
	var status string
	var approvedAt, returnedAt sql.NullTime

	scanErr := rows.Scan(&borrow.ID, &borrow.UserID, &borrow.BookID, &status, &borrow.BorrowedAt, &borrow.DueAt, &approvedAt, &returnedAt)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr)
		return empty, errors.Join(lending.ErrInternal, scanErr)
	}

	borrow.Status = lending.BorrowStatus(status)

	if approvedAt.Valid {
		ts := approvedAt.Time
		borrow.ApprovedAt = &ts
	}

	if returnedAt.Valid {
		ts := returnedAt.Time
		borrow.ReturnedAt = &ts
	}

	return borrow, nil
}

// activeBorrowExists reports whether the user already holds a PENDING or
// APPROVED borrow for the book.
func (s *Store) activeBorrowExists(ctx context.Context, querier adapters.Querier, userID, bookID uuid.UUID) (bool, error) {
	stmt := s.builder().
		From(tableBorrows).
		Select(colID).
		Where(
			goqu.C(colUserID).Eq(userID.String()),
			goqu.C(colBookID).Eq(bookID.String()),
			goqu.C(colStatus).In(string(lending.StatusPending), string(lending.StatusApproved)),
		).
		Limit(1)

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return false, buildErr
	}

	rows, _, queryErr := s.executeQuery(ctx, querier, sqlQuery)
	if queryErr != nil {
		return false, queryErr
	}
	defer s.closeRows(rows)

	return rows.Next(), nil
}

func (s *Store) insertBorrow(ctx context.Context, querier adapters.Querier, borrow lending.Borrow) error {
	stmt := s.builder().Insert(tableBorrows).Rows(goqu.Record{
		colID:         borrow.ID.String(),
		colUserID:     borrow.UserID.String(),
		colBookID:     borrow.BookID.String(),
		colStatus:     string(borrow.Status),
		colBorrowedAt: borrow.BorrowedAt,
		colDueAt:      borrow.DueAt,
	})

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return buildErr
	}

	_, _, execErr := s.executeStatement(ctx, querier, sqlQuery)

	return execErr
}

func (s *Store) updateBorrowRow(ctx context.Context, querier adapters.Querier, borrowID uuid.UUID, record goqu.Record) error {
	stmt := s.builder().
		Update(tableBorrows).
		Set(record).
		Where(goqu.C(colID).Eq(borrowID.String()))

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, _, execErr := s.executeStatement(ctx, querier, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected != 1 {
		return errors.Join(lending.ErrInternal, errUnexpectedRowCount)
	}

	return nil
}
