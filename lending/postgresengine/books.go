package postgresengine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/liblend/library-lending-go/lending"
	"github.com/liblend/library-lending-go/lending/postgresengine/internal/adapters"
)

const (
	opCreateBook  = "create_book"
	opGetBook     = "get_book"
	opSearchBooks = "search_books"
	opUpdateBook  = "update_book"
	opDeleteBook  = "delete_book"

	logMsgBookCreated = "book created"
	logMsgBookUpdated = "book updated"
	logMsgBookDeleted = "book deleted"
)

// NewBook is the caller-supplied data for adding a title to the catalog.
type NewBook struct {
	ISBN          string
	Title         string
	Author        string
	ShelfLocation string
	TotalQuantity int
}

// BookSearch narrows SearchBooks results. Empty fields match everything,
// text fields match case-insensitive substrings.
type BookSearch struct {
	Title      string
	Author     string
	ISBN       string
	ActiveOnly bool
}

// CreateBook adds a title to the catalog with all copies available. The ISBN
// must be unique across the catalog.
func (s *Store) CreateBook(ctx context.Context, book NewBook) (lending.Book, error) {
	ctx, finish := s.instrument(ctx, opCreateBook)

	created, err := s.createBook(ctx, book)
	finish(err)

	if err != nil {
		return lending.Book{}, err
	}

	s.logOperation(ctx, logMsgBookCreated, logAttrBookID, created.ID.String())

	return created, nil
}

func (s *Store) createBook(ctx context.Context, book NewBook) (lending.Book, error) {
	var empty lending.Book

	if strings.TrimSpace(book.ISBN) == "" ||
		strings.TrimSpace(book.Title) == "" ||
		strings.TrimSpace(book.Author) == "" ||
		strings.TrimSpace(book.ShelfLocation) == "" {

		return empty, lending.ErrMissingBookFields
	}

	if book.TotalQuantity < 0 {
		return empty, lending.ErrNegativeQuantity
	}

	now := s.clock()
	created := lending.Book{
		ID:                uuid.New(),
		ISBN:              book.ISBN,
		Title:             book.Title,
		Author:            book.Author,
		ShelfLocation:     book.ShelfLocation,
		TotalQuantity:     book.TotalQuantity,
		AvailableQuantity: book.TotalQuantity,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	stmt := s.builder().Insert(tableBooks).Rows(goqu.Record{
		colID:                created.ID.String(),
		colISBN:              created.ISBN,
		colTitle:             created.Title,
		colAuthor:            created.Author,
		colShelfLocation:     created.ShelfLocation,
		colTotalQuantity:     created.TotalQuantity,
		colAvailableQuantity: created.AvailableQuantity,
		colIsActive:          created.IsActive,
		colCreatedAt:         created.CreatedAt,
		colUpdatedAt:         created.UpdatedAt,
	})

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return empty, buildErr
	}

	if _, _, execErr := s.executeStatement(ctx, s.db, sqlQuery); execErr != nil {
		return empty, execErr
	}

	return created, nil
}

// GetBook loads one book by id.
func (s *Store) GetBook(ctx context.Context, bookID uuid.UUID) (lending.Book, error) {
	ctx, finish := s.instrument(ctx, opGetBook)

	book, err := s.loadBook(ctx, s.db, bookID, lockNone)
	finish(err)

	return book, err
}

// SearchBooks lists catalog entries matching the search, newest first.
func (s *Store) SearchBooks(ctx context.Context, search BookSearch) ([]lending.Book, error) {
	ctx, finish := s.instrument(ctx, opSearchBooks)

	books, err := s.searchBooks(ctx, search)
	finish(err)

	return books, err
}

func (s *Store) searchBooks(ctx context.Context, search BookSearch) ([]lending.Book, error) {
	stmt := s.bookDataset().
		Where(bookPredicates(search)...).
		Order(goqu.C(colCreatedAt).Desc())

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, _, queryErr := s.executeQuery(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	books := make([]lending.Book, 0)

	for rows.Next() {
		book, scanErr := s.scanBook(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		books = append(books, book)
	}

	return books, nil
}

func bookPredicates(search BookSearch) []goqu.Expression {
	expressions := make([]goqu.Expression, 0)

	if search.Title != "" {
		expressions = append(expressions, goqu.C(colTitle).ILike("%"+search.Title+"%"))
	}

	if search.Author != "" {
		expressions = append(expressions, goqu.C(colAuthor).ILike("%"+search.Author+"%"))
	}

	if search.ISBN != "" {
		expressions = append(expressions, goqu.C(colISBN).ILike("%"+search.ISBN+"%"))
	}

	if search.ActiveOnly {
		expressions = append(expressions, goqu.C(colIsActive).IsTrue())
	}

	return expressions
}

// UpdateBook applies a partial update. A total quantity change keeps the
// currently lent-out count intact by moving the available quantity with the
// same delta, and is rejected when the new total would drop below the copies
// currently lent out. The read and the write run under a row lock so racing
// approvals cannot interleave with the recomputation.
func (s *Store) UpdateBook(ctx context.Context, bookID uuid.UUID, changes lending.BookChanges) (lending.Book, error) {
	ctx, finish := s.instrument(ctx, opUpdateBook)

	book, err := s.updateBook(ctx, bookID, changes)
	finish(err)

	if err != nil {
		return lending.Book{}, err
	}

	s.logOperation(ctx, logMsgBookUpdated, logAttrBookID, book.ID.String())

	return book, nil
}

func (s *Store) updateBook(ctx context.Context, bookID uuid.UUID, changes lending.BookChanges) (lending.Book, error) {
	var updated lending.Book

	txErr := s.withinTx(ctx, func(tx adapters.Querier) error {
		book, loadErr := s.loadBook(ctx, tx, bookID, lockForUpdate)
		if loadErr != nil {
			return loadErr
		}

		record := goqu.Record{}

		if changes.ISBN != nil {
			book.ISBN = *changes.ISBN
			record[colISBN] = book.ISBN
		}

		if changes.Title != nil {
			book.Title = *changes.Title
			record[colTitle] = book.Title
		}

		if changes.Author != nil {
			book.Author = *changes.Author
			record[colAuthor] = book.Author
		}

		if changes.ShelfLocation != nil {
			book.ShelfLocation = *changes.ShelfLocation
			record[colShelfLocation] = book.ShelfLocation
		}

		if changes.IsActive != nil {
			book.IsActive = *changes.IsActive
			record[colIsActive] = book.IsActive
		}

		if changes.TotalQuantity != nil {
			newTotal := *changes.TotalQuantity
			if newTotal < 0 {
				return lending.ErrNegativeQuantity
			}

			lentOut := book.LentOut()
			if newTotal < lentOut {
				return lending.ErrQuantityBelowLentOut
			}

			book.TotalQuantity = newTotal
			book.AvailableQuantity = newTotal - lentOut
			record[colTotalQuantity] = book.TotalQuantity
			record[colAvailableQuantity] = book.AvailableQuantity
		}

		if len(record) == 0 {
			updated = book
			return nil
		}

		book.UpdatedAt = s.clock()
		record[colUpdatedAt] = book.UpdatedAt

		stmt := s.builder().
			Update(tableBooks).
			Set(record).
			Where(goqu.C(colID).Eq(book.ID.String()))

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

		updated = book

		return nil
	})
	if txErr != nil {
		return lending.Book{}, txErr
	}

	return updated, nil
}

// DeleteBook removes a book from the catalog. A book referenced by any borrow
// cannot be deleted and surfaces as a conflict; deactivate it instead.
func (s *Store) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	ctx, finish := s.instrument(ctx, opDeleteBook)

	err := s.deleteBook(ctx, bookID)
	finish(err)

	if err != nil {
		return err
	}

	s.logOperation(ctx, logMsgBookDeleted, logAttrBookID, bookID.String())

	return nil
}

func (s *Store) deleteBook(ctx context.Context, bookID uuid.UUID) error {
	stmt := s.builder().Delete(tableBooks).Where(goqu.C(colID).Eq(bookID.String()))

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, _, execErr := s.executeStatement(ctx, s.db, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return lending.ErrBookNotFound
	}

	return nil
}

func (s *Store) bookDataset() *goqu.SelectDataset {
	return s.builder().
		From(tableBooks).
		Select(
			colID,
			colISBN,
			colTitle,
			colAuthor,
			colShelfLocation,
			colTotalQuantity,
			colAvailableQuantity,
			colIsActive,
			colCreatedAt,
			colUpdatedAt,
		)
}

// loadBook loads one book row, optionally locked for the duration of the
// surrounding transaction.
func (s *Store) loadBook(ctx context.Context, querier adapters.Querier, bookID uuid.UUID, forUpdate bool) (lending.Book, error) {
	var empty lending.Book

	stmt := s.bookDataset().Where(goqu.C(colID).Eq(bookID.String()))
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
		return empty, lending.ErrBookNotFound
	}

	return s.scanBook(rows)
}

func (s *Store) scanBook(rows adapters.DBRows) (lending.Book, error) {
	var book lending.Book

	scanErr := rows.Scan(
		&book.ID,
		&book.ISBN,
		&book.Title,
		&book.Author,
		&book.ShelfLocation,
		&book.TotalQuantity,
		&book.AvailableQuantity,
		&book.IsActive,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr)
		return lending.Book{}, errors.Join(lending.ErrInternal, scanErr)
	}

	return book, nil
}

// setBookAvailability writes a new available quantity for a book. Callers
// must hold the row lock so the value cannot go stale between read and write.
func (s *Store) setBookAvailability(ctx context.Context, querier adapters.Querier, bookID uuid.UUID, available int, now time.Time) error {
	stmt := s.builder().
		Update(tableBooks).
		Set(goqu.Record{
			colAvailableQuantity: available,
			colUpdatedAt:         now,
		}).
		Where(goqu.C(colID).Eq(bookID.String()))

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
