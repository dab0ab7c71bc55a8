package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/liblend/library-lending-go/lending"
	"github.com/liblend/library-lending-go/lending/postgresengine/internal/adapters"
)

const (
	tableUsers   = "users"
	tableBooks   = "books"
	tableBorrows = "borrows"

	colID                = "id"
	colEmail             = "email"
	colName              = "name"
	colPasswordHash      = "password_hash"
	colRole              = "role"
	colISBN              = "isbn"
	colTitle             = "title"
	colAuthor            = "author"
	colShelfLocation     = "shelf_location"
	colTotalQuantity     = "total_quantity"
	colAvailableQuantity = "available_quantity"
	colIsActive          = "is_active"
	colUserID            = "user_id"
	colBookID            = "book_id"
	colStatus            = "status"
	colBorrowedAt        = "borrowed_at"
	colDueAt             = "due_at"
	colApprovedAt        = "approved_at"
	colReturnedAt        = "returned_at"
	colCreatedAt         = "created_at"
	colUpdatedAt         = "updated_at"

	dialectPostgres = "postgres"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
	queryDuration     = time.Duration
)

// Store is the PostgreSQL-backed lending engine. It leverages a database
// adapter and supports customizable logging, metrics, tracing and clock
// configuration.
type Store struct {
	db               adapters.DBAdapter
	logger           lending.Logger
	metricsCollector lending.MetricsCollector
	tracingCollector lending.TracingCollector
	contextualLogger lending.ContextualLogger
	clock            func() time.Time
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, lending.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, lending.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, lending.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	store := &Store{
		db:    db,
		clock: func() time.Time { return time.Now().UTC() },
	}

	for _, option := range options {
		if err := option(store); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// builder returns the goqu dialect wrapper all store queries are built with.
func (s *Store) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// sqlBuilder is satisfied by all goqu dataset types.
type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

func (s *Store) toSQL(stmt sqlBuilder) (sqlQueryString, error) {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(lending.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// executeQuery executes the SQL query and returns rows with timing information.
func (s *Store) executeQuery(ctx context.Context, querier adapters.Querier, sqlQuery sqlQueryString) (
	adapters.DBRows,
	queryDuration,
	error,
) {

	start := time.Now()
	rows, queryErr := querier.Query(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, logActionQuery, duration)

	if queryErr != nil {
		s.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, duration, translateStoreError(queryErr)
	}

	return rows, duration, nil
}

// executeStatement executes a SQL statement and returns rows affected and duration.
func (s *Store) executeStatement(ctx context.Context, querier adapters.Querier, sqlQuery sqlQueryString) (
	rowsAffectedInt64,
	queryDuration,
	error,
) {

	start := time.Now()
	result, execErr := querier.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, logActionExec, duration)

	if execErr != nil {
		s.logError(logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, duration, translateStoreError(execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, duration, errors.Join(lending.ErrInternal, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// withinTx runs fn inside a database transaction with all-or-nothing commit.
// Any error from fn rolls the transaction back, so a failure partway leaves
// no partial effects behind.
func (s *Store) withinTx(ctx context.Context, fn func(tx adapters.Querier) error) error {
	tx, beginErr := s.db.BeginTx(ctx)
	if beginErr != nil {
		s.logError(logMsgBeginTxFailed, beginErr)
		return errors.Join(lending.ErrInternal, beginErr)
	}

	if fnErr := fn(tx); fnErr != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			if s.logger != nil {
				s.logger.Warn(logMsgRollbackFailed, logAttrError, rollbackErr.Error())
			}
		}

		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		s.logError(logMsgCommitFailed, commitErr)
		return translateStoreError(commitErr)
	}

	return nil
}
