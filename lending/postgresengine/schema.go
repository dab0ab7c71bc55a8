package postgresengine

import (
	"context"
)

const (
	opCreateSchema = "create_schema"

	logMsgSchemaCreated = "schema created"
)

// schemaDDL is idempotent and ordered so foreign keys find their targets.
// The availability check enforces the inventory invariant at the storage
// level as a last line of defense behind the transactional guards.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'MEMBER',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS books (
		id                 UUID PRIMARY KEY,
		isbn               TEXT NOT NULL UNIQUE,
		title              TEXT NOT NULL,
		author             TEXT NOT NULL,
		shelf_location     TEXT NOT NULL,
		total_quantity     INTEGER NOT NULL DEFAULT 0,
		available_quantity INTEGER NOT NULL DEFAULT 0,
		is_active          BOOLEAN NOT NULL DEFAULT TRUE,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT books_quantity_check
			CHECK (available_quantity >= 0 AND available_quantity <= total_quantity)
	)`,

	`CREATE TABLE IF NOT EXISTS borrows (
		id          UUID PRIMARY KEY,
		user_id     UUID NOT NULL REFERENCES users (id),
		book_id     UUID NOT NULL REFERENCES books (id),
		status      TEXT NOT NULL DEFAULT 'PENDING',
		borrowed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		due_at      TIMESTAMPTZ NOT NULL,
		approved_at TIMESTAMPTZ NULL,
		returned_at TIMESTAMPTZ NULL
	)`,

	`CREATE INDEX IF NOT EXISTS borrows_user_id_idx ON borrows (user_id)`,
	`CREATE INDEX IF NOT EXISTS borrows_book_id_idx ON borrows (book_id)`,
	`CREATE INDEX IF NOT EXISTS borrows_status_idx ON borrows (status)`,
	`CREATE INDEX IF NOT EXISTS borrows_borrowed_at_idx ON borrows (borrowed_at)`,
}

// CreateSchema creates the users, books and borrows tables with their
// constraints and indexes. It is safe to call on an already provisioned
// database.
func (s *Store) CreateSchema(ctx context.Context) error {
	ctx, finish := s.instrument(ctx, opCreateSchema)

	var err error
	for _, ddl := range schemaDDL {
		if _, _, err = s.executeStatement(ctx, s.db, ddl); err != nil {
			break
		}
	}

	finish(err)

	if err != nil {
		return err
	}

	s.logOperation(ctx, logMsgSchemaCreated)

	return nil
}
