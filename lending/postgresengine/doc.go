// Package postgresengine provides the PostgreSQL-backed lending store: the
// borrow lifecycle engine, the role-scoped borrow query layer, the report
// borrow-set pull, and the book and user records they operate on.
//
// The store supports multiple PostgreSQL database libraries (pgx.Pool,
// sql.DB, sqlx.DB) through internal adapters, selected by the constructor
// used. Every lifecycle mutation runs its read-check-write sequence inside a
// database transaction with row-level locks, so concurrent approvals of the
// last available copy of a book cannot both succeed; a failure partway leaves
// borrow and book unchanged.
//
// Configuration is provided via functional options, including optional
// logging, metrics and tracing through dependency-free interfaces.
package postgresengine
