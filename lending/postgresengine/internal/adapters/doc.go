// Package adapters provides database adapter implementations for the PostgreSQL lending store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database
// libraries: pgx.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality
// through a common DBAdapter interface, allowing the store to work seamlessly with any
// supported database connection type.
//
// Beyond plain query execution, the adapters expose transactions through BeginTx, since
// every lifecycle mutation of the store runs its read-check-write sequence inside a
// database transaction.
package adapters
