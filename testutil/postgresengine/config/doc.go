// Package config supplies database connection configuration for tests, for
// each of the supported connection pool implementations.
package config
