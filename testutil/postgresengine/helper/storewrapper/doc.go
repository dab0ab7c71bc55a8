// Package storewrapper abstracts over the supported database adapters for
// tests, selected with the ADAPTER_TYPE environment variable, and supplies
// fixture helpers for arranging users, books and borrows.
package storewrapper
