// Package export renders a lending report into its output formats. All
// formats derive from the same report structure, so numbers never differ
// between a JSON response and a downloaded CSV or XLSX file.
package export
