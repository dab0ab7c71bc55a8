// Package lending contains the core types and pure business logic of the
// library lending backend: entities, typed errors, the borrow status machine,
// the borrow list filter builder, and the report aggregation.
//
// Everything in this package is free of I/O. The decision functions
// (DecideUpdate, DecideDelete) take the current state and a requested change
// and return the writes the engine must apply, so the transition rules can be
// unit tested in isolation. Persistence lives in the postgresengine
// subpackage, rendering of reports in the export subpackage.
package lending
