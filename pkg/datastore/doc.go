// Package datastore provides the hot-store contract the retention engine
// reads and deletes from, plus the registry that maps policy data type
// tags to the stores serving them.
//
// # Records and Selections
//
// A Record is the minimal shape the engine needs: an ID, a data type tag,
// a timestamp, queryable attributes, and an opaque payload. A Selection is
// the predicate the engine evaluates: one data type, an exclusive cutoff
// timestamp, and optional attribute filters.
//
// # Handler Registry
//
// Policies reference data types by tag. The registry resolves tags to
// handlers at execution time:
//
//	registry := datastore.NewRegistry()
//	registry.Register("telemetry", &datastore.Handler{
//	    Store:       store,
//	    Description: "device sensor readings",
//	})
//
// Unknown tags fail policy execution with a NotFoundError; policies naming
// a not-yet-registered type are accepted at write time, since handlers may
// register later in startup.
//
// # Backends
//
//   - MemoryStore: map-backed, for tests and embedding
//   - SQLiteStore: WAL-mode SQLite (CGO-free driver), indexed on
//     (data_type, ts), attribute filters pushed into SQL so deletion
//     re-evaluates the full predicate at delete time
//
// Deletion is always predicate-driven, never by previously collected IDs:
// rows written between a stream and the delete are only removed if they
// match the predicate when the delete runs.
package datastore
