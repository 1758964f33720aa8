// Package tracker persists the execution audit trail: one record per policy
// execution and one entry per published archive file.
//
// Executions transition running -> exactly one of success, failed, or
// partial, and are immutable once terminal. Archive entries are written
// only after the archive file is durably on disk, so an entry's path always
// points at a complete, verifiable file.
//
// Two backends are provided: an in-memory tracker for tests and ephemeral
// runs, and a SQLite tracker that shares the policy store's database file.
package tracker
