// Package engine executes retention policies: it resolves the policy's
// data-type handler, evaluates the expiry predicate, optionally archives
// the matching records, deletes them, and records the outcome.
//
// # Execution Phases
//
// Each execution runs through a fixed phase order:
//
//  1. Resolve the data-type handler from the registry.
//  2. Compute the cutoff (start time minus retention_days) and count the
//     matching records. Zero matches completes immediately as success.
//  3. Dry run: stop here and report the count.
//  4. Archive the selection when archive_before_delete is set. An archive
//     failure aborts the run before any deletion; on success the archive
//     entry is persisted before deletion begins.
//  5. Delete by re-evaluating the predicate at delete time.
//
// # Status Resolution
//
// An execution ends in exactly one terminal status:
//
//   - success: every phase completed.
//   - failed: nothing was mutated. Covers handler resolution, count,
//     and archive failures, and delete failures that removed no rows.
//   - partial: data was mutated but the run did not finish cleanly. The
//     delete errored after removing rows, or an archive was published
//     and the delete then failed entirely.
//
// Failures are execution outcomes, not errors: Execute returns them in
// the record's Status and Error fields and reserves its error return for
// runs that could not be tracked at all.
package engine
