// Package archive writes expired records to durable JSON Lines files before
// the retention engine deletes them from the hot datastore.
//
// # Write Protocol
//
// Each execution produces at most one archive file named
// <data_type>-<execution_id>.jsonl with a compression suffix (.gz or .zst)
// when the policy requests one. The writer streams records into a hidden
// temp file in the destination directory, flushes and syncs it, and only
// then renames it to the final name. Readers of the destination directory
// therefore never observe a partially written archive, and a failed write
// leaves nothing behind under the final name.
//
// # Checksums
//
// The SHA-256 digest is computed over the bytes actually written to disk,
// after compression, so Verify can recompute it from the published file
// without knowledge of the record contents.
package archive
