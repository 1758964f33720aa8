// Package policy persists retention policies and keeps the running set in
// sync with an operator-edited seed file.
//
// # Stores
//
// Two Store implementations ship with the package:
//
//   - MemoryStore: map-backed, for tests and embedding
//   - SQLiteStore: WAL-mode SQLite, for production deployments
//
// Both enforce the same contract: validated writes, case-insensitive name
// uniqueness, and store-managed lifetime counters that survive definition
// updates.
//
// # Seed Files
//
// Policies can be declared in a YAML seed file and upserted with Sync:
//
//	seeds, err := policy.LoadSeedFile("policies.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := policy.Sync(ctx, store, seeds)
//
// Sync matches by name: new names are created, changed definitions are
// updated in place (IDs and counters are preserved), and policies missing
// from the seed are left untouched.
//
// # File Watching
//
// Watcher monitors the seed file with fsnotify and re-syncs after each
// settled edit, debouncing editor write bursts. A malformed edit is logged
// and skipped; the previously loaded policy set keeps running.
package policy
