// Retentiond is the data retention daemon for the IoT telemetry platform.
//
// It enforces per-category retention policies over platform records:
//   - Declarative policies (data type, retention window, cron schedule)
//   - Optional archive-before-delete to compressed, checksummed files
//   - An immutable execution audit trail with per-policy statistics
//   - A management HTTP API with health probes and Prometheus metrics
//
// Usage:
//
//	# Start the daemon with default configuration
//	retentiond run
//
//	# Start with a custom configuration file
//	retentiond run --config /etc/retentiond/config.yaml
//
//	# Show version information
//	retentiond version
//
//	# Inspect policies and execution history
//	retentiond policy list
//	retentiond history --policy <id> --limit 20
//
//	# Run one policy immediately without waiting for its schedule
//	retentiond execute <policy-id> --dry-run
//
// For complete documentation, see: https://github.com/WilBtc/InsaAutomationCorp-sub007
package main

func main() {
	Execute()
}
