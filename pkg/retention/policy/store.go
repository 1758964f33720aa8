package policy

import (
	"context"
	"time"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// Store defines the interface for policy persistence backends.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// Create validates and persists a new policy. The store assigns the ID
	// (if absent) and timestamps. Returns a ValidationError on invalid
	// fields or a duplicate name.
	Create(ctx context.Context, p *retention.Policy) error

	// Update validates and replaces the definition of an existing policy,
	// bumping UpdatedAt. Lifetime counters are managed by the store and
	// preserved across updates. Returns a NotFoundError on unknown ID and
	// a ValidationError on invalid fields or a name collision.
	Update(ctx context.Context, p *retention.Policy) error

	// Get retrieves a policy by ID.
	Get(ctx context.Context, id string) (*retention.Policy, error)

	// GetByName retrieves a policy by its unique name.
	GetByName(ctx context.Context, name string) (*retention.Policy, error)

	// List retrieves policies matching the filter, sorted by name.
	// A nil filter returns all policies.
	List(ctx context.Context, filter *retention.PolicyFilter) ([]*retention.Policy, error)

	// Delete removes a policy by ID. Returns a NotFoundError on unknown ID.
	Delete(ctx context.Context, id string) error

	// RecordExecution atomically folds one completed execution into the
	// policy's lifetime counters and sets the last-execution fields.
	// Counters never decrease.
	RecordExecution(ctx context.Context, policyID, status string, archived, deleted int64, at time.Time) error

	// Close releases any resources held by the store.
	Close() error
}
