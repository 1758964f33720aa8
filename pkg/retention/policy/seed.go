package policy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// SeedFile is the on-disk policy document format:
//
//	policies:
//	  - name: telemetry-90d
//	    data_type: telemetry
//	    retention_days: 90
//	    archive_before_delete: true
//	    archive:
//	      destination: telemetry
//	      compression: gzip
//	    schedule: "0 3 * * *"
//	    enabled: true
type SeedFile struct {
	Policies []*retention.Policy `yaml:"policies"`
}

// ParseSeed parses a seed document without validating the policies.
// Use LoadSeedFile for the validating path.
func ParseSeed(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse policy seed: %w", err)
	}
	return &seed, nil
}

// LoadSeedFile reads and parses a policy seed file, validating every
// policy. The first invalid policy aborts the load with an error naming it.
func LoadSeedFile(path string) ([]*retention.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy seed %s: %w", path, err)
	}

	seed, err := ParseSeed(data)
	if err != nil {
		return nil, err
	}

	for i, p := range seed.Policies {
		if err := Validate(p); err != nil {
			name := p.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("policy %q: %w", name, err)
		}
	}

	return seed.Policies, nil
}

// SyncResult reports the delta applied by Sync.
type SyncResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Sync upserts seed policies into the store by name: unknown names are
// created, changed definitions are updated (keeping the stored ID and
// lifetime counters), identical definitions are left alone. Policies
// absent from the seed are never deleted; removal stays an explicit
// operation.
func Sync(ctx context.Context, store Store, seeds []*retention.Policy) (*SyncResult, error) {
	result := &SyncResult{}

	for _, seed := range seeds {
		existing, err := store.GetByName(ctx, seed.Name)
		if err != nil {
			var nfe *retention.NotFoundError
			if !errors.As(err, &nfe) {
				return result, fmt.Errorf("sync policy %q: %w", seed.Name, err)
			}
			if err := store.Create(ctx, seed); err != nil {
				return result, fmt.Errorf("sync policy %q: %w", seed.Name, err)
			}
			result.Created++
			continue
		}

		if !definitionChanged(existing, seed) {
			result.Unchanged++
			continue
		}

		seed.ID = existing.ID
		if err := store.Update(ctx, seed); err != nil {
			return result, fmt.Errorf("sync policy %q: %w", seed.Name, err)
		}
		result.Updated++
	}

	return result, nil
}

// definitionChanged compares the operator-editable fields of two policies.
// Identity, timestamps, and counters are excluded.
func definitionChanged(existing, seed *retention.Policy) bool {
	if existing.Name != seed.Name ||
		existing.Description != seed.Description ||
		existing.DataType != seed.DataType ||
		existing.RetentionDays != seed.RetentionDays ||
		existing.ArchiveBeforeDelete != seed.ArchiveBeforeDelete ||
		existing.Schedule != seed.Schedule ||
		existing.Enabled != seed.Enabled {
		return true
	}
	if (existing.Archive == nil) != (seed.Archive == nil) {
		return true
	}
	if existing.Archive != nil && *existing.Archive != *seed.Archive {
		return true
	}
	if len(existing.Filters) != len(seed.Filters) {
		return true
	}
	if len(existing.Filters) > 0 && !reflect.DeepEqual(existing.Filters, seed.Filters) {
		return true
	}
	return false
}
