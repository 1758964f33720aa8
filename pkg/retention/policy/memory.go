package policy

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// MemoryStore implements the Store interface using an in-memory map.
// This implementation is intended for testing and embedding; production
// deployments use the SQLite backend.
type MemoryStore struct {
	policies map[string]*retention.Policy
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory policy store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		policies: make(map[string]*retention.Policy),
	}
}

// Create validates and persists a new policy.
func (s *MemoryStore) Create(ctx context.Context, p *retention.Policy) error {
	if err := Validate(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.policies {
		if strings.EqualFold(existing.Name, p.Name) {
			return retention.NewValidationError("name", "policy name already in use: "+p.Name)
		}
	}

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if _, ok := s.policies[p.ID]; ok {
		return retention.NewValidationError("id", "policy ID already in use: "+p.ID)
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.policies[p.ID] = p.Clone()
	return nil
}

// Update validates and replaces an existing policy definition. Lifetime
// counters are preserved from the stored policy.
func (s *MemoryStore) Update(ctx context.Context, p *retention.Policy) error {
	if err := Validate(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.policies[p.ID]
	if !ok {
		return retention.NewNotFoundError("policy", p.ID)
	}

	for id, other := range s.policies {
		if id != p.ID && strings.EqualFold(other.Name, p.Name) {
			return retention.NewValidationError("name", "policy name already in use: "+p.Name)
		}
	}

	updated := p.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	updated.ExecutionCount = existing.ExecutionCount
	updated.TotalRecordsDeleted = existing.TotalRecordsDeleted
	updated.TotalRecordsArchived = existing.TotalRecordsArchived
	updated.LastExecutedAt = existing.LastExecutedAt
	updated.LastExecutionStatus = existing.LastExecutionStatus

	s.policies[p.ID] = updated
	p.CreatedAt = updated.CreatedAt
	p.UpdatedAt = updated.UpdatedAt
	return nil
}

// Get retrieves a policy by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*retention.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[id]
	if !ok {
		return nil, retention.NewNotFoundError("policy", id)
	}
	return p.Clone(), nil
}

// GetByName retrieves a policy by its unique name.
func (s *MemoryStore) GetByName(ctx context.Context, name string) (*retention.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.policies {
		if strings.EqualFold(p.Name, name) {
			return p.Clone(), nil
		}
	}
	return nil, retention.NewNotFoundError("policy", name)
}

// List retrieves policies matching the filter, sorted by name.
func (s *MemoryStore) List(ctx context.Context, filter *retention.PolicyFilter) ([]*retention.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*retention.Policy{}
	for _, p := range s.policies {
		if !matchesFilter(p, filter) {
			continue
		}
		results = append(results, p.Clone())
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Name < results[j].Name
	})

	return results, nil
}

// Delete removes a policy by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[id]; !ok {
		return retention.NewNotFoundError("policy", id)
	}
	delete(s.policies, id)
	return nil
}

// RecordExecution folds one completed execution into the policy's lifetime
// counters.
func (s *MemoryStore) RecordExecution(ctx context.Context, policyID, status string, archived, deleted int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.policies[policyID]
	if !ok {
		return retention.NewNotFoundError("policy", policyID)
	}

	p.ExecutionCount++
	p.TotalRecordsArchived += archived
	p.TotalRecordsDeleted += deleted
	at = at.UTC()
	p.LastExecutedAt = &at
	p.LastExecutionStatus = status
	return nil
}

// Close releases resources held by the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.policies = make(map[string]*retention.Policy)
	return nil
}

// Clear removes all policies from the store (for testing).
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.policies = make(map[string]*retention.Policy)
}

// Size returns the number of policies in the store (for testing).
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.policies)
}

// matchesFilter checks if a policy matches the list filter.
func matchesFilter(p *retention.Policy, filter *retention.PolicyFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Enabled != nil && p.Enabled != *filter.Enabled {
		return false
	}
	if filter.DataType != "" && p.DataType != filter.DataType {
		return false
	}
	return true
}
