package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := validPolicy()
	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if p.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("Create() did not assign timestamps")
	}

	got, err := store.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != p.Name {
		t.Errorf("got.Name = %q, want %q", got.Name, p.Name)
	}

	// Returned policy is a copy; mutation must not leak into the store
	got.Name = "mutated"
	again, _ := store.Get(ctx, p.ID)
	if again.Name == "mutated" {
		t.Error("Get() returned a shared reference, want a copy")
	}
}

func TestMemoryStore_DuplicateName(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Create(ctx, validPolicy()); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	dup := validPolicy()
	err := store.Create(ctx, dup)

	var verr *retention.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Create() duplicate error = %v, want ValidationError", err)
	}
	if verr.Field != "name" {
		t.Errorf("verr.Field = %q, want name", verr.Field)
	}

	// Case-insensitive collision
	dup2 := validPolicy()
	dup2.Name = "TELEMETRY-90D"
	if err := store.Create(ctx, dup2); err == nil {
		t.Error("Create() with case-variant duplicate name error = nil, want error")
	}
}

func TestMemoryStore_GetByName(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := validPolicy()
	_ = store.Create(ctx, p)

	got, err := store.GetByName(ctx, "telemetry-90d")
	if err != nil {
		t.Fatalf("GetByName() failed: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("got.ID = %q, want %q", got.ID, p.ID)
	}

	_, err = store.GetByName(ctx, "no-such-policy")
	var nfe *retention.NotFoundError
	if !errors.As(err, &nfe) {
		t.Errorf("GetByName() unknown error = %v, want NotFoundError", err)
	}
}

func TestMemoryStore_UpdatePreservesCounters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := validPolicy()
	_ = store.Create(ctx, p)

	// Fold in an execution so the counters are non-zero
	at := time.Now().UTC()
	if err := store.RecordExecution(ctx, p.ID, retention.StatusSuccess, 10, 25, at); err != nil {
		t.Fatalf("RecordExecution() failed: %v", err)
	}

	// Update the definition, sneaking in counter values that must be ignored
	updated := p.Clone()
	updated.RetentionDays = 30
	updated.ExecutionCount = 999
	updated.TotalRecordsDeleted = 999
	if err := store.Update(ctx, updated); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	got, _ := store.Get(ctx, p.ID)
	if got.RetentionDays != 30 {
		t.Errorf("got.RetentionDays = %d, want 30", got.RetentionDays)
	}
	if got.ExecutionCount != 1 {
		t.Errorf("got.ExecutionCount = %d, want 1 (counters are store-managed)", got.ExecutionCount)
	}
	if got.TotalRecordsDeleted != 25 {
		t.Errorf("got.TotalRecordsDeleted = %d, want 25", got.TotalRecordsDeleted)
	}
	if got.TotalRecordsArchived != 10 {
		t.Errorf("got.TotalRecordsArchived = %d, want 10", got.TotalRecordsArchived)
	}
	if got.LastExecutionStatus != retention.StatusSuccess {
		t.Errorf("got.LastExecutionStatus = %q, want success", got.LastExecutionStatus)
	}
}

func TestMemoryStore_UpdateUnknown(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := validPolicy()
	p.ID = "missing"

	err := store.Update(ctx, p)
	var nfe *retention.NotFoundError
	if !errors.As(err, &nfe) {
		t.Errorf("Update() unknown error = %v, want NotFoundError", err)
	}
}

func TestMemoryStore_UpdateNameCollision(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a := validPolicy()
	_ = store.Create(ctx, a)

	b := validPolicy()
	b.Name = "alerts-30d"
	b.DataType = "alerts"
	_ = store.Create(ctx, b)

	// Renaming b onto a's name must fail
	b.Name = "telemetry-90d"
	err := store.Update(ctx, b)
	var verr *retention.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Update() name collision error = %v, want ValidationError", err)
	}
}

func TestMemoryStore_List(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	polices := []*retention.Policy{
		{Name: "charlie", DataType: "telemetry", RetentionDays: 30, Schedule: "0 1 * * *", Enabled: true},
		{Name: "alpha", DataType: "alerts", RetentionDays: 30, Schedule: "0 2 * * *", Enabled: true},
		{Name: "bravo", DataType: "telemetry", RetentionDays: 30, Schedule: "0 3 * * *", Enabled: false},
	}
	for _, p := range polices {
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s) failed: %v", p.Name, err)
		}
	}

	all, err := store.List(ctx, nil)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List() returned %d policies, want 3", len(all))
	}
	// Sorted by name
	if all[0].Name != "alpha" || all[1].Name != "bravo" || all[2].Name != "charlie" {
		t.Errorf("List() order = [%s %s %s], want [alpha bravo charlie]",
			all[0].Name, all[1].Name, all[2].Name)
	}

	enabled := true
	byEnabled, _ := store.List(ctx, &retention.PolicyFilter{Enabled: &enabled})
	if len(byEnabled) != 2 {
		t.Errorf("List(enabled) returned %d policies, want 2", len(byEnabled))
	}

	byType, _ := store.List(ctx, &retention.PolicyFilter{DataType: "telemetry"})
	if len(byType) != 2 {
		t.Errorf("List(telemetry) returned %d policies, want 2", len(byType))
	}

	disabled := false
	combined, _ := store.List(ctx, &retention.PolicyFilter{Enabled: &disabled, DataType: "telemetry"})
	if len(combined) != 1 || combined[0].Name != "bravo" {
		t.Errorf("List(disabled telemetry) = %v, want [bravo]", names(combined))
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := validPolicy()
	_ = store.Create(ctx, p)

	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if store.Size() != 0 {
		t.Errorf("Size() = %d after delete, want 0", store.Size())
	}

	err := store.Delete(ctx, p.ID)
	var nfe *retention.NotFoundError
	if !errors.As(err, &nfe) {
		t.Errorf("Delete() twice error = %v, want NotFoundError", err)
	}
}

func TestMemoryStore_RecordExecutionAccumulates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := validPolicy()
	_ = store.Create(ctx, p)

	at1 := time.Now().UTC().Add(-time.Hour)
	at2 := time.Now().UTC()
	_ = store.RecordExecution(ctx, p.ID, retention.StatusSuccess, 100, 100, at1)
	_ = store.RecordExecution(ctx, p.ID, retention.StatusFailed, 0, 0, at2)

	got, _ := store.Get(ctx, p.ID)
	if got.ExecutionCount != 2 {
		t.Errorf("got.ExecutionCount = %d, want 2", got.ExecutionCount)
	}
	if got.TotalRecordsArchived != 100 {
		t.Errorf("got.TotalRecordsArchived = %d, want 100", got.TotalRecordsArchived)
	}
	if got.LastExecutionStatus != retention.StatusFailed {
		t.Errorf("got.LastExecutionStatus = %q, want failed", got.LastExecutionStatus)
	}
	if got.LastExecutedAt == nil || !got.LastExecutedAt.Equal(at2) {
		t.Errorf("got.LastExecutedAt = %v, want %v", got.LastExecutedAt, at2)
	}

	err := store.RecordExecution(ctx, "missing", retention.StatusSuccess, 0, 0, at2)
	var nfe *retention.NotFoundError
	if !errors.As(err, &nfe) {
		t.Errorf("RecordExecution() unknown error = %v, want NotFoundError", err)
	}
}

func names(policies []*retention.Policy) []string {
	out := make([]string, len(policies))
	for i, p := range policies {
		out[i] = p.Name
	}
	return out
}
