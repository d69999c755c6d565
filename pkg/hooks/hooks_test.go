package hooks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-userfields/pkg/hooks"
)

func TestFiltersApplyInPriorityOrder(t *testing.T) {
	var filters hooks.Filters[[]string]
	filters.Add(func(_ context.Context, v []string) ([]string, error) { return append(v, "second"), nil })
	filters.AddWithPriority(1, func(_ context.Context, v []string) ([]string, error) { return append(v, "first"), nil })
	filters.Add(func(_ context.Context, v []string) ([]string, error) { return append(v, "third"), nil })

	got, err := filters.Apply(context.Background(), nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFiltersStopOnError(t *testing.T) {
	boom := errors.New("boom")
	var filters hooks.Filters[int]
	filters.Add(func(_ context.Context, v int) (int, error) { return v + 1, nil })
	filters.Add(func(_ context.Context, v int) (int, error) { return 0, boom })
	filters.Add(func(_ context.Context, v int) (int, error) { return v + 100, nil })

	got, err := filters.Apply(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got != 2 {
		t.Fatalf("expected last good value 2, got %d", got)
	}
}

func TestActionsNilRegistryIsNoop(t *testing.T) {
	var actions *hooks.Actions[string]
	if err := actions.Do(context.Background(), "x"); err != nil {
		t.Fatalf("nil actions: %v", err)
	}
	if actions.Len() != 0 {
		t.Fatalf("nil actions should be empty")
	}
}

func TestActionsNotifyAll(t *testing.T) {
	var seen []string
	var actions hooks.Actions[string]
	actions.Add(func(_ context.Context, v string) error { seen = append(seen, "a:"+v); return nil })
	actions.Add(func(_ context.Context, v string) error { seen = append(seen, "b:"+v); return nil })

	if err := actions.Do(context.Background(), "x"); err != nil {
		t.Fatalf("do: %v", err)
	}
	if diff := cmp.Diff([]string{"a:x", "b:x"}, seen); diff != "" {
		t.Fatalf("observers mismatch (-want +got):\n%s", diff)
	}
}
