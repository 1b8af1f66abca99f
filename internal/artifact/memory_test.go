package artifact

import (
	"context"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	runStoreTests(t, func(t *testing.T) testStore {
		t.Helper()
		return NewMemoryStore(t.TempDir())
	})
}

func TestMemoryStoreContent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(t.TempDir())
	src := writeTestFile(t, t.TempDir(), "sample.csv", "price\n5\n")

	if _, err := store.Publish(context.Background(), src, Metadata{Name: "sample.csv", Type: "raw_data"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	got, err := store.Content("sample.csv:latest")
	if err != nil {
		t.Fatalf("Content failed: %v", err)
	}
	if string(got) != "price\n5\n" {
		t.Errorf("expected published content, got %q", got)
	}

	if _, err := store.Content("other.csv"); err == nil {
		t.Error("expected error for unknown artifact")
	}
}
