package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/rpn-expressions/internal/store"
	"github.com/karupanerura/rpn-expressions/internal/types"
)

func testStore(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx, 1); !types.HasTag(err, types.NotFoundErrorTag) {
		t.Fatalf("Load on empty store: expected NotFoundError, got %v", err)
	}
	if err := s.Create(ctx, 1, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, 2, "3,2,+,"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, 1, "9,"); !types.HasTag(err, types.AlreadyExistsErrorTag) {
		t.Fatalf("Create existing: expected AlreadyExistsError, got %v", err)
	}
	if raw, err := s.Load(ctx, 1); err != nil || raw != "" {
		t.Fatalf("Create existing overwrote the record: %q, %v", raw, err)
	}

	if err := s.Replace(ctx, 1, "4,"); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := s.Replace(ctx, 3, "4,"); !types.HasTag(err, types.NotFoundErrorTag) {
		t.Fatalf("Replace missing: expected NotFoundError, got %v", err)
	}
	if raw, err := s.Load(ctx, 1); err != nil || raw != "4," {
		t.Fatalf("Load after Replace: %q, %v", raw, err)
	}

	if err := s.Delete(ctx, 3); !types.HasTag(err, types.NotFoundErrorTag) {
		t.Fatalf("Delete missing: expected NotFoundError, got %v", err)
	}

	ids, err := s.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2}, ids); diff != "" {
		t.Errorf("ListIDs (-expected, +got)\n%s", diff)
	}

	if err := s.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, 1); !types.HasTag(err, types.NotFoundErrorTag) {
		t.Fatalf("Load after Delete: expected NotFoundError, got %v", err)
	}
	if raw, err := s.Load(ctx, 2); err != nil || raw != "3,2,+," {
		t.Fatalf("Delete touched another record: %q, %v", raw, err)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	testStore(t, store.NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".json", ".yaml", ".yml", ".msgpack"} {
		ext := ext
		t.Run(ext, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "expressions"+ext)
			s, err := store.OpenFileStore(path)
			if err != nil {
				t.Fatalf("OpenFileStore: %v", err)
			}
			testStore(t, s)

			reopened, err := store.OpenFileStore(path)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			ids, err := reopened.ListIDs(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]int{2}, ids); diff != "" {
				t.Errorf("ListIDs after reopen (-expected, +got)\n%s", diff)
			}
			if raw, err := reopened.Load(context.Background(), 2); err != nil || raw != "3,2,+," {
				t.Errorf("Load after reopen: %q, %v", raw, err)
			}

			entries, err := os.ReadDir(filepath.Dir(path))
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("temporary files left behind: %v", entries)
			}
		})
	}
}

func TestOpenFileStoreUnsupportedExtension(t *testing.T) {
	t.Parallel()

	if _, err := store.OpenFileStore(filepath.Join(t.TempDir(), "expressions.txt")); err == nil {
		t.Error("expected an error")
	}
}

func TestFileStoreFailedWriteKeepsState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := filepath.Join(t.TempDir(), "sub")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	s, err := store.OpenFileStore(filepath.Join(dir, "expressions.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err = s.Create(ctx, 1, "1,"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// every later snapshot write fails
	if err = os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	if err = s.Create(ctx, 2, "3,"); err == nil {
		t.Fatal("Create: expected a write error")
	}
	if _, err = s.Load(ctx, 2); !types.HasTag(err, types.NotFoundErrorTag) {
		t.Errorf("failed Create is visible: %v", err)
	}

	if err = s.Replace(ctx, 1, "9,"); err == nil {
		t.Fatal("Replace: expected a write error")
	}
	if raw, err := s.Load(ctx, 1); err != nil || raw != "1," {
		t.Errorf("failed Replace is visible: %q, %v", raw, err)
	}

	if err = s.Delete(ctx, 1); err == nil {
		t.Fatal("Delete: expected a write error")
	}
	if raw, err := s.Load(ctx, 1); err != nil || raw != "1," {
		t.Errorf("failed Delete is visible: %q, %v", raw, err)
	}

	ids, err := s.ListIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1}, ids); diff != "" {
		t.Errorf("ListIDs (-expected, +got)\n%s", diff)
	}
}

func TestFileStoreKeepsFileMode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "expressions.msgpack")
	s, err := store.OpenFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err = s.Create(ctx, 1, ""); err != nil {
		t.Fatal(err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0o644 {
		t.Errorf("new store file mode = %o, expected 644", perm)
	}

	if err = os.Chmod(path, 0o640); err != nil {
		t.Fatal(err)
	}
	if err = s.Replace(ctx, 1, "2,"); err != nil {
		t.Fatal(err)
	}
	if fi, err = os.Stat(path); err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0o640 {
		t.Errorf("store file mode after write = %o, expected 640", perm)
	}
}
