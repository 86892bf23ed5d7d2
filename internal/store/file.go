package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a MemoryStore that writes a snapshot of every record to
// filePath after each successful mutation. The snapshot format follows the
// file extension. A mutation reaches memory only after its snapshot has been
// renamed into place, so a failed write changes nothing.
type FileStore struct {
	*MemoryStore

	writeMu  sync.Mutex
	filePath string
	codec    codec
}

var _ Store = (*FileStore)(nil)

func OpenFileStore(filePath string) (*FileStore, error) {
	c, err := codecFor(filePath)
	if err != nil {
		return nil, err
	}

	s := &FileStore{
		MemoryStore: NewMemoryStore(),
		filePath:    filePath,
		codec:       c,
	}
	if err = s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	f, err := os.Open(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("store file %s does not exist yet, starting empty", s.filePath)
		return nil
	} else if err != nil {
		return fmt.Errorf("os.Open(%q): %w", s.filePath, err)
	}
	defer f.Close()

	var snap snapshot
	if err = s.codec.decode(f, &snap); err != nil {
		return fmt.Errorf("%s: %w", s.filePath, err)
	}
	s.MemoryStore.restore(snap.Expressions)
	log.Printf("loaded %d expressions from %s", len(snap.Expressions), s.filePath)
	return nil
}

func (s *FileStore) Create(ctx context.Context, id int, raw string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.MemoryStore.exists(id) {
		return alreadyExists(id)
	}
	if err := s.flush(s.MemoryStore.snapshotWith(id, raw, false)); err != nil {
		return err
	}
	return s.MemoryStore.Create(ctx, id, raw)
}

func (s *FileStore) Replace(ctx context.Context, id int, raw string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.MemoryStore.exists(id) {
		return notFound(id)
	}
	if err := s.flush(s.MemoryStore.snapshotWith(id, raw, false)); err != nil {
		return err
	}
	return s.MemoryStore.Replace(ctx, id, raw)
}

func (s *FileStore) Delete(ctx context.Context, id int) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.MemoryStore.exists(id) {
		return notFound(id)
	}
	if err := s.flush(s.MemoryStore.snapshotWith(id, "", true)); err != nil {
		return err
	}
	return s.MemoryStore.Delete(ctx, id)
}

func (s *FileStore) fileMode() os.FileMode {
	if fi, err := os.Stat(s.filePath); err == nil {
		return fi.Mode().Perm()
	}
	return 0o644
}

func (s *FileStore) flush(records []record) error {
	snap := snapshot{Expressions: records}

	f, err := os.CreateTemp(filepath.Dir(s.filePath), "."+filepath.Base(s.filePath)+".*")
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if err = s.codec.encode(f, &snap); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", s.filePath, err)
	}
	if err = f.Chmod(s.fileMode()); err != nil {
		f.Close()
		return fmt.Errorf("f.Chmod: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("f.Close: %w", err)
	}
	if err = os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}
	return nil
}
