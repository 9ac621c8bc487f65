package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const filePollInterval = 500 * time.Millisecond

// File is the durable area: one small JSON file per key under dir, the
// desktop analog of browser localStorage. Watch polls file modification
// times, which is enough for user-driven cart edits.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	// keys are dotted names, keep them filesystem-safe
	name := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(f.dir, name+".json")
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	path := f.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Watch emits whenever the backing file changes on disk, including writes
// from another process sharing the same state dir.
func (f *File) Watch(ctx context.Context, key string) <-chan struct{} {
	ch := make(chan struct{}, 1)
	path := f.path(key)

	go func() {
		defer close(ch)

		last := fileStamp(path)
		ticker := time.NewTicker(filePollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			cur := fileStamp(path)
			if cur == last {
				continue
			}
			last = cur

			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()

	return ch
}

type stamp struct {
	modTime int64
	size    int64
	exists  bool
}

func fileStamp(path string) stamp {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}
	}
	return stamp{modTime: info.ModTime().UnixNano(), size: info.Size(), exists: true}
}
