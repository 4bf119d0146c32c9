package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"procurement-portal/internal/rfpflow"
)

// defaultWorkflow is the key of the terminal's single draft.
const defaultWorkflow = "default"

// fileWorkflows keeps workflow snapshots in one JSON file.
type fileWorkflows struct {
	Path string

	mu sync.Mutex
}

func (f *fileWorkflows) read() (map[string]rfpflow.Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]rfpflow.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	snaps := map[string]rfpflow.Snapshot{}
	if err := json.Unmarshal(data, &snaps); err != nil {
		return nil, fmt.Errorf("parse workflow file: %w", err)
	}
	return snaps, nil
}

func (f *fileWorkflows) write(snaps map[string]rfpflow.Snapshot) error {
	if len(snaps) == 0 {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove workflow file: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal workflow: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("write workflow file: %w", err)
	}
	return nil
}

func (f *fileWorkflows) Load(_ context.Context, key string) (rfpflow.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snaps, err := f.read()
	if err != nil {
		return rfpflow.Snapshot{}, err
	}
	snap, ok := snaps[key]
	if !ok {
		return rfpflow.Snapshot{}, rfpflow.ErrNoWorkflow
	}
	return snap, nil
}

func (f *fileWorkflows) Save(_ context.Context, key string, snap rfpflow.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snaps, err := f.read()
	if err != nil {
		return err
	}
	snaps[key] = snap
	return f.write(snaps)
}

func (f *fileWorkflows) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snaps, err := f.read()
	if err != nil {
		return err
	}
	delete(snaps, key)
	return f.write(snaps)
}

func (f *fileWorkflows) lockPath(key string) string {
	return f.Path + "." + url.PathEscape(key) + ".lock"
}

// Acquire creates a lock file next to the workflow file. A lock older than
// rfpflow.PendingTimeout is left from a killed run and is taken over.
func (f *fileWorkflows) Acquire(_ context.Context, key string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	path := f.lockPath(key)
	for attempt := 0; attempt < 2; attempt++ {
		lock, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(lock, "%d\n", os.Getpid())
			return lock.Close()
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("lock workflow: %w", err)
		}
		info, serr := os.Stat(path)
		if serr != nil || time.Since(info.ModTime()) < rfpflow.PendingTimeout {
			return rfpflow.ErrBusy
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale workflow lock: %w", err)
		}
	}
	return rfpflow.ErrBusy
}

func (f *fileWorkflows) Release(_ context.Context, key string) error {
	if err := os.Remove(f.lockPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unlock workflow: %w", err)
	}
	return nil
}
