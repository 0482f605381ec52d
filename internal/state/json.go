package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go-careerwatch/internal/dedup"
)

const jsonBackend = "json"

// JSONFile keeps the seen IDs as a sorted JSON array in a single file.
type JSONFile struct {
	filePath string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{filePath: path}
}

func (f *JSONFile) Path() string {
	return f.filePath
}

// Load reads the file into a set. A missing file is the first run.
func (f *JSONFile) Load(_ context.Context) (dedup.SeenSet, error) {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("📋 No state at %s yet, starting empty", f.filePath)
			return dedup.NewSeenSet(), nil
		}
		return nil, corrupt(jsonBackend, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, corrupt(jsonBackend, fmt.Errorf("parse %s: %w", f.filePath, err))
	}

	seen := dedup.NewSeenSet(ids...)
	log.Printf("📋 Loaded %d previously seen postings", seen.Len())
	return seen, nil
}

// Save writes to a temp file next to the target, syncs it and renames it over
// the target, so readers see either the old or the new file, never a partial one.
func (f *JSONFile) Save(_ context.Context, seen dedup.SeenSet) (err error) {
	fail := func(e error) error {
		return &Error{Backend: jsonBackend, Op: "save", Err: e}
	}

	data, err := json.MarshalIndent(seen.IDs(), "", "  ")
	if err != nil {
		return fail(fmt.Errorf("marshal: %w", err))
	}

	dir := filepath.Dir(f.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(fmt.Errorf("create state dir: %w", err))
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.filePath)+".*.tmp")
	if err != nil {
		return fail(fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fail(fmt.Errorf("write temp file: %w", err))
	}
	if err = tmp.Sync(); err != nil {
		return fail(fmt.Errorf("sync temp file: %w", err))
	}
	if err = tmp.Close(); err != nil {
		return fail(fmt.Errorf("close temp file: %w", err))
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return fail(fmt.Errorf("chmod temp file: %w", err))
	}
	if err = os.Rename(tmpPath, f.filePath); err != nil {
		return fail(fmt.Errorf("replace %s: %w", f.filePath, err))
	}
	//the rename is durable only once the directory entry is on disk
	if err = syncDir(dir); err != nil {
		return fail(err)
	}

	log.Printf("💾 Saved %d seen postings to %s", seen.Len(), f.filePath)
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open state dir: %w", err)
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return fmt.Errorf("sync state dir: %w", err)
	}
	return d.Close()
}

func (f *JSONFile) Close() error {
	return nil
}
