package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danielpatrickdp/model-critic/internal/logging"
	"github.com/danielpatrickdp/model-critic/internal/verdict"
)

// #region file-store
// FileStore keeps one <name>.json document per session under Dir. Each save
// overwrites the previous document.
type FileStore struct {
	Dir string
}

type fileDoc struct {
	Timestamp string          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Scores    *verdict.Scores `json:"scores,omitempty"`
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (f *FileStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(f.Dir, name+".json"), nil
}

// Save writes the snapshot atomically via a temp file and rename.
func (f *FileStore) Save(_ context.Context, snap Snapshot) error {
	p, err := f.path(snap.Name)
	if err != nil {
		return err
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}
	doc := fileDoc{
		Timestamp: snap.Timestamp.UTC().Format(time.RFC3339Nano),
		Payload:   snap.Payload,
		Scores:    &snap.Scores,
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	return nil
}

// Load reads <name>.json. Documents without a scores field load with zero
// scores.
func (f *FileStore) Load(_ context.Context, name string) (Snapshot, error) {
	p, err := f.path(name)
	if err != nil {
		return Snapshot{}, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read session: %w", err)
	}

	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("decode session %s: %w", name, err)
	}
	ts, err := logging.ParseTime(doc.Timestamp)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode session %s: %w", name, err)
	}
	snap := Snapshot{Name: name, Timestamp: ts, Payload: doc.Payload}
	if doc.Scores != nil {
		snap.Scores = *doc.Scores
	}
	return snap, nil
}

// List returns up to limit sessions ordered by timestamp, newest first.
// A limit of zero or less returns every session.
func (f *FileStore) List(ctx context.Context, limit int) ([]Snapshot, error) {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []Snapshot
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		snap, err := f.Load(ctx, strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// #endregion file-store
