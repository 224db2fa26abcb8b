package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/danielpatrickdp/model-critic/internal/verdict"
)

// Sentinel errors for session stores.
var (
	ErrNotFound    = errors.New("session not found")
	ErrInvalidName = errors.New("invalid session name")
)

// #region snapshot
// Snapshot is one saved review. Payload holds the full review JSON.
type Snapshot struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Scores    verdict.Scores  `json:"scores"`
}

// #endregion snapshot

// #region store
// Store persists review snapshots by session name. Saving an existing name
// supersedes the previous snapshot; Load returns the latest one or
// ErrNotFound.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, name string) (Snapshot, error)
}

// Lister is implemented by stores that can enumerate saved sessions.
// List returns newest first; a limit of zero or less means no limit.
type Lister interface {
	List(ctx context.Context, limit int) ([]Snapshot, error)
}

// #endregion store
