package store

import (
	"context"

	"github.com/ankittk/hardcheck/pkg/models"
)

// SnapshotStore persists the whole deadline snapshot. Load is called once at startup and Save after
// every mutation; implementations never see partial updates.
// Implementations: *FileStore, *MemoryStore, *sqlstore.Store (SQLite, PostgreSQL) and *s3store.Store.
type SnapshotStore interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Save(ctx context.Context, snap models.Snapshot) error
	Close() error
}
