package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ankittk/hardcheck/internal/store/s3store"
	"github.com/ankittk/hardcheck/internal/store/sqlstore"
)

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// OpenOptions configures how to open the snapshot store.
type OpenOptions struct {
	Backend string // "file" (default), "memory", "sqlite", "postgres", "s3"
	Home    string // default location for file and sqlite backends
	Path    string // overrides the file or sqlite path
	DSN     string // postgres connection string; or env DATABASE_URL
	S3      s3store.Config
}

// Open returns the snapshot store selected by opts.Backend.
func Open(ctx context.Context, opts OpenOptions) (SnapshotStore, error) {
	switch opts.Backend {
	case "", BackendFile:
		path := opts.Path
		if path == "" {
			path = DefaultFilePath(opts.Home)
		}
		return NewFileStore(path), nil
	case BackendMemory:
		return NewMemoryStore(nil), nil
	case BackendSQLite:
		path := opts.Path
		if path == "" {
			path = filepath.Join(opts.Home, "protected", "deadlines.sqlite")
		}
		return sqlstore.OpenSQLite(path)
	case BackendPostgres:
		return sqlstore.OpenPostgres(opts.DSN)
	case BackendS3:
		return s3store.New(ctx, opts.S3)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
