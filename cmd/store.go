package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/genyal/internal/store"
)

// sqliteFile is the database name inside the data directory.
const sqliteFile = "runs.db"

// openStore opens the run store of the given kind under dataDir.
func openStore(ctx context.Context, kind, dataDir string) (store.Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}

	switch kind {
	case "fs":
		return store.NewFSStore(dataDir)
	case "sqlite":
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return store.NewSQLiteStore(ctx, filepath.Join(dataDir, sqliteFile))
	default:
		return nil, fmt.Errorf("unknown store %q (want fs or sqlite)", kind)
	}
}
