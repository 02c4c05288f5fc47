package database

import (
	"fmt"
	"os"
	"path/filepath"

	"goupi/internal/config"
	"goupi/internal/goupi"
)

// HistoryFileName is the journal file created under the sqlite data_dir.
const HistoryFileName = "history.db"

// NewHistoryFromConfig creates a History implementation based on the history
// config type. Type "none" yields a nil History and no error.
func NewHistoryFromConfig(cfg config.HistoryConfig) (goupi.History, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite history")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating history data dir: %w", err)
		}
		return NewSQLiteHistory(filepath.Join(cfg.DataDir, HistoryFileName))
	case "memory":
		return NewSQLiteHistory(":memory:")
	default:
		return nil, fmt.Errorf("unknown history type: %s", cfg.Type)
	}
}
