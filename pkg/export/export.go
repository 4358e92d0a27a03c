// Package export serializes all stored sessions plus freshly computed
// analytics into a downloadable snapshot document.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/anshul-jain-devx108/shopmind/pkg/analytics"
	"github.com/anshul-jain-devx108/shopmind/pkg/logger"
	"github.com/anshul-jain-devx108/shopmind/pkg/store"
	"github.com/anshul-jain-devx108/shopmind/pkg/types"
)

// fileNamePrefix is embedded in every snapshot file name, followed by the
// calendar date of the export.
const fileNamePrefix = "shopmind-chat-data"

// Snapshot is the exported document: the moment of export, the analytics
// computed at that moment, and every stored session in full.
type Snapshot struct {
	ExportDate time.Time       `json:"exportDate" yaml:"exportDate"`
	Analytics  types.Analytics `json:"analytics" yaml:"analytics"`
	Sessions   []types.Session `json:"sessions" yaml:"sessions"`
}

// BuildSnapshot assembles a snapshot from the store's current contents.
// Sessions with unreadable bodies are skipped, matching analytics.
func BuildSnapshot(st *store.Store) (*Snapshot, error) {
	report, err := analytics.NewEngine(st).Compute()
	if err != nil {
		return nil, fmt.Errorf("failed to compute analytics: %w", err)
	}

	index, err := st.ListIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]types.Session, 0, len(index))
	for _, entry := range index {
		session, err := st.Load(entry.SessionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				logger.Warn("Skipping unreadable session %s in export", entry.SessionID)
				continue
			}
			return nil, fmt.Errorf("failed to load session %s: %w", entry.SessionID, err)
		}
		sessions = append(sessions, *session)
	}

	return &Snapshot{
		ExportDate: time.Now(),
		Analytics:  report,
		Sessions:   sessions,
	}, nil
}

// WriteSnapshot writes the snapshot into dir using the named format and
// returns the full path of the written file. The file name embeds the
// snapshot's export date.
func WriteSnapshot(snap *Snapshot, dir, format string) (string, error) {
	exporter, err := NewExporter(format)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s.%s", fileNamePrefix, snap.ExportDate.Format("2006-01-02"), exporter.Extension())
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := exporter.Export(snap, f); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	return path, nil
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(snap *Snapshot, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml)", format)
	}
}
