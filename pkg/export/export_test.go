package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anshul-jain-devx108/shopmind/pkg/store"
	"github.com/anshul-jain-devx108/shopmind/pkg/types"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedSessions(t *testing.T, st *store.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		s := &types.Session{
			SessionID: fmt.Sprintf("session-%d", i),
			UserID:    "alice@example.com",
			StartTime: start,
			Messages: []types.Message{
				{
					ID:        fmt.Sprintf("m%d", i),
					Content:   "red shoes",
					Sender:    types.SenderUser,
					Timestamp: start,
				},
			},
			Metadata: types.SessionMetadata{
				MessageCount:     1,
				UserMessageCount: 1,
				SearchQueries:    []string{"red shoes"},
			},
		}
		if err := st.Save(s); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
}

func TestBuildSnapshot(t *testing.T) {
	st := newTestStore(t)
	seedSessions(t, st, 3)

	snap, err := BuildSnapshot(st)
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if len(snap.Sessions) != 3 {
		t.Errorf("snapshot carries %d sessions, want 3", len(snap.Sessions))
	}
	if snap.Analytics.TotalSessions != 3 || snap.Analytics.TotalMessages != 3 {
		t.Errorf("snapshot analytics = %+v", snap.Analytics)
	}
	if snap.ExportDate.IsZero() {
		t.Error("snapshot has no export date")
	}
}

func TestWriteSnapshotJSON(t *testing.T) {
	st := newTestStore(t)
	seedSessions(t, st, 2)

	snap, err := BuildSnapshot(st)
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}

	dir := t.TempDir()
	path, err := WriteSnapshot(snap, dir, "json")
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	wantName := fmt.Sprintf("shopmind-chat-data-%s.json", snap.ExportDate.Format("2006-01-02"))
	if filepath.Base(path) != wantName {
		t.Errorf("file name = %q, want %q", filepath.Base(path), wantName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var parsed Snapshot
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("exported JSON does not parse back: %v", err)
	}
	if len(parsed.Sessions) != 2 {
		t.Errorf("parsed %d sessions, want 2", len(parsed.Sessions))
	}
	if parsed.Analytics.TotalMessages != snap.Analytics.TotalMessages {
		t.Errorf("analytics did not round-trip: %+v", parsed.Analytics)
	}
}

func TestWriteSnapshotYAML(t *testing.T) {
	st := newTestStore(t)
	seedSessions(t, st, 1)

	snap, err := BuildSnapshot(st)
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}

	dir := t.TempDir()
	path, err := WriteSnapshot(snap, dir, "yaml")
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if filepath.Ext(path) != ".yaml" {
		t.Errorf("extension = %q, want .yaml", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var parsed map[string]interface{}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("exported YAML does not parse back: %v", err)
	}
	if _, ok := parsed["sessions"]; !ok {
		t.Error("exported YAML missing sessions key")
	}
	if _, ok := parsed["analytics"]; !ok {
		t.Error("exported YAML missing analytics key")
	}
}

func TestNewExporterYMLAlias(t *testing.T) {
	exporter, err := NewExporter("yml")
	if err != nil {
		t.Fatalf("NewExporter(yml): %v", err)
	}
	if exporter.Extension() != "yaml" {
		t.Errorf("extension = %q, want yaml", exporter.Extension())
	}
}

func TestNewExporterUnsupportedFormat(t *testing.T) {
	if _, err := NewExporter("xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
