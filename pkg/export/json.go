package export

import (
	"encoding/json"
	"io"
)

// JSONExporter writes the snapshot as pretty-printed JSON, the
// human-inspectable default.
type JSONExporter struct{}

// Export writes the snapshot to w.
func (e *JSONExporter) Export(snap *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(snap)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
