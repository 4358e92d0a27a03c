package export

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLExporter writes the snapshot as YAML.
type YAMLExporter struct{}

// Export writes the snapshot to w.
func (e *YAMLExporter) Export(snap *Snapshot, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(snap)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
