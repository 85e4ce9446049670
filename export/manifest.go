package export

import (
	"encoding/json"
	"os"
	"time"
)

// A FileInfo describes one file a snapshot run produced. SHA256 is the digest
// of the file as stored, i.e. of the compressed bytes when compression is on.
type FileInfo struct {
	Name   string `json:"name"`
	Table  string `json:"table,omitempty"`
	Rows   int64  `json:"rows,omitempty"`
	Bytes  int64  `json:"bytes"`
	SHA256 string `json:"sha256,omitempty"`
}

// A Manifest indexes one complete snapshot. It is the last file written and
// uploaded: finding it means every file it names is in place.
type Manifest struct {
	Stamp         string    `json:"stamp"`
	GeneratedAt   time.Time `json:"generated_at"`
	SchemaVersion string    `json:"schema_version"`
	SchemaFile    string    `json:"schema_file"`
	LoadScript    string    `json:"load_script"`

	Files []FileInfo `json:"files"`
}

func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadManifest loads a manifest written by a previous run.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
