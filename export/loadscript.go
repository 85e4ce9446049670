package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeLoadScript emits a shell script that loads the snapshot into an empty
// database with psql.
func (s *Snapshotter) writeLoadScript(schemaFile string, files []FileInfo, stamp string) (*FileInfo, error) {
	name := s.fileName("load-bulk-data", stamp, ".sh")
	path := filepath.Join(s.cfg.Path, name)

	script := LoadScript(schemaFile, files)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return nil, err
	}
	return &FileInfo{Name: name, Bytes: int64(len(script))}, nil
}

// LoadScript renders the loader for a set of snapshot files. Files are loaded
// in the order given, which the snapshotter guarantees is reference order.
// \copy reads unquoted empty fields as NULL, which together with the
// exporter's FORCE_QUOTE * preserves the null versus empty string distinction
// round trip.
func LoadScript(schemaFile string, files []FileInfo) string {
	var b strings.Builder

	b.WriteString("#!/usr/bin/env bash\n")
	b.WriteString("#\n")
	b.WriteString("# Load a court archive bulk snapshot into PostgreSQL.\n")
	b.WriteString("# Run from the directory holding the snapshot files.\n")
	b.WriteString("#\n")
	b.WriteString("# usage: $0 <database-url>\n")
	b.WriteString("set -euo pipefail\n\n")

	b.WriteString("if [ $# -ne 1 ]; then\n")
	b.WriteString("  echo \"usage: $0 <database-url>\" >&2\n")
	b.WriteString("  exit 1\n")
	b.WriteString("fi\n")
	b.WriteString("DB_URL=\"$1\"\n\n")

	fmt.Fprintf(&b, "echo 'creating tables from %s'\n", schemaFile)
	fmt.Fprintf(&b, "psql \"$DB_URL\" -v ON_ERROR_STOP=1 -f %q\n\n", schemaFile)

	for _, f := range files {
		copyCmd := fmt.Sprintf(`\copy %s FROM STDIN WITH (FORMAT csv, HEADER)`, f.Table)
		fmt.Fprintf(&b, "echo 'loading %s'\n", f.Table)
		if strings.HasSuffix(f.Name, ".zst") {
			fmt.Fprintf(&b, "zstd -dc %q | psql \"$DB_URL\" -v ON_ERROR_STOP=1 -c %q\n", f.Name, copyCmd)
		} else {
			fmt.Fprintf(&b, "psql \"$DB_URL\" -v ON_ERROR_STOP=1 -c %q < %q\n", copyCmd, f.Name)
		}
	}

	b.WriteString("\necho 'done'\n")
	return b.String()
}
