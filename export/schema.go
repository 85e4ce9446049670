package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pg/pg/v10/orm"

	"github.com/gavelhq/gavel/model/registry"
)

// writeSchema dumps CREATE TABLE statements for the exported tables so a
// snapshot can be loaded into an empty database. Statements come out in load
// order, matching the table files and the load script.
func (s *Snapshotter) writeSchema(tables []registry.Table, stamp string) (*FileInfo, error) {
	name := s.fileName("schema", stamp, ".sql")
	path := filepath.Join(s.cfg.Path, name)

	ddl := SchemaDDL(tables, s.db.SchemaVersion().String(), stamp)
	if err := os.WriteFile(path, []byte(ddl), 0o644); err != nil {
		return nil, err
	}
	return &FileInfo{Name: name, Bytes: int64(len(ddl))}, nil
}

// SchemaDDL renders the table definitions the archive snapshot relies on.
func SchemaDDL(tables []registry.Table, schemaVersion, stamp string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Court archive snapshot schema\n")
	fmt.Fprintf(&b, "-- Generated: %s\n", stamp)
	fmt.Fprintf(&b, "-- Schema version: %s\n", schemaVersion)
	b.WriteString("--\n")
	b.WriteString("-- Tables are ordered for loading: rows only ever reference rows from\n")
	b.WriteString("-- tables created earlier in this file.\n\n")

	for _, t := range tables {
		fmt.Fprintf(&b, "-- Name: %s\n", t.Name)
		b.WriteString(TableDDL(t.Model))
		b.WriteString(";\n\n")
	}
	return b.String()
}

// TableDDL renders the CREATE TABLE statement for one model.
func TableDDL(m interface{}) string {
	q := orm.NewQuery(nil, m)
	ctq := orm.NewCreateTableQuery(q, &orm.CreateTableOptions{IfNotExists: true})
	return ctq.String()
}
