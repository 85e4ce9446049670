package export

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/go-pg/pg/v10/orm"
	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	sha256 "github.com/minio/sha256-simd"
	"github.com/raulk/clock"
	"go.opencensus.io/tag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/gavelhq/gavel/config"
	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model/registry"
	"github.com/gavelhq/gavel/model/runs"
	"github.com/gavelhq/gavel/storage"
)

var log = logging.Logger("gavel/export")

// StampFormat is the generation date embedded in every snapshot file name.
// Runs are scheduled monthly so a date is enough to tell runs apart; a rerun
// on the same day deliberately replaces that day's files.
const StampFormat = "2006-01-02"

// A Snapshotter writes one full bulk snapshot: a csv file per registered
// table, a schema dump, a load script and, last of all, the manifest. The
// manifest is written and uploaded only after everything else succeeded, so
// consumers that key off it never observe a half-finished snapshot.
type Snapshotter struct {
	db  *storage.Database
	cfg config.ExportConf

	Clock clock.Clock

	// Progress, when set, is called after each table file is written.
	Progress func(table string, done, total int)
}

func NewSnapshotter(db *storage.Database, cfg config.ExportConf) *Snapshotter {
	return &Snapshotter{
		db:    db,
		cfg:   cfg,
		Clock: clock.New(),
	}
}

// Run performs one snapshot pass. It takes the export advisory lock for the
// duration and returns storage.ErrLockNotAcquired if another instance is
// already exporting. A table failure does not abort the pass: remaining
// tables are still written and the run is recorded with status ERROR and no
// manifest.
func (s *Snapshotter) Run(ctx context.Context) error {
	ctx, span := otel.Tracer("").Start(ctx, "Snapshotter.Run")
	defer span.End()

	if !s.db.IsConnected(ctx) {
		return errors.New("storage is not connected")
	}
	db := s.db.AsORM()

	if err := storage.ExportLock.LockExclusive(ctx, db); err != nil {
		return err
	}
	defer func() {
		if err := storage.ExportLock.UnlockExclusive(ctx, db); err != nil {
			log.Errorw("failed to release export lock", "error", err)
		}
	}()

	started := s.Clock.Now().UTC()
	stamp := started.Format(StampFormat)

	run := &runs.ExportRun{
		ID:        uuid.New().String(),
		Stamp:     stamp,
		StartedAt: started,
		Status:    runs.ExportStatusOK,
	}
	log.Infow("starting bulk export", "run", run.ID, "stamp", stamp, "path", s.cfg.Path)

	tables, err := s.tables()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.cfg.Path, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	var errs error
	var files []FileInfo
	for i, t := range tables {
		info, err := s.exportTable(ctx, t, stamp)
		if err != nil {
			metrics.RecordInc(ctx, metrics.ExportFailure)
			errs = multierr.Append(errs, fmt.Errorf("export %s: %w", t.Name, err))
			run.Status = runs.ExportStatusError
			continue
		}
		files = append(files, *info)
		run.TablesExported++
		run.RowsExported += info.Rows
		run.BytesWritten += info.Bytes
		if s.Progress != nil {
			s.Progress(t.Name, i+1, len(tables))
		}
		log.Infow("exported table", "table", t.Name, "rows", info.Rows, "bytes", info.Bytes)
	}

	schemaInfo, err := s.writeSchema(tables, stamp)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("write schema dump: %w", err))
		run.Status = runs.ExportStatusError
	}

	var scriptInfo *FileInfo
	if schemaInfo != nil {
		scriptInfo, err = s.writeLoadScript(schemaInfo.Name, files, stamp)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("write load script: %w", err))
			run.Status = runs.ExportStatusError
		}
	}

	// Only a clean pass gets a manifest.
	if run.Status == runs.ExportStatusOK {
		manifest := &Manifest{
			Stamp:         stamp,
			GeneratedAt:   started,
			SchemaVersion: s.db.SchemaVersion().String(),
			SchemaFile:    schemaInfo.Name,
			LoadScript:    scriptInfo.Name,
			Files:         files,
		}
		manifestName := s.fileName("manifest", stamp, ".json")
		if err := s.publish(ctx, manifest, manifestName, schemaInfo, scriptInfo); err != nil {
			errs = multierr.Append(errs, err)
			run.Status = runs.ExportStatusError
		} else {
			run.ManifestName = manifestName
		}
	}

	run.CompletedAt = s.Clock.Now().UTC()
	if errs != nil {
		run.StatusInformation = errs.Error()
	}
	if err := s.db.PersistBatch(ctx, run); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("record export run: %w", err))
	}

	log.Infow("bulk export finished",
		"run", run.ID,
		"status", run.Status,
		"tables", run.TablesExported,
		"rows", run.RowsExported,
		"bytes", run.BytesWritten,
	)
	return errs
}

// publish writes the manifest locally and, when an object store is
// configured, uploads every snapshot file followed by the manifest.
func (s *Snapshotter) publish(ctx context.Context, manifest *Manifest, manifestName string, schemaInfo, scriptInfo *FileInfo) error {
	if err := manifest.Write(filepath.Join(s.cfg.Path, manifestName)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	if s.cfg.ObjectStoreURL == "" {
		return nil
	}

	names := make([]string, 0, len(manifest.Files)+2)
	for _, f := range manifest.Files {
		names = append(names, f.Name)
	}
	names = append(names, schemaInfo.Name, scriptInfo.Name)

	up := NewUploader(s.cfg)
	if err := up.UploadAll(ctx, s.cfg.Path, names); err != nil {
		return err
	}
	// The manifest goes up alone and last: its presence marks the snapshot
	// complete.
	if err := up.Upload(ctx, filepath.Join(s.cfg.Path, manifestName), manifestName); err != nil {
		return fmt.Errorf("upload manifest: %w", err)
	}

	if !s.cfg.KeepLocal {
		for _, name := range append(names, manifestName) {
			if err := os.Remove(filepath.Join(s.cfg.Path, name)); err != nil {
				log.Warnw("failed to remove local snapshot file", "file", name, "error", err)
			}
		}
	}
	return nil
}

// exportTable copies one table to a csv file. All non-null values are quoted
// so that a bare empty field can only ever mean SQL NULL, and rows are
// ordered by primary key to keep files diffable between runs.
func (s *Snapshotter) exportTable(ctx context.Context, t registry.Table, stamp string) (*FileInfo, error) {
	ctx, span := otel.Tracer("").Start(ctx, "Snapshotter.exportTable",
		trace.WithAttributes(attribute.String("table", t.Name)))
	defer span.End()

	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, t.Name))
	stop := metrics.Timer(ctx, metrics.ExportDuration)
	defer stop()

	ext := ".csv"
	if s.cfg.Compress {
		ext += ".zst"
	}
	name := s.fileName(t.Name, stamp, ext)
	path := filepath.Join(s.cfg.Path, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	hash := sha256.New()
	counter := new(countingWriter)
	sink := io.MultiWriter(f, hash, counter)

	var target io.Writer = sink
	var zw *zstd.Writer
	if s.cfg.Compress {
		zw = zstd.NewWriter(sink)
		target = zw
	}

	res, err := s.db.AsORM().WithContext(ctx).CopyTo(target, copyQuery(t))
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("close compressor: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	rows := res.RowsAffected()
	metrics.RecordCount(ctx, metrics.ExportRows, rows)
	metrics.RecordCount(ctx, metrics.ExportBytes, int(counter.n))

	return &FileInfo{
		Name:   name,
		Table:  t.Name,
		Rows:   int64(rows),
		Bytes:  counter.n,
		SHA256: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func (s *Snapshotter) fileName(base, stamp, ext string) string {
	return fmt.Sprintf("%s%s-%s%s", s.cfg.OutputPrefix, base, stamp, ext)
}

// tables resolves the configured table subset against the registry, in load
// order. Naming an unknown table is a configuration error.
func (s *Snapshotter) tables() ([]registry.Table, error) {
	all := registry.ModelRegistry.Tables()
	if len(s.cfg.Tables) == 0 {
		return all, nil
	}

	want := make(map[string]bool, len(s.cfg.Tables))
	for _, n := range s.cfg.Tables {
		want[n] = true
	}
	out := make([]registry.Table, 0, len(want))
	for _, t := range all {
		if want[t.Name] {
			out = append(out, t)
			delete(want, t.Name)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for n := range want {
			unknown = append(unknown, n)
		}
		return nil, fmt.Errorf("unknown tables in export config: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

func (s *Snapshotter) JobType() string {
	return "bulk-export"
}

func (s *Snapshotter) Params() map[string]interface{} {
	return map[string]interface{}{
		"path":     s.cfg.Path,
		"compress": s.cfg.Compress,
		"upload":   s.cfg.ObjectStoreURL != "",
	}
}

// copyQuery builds the COPY statement for one table. FORCE_QUOTE * quotes
// every non-null value, leaving the unquoted empty field to mean NULL.
func copyQuery(t registry.Table) string {
	tbl := orm.NewQuery(nil, t.Model).TableModel().Table()

	cols := make([]string, len(tbl.Fields))
	for i, fld := range tbl.Fields {
		cols[i] = `"` + fld.SQLName + `"`
	}
	pks := make([]string, len(tbl.PKs))
	for i, fld := range tbl.PKs {
		pks[i] = `"` + fld.SQLName + `"`
	}

	return fmt.Sprintf(
		`COPY (SELECT %s FROM %s ORDER BY %s) TO STDOUT WITH (FORMAT csv, HEADER, FORCE_QUOTE *, ENCODING 'UTF8')`,
		strings.Join(cols, ", "), t.Name, strings.Join(pks, ", "),
	)
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
