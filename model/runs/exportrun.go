package runs

import (
	"context"
	"time"

	"go.opencensus.io/tag"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model"
)

const (
	ExportStatusOK    = "OK"
	ExportStatusError = "ERROR" // one or more tables failed, files may be incomplete
)

// An ExportRun records one bulk snapshot pass. Consumers looking for a
// complete snapshot should key off the manifest named here: the manifest is
// written last, after every table file has been uploaded.
type ExportRun struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"export_run"`

	ID string `pg:",pk,type:uuid"`

	// Stamp is the generation timestamp embedded in every file name
	// produced by the run.
	Stamp string `pg:"type:varchar(32),notnull"`

	StartedAt   time.Time `pg:",notnull"`
	CompletedAt time.Time `pg:",use_zero"`

	Status            string `pg:"type:varchar(10),notnull"`
	StatusInformation string `pg:",notnull,use_zero"`

	ManifestName string `pg:",notnull,use_zero"`

	TablesExported int   `pg:",notnull,use_zero"`
	RowsExported   int64 `pg:",notnull,use_zero"`
	BytesWritten   int64 `pg:",notnull,use_zero"`
}

func (e *ExportRun) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "export_run"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, e)
}

type ExportRunList []*ExportRun

func (el ExportRunList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(el) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "export_run"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(el))
	return s.PersistModel(ctx, el)
}
