package recap

import (
	"context"
	"time"

	"go.opencensus.io/tag"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/model/registry"
)

// Dataset sources for Integrated Database rows.
const (
	DatasetSourceCivil    = 1
	DatasetSourceCriminal = 2
	DatasetSourceAppeals  = 3
	DatasetSourceBankr    = 4
)

// An FJCIntegratedDatabase row is case metadata merged in from the Federal
// Judicial Center's Integrated Database. The upstream dataset is published
// best-effort and rows are not guaranteed to be complete or to join cleanly
// against dockets.
type FJCIntegratedDatabase struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"recap_fjcintegrateddatabase"`

	ID int64 `pg:",pk"`

	DateCreated  time.Time `pg:",notnull"`
	DateModified time.Time `pg:",notnull"`

	DatasetSource int `pg:",notnull,use_zero"`

	CircuitID  string `pg:"type:varchar(15),notnull,use_zero"`
	DistrictID string `pg:"type:varchar(15),notnull,use_zero"`

	DocketNumber string `pg:"type:varchar(32),notnull,use_zero"`

	Origin    *int
	DateFiled *time.Time `pg:"type:date"`

	Jurisdiction *int
	NatureOfSuit *int

	Title     string `pg:",notnull,use_zero"`
	Plaintiff string `pg:",notnull,use_zero"`
	Defendant string `pg:",notnull,use_zero"`

	DateTerminated *time.Time `pg:"type:date"`

	Disposition *int
	ProSe       *int
}

func (f *FJCIntegratedDatabase) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "recap_fjcintegrateddatabase"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, f)
}

type FJCIntegratedDatabaseList []*FJCIntegratedDatabase

func (fl FJCIntegratedDatabaseList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(fl) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "recap_fjcintegrateddatabase"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(fl))
	return s.PersistModel(ctx, fl)
}

func init() {
	registry.ModelRegistry.Register("recap_fjcintegrateddatabase", registry.RankDocket, &FJCIntegratedDatabase{})
}
