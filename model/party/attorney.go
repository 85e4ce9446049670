package party

import (
	"context"
	"time"

	"go.opencensus.io/tag"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/model/registry"
)

type Attorney struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"people_attorney"`

	ID int64 `pg:",pk"`

	DateCreated  time.Time `pg:",notnull"`
	DateModified time.Time `pg:",notnull"`

	Name string `pg:",notnull"`

	// ContactRaw is the unparsed contact block scraped from the docket.
	ContactRaw string `pg:",notnull,use_zero"`

	Phone string `pg:"type:varchar(20),notnull,use_zero"`
	Fax   string `pg:"type:varchar(20),notnull,use_zero"`
	Email string `pg:"type:varchar(254),notnull,use_zero"`
}

func (a *Attorney) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "people_attorney"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, a)
}

type AttorneyList []*Attorney

func (al AttorneyList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(al) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "people_attorney"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(al))
	return s.PersistModel(ctx, al)
}

func init() {
	registry.ModelRegistry.Register("people_attorney", registry.RankDocketed, &Attorney{})
}
