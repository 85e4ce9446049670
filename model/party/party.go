package party

import (
	"context"
	"time"

	"go.opencensus.io/tag"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/model/registry"
)

// A Party is a person or organization appearing in cases. Parties are shared
// across dockets: the same party row is joined to every docket it appears on
// through Role rows, which is why filtering parties by docket does not by
// itself narrow their attorney history.
type Party struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"people_party"`

	ID int64 `pg:",pk"`

	DateCreated  time.Time `pg:",notnull"`
	DateModified time.Time `pg:",notnull"`

	Name string `pg:",notnull"`

	ExtraInfo string `pg:",notnull,use_zero"`
}

func (p *Party) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "people_party"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, p)
}

type PartyList []*Party

func (pl PartyList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(pl) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "people_party"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(pl))
	return s.PersistModel(ctx, pl)
}

func init() {
	registry.ModelRegistry.Register("people_party", registry.RankDocketed, &Party{})
}
