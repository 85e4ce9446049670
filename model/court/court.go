package court

import (
	"context"
	"time"

	"go.opencensus.io/tag"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/model/registry"
)

// Jurisdiction codes carried on a court row.
const (
	JurisdictionFederalAppellate  = "F"
	JurisdictionFederalDistrict   = "FD"
	JurisdictionFederalBankruptcy = "FB"
	JurisdictionFederalSpecial    = "FS"
	JurisdictionState             = "S"
)

type Court struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"search_court"`

	// ID is the court's short code, e.g. "ca11" or "gand".
	ID string `pg:",pk,type:varchar(15),notnull"`

	DateModified time.Time `pg:",notnull"`

	FullName       string `pg:",notnull,use_zero"`
	ShortName      string `pg:",notnull,use_zero"`
	CitationString string `pg:"type:varchar(100),notnull,use_zero"`
	URL            string `pg:",notnull,use_zero"`

	Jurisdiction string `pg:"type:varchar(3),notnull"`

	// Position orders courts for display, lowest first.
	Position float64 `pg:",notnull,use_zero"`

	InUse        bool `pg:",notnull,use_zero"`
	HasRecapData bool `pg:",notnull,use_zero"`

	StartDate *time.Time `pg:"type:date"`
	EndDate   *time.Time `pg:"type:date"`
}

func (c *Court) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_court"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, c)
}

type CourtList []*Court

func (cl CourtList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(cl) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_court"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(cl))
	return s.PersistModel(ctx, cl)
}

func init() {
	registry.ModelRegistry.Register("search_court", registry.RankCourt, &Court{})
}
