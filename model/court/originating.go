package court

import (
	"context"
	"time"

	"go.opencensus.io/tag"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/model/registry"
)

// OriginatingCourtInformation records details of the lower-court case that an
// appellate docket arose from. At most one row per docket.
type OriginatingCourtInformation struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"search_originatingcourtinformation"`

	ID int64 `pg:",pk"`

	DateCreated  time.Time `pg:",notnull"`
	DateModified time.Time `pg:",notnull"`

	// DocketNumber is the docket number in the court of origin.
	DocketNumber string `pg:",notnull,use_zero"`

	AssignedToStr    string `pg:",notnull,use_zero"`
	OrderingJudgeStr string `pg:",notnull,use_zero"`
	CourtReporter    string `pg:"type:varchar(300),notnull,use_zero"`

	DateDisposed    *time.Time `pg:"type:date"`
	DateFiled       *time.Time `pg:"type:date"`
	DateJudgment    *time.Time `pg:"type:date"`
	DateJudgmentEOD *time.Time `pg:"type:date"`
	DateFiledNOA    *time.Time `pg:"type:date"`
	DateReceivedCOA *time.Time `pg:"type:date"`
}

func (o *OriginatingCourtInformation) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_originatingcourtinformation"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, o)
}

type OriginatingCourtInformationList []*OriginatingCourtInformation

func (ol OriginatingCourtInformationList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(ol) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_originatingcourtinformation"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(ol))
	return s.PersistModel(ctx, ol)
}

func init() {
	registry.ModelRegistry.Register("search_originatingcourtinformation", registry.RankDocketed, &OriginatingCourtInformation{})
}
