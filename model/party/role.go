package party

import (
	"context"
	"time"

	"go.opencensus.io/tag"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/model/registry"
)

// Role types describing how an attorney represents a party on a docket.
const (
	RoleAttorneyToBeNoticed = 1
	RoleAttorneyLead        = 2
	RoleAttorneySealedGroup = 3
	RoleProHacVice          = 4
	RoleSelfTerminated      = 5
	RoleTerminated          = 6
	RoleSuspended           = 7
	RoleInactive            = 8
	RoleDisbarred           = 9
	RoleUnknown             = 10
)

// A Role joins a party, an attorney and a docket: one row per representation.
// The docket reference is what scopes a representation to a case, so queries
// that want "attorneys for party X on docket Y" must constrain the role's
// docket, not the party's.
type Role struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"people_role"`

	ID int64 `pg:",pk"`

	PartyID    int64 `pg:",notnull,use_zero"`
	AttorneyID int64 `pg:",notnull,use_zero"`
	DocketID   int64 `pg:",notnull,use_zero"`

	Role int `pg:",notnull,use_zero"`

	DateAction *time.Time `pg:"type:date"`
}

func (r *Role) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "people_role"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, r)
}

type RoleList []*Role

func (rl RoleList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(rl) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "people_role"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(rl))
	return s.PersistModel(ctx, rl)
}

func init() {
	registry.ModelRegistry.Register("people_role", registry.RankDocument, &Role{})
}
