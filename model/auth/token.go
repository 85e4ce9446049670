package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.opencensus.io/tag"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model"
)

// A Token authenticates API requests. Tokens are administered with the token
// CLI and cached by the API server. The table is not registered as exportable
// so bulk snapshots never carry credentials.
type Token struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"api_token"`

	// Key is the secret presented in the Authorization header.
	Key string `pg:",pk,type:varchar(40),notnull"`

	// Name labels the token's owner for the administrator.
	Name string `pg:"type:varchar(150),notnull"`

	DateCreated time.Time `pg:",notnull"`

	// HasRecapPermission gates the endpoints that are only available to
	// select users: parties, attorneys, fast document lookup and uploads.
	HasRecapPermission bool `pg:",notnull,use_zero"`

	Revoked     bool `pg:",notnull,use_zero"`
	DateRevoked *time.Time
}

// NewKey generates a random token key.
func NewKey() (string, error) {
	var b [20]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

func (t *Token) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "api_token"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, t)
}

type TokenList []*Token

func (tl TokenList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(tl) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "api_token"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(tl))
	return s.PersistModel(ctx, tl)
}
