package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	"github.com/go-pg/pg/v10/types"
	logging "github.com/ipfs/go-log/v2"
	"github.com/raulk/clock"
	"go.opencensus.io/stats"
	"go.opentelemetry.io/otel"
	"golang.org/x/xerrors"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/model/auth"
	"github.com/gavelhq/gavel/model/court"
	"github.com/gavelhq/gavel/model/docket"
	"github.com/gavelhq/gavel/model/party"
	"github.com/gavelhq/gavel/model/recap"
	"github.com/gavelhq/gavel/model/runs"
	"github.com/gavelhq/gavel/schemas"
)

var log = logging.Logger("gavel/storage")

// models holds every table the schema carries, including operational tables
// that are not registered for export. VerifyCurrentSchema checks each one
// against the migrated database.
var models = []interface{}{
	(*auth.Token)(nil),
	(*court.Court)(nil),
	(*court.OriginatingCourtInformation)(nil),
	(*docket.Docket)(nil),
	(*docket.DocketEvent)(nil),
	(*docket.DocketEntry)(nil),
	(*docket.DocketEntryEvent)(nil),
	(*party.Attorney)(nil),
	(*party.Party)(nil),
	(*party.Role)(nil),
	(*recap.ClaimHistory)(nil),
	(*recap.ClaimHistoryEvent)(nil),
	(*recap.FJCIntegratedDatabase)(nil),
	(*recap.RECAPDocument)(nil),
	(*recap.RECAPDocumentEvent)(nil),
	(*runs.ExportRun)(nil),
}

var (
	ErrSchemaTooOld = errors.New("database schema is too old and requires migration")
	ErrSchemaTooNew = errors.New("database schema is too new for this version of gavel")
)

// SchemaLock is held shared by every connected instance and exclusively by a
// migration run, so a migration only proceeds when no instances are connected
// and instances refuse to connect mid-migration.
var SchemaLock AdvisoryLock = 1

// MaxPostgresNameLength is the maximum length of a postgres identifier such
// as an application name.
const MaxPostgresNameLength = 64

type Database struct {
	db         *pg.DB
	opt        *pg.Options
	schemaName string
	version    model.Version

	Clock  clock.Clock
	Upsert bool
}

func NewDatabase(ctx context.Context, url string, poolSize int, name string, schemaName string, upsert bool) (*Database, error) {
	if len(name) > MaxPostgresNameLength {
		return nil, xerrors.Errorf("application name exceeds maximum length (%d): %q", MaxPostgresNameLength, name)
	}

	opt, err := pg.ParseURL(url)
	if err != nil {
		return nil, xerrors.Errorf("parse database URL: %w", err)
	}
	opt.PoolSize = poolSize
	if opt.ApplicationName == "" {
		opt.ApplicationName = name
	}

	if schemaName == "" {
		schemaName = "public"
	}
	if schemaName != "public" {
		// Prefer objects from the configured schema but fall back to public
		// for extensions.
		opt.OnConnect = func(ctx context.Context, conn *pg.Conn) error {
			_, err := conn.Exec("SET search_path = ?,public", pg.Safe(schemaName))
			return err
		}
	}

	return &Database{
		opt:        opt,
		schemaName: schemaName,
		Clock:      clock.New(),
		Upsert:     upsert,
	}, nil
}

// NewDatabaseFromDB wraps an existing connection. Used by tests that manage
// their own connection lifecycle.
func NewDatabaseFromDB(ctx context.Context, db *pg.DB, schemaName string) (*Database, error) {
	version, err := validateDatabaseSchemaVersion(ctx, db, schemaName)
	if err != nil {
		return nil, err
	}
	return &Database{
		db:         db,
		schemaName: schemaName,
		version:    version,
		Clock:      clock.New(),
	}, nil
}

// Connect opens the connection pool and verifies that the database schema is
// one this build can write to. It is an error to connect while a migration is
// in progress.
func (d *Database) Connect(ctx context.Context) error {
	db, err := connect(ctx, d.opt)
	if err != nil {
		return xerrors.Errorf("connect: %w", err)
	}

	version, err := validateDatabaseSchemaVersion(ctx, db, d.schemaName)
	if err != nil {
		_ = db.Close()
		return err
	}

	d.db = db
	d.version = version
	return nil
}

func connect(ctx context.Context, opt *pg.Options) (*pg.DB, error) {
	db := pg.Connect(opt)
	db = db.WithContext(ctx)

	// Check if connection credentials are valid and PostgreSQL is up and running.
	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, xerrors.Errorf("ping database: %w", err)
	}

	// Acquire a shared lock on the schema to notify other instances that we
	// are running.
	if err := SchemaLock.LockShared(ctx, db); err != nil {
		_ = db.Close()
		return nil, xerrors.Errorf("acquiring schema lock, possible migration in progress: %w", err)
	}

	stats.Record(ctx, metrics.DBConns.M(1))
	return db, nil
}

func (d *Database) IsConnected(ctx context.Context) bool {
	if d.db == nil {
		return false
	}
	return d.db.Ping(ctx) == nil
}

func (d *Database) Close(ctx context.Context) error {
	// The shared schema lock is released automatically when the session ends.
	err := d.db.Close()
	d.db = nil
	stats.Record(ctx, metrics.DBConns.M(-1))
	return err
}

// SchemaVersion reports the schema version found when the connection was
// established.
func (d *Database) SchemaVersion() model.Version {
	return d.version
}

func (d *Database) SchemaConfig() schemas.Config {
	return schemas.Config{SchemaName: d.schemaName}
}

// AsORM exposes the underlying go-pg handle for callers that build their own
// queries, such as the API server and the export pipeline.
func (d *Database) AsORM() *pg.DB {
	return d.db
}

// PersistBatch persists a batch of persistables in a single transaction.
func (d *Database) PersistBatch(ctx context.Context, ps ...model.Persistable) error {
	ctx, span := otel.Tracer("").Start(ctx, "Database.PersistBatch")
	defer span.End()

	return d.db.RunInTransaction(ctx, func(tx *pg.Tx) error {
		txs := &TxStorage{
			tx:     tx,
			upsert: d.Upsert,
		}

		for _, p := range ps {
			if err := p.Persist(ctx, txs, d.version); err != nil {
				metrics.RecordInc(ctx, metrics.PersistFailure)
				return err
			}
		}
		return nil
	})
}

type TxStorage struct {
	tx     *pg.Tx
	upsert bool
}

// PersistModel persists a single model or slice of models.
func (s *TxStorage) PersistModel(ctx context.Context, m interface{}) error {
	if s.upsert {
		conflict, upsert := GenerateUpsertStrings(m)
		if _, err := s.tx.ModelContext(ctx, m).
			OnConflict(conflict).
			Set(upsert).
			Insert(); err != nil {
			return xerrors.Errorf("persisting model with upsert: %w", err)
		}
		return nil
	}
	if _, err := s.tx.ModelContext(ctx, m).
		OnConflict("DO NOTHING").
		Insert(); err != nil {
		return xerrors.Errorf("persisting model: %w", err)
	}
	return nil
}

// GenerateUpsertStrings builds the ON CONFLICT clause pair used to upsert m:
// a conflict target over the model's primary keys and a SET list assigning
// every other column from the excluded row.
func GenerateUpsertStrings(m interface{}) (string, string) {
	tbl := orm.NewQuery(nil, m).TableModel().Table()

	var pks []string
	for _, pk := range tbl.PKs {
		pks = append(pks, string(pk.Column))
	}

	var sets []string
	for _, field := range tbl.DataFields {
		sets = append(sets, fmt.Sprintf(`"%s" = EXCLUDED.%s`, field.SQLName, field.SQLName))
	}

	conflict := fmt.Sprintf("(%s) DO UPDATE", strings.Join(pks, ", "))
	return conflict, strings.Join(sets, ", ")
}

// VerifyCurrentSchema checks that every model in this build has a
// corresponding table in the database with the column names, types and
// varchar widths the model declares. It reports all problems found, not just
// the first.
func (d *Database) VerifyCurrentSchema(ctx context.Context) error {
	if d.db != nil {
		return verifyCurrentSchema(ctx, d.db, d.schemaName)
	}

	db, err := connect(ctx, d.opt)
	if err != nil {
		return xerrors.Errorf("connect: %w", err)
	}
	defer db.Close() // nolint: errcheck
	return verifyCurrentSchema(ctx, db, d.schemaName)
}

func verifyCurrentSchema(ctx context.Context, db *pg.DB, schemaName string) error {
	valid := true
	for _, m := range models {
		tbl := db.Model(m).TableModel().Table()
		if err := verifyModel(ctx, db, schemaName, tbl); err != nil {
			valid = false
			log.Errorf("verify schema: %v", err)
		}
	}
	if !valid {
		return xerrors.Errorf("database schema was not compatible with current models")
	}
	return nil
}

func verifyModel(ctx context.Context, db *pg.DB, schemaName string, tbl *orm.Table) error {
	tableName := stripQuotes(tbl.SQLNameForSelects)

	exists, err := tableExists(ctx, db, schemaName, tableName)
	if err != nil {
		return xerrors.Errorf("checking if table %s exists: %w", tableName, err)
	}
	if !exists {
		return xerrors.Errorf("required table %s not found", tableName)
	}

	for _, fld := range tbl.Fields {
		var dataType string
		var maxLength *int
		_, err := db.QueryOneContext(ctx, pg.Scan(&dataType, &maxLength),
			`SELECT data_type, character_maximum_length FROM information_schema.columns
			 WHERE table_schema = ? AND table_name = ? AND column_name = ?`,
			schemaName, tableName, fld.SQLName)
		if err != nil {
			if errors.Is(err, pg.ErrNoRows) {
				return xerrors.Errorf("required column %s.%s not found", tableName, fld.SQLName)
			}
			return xerrors.Errorf("querying column %s.%s: %w", tableName, fld.SQLName, err)
		}

		wantType, wantLength := normalizeSQLType(fld.SQLType)
		if dataType != wantType {
			return xerrors.Errorf("column %s.%s has type %q, model requires %q", tableName, fld.SQLName, dataType, wantType)
		}
		if wantLength > 0 {
			if maxLength == nil {
				return xerrors.Errorf("column %s.%s has no length limit, model requires %d", tableName, fld.SQLName, wantLength)
			}
			if *maxLength != wantLength {
				return xerrors.Errorf("column %s.%s has length %d, model requires %d", tableName, fld.SQLName, *maxLength, wantLength)
			}
		}
	}

	return nil
}

// normalizeSQLType maps a go-pg column type to the data_type name and
// character length reported by information_schema.
func normalizeSQLType(sqlType string) (string, int) {
	sqlType = strings.ToLower(sqlType)

	for _, prefix := range []string{"varchar(", "character varying("} {
		if rest, found := strings.CutPrefix(sqlType, prefix); found {
			if n, err := strconv.Atoi(strings.TrimSuffix(rest, ")")); err == nil {
				return "character varying", n
			}
		}
	}

	switch sqlType {
	case "varchar", "character varying":
		return "character varying", 0
	case "timestamptz":
		return "timestamp with time zone", 0
	case "timestamp":
		return "timestamp without time zone", 0
	case "int8":
		return "bigint", 0
	case "int4":
		return "integer", 0
	case "int2":
		return "smallint", 0
	case "float8":
		return "double precision", 0
	case "float4":
		return "real", 0
	case "bool":
		return "boolean", 0
	default:
		return sqlType, 0
	}
}

func tableExists(ctx context.Context, db *pg.DB, schemaName string, tableName string) (bool, error) {
	var exists bool
	_, err := db.QueryOneContext(ctx, pg.Scan(&exists),
		`SELECT EXISTS (SELECT 1 FROM pg_catalog.pg_class c
		 JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		 WHERE n.nspname = ? AND c.relname = ? AND c.relkind = 'r')`,
		schemaName, tableName)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func stripQuotes(s types.Safe) string {
	return strings.Trim(string(s), `"`)
}
