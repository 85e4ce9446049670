package storage

import (
	"context"
	"strconv"

	"github.com/go-pg/migrations/v8"
	"github.com/go-pg/pg/v10"
	"golang.org/x/xerrors"

	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/schemas"
	v1 "github.com/gavelhq/gavel/schemas/v1"
)

// versionTableName tracks the major schema version installed in the
// database. Patch versions within the major are tracked by go-pg migrations
// in gopg_migrations.
const versionTableName = "gavel_version"

// GetSchemaVersions returns the schema version in the database and the
// latest schema version defined by the available migrations.
func (d *Database) GetSchemaVersions(ctx context.Context) (model.Version, model.Version, error) {
	latest := LatestSchemaVersion()

	// If we're already connected then use that connection
	if d.db != nil {
		dbVersion, _, err := getDatabaseSchemaVersion(ctx, d.db, d.schemaName)
		return dbVersion, latest, err
	}

	// Temporarily connect
	db, err := connect(ctx, d.opt)
	if err != nil {
		return model.Version{}, model.Version{}, xerrors.Errorf("connect: %w", err)
	}
	defer db.Close() // nolint: errcheck
	dbVersion, _, err := getDatabaseSchemaVersion(ctx, db, d.schemaName)
	return dbVersion, latest, err
}

// getDatabaseSchemaVersion returns the schema version in use by the database
// and whether the schema versioning tables have been initialized. If no
// schema version tables can be found then the database is assumed to be
// uninitialized and a zero version and false value will be returned.
func getDatabaseSchemaVersion(ctx context.Context, db *pg.DB, schemaName string) (model.Version, bool, error) {
	gvExists, err := tableExists(ctx, db, schemaName, versionTableName)
	if err != nil {
		return model.Version{}, false, xerrors.Errorf("checking if %s exists: %w", versionTableName, err)
	}

	migExists, err := tableExists(ctx, db, schemaName, "gopg_migrations")
	if err != nil {
		return model.Version{}, false, xerrors.Errorf("checking if gopg_migrations exists: %w", err)
	}

	if !migExists && !gvExists {
		// Uninitialized database
		return model.Version{}, false, nil
	}

	var major int
	_, err = db.QueryOneContext(ctx, pg.Scan(&major), `SELECT major FROM ? LIMIT 1`, pg.SafeQuery(schemaName+"."+versionTableName))
	if err != nil && err != pg.ErrNoRows {
		return model.Version{}, false, err
	}

	coll, err := collectionForMajor(major, schemas.Config{SchemaName: schemaName})
	if err != nil {
		return model.Version{}, false, err
	}

	migration, err := coll.Version(db)
	if err != nil {
		return model.Version{}, false, xerrors.Errorf("determine schema version: %w", err)
	}

	if major == 0 && migration == 0 {
		// Version tables exist but are unpopulated, so the database is not
		// initialized.
		return model.Version{}, false, nil
	}

	return model.Version{Major: major, Patch: int(migration)}, true, nil
}

// initDatabaseSchema initializes the tables for tracking the schema version
// installed in the database.
func initDatabaseSchema(ctx context.Context, db *pg.DB, schemaName string) error {
	if schemaName != "public" {
		if _, err := db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS ?`, pg.SafeQuery(schemaName)); err != nil {
			return xerrors.Errorf("ensure schema exists: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ? (
			"major" int NOT NULL,
			PRIMARY KEY ("major")
		)
	`, pg.SafeQuery(schemaName+"."+versionTableName)); err != nil {
		return xerrors.Errorf("ensure %s exists: %w", versionTableName, err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ? (
			id serial,
			version bigint,
			created_at timestamptz
		)
	`, pg.SafeQuery(schemaName+".gopg_migrations")); err != nil {
		return xerrors.Errorf("ensure gopg_migrations exists: %w", err)
	}

	return nil
}

// validateDatabaseSchemaVersion checks that the database schema version is
// one the models in this build can be persisted to.
func validateDatabaseSchemaVersion(ctx context.Context, db *pg.DB, schemaName string) (model.Version, error) {
	dbVersion, initialized, err := getDatabaseSchemaVersion(ctx, db, schemaName)
	if err != nil {
		return model.Version{}, xerrors.Errorf("get schema version: %w", err)
	}

	if !initialized {
		return model.Version{}, xerrors.Errorf("schema not installed in database")
	}

	latestVersion := LatestSchemaVersion()
	switch {
	case latestVersion.Before(dbVersion):
		return model.Version{}, ErrSchemaTooNew
	case dbVersion.Before(model.OldestSupportedSchemaVersion):
		return model.Version{}, ErrSchemaTooOld
	default:
		return dbVersion, nil
	}
}

// LatestSchemaVersion returns the most recent version of the model schema.
// It is based on the highest patch in the highest major schema version.
func LatestSchemaVersion() model.Version {
	return latestSchemaVersionForMajor(schemas.LatestMajor)
}

func latestSchemaVersionForMajor(major int) model.Version {
	switch major {
	case 1:
		return v1.Version()
	default:
		panic("inconsistent schema versions: no patches found for major version " + strconv.Itoa(major))
	}
}

// MigrateSchema migrates the database schema to the latest version based on
// the list of migrations available.
func (d *Database) MigrateSchema(ctx context.Context) error {
	return d.MigrateSchemaTo(ctx, LatestSchemaVersion())
}

// MigrateSchemaTo migrates the database schema to a specific version. Patches
// are forward-only: downgrading to an earlier patch is not supported.
func (d *Database) MigrateSchemaTo(ctx context.Context, target model.Version) error {
	if target.Major < 1 || target.Major > schemas.LatestMajor {
		return xerrors.Errorf("no schema defined for major version %d", target.Major)
	}

	db, err := connect(ctx, d.opt)
	if err != nil {
		return xerrors.Errorf("connect: %w", err)
	}
	defer db.Close() // nolint: errcheck

	dbVersion, initialized, err := getDatabaseSchemaVersion(ctx, db, d.schemaName)
	if err != nil {
		return xerrors.Errorf("get schema versions: %w", err)
	}
	log.Infof("current database schema is version %s", dbVersion)

	if initialized && target.Major != dbVersion.Major {
		return xerrors.Errorf("cannot migrate to a different major schema version. database version=%s, target version=%s", dbVersion, target)
	}

	latestVersion := latestSchemaVersionForMajor(target.Major)
	if latestVersion.Patch < target.Patch {
		return xerrors.Errorf("no migrations found for version %s", target)
	}

	if initialized && dbVersion.Patch > target.Patch {
		return xerrors.Errorf("schema downgrades are not supported. database version=%s, target version=%s", dbVersion, target)
	}

	if initialized && dbVersion == target {
		log.Infof("database schema is already at version %s", dbVersion)
		return nil
	}

	cfg := schemas.Config{SchemaName: d.schemaName}

	coll, err := collectionForMajor(target.Major, cfg)
	if err != nil {
		return xerrors.Errorf("no schema definition corresponds to version %s: %w", target, err)
	}

	if err := checkMigrationSequence(coll, dbVersion.Patch, target.Patch); err != nil {
		return xerrors.Errorf("check migration sequence: %w", err)
	}

	// Acquire an exclusive lock on the schema so we know no other instances
	// are running.
	if err := SchemaLock.LockExclusive(ctx, db); err != nil {
		return xerrors.Errorf("acquiring schema lock: %w", err)
	}
	defer func() {
		if err := SchemaLock.UnlockExclusive(ctx, db); err != nil {
			log.Errorf("failed to release exclusive lock: %v", err)
		}
	}()

	if err := initDatabaseSchema(ctx, db, d.schemaName); err != nil {
		return xerrors.Errorf("initializing schema version tables: %w", err)
	}

	if !initialized {
		log.Infof("creating base schema for major version %d", target.Major)

		base, err := baseForMajor(target.Major, cfg)
		if err != nil {
			return xerrors.Errorf("no base schema defined for version %s: %w", target, err)
		}

		if _, err := db.ExecContext(ctx, base); err != nil {
			return xerrors.Errorf("creating base schema: %w", err)
		}

		if _, err := db.ExecContext(ctx, `INSERT INTO ? ("major") VALUES (?)`, pg.SafeQuery(d.schemaName+"."+versionTableName), target.Major); err != nil {
			return xerrors.Errorf("recording major schema version: %w", err)
		}

		dbVersion = model.Version{Major: target.Major, Patch: 0}
	}

	if dbVersion.Patch == target.Patch {
		log.Infof("current database schema is now version %s", dbVersion)
		return nil
	}

	log.Infof("running schema migration from version %s to version %s", dbVersion, target)
	_, newDBPatch, err := coll.Run(db, "up", strconv.Itoa(target.Patch))
	if err != nil {
		return xerrors.Errorf("run migration: %w", err)
	}

	dbVersion.Patch = int(newDBPatch)
	log.Infof("current database schema is now version %s", dbVersion)

	return nil
}

// checkMigrationSequence ensures that every patch between from and to exists
// exactly once.
func checkMigrationSequence(coll *migrations.Collection, from, to int) error {
	versions := map[int64]bool{}
	for _, m := range coll.Migrations() {
		if versions[m.Version] {
			return xerrors.Errorf("duplicate migration for schema version %d", m.Version)
		}
		versions[m.Version] = true
	}

	if from > to {
		to, from = from, to
	}

	for i := from; i <= to; i++ {
		// Patch 0 is the base schema and is not part of the collection.
		if i == 0 {
			continue
		}

		if !versions[int64(i)] {
			return xerrors.Errorf("missing migration for schema version %d", i)
		}
	}

	return nil
}

func collectionForMajor(major int, cfg schemas.Config) (*migrations.Collection, error) {
	switch major {
	case 0, 1:
		// Major 0 appears when the version tables exist but are unpopulated;
		// treat it as the current major so patch discovery still works.
		return v1.GetPatches(cfg)
	default:
		return nil, xerrors.Errorf("unsupported major version: %d", major)
	}
}

func baseForMajor(major int, cfg schemas.Config) (string, error) {
	switch major {
	case 1:
		return v1.GetBase(cfg)
	default:
		return "", xerrors.Errorf("unsupported major version: %d", major)
	}
}
