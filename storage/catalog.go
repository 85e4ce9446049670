package storage

import (
	"context"
	"os"
	"strings"

	"golang.org/x/xerrors"

	"github.com/gavelhq/gavel/config"
	"github.com/gavelhq/gavel/model"
)

// Metadata is additional information a storage may use to annotate the data
// it writes.
type Metadata struct {
	JobName string
}

// A StorageWithMetadata can accept additional metadata to annotate the data
// it writes.
type StorageWithMetadata interface {
	WithMetadata(Metadata) model.Storage
}

// A Catalog holds the storage systems defined in the config file, keyed by
// name. Database connections are defined lazily: the catalog builds the
// Database but leaves connecting to the caller.
type Catalog struct {
	databases map[string]*Database
	files     map[string]*CSVStorage
}

func NewCatalog(cfg config.StorageConf) (*Catalog, error) {
	c := &Catalog{
		databases: map[string]*Database{},
		files:     map[string]*CSVStorage{},
	}

	for name, sc := range cfg.Postgresql {
		if _, exists := c.databases[name]; exists {
			return nil, xerrors.Errorf("duplicate storage name: %q", name)
		}
		log.Debugw("registering storage", "name", name, "type", "postgresql")

		// The url is either indirect via URLEnv or explicit via URL.
		url := sc.URL
		if sc.URLEnv != "" {
			if v := os.Getenv(sc.URLEnv); v != "" {
				url = v
			}
		}

		db, err := NewDatabase(context.TODO(), url, sc.PoolSize, sc.ApplicationName, sc.SchemaName, sc.AllowUpsert)
		if err != nil {
			return nil, xerrors.Errorf("create database storage %q: %w", name, err)
		}
		c.databases[name] = db
	}

	for name, fc := range cfg.File {
		if _, exists := c.databases[name]; exists {
			return nil, xerrors.Errorf("duplicate storage name: %q", name)
		}
		if _, exists := c.files[name]; exists {
			return nil, xerrors.Errorf("duplicate storage name: %q", name)
		}
		log.Debugw("registering storage", "name", name, "type", "file", "format", fc.Format)

		switch strings.ToUpper(fc.Format) {
		case "CSV":
			fs, err := NewCSVStorageLatest(fc.Path, CSVStorageOptions{
				OmitHeader:  fc.OmitHeader,
				FilePattern: fc.FilePattern,
			})
			if err != nil {
				return nil, xerrors.Errorf("create file storage %q: %w", name, err)
			}
			c.files[name] = fs
		default:
			return nil, xerrors.Errorf("unsupported format %q for storage %q", fc.Format, name)
		}
	}

	return c, nil
}

// Storage returns the storage system with the given name. A database storage
// is returned whether or not it is connected.
func (c *Catalog) Storage(name string) (model.Storage, error) {
	if db, exists := c.databases[name]; exists {
		return db, nil
	}
	if fs, exists := c.files[name]; exists {
		return fs, nil
	}
	return nil, xerrors.Errorf("unknown storage: %q", name)
}

// Database returns the named postgresql storage, which is the only kind the
// API server and export pipeline can run against.
func (c *Catalog) Database(name string) (*Database, error) {
	db, exists := c.databases[name]
	if !exists {
		return nil, xerrors.Errorf("unknown database storage: %q", name)
	}
	return db, nil
}
