package storage

import (
	"context"
	"reflect"
	"sync"

	"github.com/go-pg/pg/v10/orm"

	"github.com/gavelhq/gavel/model"
)

// A MemStorage collects persisted models in memory, grouped by table name.
// Tests use it to observe exactly what a write path would persist.
type MemStorage struct {
	Data    map[string][]interface{}
	DataMu  sync.Mutex
	Version model.Version
}

func NewMemStorage(version model.Version) *MemStorage {
	return &MemStorage{
		Data:    map[string][]interface{}{},
		Version: version,
	}
}

func NewMemStorageLatest() *MemStorage {
	return NewMemStorage(LatestSchemaVersion())
}

func (j *MemStorage) PersistBatch(ctx context.Context, ps ...model.Persistable) error {
	for _, p := range ps {
		if err := p.Persist(ctx, j, j.Version); err != nil {
			return err
		}
	}
	return nil
}

func (j *MemStorage) PersistModel(ctx context.Context, m interface{}) error {
	value := reflect.ValueOf(m)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			if err := j.PersistModel(ctx, value.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		tbl := orm.NewQuery(nil, m).TableModel().Table()
		name := stripQuotes(tbl.SQLNameForSelects)
		j.DataMu.Lock()
		j.Data[name] = append(j.Data[name], m)
		j.DataMu.Unlock()
		return nil
	default:
		return ErrMarshalUnsupportedType
	}
}

// Table returns the models persisted for the named table.
func (j *MemStorage) Table(name string) []interface{} {
	j.DataMu.Lock()
	defer j.DataMu.Unlock()
	return j.Data[name]
}
