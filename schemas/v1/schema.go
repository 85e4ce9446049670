package v1

import (
	"fmt"
	"reflect"
	"strings"
	"text/template"

	"github.com/go-pg/migrations/v8"

	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/schemas"
)

const MajorVersion = 1

func init() {
	schemas.RegisterSchema(MajorVersion)
}

// GetBase renders the base schema DDL for the given config.
func GetBase(cfg schemas.Config) (string, error) {
	tmpl, err := template.New("base").Funcs(schemaTemplateFuncMap).Parse(BaseTemplate)
	if err != nil {
		return "", fmt.Errorf("parse base template: %w", err)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return "", fmt.Errorf("execute base template: %w", err)
	}
	return buf.String(), nil
}

// GetPatches renders the registered patches for the given config as a
// migration collection ready to run.
func GetPatches(cfg schemas.Config) (*migrations.Collection, error) {
	return patches.Collection(cfg)
}

// Version reports the schema version implemented by this package: the major
// version plus the highest registered patch.
func Version() model.Version {
	return model.Version{
		Major: MajorVersion,
		Patch: len(patches.tmpls),
	}
}

var patches = patchList{tmpls: map[int]*template.Template{}}

// patchList collects SQL templates keyed by patch sequence number. Patch 0 is
// the base schema by definition and must never be registered here.
type patchList struct {
	tmpls map[int]*template.Template
}

// Register adds a patch to the patch list. This should be called in an init
// function.
func (pl *patchList) Register(seq int, text string) {
	if seq <= 0 {
		panic(fmt.Sprintf("invalid patch number: %d", seq))
	}

	if _, exists := pl.tmpls[seq]; exists {
		panic(fmt.Sprintf("duplicate patch registered: %d", seq))
	}

	tmpl, err := template.New("patch").Funcs(schemaTemplateFuncMap).Parse(text)
	if err != nil {
		panic(fmt.Sprintf("parse patch template: %v", err))
	}

	pl.tmpls[seq] = tmpl
}

// Collection renders every registered patch against cfg and returns them as
// an ordered migration collection. It fails if the sequence has gaps.
func (pl *patchList) Collection(cfg schemas.Config) (*migrations.Collection, error) {
	count := len(pl.tmpls)

	migs := make([]*migrations.Migration, 0, count)
	for i := 1; i <= count; i++ {
		tmpl, exists := pl.tmpls[i]
		if !exists {
			return nil, fmt.Errorf("missing patch %d", i)
		}

		var buf strings.Builder
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return nil, fmt.Errorf("execute patch %d template: %w", i, err)
		}
		sql := buf.String()

		migs = append(migs, &migrations.Migration{
			Version: int64(i),
			UpTx:    true,
			Up: func(db migrations.DB) error {
				_, err := db.Exec(sql)
				return err
			},
		})
	}

	coll := migrations.NewCollection(migs...)
	coll.SetTableName(cfg.SchemaName + ".gopg_migrations")
	return coll, nil
}

var schemaTemplateFuncMap = template.FuncMap{
	"default": func(def interface{}, value interface{}) interface{} {
		if isEmpty(value) {
			return def
		}
		return value
	},
}

func isEmpty(val interface{}) bool {
	v := reflect.ValueOf(val)
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Array, reflect.Slice, reflect.Map, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Complex64, reflect.Complex128:
		return v.Complex() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		return false
	default:
		return v.IsNil()
	}
}
