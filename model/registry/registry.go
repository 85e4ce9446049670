package registry

import (
	"sort"

	"golang.org/x/xerrors"

	"github.com/gavelhq/gavel/model"
)

// A Table describes one exportable table: the prototype model it is built
// from and its load rank. Files produced by a bulk export must be loaded in
// rank order since the dump carries no referential-integrity enforcement of
// its own: courts come before dockets, dockets before entries and parties,
// entries before documents, people before their roles.
type Table struct {
	Name  string
	Model model.Persistable
	Rank  int
}

type Registry struct {
	tables map[string]Table
}

func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[string]Table),
	}
}

// Register adds a table under its export name. Registering the same name
// twice is a programming error and panics during init.
func (r *Registry) Register(name string, rank int, m model.Persistable) {
	if _, ok := r.tables[name]; ok {
		panic("duplicate table registration: " + name)
	}
	r.tables[name] = Table{Name: name, Model: m, Rank: rank}
}

// Tables returns all registered tables in load order: ascending rank, ties
// broken by name so the order is reproducible between runs.
func (r *Registry) Tables() []Table {
	out := make([]Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TableNames returns the registered table names in load order.
func (r *Registry) TableNames() []string {
	tables := r.Tables()
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

func (r *Registry) Table(name string) (Table, error) {
	t, found := r.tables[name]
	if !found {
		return Table{}, xerrors.Errorf("no table registered with name: %s", name)
	}
	return t, nil
}

// ModelRegistry holds every exportable table. Model packages register
// themselves during init.
var ModelRegistry = NewRegistry()

// Load ranks group tables by their reference dependencies. Within a rank the
// export order is alphabetical.
const (
	RankCourt    = 0 // courts reference nothing
	RankDocket   = 1 // dockets reference courts
	RankDocketed = 2 // entries, parties, attorneys and originating info reference dockets
	RankDocument = 3 // documents, claims and roles reference rank 2 rows
	RankEvent    = 4 // event mirrors and operational tables load last
)
