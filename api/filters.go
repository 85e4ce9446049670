package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-pg/pg/v10/orm"

	"github.com/gavelhq/gavel/pacer"
)

// A Filter is one whitelisted query parameter of a collection endpoint.
// Apply narrows q by the parameter's value; value errors surface to the
// client as a 400.
type Filter struct {
	Param string
	Apply func(q *orm.Query, value string) (*orm.Query, error)
}

func textFilter(param, column string) Filter {
	return Filter{
		Param: param,
		Apply: func(q *orm.Query, value string) (*orm.Query, error) {
			return q.Where(column+" = ?", value), nil
		},
	}
}

func intFilter(param, column string) Filter {
	return Filter{
		Param: param,
		Apply: func(q *orm.Query, value string) (*orm.Query, error) {
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("expected an integer")
			}
			return q.Where(column+" = ?", n), nil
		},
	}
}

func boolFilter(param, column string) Filter {
	return Filter{
		Param: param,
		Apply: func(q *orm.Query, value string) (*orm.Query, error) {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("expected true or false")
			}
			return q.Where(column+" = ?", b), nil
		},
	}
}

// dateFilter handles the __gte/__lte bound parameters on date columns. The
// validated string is passed through so the comparison stays date-to-date
// instead of coercing the column to a timestamp.
func dateFilter(param, column, op string) Filter {
	return Filter{
		Param: param,
		Apply: func(q *orm.Query, value string) (*orm.Query, error) {
			if _, err := time.Parse("2006-01-02", value); err != nil {
				return nil, fmt.Errorf("expected a date formatted 2006-01-02")
			}
			return q.Where(column+" "+op+" ?", value), nil
		},
	}
}

// pacerDocIDFilter matches a single document identifier, normalizing the
// ambiguous fourth digit the same way ingestion does so either spelling of
// an id finds the stored row.
func pacerDocIDFilter(param, column string) Filter {
	return Filter{
		Param: param,
		Apply: func(q *orm.Query, value string) (*orm.Query, error) {
			if !pacer.IsValidDocID(value) {
				return nil, fmt.Errorf("expected a PACER document id")
			}
			return q.Where(column+" = ?", pacer.NormalizeDocID(value)), nil
		},
	}
}

// docketReferenceApply narrows originating-court-information rows to the one
// referenced by a docket id.
func docketReferenceApply(q *orm.Query, value string) (*orm.Query, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("expected a docket id")
	}
	return q.Where("id IN (SELECT originating_court_information_id FROM search_docket WHERE id = ? AND originating_court_information_id IS NOT NULL)", id), nil
}

// docketRoleFilter scopes parties or attorneys to one docket through their
// role rows. joinColumn is the people_role column referencing the filtered
// table.
func docketRoleFilter(param, joinColumn string) Filter {
	return Filter{
		Param: param,
		Apply: func(q *orm.Query, value string) (*orm.Query, error) {
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("expected a docket id")
			}
			return q.Where("EXISTS (SELECT 1 FROM people_role r WHERE r."+joinColumn+" = ?TableAlias.id AND r.docket_id = ?)", id), nil
		},
	}
}

func filterNames(filters []Filter) []string {
	names := make([]string, len(filters))
	for i, f := range filters {
		names[i] = f.Param
	}
	return names
}
