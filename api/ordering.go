package api

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// An OrderKey is one field a collection may be ordered by. Column is the SQL
// expression used in ORDER BY and in cursor bound comparisons; nullable
// columns must be wrapped in COALESCE with a documented sentinel so the
// ordering is total. Field names the Go struct field the value is read from
// when building cursors.
type OrderKey struct {
	Name     string
	Column   string
	Field    string
	Sentinel string
}

// An OrderingSpec is the ordering whitelist of one collection endpoint. PK is
// appended to every parsed ordering as the final tie-break so pagination is
// deterministic.
type OrderingSpec struct {
	Default string
	PK      OrderKey
	Keys    []OrderKey
}

func (spec OrderingSpec) key(name string) (OrderKey, bool) {
	if name == spec.PK.Name {
		return spec.PK, true
	}
	for _, k := range spec.Keys {
		if k.Name == name {
			return k, true
		}
	}
	return OrderKey{}, false
}

// Names returns the whitelisted key names for error messages and endpoint
// metadata.
func (spec OrderingSpec) Names() []string {
	names := make([]string, 0, len(spec.Keys)+1)
	seen := false
	for _, k := range spec.Keys {
		if k.Name == spec.PK.Name {
			seen = true
		}
		names = append(names, k.Name)
	}
	if !seen {
		names = append(names, spec.PK.Name)
	}
	return names
}

type orderedKey struct {
	OrderKey
	Desc bool
}

// Parse resolves an order_by parameter against the whitelist. Keys are comma
// separated, a "-" prefix orders descending, and an empty parameter falls
// back to the endpoint default. The pk is appended as a final tie-break,
// inheriting the direction of the first key.
func (spec OrderingSpec) Parse(orderBy string) ([]orderedKey, error) {
	if orderBy == "" {
		orderBy = spec.Default
	}

	var keys []orderedKey
	seen := make(map[string]bool)
	for _, part := range strings.Split(orderBy, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		if desc {
			part = part[1:]
		}
		if part == "" {
			return nil, fmt.Errorf("invalid order_by value: empty key")
		}
		k, ok := spec.key(part)
		if !ok {
			return nil, fmt.Errorf("cannot order by %q, choose from: %s", part, strings.Join(spec.Names(), ", "))
		}
		if seen[part] {
			return nil, fmt.Errorf("duplicate order_by key %q", part)
		}
		seen[part] = true
		keys = append(keys, orderedKey{OrderKey: k, Desc: desc})
	}

	if !seen[spec.PK.Name] {
		keys = append(keys, orderedKey{OrderKey: spec.PK, Desc: keys[0].Desc})
	}
	return keys, nil
}

// fieldValue reads the ordering value a row holds for k, serialized as text
// for cursor transport. Nil pointers serialize to the key's sentinel, which
// must match the COALESCE fallback in the key's column expression.
func fieldValue(row interface{}, k OrderKey) string {
	v := reflect.ValueOf(row)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	f := v.FieldByName(k.Field)
	if !f.IsValid() {
		return k.Sentinel
	}
	if f.Kind() == reflect.Ptr {
		if f.IsNil() {
			return k.Sentinel
		}
		f = f.Elem()
	}

	switch val := f.Interface().(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
