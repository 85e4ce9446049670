package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-pg/pg/v10/orm"
)

// A Cursor marks a page boundary in an ordered listing. Values holds the
// boundary row's serialized value for each ordering key, PK the boundary
// row's primary key, and Reverse whether the page before the boundary is
// wanted rather than the page after. Cursors are opaque to clients: base64url
// over the JSON encoding.
type Cursor struct {
	Values  []string `json:"v"`
	PK      string   `json:"k"`
	Reverse bool     `json:"r,omitempty"`
}

func (c Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

func DecodeCursor(token string) (*Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}
	return &c, nil
}

// A listRequest is one parsed collection request: the resolved ordering, the
// cursor position, the page size and the validated filters, ready to be
// applied to a query.
type listRequest struct {
	keys     []orderedKey
	cursor   *Cursor
	pageSize int
	filters  []boundFilter
}

type boundFilter struct {
	filter Filter
	value  string
}

// Apply adds the request's filters, ordering, cursor bound and limit to q.
// One extra row beyond the page size is fetched to detect whether a further
// page exists. Errors indicate a malformed request.
func (req *listRequest) Apply(q *orm.Query) (*orm.Query, error) {
	var err error
	for _, bf := range req.filters {
		q, err = bf.filter.Apply(q, bf.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", bf.filter.Param, err)
		}
	}

	reversed := req.cursor != nil && req.cursor.Reverse
	for _, k := range req.keys {
		dir := " ASC"
		if k.Desc != reversed {
			dir = " DESC"
		}
		q = q.OrderExpr(k.Column + dir)
	}

	if req.cursor != nil {
		expr, args, err := cursorBound(req.keys, req.cursor)
		if err != nil {
			return nil, err
		}
		q = q.Where(expr, args...)
	}

	return q.Limit(req.pageSize + 1), nil
}

// cursorBound builds the WHERE clause selecting rows strictly beyond the
// cursor's boundary row. With ordering keys k1..kn (the pk last) the bound
// expands to (k1 > v1) OR (k1 = v1 AND k2 > v2) OR ..., with ">" flipped to
// "<" for descending keys and again when paging in reverse.
func cursorBound(keys []orderedKey, c *Cursor) (string, []interface{}, error) {
	if len(c.Values) != len(keys)-1 {
		return "", nil, fmt.Errorf("invalid cursor")
	}
	values := make([]interface{}, len(keys))
	for i, v := range c.Values {
		values[i] = v
	}
	values[len(keys)-1] = c.PK

	var clauses []string
	var args []interface{}
	for i := range keys {
		var terms []string
		for j := 0; j < i; j++ {
			terms = append(terms, keys[j].Column+" = ?")
			args = append(args, values[j])
		}
		op := " > ?"
		if keys[i].Desc != c.Reverse {
			op = " < ?"
		}
		terms = append(terms, keys[i].Column+op)
		args = append(args, values[i])
		clauses = append(clauses, "("+strings.Join(terms, " AND ")+")")
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args, nil
}

// A pageWindow is the visible slice of a fetched page plus the cursors
// bounding it. Rows are in presentation order regardless of the direction the
// page was fetched in.
type pageWindow struct {
	Rows []interface{}
	Next string
	Prev string
}

// window trims the fetched rows to the page size, restores presentation
// order for reverse pages and derives the boundary cursors. rows must have
// been fetched with Apply, carrying up to pageSize+1 entries.
func (req *listRequest) window(rows []interface{}) pageWindow {
	reversed := req.cursor != nil && req.cursor.Reverse
	hasMore := len(rows) > req.pageSize
	if hasMore {
		rows = rows[:req.pageSize]
	}
	if reversed {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	w := pageWindow{Rows: rows}
	if len(rows) == 0 {
		return w
	}
	if (!reversed && hasMore) || reversed {
		w.Next = req.boundary(rows[len(rows)-1], false)
	}
	if (!reversed && req.cursor != nil) || (reversed && hasMore) {
		w.Prev = req.boundary(rows[0], true)
	}
	return w
}

func (req *listRequest) boundary(row interface{}, reverse bool) string {
	vals := make([]string, 0, len(req.keys)-1)
	for _, k := range req.keys[:len(req.keys)-1] {
		vals = append(vals, fieldValue(row, k.OrderKey))
	}
	c := Cursor{
		Values:  vals,
		PK:      fieldValue(row, req.keys[len(req.keys)-1].OrderKey),
		Reverse: reverse,
	}
	return c.Encode()
}

// A listEnvelope is the response body of every collection endpoint.
type listEnvelope struct {
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// envelope assembles the response body for a page. results must be the
// serialized rows of w, in the same order.
func envelope(r *http.Request, w pageWindow, results interface{}) listEnvelope {
	return listEnvelope{
		Next:     pageURL(r, w.Next),
		Previous: pageURL(r, w.Prev),
		Results:  results,
	}
}

// pageURL rebuilds the request URL with the cursor swapped, preserving
// filters and ordering so a page link replays the whole query.
func pageURL(r *http.Request, cursor string) *string {
	if cursor == "" {
		return nil
	}
	u := *r.URL
	q := u.Query()
	q.Set("cursor", cursor)
	u.RawQuery = q.Encode()
	if u.Host == "" {
		u.Host = r.Host
	}
	if u.Scheme == "" {
		u.Scheme = "http"
		if r.TLS != nil {
			u.Scheme = "https"
		}
	}
	s := u.String()
	return &s
}
