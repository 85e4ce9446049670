package api

import (
	"encoding/base64"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{Values: []string{"002", "0"}, PK: "17", Reverse: true}
	token := c.Encode()
	require.NotEmpty(t, token)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, &c, decoded)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not base64!!!")
	require.Error(t, err)

	_, err = DecodeCursor(base64.RawURLEncoding.EncodeToString([]byte("not json")))
	require.Error(t, err)
}

func TestCursorBound(t *testing.T) {
	t.Run("composite ascending", func(t *testing.T) {
		keys, err := docketEntryOrdering.Parse("")
		require.NoError(t, err)

		expr, args, err := cursorBound(keys, &Cursor{Values: []string{"002", "0"}, PK: "17"})
		require.NoError(t, err)
		assert.Equal(t,
			"((recap_sequence_number > ?)"+
				" OR (recap_sequence_number = ? AND COALESCE(entry_number, 0) > ?)"+
				" OR (recap_sequence_number = ? AND COALESCE(entry_number, 0) = ? AND id > ?))",
			expr)
		require.Len(t, args, 6)
		assert.Equal(t, "002", args[0])
		assert.Equal(t, "0", args[4])
		assert.Equal(t, "17", args[5])
	})

	t.Run("descending flips the comparator", func(t *testing.T) {
		keys, err := docketOrdering.Parse("-date_filed")
		require.NoError(t, err)

		expr, _, err := cursorBound(keys, &Cursor{Values: []string{"2020-08-13T00:00:00Z"}, PK: "3"})
		require.NoError(t, err)
		assert.Contains(t, expr, "COALESCE(date_filed, '-infinity'::date) < ?")
		assert.Contains(t, expr, "id < ?")
	})

	t.Run("reverse paging flips it back", func(t *testing.T) {
		keys, err := docketOrdering.Parse("-date_filed")
		require.NoError(t, err)

		expr, _, err := cursorBound(keys, &Cursor{Values: []string{"2020-08-13T00:00:00Z"}, PK: "3", Reverse: true})
		require.NoError(t, err)
		assert.Contains(t, expr, "COALESCE(date_filed, '-infinity'::date) > ?")
		assert.Contains(t, expr, "id > ?")
	})

	t.Run("value count must match the ordering", func(t *testing.T) {
		keys, err := docketOrdering.Parse("")
		require.NoError(t, err)

		_, _, err = cursorBound(keys, &Cursor{Values: []string{"1"}, PK: "2"})
		require.Error(t, err)
	})
}

type pageRow struct {
	ID int64
}

func pageRequest(t *testing.T, size int, cursor *Cursor) *listRequest {
	t.Helper()
	keys, err := docketOrdering.Parse("id")
	require.NoError(t, err)
	return &listRequest{keys: keys, cursor: cursor, pageSize: size}
}

func rowsOf(ids ...int64) []interface{} {
	rows := make([]interface{}, len(ids))
	for i, id := range ids {
		rows[i] = pageRow{ID: id}
	}
	return rows
}

func rowIDs(rows []interface{}) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.(pageRow).ID
	}
	return ids
}

func TestWindowFirstPage(t *testing.T) {
	req := pageRequest(t, 2, nil)
	w := req.window(rowsOf(1, 2, 3))

	assert.Equal(t, []int64{1, 2}, rowIDs(w.Rows))
	assert.Empty(t, w.Prev)
	require.NotEmpty(t, w.Next)

	next, err := DecodeCursor(w.Next)
	require.NoError(t, err)
	assert.Equal(t, "2", next.PK)
	assert.False(t, next.Reverse)
}

func TestWindowLastPage(t *testing.T) {
	req := pageRequest(t, 2, &Cursor{PK: "2"})
	w := req.window(rowsOf(3, 4))

	assert.Equal(t, []int64{3, 4}, rowIDs(w.Rows))
	assert.Empty(t, w.Next)
	require.NotEmpty(t, w.Prev)

	prev, err := DecodeCursor(w.Prev)
	require.NoError(t, err)
	assert.Equal(t, "3", prev.PK)
	assert.True(t, prev.Reverse)
}

func TestWindowReversePage(t *testing.T) {
	// Paging back from row 5: rows arrive in flipped fetch order with one
	// extra marking more pages behind.
	req := pageRequest(t, 2, &Cursor{PK: "5", Reverse: true})
	w := req.window(rowsOf(4, 3, 2))

	assert.Equal(t, []int64{3, 4}, rowIDs(w.Rows))

	require.NotEmpty(t, w.Next)
	next, err := DecodeCursor(w.Next)
	require.NoError(t, err)
	assert.Equal(t, "4", next.PK)
	assert.False(t, next.Reverse)

	require.NotEmpty(t, w.Prev)
	prev, err := DecodeCursor(w.Prev)
	require.NoError(t, err)
	assert.Equal(t, "3", prev.PK)
	assert.True(t, prev.Reverse)
}

func TestWindowReverseHitsFirstPage(t *testing.T) {
	req := pageRequest(t, 5, &Cursor{PK: "3", Reverse: true})
	w := req.window(rowsOf(2, 1))

	assert.Equal(t, []int64{1, 2}, rowIDs(w.Rows))
	assert.NotEmpty(t, w.Next)
	assert.Empty(t, w.Prev)
}

func TestWindowEmpty(t *testing.T) {
	req := pageRequest(t, 2, nil)
	w := req.window(nil)
	assert.Empty(t, w.Rows)
	assert.Empty(t, w.Next)
	assert.Empty(t, w.Prev)
}

func TestPageURL(t *testing.T) {
	r := httptest.NewRequest("GET", "http://api.test/api/rest/v4/dockets/?court=cand&cursor=old", nil)

	u := pageURL(r, "fresh")
	require.NotNil(t, u)

	parsed, err := url.Parse(*u)
	require.NoError(t, err)
	assert.Equal(t, "api.test", parsed.Host)
	assert.Equal(t, "/api/rest/v4/dockets/", parsed.Path)
	assert.Equal(t, "fresh", parsed.Query().Get("cursor"))
	assert.Equal(t, "cand", parsed.Query().Get("court"))

	assert.Nil(t, pageURL(r, ""))
}
