package pacer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDocID(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fourth digit one is rewritten",
			in:   "03311840453",
			want: "03301840453",
		},
		{
			name: "fourth digit zero unchanged",
			in:   "03301840453",
			want: "03301840453",
		},
		{
			name: "other positions untouched",
			in:   "11111111111",
			want: "11101111111",
		},
		{
			name: "short id unchanged",
			in:   "031",
			want: "031",
		},
		{
			name: "exactly four digits",
			in:   "0331",
			want: "0330",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeDocID(tc.in))
		})
	}
}

func TestNormalizeDocIDs(t *testing.T) {
	got := NormalizeDocIDs([]string{" 03311840453", "", "  ", "88801234567 "})
	assert.Equal(t, []string{"03301840453", "88801234567"}, got)
}

func TestIsValidDocID(t *testing.T) {
	assert.True(t, IsValidDocID("03301840453"))
	assert.False(t, IsValidDocID(""))
	assert.False(t, IsValidDocID("0330-1840453"))
	assert.False(t, IsValidDocID("abc"))
}
