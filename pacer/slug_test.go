package pacer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{
			in:   "Lorem v. Ipsum",
			want: "lorem-v-ipsum",
		},
		{
			in:   "In re: GRAND JURY (Sealed)",
			want: "in-re-grand-jury-sealed",
		},
		{
			in:   "Peña-Rodríguez v. Colorado",
			want: "pena-rodriguez-v-colorado",
		},
		{
			in:   "  --United States-- ",
			want: "united-states",
		},
		{
			in:   "",
			want: "",
		},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, Slugify(tc.in), "input %q", tc.in)
	}
}

func TestSlugifyTruncatesOnWordBoundary(t *testing.T) {
	long := strings.Repeat("consolidated ", 20) + "appeals"
	slug := Slugify(long)
	assert.LessOrEqual(t, len(slug), MaxSlugLength)
	assert.False(t, strings.HasSuffix(slug, "-"))
	// no split mid-word: every segment is a full word from the input
	for _, part := range strings.Split(slug, "-") {
		assert.Contains(t, []string{"consolidated", "appeals"}, part)
	}
}

func TestMakeDocketNumberCore(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "2:16-cv-01234", want: "1601234"},
		{in: "16-cv-1234", want: "1601234"},
		{in: "1:12-md-02323", want: "1202323"},
		{in: "12-40000", want: ""},    // appellate, no core form
		{in: "not a number", want: ""},
		{in: "", want: ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, MakeDocketNumberCore(tc.in), "input %q", tc.in)
	}
}
