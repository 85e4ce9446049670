package pacer

import (
	"fmt"
	"regexp"
	"strconv"
)

// district docket numbers look like "2:16-cv-01234" or "16-cv-1234", where the
// leading office digit and the case-type infix vary by court.
var docketNumberRe = regexp.MustCompile(`(?:\d:)?(\d\d)-[a-zA-Z]{1,5}-(\d+)`)

// MakeDocketNumberCore reduces a formatted docket number to its stable core:
// the two-digit year followed by the five-digit serial, e.g. "2:16-cv-01234"
// becomes "1601234". Returns the empty string when the number does not follow
// the district format (appellate numbers have no core form).
func MakeDocketNumberCore(docketNumber string) string {
	if docketNumber == "" {
		return ""
	}
	m := docketNumberRe.FindStringSubmatch(docketNumber)
	if m == nil {
		return ""
	}
	serial, err := strconv.Atoi(m[2])
	if err != nil || serial > 99999 {
		return ""
	}
	return fmt.Sprintf("%s%05d", m[1], serial)
}
