package pacer

import (
	"strings"
)

// PACER document identifiers encode the court's internal document table in the
// fourth digit. Some courts report it as "0" and others as "1" for the same
// logical document, so the two forms are interchangeable at the source. All
// identifiers are stored and queried with a "0" in that position and API
// consumers are expected to apply the same normalization.
const normalizePosition = 3

// NormalizeDocID canonicalizes a PACER document identifier by forcing the
// ambiguous fourth digit to "0". Identifiers too short to carry the digit are
// returned unchanged.
func NormalizeDocID(id string) string {
	if len(id) <= normalizePosition {
		return id
	}
	if id[normalizePosition] != '1' {
		return id
	}
	return id[:normalizePosition] + "0" + id[normalizePosition+1:]
}

// NormalizeDocIDs canonicalizes a list of document identifiers, dropping
// empty entries and surrounding whitespace. Order is preserved.
func NormalizeDocIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out = append(out, NormalizeDocID(id))
	}
	return out
}

// IsValidDocID reports whether id looks like a PACER document identifier:
// a non-empty string of decimal digits. ACMS documents use a separate guid
// field and do not pass through here.
func IsValidDocID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
