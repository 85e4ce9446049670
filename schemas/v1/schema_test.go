package v1

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gavelhq/gavel/schemas"
)

func TestBaseRendersPublicSchema(t *testing.T) {
	base, err := GetBase(schemas.Config{})
	require.NoError(t, err)

	require.NotContains(t, base, "SET search_path")
	require.Contains(t, base, "CREATE TABLE public.search_docket (")
	require.Contains(t, base, "CREATE TABLE public.search_recapdocumentevent (")

	// The base predates the document identifier patch: the appellate GUID
	// does not exist yet and pacer_doc_id has its original width on all four
	// tables that carry it.
	require.NotContains(t, base, "acms_document_guid")
	require.Equal(t, 4, strings.Count(base, "pacer_doc_id character varying(32)"))

	// The originating court table arrives in patch 1.
	require.NotContains(t, base, "search_originatingcourtinformation")
	require.NotContains(t, base, "originating_court_information_id")
}

func TestBaseRendersNamedSchema(t *testing.T) {
	base, err := GetBase(schemas.Config{SchemaName: "court"})
	require.NoError(t, err)

	require.Contains(t, base, "SET search_path TO court,public;")
	require.Contains(t, base, "CREATE TABLE court.search_docket (")
	require.NotContains(t, base, "CREATE TABLE public.")
}

func TestPatchesAreContiguous(t *testing.T) {
	coll, err := GetPatches(schemas.Config{})
	require.NoError(t, err)

	seen := map[int64]bool{}
	for _, m := range coll.Migrations() {
		seen[m.Version] = true
	}

	latest := Version()
	require.Equal(t, MajorVersion, latest.Major)
	require.Equal(t, len(seen), latest.Patch)
	for i := 1; i <= latest.Patch; i++ {
		require.True(t, seen[int64(i)], "missing patch %d", i)
	}
}

func TestDocumentIdentifierPatch(t *testing.T) {
	sql := renderPatch(t, 2, schemas.Config{})

	// The GUID lands with a temporary default to backfill existing rows,
	// then the default is dropped, on both the primary table and its mirror.
	for _, table := range []string{"search_recapdocument", "search_recapdocumentevent"} {
		require.Contains(t, sql, "ALTER TABLE public."+table+" ADD COLUMN acms_document_guid character varying(64) DEFAULT '' NOT NULL;")
		require.Contains(t, sql, "ALTER TABLE public."+table+" ALTER COLUMN acms_document_guid DROP DEFAULT;")
	}

	// pacer_doc_id widens on both table pairs.
	for _, table := range []string{"search_claimhistory", "search_claimhistoryevent", "search_recapdocument", "search_recapdocumentevent"} {
		require.Contains(t, sql, "ALTER TABLE public."+table+" ALTER COLUMN pacer_doc_id TYPE character varying(64);")
	}

	// pacer_case_id is already at its target definition and must not be
	// touched, only noted.
	require.NotContains(t, sql, "ALTER COLUMN pacer_case_id")
	require.Contains(t, sql, "pacer_case_id")
}

func TestOriginatingCourtPatchCoversMirror(t *testing.T) {
	sql := renderPatch(t, 1, schemas.Config{})

	require.Contains(t, sql, "CREATE TABLE public.search_originatingcourtinformation (")
	require.Contains(t, sql, "ALTER TABLE public.search_docket ADD COLUMN originating_court_information_id bigint;")
	require.Contains(t, sql, "ALTER TABLE public.search_docketevent ADD COLUMN originating_court_information_id bigint;")
}

func renderPatch(t *testing.T, seq int, cfg schemas.Config) string {
	t.Helper()
	tmpl, exists := patches.tmpls[seq]
	require.True(t, exists, "patch %d not registered", seq)

	var buf strings.Builder
	require.NoError(t, tmpl.Execute(&buf, cfg))
	return buf.String()
}
