package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScript(t *testing.T) {
	files := []FileInfo{
		{Name: "search_court-2023-04-01.csv", Table: "search_court", Rows: 2000},
		{Name: "search_docket-2023-04-01.csv", Table: "search_docket", Rows: 48},
	}

	script := LoadScript("schema-2023-04-01.sql", files)

	assert.True(t, strings.HasPrefix(script, "#!/usr/bin/env bash\n"))
	assert.Contains(t, script, "set -euo pipefail")
	assert.Contains(t, script, `psql "$DB_URL" -v ON_ERROR_STOP=1 -f "schema-2023-04-01.sql"`)

	// Tables must load in the order given: courts before the dockets that
	// reference them.
	courtIdx := strings.Index(script, "search_court FROM STDIN")
	docketIdx := strings.Index(script, "search_docket FROM STDIN")
	require.True(t, courtIdx > 0)
	require.True(t, docketIdx > 0)
	assert.Less(t, courtIdx, docketIdx)

	assert.Contains(t, script, `WITH (FORMAT csv, HEADER)`)
	assert.NotContains(t, script, "zstd", "uncompressed snapshots do not need zstd")
}

func TestLoadScriptCompressed(t *testing.T) {
	files := []FileInfo{
		{Name: "search_court-2023-04-01.csv.zst", Table: "search_court"},
	}

	script := LoadScript("schema-2023-04-01.sql", files)

	assert.Contains(t, script, `zstd -dc "search_court-2023-04-01.csv.zst" | psql "$DB_URL"`)
	assert.Contains(t, script, "search_court FROM STDIN")
}
