package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacuum-landscape/core/landscape"
)

func testRecord() *RunRecord {
	return &RunRecord{
		Date:     "2024-05-01T00:00:00Z",
		Commit:   "abc1234",
		PlanName: "baseline",
		PlanHash: "hash-1",
		Jobs: []JobEntry{
			{
				Params:  map[string]interface{}{"seed": 1, "rule_id": 0},
				Metrics: map[string]interface{}{"c_est": 0.8, "pass": false},
			},
			{
				Params:  map[string]interface{}{"seed": 1, "rule_id": 1},
				Metrics: map[string]interface{}{"c_est": 1.1, "pass": true},
			},
		},
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	assert.Equal(t, KindCSV, Open("runs.csv").Kind())
	assert.Equal(t, KindCSV, Open("runs").Kind())
	assert.Equal(t, KindSQLite, Open("runs.sqlite").Kind())
	assert.Equal(t, KindSQLite, Open("runs.db").Kind())
}

func TestRunRecordRowDefaults(t *testing.T) {
	record := &RunRecord{
		PlanName: "p",
		PlanHash: "h",
		Jobs:     []JobEntry{{Params: map[string]interface{}{}, Metrics: map[string]interface{}{}}},
	}
	rows, err := record.rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1970-01-01T00:00:00Z", rows[0][0])
	assert.Equal(t, "unknown", rows[0][1])
	assert.Equal(t, "0", rows[0][4])
}

func TestCSVAndSQLiteParity(t *testing.T) {
	dir := t.TempDir()
	record := testRecord()

	backends := []*Registry{
		Open(filepath.Join(dir, "runs.csv")),
		Open(filepath.Join(dir, "runs.sqlite")),
	}
	var tables []*Table
	for _, backend := range backends {
		require.NoError(t, backend.Append(record))
		require.NoError(t, backend.Append(record))
		table, err := backend.QueryTable(Query{})
		require.NoError(t, err)
		tables = append(tables, table)
	}

	assert.Equal(t, tableColumns(), tables[0].Columns)
	assert.Equal(t, tables[0].Columns, tables[1].Columns)
	require.Len(t, tables[0].Rows, 4)
	assert.Equal(t, tables[0].Rows, tables[1].Rows)
	assert.Equal(t, "baseline", tables[0].Rows[0][2])
	assert.Equal(t, "0", tables[0].Rows[0][4])
	assert.Equal(t, "1", tables[0].Rows[1][4])
}

func TestQueryFilterAndLimit(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"runs.csv", "runs.sqlite"} {
		backend := Open(filepath.Join(dir, name))
		first := testRecord()
		require.NoError(t, backend.Append(first))
		second := testRecord()
		second.PlanName = "variant"
		require.NoError(t, backend.Append(second))

		table, err := backend.QueryTable(Query{PlanName: "variant"})
		require.NoError(t, err)
		require.Len(t, table.Rows, 2, name)
		assert.Equal(t, "variant", table.Rows[0][2], name)

		limited, err := backend.QueryTable(Query{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited.Rows, 1, name)
	}
}

func TestQueryMissingFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"absent.csv", "absent.sqlite"} {
		table, err := Open(filepath.Join(dir, name)).QueryTable(Query{})
		require.NoError(t, err)
		assert.Equal(t, tableColumns(), table.Columns)
		assert.Empty(t, table.Rows, name)
	}
}

func TestSummarize(t *testing.T) {
	dir := t.TempDir()
	backend := Open(filepath.Join(dir, "runs.csv"))
	require.NoError(t, backend.Append(testRecord()))
	variant := testRecord()
	variant.PlanName = "variant"
	variant.Jobs = variant.Jobs[1:]
	require.NoError(t, backend.Append(variant))

	table, err := backend.QueryTable(Query{})
	require.NoError(t, err)
	summary, err := Summarize(table)
	require.NoError(t, err)

	require.Len(t, summary.Plans, 2)
	assert.Equal(t, "baseline", summary.Plans[0].PlanName)
	assert.Equal(t, 2, summary.Plans[0].Rows)
	assert.Equal(t, 1, summary.Plans[0].Passes)
	assert.Equal(t, "0.5", summary.Plans[0].PassRate)
	assert.Equal(t, "variant", summary.Plans[1].PlanName)
	assert.Equal(t, "1", summary.Plans[1].PassRate)
}

func TestRecordFromLandscape(t *testing.T) {
	report := &landscape.LandscapeReport{
		PlanHash: "plan-hash",
		Jobs: []landscape.JobReport{
			{
				Seed:    1,
				RuleID:  1,
				KPIs:    landscape.SynthesizeKPI(1, 1),
				Filters: landscape.DefaultFilterSpec().Evaluate(landscape.SynthesizeKPI(1, 1)),
			},
		},
		Provenance: landscape.RunProvenance{CreatedAt: "2024-05-01T00:00:00Z"},
	}
	record := RecordFromLandscape("baseline", report)
	assert.Equal(t, "plan-hash", record.PlanHash)
	assert.Equal(t, "2024-05-01T00:00:00Z", record.Date)
	require.Len(t, record.Jobs, 1)

	rows, err := record.rows()
	require.NoError(t, err)
	assert.Contains(t, rows[0][6], "\"pass\": true")
}
