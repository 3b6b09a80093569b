package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/winevalue-cli/internal/ranking"
	"github.com/KaramelBytes/winevalue-cli/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRanking() *ranking.Ranking {
	return ranking.FromCoefficients("country", map[string]float64{
		"Portugal": 1.25, "Austria": 0.5, "US": -0.75, "France": 0, "Argentina": -1.5,
	})
}

func TestWriteSplit(t *testing.T) {
	var buf bytes.Buffer
	report.WriteSplit(&buf, "country", sampleRanking().Split(), 2)
	out := buf.String()

	top := strings.Index(out, "The biggest factors in good value")
	bottom := strings.Index(out, "The biggest factors in below average value")
	require.True(t, top >= 0 && bottom > top, out)

	assert.Contains(t, out, "Portugal    1.250000")
	assert.Contains(t, out, "Argentina   -1.500000")
	// Only two rows per side.
	assert.NotContains(t, out, "France")
	assert.Less(t, strings.Index(out, "Portugal"), strings.Index(out, "Austria"))
	assert.Less(t, strings.Index(out, "Argentina"), strings.Index(out, "US "))
}

func TestWriteSplitEmptySide(t *testing.T) {
	var buf bytes.Buffer
	r := ranking.FromCoefficients("variety", map[string]float64{"Syrah": -1})
	report.WriteSplit(&buf, "variety", r.Split(), 5)
	assert.Contains(t, buf.String(), "(no variety)")
}

func TestBarChart(t *testing.T) {
	chart := report.BarChart(sampleRanking(), 10)
	lines := strings.Split(strings.TrimSpace(chart), "\n")
	assert.Equal(t, report.ChartTitle, lines[0])
	assert.Contains(t, chart, "x: country  y: Value")
	// Argentina has the largest magnitude and gets the full negative bar.
	assert.Contains(t, chart, strings.Repeat("░", 10)+"| -1.500")
	assert.Contains(t, chart, "|"+strings.Repeat("█", 8)+" +1.250")
}

func TestSaveChart(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	path, err := report.SaveChart(dir, "region_1", "bars", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "region_1-value-20260102-030405.txt"), path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bars", string(b))
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "country.json")
	require.NoError(t, report.WriteJSON(path, sampleRanking(), 42, time.Now()))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got report.Export
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "country", got.Factor)
	assert.Equal(t, 42, got.Rows)
	assert.Len(t, got.Ranking, 5)
	assert.Equal(t, "Portugal", got.Top[0].Key)
	assert.Equal(t, "Argentina", got.Bottom[0].Key)
}
