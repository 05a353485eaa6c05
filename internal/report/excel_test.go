package report

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/profilestat-cli/internal/analysis"
	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
	"github.com/KaramelBytes/profilestat-cli/internal/describe"
)

func fixture() *dataset.Dataset {
	ds := &dataset.Dataset{Name: "fixture"}
	for i := 0; i < 16; i++ {
		g := int64(i % 2)
		score := float64(i%5) + 1 + float64(g)
		ds.Profiles = append(ds.Profiles, dataset.Profile{
			ID:          fmt.Sprint(i),
			CreatedAt:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			Score:       sql.Null[float64]{V: score, Valid: true},
			Matches:     sql.Null[int64]{V: int64(score*4) + int64(i%3), Valid: true},
			Photos:      sql.Null[int64]{V: int64(i%4 + 1), Valid: true},
			Gender:      dataset.Code(g).Recode(dataset.GenderLabels),
			Travel:      dataset.Code(int64(i/2%2)).Recode(dataset.BinaryLabels),
			Laughter:    dataset.Code(int64(i%3%2)).Recode(dataset.BinaryLabels),
			RisquePhoto: dataset.Code(int64(i/4%2)).Recode(dataset.BinaryLabels),
			BeachPhoto:  dataset.Code(int64(i/3%2)).Recode(dataset.BinaryLabels),
		})
	}
	return ds
}

func readSheet(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWriteDescStats(t *testing.T) {
	gs, err := describe.ByGroup(fixture(), dataset.ColGender, describe.DefaultValueColumns)
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), DescStatsFile)
	require.NoError(t, WriteDescStats(p, gs))

	rows := readSheet(t, p, DescStatsSheet)
	require.Len(t, rows, 2+len(describe.DefaultValueColumns))
	assert.Equal(t, []string{"", "count", "count", "mean", "mean"}, rows[0][:5])
	assert.Equal(t, []string{dataset.ColGender, "man", "woman"}, rows[1][:3])
	assert.Equal(t, dataset.ColScore, rows[2][0])
	assert.Equal(t, "8", rows[2][1])
	// days were never computed, so only the counts are filled
	last := rows[len(rows)-1]
	assert.Equal(t, dataset.ColDaysToLastConnection, last[0])
	assert.Equal(t, "0", last[1])
}

func TestWriteCorrelationsAndTests(t *testing.T) {
	res, err := analysis.Run(fixture(), analysis.DefaultOptions())
	require.NoError(t, err)
	dir := t.TempDir()

	cp := filepath.Join(dir, CorrelationFile)
	require.NoError(t, WriteCorrelations(cp, res.Correlations))
	rows := readSheet(t, cp, CorrelationSheet)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"", "n", "r", "CI95%", "p-val", "r2", "Gender"}, rows[0])
	assert.Equal(t, "pearson", rows[1][0])
	assert.Equal(t, "All", rows[3][6])
	assert.Equal(t, "16", rows[3][1])

	tp := filepath.Join(dir, TestsFile)
	require.NoError(t, WriteTests(tp, res))
	f, err := excelize.OpenFile(tp)
	require.NoError(t, err)
	assert.Equal(t, []string{ChiSheet, AncovaSheet, HomoscedasticSheet}, f.GetSheetList())
	require.NoError(t, f.Close())

	assert.Len(t, readSheet(t, tp, ChiSheet), 1+2*len(res.ChiSquared))
	anc := readSheet(t, tp, AncovaSheet)
	assert.Equal(t, "Residual", anc[3][1])
	assert.Len(t, readSheet(t, tp, HomoscedasticSheet), 1+4)
}
