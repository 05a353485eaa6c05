package plots

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/profilestat-cli/internal/analysis"
	"github.com/KaramelBytes/profilestat-cli/internal/cleaning"
	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
)

func fixture() *dataset.Dataset {
	ds := &dataset.Dataset{Name: "fixture"}
	for i := 0; i < 20; i++ {
		g := int64(i % 2)
		score := float64(i%6) + 1
		ds.Profiles = append(ds.Profiles, dataset.Profile{
			ID:                   fmt.Sprint(i),
			CreatedAt:            time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			Score:                sql.Null[float64]{V: score, Valid: true},
			Matches:              sql.Null[int64]{V: int64(score*3) + int64(i%4), Valid: true},
			Photos:               sql.Null[int64]{V: int64(i%5 + 1), Valid: true},
			DaysToLastConnection: sql.Null[int64]{V: int64(i * 3), Valid: true},
			Gender:               dataset.Code(g).Recode(dataset.GenderLabels),
			Travel:               dataset.Code(int64(i/2%2)).Recode(dataset.BinaryLabels),
			Laughter:             dataset.Code(int64(i%3%2)).Recode(dataset.BinaryLabels),
			RisquePhoto:          dataset.Code(int64(i/4%2)).Recode(dataset.BinaryLabels),
			BeachPhoto:           dataset.Code(int64(i/3%2)).Recode(dataset.BinaryLabels),
		})
	}
	return ds
}

func TestRenderer_All(t *testing.T) {
	ds := fixture()
	res, err := analysis.Run(ds, analysis.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.ChiSquared, 4)

	dir := t.TempDir()
	r := New(dir, 8, 6, nil)
	paths, err := r.All(ds, cleaning.NullCounts(ds), res.ChiSquared)
	require.NoError(t, err)
	require.Len(t, paths, 5+4)

	for _, name := range []string{MissingFile, BoxPlotsFile, LinesFile, HistFile, RegPlotFile, ContingencyFile(dataset.ColTravel)} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
	assert.Equal(t, "contingency-gender-photo.beach.png", ContingencyFile(dataset.ColBeachPhoto))
}

func TestRenderer_EmptyDataset(t *testing.T) {
	ds := &dataset.Dataset{Name: "empty"}
	r := New(t.TempDir(), 8, 6, nil)
	_, err := r.RegPlot(ds)
	assert.NoError(t, err)
	_, err = r.DaysHistogram(ds)
	assert.NoError(t, err)
}
