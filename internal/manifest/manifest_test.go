package manifest_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/profilestat-cli/internal/cleaning"
	"github.com/KaramelBytes/profilestat-cli/internal/manifest"
)

func TestManifestSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "export")
	m := manifest.New("dataset/users.db.csv", dir)
	_, err := uuid.Parse(m.ID)
	require.NoError(t, err)

	m.Rows = 3
	m.Cleaning = &cleaning.Summary{Rows: 3, Changed: []cleaning.RuleCount{{Rule: "recode", Rows: 3}}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Add("plot", fmt.Sprintf("img/%d.png", i))
		}(i)
	}
	wg.Wait()
	m.Add("csv", "export/table.exportcsv.csv")
	require.NoError(t, m.Save())

	got, err := manifest.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, 3, got.Rows)
	assert.Equal(t, "recode", got.Cleaning.Changed[0].Rule)
	require.Len(t, got.Artifacts, 9)
	assert.Equal(t, manifest.Artifact{Kind: "csv", Path: "export/table.exportcsv.csv"}, got.Artifacts[0])
	assert.Equal(t, "img/0.png", got.Artifacts[1].Path)
	assert.False(t, got.FinishedAt.Before(got.StartedAt))
}

func TestLoadMissing(t *testing.T) {
	_, err := manifest.Load(t.TempDir())
	assert.ErrorContains(t, err, "manifest not found")
}
