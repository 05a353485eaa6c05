package cleaning

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func validTime(t time.Time) sql.Null[time.Time] { return sql.Null[time.Time]{V: t, Valid: true} }
func validInt(v int64) sql.Null[int64]          { return sql.Null[int64]{V: v, Valid: true} }
func validFloat(v float64) sql.Null[float64]    { return sql.Null[float64]{V: v, Valid: true} }

func profile(id string) dataset.Profile {
	return dataset.Profile{
		ID:             id,
		CreatedAt:      day(2020, 1, 1),
		Score:          validFloat(5.5),
		Matches:        validInt(10),
		PhotoUpdates:   validInt(2),
		Photos:         validInt(4),
		LastConnection: validTime(day(2020, 1, 21)),
		Gender:         dataset.Code(0),
		Sentiment:      validFloat(0.3),
		TextLength:     validFloat(12),
		Travel:         dataset.Code(0),
		Laughter:       dataset.Code(1),
		RisquePhoto:    dataset.Code(0),
		BeachPhoto:     dataset.Code(1),
	}
}

func sample() *dataset.Dataset {
	a := profile("a")
	a.CreatedAt = day(2020, 1, 10)
	a.LastConnection = validTime(day(2020, 1, 5))

	b := profile("b")
	b.PhotoUpdates = validInt(-3)
	b.Gender = dataset.Code(1)

	c := profile("c")
	c.PhotoUpdates = validInt(4)
	c.Gender = dataset.Code(9)
	c.LastConnection = sql.Null[time.Time]{}

	d := profile("d")
	d.TextLength = validFloat(7.5)
	d.Gender = dataset.Code(2)
	d.Sentiment = sql.Null[float64]{}

	e := profile("e")
	e.TextLength = validFloat(0)
	e.Travel = dataset.Category{}

	return &dataset.Dataset{Name: "sample", Profiles: []dataset.Profile{a, b, c, d, e}}
}

func TestClean_Examples(t *testing.T) {
	ds := sample()
	New(Options{}, nil).Clean(ds)
	p := ds.Profiles

	// last connection before creation is nulled, and so is the derived day count
	assert.False(t, p[0].LastConnection.Valid)
	assert.False(t, p[0].DaysToLastConnection.Valid)

	assert.False(t, p[1].PhotoUpdates.Valid)
	assert.Equal(t, validInt(4), p[2].PhotoUpdates)

	assert.Equal(t, "woman", p[1].Gender.String())
	assert.Equal(t, "9", p[2].Gender.String())
	assert.False(t, p[2].Gender.Recoded())
	assert.Equal(t, "other", p[3].Gender.String())
	assert.Equal(t, "man", p[0].Gender.String())

	assert.Equal(t, "yes", p[0].Travel.String())
	assert.Equal(t, "no", p[0].Laughter.String())
	assert.False(t, p[4].Travel.Valid)

	assert.False(t, p[3].TextLength.Valid, "fractional text length must be nulled")
	assert.Equal(t, validFloat(12), p[0].TextLength)
}

func TestClean_DaysToLastConnection(t *testing.T) {
	ds := sample()
	New(Options{}, nil).Clean(ds)
	for _, p := range ds.Profiles {
		if !p.LastConnection.Valid {
			assert.False(t, p.DaysToLastConnection.Valid, p.ID)
			continue
		}
		require.True(t, p.DaysToLastConnection.Valid, p.ID)
		assert.Equal(t, int64(20), p.DaysToLastConnection.V, p.ID)
	}
}

func TestDaysToLastConnection_PartialDayFloors(t *testing.T) {
	p := profile("x")
	p.LastConnection = validTime(day(2020, 1, 3).Add(23 * time.Hour))
	assert.True(t, DaysToLastConnection{}.Apply(&p))
	assert.Equal(t, validInt(2), p.DaysToLastConnection)
}

func TestClean_Invariants(t *testing.T) {
	ds := sample()
	before := ds.Len()
	ids := make([]string, 0, before)
	for _, p := range ds.Profiles {
		ids = append(ids, p.ID)
	}

	New(Options{}, nil).Clean(ds)

	require.Equal(t, before, ds.Len())
	for i, p := range ds.Profiles {
		assert.Equal(t, ids[i], p.ID, "row order must be preserved")
		if p.LastConnection.Valid {
			assert.False(t, p.LastConnection.V.Before(p.CreatedAt), p.ID)
		}
		if p.PhotoUpdates.Valid {
			assert.GreaterOrEqual(t, p.PhotoUpdates.V, int64(0), p.ID)
		}
		for _, f := range p.CategoryFields() {
			if !f.Cell.Valid {
				continue
			}
			if _, inDomain := f.Labels[f.Cell.Code]; inDomain {
				assert.True(t, f.Cell.Recoded(), "%s %s", p.ID, f.Name)
			}
		}
	}
}

func TestClean_Idempotent(t *testing.T) {
	once := sample()
	c := New(Options{}, nil)
	c.Clean(once)

	twice := once.Clone()
	sum := c.Clean(twice)

	assert.Equal(t, once.Profiles, twice.Profiles)
	for _, rc := range sum.Changed {
		assert.Zero(t, rc.Rows, "rule %s changed rows on a second pass", rc.Rule)
	}
}

func TestClean_Summary(t *testing.T) {
	sum := New(Options{}, nil).Clean(sample())
	assert.Equal(t, 5, sum.Rows)
	got := map[string]int{}
	for _, rc := range sum.Changed {
		got[rc.Rule] = rc.Rows
	}
	assert.Equal(t, map[string]int{
		"date_consistency":           1,
		"non_negative_photo_updates": 1,
		"integral_text_length":       1,
		"sentiment_pass_through":     0,
		"days_to_last_connection":    3,
		"recode":                     5,
	}, got)
}

func TestSentimentRules(t *testing.T) {
	ds := sample()
	New(Options{}, nil).Clean(ds)
	assert.True(t, ds.Profiles[4].Sentiment.Valid, "pass-through keeps sentiment of empty profiles")
	assert.False(t, ds.Profiles[3].Sentiment.Valid, "existing nulls stay null")

	strict := sample()
	New(Options{StrictSentiment: true}, nil).Clean(strict)
	assert.False(t, strict.Profiles[4].Sentiment.Valid)
	assert.True(t, strict.Profiles[0].Sentiment.Valid)
}

func TestNullCounts(t *testing.T) {
	ds := sample()
	New(Options{}, nil).Clean(ds)
	counts := map[string]int{}
	for _, nc := range NullCounts(ds) {
		counts[nc.Column] = nc.Nulls
	}
	assert.Equal(t, 2, counts[dataset.ColLastConnection])
	assert.Equal(t, 1, counts[dataset.ColPhotoUpdates])
	assert.Equal(t, 1, counts[dataset.ColTextLength])
	assert.Equal(t, 1, counts[dataset.ColSentiment])
	assert.Equal(t, 1, counts[dataset.ColTravel])
	assert.Equal(t, 2, counts[dataset.ColDaysToLastConnection])
	assert.Equal(t, 5, counts[dataset.ColLastPhotoUpdate])
	assert.Zero(t, counts[dataset.ColID])
}

func TestClean_LogsNullCounts(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	New(Options{}, zap.New(core)).Clean(sample())

	entries := logs.FilterMessage("null counts").All()
	require.Len(t, entries, 1)
	nulls, ok := entries[0].ContextMap()["nulls"].(map[string]interface{})
	require.True(t, ok, "nulls field: %+v", entries[0].ContextMap())
	assert.EqualValues(t, 2, nulls[dataset.ColLastConnection])
	assert.EqualValues(t, 1, nulls[dataset.ColPhotoUpdates])
	assert.EqualValues(t, 0, nulls[dataset.ColID])
}
