package dataset

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind is the declared type of a column.
type Kind string

const (
	KindID          Kind = "id"
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
)

// Column describes one column of the profile schema. Accessors that do not
// apply to the column's kind are nil.
type Column struct {
	Name string
	Kind Kind
	// Derived columns are computed by the cleaner, not read from the source.
	Derived bool
	// Format renders the cell for CSV output; "" means null.
	Format func(p *Profile) string
	// Number returns the numeric value of a numeric cell.
	Number func(p *Profile) (float64, bool)
	// Time returns the value of a datetime cell.
	Time func(p *Profile) (time.Time, bool)
	// Category returns the categorical cell.
	Category func(p *Profile) Category
}

// IsNull reports whether the cell of c in p is null.
func (c Column) IsNull(p *Profile) bool { return c.Format(p) == "" }

// Schema lists the columns in file order, derived column last.
var Schema = []Column{
	{Name: ColID, Kind: KindID, Format: func(p *Profile) string { return p.ID }},
	timeColumn(ColCreatedAt, func(p *Profile) sql.Null[time.Time] { return sql.Null[time.Time]{V: p.CreatedAt, Valid: !p.CreatedAt.IsZero()} }),
	floatColumn(ColScore, func(p *Profile) sql.Null[float64] { return p.Score }),
	intColumn(ColMatches, func(p *Profile) sql.Null[int64] { return p.Matches }),
	intColumn(ColPhotoUpdates, func(p *Profile) sql.Null[int64] { return p.PhotoUpdates }),
	intColumn(ColPhotos, func(p *Profile) sql.Null[int64] { return p.Photos }),
	timeColumn(ColLastConnection, func(p *Profile) sql.Null[time.Time] { return p.LastConnection }),
	timeColumn(ColLastPhotoUpdate, func(p *Profile) sql.Null[time.Time] { return p.LastPhotoUpdate }),
	timeColumn(ColLastProfileUpdate, func(p *Profile) sql.Null[time.Time] { return p.LastProfileUpdate }),
	categoryColumn(ColGender, func(p *Profile) Category { return p.Gender }),
	floatColumn(ColSentiment, func(p *Profile) sql.Null[float64] { return p.Sentiment }),
	floatColumn(ColTextLength, func(p *Profile) sql.Null[float64] { return p.TextLength }),
	categoryColumn(ColTravel, func(p *Profile) Category { return p.Travel }),
	categoryColumn(ColLaughter, func(p *Profile) Category { return p.Laughter }),
	categoryColumn(ColRisquePhoto, func(p *Profile) Category { return p.RisquePhoto }),
	categoryColumn(ColBeachPhoto, func(p *Profile) Category { return p.BeachPhoto }),
	derived(intColumn(ColDaysToLastConnection, func(p *Profile) sql.Null[int64] { return p.DaysToLastConnection })),
}

// Lookup returns the schema column with the given name.
func Lookup(name string) (Column, bool) {
	for _, c := range Schema {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Header returns the column names in schema order.
func Header() []string {
	out := make([]string, len(Schema))
	for i, c := range Schema {
		out[i] = c.Name
	}
	return out
}

func floatColumn(name string, get func(*Profile) sql.Null[float64]) Column {
	return Column{
		Name: name,
		Kind: KindNumeric,
		Format: func(p *Profile) string {
			v := get(p)
			if !v.Valid {
				return ""
			}
			return strconv.FormatFloat(v.V, 'f', -1, 64)
		},
		Number: func(p *Profile) (float64, bool) {
			v := get(p)
			return v.V, v.Valid
		},
	}
}

func intColumn(name string, get func(*Profile) sql.Null[int64]) Column {
	return Column{
		Name: name,
		Kind: KindNumeric,
		Format: func(p *Profile) string {
			v := get(p)
			if !v.Valid {
				return ""
			}
			return strconv.FormatInt(v.V, 10)
		},
		Number: func(p *Profile) (float64, bool) {
			v := get(p)
			return float64(v.V), v.Valid
		},
	}
}

func timeColumn(name string, get func(*Profile) sql.Null[time.Time]) Column {
	return Column{
		Name: name,
		Kind: KindDatetime,
		Format: func(p *Profile) string {
			v := get(p)
			if !v.Valid {
				return ""
			}
			return FormatTime(v.V)
		},
		Time: func(p *Profile) (time.Time, bool) {
			v := get(p)
			return v.V, v.Valid
		},
	}
}

func categoryColumn(name string, get func(*Profile) Category) Column {
	return Column{
		Name:     name,
		Kind:     KindCategorical,
		Format:   func(p *Profile) string { return get(p).String() },
		Category: get,
	}
}

func derived(c Column) Column {
	c.Derived = true
	return c
}

// FormatTime renders midnight timestamps as plain dates.
func FormatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// Floats returns the numeric column col with NaN for nulls.
func (d *Dataset) Floats(col string) ([]float64, error) {
	c, ok := Lookup(col)
	if !ok || c.Number == nil {
		return nil, fmt.Errorf("%w: numeric column %s", ErrMissingColumn, col)
	}
	out := make([]float64, len(d.Profiles))
	for i := range d.Profiles {
		v, ok := c.Number(&d.Profiles[i])
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, nil
}

// Labels returns the categorical column col rendered as text, "" for nulls.
func (d *Dataset) Labels(col string) ([]string, error) {
	c, ok := Lookup(col)
	if !ok || c.Category == nil {
		return nil, fmt.Errorf("%w: categorical column %s", ErrMissingColumn, col)
	}
	out := make([]string, len(d.Profiles))
	for i := range d.Profiles {
		out[i] = c.Category(&d.Profiles[i]).String()
	}
	return out, nil
}
