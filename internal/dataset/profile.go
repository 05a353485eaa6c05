package dataset

import (
	"database/sql"
	"strconv"
	"time"
)

// Column names as they appear in the source file.
const (
	ColID                = "userid"
	ColCreatedAt         = "date.crea"
	ColScore             = "score"
	ColMatches           = "n.matches"
	ColPhotoUpdates      = "n.updates.photo"
	ColPhotos            = "n.photos"
	ColLastConnection    = "last.connex"
	ColLastPhotoUpdate   = "last.up.photo"
	ColLastProfileUpdate = "last.pr.update"
	ColGender            = "gender"
	ColSentiment         = "sent.ana"
	ColTextLength        = "length.prof"
	ColTravel            = "voyage"
	ColLaughter          = "laugh"
	ColRisquePhoto       = "photo.keke"
	ColBeachPhoto        = "photo.beach"
	// ColDaysToLastConnection is derived by the cleaner, never read.
	ColDaysToLastConnection = "n.days.to.last.connex"
)

// GenderLabels maps gender codes to labels.
var GenderLabels = map[int64]string{0: "man", 1: "woman", 2: "other"}

// BinaryLabels maps the keyword/photo flags to labels.
var BinaryLabels = map[int64]string{0: "yes", 1: "no"}

// Profile is one row of the dataset.
type Profile struct {
	ID                string
	CreatedAt         time.Time
	Score             sql.Null[float64]
	Matches           sql.Null[int64]
	PhotoUpdates      sql.Null[int64]
	Photos            sql.Null[int64]
	LastConnection    sql.Null[time.Time]
	LastPhotoUpdate   sql.Null[time.Time]
	LastProfileUpdate sql.Null[time.Time]
	Gender            Category
	Sentiment         sql.Null[float64]
	// TextLength is a word count, kept as float so fractional input stays observable.
	TextLength  sql.Null[float64]
	Travel      Category
	Laughter    Category
	RisquePhoto Category
	BeachPhoto  Category

	DaysToLastConnection sql.Null[int64]
}

// Dataset is an ordered collection of profiles.
type Dataset struct {
	Name     string
	Profiles []Profile
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Profiles) }

// Clone returns a deep copy; Profile has no reference fields so a slice copy suffices.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{Name: d.Name, Profiles: make([]Profile, len(d.Profiles))}
	copy(out.Profiles, d.Profiles)
	return out
}

// Category is a coded categorical cell. Label is empty until the column is
// recoded, and stays empty for codes outside the column's mapping.
type Category struct {
	Code  int64
	Label string
	Valid bool
}

// Code returns a valid, not yet recoded category.
func Code(c int64) Category { return Category{Code: c, Valid: true} }

// Recoded reports whether the category carries a label.
func (c Category) Recoded() bool { return c.Valid && c.Label != "" }

// Recode returns c labelled from labels. Unknown codes pass through unchanged.
func (c Category) Recode(labels map[int64]string) Category {
	if !c.Valid || c.Label != "" {
		return c
	}
	if l, ok := labels[c.Code]; ok {
		c.Label = l
	}
	return c
}

// String renders the label, or the raw code when there is none.
func (c Category) String() string {
	if !c.Valid {
		return ""
	}
	if c.Label != "" {
		return c.Label
	}
	return strconv.FormatInt(c.Code, 10)
}

// CategoryField binds a categorical cell to its column name and mapping.
type CategoryField struct {
	Name   string
	Cell   *Category
	Labels map[int64]string
}

// CategoryFields returns the categorical cells of p in column order.
func (p *Profile) CategoryFields() []CategoryField {
	return []CategoryField{
		{ColGender, &p.Gender, GenderLabels},
		{ColTravel, &p.Travel, BinaryLabels},
		{ColLaughter, &p.Laughter, BinaryLabels},
		{ColRisquePhoto, &p.RisquePhoto, BinaryLabels},
		{ColBeachPhoto, &p.BeachPhoto, BinaryLabels},
	}
}
