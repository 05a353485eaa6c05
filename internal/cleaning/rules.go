package cleaning

import (
	"database/sql"
	"math"
	"time"

	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
)

// Rule is an independent per-row cleaning step. Apply nulls or derives cells
// in place and reports whether the row changed. Rules never fail.
type Rule interface {
	Name() string
	Apply(p *dataset.Profile) bool
}

// DateConsistency nulls a last connection that precedes account creation.
type DateConsistency struct{}

func (DateConsistency) Name() string { return "date_consistency" }

func (DateConsistency) Apply(p *dataset.Profile) bool {
	if p.LastConnection.Valid && p.LastConnection.V.Before(p.CreatedAt) {
		p.LastConnection = sql.Null[time.Time]{}
		return true
	}
	return false
}

// NonNegativePhotoUpdates nulls negative photo update counts.
type NonNegativePhotoUpdates struct{}

func (NonNegativePhotoUpdates) Name() string { return "non_negative_photo_updates" }

func (NonNegativePhotoUpdates) Apply(p *dataset.Profile) bool {
	if p.PhotoUpdates.Valid && p.PhotoUpdates.V < 0 {
		p.PhotoUpdates = sql.Null[int64]{}
		return true
	}
	return false
}

// IntegralTextLength nulls a profile text length that is not a whole number.
// Integral input is never touched.
type IntegralTextLength struct{}

func (IntegralTextLength) Name() string { return "integral_text_length" }

func (IntegralTextLength) Apply(p *dataset.Profile) bool {
	if p.TextLength.Valid && p.TextLength.V != math.Trunc(p.TextLength.V) {
		p.TextLength = sql.Null[float64]{}
		return true
	}
	return false
}

// SentimentPassThrough keeps sentiment scores exactly as loaded: the existing
// null mask is re-applied and nothing else changes.
// Swap for SentimentRequiresText to null scores of empty profiles.
type SentimentPassThrough struct{}

func (SentimentPassThrough) Name() string { return "sentiment_pass_through" }

func (SentimentPassThrough) Apply(p *dataset.Profile) bool {
	if !p.Sentiment.Valid {
		p.Sentiment = sql.Null[float64]{}
	}
	return false
}

// SentimentRequiresText nulls the sentiment score of profiles without text.
type SentimentRequiresText struct{}

func (SentimentRequiresText) Name() string { return "sentiment_requires_text" }

func (SentimentRequiresText) Apply(p *dataset.Profile) bool {
	if p.Sentiment.Valid && p.TextLength.Valid && p.TextLength.V == 0 {
		p.Sentiment = sql.Null[float64]{}
		return true
	}
	return false
}

// DaysToLastConnection derives the whole days between account creation and
// last connection. It must run after DateConsistency.
type DaysToLastConnection struct{}

func (DaysToLastConnection) Name() string { return "days_to_last_connection" }

func (DaysToLastConnection) Apply(p *dataset.Profile) bool {
	next := sql.Null[int64]{}
	if p.LastConnection.Valid {
		d := p.LastConnection.V.Sub(p.CreatedAt)
		next = sql.Null[int64]{V: int64(math.Floor(d.Hours() / 24)), Valid: true}
	}
	if next == p.DaysToLastConnection {
		return false
	}
	p.DaysToLastConnection = next
	return true
}

// Recode replaces categorical codes with their labels. Codes outside a
// column's mapping are left as they are.
type Recode struct{}

func (Recode) Name() string { return "recode" }

func (Recode) Apply(p *dataset.Profile) bool {
	changed := false
	for _, f := range p.CategoryFields() {
		next := f.Cell.Recode(f.Labels)
		if next != *f.Cell {
			*f.Cell = next
			changed = true
		}
	}
	return changed
}
