// Package cleaning applies the validity rules and derived columns to a
// loaded profile dataset before any analysis reads it.
package cleaning

import (
	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
	"go.uber.org/zap"
)

// Options selects optional rule variants.
type Options struct {
	// StrictSentiment nulls sentiment scores of profiles without text
	// instead of passing them through.
	StrictSentiment bool
}

// Cleaner runs an ordered list of rules over every row of a dataset.
type Cleaner struct {
	rules []Rule
	log   *zap.Logger
}

// DefaultRules returns the standard rule sequence. DaysToLastConnection
// always follows DateConsistency.
func DefaultRules(opt Options) []Rule {
	var sentiment Rule = SentimentPassThrough{}
	if opt.StrictSentiment {
		sentiment = SentimentRequiresText{}
	}
	return []Rule{
		DateConsistency{},
		NonNegativePhotoUpdates{},
		IntegralTextLength{},
		sentiment,
		DaysToLastConnection{},
		Recode{},
	}
}

// New returns a Cleaner with the default rules.
func New(opt Options, log *zap.Logger) *Cleaner {
	return NewWithRules(DefaultRules(opt), log)
}

// NewWithRules returns a Cleaner running rules in order.
func NewWithRules(rules []Rule, log *zap.Logger) *Cleaner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cleaner{rules: rules, log: log.Named("cleaning")}
}

// Summary reports what a cleaning pass touched.
type Summary struct {
	Rows int `json:"rows"`
	// Changed counts rows modified per rule, in rule order.
	Changed []RuleCount `json:"changed"`
}

// RuleCount is the number of rows a rule modified.
type RuleCount struct {
	Rule string `json:"rule"`
	Rows int    `json:"rows"`
}

// Clean applies every rule to every row of ds in place. Rows are never
// dropped or reordered.
func (c *Cleaner) Clean(ds *dataset.Dataset) Summary {
	sum := Summary{Rows: ds.Len(), Changed: make([]RuleCount, len(c.rules))}
	for j, r := range c.rules {
		sum.Changed[j].Rule = r.Name()
	}
	for i := range ds.Profiles {
		p := &ds.Profiles[i]
		for j, r := range c.rules {
			if r.Apply(p) {
				sum.Changed[j].Rows++
			}
		}
	}
	for _, rc := range sum.Changed {
		c.log.Debug("rule applied", zap.String("rule", rc.Rule), zap.Int("rows_changed", rc.Rows))
	}
	c.log.Info("dataset cleaned", zap.String("dataset", ds.Name), zap.Int("rows", sum.Rows))
	if ce := c.log.Check(zap.InfoLevel, "null counts"); ce != nil {
		nulls := NullCounts(ds)
		fields := make([]zap.Field, 0, len(nulls))
		for _, n := range nulls {
			fields = append(fields, zap.Int(n.Column, n.Nulls))
		}
		ce.Write(zap.String("dataset", ds.Name), zap.Dict("nulls", fields...))
	}
	return sum
}

// NullCount is the number of null cells in a column.
type NullCount struct {
	Column string `json:"column"`
	Nulls  int    `json:"nulls"`
}

// NullCounts returns per-column null counts in schema order.
func NullCounts(ds *dataset.Dataset) []NullCount {
	out := make([]NullCount, len(dataset.Schema))
	for j, col := range dataset.Schema {
		out[j].Column = col.Name
		for i := range ds.Profiles {
			if col.IsNull(&ds.Profiles[i]) {
				out[j].Nulls++
			}
		}
	}
	return out
}
