package describe

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
)

// DefaultValueColumns are summarized per gender.
var DefaultValueColumns = []string{
	dataset.ColScore,
	dataset.ColMatches,
	dataset.ColPhotos,
	dataset.ColDaysToLastConnection,
}

// Aggregate holds the pivot statistics of one value column within one group.
type Aggregate struct {
	Count             int
	Mean, Median, Std float64
	Min, Max          float64
}

// GroupStats is a pivot table: value columns by group labels.
type GroupStats struct {
	GroupColumn string
	Values      []string
	Groups      []string
	// Cells[value][group]
	Cells map[string]map[string]Aggregate
}

// Cell returns the aggregate for a value column and group.
func (g *GroupStats) Cell(value, group string) Aggregate { return g.Cells[value][group] }

// ByGroup aggregates each value column per label of the categorical column
// group. Rows with a null group are skipped; nulls in value columns are
// skipped per column.
func ByGroup(ds *dataset.Dataset, group string, values []string) (*GroupStats, error) {
	labels, err := ds.Labels(group)
	if err != nil {
		return nil, err
	}
	gs := &GroupStats{GroupColumn: group, Values: values, Cells: map[string]map[string]Aggregate{}}
	seen := map[string]bool{}
	for _, l := range labels {
		if l != "" && !seen[l] {
			seen[l] = true
			gs.Groups = append(gs.Groups, l)
		}
	}
	sort.Strings(gs.Groups)

	for _, v := range values {
		col, err := ds.Floats(v)
		if err != nil {
			return nil, fmt.Errorf("group stats: %w", err)
		}
		buckets := map[string][]float64{}
		for i, x := range col {
			if labels[i] == "" || math.IsNaN(x) {
				continue
			}
			buckets[labels[i]] = append(buckets[labels[i]], x)
		}
		gs.Cells[v] = map[string]Aggregate{}
		for _, g := range gs.Groups {
			gs.Cells[v][g] = aggregate(buckets[g])
		}
	}
	return gs, nil
}

func aggregate(vals []float64) Aggregate {
	a := Aggregate{Count: len(vals)}
	if len(vals) == 0 {
		nan := math.NaN()
		a.Mean, a.Median, a.Std, a.Min, a.Max = nan, nan, nan, nan, nan
		return a
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	a.Mean = stat.Mean(sorted, nil)
	a.Median = quantile(sorted, 0.5)
	a.Std = sampleStd(sorted)
	a.Min = sorted[0]
	a.Max = sorted[len(sorted)-1]
	return a
}

// Share is the proportion of one label among non-null values.
type Share struct {
	Label    string
	Count    int
	Fraction float64
}

// Shares returns the normalized value counts of a categorical column,
// most frequent first.
func Shares(ds *dataset.Dataset, col string) ([]Share, error) {
	labels, err := ds.Labels(col)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	total := 0
	for _, l := range labels {
		if l == "" {
			continue
		}
		counts[l]++
		total++
	}
	out := make([]Share, 0, len(counts))
	for _, kv := range sortedCounts(counts) {
		out = append(out, Share{Label: kv.Value, Count: kv.Count, Fraction: float64(kv.Count) / float64(total)})
	}
	return out, nil
}

// GenderShares returns the normalized gender value counts.
func GenderShares(ds *dataset.Dataset) ([]Share, error) {
	return Shares(ds, dataset.ColGender)
}

// SentimentDuplicates counts duplicated sentiment scores among profiles
// without text. Sentiment depends only on the text, so every such profile
// should carry the same score; nulls compare equal to each other.
func SentimentDuplicates(ds *dataset.Dataset) int {
	seen := map[float64]bool{}
	seenNull := false
	dups := 0
	for i := range ds.Profiles {
		p := &ds.Profiles[i]
		if !p.TextLength.Valid || p.TextLength.V != 0 {
			continue
		}
		if !p.Sentiment.Valid {
			if seenNull {
				dups++
			}
			seenNull = true
			continue
		}
		if seen[p.Sentiment.V] {
			dups++
		}
		seen[p.Sentiment.V] = true
	}
	return dups
}

// Markdown renders the pivot with one row per value column and statistic.
func (g *GroupStats) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[STATISTICS BY %s]\n", strings.ToUpper(g.GroupColumn))
	b.WriteString("| column | stat |")
	for _, grp := range g.Groups {
		fmt.Fprintf(&b, " %s |", grp)
	}
	b.WriteString("\n| --- | --- |")
	for range g.Groups {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, v := range g.Values {
		for _, st := range AggregateNames {
			fmt.Fprintf(&b, "| %s | %s |", v, st)
			for _, grp := range g.Groups {
				fmt.Fprintf(&b, " %s |", num(g.Cell(v, grp).Get(st)))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// AggregateNames lists the pivot statistics in report order.
var AggregateNames = []string{"count", "mean", "median", "std", "min", "max"}

// Get returns the statistic named by one of AggregateNames.
func (a Aggregate) Get(name string) float64 {
	switch name {
	case "count":
		return float64(a.Count)
	case "mean":
		return a.Mean
	case "median":
		return a.Median
	case "std":
		return a.Std
	case "min":
		return a.Min
	case "max":
		return a.Max
	}
	return math.NaN()
}

// SharesMarkdown renders normalized value counts.
func SharesMarkdown(title string, shares []Share) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", title)
	for _, s := range shares {
		fmt.Fprintf(&b, "- %s: %.4f (n=%d)\n", s.Label, s.Fraction, s.Count)
	}
	return b.String()
}
