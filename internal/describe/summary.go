// Package describe computes descriptive statistics over a profile dataset
// and renders them as a compact Markdown report.
package describe

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
)

// Summary is a per-column description of a dataset.
type Summary struct {
	Name       string
	Rows       int
	Numeric    []NumericSummary
	Dates      []DateSummary
	Categories []CategorySummary
	Notes      []string
}

// NumericSummary mirrors a dataframe describe() row.
type NumericSummary struct {
	Column              string
	Count, Missing      int
	Mean, Std           float64
	Min, Q1, Median, Q3 float64
	Max                 float64
}

// DateSummary describes a datetime column. Std is the sample spread.
type DateSummary struct {
	Column              string
	Count, Missing      int
	Mean                time.Time
	Std                 time.Duration
	Min, Q1, Median, Q3 time.Time
	Max                 time.Time
}

// CategorySummary describes a categorical column.
type CategorySummary struct {
	Column         string
	Count, Missing int
	Unique         int
	Top            []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// Summarize describes every column of ds except the identifier.
func Summarize(ds *dataset.Dataset) *Summary {
	s := &Summary{Name: ds.Name, Rows: ds.Len()}
	for _, col := range dataset.Schema {
		switch col.Kind {
		case dataset.KindNumeric:
			s.Numeric = append(s.Numeric, numericSummary(ds, col))
		case dataset.KindDatetime:
			s.Dates = append(s.Dates, dateSummary(ds, col))
		case dataset.KindCategorical:
			s.Categories = append(s.Categories, categorySummary(ds, col))
		}
	}
	return s
}

func numericSummary(ds *dataset.Dataset, col dataset.Column) NumericSummary {
	ns := NumericSummary{Column: col.Name}
	var vals []float64
	for i := range ds.Profiles {
		if v, ok := col.Number(&ds.Profiles[i]); ok {
			vals = append(vals, v)
		} else {
			ns.Missing++
		}
	}
	ns.Count = len(vals)
	if ns.Count == 0 {
		ns.Mean, ns.Std = math.NaN(), math.NaN()
		ns.Min, ns.Q1, ns.Median, ns.Q3, ns.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return ns
	}
	sort.Float64s(vals)
	ns.Mean = stat.Mean(vals, nil)
	ns.Std = sampleStd(vals)
	ns.Min = vals[0]
	ns.Max = vals[len(vals)-1]
	ns.Q1 = quantile(vals, 0.25)
	ns.Median = quantile(vals, 0.5)
	ns.Q3 = quantile(vals, 0.75)
	return ns
}

func dateSummary(ds *dataset.Dataset, col dataset.Column) DateSummary {
	d := DateSummary{Column: col.Name}
	var secs []float64
	for i := range ds.Profiles {
		t, ok := col.Time(&ds.Profiles[i])
		if !ok {
			d.Missing++
			continue
		}
		secs = append(secs, float64(t.Unix()))
	}
	d.Count = len(secs)
	if d.Count == 0 {
		return d
	}
	sort.Float64s(secs)
	at := func(v float64) time.Time { return time.Unix(int64(math.Round(v)), 0).UTC() }
	d.Min, d.Max = at(secs[0]), at(secs[len(secs)-1])
	d.Mean = at(stat.Mean(secs, nil))
	d.Q1 = at(quantile(secs, 0.25))
	d.Median = at(quantile(secs, 0.5))
	d.Q3 = at(quantile(secs, 0.75))
	if std := sampleStd(secs); !math.IsNaN(std) {
		d.Std = time.Duration(std * float64(time.Second))
	}
	return d
}

func categorySummary(ds *dataset.Dataset, col dataset.Column) CategorySummary {
	cs := CategorySummary{Column: col.Name}
	counts := map[string]int{}
	for i := range ds.Profiles {
		c := col.Category(&ds.Profiles[i])
		if !c.Valid {
			cs.Missing++
			continue
		}
		cs.Count++
		counts[c.String()]++
	}
	cs.Unique = len(counts)
	cs.Top = sortedCounts(counts)
	return cs
}

func sortedCounts(counts map[string]int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// sampleStd is the n-1 standard deviation; NaN below two observations.
func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	return stat.StdDev(vals, nil)
}

// quantile interpolates linearly between closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Markdown renders the summary in bracketed sections.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", s.Name)
	}
	fmt.Fprintf(&b, "Rows: %d\n", s.Rows)

	if len(s.Numeric) > 0 {
		b.WriteString("\n[NUMERIC]\n")
		b.WriteString("| column | count | missing | mean | std | min | 25% | 50% | 75% | max |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
		for _, n := range s.Numeric {
			fmt.Fprintf(&b, "| %s | %d | %d | %s | %s | %s | %s | %s | %s | %s |\n",
				n.Column, n.Count, n.Missing, num(n.Mean), num(n.Std), num(n.Min), num(n.Q1), num(n.Median), num(n.Q3), num(n.Max))
		}
	}
	if len(s.Dates) > 0 {
		b.WriteString("\n[DATES]\n")
		for _, d := range s.Dates {
			fmt.Fprintf(&b, "- %s: non-null %d, missing %d", d.Column, d.Count, d.Missing)
			if d.Count > 0 {
				fmt.Fprintf(&b, "; mean %s, std %.1fd, min %s, 25%% %s, 50%% %s, 75%% %s, max %s",
					dataset.FormatTime(d.Mean), d.Std.Hours()/24, dataset.FormatTime(d.Min),
					dataset.FormatTime(d.Q1), dataset.FormatTime(d.Median), dataset.FormatTime(d.Q3),
					dataset.FormatTime(d.Max))
			}
			b.WriteString("\n")
		}
	}
	if len(s.Categories) > 0 {
		b.WriteString("\n[CATEGORIES]\n")
		for _, c := range s.Categories {
			fmt.Fprintf(&b, "- %s: non-null %d, missing %d", c.Column, c.Count, c.Missing)
			if len(c.Top) > 0 {
				b.WriteString(": ")
				for i, kv := range c.Top {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", kv.Value, kv.Count)
				}
			}
			b.WriteString("\n")
		}
	}
	if len(s.Notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range s.Notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", v)
}
