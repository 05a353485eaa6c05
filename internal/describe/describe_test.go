package describe

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/profilestat-cli/internal/cleaning"
	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
)

const fixture = `,date.crea,score,n.matches,n.updates.photo,n.photos,last.connex,last.up.photo,last.pr.update,gender,sent.ana,length.prof,voyage,laugh,photo.keke,photo.beach
1,2020-01-01,4,10,1,3,2020-01-11,,,1,0.1,0,0,1,1,0
2,2020-01-01,6,20,1,5,2020-01-31,,,1,0.1,0,1,1,0,1
3,2020-01-01,3,7,-1,2,2019-12-01,,,0,0.5,0,1,0,1,1
4,2020-01-01,8,30,2,6,2020-01-02,,,0,,12,0,0,0,0
`

func loadClean(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(fixture), "users.db.csv", dataset.Options{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	cleaning.New(cleaning.Options{}, nil).Clean(ds)
	return ds
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestByGroup(t *testing.T) {
	ds := loadClean(t)
	gs, err := ByGroup(ds, dataset.ColGender, DefaultValueColumns)
	if err != nil {
		t.Fatalf("ByGroup: %v", err)
	}
	if strings.Join(gs.Groups, ",") != "man,woman" {
		t.Fatalf("groups = %v", gs.Groups)
	}
	w := gs.Cell(dataset.ColScore, "woman")
	if w.Count != 2 || !approx(w.Mean, 5) || !approx(w.Median, 5) || !approx(w.Std, math.Sqrt2) || w.Min != 4 || w.Max != 6 {
		t.Fatalf("woman score = %+v", w)
	}
	// man row 3 lost its last connection, so only one day count remains
	d := gs.Cell(dataset.ColDaysToLastConnection, "man")
	if d.Count != 1 || d.Mean != 1 || !math.IsNaN(d.Std) {
		t.Fatalf("man days = %+v", d)
	}
	md := gs.Markdown()
	if !strings.Contains(md, "[STATISTICS BY GENDER]") || !strings.Contains(md, "| score | mean | 5.5 | 5 |") {
		t.Fatalf("markdown:\n%s", md)
	}
}

func TestByGroup_UnknownColumn(t *testing.T) {
	if _, err := ByGroup(loadClean(t), "nope", DefaultValueColumns); err == nil {
		t.Fatalf("expected error for unknown group column")
	}
}

func TestGenderShares(t *testing.T) {
	shares, err := GenderShares(loadClean(t))
	if err != nil {
		t.Fatalf("GenderShares: %v", err)
	}
	if len(shares) != 2 || shares[0].Label != "man" || !approx(shares[0].Fraction, 0.5) {
		t.Fatalf("shares = %+v", shares)
	}
	if !strings.Contains(SharesMarkdown("GENDER", shares), "- woman: 0.5000 (n=2)") {
		t.Fatalf("unexpected shares markdown")
	}
}

func TestSentimentDuplicates(t *testing.T) {
	if got := SentimentDuplicates(loadClean(t)); got != 1 {
		t.Fatalf("duplicates = %d, want 1", got)
	}
}

func TestSummarizeMarkdown(t *testing.T) {
	s := Summarize(loadClean(t))
	if s.Rows != 4 {
		t.Fatalf("rows = %d", s.Rows)
	}
	var updates NumericSummary
	for _, n := range s.Numeric {
		if n.Column == dataset.ColPhotoUpdates {
			updates = n
		}
	}
	if updates.Count != 3 || updates.Missing != 1 || !approx(updates.Median, 1) {
		t.Fatalf("photo updates summary = %+v", updates)
	}
	var last DateSummary
	for _, d := range s.Dates {
		if d.Column == dataset.ColLastConnection {
			last = d
		}
	}
	day := func(d int) time.Time { return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC) }
	if last.Count != 3 || last.Missing != 1 || !last.Min.Equal(day(2)) || !last.Median.Equal(day(11)) || !last.Max.Equal(day(31)) {
		t.Fatalf("last connection summary = %+v", last)
	}
	if !last.Q1.Equal(day(6).Add(12*time.Hour)) || last.Std <= 0 {
		t.Fatalf("last connection spread = %+v", last)
	}

	md := s.Markdown()
	for _, want := range []string{"[DATASET SUMMARY]", "File: users.db.csv", "[NUMERIC]", "[DATES]", "[CATEGORIES]", "- gender: non-null 4, missing 0: man(2), woman(2)"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}
