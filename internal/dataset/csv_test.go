package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const usersCSV = `,date.crea,score,n.matches,n.updates.photo,n.photos,last.connex,last.up.photo,last.pr.update,gender,sent.ana,length.prof,voyage,laugh,photo.keke,photo.beach
1,2020-01-10,5.2,12,3,4,2020-01-05,2020-01-08,2020-01-09,1,0.4,20,0,1,1,0
2,2020-01-02,7.9,40,-2,8,2020-02-20,,,0,,0,1,1,0,1
3,2020-03-01,3.1,5,1,2,,2020-03-02 10:30:00,2020-03-03,9,-0.2,12.0,1,0,1,1
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestLoadCSV_TypedColumns(t *testing.T) {
	ds, err := LoadCSV(writeFixture(t, "users.db.csv", usersCSV), Options{})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if ds.Name != "users.db.csv" {
		t.Fatalf("name = %q", ds.Name)
	}
	if ds.Len() != 3 {
		t.Fatalf("rows = %d, want 3", ds.Len())
	}
	p := ds.Profiles[0]
	if p.ID != "1" {
		t.Fatalf("id = %q", p.ID)
	}
	if !p.CreatedAt.Equal(time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("created = %v", p.CreatedAt)
	}
	if !p.Score.Valid || p.Score.V != 5.2 {
		t.Fatalf("score = %+v", p.Score)
	}
	if p.Gender != Code(1) {
		t.Fatalf("gender = %+v", p.Gender)
	}

	q := ds.Profiles[1]
	if !q.PhotoUpdates.Valid || q.PhotoUpdates.V != -2 {
		t.Fatalf("photo updates = %+v", q.PhotoUpdates)
	}
	if q.Sentiment.Valid || q.LastPhotoUpdate.Valid || q.LastProfileUpdate.Valid {
		t.Fatalf("expected empty cells to load as null: %+v", q)
	}

	r := ds.Profiles[2]
	if r.LastConnection.Valid {
		t.Fatalf("expected null last connection")
	}
	if got := r.LastPhotoUpdate.V; got.Hour() != 10 || got.Minute() != 30 {
		t.Fatalf("last photo update = %v", got)
	}
	if !r.TextLength.Valid || r.TextLength.V != 12 {
		t.Fatalf("text length = %+v", r.TextLength)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
		substr  string
	}{
		{
			name:    "missing column",
			content: "userid,date.crea\n1,2020-01-01\n",
			want:    ErrMissingColumn,
		},
		{
			name:    "duplicate id",
			content: usersCSV + "1,2020-01-10,5.2,12,3,4,2020-01-05,2020-01-08,2020-01-09,1,0.4,20,0,1,1,0\n",
			want:    ErrDuplicateID,
		},
		{
			name:    "bad date",
			content: strings.Replace(usersCSV, "2020-03-01", "first of march", 1),
			substr:  "row 4: date.crea",
		},
		{
			name:    "bad category",
			content: strings.Replace(usersCSV, ",9,", ",maybe,", 1),
			substr:  "gender: unknown category",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.content), "x.csv", Options{})
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.substr != "" && !strings.Contains(err.Error(), tt.substr) {
				t.Fatalf("err = %v, want substring %q", err, tt.substr)
			}
		})
	}
}

func TestLoadCSV_TSV(t *testing.T) {
	tsv := strings.ReplaceAll(usersCSV, ",", "\t")
	ds, err := LoadCSV(writeFixture(t, "users.tsv", tsv), Options{})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("rows = %d", ds.Len())
	}
	// row 2 has empty cells between filled ones; columns must not shift
	p := ds.Profiles[1]
	if p.LastPhotoUpdate.Valid || p.LastProfileUpdate.Valid || p.Sentiment.Valid {
		t.Fatalf("empty cells loaded as values: %+v", p)
	}
	if !p.LastConnection.Valid || p.LastConnection.V != time.Date(2020, 2, 20, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("last.connex = %+v", p.LastConnection)
	}
	if p.Gender.Code != 0 || !p.TextLength.Valid || p.TextLength.V != 0 || p.Photos.V != 8 {
		t.Fatalf("columns shifted: %+v", p)
	}
}

func TestLoadCSV_TSVEmptyPhotoUpdates(t *testing.T) {
	tsv := strings.ReplaceAll(usersCSV, ",", "\t")
	tsv = strings.Replace(tsv, "2020-01-02\t7.9\t40\t-2\t8", "2020-01-02\t7.9\t40\t\t8", 1)
	ds, err := LoadCSV(writeFixture(t, "users.tsv", tsv), Options{})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	p := ds.Profiles[1]
	if p.PhotoUpdates.Valid {
		t.Fatalf("n.updates.photo = %+v, want null", p.PhotoUpdates)
	}
	if p.Photos.V != 8 || p.Matches.V != 40 {
		t.Fatalf("n.photos = %d, n.matches = %d", p.Photos.V, p.Matches.V)
	}
}

func TestParseInt_Decimal(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "010", want: 10},
		{in: "08", want: 8},
		{in: "09", want: 9},
		{in: "4.0", want: 4},
		{in: "-3", want: -3},
		{in: "4.5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseInt(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseInt(%q) = %+v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseInt(%q): %v", tt.in, err)
			}
			if !got.Valid || got.V != tt.want {
				t.Fatalf("parseInt(%q) = %+v, want %d", tt.in, got, tt.want)
			}
		})
	}
	c, err := parseCategory("01", BinaryLabels)
	if err != nil || c.Code != 1 {
		t.Fatalf("parseCategory(\"01\") = %+v, %v", c, err)
	}
}

func TestWriteCSV_RoundTripsLabels(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(usersCSV), "users.db.csv", Options{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	for i := range ds.Profiles {
		for _, f := range ds.Profiles[i].CategoryFields() {
			*f.Cell = f.Cell.Recode(f.Labels)
		}
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, ds); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != strings.Join(Header(), ",") {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasSuffix(lines[0], ",n.days.to.last.connex") {
		t.Fatalf("derived column missing from header: %q", lines[0])
	}
	if !strings.Contains(lines[1], ",woman,") || !strings.Contains(lines[3], ",9,") {
		t.Fatalf("unexpected categorical rendering:\n%s", out)
	}
	if !strings.Contains(lines[3], "2020-03-02 10:30:00") {
		t.Fatalf("timestamp with time of day lost:\n%s", out)
	}

	back, err := ReadCSV(strings.NewReader(out), "cleaned.csv", Options{})
	if err != nil {
		t.Fatalf("re-read cleaned csv: %v", err)
	}
	if got := back.Profiles[0].Gender; got.Label != "woman" || got.Code != 1 {
		t.Fatalf("label not recognised on reload: %+v", got)
	}
}
