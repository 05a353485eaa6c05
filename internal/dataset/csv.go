package dataset

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var (
	// ErrMissingColumn is returned when a source column is absent from the header.
	ErrMissingColumn = errors.New("missing column")
	// ErrDuplicateID is returned when two rows share an identifier.
	ErrDuplicateID = errors.New("duplicate identifier")
)

// Options controls how a dataset file is read.
type Options struct {
	// Delimiter for CSV. If 0, sniffed from the file extension.
	Delimiter rune
	// Sheet selects the worksheet of an .xlsx input; empty means the first.
	Sheet string
}

// Load reads a dataset from a CSV, TSV or XLSX file, chosen by extension.
func Load(path string, opt Options) (*Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadXLSX(path, opt.Sheet)
	}
	return LoadCSV(path, opt)
}

// LoadCSV reads a profile dataset from path.
func LoadCSV(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadCSV(f, filepath.Base(path), opt)
}

// ReadCSV reads a profile dataset from r. The first column is the row
// identifier; the remaining source columns are located by name.
func ReadCSV(r io.Reader, name string, opt Options) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	return decode(name, cr.Read)
}

// decode builds a dataset from a header row followed by records. next
// returns io.EOF once the rows are exhausted.
func decode(name string, next func() ([]string, error)) (*Dataset, error) {
	header, err := next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	// The identifier is the first column whatever its name.
	idx[ColID] = 0
	for _, c := range Schema {
		if c.Derived {
			continue
		}
		if _, ok := idx[c.Name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c.Name)
		}
	}

	ds := &Dataset{Name: name}
	seen := map[string]int{}
	for line := 2; ; line++ {
		rec, err := next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}
		cell := func(col string) string {
			i := idx[col]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		p, err := parseProfile(cell)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if prev, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf("row %d: %w %q (first seen on row %d)", line, ErrDuplicateID, p.ID, prev)
		}
		seen[p.ID] = line
		ds.Profiles = append(ds.Profiles, p)
	}
	return ds, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseProfile(cell func(string) string) (Profile, error) {
	var (
		p   Profile
		err error
	)
	p.ID = cell(ColID)
	if p.ID == "" {
		return p, fmt.Errorf("%s: empty identifier", ColID)
	}
	created, err := parseTime(cell(ColCreatedAt))
	if err != nil {
		return p, fmt.Errorf("%s: %w", ColCreatedAt, err)
	}
	if !created.Valid {
		return p, fmt.Errorf("%s: empty creation date", ColCreatedAt)
	}
	p.CreatedAt = created.V

	floats := []struct {
		col string
		dst *sql.Null[float64]
	}{
		{ColScore, &p.Score},
		{ColSentiment, &p.Sentiment},
		{ColTextLength, &p.TextLength},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(cell(f.col)); err != nil {
			return p, fmt.Errorf("%s: %w", f.col, err)
		}
	}
	ints := []struct {
		col string
		dst *sql.Null[int64]
	}{
		{ColMatches, &p.Matches},
		{ColPhotoUpdates, &p.PhotoUpdates},
		{ColPhotos, &p.Photos},
	}
	for _, f := range ints {
		if *f.dst, err = parseInt(cell(f.col)); err != nil {
			return p, fmt.Errorf("%s: %w", f.col, err)
		}
	}
	times := []struct {
		col string
		dst *sql.Null[time.Time]
	}{
		{ColLastConnection, &p.LastConnection},
		{ColLastPhotoUpdate, &p.LastPhotoUpdate},
		{ColLastProfileUpdate, &p.LastProfileUpdate},
	}
	for _, f := range times {
		if *f.dst, err = parseTime(cell(f.col)); err != nil {
			return p, fmt.Errorf("%s: %w", f.col, err)
		}
	}
	for _, f := range p.CategoryFields() {
		if *f.Cell, err = parseCategory(cell(f.Name), f.Labels); err != nil {
			return p, fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return p, nil
}

func parseFloat(s string) (sql.Null[float64], error) {
	if isNA(s) {
		return sql.Null[float64]{}, nil
	}
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return sql.Null[float64]{}, fmt.Errorf("invalid number %q", s)
	}
	return sql.Null[float64]{V: v, Valid: true}, nil
}

func parseInt(s string) (sql.Null[int64], error) {
	if isNA(s) {
		return sql.Null[int64]{}, nil
	}
	v, err := parseWhole(s)
	if err != nil {
		return sql.Null[int64]{}, err
	}
	return sql.Null[int64]{V: v, Valid: true}, nil
}

// parseWhole reads a base-10 integer; "010" is ten and "4.0" is four.
func parseWhole(s string) (int64, error) {
	f, err := cast.ToFloat64E(s)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int64(f), nil
}

func parseCategory(s string, labels map[int64]string) (Category, error) {
	if isNA(s) {
		return Category{}, nil
	}
	if code, err := parseWhole(s); err == nil {
		return Code(code), nil
	}
	for code, l := range labels {
		if strings.EqualFold(l, s) {
			return Category{Code: code, Label: l, Valid: true}, nil
		}
	}
	return Category{}, fmt.Errorf("unknown category %q", s)
}

var timeLayouts = []string{
	"2006-01-02", "2006-01-02 15:04:05", "2006-01-02 15:04", time.RFC3339,
	"2006-01-02T15:04:05", "2006/01/02", "02/01/2006",
}

func parseTime(s string) (sql.Null[time.Time], error) {
	if isNA(s) {
		return sql.Null[time.Time]{}, nil
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return sql.Null[time.Time]{V: t, Valid: true}, nil
		}
	}
	return sql.Null[time.Time]{}, fmt.Errorf("invalid date %q", s)
}

func isNA(s string) bool {
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "nat":
		return true
	}
	return false
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// WriteCSV writes ds with the full schema, nulls as empty cells.
func WriteCSV(w io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(Schema))
	for i := range ds.Profiles {
		p := &ds.Profiles[i]
		for j, c := range Schema {
			row[j] = c.Format(p)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes ds to path.
func WriteCSVFile(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, ds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
