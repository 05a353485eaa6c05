// Package store persists cleaned profiles to a SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/KaramelBytes/profilestat-cli/internal/dataset"

	_ "modernc.org/sqlite"
)

// Open connects to the SQLite file at path.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// Row is one profile as stored. Dates are kept as text in the same format
// as the cleaned CSV; categorical columns hold their labels.
type Row struct {
	ID                   string          `db:"userid"`
	CreatedAt            string          `db:"date_crea"`
	Score                sql.NullFloat64 `db:"score"`
	Matches              sql.NullInt64   `db:"n_matches"`
	PhotoUpdates         sql.NullInt64   `db:"n_updates_photo"`
	Photos               sql.NullInt64   `db:"n_photos"`
	LastConnection       sql.NullString  `db:"last_connex"`
	LastPhotoUpdate      sql.NullString  `db:"last_up_photo"`
	LastProfileUpdate    sql.NullString  `db:"last_pr_update"`
	Gender               sql.NullString  `db:"gender"`
	Sentiment            sql.NullFloat64 `db:"sent_ana"`
	TextLength           sql.NullFloat64 `db:"length_prof"`
	Travel               sql.NullString  `db:"voyage"`
	Laughter             sql.NullString  `db:"laugh"`
	RisquePhoto          sql.NullString  `db:"photo_keke"`
	BeachPhoto           sql.NullString  `db:"photo_beach"`
	DaysToLastConnection sql.NullInt64   `db:"n_days_to_last_connex"`
}

const createProfiles = `CREATE TABLE profiles (
	userid TEXT PRIMARY KEY,
	date_crea TEXT NOT NULL,
	score REAL,
	n_matches INTEGER,
	n_updates_photo INTEGER,
	n_photos INTEGER,
	last_connex TEXT,
	last_up_photo TEXT,
	last_pr_update TEXT,
	gender TEXT,
	sent_ana REAL,
	length_prof REAL,
	voyage TEXT,
	laugh TEXT,
	photo_keke TEXT,
	photo_beach TEXT,
	n_days_to_last_connex INTEGER
)`

const insertProfile = `INSERT INTO profiles (
	userid, date_crea, score, n_matches, n_updates_photo, n_photos,
	last_connex, last_up_photo, last_pr_update, gender, sent_ana, length_prof,
	voyage, laugh, photo_keke, photo_beach, n_days_to_last_connex
) VALUES (
	:userid, :date_crea, :score, :n_matches, :n_updates_photo, :n_photos,
	:last_connex, :last_up_photo, :last_pr_update, :gender, :sent_ana, :length_prof,
	:voyage, :laugh, :photo_keke, :photo_beach, :n_days_to_last_connex
)`

// Store reads and writes the profiles table.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
}

// New wraps a connected database.
func New(db *sqlx.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log.Named("store")}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// ReplaceProfiles drops and recreates the profiles table with the rows of
// ds in a single transaction.
func (s *Store) ReplaceProfiles(ctx context.Context, ds *dataset.Dataset) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		// no-op after commit
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS profiles`); err != nil {
		return fmt.Errorf("drop profiles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createProfiles); err != nil {
		return fmt.Errorf("create profiles: %w", err)
	}
	stmt, err := tx.PrepareNamedContext(ctx, insertProfile)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i := range ds.Profiles {
		row := ToRow(&ds.Profiles[i])
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("insert %s: %w", row.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Info("profiles stored", zap.Int("rows", ds.Len()))
	return nil
}

// Count returns the number of stored profiles.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM profiles`); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

// Profiles returns every stored row in insertion order.
func (s *Store) Profiles(ctx context.Context) ([]Row, error) {
	var rows []Row
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM profiles ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("select profiles: %w", err)
	}
	return rows, nil
}

// ToRow converts a profile to its stored form.
func ToRow(p *dataset.Profile) Row {
	return Row{
		ID:                   p.ID,
		CreatedAt:            dataset.FormatTime(p.CreatedAt),
		Score:                sql.NullFloat64{Float64: p.Score.V, Valid: p.Score.Valid},
		Matches:              sql.NullInt64{Int64: p.Matches.V, Valid: p.Matches.Valid},
		PhotoUpdates:         sql.NullInt64{Int64: p.PhotoUpdates.V, Valid: p.PhotoUpdates.Valid},
		Photos:               sql.NullInt64{Int64: p.Photos.V, Valid: p.Photos.Valid},
		LastConnection:       nullTime(p.LastConnection),
		LastPhotoUpdate:      nullTime(p.LastPhotoUpdate),
		LastProfileUpdate:    nullTime(p.LastProfileUpdate),
		Gender:               nullCategory(p.Gender),
		Sentiment:            sql.NullFloat64{Float64: p.Sentiment.V, Valid: p.Sentiment.Valid},
		TextLength:           sql.NullFloat64{Float64: p.TextLength.V, Valid: p.TextLength.Valid},
		Travel:               nullCategory(p.Travel),
		Laughter:             nullCategory(p.Laughter),
		RisquePhoto:          nullCategory(p.RisquePhoto),
		BeachPhoto:           nullCategory(p.BeachPhoto),
		DaysToLastConnection: sql.NullInt64{Int64: p.DaysToLastConnection.V, Valid: p.DaysToLastConnection.Valid},
	}
}

func nullTime(t sql.Null[time.Time]) sql.NullString {
	if !t.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: dataset.FormatTime(t.V), Valid: true}
}

func nullCategory(c dataset.Category) sql.NullString {
	return sql.NullString{String: c.String(), Valid: c.Valid}
}
