// Package storage persists verification sessions to SQLite so results can
// be re-exported without rerunning the cascade.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lidianycs/cerca/internal/reference"
	"github.com/lidianycs/cerca/internal/verify"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Session is one completed verification batch.
type Session struct {
	ID        int64
	CreatedAt time.Time
	Source    string // document path or "manual"
	Summary   verify.Summary
	Records   []*reference.Record
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			source TEXT NOT NULL,
			total INTEGER NOT NULL,
			passed INTEGER NOT NULL,
			failed INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS records (
			session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			record_id INTEGER NOT NULL,
			raw_text TEXT NOT NULL,
			pdf_title TEXT NOT NULL,
			pdf_authors TEXT NOT NULL,
			detected_doi TEXT,
			db_title TEXT,
			db_authors TEXT,
			match_score INTEGER NOT NULL,
			status TEXT NOT NULL,
			verified INTEGER NOT NULL,
			PRIMARY KEY (session_id, record_id)
		);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveSession stores a completed batch and returns its session ID.
func (d *DB) SaveSession(source string, summary verify.Summary, recs []*reference.Record) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO sessions (created_at, source, total, passed, failed)
		VALUES (?, ?, ?, ?, ?)
	`, time.Now().UTC().Format(time.RFC3339), source, summary.Total, summary.Passed, summary.Failed)
	if err != nil {
		return 0, fmt.Errorf("inserting session: %w", err)
	}
	sessionID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading session id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO records (
			session_id, record_id, raw_text, pdf_title, pdf_authors,
			detected_doi, db_title, db_authors, match_score, status, verified
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing records insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		_, err = stmt.Exec(sessionID, rec.ID, rec.RawText, rec.PDFTitle, rec.PDFAuthors,
			rec.DetectedDOI, rec.DBTitle, rec.DBAuthors, rec.MatchScore,
			rec.Status.String(), rec.Verified)
		if err != nil {
			return 0, fmt.Errorf("inserting record %d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing session: %w", err)
	}
	return sessionID, nil
}

// LatestSession returns the most recently saved session with its records,
// or sql.ErrNoRows when the database is empty.
func (d *DB) LatestSession() (*Session, error) {
	var s Session
	var createdAt string
	err := d.db.QueryRow(`
		SELECT id, created_at, source, total, passed, failed
		FROM sessions ORDER BY id DESC LIMIT 1
	`).Scan(&s.ID, &createdAt, &s.Source, &s.Summary.Total, &s.Summary.Passed, &s.Summary.Failed)
	if err != nil {
		return nil, err
	}
	if s.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing session timestamp: %w", err)
	}

	rows, err := d.db.Query(`
		SELECT record_id, raw_text, pdf_title, pdf_authors,
			detected_doi, db_title, db_authors, match_score, status, verified
		FROM records WHERE session_id = ? ORDER BY record_id
	`, s.ID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec reference.Record
		var doi, dbTitle, dbAuthors sql.NullString
		var statusName string
		err := rows.Scan(&rec.ID, &rec.RawText, &rec.PDFTitle, &rec.PDFAuthors,
			&doi, &dbTitle, &dbAuthors, &rec.MatchScore, &statusName, &rec.Verified)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.DetectedDOI = doi.String
		rec.DBTitle = dbTitle.String
		rec.DBAuthors = dbAuthors.String
		if rec.Status, err = reference.ParseStatus(statusName); err != nil {
			return nil, err
		}
		s.Records = append(s.Records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return &s, nil
}
