package output

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	_ "modernc.org/sqlite" // registers the pure Go "sqlite" driver

	"github.com/CaptShanks/verseprism/internal/parser"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE verses (
	position INTEGER PRIMARY KEY,
	idx      TEXT    NOT NULL,
	chapter  INTEGER,
	verse    INTEGER,
	text     TEXT    NOT NULL
);
CREATE INDEX verses_idx ON verses(idx);
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT
);`

// writeSQLite creates a fresh database at path holding verses in source order.
func writeSQLite(path string, verses []parser.Verse, meta Meta) error {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO verses (position, idx, chapter, verse, text) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, v := range verses {
		if _, err := stmt.Exec(i+1, v.Index, nullableInt(v.Chapter()), nullableInt(v.Number()), v.Text); err != nil {
			return fmt.Errorf("insert verse %s: %w", v.Index, err)
		}
	}

	for key, value := range map[string]string{
		"origin": meta.Origin,
		"blake3": meta.Hash,
		"prefix": meta.Prefix,
		"count":  strconv.Itoa(len(verses)),
	} {
		if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("insert meta %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// ReadSQLite loads verses from a database written by Write, in source order.
func ReadSQLite(path string) ([]parser.Verse, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT idx, text FROM verses ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var verses []parser.Verse
	for rows.Next() {
		var v parser.Verse
		if err := rows.Scan(&v.Index, &v.Text); err != nil {
			return nil, err
		}
		verses = append(verses, v)
	}
	return verses, rows.Err()
}

// nullableInt stores a non-numeric index part as NULL; zero is a number.
func nullableInt(n int, ok bool) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: ok}
}
