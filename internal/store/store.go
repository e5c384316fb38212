// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists pipeline runs and the articles they retained, so
// later runs can skip PMIDs already seen and past results can be listed.
// SQLite (mattn/go-sqlite3) and MySQL (go-sql-driver/mysql) are supported.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/company-papers/pkg/types"
)

// ErrUnsupportedDriver is returned by Open for a driver other than sqlite3
// or mysql.
var ErrUnsupportedDriver = errors.New("unsupported store driver")

const (
	runsTable     = "runs"
	articlesTable = "articles"

	// seenChunk bounds the number of placeholders in one IN clause.
	seenChunk = 500

	defaultListLimit = 50

	// Fixed width so that stored timestamps sort as strings.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var articleColumns = []string{
	"pubmed_id", "title", "publication_date", "company_authors",
	"company_names", "corresponding_email", "run_id", "updated_at",
}

// Store is a run/article database.
type Store struct {
	db     *sql.DB
	driver types.StoreDriver
}

// Open connects to the database named by cfg and creates the schema if it
// does not exist. For sqlite3 the DSN is a file path whose directory is
// created on demand.
func Open(cfg types.StoreConfig) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case types.StoreSQLite:
		db, err = openSQLite(cfg.DSN)
	case types.StoreMySQL:
		db, err = openMySQL(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, driver: cfg.Driver}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite3 store needs a database path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func openMySQL(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mysql store needs a DSN")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to MySQL: %w", err)
	}
	return db, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id VARCHAR(36) PRIMARY KEY,
			search_query TEXT NOT NULL,
			started_at VARCHAR(40) NOT NULL,
			searched INTEGER NOT NULL,
			fetched INTEGER NOT NULL,
			retained INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			pubmed_id VARCHAR(32) PRIMARY KEY,
			title TEXT NOT NULL,
			publication_date VARCHAR(10) NOT NULL,
			company_authors TEXT NOT NULL,
			company_names TEXT NOT NULL,
			corresponding_email TEXT NOT NULL,
			run_id VARCHAR(36) NOT NULL,
			updated_at VARCHAR(40) NOT NULL
		)`,
	}
	if s.driver == types.StoreSQLite {
		statements = append(statements,
			`CREATE INDEX IF NOT EXISTS idx_articles_updated ON articles(updated_at)`,
			`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
		)
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores run and upserts its retained articles in one
// transaction. An article already stored keeps its PMID and takes the new
// run's values.
func (s *Store) RecordRun(ctx context.Context, run types.Run, articles []types.Article) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := sq.Insert(runsTable).
		Columns("id", "search_query", "started_at", "searched", "fetched", "retained").
		Values(run.ID, run.Query, run.StartedAt.UTC().Format(timeLayout), run.Searched, run.Fetched, run.Retained).
		ToSql()
	if err != nil {
		return fmt.Errorf("building run insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	now := time.Now().UTC().Format(timeLayout)
	for i := range articles {
		query, args, err := s.upsertArticle(&articles[i], run.ID, now)
		if err != nil {
			return fmt.Errorf("building article upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("storing article %s: %w", articles[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) upsertArticle(a *types.Article, runID, now string) (string, []any, error) {
	authors, err := json.Marshal(nonNil(a.CompanyAuthors))
	if err != nil {
		return "", nil, err
	}
	names, err := json.Marshal(nonNil(a.CompanyNames))
	if err != nil {
		return "", nil, err
	}

	updated := articleColumns[1:]
	sets := make([]string, len(updated))
	for i, col := range updated {
		if s.driver == types.StoreMySQL {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", col, col)
		} else {
			sets[i] = fmt.Sprintf("%s = excluded.%s", col, col)
		}
	}
	suffix := "ON CONFLICT(pubmed_id) DO UPDATE SET " + strings.Join(sets, ", ")
	if s.driver == types.StoreMySQL {
		suffix = "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}

	return sq.Insert(articlesTable).
		Columns(articleColumns...).
		Values(a.ID, a.Title, a.DateString(), string(authors), string(names), a.CorrespondingEmail, runID, now).
		Suffix(suffix).
		ToSql()
}

// Seen reports which of ids are already stored.
func (s *Store) Seen(ctx context.Context, ids []string) (map[string]bool, error) {
	seen := make(map[string]bool)
	for start := 0; start < len(ids); start += seenChunk {
		chunk := ids[start:min(start+seenChunk, len(ids))]
		query, args, err := sq.Select("pubmed_id").
			From(articlesTable).
			Where(sq.Eq{"pubmed_id": chunk}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("building seen query: %w", err)
		}

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("querying seen articles: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning seen article: %w", err)
			}
			seen[id] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterating seen articles: %w", err)
		}
	}
	return seen, nil
}

// Articles returns up to limit stored articles, most recently updated
// first. limit <= 0 uses 50. Author lists are not stored, so Authors is nil.
func (s *Store) Articles(ctx context.Context, limit int) ([]types.Article, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query, args, err := sq.Select(articleColumns[:6]...).
		From(articlesTable).
		OrderBy("updated_at DESC", "pubmed_id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building articles query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []types.Article
	for rows.Next() {
		var (
			a              types.Article
			date           string
			authors, names string
		)
		if err := rows.Scan(&a.ID, &a.Title, &date, &authors, &names, &a.CorrespondingEmail); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		if date != "" {
			if a.PublicationDate, err = time.Parse("2006-01-02", date); err != nil {
				return nil, fmt.Errorf("article %s: parsing date: %w", a.ID, err)
			}
		}
		if err := json.Unmarshal([]byte(authors), &a.CompanyAuthors); err != nil {
			return nil, fmt.Errorf("article %s: decoding authors: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(names), &a.CompanyNames); err != nil {
			return nil, fmt.Errorf("article %s: decoding company names: %w", a.ID, err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Runs returns up to limit runs, newest first. limit <= 0 uses 50.
func (s *Store) Runs(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query, args, err := sq.Select("id", "search_query", "started_at", "searched", "fetched", "retained").
		From(runsTable).
		OrderBy("started_at DESC", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building runs query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		var (
			r       types.Run
			started string
		)
		if err := rows.Scan(&r.ID, &r.Query, &started, &r.Searched, &r.Fetched, &r.Retained); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("run %s: parsing start time: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
