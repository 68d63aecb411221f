package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// Queries provides access to the named SQL statements embedded under
// queries/. Statements use ? placeholders and are rebound per driver, so
// one statement file serves both SQLite and PostgreSQL.
type Queries struct {
	dot  *dotsql.DotSql
	conn *sqlx.DB
}

// LoadQueries parses every embedded .sql file into one named-query set.
func LoadQueries(conn *sqlx.DB) (*Queries, error) {
	var combined string

	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}
		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		combined += string(content) + "\n"
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading query files: %w", err)
	}

	dot, err := dotsql.LoadFromString(combined)
	if err != nil {
		return nil, fmt.Errorf("parsing queries: %w", err)
	}
	return &Queries{dot: dot, conn: conn}, nil
}

// Exec runs a named statement.
func (q *Queries) Exec(name string, args ...any) (sql.Result, error) {
	query, err := q.dot.Raw(name)
	if err != nil {
		return nil, fmt.Errorf("query not found: %s", name)
	}
	return q.conn.Exec(q.conn.Rebind(query), args...)
}

// Get scans a single row into dest.
func (q *Queries) Get(name string, dest any, args ...any) error {
	query, err := q.dot.Raw(name)
	if err != nil {
		return fmt.Errorf("query not found: %s", name)
	}
	return q.conn.Get(dest, q.conn.Rebind(query), args...)
}

// Select scans all rows into the dest slice.
func (q *Queries) Select(name string, dest any, args ...any) error {
	query, err := q.dot.Raw(name)
	if err != nil {
		return fmt.Errorf("query not found: %s", name)
	}
	return q.conn.Select(dest, q.conn.Rebind(query), args...)
}
