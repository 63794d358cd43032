// Package db keeps the loaded schools in an embedded SQL store so they can
// be listed, counted and queried ad hoc. DuckDB is the default engine;
// SQLite serves builds without cgo and the tests.
package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/zw-schools/schoolmap/internal/schools"
)

// Supported drivers.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

// SchoolsTable holds one row per loaded school.
const SchoolsTable = "schools"

// ErrReadOnly is returned by Query for statements that could modify data.
var ErrReadOnly = eris.New("db: only read-only statements are allowed")

// Config holds database configuration. An empty Path opens an in-memory
// database.
type Config struct {
	Driver string
	Path   string
}

// Store wraps the database connection.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured database.
func Open(cfg Config) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverDuckDB
	}

	dsn := cfg.Path
	switch driver {
	case DriverDuckDB:
	case DriverSQLite:
		if dsn == "" {
			dsn = ":memory:"
		}
	default:
		return nil, eris.Errorf("db: unknown driver %q", driver)
	}

	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, eris.Wrap(err, "db: create database directory")
		}
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, eris.Wrapf(err, "db: open %s", driver)
	}
	if driver == DriverSQLite {
		// Every pooled connection to :memory: would see its own database.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, eris.Wrapf(err, "db: connect %s", driver)
	}
	return &Store{db: conn, driver: driver}, nil
}

// Driver returns the engine name.
func (s *Store) Driver() string { return s.driver }

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadSchools replaces the schools table with list.
func (s *Store) LoadSchools(ctx context.Context, list []schools.School) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "db: begin load")
	}
	defer tx.Rollback()

	stmts := []string{
		"DROP TABLE IF EXISTS " + SchoolsTable,
		`CREATE TABLE ` + SchoolsTable + ` (
			number VARCHAR,
			name VARCHAR,
			province VARCHAR,
			district VARCHAR,
			level VARCHAR,
			grant_class VARCHAR,
			lon DOUBLE,
			lat DOUBLE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return eris.Wrap(err, "db: create schools table")
		}
	}

	ins, err := tx.PrepareContext(ctx, "INSERT INTO "+SchoolsTable+
		" (number, name, province, district, level, grant_class, lon, lat) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return eris.Wrap(err, "db: prepare insert")
	}
	defer ins.Close()

	for _, sc := range list {
		if _, err := ins.ExecContext(ctx,
			sc.Number, sc.Name, sc.Province, sc.District, sc.Level, sc.GrantClass,
			sc.Location.Lon(), sc.Location.Lat(),
		); err != nil {
			return eris.Wrapf(err, "db: insert school %q", sc.Number)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "db: commit load")
	}
	return nil
}

// Tables lists the tables in the database, sorted by name.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	q := "SELECT table_name FROM information_schema.tables ORDER BY table_name"
	if s.driver == DriverSQLite {
		q = "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "db: list tables")
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "db: scan table name")
		}
		tables = append(tables, name)
	}
	return tables, eris.Wrap(rows.Err(), "db: list tables")
}

// countColumns maps school property keys to schools table columns.
var countColumns = map[string]string{
	schools.PropProvince:   "province",
	schools.PropDistrict:   "district",
	schools.PropLevel:      "level",
	schools.PropGrantClass: "grant_class",
}

// CountField is a label and the number of schools carrying it.
type CountField struct {
	Label string `json:"label" doc:"Category label" example:"Harare"`
	Count int    `json:"count" doc:"Number of schools" example:"412"`
}

// CountBy counts schools per non-empty value of field, largest first and
// then by label.
func (s *Store) CountBy(ctx context.Context, field string) ([]CountField, error) {
	col, ok := countColumns[field]
	if !ok {
		return nil, eris.Errorf("db: cannot count by %q", field)
	}
	q := "SELECT " + col + ", COUNT(*) AS n FROM " + SchoolsTable +
		" WHERE TRIM(" + col + ") <> '' GROUP BY " + col + " ORDER BY n DESC, " + col
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, eris.Wrapf(err, "db: count by %s", col)
	}
	defer rows.Close()

	out := []CountField{}
	for rows.Next() {
		var c CountField
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, eris.Wrap(err, "db: scan count")
		}
		out = append(out, c)
	}
	return out, eris.Wrapf(rows.Err(), "db: count by %s", col)
}

// ReadOnly reports whether q starts with a statement keyword that cannot
// modify data. EXPLAIN ANALYZE executes the statement it wraps and is
// rejected.
func ReadOnly(q string) bool {
	fields := strings.Fields(strings.ToUpper(q))
	if len(fields) == 0 {
		return false
	}
	switch strings.TrimLeft(fields[0], "(") {
	case "SELECT", "WITH", "SHOW", "DESCRIBE", "SUMMARIZE":
	case "EXPLAIN":
		for _, f := range fields[1:] {
			if strings.Contains(f, "ANALYZE") {
				return false
			}
		}
	default:
		return false
	}
	// A trailing second statement could still write.
	return !strings.Contains(strings.TrimRight(strings.TrimSpace(q), ";"), ";")
}

// Result is the output of an ad hoc query.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// Query runs a read-only statement and returns its rows. The statement
// runs in a transaction that is always rolled back.
func (s *Store) Query(ctx context.Context, q string) (*Result, error) {
	if !ReadOnly(q) {
		return nil, ErrReadOnly
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "db: begin query")
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "db: query")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "db: query columns")
	}

	res := &Result{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrap(err, "db: scan row")
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res, eris.Wrap(rows.Err(), "db: query")
}
