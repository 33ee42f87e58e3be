package ledger

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/mwiater/crossbench/internal/util"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLite stores rows in a table named after the schema, keyed by benchmark name.
// The database file and table are created on the first Append.
type SQLite struct {
	path   string
	db     *sql.DB
	table  string
	schema Schema
	ready  bool
}

// OpenSQLite prepares the ledger at path. An existing database is opened and
// its table, if present, must carry the schema's columns.
func OpenSQLite(path string, schema Schema) (*SQLite, error) {
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("ledger schema %q has no columns", schema.Name)
	}
	for _, col := range append([]string{schema.Name}, schema.Columns...) {
		if !identifier.MatchString(col) {
			return nil, fmt.Errorf("invalid ledger identifier %q", col)
		}
	}
	s := &SQLite{path: path, table: "results_" + schema.Name, schema: schema}
	if !util.FileExists(path) {
		return s, nil
	}
	if err := s.connect(); err != nil {
		return nil, err
	}
	exists, err := s.tableExists()
	if err == nil && exists {
		err = s.checkColumns()
		s.ready = err == nil
	}
	if err != nil {
		s.db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) connect() error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	s.db = db
	return nil
}

func (s *SQLite) tableExists() (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", s.table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspect ledger table: %w", err)
	}
	return n > 0, nil
}

// migrate creates the database and table on first write.
func (s *SQLite) migrate() error {
	if s.ready {
		return nil
	}
	if s.db == nil {
		if err := s.connect(); err != nil {
			return err
		}
	}
	defs := []string{fmt.Sprintf("%q TEXT PRIMARY KEY", s.schema.Columns[0])}
	for _, col := range s.schema.Columns[1:] {
		defs = append(defs, fmt.Sprintf("%q TEXT NOT NULL", col))
	}
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", s.table, strings.Join(defs, ", "))
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := s.checkColumns(); err != nil {
		return err
	}
	s.ready = true
	return nil
}

func (s *SQLite) checkColumns() error {
	rows, err := s.db.Query(fmt.Sprintf("SELECT * FROM %q LIMIT 0", s.table))
	if err != nil {
		return fmt.Errorf("inspect ledger table: %w", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("inspect ledger table: %w", err)
	}
	if !s.schema.matches(cols) {
		return fmt.Errorf("%w: table %s has columns %s, want %s", ErrSchemaMismatch, s.table,
			strings.Join(cols, ","), strings.Join(s.schema.Columns, ","))
	}
	return nil
}

// Evaluated reports whether name has a row. No table yet means nothing has been evaluated.
func (s *SQLite) Evaluated(name string) (bool, error) {
	if !s.ready {
		return false, nil
	}
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %q WHERE %q = ?", s.table, s.schema.Columns[0])
	if err := s.db.QueryRow(query, name).Scan(&n); err != nil {
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) Append(r Row) error {
	if err := s.schema.check(r); err != nil {
		return err
	}
	if err := s.migrate(); err != nil {
		return err
	}
	quoted := make([]string, len(s.schema.Columns))
	marks := make([]string, len(s.schema.Columns))
	args := make([]any, 0, len(s.schema.Columns))
	for i, col := range s.schema.Columns {
		quoted[i] = fmt.Sprintf("%q", col)
		marks[i] = "?"
	}
	for _, v := range r.Record() {
		args = append(args, v)
	}
	query := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)", s.table, strings.Join(quoted, ", "), strings.Join(marks, ", "))
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("insert ledger row %s: %w", r.Name, err)
	}
	return nil
}

// Rows returns rows in insertion order.
func (s *SQLite) Rows() ([]Row, error) {
	if !s.ready {
		return nil, nil
	}
	rows, err := s.db.Query(fmt.Sprintf("SELECT * FROM %q ORDER BY rowid", s.table))
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		vals := make([]string, len(s.schema.Columns))
		ptrs := make([]any, len(vals))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		out = append(out, Row{Name: vals[0], Values: vals[1:]})
	}
	return out, rows.Err()
}

func (s *SQLite) Header() []string { return s.schema.Columns }

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
