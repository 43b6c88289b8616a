// Package materialize executes a generated schema against a SQLite
// database file. Every statement commits on its own, so one broken
// statement never rolls back DDL that already landed; callers get an
// ordered per-statement outcome list instead of a single error.
package materialize

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/skjelbred/schemakit/internal/dialect"
	"github.com/skjelbred/schemakit/internal/generate"
	"github.com/skjelbred/schemakit/internal/schema"
)

// Outcome records the result of one executed statement.
type Outcome struct {
	Index int    `json:"index"`
	SQL   string `json:"sql"`
	Err   string `json:"error,omitempty"`
}

// OK reports whether the statement applied.
func (o Outcome) OK() bool {
	return o.Err == ""
}

// Report summarizes one materialization run.
type Report struct {
	Outcomes      []Outcome `json:"outcomes"`
	Applied       int       `json:"applied"`
	Failed        int       `json:"failed"`
	TablesCreated int       `json:"tables_created"`
	RowsInserted  int       `json:"rows_inserted"`
}

// Materialize creates a SQLite database file from the schema: DDL
// first, then seed rows. Generation failures return an error before
// anything touches the file; execution failures are collected in the
// report and never abort the batch. Committed statements stay
// committed even when later statements fail.
func Materialize(ctx context.Context, s *schema.Schema, path string) (*Report, error) {
	stmts, err := generate.Generate(s, "sqlite")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	d, err := dialect.Get("sqlite")
	if err != nil {
		return nil, err
	}

	m := &materializer{ctx: ctx, db: db, dialect: d, report: &Report{}}

	for _, st := range stmts {
		if st.Kind == generate.KindInsert {
			continue
		}
		ok := m.exec(st.SQL)
		if ok && st.Kind == generate.KindCreateTable {
			m.report.TablesCreated++
		}
	}

	m.insertSeedData(s)

	return m.report, nil
}

type materializer struct {
	ctx     context.Context
	db      *sql.DB
	dialect dialect.Dialect
	report  *Report
}

func (m *materializer) record(sqlText string, err error) bool {
	o := Outcome{Index: len(m.report.Outcomes), SQL: sqlText}
	if err != nil {
		o.Err = err.Error()
		m.report.Failed++
	} else {
		m.report.Applied++
	}
	m.report.Outcomes = append(m.report.Outcomes, o)
	return err == nil
}

func (m *materializer) exec(sqlText string, args ...any) bool {
	_, err := m.db.ExecContext(m.ctx, sqlText, args...)
	return m.record(sqlText, err)
}

// insertSeedData inserts seed rows table by table. Each table is
// checked against the live catalog first: a CREATE TABLE that failed
// earlier must surface as a reported miss here, not as one opaque
// INSERT error per row.
func (m *materializer) insertSeedData(s *schema.Schema) {
	tables := make([]string, 0, len(s.SeedData))
	for name := range s.SeedData {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	for _, name := range tables {
		rows := s.SeedData[name]
		t := s.Table(name)
		if t == nil {
			m.record("", fmt.Errorf("seed data references unknown table %q (%d rows skipped)", name, len(rows)))
			continue
		}
		exists, err := m.tableExists(name)
		if err == nil && !exists {
			err = fmt.Errorf("table %q does not exist in the database (%d rows skipped)", name, len(rows))
		}
		if err != nil {
			m.record("", err)
			continue
		}
		m.insertRows(t, rows)
	}
}

func (m *materializer) tableExists(name string) (bool, error) {
	var found string
	err := m.db.QueryRowContext(m.ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// insertRows inserts one row per statement with synthesized primary
// keys where the schema asks for auto-increment and the row omits the
// key. Synthesized ids continue after the largest id seen so far and
// never collide with explicit ids later in the batch.
func (m *materializer) insertRows(t *schema.Table, rows []schema.SeedRow) {
	auto := t.AutoIncrementColumn()

	explicit := map[int64]bool{}
	if auto != nil {
		for _, row := range rows {
			if v, ok := row[auto.Name]; ok {
				if id, ok := asInt64(v); ok {
					explicit[id] = true
				}
			}
		}
	}

	var maxSeen int64
	for _, row := range rows {
		if auto != nil {
			if v, ok := row[auto.Name]; ok {
				if id, ok := asInt64(v); ok && id > maxSeen {
					maxSeen = id
				}
			} else {
				id := maxSeen + 1
				for explicit[id] {
					id++
				}
				copied := make(schema.SeedRow, len(row)+1)
				for k, v := range row {
					copied[k] = v
				}
				copied[auto.Name] = id
				row = copied
				maxSeen = id
			}
		}

		cols, args := orderedArgs(t, row)
		query := m.dialect.InsertIgnoreQuery(t.Name, cols)
		if m.exec(query, args...) {
			m.report.RowsInserted++
		}
	}
}

// orderedArgs returns the row's columns and values, declared columns
// first in table order, then unknown keys alphabetically. Unknown keys
// are kept so the INSERT fails loudly instead of dropping data.
func orderedArgs(t *schema.Table, row schema.SeedRow) (cols []string, args []any) {
	for _, c := range t.Columns {
		if v, ok := row[c.Name]; ok {
			cols = append(cols, c.Name)
			args = append(args, v)
		}
	}
	var extras []string
	for k := range row {
		if t.Column(k) == nil {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		cols = append(cols, k)
		args = append(args, row[k])
	}
	return cols, args
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
