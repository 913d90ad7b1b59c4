// Package registry persists run results to a CSV or SQLite backend and
// answers simple queries over them. Registry output is a display surface,
// not a content-addressed artefact.
package registry

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"vacuum-landscape/internal/errors"
)

// Kind names a registry backend.
type Kind string

const (
	// KindCSV appends rows to a CSV file.
	KindCSV Kind = "csv"
	// KindSQLite appends rows to a SQLite database.
	KindSQLite Kind = "sqlite"
)

// Registry is a handle to one backend, selected by path extension.
type Registry struct {
	kind Kind
	path string
}

// Open selects the backend from the path extension: .sqlite and .db use
// SQLite, everything else CSV.
func Open(path string) *Registry {
	switch filepath.Ext(path) {
	case ".sqlite", ".db":
		return &Registry{kind: KindSQLite, path: path}
	default:
		return &Registry{kind: KindCSV, path: path}
	}
}

// Kind reports the selected backend.
func (r *Registry) Kind() Kind {
	return r.kind
}

// Path returns the backing file path.
func (r *Registry) Path() string {
	return r.path
}

// Query filters registry rows.
type Query struct {
	// PlanName restricts rows to one plan when non-empty.
	PlanName string `json:"plan_name,omitempty"`
	// Limit caps the number of returned rows when positive.
	Limit int `json:"limit,omitempty"`
}

// Table is the structured result of a registry query.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func tableColumns() []string {
	return []string{"date", "commit", "plan_name", "plan_hash", "job_id", "params", "metrics"}
}

func emptyTable() *Table {
	return &Table{Columns: tableColumns(), Rows: [][]string{}}
}

// Append writes one row per job of the record to the backend, creating the
// backing file on first use.
func (r *Registry) Append(record *RunRecord) error {
	rows, err := record.rows()
	if err != nil {
		return err
	}
	if r.kind == KindSQLite {
		return appendSQLite(r.path, rows)
	}
	return appendCSV(r.path, rows)
}

// QueryTable returns matching rows in insertion order.
func (r *Registry) QueryTable(query Query) (*Table, error) {
	if r.kind == KindSQLite {
		return querySQLite(r.path, query)
	}
	return queryCSV(r.path, query)
}

func ensureParent(path string) error {
	parent := filepath.Dir(path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return errors.Wrap(errors.FamilySerde, "registry-create",
			"create registry directory", err).WithContext("path", parent)
	}
	return nil
}

func appendCSV(path string, rows [][]string) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(errors.FamilySerde, "registry-open",
			"open CSV registry", err).WithContext("path", path)
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	if fresh {
		if err := writer.Write(tableColumns()); err != nil {
			return errors.Wrap(errors.FamilySerde, "registry-write-header",
				"write CSV registry header", err)
		}
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return errors.Wrap(errors.FamilySerde, "registry-write-row",
				"write CSV registry row", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(errors.FamilySerde, "registry-flush",
			"flush CSV registry", err)
	}
	return nil
}

func queryCSV(path string, query Query) (*Table, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return emptyTable(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "registry-read",
			"open CSV registry", err).WithContext("path", path)
	}
	defer file.Close()
	reader := csv.NewReader(file)
	if _, err := reader.Read(); err == io.EOF {
		return emptyTable(), nil
	} else if err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "registry-record",
			"read CSV registry header", err)
	}
	table := emptyTable()
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.FamilySerde, "registry-record",
				"read CSV registry row", err)
		}
		if query.PlanName != "" && record[2] != query.PlanName {
			continue
		}
		table.Rows = append(table.Rows, record)
		if query.Limit > 0 && len(table.Rows) >= query.Limit {
			break
		}
	}
	return table, nil
}
