package registry

import (
	"database/sql"
	"os"

	_ "modernc.org/sqlite"

	"vacuum-landscape/internal/errors"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS runs (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL,
	"commit" TEXT NOT NULL,
	plan_name TEXT NOT NULL,
	plan_hash TEXT NOT NULL,
	job_id INTEGER NOT NULL,
	params TEXT NOT NULL,
	metrics TEXT NOT NULL
);`

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "registry-sqlite-open",
			"open sqlite registry", err).WithContext("path", path)
	}
	return db, nil
}

func appendSQLite(path string, rows [][]string) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := db.Exec(schemaSQL); err != nil {
		return errors.Wrap(errors.FamilySerde, "registry-sqlite-schema",
			"ensure registry schema", err)
	}
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(errors.FamilySerde, "registry-sqlite-transaction",
			"start registry transaction", err)
	}
	for _, row := range rows {
		_, err := tx.Exec(`INSERT INTO runs (date, "commit", plan_name, plan_hash, job_id, params, metrics)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			row[0], row[1], row[2], row[3], row[4], row[5], row[6])
		if err != nil {
			tx.Rollback()
			return errors.Wrap(errors.FamilySerde, "registry-sqlite-insert",
				"append registry row", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.FamilySerde, "registry-sqlite-commit",
			"commit registry rows", err)
	}
	return nil
}

func querySQLite(path string, query Query) (*Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return emptyTable(), nil
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	stmt := `SELECT date, "commit", plan_name, plan_hash, job_id, params, metrics FROM runs`
	args := []interface{}{}
	if query.PlanName != "" {
		stmt += " WHERE plan_name = ?"
		args = append(args, query.PlanName)
	}
	stmt += " ORDER BY seq"
	if query.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, query.Limit)
	}
	rows, err := db.Query(stmt, args...)
	if err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "registry-sqlite-query",
			"execute registry query", err)
	}
	defer rows.Close()

	table := emptyTable()
	for rows.Next() {
		record := make([]string, 7)
		dests := make([]interface{}, 7)
		for idx := range record {
			dests[idx] = &record[idx]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, errors.Wrap(errors.FamilySerde, "registry-sqlite-row",
				"scan registry row", err)
		}
		table.Rows = append(table.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "registry-sqlite-row",
			"iterate registry rows", err)
	}
	return table, nil
}
