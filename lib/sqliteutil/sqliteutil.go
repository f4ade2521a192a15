package sqliteutil

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	devenv "doubansync-backend/dev/env"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func isRemote(path string) bool {
	return strings.HasPrefix(path, "libsql://") ||
		strings.HasPrefix(path, "wss://") ||
		strings.HasPrefix(path, "https://")
}

func applySchema(db *sql.DB, schema string) error {
	_, err := db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	return nil
}

// opens the sqlite database at the given path (or remote libsql url)
// and ensures the schema exists. see this stackoverflow post for
// information on why the WAL/single-connection setup exists:
// https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
func OpenDB(schema, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("a database path was not specified")
	}

	if isRemote(path) {
		db, err := sql.Open("libsql", path)
		if err != nil {
			return nil, err
		}
		err = applySchema(db, schema)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	dbpath, err := devenv.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	if dbpath != ":memory:" {
		_, statErr := os.Stat(dbpath)
		if os.IsNotExist(statErr) {
			f, err := os.Create(dbpath)
			if err != nil {
				return nil, err
			}
			f.Close()
		}
	}

	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	err = applySchema(db, schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}
