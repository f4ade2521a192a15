package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	devenv "doubansync-backend/dev/env"
	keychaindb "doubansync-backend/services/keychain/db"
	syncerdb "doubansync-backend/services/syncer/db"
)

func createDb(filename, schema string) error {
	dbPath, err := devenv.ResolvePath(filepath.Join("<dev_state>", filename))
	if err != nil {
		return err
	}

	_, err = os.Stat(dbPath)
	if err == nil {
		fmt.Println("database already created at", dbPath)
		return nil
	}

	fmt.Println("creating database at", dbPath)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec(schema)
	return err
}

func CreateEmptyServiceDBs() error {
	err := createDb("keychain_service.db", keychaindb.Schema)
	if err != nil {
		return err
	}
	return createDb("syncer_service.db", syncerdb.Schema)
}

func PrintConfigLocations() {
	slog.Info("live douban tests read dev/.state/douban_config.json5 and skip when it is missing, write {\"cookie\": \"...\", \"user_id\": \"...\"} there to run them against the real site.")
}
