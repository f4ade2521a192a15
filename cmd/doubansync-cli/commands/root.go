package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"doubansync-backend/lib/configutil"
	"doubansync-backend/lib/serviceutil"
	"doubansync-backend/lib/sqliteutil"
	"doubansync-backend/services/keychain"
	keychaindb "doubansync-backend/services/keychain/db"
	"doubansync-backend/services/syncer"
	syncerdb "doubansync-backend/services/syncer/db"
)

var rootCmd = &cobra.Command{
	Use:   "doubansync-cli",
	Short: "doubansync-cli manages douban credentials, sync runs and record exports.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	KeychainDatabase string `json:"keychain_database"`
	SyncerDatabase   string `json:"syncer_database"`
	ExportDir        string `json:"export_dir"`
}

// openServices brings up the credential store and the syncer on the
// configured databases. config.json5 is optional, missing values fall
// back to files in the working directory.
func openServices() (keychain.Service, syncer.Service, func()) {
	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("read config", err)
	}
	if config.KeychainDatabase == "" {
		config.KeychainDatabase = "keychain.db"
	}
	if config.SyncerDatabase == "" {
		config.SyncerDatabase = "records.db"
	}

	keychainDB, err := sqliteutil.OpenDB(keychaindb.Schema, config.KeychainDatabase)
	if err != nil {
		serviceutil.Fatal("open keychain database", err)
	}
	syncerDB, err := sqliteutil.OpenDB(syncerdb.Schema, config.SyncerDatabase)
	if err != nil {
		serviceutil.Fatal("open syncer database", err)
	}

	credentials := keychain.NewService(keychainDB)
	service := syncer.NewService(syncerDB, credentials, syncer.Options{ExportDir: config.ExportDir})

	return credentials, service, func() {
		keychainDB.Close()
		syncerDB.Close()
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
