package main

import (
	"flag"
	"time"

	"doubansync-backend/lib/configutil"
	"doubansync-backend/lib/scrapers/douban/core"
	"doubansync-backend/lib/serviceutil"
	"doubansync-backend/lib/sqliteutil"
	"doubansync-backend/lib/transform"
	"doubansync-backend/services/keychain"
	keychaindb "doubansync-backend/services/keychain/db"
	"doubansync-backend/services/syncer"
	syncerdb "doubansync-backend/services/syncer/db"
)

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	AlertTo      []string `json:"alert_to"`
}

// PacingConfig overrides the request pacing constants. Zero values
// keep the built-in ones.
type PacingConfig struct {
	NormalBaseDelayMs   int    `json:"normal_base_delay_ms"`
	NormalRandomRangeMs int    `json:"normal_random_range_ms"`
	SlowBaseDelayMs     int    `json:"slow_base_delay_ms"`
	SlowRandomRangeMs   int    `json:"slow_random_range_ms"`
	SlowModeThreshold   uint64 `json:"slow_mode_threshold"`
}

type Config struct {
	KeychainDatabase string `json:"keychain_database"`
	SyncerDatabase   string `json:"syncer_database"`
	IntervalHours    int    `json:"interval_hours"`
	// subset of books, movies, tv, documentary; empty means all
	Kinds     []string     `json:"kinds"`
	ExportDir string       `json:"export_dir"`
	Smtp      SmtpConfig   `json:"smtp"`
	Pacing    PacingConfig `json:"pacing"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	kinds, err := parseKinds(config.Kinds)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	keychainDB, err := sqliteutil.OpenDB(keychaindb.Schema, config.KeychainDatabase)
	if err != nil {
		serviceutil.Fatal("open keychain database", err)
	}
	syncerDB, err := sqliteutil.OpenDB(syncerdb.Schema, config.SyncerDatabase)
	if err != nil {
		serviceutil.Fatal("open syncer database", err)
	}

	interval := time.Duration(config.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = time.Hour * 24
	}

	service := syncer.NewService(syncerDB, keychain.NewService(keychainDB), syncer.Options{
		Pacing: core.PacingConfig{
			NormalBaseDelay:   time.Duration(config.Pacing.NormalBaseDelayMs) * time.Millisecond,
			NormalRandomRange: time.Duration(config.Pacing.NormalRandomRangeMs) * time.Millisecond,
			SlowBaseDelay:     time.Duration(config.Pacing.SlowBaseDelayMs) * time.Millisecond,
			SlowRandomRange:   time.Duration(config.Pacing.SlowRandomRangeMs) * time.Millisecond,
			SlowModeThreshold: config.Pacing.SlowModeThreshold,
		},
		Smtp: syncer.SmtpConfig{
			Server:       config.Smtp.Server,
			Port:         config.Smtp.Port,
			EmailAddress: config.Smtp.EmailAddress,
			Password:     config.Smtp.Password,
			AlertTo:      config.Smtp.AlertTo,
		},
		ExportDir: config.ExportDir,
	})

	service.RunDaemon(ctx, interval, kinds)
}

func parseKinds(names []string) ([]transform.ContentType, error) {
	kinds := make([]transform.ContentType, 0, len(names))
	for _, name := range names {
		kind, err := transform.ParseContentType(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
