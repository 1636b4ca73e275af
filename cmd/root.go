// Package cmd holds the rollcall command line.
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dance-rollcall/cache"
	"dance-rollcall/config"
	"dance-rollcall/db"
	"dance-rollcall/sheets"
)

// NewRootCommand builds the rollcall command tree
func NewRootCommand() *cobra.Command {
	v := config.New()
	var envFile string

	root := &cobra.Command{
		Use:           "rollcall",
		Short:         "Attendance tracking for dance school class groups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional file with ROLLCALL_* variables")
	root.PersistentFlags().String("backend", "", "spreadsheet backend: excel or google")
	root.PersistentFlags().String("workbook", "", "path of the local workbook (excel backend)")
	_ = v.BindPFlag("backend", root.PersistentFlags().Lookup("backend"))
	_ = v.BindPFlag("workbook_path", root.PersistentFlags().Lookup("workbook"))

	root.AddCommand(newServeCommand(v), newSeedCommand(), newReportCommand(v))
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openStore connects to the configured spreadsheet backend.
// The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (sheets.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendGoogle:
		s, err := sheets.NewGoogleStore(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using Google spreadsheet %s", cfg.GoogleSpreadsheetID)
		return s, func() {}, nil
	default:
		s, err := sheets.OpenExcelStore(cfg.WorkbookPath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using workbook %s", cfg.WorkbookPath)
		return s, func() {
			if err := s.Close(); err != nil {
				log.Printf("Error closing workbook: %v", err)
			}
		}, nil
	}
}

// openService wires the store and cache the way cfg asks for
func openService(ctx context.Context, v *viper.Viper) (*db.SheetService, *config.Config, func(), error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, nil, err
	}
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	var c cache.Cache = cache.NewMemory(cfg.CacheTTL)
	closeCache := func() {}
	if cfg.RedisAddr != "" {
		rdb, err := cache.InitializeRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// the spreadsheet stays authoritative, so run without the shared cache
			log.Printf("Warning: %v. Falling back to in-memory cache.", err)
		} else {
			c = cache.NewRedis(rdb, cfg.CacheTTL)
			closeCache = func() { _ = rdb.Close() }
		}
	}
	if cfg.CacheTTL == 0 {
		c = cache.Nop{}
	}

	svc := db.NewSheetService(store, c)
	return svc, cfg, func() {
		closeCache()
		closeStore()
	}, nil
}
