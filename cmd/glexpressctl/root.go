package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/BearBump/GLExpress/config"
	"github.com/BearBump/GLExpress/internal/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	dbWait     time.Duration
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "glexpressctl",
		Short:         "Operational commands for GL Express",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", os.Getenv("configPath"), "path to config YAML (defaults to $configPath)")
	cmd.PersistentFlags().DurationVar(&f.dbWait, "db-wait", 10*time.Second, "how long to wait for the database")

	cmd.AddCommand(
		newAdvanceCmd(f),
		newSeedConfigsCmd(f),
		newTrackingNumberCmd(),
		newLookupCmd(f),
	)
	return cmd
}

func (f *rootFlags) openStore(ctx context.Context, stderr io.Writer) (storage.Store, *config.Config, error) {
	if f.configPath == "" {
		return nil, nil, errors.New("--config or $configPath is required")
	}
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	log := slog.New(slog.NewTextHandler(stderr, nil))
	st, err := storage.Open(ctx, cfg.Database, f.dbWait, log)
	if err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
