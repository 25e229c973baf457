package main

import (
	"fmt"
	"log/slog"

	"github.com/BearBump/GLExpress/internal/cache"
	"github.com/BearBump/GLExpress/internal/cache/rediscache"
	"github.com/BearBump/GLExpress/internal/models"
	"github.com/BearBump/GLExpress/internal/services/ingestion"
	"github.com/BearBump/GLExpress/internal/services/packages"
	"github.com/BearBump/GLExpress/internal/services/progression"
	"github.com/spf13/cobra"
)

func newAdvanceCmd(f *rootFlags) *cobra.Command {
	var catchup bool
	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Run the status progression engine once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, cfg, err := f.openStore(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer st.Close()

			var c cache.BytesCache
			if cfg.Redis.Host != "" {
				rc := rediscache.New(cfg.Redis.Addr())
				defer func() { _ = rc.Close() }()
				c = rc
			}

			engine := progression.NewEngine(st, c, progression.Options{
				Concurrency:           cfg.GLExpress.ProgressionConcurrency,
				AllowMultiStepCatchup: catchup || cfg.GLExpress.AllowMultiStepCatchup,
			}, slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)))

			res, err := engine.EvaluateAndAdvance(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&catchup, "catchup", false, "advance through every status that is already due")
	return cmd
}

func newSeedConfigsCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-configs",
		Short: "Insert the default status configs (existing rows are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, _, err := f.openStore(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.SeedStatusConfigs(cmd.Context(), models.DefaultStatusConfigs())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "inserted %d status configs\n", n)
			return err
		},
	}
}

func newTrackingNumberCmd() *cobra.Command {
	var (
		prefix string
		count  int
	)
	cmd := &cobra.Command{
		Use:   "tracking-number",
		Short: "Print freshly generated tracking numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			gen := ingestion.NewGenerator(prefix)
			for i := 0; i < count; i++ {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), gen.Next()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "GL", "tracking number prefix")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "how many numbers to print")
	return cmd
}

func newLookupCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <tracking-number>",
		Short: "Show a package and its status history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := f.openStore(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer st.Close()

			v, err := packages.New(st, nil, 0, nil, nil).Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
}
