package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PratikDhanave/returns-ledger-service/internal/app"
	"github.com/PratikDhanave/returns-ledger-service/internal/config"
	"github.com/PratikDhanave/returns-ledger-service/internal/ledger"
	"github.com/PratikDhanave/returns-ledger-service/internal/logging"
	"github.com/PratikDhanave/returns-ledger-service/internal/pipeline"
)

func setup(verbose bool) (config.Config, *zap.Logger, error) {
	cfg, err := config.LoadForCLI()
	if err != nil {
		return config.Config{}, nil, err
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, "console")
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func resolveCmd() *cobra.Command {
	var productID string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "resolve [sku]",
		Short: "Look up a product name through the configured catalogs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(verbose)
			if err != nil {
				return err
			}
			sku := ""
			if len(args) == 1 {
				sku = args[0]
			}
			if sku == "" && productID == "" {
				return fmt.Errorf("a sku argument or --product-id is required")
			}

			resolver := app.BuildResolver(cfg, nil, logger, nil)
			name := resolver.Resolve(cmd.Context(), sku, productID)
			if name == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "(no product name found)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}

	cmd.Flags().StringVar(&productID, "product-id", "", "Fulfillment product id, used when no SKU is given")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log lookups")
	return cmd
}

func replayCmd() *cobra.Command {
	var live bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "replay [payload.json]",
		Short: "Run a stored webhook payload through the pipeline",
		Long: `Replays a webhook body from disk. By default rows are printed and
not written; pass --live to append them to the configured ledger.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(verbose)
			if err != nil {
				return err
			}
			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var sink ledger.Sink = ledger.NewMemorySink()
			if live {
				res, err := app.Connect(ctx, cfg, logger)
				if err != nil {
					return err
				}
				defer func() { _ = res.Close() }()
				if sink, err = app.BuildSink(ctx, cfg, res, logger, nil, nil); err != nil {
					return err
				}
			}

			proc := pipeline.NewProcessor(app.BuildResolver(cfg, nil, logger, nil), sink, logger,
				pipeline.WithConcurrency(cfg.ResolveConcurrency))
			result := proc.Process(ctx, body)
			if result.Invalid {
				return fmt.Errorf("%s is not a JSON object", args[0])
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result.Rows); err != nil {
				return err
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d of %d rows failed to append", result.Failed, len(result.Rows))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "Append rows to the configured ledger")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline steps")
	return cmd
}

func countCmd() *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "count [return-id]",
		Short: "Count rows mirrored to Postgres for a return",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadForCLI()
			if err != nil {
				return err
			}
			if cfg.DBURL == "" {
				return fmt.Errorf("DB_URL is required")
			}

			pg, err := ledger.NewPostgresSink(cmd.Context(), cfg.DBURL)
			if err != nil {
				return err
			}
			defer pg.Close()

			to := time.Now().UTC()
			count, err := pg.CountRows(cmd.Context(), args[0], to.Add(-since), to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows\n", args[0], count)
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 30*24*time.Hour, "Look-back window")
	return cmd
}
