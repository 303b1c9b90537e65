package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thalesfsp/oed/config"
	"github.com/thalesfsp/oed/internal/logging"
	"github.com/thalesfsp/oed/internal/pipeline"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "oed",
		Short:         "Optimal experimental design for parametric models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(), newConfigCmd())

	return root
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the design pipeline and benchmark the resulting designs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()

			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}

				cfg = loaded
			}

			if logLevel != "" {
				cfg.Log.Level = logLevel
			}

			logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
			if err != nil {
				return err
			}

			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return run(ctx, cfg, logger, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "pipeline configuration file (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the default pipeline configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Default().Marshal()
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer) error {
	report, err := pipeline.Run(ctx, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "initial theta: %v\n", report.InitialTheta)
	fmt.Fprintf(out, "upper quantile at %v: %v\n", report.QuantilePoint, report.UpperQuantile)
	fmt.Fprintf(out, "point prediction design: %v\n", report.PointPrediction)

	names := make([]string, 0, len(report.Metrics))
	for name := range report.Metrics {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(out, "\n%s\n%s\n", name, strings.Repeat("-", len(name)))

		for _, r := range report.Metrics[name] {
			fmt.Fprintf(out, "  %-16s %v\n", r.Design, r.Values)
		}
	}

	return nil
}
