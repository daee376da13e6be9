package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vmodel/internal/script"
	"github.com/vango-dev/vmodel/pkg/model"
)

func replayCmd() *cobra.Command {
	var (
		logLevel string
		metrics  bool
	)

	cmd := &cobra.Command{
		Use:   "replay <script>",
		Short: "Replay a script and print its events",
		Long: `Replay runs a YAML or JSON script against a fresh model and prints each
event as a JSON line on stdout. Use "-" to read the script from stdin.

Steps accumulate into one batch until a flush step; the batch still open
at the end of the script is flushed before the final state is printed.`,
		Example: `  vmodel replay examples/size.yaml
  cat script.json | vmodel replay - --metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			s, err := loadScript(cmd, args[0])
			if err != nil {
				return err
			}

			opts := []script.RunnerOption{script.WithLogger(logger)}
			var reg *prometheus.Registry
			if metrics {
				reg = prometheus.NewRegistry()
				opts = append(opts, script.WithMetrics(model.NewMetrics(model.WithRegistry(reg))))
			}

			res, err := script.NewRunner(cmd.OutOrStdout(), opts...).Run(cmd.Context(), s)
			if err != nil {
				return err
			}
			logger.Info("replay finished", "steps", res.Steps, "updates", res.Updates, "keys", len(res.State))

			if reg != nil {
				return writeMetrics(cmd.ErrOrStderr(), reg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Print model metrics to stderr when done")

	return cmd
}

func loadScript(cmd *cobra.Command, path string) (*script.Script, error) {
	if path == "-" {
		return script.Load(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return script.Load(f)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
