package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/artifacts"
	awspkg "github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/aws"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/csvtable"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

type globalOptions struct {
	verbose bool
	maxRows int
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "forecastctl",
		Short: "Score and explore retail sales batches",
		Long: `forecastctl runs the forecast pipeline locally.

Available commands:
  score   - Forecast expected sales for every row of a CSV
  preview - Show the first rows and any missing required columns
  summary - Per-column statistics of a CSV
  chart   - Plot expected sales over time as PNG`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewDevelopmentConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if g.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := config.Build()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			g.logger = l
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().IntVar(&g.maxRows, "max-rows", 0, "Refuse inputs with more data rows (0 = no limit)")

	root.AddCommand(newScoreCmd(g))
	root.AddCommand(newPreviewCmd(g))
	root.AddCommand(newSummaryCmd(g))
	root.AddCommand(newChartCmd(g))
	return root
}

// envOr returns the variable or fallback, for flag defaults.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func addArtifactsFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVar(dst, "artifacts", envOr("ARTIFACT_DIR", "./artifacts"), "Artifact directory or s3://bucket/prefix")
}

func addInputFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVarP(dst, "input", "i", "", "CSV file to read, - for stdin (required)")
	_ = cmd.MarkFlagRequired("input")
}

// loadBundle reads artifacts from a directory or an s3:// location.
func loadBundle(ctx context.Context, location string) (*artifacts.Bundle, error) {
	if rest, ok := strings.CutPrefix(location, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, fmt.Errorf("invalid artifact location %q", location)
		}
		cfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		return artifacts.Load(ctx, artifacts.S3Source{Store: awspkg.NewS3Store(cfg), Bucket: bucket, Prefix: prefix})
	}
	return artifacts.Load(ctx, artifacts.DirSource{Dir: location})
}

func readInput(cmd *cobra.Command, g *globalOptions, path string) (*pipeline.Table, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	t, err := csvtable.Read(r, csvtable.Options{MaxRows: g.maxRows})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// openOutput returns stdout for "" or "-", else a created file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func score(cmd *cobra.Command, g *globalOptions, artifactDir, input string) (*pipeline.Result, error) {
	ctx := cmd.Context()
	bundle, err := loadBundle(ctx, artifactDir)
	if err != nil {
		return nil, err
	}
	table, err := readInput(cmd, g, input)
	if err != nil {
		return nil, err
	}
	o, err := bundle.NewOrchestrator(pipeline.WithLogger(g.logger))
	if err != nil {
		return nil, err
	}
	ctx = pipeline.ContextWithLogFields(ctx, zap.String("input", input), zap.String("model_version", bundle.Manifest.Version))
	return o.Run(ctx, table)
}
