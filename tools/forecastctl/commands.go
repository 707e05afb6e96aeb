package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/charts"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/csvtable"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/stats"
)

var scoreFormats = []string{"table", "csv", "json"}

func newScoreCmd(g *globalOptions) *cobra.Command {
	var artifactDir, input, output, format string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Forecast expected sales for every row of a CSV",
		Example: `  forecastctl score -i stores.csv
  forecastctl score -i stores.csv --format csv -o forecast.csv
  forecastctl score --artifacts s3://models/rossmann/v1 -i - < stores.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !contains(scoreFormats, format) {
				return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(scoreFormats, ", "))
			}
			res, err := score(cmd, g, artifactDir, input)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("warning:"), w)
			}

			out, closeOut, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			switch format {
			case "csv":
				err = csvtable.WriteResults(out, res.Records)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				err = enc.Encode(res)
			default:
				_, err = fmt.Fprintln(out, renderResults(res.Records))
			}
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			return err
		},
	}
	addArtifactsFlag(cmd, &artifactDir)
	addInputFlag(cmd, &input)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write results to this file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, csv or json")
	return cmd
}

func newPreviewCmd(g *globalOptions) *cobra.Command {
	var input string
	var rows int

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the first rows and any missing required columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rows < 1 {
				return fmt.Errorf("--rows must be at least 1")
			}
			table, err := readInput(cmd, g, input)
			if err != nil {
				return err
			}
			p := csvtable.Preview(table, rows)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(p.Columns, p.Rows, nil))
			fmt.Fprintf(out, "%d of %d rows\n", len(p.Rows), p.TotalRows)
			if missing := pipeline.MissingColumns(table.Columns); len(missing) > 0 {
				fmt.Fprintln(out, warnStyle.Render("missing required columns:"), strings.Join(missing, ", "))
			}
			return nil
		},
	}
	addInputFlag(cmd, &input)
	cmd.Flags().IntVarP(&rows, "rows", "n", 5, "Number of rows to show")
	return cmd
}

func newSummaryCmd(g *globalOptions) *cobra.Command {
	var input string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Per-column statistics of a CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readInput(cmd, g, input)
			if err != nil {
				return err
			}
			s := stats.Summarize(table)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			fmt.Fprintln(out, renderSummary(s))
			fmt.Fprintf(out, "%d rows\n", s.Rows)
			if len(s.MissingRequired) > 0 {
				fmt.Fprintln(out, warnStyle.Render("missing required columns:"), strings.Join(s.MissingRequired, ", "))
			}
			return nil
		},
	}
	addInputFlag(cmd, &input)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func newChartCmd(g *globalOptions) *cobra.Command {
	var artifactDir, input, output, title string
	var stores int

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Plot expected sales over time as PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := score(cmd, g, artifactDir, input)
			if err != nil {
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := charts.ForecastChart(f, res.Records, charts.Options{Title: title, MaxStores: stores}); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", output)
			return nil
		},
	}
	addArtifactsFlag(cmd, &artifactDir)
	addInputFlag(cmd, &input)
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG file to write (required)")
	cmd.Flags().IntVar(&stores, "stores", charts.DefaultMaxStores, "Maximum number of stores to plot")
	cmd.Flags().StringVar(&title, "title", "", "Chart title")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
