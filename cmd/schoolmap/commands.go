package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/zw-schools/schoolmap/internal/pipeline"
	"github.com/zw-schools/schoolmap/internal/schools"
	"github.com/zw-schools/schoolmap/internal/templates"
	"github.com/zw-schools/schoolmap/internal/view"
)

// buildCmd regenerates every dataset from the raw ministry export.
func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Clean the school CSV and build the map datasets",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := loadConfig(opts)
			if err != nil {
				fatal(err)
			}
			input, _ := cmd.Flags().GetString("input")
			if input == "" {
				input = cfg.Data.InputCSV
			}
			skipClean, _ := cmd.Flags().GetBool("skip-clean")

			res, err := pipeline.Run(context.Background(), pipeline.Options{
				DataDir:   cfg.Data.Dir,
				InputCSV:  input,
				SkipClean: skipClean || cfg.Pipeline.SkipClean,
				AdminFile: cfg.Data.AdminFile,
				CellSize:  cfg.Grid.CellSize,
				HexSize:   cfg.Hex.Size,
			})
			if err != nil {
				fatal(err)
			}

			if res.Report != nil {
				fmt.Printf("Cleaned %s rows\n", templates.Thousands(res.Report.Rows))
			}
			fmt.Printf("Primary schools:   %s\n", templates.Thousands(res.Primary))
			fmt.Printf("Secondary schools: %s\n", templates.Thousands(res.Secondary))
			fmt.Printf("Grid cells:        %s\n", templates.Thousands(res.GridCells))
			fmt.Printf("Hex cells:         %s\n", templates.Thousands(res.HexCells))
			fmt.Printf("Admin regions:     %s\n", templates.Thousands(res.Regions))
			for _, f := range res.Files {
				fmt.Printf("  wrote %s\n", f)
			}
		}),
	}
	cmd.Flags().StringP("input", "i", "", "Raw school CSV (default data.input_csv)")
	cmd.Flags().Bool("skip-clean", false, "Build from the input as-is")
	return cmd
}

// cleanCmd runs only the cleaning step and prints the quality report.
func cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <input.csv>",
		Short: "Clean a raw school CSV and write a data quality report",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := loadConfig(opts)
			if err != nil {
				fatal(err)
			}
			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = filepath.Join(cfg.Data.Dir, pipeline.FileCleanCSV)
			}
			report, _ := cmd.Flags().GetString("report")
			if report == "" {
				report = filepath.Join(cfg.Data.Dir, pipeline.FileReport)
			}

			rep, err := pipeline.CleanFile(args[0], out, report)
			if err != nil {
				fatal(err)
			}
			fmt.Print(rep.Markdown(args[0], out))
		}),
	}
	cmd.Flags().StringP("output", "o", "", "Cleaned CSV path (default <data-dir>/clean_schools.csv)")
	cmd.Flags().String("report", "", "Report path (default <data-dir>/quality_report.md)")
	return cmd
}

// legendCmd prints the legend a map view would show for the built data.
func legendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "legend <choropleth|grid|hex>",
		Short:     "Print the legend of a map view in the terminal",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"choropleth", "grid", "hex"},
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := loadConfig(opts)
			if err != nil {
				fatal(err)
			}
			metricFlag, _ := cmd.Flags().GetString("metric")
			metric, err := schools.ParseMetric(metricFlag)
			if err != nil {
				fatal(err)
			}

			out, err := legend(cfg.Data.Dir, args[0], metric)
			if err != nil {
				fatal(err)
			}
			fmt.Println(out)
		}),
	}
	cmd.Flags().StringP("metric", "m", "total", "Metric: primary, secondary or total")
	return cmd
}

// legend loads the dataset behind view and renders its legend.
func legend(dataDir, name string, metric schools.Metric) (string, error) {
	file := map[string]string{
		"choropleth": pipeline.FileChoropleth,
		"grid":       pipeline.FileGrid,
		"hex":        pipeline.FileHex,
	}[name]
	if file == "" {
		return "", eris.Errorf("legend: unknown view %q", name)
	}
	areas, err := schools.LoadAreas(filepath.Join(dataDir, file))
	if err != nil {
		return "", err
	}

	r, err := templates.NewEmbedded()
	if err != nil {
		return "", err
	}
	b := view.NewBuilder(r)
	ctx := view.DefaultContext()
	ctx.Metric = metric

	if name == "choropleth" {
		v, err := b.Choropleth(areas, ctx)
		if err != nil {
			return "", err
		}
		return renderGradient(v.Legend), nil
	}
	v, err := b.Grid(areas, ctx)
	if err != nil {
		return "", err
	}
	return renderSwatches(v.Legend), nil
}
