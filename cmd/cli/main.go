package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"ecttool/app"
	"ecttool/domain/survival"
	"ecttool/internal"
	"ecttool/internal/container"

	"github.com/spf13/cobra"
)

// dataFlags locate the cohort and category metadata for every command
type dataFlags struct {
	file       string
	sheet      string
	catalog    string
	confidence float64
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &dataFlags{}

	rootCmd := &cobra.Command{
		Use:           "ect-cli",
		Short:         "Endometrial cancer survival reports from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.file, "file", os.Getenv("COHORT_FILE"), "Cohort file (.xlsx, .csv, .tsv)")
	rootCmd.PersistentFlags().StringVar(&flags.sheet, "sheet", "Sheet1", "Worksheet name for .xlsx files")
	rootCmd.PersistentFlags().StringVar(&flags.catalog, "catalog", "", "Category metadata YAML (built-in when empty)")
	rootCmd.PersistentFlags().Float64Var(&flags.confidence, "confidence", 0.95, "Confidence level of the survival bands")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "ERROR", "Log level: ERROR|WARN|INFO|DEBUG|TRACE")

	rootCmd.AddCommand(
		newSurvivalCmd(flags),
		newOverviewCmd(flags),
		newPopulationCmd(flags),
		newCategoriesCmd(flags),
	)
	return rootCmd
}

func newSurvivalCmd(flags *dataFlags) *cobra.Command {
	var mode, facetCol, facetRow string

	cmd := &cobra.Command{
		Use:   "survival [category]",
		Short: "Kaplan-Meier curves, log-rank test and risk table for one attribute",
		Long: `Fit one survival curve per subcategory of an attribute and compare them.

Example: ect-cli survival grade --file cohort.xlsx --mode pfs --facet-col stage`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}
			report, err := c.Reports.CategoryReport(cmd.Context(), c.Cohort, app.CategoryReportRequest{
				Mode:        survival.Mode(mode),
				Category:    args[0],
				FacetColumn: facetCol,
				FacetRow:    facetRow,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(survival.ModeOverall), "Survival endpoint: os|pfs")
	cmd.Flags().StringVar(&facetCol, "facet-col", "", "Attribute drawn as side-by-side panels")
	cmd.Flags().StringVar(&facetRow, "facet-row", "", "Attribute drawn as stacked panels")
	return cmd
}

func newOverviewCmd(flags *dataFlags) *cobra.Command {
	var mode string
	var targets []string

	cmd := &cobra.Command{
		Use:   "overview [category] [subcategory]",
		Short: "Break one subcategory down by every other attribute",
		Long: `Restrict the cohort to one subcategory and chart it by each target attribute.

Example: ect-cli overview grade G3 --file cohort.xlsx --targets stage,tumor_type`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}
			overview, err := c.Reports.Overview(cmd.Context(), c.Cohort, app.OverviewRequest{
				Mode:        survival.Mode(mode),
				Category:    args[0],
				Subcategory: args[1],
				Targets:     targets,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), overview)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(survival.ModeOverall), "Survival endpoint: os|pfs")
	cmd.Flags().StringSliceVar(&targets, "targets", nil, "Attributes to break down by (all when empty)")
	return cmd
}

func newPopulationCmd(flags *dataFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "population [category]",
		Short: "Patient counts per subcategory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}
			series, err := c.Reports.Population(c.Cohort, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), series)
		},
	}
}

func newCategoriesCmd(flags *dataFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List survival modes and clinical attributes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := container.LoadCatalog(flags.catalog)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"modes":      cat.Modes(),
				"categories": cat.Attributes(),
			})
		},
	}
}

func (f *dataFlags) load(ctx context.Context) (*container.Container, error) {
	if f.file == "" {
		return nil, fmt.Errorf("--file is required (or set COHORT_FILE)")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return container.New(ctx, f.options())
}

func (f *dataFlags) options() container.Options {
	return container.Options{
		CohortFile:      f.file,
		CohortSheet:     f.sheet,
		CatalogFile:     f.catalog,
		ConfidenceLevel: f.confidence,
		OverviewWorkers: 4,
		Logger:          internal.NewLoggerTo(os.Stderr, internal.ParseLogLevel(f.logLevel)),
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
