package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"counterparty_analyzer/pkg/config"
	"counterparty_analyzer/pkg/core/pipeline"
	"counterparty_analyzer/pkg/core/rating"
	"counterparty_analyzer/pkg/core/store"
	"counterparty_analyzer/pkg/logging"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	logLevel   string
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "analyzer",
		Short: "Counterparty financial statement analyzer",
		Long: `analyzer reads financial statements, validates the extracted figures and
computes liquidity, stability, activity, cash-flow, structure and
profitability indicators with traffic-light ratings.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print JSON instead of a table")

	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newCalcCmd(opts))
	rootCmd.AddCommand(newAnalyzeCmd(opts))
	rootCmd.AddCommand(newCatalogCmd(opts))

	return rootCmd
}

// setup loads the configuration and wires the service. Model-free commands
// run in manual mode so no inference backend is contacted.
func setup(opts *options, manual bool) (*pipeline.Components, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	logging.Setup(opts.logLevel, cfg.Logging.Format)

	if manual {
		cfg.Inference.Provider = "manual"
		cfg.Storage.DatabaseURL = ""
	}
	return pipeline.Build(context.Background(), cfg)
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Recover a statement record from model output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c, err := setup(opts, true)
			if err != nil {
				return err
			}

			res, err := c.Orchestrator.Validate(string(raw))
			if err != nil {
				return describe(cmd, err)
			}
			out := cmd.OutOrStdout()
			if !opts.jsonOutput {
				renderWarnings(out, res.Warnings)
			}
			return printJSON(out, res)
		},
	}
}

func newCalcCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "calc <file>",
		Short: "Calculate indicators from a statement JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c, err := setup(opts, true)
			if err != nil {
				return err
			}

			res, err := c.Orchestrator.Calculate(string(raw))
			if err != nil {
				return describe(cmd, err)
			}
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, res.Report)
			}
			renderWarnings(out, res.Warnings)
			renderReport(out, res.Report)
			return nil
		},
	}
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	var instructions, htmlOut string

	cmd := &cobra.Command{
		Use:   "analyze <files...>",
		Short: "Run the full pipeline on statement documents",
		Long: `Extracts text from the documents, asks the configured model for the
statement figures, calculates the indicators and writes the report.
Example: analyzer analyze balance.pdf income.xlsx --html report.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer store.Close()

			docs := make([]pipeline.Document, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				docs = append(docs, pipeline.Document{Name: filepath.Base(path), Data: data})
			}

			res, err := c.Orchestrator.Run(cmd.Context(), pipeline.Request{Documents: docs, Instructions: instructions})
			if err != nil {
				return describe(cmd, err)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, res)
			}
			for _, f := range res.FailedFiles {
				fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("! %s: %s", f.Name, f.Error)))
			}
			renderWarnings(out, res.Warnings)
			renderReport(out, res.Report)
			if res.ReportMarkup != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, res.ReportMarkup)
			}
			if htmlOut != "" && res.ReportHTML != "" {
				if err := os.WriteFile(htmlOut, []byte(res.ReportHTML), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(out, "\nHTML report written to %s\n", htmlOut)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&instructions, "instructions", "", "Additional instructions for the report")
	cmd.Flags().StringVar(&htmlOut, "html", "", "Write the sanitized HTML report to this file")
	return cmd
}

func newCatalogCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List indicators and their rating bands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(opts, true)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				type entry struct {
					ID    string      `json:"id"`
					Name  string      `json:"name"`
					Block string      `json:"block"`
					Rule  rating.Rule `json:"rule"`
				}
				var entries []entry
				for _, def := range c.Catalog.Definitions() {
					rule, _ := c.Catalog.Rule(def.ID)
					entries = append(entries, entry{ID: def.ID, Name: def.DisplayName, Block: string(def.Block), Rule: rule})
				}
				return printJSON(cmd.OutOrStdout(), entries)
			}
			renderCatalog(cmd.OutOrStdout(), c.Catalog)
			return nil
		},
	}
}

// describe prints a classified pipeline error and returns it.
func describe(cmd *cobra.Command, err error) error {
	var hint string
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		hint = fmt.Sprintf(" [%s, retry: %s]", pe.Kind, pe.Retry())
	}
	fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("error"+hint+": "+err.Error()))
	return err
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
