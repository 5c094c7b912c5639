// Package commands implements the CLI commands for retailprep.
package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/retailprep/internal/logger"
	"github.com/jmylchreest/retailprep/internal/output"
	"github.com/jmylchreest/retailprep/pkg/retail"
	"github.com/jmylchreest/retailprep/pkg/retailprep"
)

// NewRootCommand builds the retailprep command tree. Each call gets its own
// viper instance so flag and config state never leaks between runs.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "retailprep",
		Short: "Prepare and clean online retail data",
		Long: `Retailprep reads the raw online retail transaction extract, drops
incomplete rows, returns and zero-priced lines, adds derived columns
(TotalPrice, InvoiceYear, InvoiceMonth, YearMonth, InvoiceWeek, InvoiceDay)
and writes the cleaned dataset.

Examples:
  # Clean data/online_retail_raw.csv into data/online_retail_clean.csv
  retailprep

  # Explicit paths
  retailprep -i exports/2011.csv -o build/2011_clean.csv

  # Workbook output plus a run report
  retailprep -o build/clean.xlsx --report build/report.yaml`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, v)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file (default $HOME/.retailprep.yaml)")
	pf.Bool("debug", false, "enable debug logging")
	pf.BoolP("quiet", "q", false, "only log errors")
	pf.Bool("log-json", false, "log as JSON")

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "path to raw CSV (default: data/online_retail_raw.csv)")
	flags.StringP("output", "o", "", "path to write cleaned data (default: data/online_retail_clean.csv)")
	flags.String("root", "", "project root the default paths are resolved against (default: current directory)")
	flags.String("encoding", retail.DefaultEncoding, "input charset (IANA name)")
	flags.String("delimiter", ",", "field delimiter")
	flags.String("format", "", "output format: csv, xlsx (default: from output extension)")
	flags.String("report", "", "write a run report to this file")
	flags.String("report-format", "", "report format: json, jsonl, yaml (default: from report extension)")

	_ = v.BindPFlag("config", pf.Lookup("config"))
	_ = v.BindPFlag("debug", pf.Lookup("debug"))
	_ = v.BindPFlag("quiet", pf.Lookup("quiet"))
	_ = v.BindPFlag("log_json", pf.Lookup("log-json"))
	_ = v.BindPFlag("input", flags.Lookup("input"))
	_ = v.BindPFlag("output", flags.Lookup("output"))
	_ = v.BindPFlag("root", flags.Lookup("root"))
	_ = v.BindPFlag("encoding", flags.Lookup("encoding"))
	_ = v.BindPFlag("delimiter", flags.Lookup("delimiter"))
	_ = v.BindPFlag("format", flags.Lookup("format"))
	_ = v.BindPFlag("report", flags.Lookup("report"))
	_ = v.BindPFlag("report_format", flags.Lookup("report-format"))

	cmd.AddCommand(newVersionCommand())
	return cmd
}

func initConfig(v *viper.Viper) error {
	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".retailprep")
		v.SetConfigType("yaml")
	}

	// Environment variables
	v.SetEnvPrefix("RETAILPREP")
	v.AutomaticEnv()

	// Read config file (a missing default one is fine)
	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func runClean(cmd *cobra.Command, v *viper.Viper) error {
	logger.Init(logger.Options{
		Debug:  v.GetBool("debug"),
		Quiet:  v.GetBool("quiet"),
		JSON:   v.GetBool("log_json"),
		Output: cmd.ErrOrStderr(),
	})

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts, err := pipelineOptions(v)
	if err != nil {
		return err
	}

	p, err := retailprep.New(opts...)
	if err != nil {
		return err
	}
	cfg := p.Config()
	logger.Debug("pipeline configured", "input", cfg.Input, "output", cfg.Output, "format", cfg.Format)

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	if reportPath := v.GetString("report"); reportPath != "" {
		if err := writeReport(reportPath, v.GetString("report_format"), res); err != nil {
			return err
		}
		logger.Info("run report written", "path", reportPath)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote cleaned data to: %s\n", res.Output)
	return nil
}

// pipelineOptions maps configuration onto pipeline options, resolving the
// default paths against the project root.
func pipelineOptions(v *viper.Viper) ([]retailprep.Option, error) {
	root := v.GetString("root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve project root: %w", err)
		}
		root = wd
	}

	input := v.GetString("input")
	if input == "" {
		input = filepath.Join(root, retailprep.DefaultInput)
	}
	out := v.GetString("output")
	if out == "" {
		out = filepath.Join(root, retailprep.DefaultOutput)
	}

	delim := v.GetString("delimiter")
	if utf8.RuneCountInString(delim) != 1 {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", delim)
	}
	d, _ := utf8.DecodeRuneInString(delim)

	return []retailprep.Option{
		retailprep.WithInput(input),
		retailprep.WithOutput(out),
		retailprep.WithEncoding(v.GetString("encoding")),
		retailprep.WithDelimiter(d),
		retailprep.WithFormat(retail.Format(v.GetString("format"))),
	}, nil
}

func writeReport(path, format string, res *retailprep.Result) error {
	f := output.FormatFromPath(path)
	if format != "" {
		var err error
		if f, err = output.ParseFormat(format); err != nil {
			return err
		}
	}
	return output.WriteFile(path, f, res)
}
