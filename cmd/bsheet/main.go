// Command bsheet validates and converts balance sheet CSV files from the
// command line, using the same ingestion pipeline as the server.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/export"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/ingest"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/report"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const maxFileSize = 10 << 20

func main() {
	// Pick up INGEST_* settings from a local .env, same as the server.
	_ = godotenv.Overload()

	rootCmd := &cobra.Command{
		Use:           "bsheet",
		Short:         "Validate and convert bank balance sheet CSV files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newValidateCmd(),
		newConvertCmd(),
		newTemplateCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ingest.FormatUserError(err))
		os.Exit(1)
	}
}

// ingestFlags are shared by the commands that run the pipeline.
type ingestFlags struct {
	delimiter string
	noHeader  bool
	overlay   string
}

func (f *ingestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.delimiter, "delimiter", "d", "", "field delimiter (skips auto-detection)")
	cmd.Flags().BoolVar(&f.noHeader, "no-header", false, "treat the first row as data, assume canonical column order")
	cmd.Flags().StringVar(&f.overlay, "synonyms", "", "path to a YAML synonym overlay file")
}

func (f *ingestFlags) run(path string) (*ingest.Result, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return nil, fmt.Errorf("%q is not a .csv file", filepath.Base(path))
	}

	delimiter := ""
	if f.delimiter != "" {
		var ok bool
		delimiter, ok = ingest.NormalizeDelimiter(f.delimiter)
		if !ok {
			return nil, fmt.Errorf("invalid delimiter %q (use , ; tab or |)", f.delimiter)
		}
	}

	synonyms := schema.Synonyms
	if f.overlay != "" {
		var err error
		synonyms, err = schema.LoadSynonymOverlay(f.overlay)
		if err != nil {
			return nil, err
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	text, err := ingest.DecodeAll(file, maxFileSize)
	if err != nil {
		return nil, err
	}

	pipeline := ingest.NewPipeline(synonyms, 0)
	return pipeline.Run(filepath.Base(path), text, ingest.Options{
		Delimiter: delimiter,
		NoHeader:  f.noHeader,
	})
}

func newValidateCmd() *cobra.Command {
	var flags ingestFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <file.csv>",
		Short: "Run the ingestion pipeline and print a validation report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := flags.run(args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report.Build(res.Diagnostics))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: delimiter %q, %d row(s), %d valid\n",
				res.FileName, res.Delimiter, len(res.Rows), len(res.Valid))
			if len(res.Missing) > 0 {
				cols := make([]string, len(res.Missing))
				for i, f := range res.Missing {
					cols[i] = string(f)
				}
				fmt.Fprintf(out, "missing required columns: %s\n", strings.Join(cols, ", "))
			}
			if res.HasDiagnostics() {
				fmt.Fprintln(out)
				fmt.Fprint(out, report.Text(res.Diagnostics))
				return fmt.Errorf("%d validation issue(s)", len(res.Diagnostics))
			}
			fmt.Fprintln(out, "all rows valid")
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the grouped report as JSON")
	return cmd
}

func newConvertCmd() *cobra.Command {
	var flags ingestFlags
	var formatName string
	var outPath string

	cmd := &cobra.Command{
		Use:   "convert <file.csv>",
		Short: "Validate a file and write the valid rows in canonical form",
		Long: `Convert runs the ingestion pipeline and writes the validated rows in
canonical column order, with numbers normalized to dot-decimal form.

Supported output formats: csv, json, xlsx.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			res, err := flags.run(args[0])
			if err != nil {
				return err
			}
			if res.HasDiagnostics() {
				fmt.Fprint(cmd.ErrOrStderr(), report.Text(res.Diagnostics))
				return fmt.Errorf("refusing to convert: %d validation issue(s)", len(res.Diagnostics))
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if err := export.Rows(out, res.Valid, format); err != nil {
				return err
			}
			if outPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d row(s) to %s\n", len(res.Valid), outPath)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&formatName, "format", "f", "csv", "output format: csv, json or xlsx")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var formatName string
	var outPath string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty template with the canonical column headers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return export.Template(out, format)
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "csv", "template format: csv or xlsx")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bsheet %s (%s)\n", version, runtime.Version())
		},
	}
}
