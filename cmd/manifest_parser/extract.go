package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"manifest_parser/internal/aggregate"
	"manifest_parser/internal/extractor"
	"manifest_parser/internal/report"
)

var (
	extractParser   parserFlags
	extractBackends backendFlags

	extractFilterFile string
	extractFilter     []string
	extractFormat     string
	extractOutput     string
	extractLayout     string
	extractStats      bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <manifest.pdf>",
	Short: "Parse a manifest and write its container table",
	Long: `Parse a manifest PDF and write the container table.

JSON goes to stdout unless -o is given. CSV and XLSX default to
<name>_RESUME.<ext> next to the PDF; use -o - for stdout.`,
	Example: `  manifest_parser extract manifest.pdf
  manifest_parser extract manifest.pdf --format xlsx --filter-file pmc.txt --sort
  manifest_parser extract manifest.pdf --format csv --layout full -o - --stats`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractParser.register(extractCmd)
	extractBackends.register(extractCmd)

	extractCmd.Flags().StringVar(&extractFilterFile, "filter-file", "", "File with one container id per line")
	extractCmd.Flags().StringSliceVar(&extractFilter, "filter", nil, "Container ids to keep (repeatable or comma-separated)")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "json", "Output format: json, csv or xlsx")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output file (- for stdout)")
	extractCmd.Flags().StringVar(&extractLayout, "layout", "print", "Report layout: print or full")
	extractCmd.Flags().BoolVar(&extractStats, "stats", false, "Print the piece-count histogram to stderr")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	source := args[0]

	pc, err := extractParser.apply(cmd, cfg.Parser)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(extractFormat)
	if err != nil {
		return err
	}
	layout, err := report.ParseLayout(extractLayout)
	if err != nil {
		return err
	}
	filter, err := loadFilter(extractFilterFile, extractFilter)
	if err != nil {
		return err
	}

	res, err := extractor.RunFile(source, pc.ExtractorOptions(filter))
	if err != nil {
		return err
	}

	logger.Info("manifest parsed",
		zap.String("file", source),
		zap.String("id", res.Document.ID),
		zap.String("origin", res.Document.Header.Origin),
		zap.String("flight", res.Document.Header.FlightNo),
		zap.Int("pages", res.Document.Pages),
		zap.Int("containers", len(res.Document.Records)),
		zap.Int("rows", len(res.Table.Rows)),
	)
	switch {
	case res.Unreadable():
		logger.Warn("no text found in document, it may be a scanned image", zap.String("file", source))
	case res.Empty() && res.Filtered:
		logger.Warn("filter matched no container", zap.Strings("filter", filter.IDs()))
	case res.Empty():
		logger.Warn("no container found in document", zap.String("file", source))
	}

	b, err := openBackends(ctx, extractBackends, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	if sink := b.Sink(); sink != nil {
		id, err := sink.SaveManifest(ctx, res.Document)
		if err != nil {
			return fmt.Errorf("archive manifest: %w", err)
		}
		logger.Info("manifest archived", zap.String("id", id), zap.Int("backends", len(b.sinks)))
	}

	rep := report.New(source, layout, res.Table)
	if err := writeReport(cmd, rep, format, outputPath(source, format, extractOutput)); err != nil {
		return err
	}

	if extractStats {
		return report.WriteStatsCSV(cmd.ErrOrStderr(), rep)
	}
	return nil
}

// loadFilter merges the filter file and the --filter ids.
func loadFilter(path string, ids []string) (aggregate.Filter, error) {
	filter := aggregate.NewFilter(ids...)
	if path == "" {
		return filter, nil
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read filter: %w", err)
	}
	for _, id := range aggregate.ParseFilter(string(text)).IDs() {
		filter[id] = struct{}{}
	}
	return filter, nil
}

// outputPath resolves the -o flag. "-" and "" both mean stdout for JSON;
// CSV and XLSX default to a file next to the source.
func outputPath(source string, f report.Format, flag string) string {
	if flag != "" || f == report.FormatJSON {
		return flag
	}
	return filepath.Join(filepath.Dir(source), report.FileName(source, f))
}

func writeReport(cmd *cobra.Command, rep report.Report, f report.Format, path string) error {
	if path == "" || path == "-" {
		return report.Render(cmd.OutOrStdout(), f, rep)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := report.Render(out, f, rep); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	logger.Info("report written", zap.String("path", path), zap.String("layout", rep.Layout.Name))
	return nil
}
