package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"manifest_parser/internal/assembler"
	"manifest_parser/internal/classifier"
	"manifest_parser/internal/manifest"
	"manifest_parser/internal/pdftext"
)

var (
	linesParser parserFlags
	linesTrace  bool
	linesJSON   bool
)

var linesCmd = &cobra.Command{
	Use:   "lines <manifest.pdf>",
	Short: "Print the extracted text lines of a manifest",
	Long: `Print the text lines extracted from every page, as the classifier
sees them. With --trace each cursor position shows the token produced (with
--verbose, the rules tried and the formats they matched), followed by the
container records assembled from the whole document.`,
	Args: cobra.ExactArgs(1),
	RunE: runLines,
}

func init() {
	linesParser.register(linesCmd)
	linesCmd.Flags().BoolVar(&linesTrace, "trace", false, "Show classifier decisions")
	linesCmd.Flags().BoolVar(&linesJSON, "json", false, "Print pages as JSON")
}

func runLines(cmd *cobra.Command, args []string) error {
	pc, err := linesParser.apply(cmd, cfg.Parser)
	if err != nil {
		return err
	}
	pages, err := pdftext.ExtractFile(args[0], pc.ExtractMode)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if linesJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pages)
	}

	if linesTrace {
		traceDocument(w, pages, assembler.Options{Variant: pc.Variant, Flush: pc.Flush})
		return nil
	}
	for _, p := range pages {
		fmt.Fprintf(w, "--- page %d (%d lines) ---\n", p.Number, len(p.Lines))
		for i, l := range p.Lines {
			fmt.Fprintf(w, "%4d  %s\n", i, l)
		}
	}
	return nil
}

// traceDocument prints the classifier decisions for every page, then the
// container records the assembler builds from them.
func traceDocument(w io.Writer, pages []manifest.Page, opts assembler.Options) {
	p := assembler.New(opts)
	c := classifier.New(opts.Variant)
	fmt.Fprintf(w, "variant=%s flush=%s\n", c.Variant(), p.Options().Flush)

	for _, page := range pages {
		fmt.Fprintf(w, "--- page %d (%d lines) ---\n", page.Number, len(page.Lines))
		tracePage(w, c, page)
	}

	records := p.Parse(pages)
	fmt.Fprintf(w, "--- %d containers ---\n", len(records))
	for _, r := range records {
		fmt.Fprintf(w, "%s awbs=%d pieces=%d weight=%s\n", r.ID, len(r.Items), r.TotalPieces(), manifest.FormatWeight(r.TotalWeight()))
	}
}

// tracePage walks a page the way the assembler does and prints every decision.
func tracePage(w io.Writer, c *classifier.Classifier, p manifest.Page) {
	for i := 0; i < len(p.Lines); {
		tr := c.Trace(p.Lines, i)
		tok := tr.Token

		fmt.Fprintf(w, "%4d  %-40s -> %s", i, tr.Line, tok.Kind)
		switch tok.Kind {
		case classifier.Container:
			fmt.Fprintf(w, " %s", tok.ContainerID)
		case classifier.Shipment:
			fmt.Fprintf(w, " %s pieces=%d weight=%s", tok.Item.AWB, tok.Item.Pieces, manifest.FormatWeight(tok.Item.Weight))
		}
		if tok.Rule != "" {
			fmt.Fprintf(w, " [%s, %d lines]", tok.Rule, tok.Consumed)
		}
		if tok.Err != nil {
			fmt.Fprintf(w, " (%v)", tok.Err)
		}
		fmt.Fprintln(w)

		if verbose {
			for _, rt := range tr.Rules {
				if !rt.QuickCheck.Passed {
					continue
				}
				fmt.Fprintf(w, "        %s matched=%v\n", rt.RuleName, rt.Matched)
				for _, ft := range rt.Formats {
					fmt.Fprintf(w, "          %s matched=%v %v\n", ft.Name, ft.Matched, ft.Captures)
				}
			}
		}

		i += tok.Consumed
	}
}
