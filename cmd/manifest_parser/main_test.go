package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"manifest_parser/internal/assembler"
	"manifest_parser/internal/classifier"
	"manifest_parser/internal/config"
	"manifest_parser/internal/manifest"
	"manifest_parser/internal/pdftext"
	"manifest_parser/internal/report"
	"manifest_parser/internal/storage"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		source string
		format report.Format
		flag   string
		want   string
	}{
		{"in/manifest.pdf", report.FormatJSON, "", ""},
		{"in/manifest.pdf", report.FormatJSON, "out.json", "out.json"},
		{"in/manifest.pdf", report.FormatXLSX, "", filepath.Join("in", "manifest_RESUME.xlsx")},
		{"in/manifest.pdf", report.FormatCSV, "-", "-"},
		{"manifest.pdf", report.FormatCSV, "", "manifest_RESUME.csv"},
	}

	for _, tt := range tests {
		if got := outputPath(tt.source, tt.format, tt.flag); got != tt.want {
			t.Errorf("outputPath(%q, %s, %q) = %q, want %q", tt.source, tt.format, tt.flag, got, tt.want)
		}
	}
}

func TestLoadFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.txt")
	if err := os.WriteFile(path, []byte("PMC12345AF\n\n  AKE98765LH  \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := loadFilter(path, []string{"BULK", " "})
	if err != nil {
		t.Fatalf("loadFilter: %v", err)
	}
	for _, id := range []string{"PMC12345AF", "AKE98765LH", "BULK"} {
		if !f.Contains(id) {
			t.Errorf("filter missing %s", id)
		}
	}
	if len(f) != 3 {
		t.Errorf("filter has %d ids, want 3: %v", len(f), f.IDs())
	}

	if _, err := loadFilter(filepath.Join(t.TempDir(), "missing.txt"), nil); err == nil {
		t.Error("expected error for missing filter file")
	}
}

func TestParserFlagsApply(t *testing.T) {
	base := config.ParserConfig{
		Variant:     classifier.VariantLoose,
		Flush:       assembler.FlushAlways,
		ExtractMode: pdftext.ModeRows,
		HeaderPages: 3,
	}

	var pf parserFlags
	cmd := &cobra.Command{}
	pf.register(cmd)
	if err := cmd.Flags().Parse([]string{"--variant", "strict", "--sort", "--header-pages", "1"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got, err := pf.apply(cmd, base)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Variant != classifier.VariantStrict || !got.SortByPieces || got.HeaderPages != 1 {
		t.Errorf("flags not applied: %+v", got)
	}
	if got.Flush != assembler.FlushAlways || got.ExtractMode != pdftext.ModeRows {
		t.Errorf("unset flags changed the config: %+v", got)
	}

	var bad parserFlags
	cmd = &cobra.Command{}
	bad.register(cmd)
	_ = cmd.Flags().Parse([]string{"--flush", "sometimes"})
	if _, err := bad.apply(cmd, base); err == nil {
		t.Error("expected error for unknown flush policy")
	}
}

func TestOpenBackends(t *testing.T) {
	logger = zap.NewNop()
	c := &config.Config{}

	b, err := openBackends(context.Background(), backendFlags{}, c)
	if err != nil {
		t.Fatalf("openBackends: %v", err)
	}
	if b.store != nil || b.Sink() != nil {
		t.Error("expected no backends")
	}
	b.Close()

	b, err = openBackends(context.Background(), backendFlags{sqlite: filepath.Join(t.TempDir(), "m.db")}, c)
	if err != nil {
		t.Fatalf("openBackends: %v", err)
	}
	defer b.Close()
	if b.store == nil || len(b.sinks) != 1 {
		t.Errorf("expected sqlite store, got %d sinks", len(b.sinks))
	}
}

func TestRunHistory(t *testing.T) {
	logger = zap.NewNop()
	cfg = &config.Config{}
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	doc := manifest.NewDocument("manifest.pdf")
	doc.Header = manifest.Header{Origin: "CDG", FlightNo: "AF1234"}
	doc.Records = []manifest.ContainerRecord{{ID: "PMC12345AF"}}
	if _, err := db.SaveManifest(context.Background(), doc); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}
	_ = db.Close()

	historySQLite = path
	historyFlight = "AF1234"
	t.Cleanup(func() { historySQLite, historyFlight = "", "" })

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	if err := runHistory(cmd, nil); err != nil {
		t.Fatalf("runHistory: %v", err)
	}

	var list []storage.Summary
	if err := json.Unmarshal(out.Bytes(), &list); err != nil {
		t.Fatalf("decode output: %v (%s)", err, out.String())
	}
	if len(list) != 1 || list[0].ID != doc.ID || list[0].Containers != 1 {
		t.Errorf("unexpected history: %+v", list)
	}
}

func TestTraceDocument(t *testing.T) {
	pages := []manifest.Page{
		{Number: 1, Lines: []string{"PMCAB123", "111-22223333", "4", "10,0", "PAGE 1 OF 2"}},
		{Number: 2, Lines: []string{"111-22223334", "6", "20,0", "PAGE 2 OF 2"}},
	}

	var out bytes.Buffer
	traceDocument(&out, pages, assembler.Options{Variant: classifier.VariantLoose, Flush: assembler.FlushAlways})
	got := out.String()

	for _, want := range []string{
		"variant=loose flush=always",
		"--- page 2 (4 lines) ---",
		"PAGE 1 OF 2                              -> unrecognized",
		"--- 1 containers ---",
		"PMCAB123 awbs=2 pieces=10 weight=30,0",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("trace missing %q:\n%s", want, got)
		}
	}
}
