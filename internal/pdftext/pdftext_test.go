package pdftext

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestExtract_Errors(t *testing.T) {
	if _, err := Extract(nil, ModeRows); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Extract(nil) error = %v, want ErrEmptyContent", err)
	}
	if _, err := Extract([]byte("this is not a pdf"), ModeRows); !errors.Is(err, ErrOpen) {
		t.Errorf("Extract(text) error = %v, want ErrOpen", err)
	}
}

func TestExtractFile_Missing(t *testing.T) {
	if _, err := ExtractFile("does-not-exist.pdf", ModeRows); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", ModeFragments, false},
		{"rows", ModeRows, false},
		{"Fragments", ModeFragments, false},
		{"plain", ModePlain, false},
		{"ocr", ModeFragments, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines(" PMC12345AF \r\n\n057-12345675\n  4/10\n120,5  \n")
	want := []string{"PMC12345AF", "057-12345675", "4/10", "120,5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLines = %q, want %q", got, want)
	}
	if got := SplitLines("   "); got != nil {
		t.Errorf("SplitLines(blank) = %q, want nil", got)
	}
}

func TestRowLines(t *testing.T) {
	rows := pdf.Rows{
		{Position: 700, Content: pdf.TextHorizontal{
			{X: 200, Y: 700, S: "4/10"},
			{X: 50, Y: 700, S: "057-12345675"},
			{X: 300, Y: 700, S: "120,5"},
		}},
		{Position: 680, Content: pdf.TextHorizontal{{X: 50, Y: 680, S: "  "}}},
		{Position: 660, Content: pdf.TextHorizontal{{X: 50, Y: 660, S: "PMCXY999"}}},
	}

	got := rowLines(rows)
	want := []string{"057-12345675 4/10 120,5", "PMCXY999"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rowLines = %q, want %q", got, want)
	}
}

func TestFragmentLines(t *testing.T) {
	tests := []struct {
		name  string
		texts []pdf.Text
		want  []string
	}{
		{
			name: "adjacent runs merge",
			texts: []pdf.Text{
				{X: 10, Y: 700, W: 18, FontSize: 9, S: "PMC"},
				{X: 28, Y: 700, W: 30, FontSize: 9, S: "AB123"},
				{X: 10, Y: 690, W: 60, FontSize: 9, S: "111-22223333"},
				{X: 10, Y: 680, W: 20, FontSize: 9, S: "4/10"},
				{X: 30, Y: 680, W: 3, FontSize: 9, S: " "},
				{X: 10, Y: 670, W: 25, FontSize: 9, S: "120,5"},
			},
			want: []string{"PMCAB123", "111-22223333", "4/10", "120,5"},
		},
		{
			name: "word spacing stays in one fragment",
			texts: []pdf.Text{
				{X: 10, Y: 700, W: 25, FontSize: 9, S: "PAGE"},
				{X: 38, Y: 700, W: 5, FontSize: 9, S: "1"},
			},
			want: []string{"PAGE 1"},
		},
		{
			name: "column cells on one baseline",
			texts: []pdf.Text{
				{X: 10, Y: 700, W: 60, FontSize: 9, S: "111-22223333"},
				{X: 200, Y: 700, W: 20, FontSize: 9, S: "4/10"},
				{X: 300, Y: 700, W: 25, FontSize: 9, S: "120,5"},
				{X: 400, Y: 700, W: 30, FontSize: 9, S: "CONSOL"},
			},
			want: []string{"111-22223333", "4/10", "120,5", "CONSOL"},
		},
		{
			name: "unknown widths split on the minimum gap",
			texts: []pdf.Text{
				{X: 10, Y: 700, S: "111-22223333"},
				{X: 200, Y: 700, S: "4/10"},
				{X: 300, Y: 700, S: "120,5"},
			},
			want: []string{"111-22223333", "4/10", "120,5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fragmentLines(tt.texts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("fragmentLines = %q, want %q", got, tt.want)
			}
		})
	}
}
