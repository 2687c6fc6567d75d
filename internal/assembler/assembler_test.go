package assembler

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"manifest_parser/internal/classifier"
	"manifest_parser/internal/manifest"
)

func TestParseLines_Scenario(t *testing.T) {
	lines := []string{"PMCAB123", "111-22223333", "4/10", "120,5", "PMCXY999"}

	records := New(Options{Flush: FlushAlways}).ParseLines(lines)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.ID != "PMCAB123" {
		t.Errorf("records[0].ID = %q, want PMCAB123", first.ID)
	}
	if len(first.Items) != 1 {
		t.Fatalf("records[0] has %d items, want 1", len(first.Items))
	}
	item := first.Items[0]
	if item.AWB != "111-22223333" || item.Pieces != 4 || !item.Weight.Equal(decimal.RequireFromString("120.5")) {
		t.Errorf("item = %+v", item)
	}

	second := records[1]
	if second.ID != "PMCXY999" || len(second.Items) != 0 {
		t.Errorf("records[1] = %+v, want empty PMCXY999", second)
	}
	if second.TotalPieces() != 0 || !second.TotalWeight().IsZero() {
		t.Errorf("empty container totals = %d / %s", second.TotalPieces(), second.TotalWeight())
	}
}

func TestParseLines_FlushNonEmpty(t *testing.T) {
	lines := []string{"PMCEMPTY1", "PMCAB123", "111-22223333", "4/10", "120,5", "PMCXY999"}

	records := New(Options{Flush: FlushNonEmpty}).ParseLines(lines)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].ID != "PMCAB123" {
		t.Errorf("records[0].ID = %q, want PMCAB123", records[0].ID)
	}
}

func TestParseLines_RejectedTripleDoesNotSwallowLines(t *testing.T) {
	lines := []string{
		"PMCAB123",
		"111-22223333", "4", "abc",
		"PMCXY999",
		"111-44445555", "2", "10,0",
	}

	records := New(Options{}).ParseLines(lines)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if len(records[0].Items) != 0 {
		t.Errorf("PMCAB123 items = %+v, want none", records[0].Items)
	}
	if len(records[1].Items) != 1 || records[1].Items[0].AWB != "111-44445555" {
		t.Errorf("PMCXY999 items = %+v", records[1].Items)
	}
}

func TestParseLines_RejectedTripleNextLineIsContainer(t *testing.T) {
	// The rejected AWB must not consume the container line that follows it.
	lines := []string{"PMCAB123", "111-22223333", "PMCXY999", "111-44445555", "1", "1"}

	records := New(Options{}).ParseLines(lines)
	if len(records) != 2 || records[1].ID != "PMCXY999" {
		t.Fatalf("records = %+v", records)
	}
	if records[1].TotalPieces() != 1 {
		t.Errorf("PMCXY999 pieces = %d, want 1", records[1].TotalPieces())
	}
}

func TestParseLines_ShipmentBeforeContainerDiscarded(t *testing.T) {
	lines := []string{"111-22223333", "4", "1,0", "PMCAB123", "057-12345675 2 3,5"}

	records := New(Options{Variant: classifier.VariantLoose}).ParseLines(lines)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if got := records[0].AWBs(); !reflect.DeepEqual(got, []string{"057-12345675"}) {
		t.Errorf("AWBs = %v", got)
	}
}

func TestParseLines_StrictIgnoresInline(t *testing.T) {
	lines := []string{"PMCAB123", "057-12345675 2 3,5", "PMC12345AF CDG"}

	records := New(Options{Variant: classifier.VariantStrict}).ParseLines(lines)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if len(records[0].Items) != 0 {
		t.Errorf("strict variant picked up inline item: %+v", records[0].Items)
	}
}

func TestParse_PageBoundaries(t *testing.T) {
	t.Run("container carries over", func(t *testing.T) {
		pages := []manifest.Page{
			{Number: 1, Lines: []string{"PMCAB123"}},
			{Number: 2, Lines: []string{"111-22223333", "4", "10"}},
		}
		records := Parse(pages, Options{})
		if len(records) != 1 || records[0].TotalPieces() != 4 {
			t.Fatalf("records = %+v", records)
		}
	})

	t.Run("triple does not span pages", func(t *testing.T) {
		pages := []manifest.Page{
			{Number: 1, Lines: []string{"PMCAB123", "111-22223333"}},
			{Number: 2, Lines: []string{"4", "10"}},
		}
		records := Parse(pages, Options{})
		if len(records) != 1 || len(records[0].Items) != 0 {
			t.Fatalf("records = %+v", records)
		}
	})
}

func TestParse_Empty(t *testing.T) {
	if records := Parse(nil, Options{}); len(records) != 0 {
		t.Errorf("Parse(nil) = %+v, want none", records)
	}
	if records := Parse([]manifest.Page{{Number: 1}}, Options{}); len(records) != 0 {
		t.Errorf("Parse(empty page) = %+v, want none", records)
	}
}

func TestParse_Idempotent(t *testing.T) {
	pages := samplePages()
	p := New(Options{})

	first := p.Parse(pages)
	second := p.Parse(pages)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("parses differ:\n%+v\n%+v", first, second)
	}
}

func TestParse_TotalsEqualItemSums(t *testing.T) {
	for _, flush := range []FlushPolicy{FlushAlways, FlushNonEmpty} {
		records := Parse(samplePages(), Options{Flush: flush})
		for _, r := range records {
			pieces := 0
			weight := decimal.Zero
			for _, it := range r.Items {
				pieces += it.Pieces
				weight = weight.Add(it.Weight)
			}
			if r.TotalPieces() != pieces {
				t.Errorf("%s: TotalPieces = %d, want %d", r.ID, r.TotalPieces(), pieces)
			}
			if r.TotalWeight().StringFixed(1) != weight.StringFixed(1) {
				t.Errorf("%s: TotalWeight = %s, want %s", r.ID, r.TotalWeight(), weight)
			}
		}
	}
}

func TestState_StepDoesNotMutate(t *testing.T) {
	var s State
	s = s.Step(classifier.Token{Kind: classifier.Container, ContainerID: "PMCAB123", Consumed: 1}, FlushAlways)

	item := manifest.ShipmentItem{AWB: "111-22223333", Pieces: 1, Weight: decimal.NewFromInt(1)}
	a := s.Step(classifier.Token{Kind: classifier.Shipment, Item: item, Consumed: 3}, FlushAlways)
	b := s.Step(classifier.Token{Kind: classifier.Shipment, Item: item, Consumed: 3}, FlushAlways)
	b = b.Step(classifier.Token{Kind: classifier.Shipment, Item: item, Consumed: 3}, FlushAlways)

	if got := len(a.Flush(FlushAlways).Completed()[0].Items); got != 1 {
		t.Errorf("a has %d items, want 1", got)
	}
	if got := len(b.Flush(FlushAlways).Completed()[0].Items); got != 2 {
		t.Errorf("b has %d items, want 2", got)
	}
	if id, open := s.Open(); !open || id != "PMCAB123" {
		t.Errorf("Open() = %q, %v", id, open)
	}
	if len(s.Completed()) != 0 {
		t.Errorf("original state was flushed: %+v", s.Completed())
	}
}

func TestState_Discarded(t *testing.T) {
	var s State
	s = s.Step(classifier.Token{Kind: classifier.Shipment, Consumed: 3}, FlushAlways)
	if s.Discarded != 1 {
		t.Errorf("Discarded = %d, want 1", s.Discarded)
	}
}

func TestParseFlushPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    FlushPolicy
		wantErr bool
	}{
		{"", FlushAlways, false},
		{"always", FlushAlways, false},
		{"non-empty", FlushNonEmpty, false},
		{"NONEMPTY", FlushNonEmpty, false},
		{"sometimes", FlushAlways, true},
	}
	for _, tt := range tests {
		got, err := ParseFlushPolicy(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFlushPolicy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFlushPolicy(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func samplePages() []manifest.Page {
	return []manifest.Page{
		{Number: 1, Lines: []string{
			"CARGO MANIFEST", "CDG", "Point of Loading:", "AF1234/16OCT", "Flight No./Date:",
			"PMC12345AF",
			"057-12345675", "4/10", "120,5",
			"057-99999999", "10", "1.234,5",
			"AKE98765LH 2/2",
			"057-11111111 3 33,3",
		}},
		{Number: 2, Lines: []string{
			"BULK",
			"057-12345675", "1/10", "30,1",
			"PMCEMPTY9",
		}},
	}
}
