package classifier

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		variant   Variant
		lines     []string
		index     int
		kind      Kind
		consumed  int
		container string
		awb       string
		pieces    int
		weight    string
	}{
		{
			name: "strict container", variant: VariantStrict,
			lines: []string{"PMCAB123"}, kind: Container, consumed: 1, container: "PMCAB123",
		},
		{
			name: "strict rejects trailing text", variant: VariantStrict,
			lines: []string{"PMC12345AF 3/4"}, kind: Unrecognized, consumed: 1,
		},
		{
			name: "loose container first token", variant: VariantLoose,
			lines: []string{"PMC12345AF 3/4 CDG"}, kind: Container, consumed: 1, container: "PMC12345AF",
		},
		{
			name: "bulk", variant: VariantStrict,
			lines: []string{"BULK"}, kind: Container, consumed: 1, container: "BULK",
		},
		{
			name: "lowercase is noise", variant: VariantLoose,
			lines: []string{"pmc12345af"}, kind: Unrecognized, consumed: 1,
		},
		{
			name: "triple", variant: VariantStrict,
			lines: []string{"111-22223333", "4/10", "120,5"},
			kind:  Shipment, consumed: 3, awb: "111-22223333", pieces: 4, weight: "120.5",
		},
		{
			name: "triple with dot weight", variant: VariantLoose,
			lines: []string{"057-12345675", "12", "1.234,5"},
			kind:  Shipment, consumed: 3, awb: "057-12345675", pieces: 12, weight: "1234.5",
		},
		{
			name: "triple needs two lookahead lines", variant: VariantLoose,
			lines: []string{"111-22223333", "4/10"}, kind: Unrecognized, consumed: 1,
		},
		{
			name: "triple at cursor", variant: VariantLoose,
			lines: []string{"PMCAB123", "111-22223333", "4", "10"}, index: 1,
			kind: Shipment, consumed: 3, awb: "111-22223333", pieces: 4, weight: "10",
		},
		{
			name: "inline", variant: VariantLoose,
			lines: []string{"057-12345675 4/10 120,5"},
			kind:  Shipment, consumed: 1, awb: "057-12345675", pieces: 4, weight: "120.5",
		},
		{
			name: "inline half kilo", variant: VariantLoose,
			lines: []string{"111-22223334 2 0.500"},
			kind:  Shipment, consumed: 1, awb: "111-22223334", pieces: 2, weight: "0.5",
		},
		{
			name: "inline with trailing column", variant: VariantLoose,
			lines: []string{"111-22223333 4/10 120,5 CONSOL"},
			kind:  Shipment, consumed: 1, awb: "111-22223333", pieces: 4, weight: "120.5",
		},
		{
			name: "page footer is noise", variant: VariantLoose,
			lines: []string{"PAGE 1 OF 2"}, kind: Unrecognized, consumed: 1,
		},
		{
			name: "page footer is noise in strict", variant: VariantStrict,
			lines: []string{"PAGE"}, kind: Unrecognized, consumed: 1,
		},
		{
			name: "inline not in strict", variant: VariantStrict,
			lines: []string{"057-12345675 4/10 120,5"}, kind: Unrecognized, consumed: 1,
		},
		{
			name: "noise", variant: VariantLoose,
			lines: []string{"Total Weight:"}, kind: Unrecognized, consumed: 1,
		},
		{
			name: "cursor out of range", variant: VariantLoose,
			lines: []string{"PMCAB123"}, index: 5, kind: Unrecognized, consumed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := New(tt.variant).Classify(tt.lines, tt.index)
			if tok.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", tok.Kind, tt.kind)
			}
			if tok.Consumed != tt.consumed {
				t.Errorf("Consumed = %d, want %d", tok.Consumed, tt.consumed)
			}
			switch tt.kind {
			case Container:
				if tok.ContainerID != tt.container {
					t.Errorf("ContainerID = %q, want %q", tok.ContainerID, tt.container)
				}
			case Shipment:
				if tok.Item.AWB != tt.awb {
					t.Errorf("AWB = %q, want %q", tok.Item.AWB, tt.awb)
				}
				if tok.Item.Pieces != tt.pieces {
					t.Errorf("Pieces = %d, want %d", tok.Item.Pieces, tt.pieces)
				}
				if tok.Item.Weight.String() != tt.weight {
					t.Errorf("Weight = %s, want %s", tok.Item.Weight, tt.weight)
				}
			}
		})
	}
}

func TestClassify_RejectsNonNumericWeight(t *testing.T) {
	lines := []string{"111-22223333", "4", "abc", "PMCXY999"}
	c := New(VariantLoose)

	tok := c.Classify(lines, 0)
	if tok.Kind != Unrecognized {
		t.Fatalf("Kind = %v, want unrecognized", tok.Kind)
	}
	if tok.Consumed != 1 {
		t.Errorf("Consumed = %d, want 1", tok.Consumed)
	}
	if !errors.Is(tok.Err, ErrMalformedWeight) {
		t.Errorf("Err = %v, want ErrMalformedWeight", tok.Err)
	}
}

func TestClassify_RejectsNonNumericPieces(t *testing.T) {
	tok := New(VariantStrict).Classify([]string{"111-22223333", "PCS", "12,0"}, 0)
	if tok.Kind != Unrecognized || tok.Consumed != 1 {
		t.Fatalf("got %v consuming %d, want unrecognized consuming 1", tok.Kind, tok.Consumed)
	}
	if !errors.Is(tok.Err, ErrMalformedPieces) {
		t.Errorf("Err = %v, want ErrMalformedPieces", tok.Err)
	}
}

func TestClassify_ContainerBeatsShipment(t *testing.T) {
	c := New(VariantLoose)
	rules := c.Rules()
	if len(rules) != 3 {
		t.Fatalf("loose classifier has %d rules, want 3", len(rules))
	}
	if rules[0].Name() != RuleContainer {
		t.Errorf("first rule = %s, want %s", rules[0].Name(), RuleContainer)
	}
	for i := 1; i < len(rules); i++ {
		if rules[i-1].Priority() > rules[i].Priority() {
			t.Errorf("rules out of order at %d", i)
		}
	}
}

func TestParseTriple(t *testing.T) {
	item, err := ParseTriple("057-12345675", "4/10", "120,5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Pieces != 4 || item.Weight.String() != "120.5" {
		t.Errorf("item = %+v", item)
	}

	if _, err := ParseTriple("057-12345675", "x", "120,5"); !errors.Is(err, ErrMalformedPieces) {
		t.Errorf("err = %v, want ErrMalformedPieces", err)
	}
	if _, err := ParseTriple("057-12345675", "4", ""); !errors.Is(err, ErrMalformedWeight) {
		t.Errorf("err = %v, want ErrMalformedWeight", err)
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		input   string
		want    Variant
		wantErr bool
	}{
		{"", VariantLoose, false},
		{"loose", VariantLoose, false},
		{"STRICT", VariantStrict, false},
		{"fuzzy", VariantLoose, true},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVariant(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVariant(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTrace(t *testing.T) {
	lines := []string{"111-22223333", "4", "abc"}
	tr := New(VariantLoose).Trace(lines, 0)

	if tr.Token.Kind != Unrecognized {
		t.Errorf("Token.Kind = %v, want unrecognized", tr.Token.Kind)
	}
	if len(tr.Rules) != 3 {
		t.Fatalf("got %d rule traces, want 3", len(tr.Rules))
	}

	container := tr.Rules[0]
	if container.QuickCheck.Passed {
		t.Error("container quick check should fail for an AWB line")
	}

	triple := tr.Rules[1]
	if !triple.QuickCheck.Passed || triple.Matched {
		t.Errorf("triple trace = %+v, want quick check passed and no match", triple)
	}
	if !errors.Is(triple.Err, ErrMalformedWeight) {
		t.Errorf("triple Err = %v, want ErrMalformedWeight", triple.Err)
	}
	if len(triple.Formats) != 3 || !triple.Formats[0].Matched || triple.Formats[2].Matched {
		t.Errorf("triple formats = %+v", triple.Formats)
	}
}

func TestTrace_Match(t *testing.T) {
	tr := New(VariantStrict).Trace([]string{"AKE98765LH"}, 0)
	if tr.Token.Kind != Container || tr.Token.ContainerID != "AKE98765LH" {
		t.Errorf("Token = %+v", tr.Token)
	}
	if !tr.Rules[0].Matched || len(tr.Rules[0].Formats) != 1 {
		t.Errorf("container trace = %+v", tr.Rules[0])
	}
}
