package manifest

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestContainerRecord_Totals(t *testing.T) {
	rec := ContainerRecord{
		ID: "PMC12345AF",
		Items: []ShipmentItem{
			{AWB: "057-12345675", Pieces: 4, Weight: decimal.RequireFromString("120.5")},
			{AWB: "057-99999999", Pieces: 10, Weight: decimal.RequireFromString("0.3")},
		},
	}

	if got := rec.TotalPieces(); got != 14 {
		t.Errorf("TotalPieces = %d, want 14", got)
	}
	if got := rec.TotalWeight().String(); got != "120.8" {
		t.Errorf("TotalWeight = %s, want 120.8", got)
	}
	awbs := rec.AWBs()
	if len(awbs) != 2 || awbs[0] != "057-12345675" || awbs[1] != "057-99999999" {
		t.Errorf("AWBs = %v", awbs)
	}
}

func TestContainerRecord_Empty(t *testing.T) {
	rec := ContainerRecord{ID: "BULK"}
	if rec.TotalPieces() != 0 {
		t.Errorf("TotalPieces = %d, want 0", rec.TotalPieces())
	}
	if !rec.TotalWeight().IsZero() {
		t.Errorf("TotalWeight = %s, want 0", rec.TotalWeight())
	}
}

func TestFormatWeight(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"120.5", "120,5"},
		{"120", "120,0"},
		{"0", "0,0"},
		{"1234.56", "1234,6"},
		{"0.04", "0,0"},
	}

	for _, tt := range tests {
		if got := FormatWeight(decimal.RequireFromString(tt.input)); got != tt.want {
			t.Errorf("FormatWeight(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRow_Cells(t *testing.T) {
	row := Row{
		Origin:       "CDG",
		FlightNo:     "AF1234",
		ContainerID:  "PMC12345AF",
		TotalWeight:  decimal.RequireFromString("130.5"),
		TotalPieces:  6,
		AWBs:         []string{"057-12345675", "057-99999999"},
		PiecesPerAWB: []int{4, 2},
		WeightPerAWB: []decimal.Decimal{decimal.RequireFromString("120.5"), decimal.RequireFromString("10")},
		AWBTotals:    []int{4, 7},
	}

	tests := map[string]string{
		ColOrigin:       "CDG",
		ColFlightNo:     "AF1234",
		ColContainerID:  "PMC12345AF",
		ColTotalWeight:  "130,5",
		ColTotalPieces:  "6",
		ColAWBList:      "057-12345675\n057-99999999",
		ColPiecesPerAWB: "4\n2",
		ColWeightPerAWB: "120,5\n10,0",
		ColAWBCount:     "2",
		ColAWBTotals:    "4\n7",
		ColLocation:     "",
	}

	for col, want := range tests {
		if got := row.Cell(col); got != want {
			t.Errorf("Cell(%s) = %q, want %q", col, got, want)
		}
	}
}

func TestRow_MarshalJSON(t *testing.T) {
	row := Row{
		Origin:      "CDG",
		FlightNo:    "AF1234",
		ContainerID: "PMCXY999",
		TotalWeight: decimal.Zero,
	}

	b, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["total_weight_kg"] != "0,0" {
		t.Errorf("total_weight_kg = %v, want 0,0", got["total_weight_kg"])
	}
	if got["awb_count"] != float64(0) {
		t.Errorf("awb_count = %v, want 0", got["awb_count"])
	}
	if awbs, ok := got["awbs"].([]any); !ok || len(awbs) != 0 {
		t.Errorf("awbs = %v, want empty list", got["awbs"])
	}
}

func TestNewDocument(t *testing.T) {
	a := NewDocument("a.pdf")
	b := NewDocument("a.pdf")
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
	if a.Header != DefaultHeader() {
		t.Errorf("Header = %+v, want defaults", a.Header)
	}
	if !a.Empty() {
		t.Error("new document should be empty")
	}
}

func TestRow_JSONRoundTrip(t *testing.T) {
	row := Row{
		ContainerID:  "PMC12345AF",
		TotalWeight:  decimal.RequireFromString("130.5"),
		TotalPieces:  6,
		AWBs:         []string{"057-12345675", "057-99999999"},
		PiecesPerAWB: []int{4, 2},
		WeightPerAWB: []decimal.Decimal{decimal.RequireFromString("120.5"), decimal.RequireFromString("10")},
	}

	b, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Row
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.ContainerID != row.ContainerID || got.TotalPieces != 6 || got.AWBCount() != 2 {
		t.Errorf("got %+v", got)
	}
	if !got.TotalWeight.Equal(row.TotalWeight) || !got.WeightPerAWB[1].Equal(decimal.NewFromInt(10)) {
		t.Errorf("weights = %s %v", got.TotalWeight, got.WeightPerAWB)
	}
}
