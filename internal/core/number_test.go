package core

import (
	"encoding/json"
	"testing"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"0.82", 0.82, true},
		{"0,82", 0.82, true},
		{" 1.1% ", 1.1, true},
		{"250000.5", 250000.5, true},
		{"-0.3", -0.3, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseNumber(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestNumberUnmarshal(t *testing.T) {
	var f Fund
	payload := `{"ticker":"HGLG11","p_vpa":0.95,"liquidezmediadiaria":"1500000.25","valor":"","vpa":null,"pvp":"n/a"}`
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.PriceToBook != NewNumber(0.95) {
		t.Errorf("p_vpa = %+v", f.PriceToBook)
	}
	if f.DailyLiquidity != NewNumber(1500000.25) {
		t.Errorf("liquidity = %+v", f.DailyLiquidity)
	}
	if f.Price.Valid || f.BookValue.Valid || f.PVP.Valid {
		t.Errorf("expected unset numbers, got %+v %+v %+v", f.Price, f.BookValue, f.PVP)
	}
}

func TestNumberRoundTrip(t *testing.T) {
	in := Dividend{Type: DividendTypeIncome, Sector: "Logística", Reference: "03/2024", Yield: NewNumber(0.81)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Dividend
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestNumberHelpers(t *testing.T) {
	var unset Number
	if !unset.IsZero() || unset.Float64() != 0 || unset.String() != "" {
		t.Fatalf("unexpected unset number behaviour: %+v", unset)
	}
	if NewNumber(0).IsZero() != true || NewNumber(1.5).IsZero() {
		t.Fatal("IsZero mismatch")
	}
	if NewNumber(1.5).String() != "1.5" {
		t.Fatalf("String = %q", NewNumber(1.5).String())
	}
}
