package core

import (
	"errors"
	"testing"
)

func TestParseReferencePeriod(t *testing.T) {
	p, err := ParseReferencePeriod("03/2024")
	if err != nil || p.Month != 3 || p.Year != 2024 {
		t.Fatalf("unexpected period: %+v err=%v", p, err)
	}
	for _, bad := range []string{"", "2024", "13/2024", "aa/2024", "01/x", "1/2/3"} {
		if _, err := ParseReferencePeriod(bad); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("%q: expected ErrInvalidPeriod, got %v", bad, err)
		}
	}
}

func TestSortDividendsByPeriodDesc(t *testing.T) {
	divs := []Dividend{
		{Reference: "01/2024"},
		{Reference: "03/2024"},
		{Reference: "02/2024"},
	}
	SortDividendsByPeriodDesc(divs)
	want := []string{"03/2024", "02/2024", "01/2024"}
	for i, d := range divs {
		if d.Reference != want[i] {
			t.Fatalf("position %d: got %s want %s", i, d.Reference, want[i])
		}
	}
}

func TestSortDividendsAcrossYears(t *testing.T) {
	divs := []Dividend{
		{Reference: "12/2023"},
		{Reference: "bogus"},
		{Reference: "01/2024"},
		{Reference: "11/2023"},
	}
	SortDividendsByPeriodDesc(divs)
	want := []string{"01/2024", "12/2023", "11/2023", "bogus"}
	for i, d := range divs {
		if d.Reference != want[i] {
			t.Fatalf("position %d: got %s want %s", i, d.Reference, want[i])
		}
	}
}

func TestRecentIncome(t *testing.T) {
	var divs []Dividend
	for m := 1; m <= 12; m++ {
		divs = append(divs, Dividend{Type: DividendTypeIncome, Sector: "Logística", Reference: ReferencePeriod{Month: m, Year: 2023}.String()})
	}
	divs = append(divs,
		Dividend{Type: DividendTypeIncome, Sector: "Logística", Reference: "01/2024"},
		Dividend{Type: "Amortização", Sector: "Logística", Reference: "02/2024"},
		Dividend{Type: DividendTypeIncome, Sector: "", Reference: "03/2024"},
	)

	got := RecentIncome(divs, 12)
	if len(got) != 12 {
		t.Fatalf("expected 12 dividends, got %d", len(got))
	}
	if got[0].Reference != "01/2024" || got[11].Reference != "02/2023" {
		t.Fatalf("unexpected window: first=%s last=%s", got[0].Reference, got[11].Reference)
	}
	for _, d := range got {
		if !d.IsIncome() {
			t.Fatalf("non-income dividend retained: %+v", d)
		}
	}
}
