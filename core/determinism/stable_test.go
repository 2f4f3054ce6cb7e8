package determinism

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestGenerateIsStable(t *testing.T) {
	g := NewIDGenerator("lattice")

	a := g.Generate("100", "0.2", "PUT")
	b := g.Generate("100", "0.2", "PUT")
	if a != b {
		t.Fatalf("same parts produced %s and %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %d", len(a))
	}

	// The separator keeps ("1","00") and ("10","0") apart
	if g.Generate("1", "00") == g.Generate("10", "0") {
		t.Error("part boundaries collapsed")
	}
	if NewIDGenerator("other").Generate("100") == g.Generate("100") {
		t.Error("namespaces collided")
	}
}

func TestCanonicalFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100, "100"},
		{0.1, "0.1"},
		{1.0 / 365, "0.0027397260273972603"},
		{1e-300, "1e-300"},
	}
	for _, tt := range tests {
		if got := CanonicalFloat(tt.in); got != tt.want {
			t.Errorf("CanonicalFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	m := NewMoneyFromFloat(6.065049840701117, "USD").Mul(decimal.NewFromInt(300))
	if got := m.StringFixed(2); got != "1819.51" {
		t.Errorf("StringFixed(2) = %s, want 1819.51", got)
	}

	total := Zero("USD").Add(m).Add(NewMoneyFromFloat(-19.51, "USD"))
	if got := total.Round(2).String(); got != "1800.00 USD" {
		t.Errorf("total = %s, want 1800.00 USD", got)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("adding USD to EUR should panic")
		}
	}()
	Zero("USD").Add(Zero("EUR"))
}

func TestSortedKeys(t *testing.T) {
	keys := SortedKeys(map[string]int{"USD": 1, "EUR": 2, "CHF": 3})
	want := []string{"CHF", "EUR", "USD"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("SortedKeys = %v, want %v", keys, want)
		}
	}
}
