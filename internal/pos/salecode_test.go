package pos

import (
	"testing"
	"time"
)

func TestPaymentPrefix(t *testing.T) {
	cases := []struct {
		method string
		want   string
	}{
		{"Efectivo", "EF"},
		{"Transferencia", "TR"},
		{"Tarjeta", "TA"},
		{"Nequi", "NE"},
		{"Mixto", "MX"},
		{"quote", "COT"},
		{"Daviplata", "VT"},
		{"", "VT"},
	}
	for _, tc := range cases {
		if got := PaymentPrefix(tc.method); got != tc.want {
			t.Errorf("PaymentPrefix(%q) = %q, want %q", tc.method, got, tc.want)
		}
	}
}

func TestSaleCodeFormat(t *testing.T) {
	day := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	if got := SaleCode("EF", day, 7); got != "EF-20250314-007" {
		t.Errorf("SaleCode = %q, want EF-20250314-007", got)
	}
	if got := SaleCode("COT", day, 123); got != "COT-20250314-123" {
		t.Errorf("SaleCode = %q, want COT-20250314-123", got)
	}
}

func TestFallbackSaleCodeUsesTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 4, 5, 0, time.UTC)
	if got := FallbackSaleCode("EF", now); got != "EF-20250314-150405" {
		t.Errorf("FallbackSaleCode = %q, want EF-20250314-150405", got)
	}
}

func TestNextSequenceIncreasesStrictly(t *testing.T) {
	var codes []string
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	for want := 1; want <= 5; want++ {
		got := NextSequence(codes)
		if got != want {
			t.Fatalf("NextSequence after %d codes = %d, want %d", len(codes), got, want)
		}
		codes = append(codes, SaleCode("EF", day, got))
	}
}

func TestNextSequenceSkipsFallbackCodes(t *testing.T) {
	codes := []string{
		"EF-20250314-001",
		"EF-20250314-002",
		"EF-20250314-150405", // timestamp fallback, not part of the sequence
		"garbage",
	}
	if got := NextSequence(codes); got != 3 {
		t.Errorf("NextSequence = %d, want 3", got)
	}
}

func TestNextSequenceEmpty(t *testing.T) {
	if got := NextSequence(nil); got != 1 {
		t.Errorf("NextSequence(nil) = %d, want 1", got)
	}
}
