package fx

import "testing"

func TestToUSDPassesThroughUSD(t *testing.T) {
	got, ok := ToUSD(250, USD, 12800, 12600)
	if !ok || got != 250 {
		t.Fatalf("expected 250 reliable, got %v ok=%v", got, ok)
	}
}

func TestToUSDPrefersSnapshotRate(t *testing.T) {
	got, ok := ToUSD(128000, "UZS", 12800, 10000)
	if !ok || got != 10 {
		t.Fatalf("expected 10 via snapshot rate, got %v ok=%v", got, ok)
	}
}

func TestToUSDFallsBackToDefaultRate(t *testing.T) {
	got, ok := ToUSD(126000, "UZS", 0, 12600)
	if !ok || got != 10 {
		t.Fatalf("expected 10 via default rate, got %v ok=%v", got, ok)
	}
	got, ok = ToUSD(126000, "UZS", -5, 12600)
	if !ok || got != 10 {
		t.Fatalf("negative snapshot rate must degrade to default, got %v ok=%v", got, ok)
	}
}

func TestToUSDDegradesToZeroWhenNoRateUsable(t *testing.T) {
	got, ok := ToUSD(126000, "UZS", 0, 0)
	if ok || got != 0 {
		t.Fatalf("expected unreliable zero, got %v ok=%v", got, ok)
	}
}

func TestFromUSDMirrorsRatePreference(t *testing.T) {
	got, ok := FromUSD(10, "UZS", 12800, 12600)
	if !ok || got != 128000 {
		t.Fatalf("expected 128000, got %v ok=%v", got, ok)
	}
	got, ok = FromUSD(10, "UZS", 0, 12600)
	if !ok || got != 126000 {
		t.Fatalf("expected 126000, got %v ok=%v", got, ok)
	}
	if _, ok := FromUSD(10, "UZS", 0, 0); ok {
		t.Fatalf("expected unreliable conversion")
	}
}
