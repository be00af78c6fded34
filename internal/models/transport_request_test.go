package models

import (
	"testing"
	"time"
)

func TestComputeLoadingMeters(t *testing.T) {
	tests := []struct {
		name     string
		lengthCm float64
		widthCm  float64
		quantity int
		want     float64
	}{
		{"single euro pallet", 120, 80, 1, 1.2},
		{"three pallets fill one row", 120, 80, 3, 1.2},
		{"fourth pallet starts a second row", 120, 80, 4, 2.4},
		{"six pallets in two rows", 120, 80, 6, 2.4},
		{"oversize width forces one per row", 120, 250, 2, 2.4},
		{"capped at trailer length", 1000, 200, 3, MaxLoadingMeters},
		{"zero quantity", 120, 80, 0, 0},
		{"zero length", 0, 80, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeLoadingMeters(tt.lengthCm, tt.widthCm, tt.quantity); got != tt.want {
				t.Errorf("ComputeLoadingMeters(%v, %v, %d) = %v; want %v",
					tt.lengthCm, tt.widthCm, tt.quantity, got, tt.want)
			}
		})
	}
}

func TestQuoteExpired(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	pending := &Quote{Status: QuoteStatusPending, ValidUntil: now.Add(time.Hour)}
	if pending.Expired(now) {
		t.Error("a pending quote inside its validity window is not expired")
	}

	pending.ValidUntil = now.Add(-time.Minute)
	if !pending.Expired(now) {
		t.Error("a pending quote past its deadline is expired")
	}

	// Expiry is a read on pending quotes only; settled quotes never expire.
	accepted := &Quote{Status: QuoteStatusAccepted, ValidUntil: now.Add(-time.Hour)}
	if accepted.Expired(now) {
		t.Error("an accepted quote is never expired")
	}
}
