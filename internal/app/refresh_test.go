package app

import (
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	base := 30 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 30 * time.Second},
		{"negative failures", -1, 30 * time.Second},
		{"one failure", 1, time.Minute},
		{"two failures", 2, 2 * time.Minute},
		{"three failures", 3, 4 * time.Minute},
		{"four failures", 4, 8 * time.Minute},
		{"five failures capped", 5, 10 * time.Minute},
		{"many failures capped", 20, 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, base)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, base, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoffNeverExceedsCap(t *testing.T) {
	for failures := 0; failures <= 30; failures++ {
		if got := calculateBackoff(failures, retryBase); got > maxBackoff {
			t.Errorf("calculateBackoff(%d) = %v, exceeds %v", failures, got, maxBackoff)
		}
	}
}
