package refund

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Compute(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := NewStandardPolicy()

	tests := []struct {
		name    string
		elapsed time.Duration
		paid    int64
		want    Decision
	}{
		{"one day", 24 * time.Hour, 20000, Decision{18000, StatusPending}},
		{"immediately", 0, 15000, Decision{13500, StatusPending}},
		{"exact boundary", 48 * time.Hour, 20000, Decision{18000, StatusPending}},
		{"just past boundary", 48*time.Hour + time.Second, 20000, Decision{0, StatusNotEligible}},
		{"three days", 72 * time.Hour, 20000, Decision{0, StatusNotEligible}},
		{"nothing paid", time.Hour, 0, Decision{0, StatusPending}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Compute(created, tt.paid, created.Add(tt.elapsed))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPercentOf_BankersRounding(t *testing.T) {
	// 5 * 90 = 450 -> 4.50 -> 4 (even)
	assert.Equal(t, int64(4), percentOf(5, 90))
	// 15 * 90 = 1350 -> 13.50 -> 14 (even)
	assert.Equal(t, int64(14), percentOf(15, 90))
	// 7 * 90 = 630 -> 6.30 -> 6
	assert.Equal(t, int64(6), percentOf(7, 90))
	// 9 * 90 = 810 -> 8.10 -> 8
	assert.Equal(t, int64(8), percentOf(9, 90))
	// 11 * 90 = 990 -> 9.90 -> 10
	assert.Equal(t, int64(10), percentOf(11, 90))
	assert.Equal(t, int64(0), percentOf(-100, 90))
}

func TestPolicy_CustomWindow(t *testing.T) {
	p := Policy{Window: 72 * time.Hour, Percent: 50}
	created := time.Now()

	got := p.Compute(created, 10001, created.Add(60*time.Hour))
	// 10001 * 50 = 500050 -> 5000.50 -> 5000 (even)
	assert.Equal(t, Decision{5000, StatusPending}, got)
}

func TestStatus_IsValid(t *testing.T) {
	assert.True(t, StatusRefunded.IsValid())
	assert.False(t, Status("refunded").IsValid())
}
