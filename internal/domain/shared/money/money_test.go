package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentOfRoundsHalfUp(t *testing.T) {
	cases := []struct {
		amount  int64
		percent float64
		want    int64
	}{
		{amount: 700, percent: 10, want: 70},
		{amount: 45, percent: 10, want: 5},
		{amount: 44, percent: 10, want: 4},
		{amount: 100, percent: 0, want: 0},
		{amount: 0, percent: 15, want: 0},
		{amount: -50, percent: 15, want: 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PercentOf(tc.amount, tc.percent), "%d at %v%%", tc.amount, tc.percent)
	}
}

func TestOfAndString(t *testing.T) {
	m := Of(120, " eur ")
	assert.Equal(t, "EUR", m.Currency)
	assert.Equal(t, "120 EUR", m.String())
	assert.Equal(t, "7", Money{Amount: 7}.String())
}

func TestPercentOfNeverExceedsAmount(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), PercentOf(math.MaxInt64, 100))
	assert.Equal(t, int64(500), PercentOf(500, 150))

	got := PercentOf(math.MaxInt64, 99.9999)
	assert.Positive(t, got)
	assert.LessOrEqual(t, got, int64(math.MaxInt64))
}
