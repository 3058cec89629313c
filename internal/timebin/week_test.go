package timebin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMinuteOfWeek(t *testing.T) {
	tests := []struct {
		name     string
		t        time.Time
		expected int
	}{
		{"monday midnight", time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), 0},
		{"monday 08:20", time.Date(2025, 1, 6, 8, 20, 0, 0, time.UTC), 500},
		{"wednesday 14:47", time.Date(2025, 1, 8, 14, 47, 0, 0, time.UTC), 2*MinutesPerDay + 14*60 + 47},
		{"sunday 23:59", time.Date(2025, 1, 12, 23, 59, 0, 0, time.UTC), MinutesPerWeek - 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, MinuteOfWeek(tt.t), tt.name)
	}
}

func TestFloorToBin(t *testing.T) {
	assert.Equal(t, 500, FloorToBin(519, BinMinutes))
	assert.Equal(t, 520, FloorToBin(520, BinMinutes))
	assert.Equal(t, 17, FloorToBin(17, 0))
}

func TestCyclicDistance(t *testing.T) {
	assert.Equal(t, 0, CyclicDistance(40, 40))
	assert.Equal(t, 30, CyclicDistance(10, 40))
	assert.Equal(t, 20, CyclicDistance(10, MinutesPerWeek-10))
	assert.Equal(t, MinutesPerWeek/2, CyclicDistance(0, MinutesPerWeek/2))
}

func TestClosestIndex(t *testing.T) {
	minutes := []int{0, 20, 40, 5000, 10060}

	for k, m := range minutes {
		assert.Equal(t, k, ClosestIndex(minutes, m), "exact hit %d", k)
	}

	assert.Equal(t, 1, ClosestIndex(minutes, 25))
	// 10075 is 5 from 0 across the wrap and 15 from 10060.
	assert.Equal(t, 0, ClosestIndex(minutes, 10075))
	assert.Equal(t, -1, ClosestIndex(nil, 10))
}

func TestClosestIndex_TieKeepsFirst(t *testing.T) {
	minutes := []int{0, MinutesPerWeek / 2}
	assert.Equal(t, 0, ClosestIndex(minutes, MinutesPerWeek/4))
	assert.Equal(t, 0, ClosestIndex(minutes, 3*MinutesPerWeek/4))

	// Equidistant neighbours: first entry wins.
	assert.Equal(t, 0, ClosestIndex([]int{20, 60}, 40))
}

func TestSameDayIndices(t *testing.T) {
	minutes := []int{0, 700, 1439, 1440, 2000, 2879, 2880}
	assert.Equal(t, []int{0, 1, 2}, SameDayIndices(minutes, 1))
	assert.Equal(t, []int{3, 4, 5}, SameDayIndices(minutes, 4))
	assert.Equal(t, []int{6}, SameDayIndices(minutes, 6))
	assert.Nil(t, SameDayIndices(minutes, 7))
	assert.Nil(t, SameDayIndices(minutes, -1))
}
