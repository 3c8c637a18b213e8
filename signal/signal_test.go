package signal_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/stream/signal"
)

func TestInterleavedAsStereo(t *testing.T) {
	tests := []struct {
		ints        []int
		numChannels int
		bitDepth    signal.BitDepth
		expected    []signal.Stereo
	}{
		{
			ints:        []int{1, 2, 1, 2, 1, 2},
			numChannels: 2,
			expected:    []signal.Stereo{{1, 2}, {1, 2}, {1, 2}},
		},
		{
			ints:        []int{1, 2, 1, 2, 1},
			numChannels: 2,
			expected:    []signal.Stereo{{1, 2}, {1, 2}},
		},
		{
			ints:        []int{3, 4},
			numChannels: 1,
			expected:    []signal.Stereo{{3, 3}, {4, 4}},
		},
		{
			ints:        []int{1, 2, 3, 4, 5, 6},
			numChannels: 3,
			expected:    []signal.Stereo{{1, 2}, {4, 5}},
		},
		{
			ints:        []int{math.MaxInt16, -math.MaxInt16},
			numChannels: 2,
			bitDepth:    signal.BitDepth16,
			expected:    []signal.Stereo{{1, -1}},
		},
		{
			ints:     nil,
			expected: []signal.Stereo{},
		},
		{
			ints:     []int{1, 2, 3},
			expected: []signal.Stereo{},
		},
	}

	for _, test := range tests {
		ints := signal.Interleaved{
			Data:        test.ints,
			NumChannels: test.numChannels,
			BitDepth:    test.bitDepth,
		}
		result := ints.AsStereo(nil)
		assert.Equal(t, len(test.expected), len(result))
		for i := range test.expected {
			assert.Equal(t, test.expected[i], result[i])
		}
	}
}

func TestFromStereo(t *testing.T) {
	tests := []struct {
		samples     []signal.Stereo
		numChannels int
		bitDepth    signal.BitDepth
		expected    []int
	}{
		{
			samples:     []signal.Stereo{{1, 2}, {3, 4}},
			numChannels: 2,
			expected:    []int{1, 2, 3, 4},
		},
		{
			samples:     []signal.Stereo{{1, 3}, {2, 4}},
			numChannels: 1,
			expected:    []int{2, 3},
		},
		{
			samples:     []signal.Stereo{{1, -1}},
			numChannels: 2,
			bitDepth:    signal.BitDepth16,
			expected:    []int{math.MaxInt16 - 1, -(math.MaxInt16 - 1)},
		},
		{
			samples:     nil,
			numChannels: 2,
			expected:    nil,
		},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, signal.FromStereo(test.samples, test.numChannels, test.bitDepth))
	}
}

func TestFromFloat64(t *testing.T) {
	assert.Equal(t, []int{126, -63}, signal.FromFloat64([]float64{1, -0.5}, signal.BitDepth8))
	assert.Nil(t, signal.FromFloat64(nil, signal.BitDepth8))
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(44100, 44100))
	assert.Equal(t, 500*time.Millisecond, signal.DurationOf(8000, 4000))
}

func TestStereo(t *testing.T) {
	s := signal.Stereo{0.25, -0.75}
	assert.Equal(t, 0.25, s.Left())
	assert.Equal(t, -0.75, s.Right())
}
