// Package signal provides conversions between PCM samples and stream
// tokens. It allows to:
// 	- convert interleaved int samples to stereo float64 tokens
//	- convert stereo tokens back to interleaved int samples of a bit depth
package signal

import (
	"math"
	"time"
)

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// Stereo is a single stereo sample. Mono signals have equal channels.
type Stereo [2]float64

// Left channel value.
func (s Stereo) Left() float64 {
	return s[0]
}

// Right channel value.
func (s Stereo) Right() float64 {
	return s[1]
}

// devider is used when int to float conversion is done.
func (bitDepth BitDepth) devider() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth24:
		return 1<<23 - 2
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// Interleaved is an interleaved int signal.
type Interleaved struct {
	Data        []int
	NumChannels int
	BitDepth
}

// Frames returns the number of complete multi-channel frames.
func (ints Interleaved) Frames() int {
	if ints.NumChannels == 0 {
		return 0
	}
	return len(ints.Data) / ints.NumChannels
}

// AsStereo converts interleaved int signal into dst. Mono is duplicated
// into both channels, channels above two are dropped. Incomplete
// trailing frame is ignored.
func (ints Interleaved) AsStereo(dst []Stereo) []Stereo {
	frames := ints.Frames()
	if frames == 0 {
		return dst[:0]
	}
	if cap(dst) < frames {
		dst = make([]Stereo, frames)
	}
	dst = dst[:frames]

	devider := float64(ints.BitDepth.devider())
	for i := range dst {
		pos := i * ints.NumChannels
		left := float64(ints.Data[pos]) / devider
		right := left
		if ints.NumChannels > 1 {
			right = float64(ints.Data[pos+1]) / devider
		}
		dst[i] = Stereo{left, right}
	}
	return dst
}

// FromStereo converts stereo samples into interleaved ints of the bit
// depth with numChannels channels. Mono output takes the mean of both
// channels.
func FromStereo(samples []Stereo, numChannels int, bitDepth BitDepth) []int {
	if numChannels < 1 || len(samples) == 0 {
		return nil
	}
	multiplier := float64(bitDepth.multiplier())
	ints := make([]int, len(samples)*numChannels)
	for i, s := range samples {
		if numChannels == 1 {
			ints[i] = int((s[0] + s[1]) / 2 * multiplier)
			continue
		}
		ints[i*numChannels] = int(s[0] * multiplier)
		ints[i*numChannels+1] = int(s[1] * multiplier)
	}
	return ints
}

// FromFloat64 converts mono samples into ints of the bit depth.
func FromFloat64(samples []float64, bitDepth BitDepth) []int {
	if len(samples) == 0 {
		return nil
	}
	multiplier := float64(bitDepth.multiplier())
	ints := make([]int, len(samples))
	for i, s := range samples {
		ints[i] = int(s * multiplier)
	}
	return ints
}
