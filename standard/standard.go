// Package standard provides one-shot computations shared by streaming
// algorithms. Every function works on a complete input and returns a
// complete output.
package standard

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmpty is returned when input has no values.
	ErrEmpty = errors.New("empty input")
	// ErrSize is returned when input size does not match configuration.
	ErrSize = errors.New("invalid input size")
	// ErrWindowType is returned for unknown window types.
	ErrWindowType = errors.New("unknown window type")
)

// WindowTypes lists supported window types.
var WindowTypes = []string{"hann", "hamming", "triangular", "square", "blackmanharris62", "blackmanharris92"}

// Window returns the window of the type and size.
func Window(kind string, size int) ([]float64, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: window of %d", ErrSize, size)
	}
	w := make([]float64, size)
	if size == 1 {
		w[0] = 1
		return w, nil
	}
	n := float64(size - 1)
	for i := range w {
		x := float64(i)
		switch kind {
		case "hann":
			w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*x/n)
		case "hamming":
			w[i] = 0.53836 - 0.46164*math.Cos(2*math.Pi*x/n)
		case "triangular":
			w[i] = 2 / float64(size) * (float64(size)/2 - math.Abs(x-n/2))
		case "square":
			w[i] = 1
		case "blackmanharris62":
			w[i] = blackmanHarris(x, n, 0.44959, 0.49364, 0.05677, 0)
		case "blackmanharris92":
			w[i] = blackmanHarris(x, n, 0.35875, 0.48829, 0.14128, 0.01168)
		default:
			return nil, fmt.Errorf("%w: %q", ErrWindowType, kind)
		}
	}
	return w, nil
}

func blackmanHarris(x, n, a0, a1, a2, a3 float64) float64 {
	f := 2 * math.Pi * x / n
	return a0 - a1*math.Cos(f) + a2*math.Cos(2*f) - a3*math.Cos(3*f)
}

// Windowing applies a window to frames of fixed size.
type Windowing struct {
	window      []float64
	zeroPadding int
	zeroPhase   bool
}

// NewWindowing returns windowing for frames of size. Windowed frames are
// padded with zeroPadding zeros. Normalized windows have an area of 2.
// Zero-phase windowing centers the frame at the first sample.
func NewWindowing(kind string, size, zeroPadding int, normalized, zeroPhase bool) (*Windowing, error) {
	w, err := Window(kind, size)
	if err != nil {
		return nil, err
	}
	if zeroPadding < 0 {
		return nil, fmt.Errorf("%w: negative zero padding", ErrSize)
	}
	if sum := floats.Sum(w); normalized && sum > 0 {
		floats.Scale(2/sum, w)
	}
	return &Windowing{window: w, zeroPadding: zeroPadding, zeroPhase: zeroPhase}, nil
}

// Size returns the size of windowed frames.
func (w *Windowing) Size() int {
	return len(w.window) + w.zeroPadding
}

// FrameSize returns the size of input frames.
func (w *Windowing) FrameSize() int {
	return len(w.window)
}

// Compute writes the windowed frame into dst, reallocating it if it is
// too short.
func (w *Windowing) Compute(dst, frame []float64) ([]float64, error) {
	if len(frame) != len(w.window) {
		return nil, fmt.Errorf("%w: frame of %d for window of %d", ErrSize, len(frame), len(w.window))
	}
	if cap(dst) < w.Size() {
		dst = make([]float64, w.Size())
	}
	dst = dst[:w.Size()]
	for i := range dst {
		dst[i] = 0
	}
	size := len(frame)
	if !w.zeroPhase {
		for i := range frame {
			dst[i] = frame[i] * w.window[i]
		}
		return dst, nil
	}
	half := size / 2
	i := 0
	for j := half; j < size; j++ {
		dst[i] = frame[j] * w.window[j]
		i++
	}
	i = len(dst) - half
	for j := 0; j < half; j++ {
		dst[i] = frame[j] * w.window[j]
		i++
	}
	return dst, nil
}

// Spectrum computes magnitude spectra of real frames.
type Spectrum struct {
	fft    *fourier.FFT
	coeffs []complex128
}

// NewSpectrum returns spectrum for frames of size.
func NewSpectrum(size int) (*Spectrum, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: spectrum of %d", ErrSize, size)
	}
	return &Spectrum{fft: fourier.NewFFT(size)}, nil
}

// Compute writes size/2+1 magnitudes into dst. A frame of a different
// size replans the transform.
func (s *Spectrum) Compute(dst, frame []float64) ([]float64, error) {
	if len(frame) < 2 {
		return nil, fmt.Errorf("%w: frame of %d", ErrSize, len(frame))
	}
	if s.fft.Len() != len(frame) {
		s.fft.Reset(len(frame))
		s.coeffs = nil
	}
	s.coeffs = s.fft.Coefficients(s.coeffs, frame)
	if cap(dst) < len(s.coeffs) {
		dst = make([]float64, len(s.coeffs))
	}
	dst = dst[:len(s.coeffs)]
	for i, c := range s.coeffs {
		dst[i] = cmplx.Abs(c)
	}
	return dst, nil
}

// RMS returns the root mean square of x.
func RMS(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmpty
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x))), nil
}

// Mean returns the arithmetic mean of x.
func Mean(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmpty
	}
	return stat.Mean(x, nil), nil
}

// MeanFrames returns the element-wise mean of equally sized frames.
func MeanFrames(frames [][]float64) ([]float64, error) {
	if len(frames) == 0 {
		return nil, ErrEmpty
	}
	result := make([]float64, len(frames[0]))
	for _, f := range frames {
		if len(f) != len(result) {
			return nil, fmt.Errorf("%w: frames of %d and %d", ErrSize, len(result), len(f))
		}
		floats.Add(result, f)
	}
	floats.Scale(1/float64(len(frames)), result)
	return result, nil
}
