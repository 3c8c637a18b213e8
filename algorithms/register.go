// Package algorithms provides streaming algorithms for audio analysis:
// loaders, frame slicing, spectral and statistical descriptors and
// outputs.
package algorithms

import (
	"pipelined.dev/stream"
	"pipelined.dev/stream/registry"
)

// Register adds every algorithm of the package to the registry. Generic
// algorithms are registered for real-valued tokens: VectorInput and
// VectorOutput for scalars, FileOutput for frames.
func Register(r *registry.Registry) error {
	entries := []struct {
		name        string
		description string
		new         registry.Constructor
	}{
		{"WavLoader", "Loads a wav file as a stereo signal", func() stream.Algorithm { return NewWavLoader() }},
		{"VectorInput", "Emits the values of a vector", func() stream.Algorithm { return NewVectorInput[float64](nil, 1) }},
		{"StereoDemuxer", "Splits a stereo signal into left and right channels", func() stream.Algorithm { return NewStereoDemuxer() }},
		{"StereoMuxer", "Joins left and right channels into a stereo signal", func() stream.Algorithm { return NewStereoMuxer() }},
		{"FrameCutter", "Slices a signal into overlapping frames", func() stream.Algorithm { return NewFrameCutter() }},
		{"Windowing", "Applies a window function to frames", func() stream.Algorithm { return NewWindowing() }},
		{"Spectrum", "Computes the magnitude spectrum of frames", func() stream.Algorithm { return NewSpectrum() }},
		{"FrameSpectrum", "Computes the magnitude spectrum of a signal frame by frame", func() stream.Algorithm { return NewFrameSpectrum() }},
		{"RMS", "Computes the root mean square of frames", func() stream.Algorithm { return NewRMS() }},
		{"Mean", "Computes the mean of the whole stream", func() stream.Algorithm { return NewMean() }},
		{"VectorOutput", "Collects received values", func() stream.Algorithm { return NewVectorOutput[float64]() }},
		{"FileOutput", "Writes frames to a text file", func() stream.Algorithm { return NewFileOutput[[]float64]() }},
		{"WavWriter", "Writes a stereo signal to a wav file", func() stream.Algorithm { return NewWavWriter() }},
	}
	for _, e := range entries {
		if err := r.Register(e.name, e.description, e.new); err != nil {
			return err
		}
	}
	return nil
}
