package algorithms

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/stream"
	"pipelined.dev/stream/param"
	"pipelined.dev/stream/signal"
)

var (
	// ErrInvalidWav is returned when file is not a valid wav.
	ErrInvalidWav = errors.New("wav is not valid")
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 8, 16, 24 and 32 bit depth is supported")
)

func supported(bitDepth signal.BitDepth) bool {
	switch bitDepth {
	case signal.BitDepth8, signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
		return true
	}
	return false
}

// WavLoader reads a wav file. Sample rate and number of channels are
// emitted once before the audio.
// This algorithm cannot be reused for consequent runs without reset.
type WavLoader struct {
	stream.Base
	file     *os.File
	decoder  *wav.Decoder
	ib       *audio.IntBuffer
	bitDepth signal.BitDepth
	pending  []signal.Stereo
	header   int // emitted header tokens

	audio       *stream.Source[signal.Stereo]
	sampleRate  *stream.Source[float64]
	numChannels *stream.Source[int]
}

// NewWavLoader returns a wav loader.
func NewWavLoader() *WavLoader {
	l := &WavLoader{
		audio:       stream.NewSource[signal.Stereo]("audio"),
		sampleRate:  stream.NewSource[float64]("sampleRate"),
		numChannels: stream.NewSource[int]("numberChannels"),
	}
	l.Init(l, "WavLoader")
	l.DeclareOutput(l.audio, 1, 1, "the input audio signal")
	l.DeclareOutput(l.sampleRate, 1, 1, "the sampling rate of the audio signal [Hz]")
	l.DeclareOutput(l.numChannels, 1, 1, "the number of channels")
	l.DeclareParameters(
		param.Parameter{Name: "filename", Description: "the name of the file from which to read", Kind: param.KindString},
		param.Parameter{Name: "bufferSize", Description: "the number of samples read per call", Range: "[1,inf)", Default: 1024},
	)
	return l
}

// Audio returns the audio output.
func (l *WavLoader) Audio() *stream.Source[signal.Stereo] {
	return l.audio
}

// SampleRate returns the sample rate output.
func (l *WavLoader) SampleRate() *stream.Source[float64] {
	return l.sampleRate
}

// NumberChannels returns the number of channels output.
func (l *WavLoader) NumberChannels() *stream.Source[int] {
	return l.numChannels
}

// Process reads the next buffer of audio.
func (l *WavLoader) Process() (stream.Status, error) {
	if l.decoder == nil {
		if err := l.open(); err != nil {
			return stream.OK, err
		}
	}
	if l.header == 0 {
		if !l.sampleRate.Push(float64(l.decoder.SampleRate)) {
			return stream.NoOutput, nil
		}
		l.header++
	}
	if l.header == 1 {
		if !l.numChannels.Push(int(l.decoder.NumChans)) {
			return stream.NoOutput, nil
		}
		l.header++
	}
	if len(l.pending) == 0 {
		n, err := l.decoder.PCMBuffer(l.ib)
		if err != nil {
			return stream.OK, err
		}
		if n == 0 {
			return stream.Finished, l.close()
		}
		l.pending = signal.Interleaved{
			Data:        l.ib.Data[:n],
			NumChannels: int(l.decoder.NumChans),
			BitDepth:    l.bitDepth,
		}.AsStereo(l.pending)
	}
	n := len(l.pending)
	if !l.audio.Acquire(n) {
		return stream.NoOutput, nil
	}
	copy(l.audio.Tokens(), l.pending)
	l.audio.Release(n)
	l.pending = l.pending[:0]
	return stream.OK, nil
}

func (l *WavLoader) open() error {
	name := l.Params().String("filename")
	if name == "" {
		return &stream.ConfigurationError{Node: l.Name(), Err: fmt.Errorf("%w: filename", param.ErrMissing)}
	}
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		if err := file.Close(); err != nil {
			return fmt.Errorf("%w, failed to close the file %v: %v", ErrInvalidWav, name, err)
		}
		return fmt.Errorf("%w: %v", ErrInvalidWav, name)
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if !supported(bitDepth) {
		_ = file.Close()
		return fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	numChannels := int(decoder.NumChans)
	l.file = file
	l.decoder = decoder
	l.bitDepth = bitDepth
	l.ib = &audio.IntBuffer{
		Format:         decoder.Format(),
		Data:           make([]int, l.Params().Int("bufferSize")*numChannels),
		SourceBitDepth: int(decoder.BitDepth),
	}
	return nil
}

func (l *WavLoader) close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Reset closes the file, the next run reads it from the beginning.
func (l *WavLoader) Reset() {
	l.Base.Reset()
	_ = l.close()
	l.decoder = nil
	l.pending = nil
	l.header = 0
}

// WavWriter writes a stereo signal into a wav file.
type WavWriter struct {
	stream.Base
	file    *os.File
	encoder *wav.Encoder
	ib      *audio.IntBuffer
	in      *stream.Sink[signal.Stereo]
}

// NewWavWriter returns a wav writer.
func NewWavWriter() *WavWriter {
	w := &WavWriter{
		in: stream.NewSink[signal.Stereo]("audio"),
	}
	w.Init(w, "WavWriter")
	w.DeclareInput(w.in, 1, 1, "the audio signal")
	w.DeclareParameters(
		param.Parameter{Name: "filename", Description: "the name of the encoded file", Kind: param.KindString},
		param.Parameter{Name: "sampleRate", Description: "the audio sampling rate [Hz]", Range: "(0,inf)", Default: 44100},
		param.Parameter{Name: "bitDepth", Description: "the bit depth of samples", Range: "{8,16,24,32}", Default: 16},
		param.Parameter{Name: "numberChannels", Description: "the number of channels", Range: "{1,2}", Default: 2},
	)
	return w
}

// In returns the input port.
func (w *WavWriter) In() *stream.Sink[signal.Stereo] {
	return w.in
}

// Process encodes available samples. The file is finalized after the stop
// signal when the input is exhausted.
func (w *WavWriter) Process() (stream.Status, error) {
	if w.encoder == nil {
		if err := w.open(); err != nil {
			return stream.OK, err
		}
	}
	n := w.in.Available()
	if n == 0 {
		if w.ShouldStop() {
			return stream.NoInput, w.close()
		}
		return stream.NoInput, nil
	}
	w.in.Acquire(n)
	w.ib.Data = signal.FromStereo(w.in.Tokens(), w.ib.Format.NumChannels, signal.BitDepth(w.ib.SourceBitDepth))
	err := w.encoder.Write(w.ib)
	w.in.Release(n)
	return stream.OK, err
}

func (w *WavWriter) open() error {
	p := w.Params()
	name := p.String("filename")
	if name == "" {
		return &stream.ConfigurationError{Node: w.Name(), Err: fmt.Errorf("%w: filename", param.ErrMissing)}
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	sampleRate, bitDepth, numChannels := p.Int("sampleRate"), p.Int("bitDepth"), p.Int("numberChannels")
	w.file = f
	w.encoder = wav.NewEncoder(f, sampleRate, bitDepth, numChannels, 1)
	w.ib = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: bitDepth,
	}
	return nil
}

func (w *WavWriter) close() error {
	if w.encoder == nil {
		return nil
	}
	err := w.encoder.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.encoder, w.file = nil, nil
	return err
}

// Reset finalizes the file.
func (w *WavWriter) Reset() {
	w.Base.Reset()
	_ = w.close()
}
