package algorithms

import (
	"pipelined.dev/stream"
	"pipelined.dev/stream/buffer"
	"pipelined.dev/stream/param"
	"pipelined.dev/stream/standard"
)

// Windowing applies a window function to frames.
type Windowing struct {
	stream.Base
	windowing *standard.Windowing
	in        *stream.Sink[[]float64]
	out       *stream.Source[[]float64]
}

// NewWindowing returns windowing with default parameters.
func NewWindowing() *Windowing {
	w := &Windowing{
		in:  stream.NewSink[[]float64]("frame"),
		out: stream.NewSource[[]float64]("frame"),
	}
	w.Init(w, "Windowing")
	w.DeclareInput(w.in, 1, 1, "the input audio frame")
	w.DeclareOutput(w.out, 1, 1, "the windowed audio frame")
	w.DeclareParameters(
		param.Parameter{Name: "size", Description: "the window size", Range: "[2,inf)", Default: 1024},
		param.Parameter{Name: "zeroPadding", Description: "the size of the zero-padding", Range: "[0,inf)", Default: 0},
		param.Parameter{Name: "type", Description: "the window type", Range: "{hann,hamming,triangular,square,blackmanharris62,blackmanharris92}", Default: "hann"},
		param.Parameter{Name: "normalized", Description: "whether to normalize the window to an area of 2", Default: true},
		param.Parameter{Name: "zeroPhase", Description: "whether to center the window on the first sample", Default: true},
	)
	w.windowing, _ = w.create(w.Params().Int("size"))
	return w
}

// In returns the input port.
func (w *Windowing) In() *stream.Sink[[]float64] {
	return w.in
}

// Out returns the output port.
func (w *Windowing) Out() *stream.Source[[]float64] {
	return w.out
}

// Configure implements stream.Algorithm.
func (w *Windowing) Configure(m param.Map) error {
	if err := w.Base.Configure(m); err != nil {
		return err
	}
	windowing, err := w.create(w.Params().Int("size"))
	if err != nil {
		return &stream.ConfigurationError{Node: w.Name(), Err: err}
	}
	w.windowing = windowing
	return nil
}

func (w *Windowing) create(size int) (*standard.Windowing, error) {
	p := w.Params()
	return standard.NewWindowing(p.String("type"), size, p.Int("zeroPadding"), p.Bool("normalized"), p.Bool("zeroPhase"))
}

// Process windows the next frame. A frame of a different size
// recomputes the window.
func (w *Windowing) Process() (stream.Status, error) {
	if status := w.AcquireData(); status != stream.OK {
		return status, nil
	}
	frame := w.in.FirstToken()
	if w.windowing == nil || w.windowing.FrameSize() != len(frame) {
		windowing, err := w.create(len(frame))
		if err != nil {
			return stream.OK, err
		}
		w.windowing = windowing
	}
	windowed, err := w.windowing.Compute(nil, frame)
	if err != nil {
		return stream.OK, err
	}
	w.out.Tokens()[0] = windowed
	w.ReleaseData()
	return stream.OK, nil
}

// Spectrum computes the magnitude spectrum of frames.
type Spectrum struct {
	stream.Base
	spectrum *standard.Spectrum
	in       *stream.Sink[[]float64]
	out      *stream.Source[[]float64]
}

// NewSpectrum returns spectrum with default parameters.
func NewSpectrum() *Spectrum {
	s := &Spectrum{
		in:  stream.NewSink[[]float64]("frame"),
		out: stream.NewSource[[]float64]("spectrum"),
	}
	s.Init(s, "Spectrum")
	s.DeclareInput(s.in, 1, 1, "the input audio frame")
	s.DeclareOutput(s.out, 1, 1, "the magnitude spectrum of the input audio signal")
	s.DeclareParameters(
		param.Parameter{Name: "size", Description: "the expected size of the input audio signal", Range: "[2,inf)", Default: 2048},
	)
	s.spectrum, _ = standard.NewSpectrum(s.Params().Int("size"))
	return s
}

// In returns the input port.
func (s *Spectrum) In() *stream.Sink[[]float64] {
	return s.in
}

// Out returns the output port.
func (s *Spectrum) Out() *stream.Source[[]float64] {
	return s.out
}

// Configure implements stream.Algorithm.
func (s *Spectrum) Configure(m param.Map) error {
	if err := s.Base.Configure(m); err != nil {
		return err
	}
	spectrum, err := standard.NewSpectrum(s.Params().Int("size"))
	if err != nil {
		return &stream.ConfigurationError{Node: s.Name(), Err: err}
	}
	s.spectrum = spectrum
	return nil
}

// Process computes the spectrum of the next frame.
func (s *Spectrum) Process() (stream.Status, error) {
	if status := s.AcquireData(); status != stream.OK {
		return status, nil
	}
	magnitudes, err := s.spectrum.Compute(nil, s.in.FirstToken())
	if err != nil {
		return stream.OK, err
	}
	s.out.Tokens()[0] = magnitudes
	s.ReleaseData()
	return stream.OK, nil
}

// FrameSpectrum is a composite of frame cutter, windowing and spectrum.
// It's never scheduled itself, networks run its inner algorithms.
type FrameSpectrum struct {
	stream.Base
	cutter    *FrameCutter
	windowing *Windowing
	spectrum  *Spectrum
	in        *stream.SinkProxy[float64]
	out       *stream.SourceProxy[[]float64]
}

// NewFrameSpectrum returns a composite with default parameters.
func NewFrameSpectrum() *FrameSpectrum {
	f := &FrameSpectrum{
		cutter:    NewFrameCutter(),
		windowing: NewWindowing(),
		spectrum:  NewSpectrum(),
		in:        stream.NewSinkProxy[float64]("signal"),
		out:       stream.NewSourceProxy[[]float64]("spectrum"),
	}
	f.Init(f, "FrameSpectrum")
	f.DeclareInput(f.in, 1, 1, "the input audio signal")
	f.DeclareOutput(f.out, 1, 1, "the magnitude spectrum of every frame")
	f.DeclareParameters(
		param.Parameter{Name: "frameSize", Description: "the frame size", Range: "[2,inf)", Default: 2048},
		param.Parameter{Name: "hopSize", Description: "the hop size between frames", Range: "[1,inf)", Default: 1024},
		param.Parameter{Name: "windowType", Description: "the window type", Range: "{hann,hamming,triangular,square,blackmanharris62,blackmanharris92}", Default: "hann"},
	)
	// fresh ports of matching types and default parameters never fail
	_ = f.in.Attach(f.cutter.In())
	_ = stream.Connect[[]float64](f.cutter.Out(), f.windowing.In())
	_ = stream.Connect[[]float64](f.windowing.Out(), f.spectrum.In())
	_ = f.out.Attach(f.spectrum.Out())
	_ = f.configureInner()
	return f
}

// In returns the input proxy.
func (f *FrameSpectrum) In() *stream.SinkProxy[float64] {
	return f.in
}

// Out returns the output proxy.
func (f *FrameSpectrum) Out() *stream.SourceProxy[[]float64] {
	return f.out
}

// Configure implements stream.Algorithm.
func (f *FrameSpectrum) Configure(m param.Map) error {
	if err := f.Base.Configure(m); err != nil {
		return err
	}
	return f.configureInner()
}

func (f *FrameSpectrum) configureInner() error {
	p := f.Params()
	frameSize := p.Int("frameSize")
	if err := f.cutter.Configure(param.Map{"frameSize": frameSize, "hopSize": p.Int("hopSize"), "silentFrames": "noise"}); err != nil {
		return err
	}
	if err := f.windowing.Configure(param.Map{"size": frameSize, "type": p.String("windowType")}); err != nil {
		return err
	}
	return f.spectrum.Configure(param.Map{"size": frameSize})
}

// SetBufferConfig applies the buffer config to every inner source. It
// must be called before the composite output is connected.
func (f *FrameSpectrum) SetBufferConfig(c buffer.Config) error {
	if f.out.IsConnected() {
		return &stream.ConfigurationError{Node: f.Name(), Port: f.out.Name(), Err: stream.ErrAlreadyConnected}
	}
	if err := stream.Disconnect[[]float64](f.cutter.Out(), f.windowing.In()); err != nil {
		return err
	}
	if err := stream.Disconnect[[]float64](f.windowing.Out(), f.spectrum.In()); err != nil {
		return err
	}
	for _, s := range []*stream.Source[[]float64]{f.cutter.Out(), f.windowing.Out(), f.spectrum.Out()} {
		if err := s.SetBufferConfig(c); err != nil {
			return err
		}
	}
	if err := stream.Connect[[]float64](f.cutter.Out(), f.windowing.In()); err != nil {
		return err
	}
	return stream.Connect[[]float64](f.windowing.Out(), f.spectrum.In())
}

// Process is never called by networks.
func (f *FrameSpectrum) Process() (stream.Status, error) {
	return stream.Finished, nil
}
