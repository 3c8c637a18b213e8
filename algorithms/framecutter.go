package algorithms

import (
	"math/rand"

	"pipelined.dev/stream"
	"pipelined.dev/stream/param"
)

// noiseLevel is the amplitude of noise added to silent frames, -100dB.
const noiseLevel = 1e-5

// FrameCutter slices a signal into overlapping frames.
type FrameCutter struct {
	stream.Base
	frameSize     int
	hopSize       int
	startFromZero bool
	toEnd         bool
	threshold     float64
	silent        string
	noise         *rand.Rand

	history []float64
	offset  int64 // absolute index of history[0]
	start   int64 // absolute index of next frame
	in      *stream.Sink[float64]
	out     *stream.Source[[]float64]
}

// NewFrameCutter returns a frame cutter with default parameters.
func NewFrameCutter() *FrameCutter {
	c := &FrameCutter{
		in:  stream.NewSink[float64]("signal"),
		out: stream.NewSource[[]float64]("frame"),
	}
	c.Init(c, "FrameCutter")
	c.DeclareInput(c.in, 1, 1, "the input audio signal")
	c.DeclareOutput(c.out, 1, 1, "the frames of the audio signal")
	c.DeclareParameters(
		param.Parameter{Name: "frameSize", Description: "the output frame size", Range: "[1,inf)", Default: 1024},
		param.Parameter{Name: "hopSize", Description: "the hop size between frames", Range: "[1,inf)", Default: 512},
		param.Parameter{Name: "startFromZero", Description: "whether to start the first frame at time 0 (centered at 0 otherwise)", Default: false},
		param.Parameter{Name: "lastFrameToEndOfFile", Description: "whether the beginning of the last frame should reach the end of file, only with startFromZero", Default: false},
		param.Parameter{Name: "validFrameThresholdRatio", Description: "frames with less than this ratio of signal samples are dropped", Range: "[0,0.5]", Default: 0.0},
		param.Parameter{Name: "silentFrames", Description: "whether to drop, keep or add noise to silent frames", Range: "{drop,keep,noise}", Default: "noise"},
	)
	c.apply()
	return c
}

// In returns the input port.
func (c *FrameCutter) In() *stream.Sink[float64] {
	return c.in
}

// Out returns the output port.
func (c *FrameCutter) Out() *stream.Source[[]float64] {
	return c.out
}

// Configure implements stream.Algorithm.
func (c *FrameCutter) Configure(m param.Map) error {
	if err := c.Base.Configure(m); err != nil {
		return err
	}
	c.apply()
	return nil
}

func (c *FrameCutter) apply() {
	p := c.Params()
	c.frameSize = p.Int("frameSize")
	c.hopSize = p.Int("hopSize")
	c.startFromZero = p.Bool("startFromZero")
	c.toEnd = p.Bool("lastFrameToEndOfFile")
	c.threshold = p.Float("validFrameThresholdRatio")
	c.silent = p.String("silentFrames")
	c.rewind()
}

func (c *FrameCutter) rewind() {
	c.history = c.history[:0]
	c.offset = 0
	c.start = 0
	if !c.startFromZero {
		c.start = -int64(c.frameSize / 2)
	}
	c.noise = rand.New(rand.NewSource(1))
}

// Process emits every complete frame. When stopping, incomplete
// trailing frames are zero-padded.
func (c *FrameCutter) Process() (stream.Status, error) {
	status := stream.NoInput
	for {
		end := c.start + int64(c.frameSize)
		if c.fill(end) {
			status = stream.OK
		}
		if total := c.total(); end > total && !(c.ShouldStop() && c.flushable(total)) {
			return status, nil
		}

		if !c.out.Acquire(1) {
			if status == stream.OK {
				return stream.OK, nil
			}
			return stream.NoOutput, nil
		}
		frame, ok := c.frame()
		c.advance()
		if !ok {
			continue
		}
		c.out.Tokens()[0] = frame
		c.out.Release(1)
		status = stream.OK
	}
}

// fill reads input up to the absolute index end. It returns false if
// nothing was read.
func (c *FrameCutter) fill(end int64) bool {
	missing := end - c.total()
	if missing <= 0 {
		return false
	}
	n := c.in.Available()
	if n == 0 {
		return false
	}
	if int64(n) > missing {
		n = int(missing)
	}
	c.in.Acquire(n)
	c.history = append(c.history, c.in.Tokens()...)
	c.in.Release(n)
	c.trim()
	return true
}

func (c *FrameCutter) total() int64 {
	return c.offset + int64(len(c.history))
}

// flushable reports if a padded frame is due at the end of signal.
func (c *FrameCutter) flushable(total int64) bool {
	if total == 0 || c.in.Available() > 0 {
		return false
	}
	if c.startFromZero && !c.toEnd {
		return false
	}
	return c.start < total
}

// frame returns the current frame. Frames below the valid threshold and
// dropped silent frames are not returned.
func (c *FrameCutter) frame() ([]float64, bool) {
	frame := make([]float64, c.frameSize)
	valid := 0
	energy := 0.0
	for i := range frame {
		idx := c.start + int64(i) - c.offset
		if idx < 0 || idx >= int64(len(c.history)) {
			continue
		}
		frame[i] = c.history[idx]
		energy += frame[i] * frame[i]
		valid++
	}
	if float64(valid) < c.threshold*float64(c.frameSize) {
		return nil, false
	}
	if energy == 0 {
		switch c.silent {
		case "drop":
			return nil, false
		case "noise":
			for i := range frame {
				frame[i] = noiseLevel * (2*c.noise.Float64() - 1)
			}
		}
	}
	return frame, true
}

func (c *FrameCutter) advance() {
	c.start += int64(c.hopSize)
	c.trim()
}

// trim drops samples before the next frame.
func (c *FrameCutter) trim() {
	skip := c.start - c.offset
	if skip <= 0 {
		return
	}
	if skip > int64(len(c.history)) {
		skip = int64(len(c.history))
	}
	n := copy(c.history, c.history[skip:])
	c.history = c.history[:n]
	c.offset += skip
}

// Reset rewinds the cutter.
func (c *FrameCutter) Reset() {
	c.Base.Reset()
	c.rewind()
}
