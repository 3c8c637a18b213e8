package algorithms

import (
	"pipelined.dev/stream"
	"pipelined.dev/stream/signal"
)

// StereoMuxer joins left and right channels into a stereo signal. When
// one channel ends earlier, the rest of the other one is joined with
// silence.
type StereoMuxer struct {
	stream.Base
	left  *stream.Sink[float64]
	right *stream.Sink[float64]
	out   *stream.Source[signal.Stereo]
}

// NewStereoMuxer returns a muxer.
func NewStereoMuxer() *StereoMuxer {
	m := &StereoMuxer{
		left:  stream.NewSink[float64]("left"),
		right: stream.NewSink[float64]("right"),
		out:   stream.NewSource[signal.Stereo]("audio"),
	}
	m.Init(m, "StereoMuxer")
	m.DeclareInput(m.left, 1, 1, "the left channel of the audio signal")
	m.DeclareInput(m.right, 1, 1, "the right channel of the audio signal")
	m.DeclareOutput(m.out, 1, 1, "the audio signal")
	return m
}

// Left returns the left channel input.
func (m *StereoMuxer) Left() *stream.Sink[float64] {
	return m.left
}

// Right returns the right channel input.
func (m *StereoMuxer) Right() *stream.Sink[float64] {
	return m.right
}

// Out returns the output port.
func (m *StereoMuxer) Out() *stream.Source[signal.Stereo] {
	return m.out
}

// Process joins samples available on both channels. After the stop
// signal the longer channel is drained.
func (m *StereoMuxer) Process() (stream.Status, error) {
	l, r := m.left.Available(), m.right.Available()
	n := min(l, r)
	if m.ShouldStop() {
		n = max(l, r)
	}
	if n == 0 {
		return stream.NoInput, nil
	}
	if !m.out.Acquire(n) {
		return stream.NoOutput, nil
	}
	tokens := m.out.Tokens()
	for i := range tokens {
		tokens[i] = signal.Stereo{}
	}
	if l = min(l, n); l > 0 {
		m.left.Acquire(l)
		for i, v := range m.left.Tokens() {
			tokens[i][0] = v
		}
		m.left.Release(l)
	}
	if r = min(r, n); r > 0 {
		m.right.Acquire(r)
		for i, v := range m.right.Tokens() {
			tokens[i][1] = v
		}
		m.right.Release(r)
	}
	m.out.Release(n)
	return stream.OK, nil
}
