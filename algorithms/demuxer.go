package algorithms

import (
	"pipelined.dev/stream"
	"pipelined.dev/stream/signal"
)

// StereoDemuxer splits a stereo signal into left and right channels.
type StereoDemuxer struct {
	stream.Base
	in    *stream.Sink[signal.Stereo]
	left  *stream.Source[float64]
	right *stream.Source[float64]
}

// NewStereoDemuxer returns a demuxer.
func NewStereoDemuxer() *StereoDemuxer {
	d := &StereoDemuxer{
		in:    stream.NewSink[signal.Stereo]("audio"),
		left:  stream.NewSource[float64]("left"),
		right: stream.NewSource[float64]("right"),
	}
	d.Init(d, "StereoDemuxer")
	d.DeclareInput(d.in, 1, 1, "the audio signal")
	d.DeclareOutput(d.left, 1, 1, "the left channel of the audio signal")
	d.DeclareOutput(d.right, 1, 1, "the right channel of the audio signal")
	return d
}

// In returns the input port.
func (d *StereoDemuxer) In() *stream.Sink[signal.Stereo] {
	return d.in
}

// Left returns the left channel output.
func (d *StereoDemuxer) Left() *stream.Source[float64] {
	return d.left
}

// Right returns the right channel output.
func (d *StereoDemuxer) Right() *stream.Source[float64] {
	return d.right
}

// Process splits every available sample.
func (d *StereoDemuxer) Process() (stream.Status, error) {
	n := d.in.Available()
	if n == 0 {
		return stream.NoInput, nil
	}
	if !d.left.Acquire(n) || !d.right.Acquire(n) {
		return stream.NoOutput, nil
	}
	d.in.Acquire(n)
	left, right := d.left.Tokens(), d.right.Tokens()
	for i, s := range d.in.Tokens() {
		left[i], right[i] = s.Left(), s.Right()
	}
	d.in.Release(n)
	d.left.Release(n)
	d.right.Release(n)
	return stream.OK, nil
}
