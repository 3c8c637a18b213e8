package algorithms

import (
	"pipelined.dev/stream"
	"pipelined.dev/stream/standard"
)

// RMS computes the root mean square of every frame.
type RMS struct {
	stream.Base
	in  *stream.Sink[[]float64]
	out *stream.Source[float64]
}

// NewRMS returns RMS.
func NewRMS() *RMS {
	r := &RMS{
		in:  stream.NewSink[[]float64]("array"),
		out: stream.NewSource[float64]("rms"),
	}
	r.Init(r, "RMS")
	r.DeclareInput(r.in, 1, 1, "the input array")
	r.DeclareOutput(r.out, 1, 1, "the root mean square of the input array")
	return r
}

// In returns the input port.
func (r *RMS) In() *stream.Sink[[]float64] {
	return r.in
}

// Out returns the output port.
func (r *RMS) Out() *stream.Source[float64] {
	return r.out
}

// Process computes RMS of the next frame.
func (r *RMS) Process() (stream.Status, error) {
	if status := r.AcquireData(); status != stream.OK {
		return status, nil
	}
	rms, err := standard.RMS(r.in.FirstToken())
	if err != nil {
		return stream.OK, err
	}
	r.out.Tokens()[0] = rms
	r.ReleaseData()
	return stream.OK, nil
}

// Mean aggregates the whole input stream into a single mean value. The
// value is emitted when the input is exhausted.
type Mean struct {
	stream.Base
	sum     float64
	count   int
	emitted bool
	in      *stream.Sink[float64]
	out     *stream.Source[float64]
}

// NewMean returns an aggregating mean.
func NewMean() *Mean {
	m := &Mean{
		in:  stream.NewSink[float64]("array"),
		out: stream.NewSource[float64]("mean"),
	}
	m.Init(m, "Mean")
	m.DeclareInput(m.in, 1, 1, "the input values")
	m.DeclareOutput(m.out, 1, 1, "the mean of all input values")
	return m
}

// In returns the input port.
func (m *Mean) In() *stream.Sink[float64] {
	return m.in
}

// Out returns the output port.
func (m *Mean) Out() *stream.Source[float64] {
	return m.out
}

// Process accumulates available values. After the stop signal it emits
// the mean once and finishes.
func (m *Mean) Process() (stream.Status, error) {
	if n := m.in.Available(); n > 0 {
		m.in.Acquire(n)
		for _, v := range m.in.Tokens() {
			m.sum += v
		}
		m.count += n
		m.in.Release(n)
		return stream.OK, nil
	}
	if !m.ShouldStop() || m.emitted {
		return stream.NoInput, nil
	}
	if m.count == 0 {
		return stream.Finished, nil
	}
	if !m.out.Push(m.sum / float64(m.count)) {
		return stream.NoOutput, nil
	}
	m.emitted = true
	return stream.Finished, nil
}

// Reset drops the aggregate.
func (m *Mean) Reset() {
	m.Base.Reset()
	m.sum, m.count, m.emitted = 0, 0, false
}
