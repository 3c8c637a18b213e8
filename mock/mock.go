// Package mock provides mock algorithms and allows to execute
// integration tests of stream networks.
package mock

import (
	"pipelined.dev/stream"
)

// Generator produces Limit tokens in batches of Batch tokens. Token i
// has value Value + i*Step.
type Generator struct {
	stream.Base
	counter
	Hooks
	Limit int
	Batch int
	Value float64
	Step  float64
	// Pauses is the number of calls answered with NoInput before data
	// starts to flow, it mocks a live source.
	Pauses      int
	ErrorOnCall error
	out         *stream.Source[float64]
}

// NewGenerator returns a generator with output "signal".
func NewGenerator(limit, batch int) *Generator {
	g := &Generator{
		Limit: limit,
		Batch: batch,
		Step:  1,
		out:   stream.NewSource[float64]("signal"),
	}
	g.Init(g, "Generator")
	g.DeclareOutput(g.out, batch, batch, "generated signal")
	return g
}

// Out returns the output port.
func (m *Generator) Out() *stream.Source[float64] {
	return m.out
}

// Process produces the next batch.
func (m *Generator) Process() (stream.Status, error) {
	if m.ErrorOnCall != nil {
		return stream.OK, m.ErrorOnCall
	}
	if m.Pauses > 0 {
		m.Pauses--
		return stream.NoInput, nil
	}
	if m.tokens >= m.Limit {
		return stream.Finished, nil
	}
	n := m.Batch
	if left := m.Limit - m.tokens; left < n {
		n = left
	}
	if !m.out.Acquire(n) {
		return stream.NoOutput, nil
	}
	tokens := m.out.Tokens()
	for i := range tokens {
		tokens[i] = m.Value + float64(m.tokens+i)*m.Step
	}
	m.out.Release(n)
	m.advance(n)
	return stream.OK, nil
}

// Reset implements stream.Algorithm.
func (m *Generator) Reset() {
	m.Base.Reset()
	m.Resetted = true
	m.reset()
}

// SetShouldStop records the stop signal.
func (m *Generator) SetShouldStop(stop bool) {
	m.Base.SetShouldStop(stop)
	m.Stopped = m.Stopped || stop
}

// Processor consumes Consume tokens and produces Produce tokens per
// call. Every produced token is the sum of consumed ones.
type Processor struct {
	stream.Base
	counter
	Hooks
	Consume     int
	Produce     int
	ErrorOnCall error
	in          *stream.Sink[float64]
	out         *stream.Source[float64]
}

// NewProcessor returns a processor with input and output "signal".
func NewProcessor(in, out int) *Processor {
	m := &Processor{
		Consume: in,
		Produce: out,
		in:      stream.NewSink[float64]("signal"),
		out:     stream.NewSource[float64]("signal"),
	}
	m.Init(m, "Processor")
	m.DeclareInput(m.in, in, in, "input signal")
	m.DeclareOutput(m.out, out, out, "sums of input")
	return m
}

// In returns the input port.
func (m *Processor) In() *stream.Sink[float64] {
	return m.in
}

// Out returns the output port.
func (m *Processor) Out() *stream.Source[float64] {
	return m.out
}

// Process consumes and produces a batch.
func (m *Processor) Process() (stream.Status, error) {
	if m.ErrorOnCall != nil {
		return stream.OK, m.ErrorOnCall
	}
	if status := m.AcquireData(); status != stream.OK {
		return status, nil
	}
	var sum float64
	for _, v := range m.in.Tokens() {
		sum += v
	}
	tokens := m.out.Tokens()
	for i := range tokens {
		tokens[i] = sum
	}
	m.ReleaseData()
	m.advance(m.Produce)
	return stream.OK, nil
}

// Reset implements stream.Algorithm.
func (m *Processor) Reset() {
	m.Base.Reset()
	m.Resetted = true
	m.reset()
}

// SetShouldStop records the stop signal.
func (m *Processor) SetShouldStop(stop bool) {
	m.Base.SetShouldStop(stop)
	m.Stopped = m.Stopped || stop
}

// Sink collects consumed tokens. Values are not safe to check while the
// network is running.
type Sink struct {
	stream.Base
	counter
	Hooks
	Batch       int
	Discard     bool
	ErrorOnCall error
	values      []float64
	in          *stream.Sink[float64]
}

// NewSink returns a sink with input "signal" consuming batch tokens per
// call.
func NewSink(batch int) *Sink {
	m := &Sink{
		Batch: batch,
		in:    stream.NewSink[float64]("signal"),
	}
	m.Init(m, "Sink")
	m.DeclareInput(m.in, batch, batch, "collected signal")
	return m
}

// In returns the input port.
func (m *Sink) In() *stream.Sink[float64] {
	return m.in
}

// Process consumes a batch.
func (m *Sink) Process() (stream.Status, error) {
	if m.ErrorOnCall != nil {
		return stream.OK, m.ErrorOnCall
	}
	if !m.in.Acquire(m.Batch) {
		return stream.NoInput, nil
	}
	if !m.Discard {
		m.values = append(m.values, m.in.Tokens()...)
	}
	m.in.Release(m.Batch)
	m.advance(m.Batch)
	return stream.OK, nil
}

// Values returns collected tokens.
func (m *Sink) Values() []float64 {
	return m.values
}

// Reset implements stream.Algorithm.
func (m *Sink) Reset() {
	m.Base.Reset()
	m.Resetted = true
	m.values = nil
	m.reset()
}

// SetShouldStop records the stop signal.
func (m *Sink) SetShouldStop(stop bool) {
	m.Base.SetShouldStop(stop)
	m.Stopped = m.Stopped || stop
}

// Hooks allows to check lifecycle calls.
type Hooks struct {
	Resetted bool
	Stopped  bool
}

// counter counts calls and tokens.
type counter struct {
	calls  int
	tokens int
}

// advance counter's metrics.
func (c *counter) advance(size int) {
	c.calls++
	c.tokens += size
}

// Count returns calls and tokens metrics.
func (c *counter) Count() (int, int) {
	return c.calls, c.tokens
}

func (c *counter) reset() {
	c.calls, c.tokens = 0, 0
}
