package algorithms

import (
	"pipelined.dev/stream"
	"pipelined.dev/stream/param"
)

// VectorInput is a generator that emits values of a slice.
type VectorInput[T any] struct {
	stream.Base
	values []T
	batch  int
	pos    int
	out    *stream.Source[T]
}

// NewVectorInput returns a generator that emits values in batches.
func NewVectorInput[T any](values []T, batch int) *VectorInput[T] {
	if batch < 1 {
		batch = 1
	}
	v := &VectorInput[T]{
		values: values,
		batch:  batch,
		out:    stream.NewSource[T]("data"),
	}
	v.Init(v, "VectorInput")
	v.DeclareOutput(v.out, batch, batch, "the values of the vector")
	v.DeclareParameters(
		param.Parameter{Name: "values", Description: "values to emit, applies to real inputs", Default: []float64{}},
		param.Parameter{Name: "batch", Description: "the number of values emitted per call", Range: "[1,inf)", Default: batch},
	)
	return v
}

// Out returns the output port.
func (v *VectorInput[T]) Out() *stream.Source[T] {
	return v.out
}

// SetValues replaces the values to emit and rewinds the input.
func (v *VectorInput[T]) SetValues(values []T) {
	v.values = values
	v.pos = 0
}

// Configure implements stream.Algorithm.
func (v *VectorInput[T]) Configure(m param.Map) error {
	if err := v.Base.Configure(m); err != nil {
		return err
	}
	v.batch = v.Params().Int("batch")
	if values, ok := any(v.Params().Floats("values")).([]T); ok && len(values) > 0 {
		v.SetValues(values)
	}
	return nil
}

// Process emits the next batch.
func (v *VectorInput[T]) Process() (stream.Status, error) {
	left := len(v.values) - v.pos
	if left == 0 {
		return stream.Finished, nil
	}
	n := v.batch
	if left < n {
		n = left
	}
	if !v.out.Acquire(n) {
		return stream.NoOutput, nil
	}
	copy(v.out.Tokens(), v.values[v.pos:v.pos+n])
	v.out.Release(n)
	v.pos += n
	return stream.OK, nil
}

// Reset rewinds the input.
func (v *VectorInput[T]) Reset() {
	v.Base.Reset()
	v.pos = 0
}

// VectorOutput collects every received token.
type VectorOutput[T any] struct {
	stream.Base
	values []T
	in     *stream.Sink[T]
}

// NewVectorOutput returns a collecting sink.
func NewVectorOutput[T any]() *VectorOutput[T] {
	v := &VectorOutput[T]{
		in: stream.NewSink[T]("data"),
	}
	v.Init(v, "VectorOutput")
	v.DeclareInput(v.in, 1, 1, "the values to collect")
	return v
}

// In returns the input port.
func (v *VectorOutput[T]) In() *stream.Sink[T] {
	return v.in
}

// Values returns collected tokens.
func (v *VectorOutput[T]) Values() []T {
	return v.values
}

// Process collects everything available.
func (v *VectorOutput[T]) Process() (stream.Status, error) {
	n := v.in.Available()
	if n == 0 {
		return stream.NoInput, nil
	}
	v.in.Acquire(n)
	v.values = append(v.values, v.in.Tokens()...)
	v.in.Release(n)
	return stream.OK, nil
}

// Reset drops collected tokens.
func (v *VectorOutput[T]) Reset() {
	v.Base.Reset()
	v.values = nil
}
