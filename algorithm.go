package stream

import (
	"fmt"

	"github.com/rs/xid"

	"pipelined.dev/stream/param"
)

// Status is the outcome of a single Process call.
type Status int

const (
	// OK means the algorithm consumed and/or produced tokens.
	OK Status = iota
	// NoInput means not enough tokens were available on some input.
	NoInput
	// NoOutput means not enough space was available on some output.
	NoOutput
	// Finished means the algorithm will not produce anything anymore.
	Finished
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case NoInput:
		return "no input"
	case NoOutput:
		return "no output"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Algorithm is a processing node. Implementations embed Base and
// provide Process.
type Algorithm interface {
	Name() string
	ID() string
	Inputs() []SinkPort
	Outputs() []SourcePort
	Input(name string) (SinkPort, error)
	Output(name string) (SourcePort, error)
	Parameters() param.Schema
	// Configure resolves parameters. It is called before any data flows.
	Configure(param.Map) error
	// Process is invoked by the scheduler. Generators have no inputs and
	// decide alone when they are finished.
	Process() (Status, error)
	// Reset clears internal state so the algorithm can run again.
	Reset()
	// ShouldStop is true once all upstream algorithms are finished and
	// remaining input has to be flushed.
	ShouldStop() bool
	SetShouldStop(bool)
}

// Base implements the bookkeeping part of Algorithm: identity, port
// declarations, parameters and the stop flag.
type Base struct {
	self       Algorithm
	name       string
	id         string
	inputs     []SinkPort
	outputs    []SourcePort
	schema     param.Schema
	params     param.Values
	shouldStop bool
}

// Init binds the base to the algorithm that embeds it.
func (b *Base) Init(self Algorithm, name string) {
	b.self = self
	b.name = name
	b.id = xid.New().String()
}

// Name returns the algorithm name.
func (b *Base) Name() string {
	return b.name
}

// SetName renames the algorithm instance.
func (b *Base) SetName(name string) {
	b.name = name
}

// ID returns the unique instance id.
func (b *Base) ID() string {
	return b.id
}

// DeclareInput registers an input port with default acquire and release
// sizes.
func (b *Base) DeclareInput(p SinkPort, acquire, release int, description string) {
	p.declare(b.self, acquire, release, description)
	b.inputs = append(b.inputs, p)
}

// DeclareOutput registers an output port with default acquire and
// release sizes.
func (b *Base) DeclareOutput(p SourcePort, acquire, release int, description string) {
	p.declare(b.self, acquire, release, description)
	b.outputs = append(b.outputs, p)
}

// DeclareParameters sets the parameter schema and resolves defaults.
func (b *Base) DeclareParameters(s ...param.Parameter) {
	b.schema = s
	if v, err := b.schema.Resolve(nil); err == nil {
		b.params = v
	}
}

// Inputs returns input ports in declaration order.
func (b *Base) Inputs() []SinkPort {
	return b.inputs
}

// Outputs returns output ports in declaration order.
func (b *Base) Outputs() []SourcePort {
	return b.outputs
}

// Input returns input port by name.
func (b *Base) Input(name string) (SinkPort, error) {
	for _, p := range b.inputs {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, &ConfigurationError{Node: b.name, Port: name, Err: fmt.Errorf("%w: no input %q", ErrUnknownPort, name)}
}

// Output returns output port by name.
func (b *Base) Output(name string) (SourcePort, error) {
	for _, p := range b.outputs {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, &ConfigurationError{Node: b.name, Port: name, Err: fmt.Errorf("%w: no output %q", ErrUnknownPort, name)}
}

// Parameters returns declared parameter schema.
func (b *Base) Parameters() param.Schema {
	return b.schema
}

// Configure resolves values against declared schema. Algorithms that
// derive state from parameters call it first.
func (b *Base) Configure(m param.Map) error {
	v, err := b.schema.Resolve(m)
	if err != nil {
		return &ConfigurationError{Node: b.name, Err: err}
	}
	b.params = v
	return nil
}

// Params returns resolved parameter values.
func (b *Base) Params() param.Values {
	return b.params
}

// ShouldStop returns the stop flag.
func (b *Base) ShouldStop() bool {
	return b.shouldStop
}

// SetShouldStop sets the stop flag.
func (b *Base) SetShouldStop(stop bool) {
	b.shouldStop = stop
}

// Reset clears the stop flag and granted port views.
func (b *Base) Reset() {
	b.shouldStop = false
	for _, p := range b.inputs {
		p.Reset()
	}
	for _, p := range b.outputs {
		p.Reset()
	}
}

// AcquireData acquires default amount of tokens on every port. Inputs
// are checked first.
func (b *Base) AcquireData() Status {
	for _, p := range b.inputs {
		if !p.Acquire(p.AcquireSize()) {
			return NoInput
		}
	}
	for _, p := range b.outputs {
		if !p.Acquire(p.AcquireSize()) {
			return NoOutput
		}
	}
	return OK
}

// ReleaseData releases default amount of tokens on every port.
func (b *Base) ReleaseData() {
	for _, p := range b.inputs {
		p.Release(p.ReleaseSize())
	}
	for _, p := range b.outputs {
		p.Release(p.ReleaseSize())
	}
}
