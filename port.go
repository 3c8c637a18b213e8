package stream

import (
	"reflect"
)

type (
	// Port is a named endpoint of an algorithm.
	Port interface {
		Name() string
		// FullName returns the port name qualified with its parent name.
		FullName() string
		Description() string
		Parent() Algorithm
		IsConnected() bool
		TokenType() reflect.Type
		// AcquireSize and ReleaseSize are the default amounts used by
		// Base.AcquireData and Base.ReleaseData.
		AcquireSize() int
		ReleaseSize() int
		SetAcquireSize(n int)
		SetReleaseSize(n int)
		Acquire(n int) bool
		Release(n int)
		Reset()

		declare(parent Algorithm, acquire, release int, description string)
	}

	// SinkPort is a consuming port: a Sink or a SinkProxy.
	SinkPort interface {
		Port
		// Available returns number of tokens the port can acquire.
		Available() int
		// Source returns the connected producing port or nil.
		Source() SourcePort
		// Discard releases every available token and returns their count.
		Discard() int

		// resolve returns the real sinks behind the port.
		resolve() []SinkPort
	}

	// SourcePort is a producing port: a Source or a SourceProxy.
	SourcePort interface {
		Port
		// Consumers returns directly connected sink ports.
		Consumers() []SinkPort
		TotalProduced() int64

		connectPort(sink SinkPort) error
		disconnectPort(sink SinkPort) error
		// origin returns the real source behind the port.
		origin() (SourcePort, error)
		devNull() (Algorithm, error)
	}

	// Producer is a typed producing endpoint.
	Producer[T any] interface {
		SourcePort
		source() (*Source[T], error)
	}

	// Consumer is a typed consuming endpoint.
	Consumer[T any] interface {
		SinkPort
		attach(src *Source[T]) error
		detach()
	}

	portBase struct {
		name        string
		description string
		parent      Algorithm
		acquireSize int
		releaseSize int
	}
)

func newPortBase(name string) portBase {
	return portBase{name: name, acquireSize: 1, releaseSize: 1}
}

func (p *portBase) Name() string {
	return p.name
}

func (p *portBase) FullName() string {
	if p.parent == nil {
		return p.name
	}
	return p.parent.Name() + "." + p.name
}

func (p *portBase) parentName() string {
	if p.parent == nil {
		return ""
	}
	return p.parent.Name()
}

func (p *portBase) Description() string {
	return p.description
}

func (p *portBase) Parent() Algorithm {
	return p.parent
}

func (p *portBase) AcquireSize() int {
	return p.acquireSize
}

func (p *portBase) ReleaseSize() int {
	return p.releaseSize
}

func (p *portBase) SetAcquireSize(n int) {
	p.acquireSize = n
}

func (p *portBase) SetReleaseSize(n int) {
	p.releaseSize = n
}

func (p *portBase) declare(parent Algorithm, acquire, release int, description string) {
	p.parent = parent
	p.acquireSize = acquire
	p.releaseSize = release
	p.description = description
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
