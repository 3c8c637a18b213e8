package stream

import (
	"fmt"
	"reflect"

	"pipelined.dev/stream/buffer"
)

type (
	// SinkProxy is an input of a composite algorithm. Source connected
	// to the proxy feeds the inner consumer the proxy is attached to.
	SinkProxy[T any] struct {
		portBase
		src    *Source[T]
		target Consumer[T]
	}

	// SourceProxy is an output of a composite algorithm. Consumers
	// connected to the proxy read directly from the inner producer.
	SourceProxy[T any] struct {
		portBase
		inner     Producer[T]
		consumers []Consumer[T]
	}
)

// NewSinkProxy returns a detached sink proxy.
func NewSinkProxy[T any](name string) *SinkProxy[T] {
	return &SinkProxy[T]{portBase: newPortBase(name)}
}

// Attach forwards the proxy to the inner consumer.
func (p *SinkProxy[T]) Attach(target Consumer[T]) error {
	if p.target != nil {
		return &ConfigurationError{Node: p.parentName(), Port: p.name, Err: fmt.Errorf("%w: proxy already attached to %s", ErrAlreadyConnected, p.target.FullName())}
	}
	if p.src != nil {
		if err := target.attach(p.src); err != nil {
			return err
		}
	}
	p.target = target
	return nil
}

// Target returns the inner consumer or nil.
func (p *SinkProxy[T]) Target() SinkPort {
	if p.target == nil {
		return nil
	}
	return p.target
}

// IsConnected returns true if a source feeds the proxy.
func (p *SinkProxy[T]) IsConnected() bool {
	return p.src != nil
}

// TokenType returns the type of consumed tokens.
func (p *SinkProxy[T]) TokenType() reflect.Type {
	return typeOf[T]()
}

// Source returns the connected source or nil.
func (p *SinkProxy[T]) Source() SourcePort {
	if p.src == nil {
		return nil
	}
	return p.src
}

// Available forwards to the inner consumer.
func (p *SinkProxy[T]) Available() int {
	return p.mustTarget().Available()
}

// Acquire forwards to the inner consumer.
func (p *SinkProxy[T]) Acquire(n int) bool {
	return p.mustTarget().Acquire(n)
}

// Release forwards to the inner consumer.
func (p *SinkProxy[T]) Release(n int) {
	p.mustTarget().Release(n)
}

// Discard forwards to the inner consumer.
func (p *SinkProxy[T]) Discard() int {
	return p.mustTarget().Discard()
}

// Reset does nothing, proxies hold no state.
func (p *SinkProxy[T]) Reset() {}

func (p *SinkProxy[T]) resolve() []SinkPort {
	if p.target == nil {
		return nil
	}
	return p.target.resolve()
}

func (p *SinkProxy[T]) attach(src *Source[T]) error {
	if p.src != nil {
		return &ConfigurationError{Node: p.parentName(), Port: p.name, Err: fmt.Errorf("%w: %s is already fed by %s", ErrAlreadyConnected, p.FullName(), p.src.FullName())}
	}
	if p.target != nil {
		if err := p.target.attach(src); err != nil {
			return err
		}
	}
	p.src = src
	return nil
}

func (p *SinkProxy[T]) detach() {
	if p.target != nil {
		p.target.detach()
	}
	p.src = nil
}

func (p *SinkProxy[T]) mustTarget() Consumer[T] {
	if p.target == nil {
		panic(&NotConnectedError{Port: p.FullName()})
	}
	return p.target
}

// NewSourceProxy returns a detached source proxy.
func NewSourceProxy[T any](name string) *SourceProxy[T] {
	return &SourceProxy[T]{portBase: newPortBase(name)}
}

// Attach forwards the proxy to the inner producer. Consumers connected
// before attachment are connected to the producer.
func (p *SourceProxy[T]) Attach(inner Producer[T]) error {
	if p.inner != nil {
		return &ConfigurationError{Node: p.parentName(), Port: p.name, Err: fmt.Errorf("%w: proxy already attached to %s", ErrAlreadyConnected, p.inner.FullName())}
	}
	p.inner = inner
	pending := p.consumers
	p.consumers = nil
	for _, c := range pending {
		if err := p.connectPort(c); err != nil {
			return err
		}
	}
	return nil
}

// Inner returns the inner producer or nil.
func (p *SourceProxy[T]) Inner() SourcePort {
	if p.inner == nil {
		return nil
	}
	return p.inner
}

// IsConnected returns true if proxy has consumers.
func (p *SourceProxy[T]) IsConnected() bool {
	return len(p.consumers) > 0
}

// TokenType returns the type of produced tokens.
func (p *SourceProxy[T]) TokenType() reflect.Type {
	return typeOf[T]()
}

// Consumers returns sink ports connected through the proxy.
func (p *SourceProxy[T]) Consumers() []SinkPort {
	result := make([]SinkPort, 0, len(p.consumers))
	for _, c := range p.consumers {
		result = append(result, c)
	}
	return result
}

// TotalProduced forwards to the inner producer.
func (p *SourceProxy[T]) TotalProduced() int64 {
	if p.inner == nil {
		return 0
	}
	return p.inner.TotalProduced()
}

// Acquire forwards to the inner producer.
func (p *SourceProxy[T]) Acquire(n int) bool {
	return p.mustInner().Acquire(n)
}

// Release forwards to the inner producer.
func (p *SourceProxy[T]) Release(n int) {
	p.mustInner().Release(n)
}

// SetBufferConfig replaces the buffer of the inner source. It must be
// called before the inner source is connected.
func (p *SourceProxy[T]) SetBufferConfig(c buffer.Config) error {
	s, err := p.source()
	if err != nil {
		return err
	}
	return s.SetBufferConfig(c)
}

// Reset does nothing, proxies hold no state.
func (p *SourceProxy[T]) Reset() {}

func (p *SourceProxy[T]) source() (*Source[T], error) {
	if p.inner == nil {
		return nil, &ConfigurationError{Node: p.parentName(), Port: p.name, Err: ErrDanglingPort}
	}
	return p.inner.source()
}

func (p *SourceProxy[T]) devNull() (Algorithm, error) {
	return discard[T](p)
}

func (p *SourceProxy[T]) origin() (SourcePort, error) {
	return p.source()
}

func (p *SourceProxy[T]) connectPort(sink SinkPort) error {
	c, ok := sink.(Consumer[T])
	if !ok {
		return mismatch(p, sink)
	}
	if p.inner != nil {
		if err := p.inner.connectPort(c); err != nil {
			return err
		}
	}
	p.consumers = append(p.consumers, c)
	return nil
}

func (p *SourceProxy[T]) disconnectPort(sink SinkPort) error {
	for i := range p.consumers {
		if p.consumers[i] == sink {
			if p.inner != nil {
				if err := p.inner.disconnectPort(sink); err != nil {
					return err
				}
			}
			p.consumers = append(p.consumers[:i], p.consumers[i+1:]...)
			return nil
		}
	}
	return &ConfigurationError{Node: p.parentName(), Port: p.name, Err: fmt.Errorf("%s is not connected to %s", sink.FullName(), p.FullName())}
}

func (p *SourceProxy[T]) mustInner() Producer[T] {
	if p.inner == nil {
		panic(&NotConnectedError{Port: p.FullName()})
	}
	return p.inner
}
