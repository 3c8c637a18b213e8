package stream

import (
	"fmt"
	"reflect"

	"pipelined.dev/stream/buffer"
)

// Source is a producing port. It owns the buffer that all connected
// sinks read from.
type Source[T any] struct {
	portBase
	buf       *buffer.Buffer[T]
	consumers []Consumer[T]
	tokens    []T
}

// NewSource returns a source port with default buffer config.
func NewSource[T any](name string) *Source[T] {
	return &Source[T]{
		portBase: newPortBase(name),
		buf:      buffer.New[T](buffer.Config{}),
	}
}

// SetBufferConfig replaces the buffer of the source. It must be called
// before the source is connected.
func (s *Source[T]) SetBufferConfig(c buffer.Config) error {
	if len(s.consumers) > 0 {
		return &ConfigurationError{Node: s.parentName(), Port: s.name, Err: fmt.Errorf("%w: cannot change buffer of connected source", ErrAlreadyConnected)}
	}
	s.buf = buffer.New[T](c)
	return nil
}

// BufferConfig returns the config of the underlying buffer.
func (s *Source[T]) BufferConfig() buffer.Config {
	return s.buf.Config()
}

// Capacity returns the current capacity of the underlying buffer.
func (s *Source[T]) Capacity() int {
	return s.buf.Capacity()
}

// IsConnected returns true if source has at least one consumer.
func (s *Source[T]) IsConnected() bool {
	return len(s.consumers) > 0
}

// TokenType returns the type of produced tokens.
func (s *Source[T]) TokenType() reflect.Type {
	return typeOf[T]()
}

// Consumers returns connected sink ports.
func (s *Source[T]) Consumers() []SinkPort {
	result := make([]SinkPort, 0, len(s.consumers))
	for _, c := range s.consumers {
		result = append(result, c)
	}
	return result
}

// Acquire requests n free slots. It returns false when consumers did
// not release enough space yet. An unconnected source and a request
// that can never fit the buffer are fatal.
func (s *Source[T]) Acquire(n int) bool {
	if len(s.consumers) == 0 {
		panic(&NotConnectedError{Port: s.FullName()})
	}
	tokens, ok, err := s.buf.AcquireForWrite(n)
	if err != nil {
		panic(&CapacityExceededError{Port: s.FullName(), Err: err})
	}
	s.tokens = tokens
	return ok
}

// Tokens returns slots granted by the last Acquire.
func (s *Source[T]) Tokens() []T {
	return s.tokens
}

// Release publishes n tokens to consumers.
func (s *Source[T]) Release(n int) {
	s.buf.ReleaseForWrite(n)
	s.tokens = s.tokens[n:]
}

// Push produces a single token. It returns false on backpressure.
func (s *Source[T]) Push(v T) bool {
	if !s.Acquire(1) {
		return false
	}
	s.tokens[0] = v
	s.Release(1)
	return true
}

// TotalProduced returns number of tokens produced since reset.
func (s *Source[T]) TotalProduced() int64 {
	return s.buf.TotalProduced()
}

// LastTokenProduced returns the most recent token.
func (s *Source[T]) LastTokenProduced() (T, bool) {
	return s.buf.LastTokenProduced()
}

// Reset drops buffered tokens and rewinds consumers.
func (s *Source[T]) Reset() {
	s.buf.Reset()
	s.tokens = nil
}

func (s *Source[T]) source() (*Source[T], error) {
	return s, nil
}

func (s *Source[T]) devNull() (Algorithm, error) {
	return discard[T](s)
}

func (s *Source[T]) origin() (SourcePort, error) {
	return s, nil
}

func (s *Source[T]) connect(c Consumer[T]) error {
	if err := c.attach(s); err != nil {
		return err
	}
	s.consumers = append(s.consumers, c)
	return nil
}

func (s *Source[T]) disconnect(c Consumer[T]) error {
	for i := range s.consumers {
		if s.consumers[i] == c {
			c.detach()
			s.consumers = append(s.consumers[:i], s.consumers[i+1:]...)
			return nil
		}
	}
	return &ConfigurationError{Node: s.parentName(), Port: s.name, Err: fmt.Errorf("%s is not connected to %s", c.FullName(), s.FullName())}
}

func (s *Source[T]) connectPort(sink SinkPort) error {
	c, ok := sink.(Consumer[T])
	if !ok {
		return mismatch(s, sink)
	}
	return s.connect(c)
}

func (s *Source[T]) disconnectPort(sink SinkPort) error {
	c, ok := sink.(Consumer[T])
	if !ok {
		return mismatch(s, sink)
	}
	return s.disconnect(c)
}
