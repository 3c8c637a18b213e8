package stream

import (
	"fmt"
	"reflect"

	"pipelined.dev/stream/buffer"
)

// Sink is a consuming port. It reads from the buffer of the connected
// source through its own cursor.
type Sink[T any] struct {
	portBase
	src    *Source[T]
	reader buffer.ReaderID
	tokens []T
}

// NewSink returns an unconnected sink port.
func NewSink[T any](name string) *Sink[T] {
	return &Sink[T]{portBase: newPortBase(name)}
}

// IsConnected returns true if sink is attached to a source.
func (s *Sink[T]) IsConnected() bool {
	return s.src != nil
}

// TokenType returns the type of consumed tokens.
func (s *Sink[T]) TokenType() reflect.Type {
	return typeOf[T]()
}

// Source returns the connected source or nil.
func (s *Sink[T]) Source() SourcePort {
	if s.src == nil {
		return nil
	}
	return s.src
}

// Available returns the number of unread tokens.
func (s *Sink[T]) Available() int {
	return s.mustSource().buf.AvailableForRead(s.reader)
}

// Acquire requests a view of the next n tokens. It returns false if not
// enough tokens were produced.
func (s *Sink[T]) Acquire(n int) bool {
	tokens, ok := s.mustSource().buf.AcquireForRead(s.reader, n)
	s.tokens = tokens
	return ok
}

// Tokens returns tokens granted by the last Acquire.
func (s *Sink[T]) Tokens() []T {
	return s.tokens
}

// FirstToken returns the first granted token.
func (s *Sink[T]) FirstToken() T {
	return s.tokens[0]
}

// Release consumes n tokens.
func (s *Sink[T]) Release(n int) {
	s.mustSource().buf.ReleaseForRead(s.reader, n)
	s.tokens = s.tokens[n:]
}

// Pop consumes a single token.
func (s *Sink[T]) Pop() (T, bool) {
	if !s.Acquire(1) {
		var zero T
		return zero, false
	}
	v := s.tokens[0]
	s.Release(1)
	return v, true
}

// Discard consumes every available token.
func (s *Sink[T]) Discard() int {
	n := s.Available()
	if n > 0 && s.Acquire(n) {
		s.Release(n)
	}
	return n
}

// Reset drops the granted view. Cursor is rewound by the source.
func (s *Sink[T]) Reset() {
	s.tokens = nil
}

func (s *Sink[T]) resolve() []SinkPort {
	return []SinkPort{s}
}

func (s *Sink[T]) attach(src *Source[T]) error {
	if s.src != nil {
		return &ConfigurationError{
			Node: s.parentName(),
			Port: s.name,
			Err:  fmt.Errorf("%w: %s is already fed by %s", ErrAlreadyConnected, s.FullName(), s.src.FullName()),
		}
	}
	s.src = src
	s.reader = src.buf.AddReader()
	return nil
}

func (s *Sink[T]) detach() {
	if s.src == nil {
		return
	}
	s.src.buf.RemoveReader(s.reader)
	s.src = nil
	s.tokens = nil
}

func (s *Sink[T]) mustSource() *Source[T] {
	if s.src == nil {
		panic(&NotConnectedError{Port: s.FullName()})
	}
	return s.src
}
