package pool

import (
	"errors"
	"fmt"

	"pipelined.dev/stream"
	"pipelined.dev/stream/signal"
)

// ErrUnsupportedType is returned when a port of unknown type is connected
// to the pool.
var ErrUnsupportedType = errors.New("unsupported token type")

// Storage is a network sink that stores every received token in the
// pool. It consumes everything available, so it never causes
// backpressure.
type Storage[T any] struct {
	stream.Base
	pool   *Pool
	key    string
	single bool
	in     *stream.Sink[T]
}

// NewStorage returns a storage that adds tokens to the key. If single is
// true, only the last token is kept.
func NewStorage[T any](p *Pool, key string, single bool) *Storage[T] {
	s := &Storage[T]{
		pool:   p,
		key:    key,
		single: single,
		in:     stream.NewSink[T]("data"),
	}
	s.Init(s, "PoolStorage")
	s.DeclareInput(s.in, 1, 1, "data to store")
	return s
}

// Connect stores every token of the producer under the key.
func Connect[T any](src stream.Producer[T], p *Pool, key string) (*Storage[T], error) {
	return connect(src, NewStorage[T](p, key, false))
}

// ConnectSingle stores the last token of the producer under the key.
func ConnectSingle[T any](src stream.Producer[T], p *Pool, key string) (*Storage[T], error) {
	return connect(src, NewStorage[T](p, key, true))
}

// ConnectPort stores tokens of a port of type unknown at compile time.
// Supported token types are numbers, strings, real frames and stereo
// samples.
func ConnectPort(src stream.SourcePort, p *Pool, key string, single bool) (stream.Algorithm, error) {
	switch s := src.(type) {
	case stream.Producer[float64]:
		return connectAs(s, p, key, single)
	case stream.Producer[[]float64]:
		return connectAs(s, p, key, single)
	case stream.Producer[int]:
		return connectAs(s, p, key, single)
	case stream.Producer[string]:
		return connectAs(s, p, key, single)
	case stream.Producer[[]string]:
		return connectAs(s, p, key, single)
	case stream.Producer[signal.Stereo]:
		return connectAs(s, p, key, single)
	}
	return nil, &stream.ConfigurationError{Port: src.FullName(), Err: fmt.Errorf("%w: %v", ErrUnsupportedType, src.TokenType())}
}

func connectAs[T any](src stream.Producer[T], p *Pool, key string, single bool) (stream.Algorithm, error) {
	s, err := connect(src, NewStorage[T](p, key, single))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func connect[T any](src stream.Producer[T], s *Storage[T]) (*Storage[T], error) {
	if err := validKey(s.key); err != nil {
		return nil, &stream.ConfigurationError{Node: s.Name(), Err: err}
	}
	if err := stream.Connect[T](src, s.in); err != nil {
		return nil, err
	}
	return s, nil
}

// Key returns the pool key.
func (s *Storage[T]) Key() string {
	return s.key
}

// Process stores available tokens.
func (s *Storage[T]) Process() (stream.Status, error) {
	n := s.in.Available()
	if n == 0 {
		return stream.NoInput, nil
	}
	s.in.Acquire(n)
	var err error
	for _, v := range s.in.Tokens() {
		if s.single {
			err = s.pool.Set(s.key, clone(v))
		} else {
			err = s.pool.Add(s.key, clone(v))
		}
		if err != nil {
			return stream.OK, err
		}
	}
	s.in.Release(n)
	return stream.OK, nil
}

// clone copies slice tokens, producers reuse their frames.
func clone[T any](v T) interface{} {
	switch x := any(v).(type) {
	case []float64:
		return append([]float64(nil), x...)
	case []float32:
		return append([]float32(nil), x...)
	case []int:
		return append([]int(nil), x...)
	case []string:
		return append([]string(nil), x...)
	}
	return v
}
