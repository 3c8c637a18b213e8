// Package buffer provides the multi-rate, multi-reader token buffer that
// backs every producing port of a stream network.
//
// A Buffer has a single writer and any number of readers. The writer
// moves a monotonic write cursor, every reader moves its own monotonic
// read cursor. Data is handed out as contiguous slice views:
//
//	out, ok, err := b.AcquireForWrite(n) // view of the next n free slots
//	...                                  // fill out
//	b.ReleaseForWrite(n)                 // publish n tokens
//
//	in, ok := b.AcquireForRead(id, n)    // view of the next n unread tokens
//	...                                  // consume in
//	b.ReleaseForRead(id, n)              // advance reader cursor
//
// Views stay valid until the next AcquireForWrite call, which may
// relocate the live region when it reclaims space or grows.
package buffer

import (
	"errors"
	"fmt"
)

const (
	// DefaultCapacity is used when Config.Capacity is not set.
	DefaultCapacity = 1024
	// DefaultGrowthFactor is used when Config.GrowthFactor is not set.
	DefaultGrowthFactor = 2
)

var (
	// ErrCapacityExceeded is returned when a write request can never be
	// satisfied by the buffer.
	ErrCapacityExceeded = errors.New("buffer capacity exceeded")
	// ErrReleaseOverflow is the panic value when more tokens are released
	// than were acquired.
	ErrReleaseOverflow = errors.New("release exceeds acquired tokens")
	// ErrUnknownReader is the panic value when a reader id is not
	// attached to the buffer.
	ErrUnknownReader = errors.New("unknown reader")
)

type (
	// ReaderID identifies a reader cursor within a single buffer.
	ReaderID int

	// Config defines capacity and growth policy of the buffer.
	Config struct {
		// Capacity is the initial number of token slots.
		Capacity int
		// MaxCapacity is a hard ceiling for growth. Zero means no ceiling.
		MaxCapacity int
		// Fixed buffers never grow, Capacity is their ceiling.
		Fixed bool
		// GrowthFactor multiplies capacity on growth. Values below 2 are
		// raised to 2.
		GrowthFactor int
	}

	// CapacityError describes a write request that cannot fit.
	CapacityError struct {
		Requested int
		Ceiling   int
		Fixed     bool
	}

	// Buffer is a growable token buffer with a single writer and multiple
	// independent readers. It is not safe for concurrent use.
	Buffer[T any] struct {
		config  Config
		data    []T
		base    int64 // absolute position of data[0]
		write   int64
		granted int // write slots granted and not released
		readers []*reader
		nextID  ReaderID
	}

	reader struct {
		id      ReaderID
		cursor  int64
		granted int
	}
)

func (e *CapacityError) Error() string {
	if e.Fixed {
		return fmt.Sprintf("%v: requested %d tokens from fixed buffer of %d", ErrCapacityExceeded, e.Requested, e.Ceiling)
	}
	return fmt.Sprintf("%v: requested %d tokens, ceiling is %d", ErrCapacityExceeded, e.Requested, e.Ceiling)
}

// Is reports ErrCapacityExceeded as the sentinel of this error.
func (e *CapacityError) Is(err error) bool {
	return err == ErrCapacityExceeded
}

func (c Config) normalize() Config {
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.GrowthFactor < DefaultGrowthFactor {
		c.GrowthFactor = DefaultGrowthFactor
	}
	if c.MaxCapacity > 0 && c.MaxCapacity < c.Capacity {
		c.Capacity = c.MaxCapacity
	}
	return c
}

// ceiling returns the maximum number of slots or -1 if unbounded.
func (c Config) ceiling() int {
	switch {
	case c.Fixed:
		return c.Capacity
	case c.MaxCapacity > 0:
		return c.MaxCapacity
	}
	return -1
}

// New returns a buffer with provided config.
func New[T any](c Config) *Buffer[T] {
	c = c.normalize()
	return &Buffer[T]{
		config: c,
		data:   make([]T, c.Capacity),
	}
}

// Config returns the normalized config of the buffer.
func (b *Buffer[T]) Config() Config {
	return b.config
}

// AddReader attaches a new reader. Its cursor starts at the current
// write cursor, so it never observes tokens produced before attachment.
func (b *Buffer[T]) AddReader() ReaderID {
	id := b.nextID
	b.nextID++
	b.readers = append(b.readers, &reader{id: id, cursor: b.write})
	return id
}

// RemoveReader detaches the reader. Unknown ids are ignored.
func (b *Buffer[T]) RemoveReader(id ReaderID) {
	for i, r := range b.readers {
		if r.id == id {
			b.readers = append(b.readers[:i], b.readers[i+1:]...)
			return
		}
	}
}

// Readers returns number of attached readers.
func (b *Buffer[T]) Readers() int {
	return len(b.readers)
}

// Capacity returns current number of slots.
func (b *Buffer[T]) Capacity() int {
	return len(b.data)
}

// TotalProduced returns the write cursor.
func (b *Buffer[T]) TotalProduced() int64 {
	return b.write
}

// ReadCursor returns the cursor of the reader.
func (b *Buffer[T]) ReadCursor(id ReaderID) int64 {
	return b.reader(id).cursor
}

// Len returns the number of tokens not yet consumed by the slowest
// reader.
func (b *Buffer[T]) Len() int {
	return int(b.write - b.low())
}

// LastTokenProduced returns the most recently released token. The second
// value is false if nothing was produced since the last reset or if the
// token was already reclaimed.
func (b *Buffer[T]) LastTokenProduced() (T, bool) {
	var zero T
	if b.write == 0 || b.write-1 < b.base {
		return zero, false
	}
	return b.data[b.write-1-b.base], true
}

// AvailableForRead returns number of tokens the reader can acquire.
func (b *Buffer[T]) AvailableForRead(id ReaderID) int {
	return int(b.write - b.reader(id).cursor)
}

// AcquireForRead grants the reader a view of its next n unread tokens.
// It returns false if fewer than n tokens are available. The cursor is
// not moved.
func (b *Buffer[T]) AcquireForRead(id ReaderID, n int) ([]T, bool) {
	r := b.reader(id)
	if n < 0 || int64(n) > b.write-r.cursor {
		return nil, false
	}
	r.granted = n
	start := int(r.cursor - b.base)
	return b.data[start : start+n : start+n], true
}

// ReleaseForRead advances the reader cursor by n. Releasing more than
// was granted panics with ErrReleaseOverflow.
func (b *Buffer[T]) ReleaseForRead(id ReaderID, n int) {
	r := b.reader(id)
	if n < 0 || n > r.granted {
		panic(fmt.Errorf("%w: reader %d released %d of %d", ErrReleaseOverflow, id, n, r.granted))
	}
	r.cursor += int64(n)
	r.granted -= n
}

// AcquireForWrite grants a view of the next n free slots. Capacity grows
// if needed. It returns false without error when the buffer is bounded
// and lagging readers hold the space. An error is returned when n can
// never fit into the buffer.
func (b *Buffer[T]) AcquireForWrite(n int) ([]T, bool, error) {
	if ok, err := b.CanAcquireForWrite(n); !ok || err != nil {
		return nil, false, err
	}
	low := b.low()
	live := int(b.write - low)
	switch {
	case int(b.write-b.base)+n <= len(b.data):
		// fits after the write cursor
	case live+n <= len(b.data):
		b.relocate(b.data, low)
	default:
		b.relocate(make([]T, b.grownCapacity(live+n)), low)
	}
	b.granted = n
	start := int(b.write - b.base)
	return b.data[start : start+n : start+n], true, nil
}

// CanAcquireForWrite reports whether AcquireForWrite(n) would succeed now.
func (b *Buffer[T]) CanAcquireForWrite(n int) (bool, error) {
	if n < 0 {
		return false, nil
	}
	ceiling := b.config.ceiling()
	if ceiling < 0 {
		return true, nil
	}
	if n > ceiling {
		return false, &CapacityError{Requested: n, Ceiling: ceiling, Fixed: b.config.Fixed}
	}
	return int(b.write-b.low())+n <= ceiling, nil
}

// ReleaseForWrite publishes n tokens. Releasing more than was granted
// panics with ErrReleaseOverflow.
func (b *Buffer[T]) ReleaseForWrite(n int) {
	if n < 0 || n > b.granted {
		panic(fmt.Errorf("%w: writer released %d of %d", ErrReleaseOverflow, n, b.granted))
	}
	b.write += int64(n)
	b.granted -= n
}

// Reset drops all tokens and rewinds every cursor. Readers stay
// attached, capacity returns to the initial value.
func (b *Buffer[T]) Reset() {
	b.data = make([]T, b.config.Capacity)
	b.base, b.write, b.granted = 0, 0, 0
	for _, r := range b.readers {
		r.cursor, r.granted = 0, 0
	}
}

// low returns the lowest position still needed by any reader.
func (b *Buffer[T]) low() int64 {
	low := b.write
	for _, r := range b.readers {
		if r.cursor < low {
			low = r.cursor
		}
	}
	return low
}

// relocate moves live tokens [low, write) to the beginning of dst.
func (b *Buffer[T]) relocate(dst []T, low int64) {
	copy(dst, b.data[low-b.base:b.write-b.base])
	b.data = dst
	b.base = low
}

func (b *Buffer[T]) grownCapacity(need int) int {
	c := len(b.data)
	if c == 0 {
		c = 1
	}
	for c < need {
		c *= b.config.GrowthFactor
	}
	if ceiling := b.config.ceiling(); ceiling >= 0 && c > ceiling {
		c = ceiling
	}
	return c
}

func (b *Buffer[T]) reader(id ReaderID) *reader {
	for _, r := range b.readers {
		if r.id == id {
			return r
		}
	}
	panic(fmt.Errorf("%w: %d", ErrUnknownReader, id))
}
