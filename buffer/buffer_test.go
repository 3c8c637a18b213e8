package buffer_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"pipelined.dev/stream/buffer"
)

func write(t *testing.T, b *buffer.Buffer[int], values ...int) {
	t.Helper()
	out, ok, err := b.AcquireForWrite(len(values))
	require.NoError(t, err)
	require.True(t, ok)
	copy(out, values)
	b.ReleaseForWrite(len(values))
}

func read(t *testing.T, b *buffer.Buffer[int], id buffer.ReaderID, n int) []int {
	t.Helper()
	in, ok := b.AcquireForRead(id, n)
	require.True(t, ok)
	result := append([]int(nil), in...)
	b.ReleaseForRead(id, n)
	return result
}

func TestAcquireForRead(t *testing.T) {
	b := buffer.New[int](buffer.Config{Capacity: 4})
	r := b.AddReader()

	_, ok := b.AcquireForRead(r, 1)
	assert.False(t, ok, "empty buffer")

	write(t, b, 1, 2, 3)
	assert.Equal(t, 3, b.AvailableForRead(r))

	_, ok = b.AcquireForRead(r, 4)
	assert.False(t, ok, "not enough tokens")

	in, ok := b.AcquireForRead(r, 2)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, in)
	assert.Equal(t, 3, b.AvailableForRead(r), "acquire must not move cursor")

	b.ReleaseForRead(r, 2)
	assert.Equal(t, 1, b.AvailableForRead(r))
	assert.Equal(t, []int{3}, read(t, b, r, 1))
}

func TestReleaseOverflow(t *testing.T) {
	b := buffer.New[int](buffer.Config{})
	r := b.AddReader()
	write(t, b, 1, 2)

	_, ok := b.AcquireForRead(r, 1)
	require.True(t, ok)
	assert.PanicsWithError(t, "release exceeds acquired tokens: reader 0 released 2 of 1", func() {
		b.ReleaseForRead(r, 2)
	})
	assert.Panics(t, func() {
		b.ReleaseForWrite(1)
	})
}

func TestLateReader(t *testing.T) {
	b := buffer.New[int](buffer.Config{Capacity: 2})
	early := b.AddReader()
	write(t, b, 1, 2, 3)

	late := b.AddReader()
	assert.Equal(t, 0, b.AvailableForRead(late))
	assert.Equal(t, b.TotalProduced(), b.ReadCursor(late))

	write(t, b, 4)
	assert.Equal(t, []int{4}, read(t, b, late, 1))
	assert.Equal(t, []int{1, 2, 3, 4}, read(t, b, early, 4))
}

func TestGrowthPreservesTokens(t *testing.T) {
	b := buffer.New[int](buffer.Config{Capacity: 2})
	r := b.AddReader()
	write(t, b, 1, 2)
	assert.Equal(t, []int{1}, read(t, b, r, 1))

	write(t, b, 3, 4, 5)
	assert.GreaterOrEqual(t, b.Capacity(), 4)
	assert.Equal(t, 0, b.Capacity()%2)

	write(t, b, 6, 7, 8, 9, 10, 11)
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, read(t, b, r, 10))
}

func TestGrowthFactor(t *testing.T) {
	b := buffer.New[int](buffer.Config{Capacity: 2, GrowthFactor: 3})
	b.AddReader()
	write(t, b, 1, 2, 3)
	assert.Equal(t, 6, b.Capacity())
}

func TestReclaim(t *testing.T) {
	b := buffer.New[int](buffer.Config{Capacity: 4})
	r := b.AddReader()
	for i := 0; i < 100; i++ {
		write(t, b, i, i+1, i+2)
		assert.Equal(t, []int{i, i + 1, i + 2}, read(t, b, r, 3))
	}
	assert.Equal(t, 4, b.Capacity(), "consumed tokens must be reclaimed instead of growing")
}

func TestFixedCapacity(t *testing.T) {
	b := buffer.New[int](buffer.Config{Capacity: 4, Fixed: true})
	r := b.AddReader()

	ok, err := b.CanAcquireForWrite(4)
	assert.True(t, ok)
	assert.NoError(t, err)

	_, ok, err = b.AcquireForWrite(5)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, buffer.ErrCapacityExceeded))
	var capErr *buffer.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 5, capErr.Requested)
	assert.Equal(t, 4, capErr.Ceiling)

	write(t, b, 1, 2, 3)
	_, ok, err = b.AcquireForWrite(2)
	assert.False(t, ok, "reader holds the space")
	assert.NoError(t, err, "backpressure is not an error")

	read(t, b, r, 2)
	write(t, b, 4, 5)
	assert.Equal(t, 4, b.Capacity())
	assert.Equal(t, []int{3, 4, 5}, read(t, b, r, 3))
}

func TestMaxCapacity(t *testing.T) {
	b := buffer.New[int](buffer.Config{Capacity: 2, MaxCapacity: 5})
	r := b.AddReader()
	write(t, b, 1, 2, 3)
	assert.Equal(t, 4, b.Capacity())

	write(t, b, 4, 5)
	assert.Equal(t, 5, b.Capacity(), "growth is clamped to the ceiling")

	_, ok, err := b.AcquireForWrite(1)
	assert.False(t, ok)
	assert.NoError(t, err)

	_, _, err = b.AcquireForWrite(6)
	assert.ErrorIs(t, err, buffer.ErrCapacityExceeded)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, read(t, b, r, 5))
}

func TestLastTokenProduced(t *testing.T) {
	b := buffer.New[int](buffer.Config{})
	_, ok := b.LastTokenProduced()
	assert.False(t, ok)
	b.AddReader()
	write(t, b, 7, 8)
	v, ok := b.LastTokenProduced()
	assert.True(t, ok)
	assert.Equal(t, 8, v)
}

func TestReset(t *testing.T) {
	b := buffer.New[int](buffer.Config{Capacity: 2})
	r := b.AddReader()
	write(t, b, 1, 2, 3, 4, 5)
	b.Reset()
	assert.Equal(t, 2, b.Capacity())
	assert.Equal(t, int64(0), b.TotalProduced())
	assert.Equal(t, 0, b.AvailableForRead(r))
	assert.Equal(t, 1, b.Readers())
}

func TestRemoveReader(t *testing.T) {
	b := buffer.New[int](buffer.Config{Capacity: 2})
	slow := b.AddReader()
	fast := b.AddReader()
	write(t, b, 1, 2)
	read(t, b, fast, 2)
	b.RemoveReader(slow)
	write(t, b, 3, 4)
	assert.Equal(t, 2, b.Capacity(), "removed reader no longer pins tokens")
	assert.Panics(t, func() { b.AvailableForRead(slow) })
}

// TestCursorInvariant drives random operation sequences against a buffer
// and checks read cursors never overtake the write cursor, capacity
// always covers unconsumed tokens and every reader sees the produced
// sequence in order.
func TestCursorInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := buffer.Config{
			Capacity:     rapid.IntRange(1, 8).Draw(rt, "capacity"),
			GrowthFactor: rapid.IntRange(2, 4).Draw(rt, "factor"),
		}
		b := buffer.New[int](cfg)
		var (
			readers  []buffer.ReaderID
			expected = map[buffer.ReaderID]int{}
			next     int
		)
		addReader := func() {
			id := b.AddReader()
			readers = append(readers, id)
			expected[id] = next
		}
		addReader()

		steps := rapid.IntRange(1, 200).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 9).Draw(rt, "op") {
			case 0:
				addReader()
			case 1, 2, 3, 4:
				n := rapid.IntRange(0, 16).Draw(rt, "write")
				out, ok, err := b.AcquireForWrite(n)
				if err != nil || !ok {
					rt.Fatalf("unbounded write failed: %v", err)
				}
				for j := range out {
					out[j] = next + j
				}
				b.ReleaseForWrite(n)
				next += n
			default:
				id := readers[rapid.IntRange(0, len(readers)-1).Draw(rt, "reader")]
				n := rapid.IntRange(0, 16).Draw(rt, "read")
				in, ok := b.AcquireForRead(id, n)
				if !ok {
					if n <= b.AvailableForRead(id) {
						rt.Fatalf("acquire of %d failed with %d available", n, b.AvailableForRead(id))
					}
					continue
				}
				for j, v := range in {
					if v != expected[id]+j {
						rt.Fatalf("reader %d got %d, expected %d", id, v, expected[id]+j)
					}
				}
				b.ReleaseForRead(id, n)
				expected[id] += n
			}

			for _, id := range readers {
				if b.ReadCursor(id) > b.TotalProduced() {
					rt.Fatalf("reader %d cursor %d overtook write cursor %d", id, b.ReadCursor(id), b.TotalProduced())
				}
			}
			if b.Capacity() < b.Len() {
				rt.Fatalf("capacity %d below unconsumed %d", b.Capacity(), b.Len())
			}
		}
	})
}

// TestFixedCeiling checks fixed buffers reject requests exactly above the
// declared capacity.
func TestFixedCeiling(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 64).Draw(rt, "capacity")
		n := rapid.IntRange(0, 128).Draw(rt, "n")
		b := buffer.New[int](buffer.Config{Capacity: capacity, Fixed: true})
		b.AddReader()
		_, ok, err := b.AcquireForWrite(n)
		if n > capacity {
			if !errors.Is(err, buffer.ErrCapacityExceeded) || ok {
				rt.Fatalf("request %d over %d must fail, got ok=%v err=%v", n, capacity, ok, err)
			}
			return
		}
		if err != nil || !ok {
			rt.Fatalf("request %d within %d must succeed, got ok=%v err=%v", n, capacity, ok, err)
		}
		if b.Capacity() != capacity {
			rt.Fatalf("fixed buffer changed capacity to %d", b.Capacity())
		}
	})
}
