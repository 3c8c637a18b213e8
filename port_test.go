package stream_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/stream"
	"pipelined.dev/stream/buffer"
	"pipelined.dev/stream/param"
)

// scaler multiplies frames of 2 tokens by the factor parameter.
type scaler struct {
	stream.Base
	factor float64
	in     *stream.Sink[float64]
	out    *stream.Source[float64]
}

func newScaler() *scaler {
	s := &scaler{
		in:  stream.NewSink[float64]("signal"),
		out: stream.NewSource[float64]("signal"),
	}
	s.Init(s, "Scaler")
	s.DeclareInput(s.in, 2, 2, "input signal")
	s.DeclareOutput(s.out, 2, 2, "scaled signal")
	s.DeclareParameters(param.Parameter{Name: "factor", Range: "(0,inf)", Default: 1.0})
	s.factor = 1
	return s
}

func (s *scaler) Configure(m param.Map) error {
	if err := s.Base.Configure(m); err != nil {
		return err
	}
	s.factor = s.Params().Float("factor")
	return nil
}

func (s *scaler) Process() (stream.Status, error) {
	if status := s.AcquireData(); status != stream.OK {
		return status, nil
	}
	for i, v := range s.in.Tokens() {
		s.out.Tokens()[i] = v * s.factor
	}
	s.ReleaseData()
	return stream.OK, nil
}

func TestConnect(t *testing.T) {
	src := stream.NewSource[float64]("out")
	sink := stream.NewSink[float64]("in")
	assert.False(t, src.IsConnected())
	assert.False(t, sink.IsConnected())
	require.NoError(t, stream.Connect[float64](src, sink))
	assert.True(t, src.IsConnected())
	assert.True(t, sink.IsConnected())
	assert.Equal(t, stream.SourcePort(src), sink.Source())
	assert.Len(t, src.Consumers(), 1)

	t.Run("fan-in", func(t *testing.T) {
		other := stream.NewSource[float64]("other")
		err := stream.Connect[float64](other, sink)
		assert.ErrorIs(t, err, stream.ErrAlreadyConnected)
		assert.False(t, other.IsConnected())
	})
	t.Run("type mismatch", func(t *testing.T) {
		ints := stream.NewSink[int]("ints")
		err := stream.ConnectPorts(src, ints)
		assert.ErrorIs(t, err, stream.ErrTypeMismatch)
		var cfgErr *stream.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
	})
	t.Run("untyped", func(t *testing.T) {
		other := stream.NewSink[float64]("other")
		require.NoError(t, stream.ConnectPorts(src, other))
		assert.Len(t, src.Consumers(), 2)
		require.NoError(t, stream.DisconnectPorts(src, other))
		assert.False(t, other.IsConnected())
		assert.Error(t, stream.DisconnectPorts(src, other))
	})
	t.Run("buffer config of connected source", func(t *testing.T) {
		assert.ErrorIs(t, src.SetBufferConfig(buffer.Config{Capacity: 4}), stream.ErrAlreadyConnected)
	})
	require.NoError(t, stream.Disconnect[float64](src, sink))
	assert.False(t, src.IsConnected())
	assert.Nil(t, sink.Source())
}

func TestTokens(t *testing.T) {
	src := stream.NewSource[int]("out")
	early := stream.NewSink[int]("early")
	require.NoError(t, stream.Connect[int](src, early))

	for i := 1; i <= 3; i++ {
		require.True(t, src.Push(i))
	}
	last, ok := src.LastTokenProduced()
	assert.True(t, ok)
	assert.Equal(t, 3, last)

	late := stream.NewSink[int]("late")
	require.NoError(t, stream.Connect[int](src, late))
	assert.Equal(t, 0, late.Available(), "late sink never sees history")
	require.True(t, src.Push(4))

	v, ok := late.Pop()
	assert.True(t, ok)
	assert.Equal(t, 4, v)
	_, ok = late.Pop()
	assert.False(t, ok)

	require.True(t, early.Acquire(3))
	assert.Equal(t, 1, early.FirstToken())
	assert.Equal(t, []int{1, 2, 3}, early.Tokens())
	early.Release(3)
	assert.Equal(t, 1, early.Discard())
	assert.Equal(t, int64(4), src.TotalProduced())
}

func TestNotConnected(t *testing.T) {
	src := stream.NewSource[float64]("out")
	sink := stream.NewSink[float64]("in")
	assertNotConnected := func(port string, fn func()) func(*testing.T) {
		return func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r)
				err, ok := r.(error)
				require.True(t, ok)
				var notConnected *stream.NotConnectedError
				require.True(t, errors.As(err, &notConnected))
				assert.Equal(t, port, notConnected.Port)
			}()
			fn()
		}
	}
	t.Run("source", assertNotConnected("out", func() { src.Acquire(1) }))
	t.Run("sink", assertNotConnected("in", func() { sink.Acquire(1) }))
	t.Run("proxy", assertNotConnected("proxy", func() { stream.NewSinkProxy[float64]("proxy").Available() }))
}

func TestCapacityExceeded(t *testing.T) {
	s := newScaler()
	require.NoError(t, s.out.SetBufferConfig(buffer.Config{Capacity: 1, Fixed: true}))
	_, err := stream.Discard[float64](s.out)
	require.NoError(t, err)

	assert.PanicsWithError(t, "port Scaler.signal: buffer capacity exceeded: requested 2 tokens from fixed buffer of 1", func() {
		s.out.Acquire(2)
	})
}

func TestBase(t *testing.T) {
	s := newScaler()
	src := stream.NewSource[float64]("out")
	sink := stream.NewSink[float64]("in")
	require.NoError(t, stream.Connect[float64](src, s.in))
	require.NoError(t, stream.Connect[float64](s.out, sink))

	assert.Equal(t, "Scaler", s.Name())
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "Scaler.signal", s.in.FullName())
	assert.Equal(t, "input signal", s.in.Description())
	assert.Equal(t, stream.Algorithm(s), s.in.Parent())

	t.Run("ports by name", func(t *testing.T) {
		in, err := s.Input("signal")
		require.NoError(t, err)
		assert.Equal(t, stream.SinkPort(s.in), in)
		_, err = s.Output("spectrum")
		assert.ErrorIs(t, err, stream.ErrUnknownPort)
	})
	t.Run("configure", func(t *testing.T) {
		assert.Error(t, s.Configure(param.Map{"factor": -1}))
		assert.Error(t, s.Configure(param.Map{"gain": 2}))
		require.NoError(t, s.Configure(param.Map{"factor": 3}))
		assert.Equal(t, 3.0, s.factor)
	})
	t.Run("process", func(t *testing.T) {
		require.True(t, src.Push(1))
		status, err := s.Process()
		require.NoError(t, err)
		assert.Equal(t, stream.NoInput, status)

		require.True(t, src.Push(2))
		status, err = s.Process()
		require.NoError(t, err)
		assert.Equal(t, stream.OK, status)
		require.True(t, sink.Acquire(2))
		assert.Equal(t, []float64{3, 6}, sink.Tokens())
	})
	t.Run("reset", func(t *testing.T) {
		s.SetShouldStop(true)
		s.Reset()
		assert.False(t, s.ShouldStop())
		assert.Equal(t, int64(0), s.out.TotalProduced())
	})
}

func TestProxy(t *testing.T) {
	inner := newScaler()
	outer := stream.NewSinkProxy[float64]("signal")
	result := stream.NewSourceProxy[float64]("signal")
	src := stream.NewSource[float64]("out")
	sink := stream.NewSink[float64]("in")

	// consumer connected before the proxy is attached
	require.NoError(t, stream.Connect[float64](result, sink))
	require.NoError(t, stream.Connect[float64](src, outer))
	require.NoError(t, outer.Attach(inner.in))
	require.NoError(t, result.Attach(inner.out))

	assert.True(t, inner.in.IsConnected())
	assert.Equal(t, stream.SourcePort(inner.out), sink.Source())
	receivers, err := stream.Receivers(src)
	require.NoError(t, err)
	assert.Equal(t, []stream.SinkPort{inner.in}, receivers)

	assert.ErrorIs(t, outer.Attach(stream.NewSink[float64]("x")), stream.ErrAlreadyConnected)

	require.True(t, src.Push(1))
	require.True(t, src.Push(2))
	assert.Equal(t, 2, outer.Available())
	_, err = inner.Process()
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalProduced())
	assert.Equal(t, 2, sink.Available())
}

func TestProxyBufferConfig(t *testing.T) {
	inner := newScaler()
	out := stream.NewSourceProxy[float64]("signal")
	assert.ErrorIs(t, out.SetBufferConfig(buffer.Config{Capacity: 8}), stream.ErrDanglingPort)

	require.NoError(t, out.Attach(inner.out))
	require.NoError(t, out.SetBufferConfig(buffer.Config{Capacity: 8}))
	assert.Equal(t, 8, inner.out.Capacity())

	require.NoError(t, stream.Connect[float64](out, stream.NewSink[float64]("in")))
	assert.ErrorIs(t, out.SetBufferConfig(buffer.Config{Capacity: 4}), stream.ErrAlreadyConnected)
}

func TestDiscardPort(t *testing.T) {
	s := newScaler()
	var out stream.SourcePort = s.out
	d, err := stream.DiscardPort(out)
	require.NoError(t, err)
	assert.Equal(t, "DevNull", d.Name())
	assert.True(t, s.out.IsConnected())

	_, err = stream.DiscardPort(stream.NewSourceProxy[float64]("unattached"))
	require.NoError(t, err, "consumers of proxies are connected on attach")
}

func TestFunc(t *testing.T) {
	src := stream.NewSource[string]("out")
	length := stream.Func("Length", func(s string) (int, error) {
		if s == "" {
			return 0, errors.New("empty")
		}
		return len(s), nil
	})
	sink := stream.NewSink[int]("in")
	require.NoError(t, stream.Connect[string](src, length.In()))
	require.NoError(t, stream.Connect[int](length.Out(), sink))

	require.True(t, src.Push("frame"))
	status, err := length.Process()
	require.NoError(t, err)
	assert.Equal(t, stream.OK, status)
	v, ok := sink.Pop()
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	status, _ = length.Process()
	assert.Equal(t, stream.NoInput, status)

	require.True(t, src.Push(""))
	_, err = length.Process()
	assert.Error(t, err)
}
