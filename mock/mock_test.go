package mock_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/stream"
	"pipelined.dev/stream/mock"
)

var errTest = errors.New("test error")

func TestGenerator(t *testing.T) {
	type params struct {
		calls  int
		values []float64
	}
	testGenerator := func(g *mock.Generator, p params) func(*testing.T) {
		return func(t *testing.T) {
			sink := stream.NewSink[float64]("in")
			require.NoError(t, stream.Connect[float64](g.Out(), sink))
			for {
				status, err := g.Process()
				if err != nil {
					assert.Equal(t, g.ErrorOnCall, err)
					return
				}
				if status == stream.Finished {
					break
				}
			}
			calls, tokens := g.Count()
			assert.Equal(t, p.calls, calls)
			assert.Equal(t, g.Limit, tokens)
			require.True(t, sink.Acquire(len(p.values)))
			assert.Equal(t, p.values, sink.Tokens())
		}
	}

	t.Run("3 calls", testGenerator(
		mock.NewGenerator(5, 2),
		params{
			calls:  3,
			values: []float64{0, 1, 2, 3, 4},
		},
	))
	ramp := mock.NewGenerator(3, 3)
	ramp.Value, ramp.Step = 10, 0.5
	t.Run("ramp", testGenerator(
		ramp,
		params{
			calls:  1,
			values: []float64{10, 10.5, 11},
		},
	))
	failing := mock.NewGenerator(3, 3)
	failing.ErrorOnCall = errTest
	t.Run("error on call", testGenerator(failing, params{}))
}

func TestProcessor(t *testing.T) {
	src := stream.NewSource[float64]("out")
	p := mock.NewProcessor(3, 2)
	sink := stream.NewSink[float64]("in")
	require.NoError(t, stream.Connect[float64](src, p.In()))
	require.NoError(t, stream.Connect[float64](p.Out(), sink))

	for _, v := range []float64{1, 2, 3, 4} {
		require.True(t, src.Push(v))
	}
	status, err := p.Process()
	require.NoError(t, err)
	assert.Equal(t, stream.OK, status)
	status, err = p.Process()
	require.NoError(t, err)
	assert.Equal(t, stream.NoInput, status)

	require.True(t, sink.Acquire(2))
	assert.Equal(t, []float64{6, 6}, sink.Tokens())

	p.Reset()
	assert.True(t, p.Resetted)
	calls, tokens := p.Count()
	assert.Zero(t, calls)
	assert.Zero(t, tokens)
}

func TestSink(t *testing.T) {
	src := stream.NewSource[float64]("out")
	s := mock.NewSink(2)
	require.NoError(t, stream.Connect[float64](src, s.In()))
	for _, v := range []float64{1, 2, 3} {
		require.True(t, src.Push(v))
	}
	status, _ := s.Process()
	assert.Equal(t, stream.OK, status)
	status, _ = s.Process()
	assert.Equal(t, stream.NoInput, status)
	assert.Equal(t, []float64{1, 2}, s.Values())

	s.SetShouldStop(true)
	assert.True(t, s.Stopped)
	assert.True(t, s.ShouldStop())
}
