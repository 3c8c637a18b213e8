package pool_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"pipelined.dev/stream"
	"pipelined.dev/stream/mock"
	"pipelined.dev/stream/network"
	"pipelined.dev/stream/pool"
	"pipelined.dev/stream/signal"
)

func TestPool(t *testing.T) {
	p := pool.New()
	require.NoError(t, p.Add("lowlevel.rms", 0.5))
	require.NoError(t, p.Add("lowlevel.rms", 0.25))
	require.NoError(t, p.Set("metadata.sampleRate", 44100.0))
	require.NoError(t, p.Set("metadata.sampleRate", 48000.0))

	values, ok := p.Get("lowlevel.rms")
	assert.True(t, ok)
	assert.Equal(t, []interface{}{0.5, 0.25}, values)
	v, ok := p.Value("metadata.sampleRate")
	assert.True(t, ok)
	assert.Equal(t, 48000.0, v)
	assert.Equal(t, []string{"lowlevel.rms", "metadata.sampleRate"}, p.Keys())

	t.Run("invalid keys", func(t *testing.T) {
		assert.ErrorIs(t, p.Add("", 1), pool.ErrInvalidKey)
		assert.ErrorIs(t, p.Add("lowlevel..rms", 1), pool.ErrInvalidKey)
		assert.ErrorIs(t, p.Set("lowlevel.rms", 1), pool.ErrKeyConflict)
		assert.ErrorIs(t, p.Add("metadata.sampleRate", 1), pool.ErrKeyConflict)
	})
	t.Run("remove", func(t *testing.T) {
		p.Remove("metadata.sampleRate")
		assert.False(t, p.Contains("metadata.sampleRate"))
		assert.True(t, p.Contains("lowlevel.rms"))
	})
	t.Run("clear", func(t *testing.T) {
		p.Clear()
		assert.Empty(t, p.Keys())
	})
}

func TestWriteYAML(t *testing.T) {
	p := pool.New()
	require.NoError(t, p.Add("lowlevel.spectrum", []float64{1, 2}))
	require.NoError(t, p.Add("lowlevel.rms", 0.5))
	require.NoError(t, p.Set("metadata.filename", "a.wav"))

	var buf bytes.Buffer
	require.NoError(t, p.WriteYAML(&buf))

	var decoded map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []interface{}{0.5}, decoded["lowlevel"]["rms"])
	assert.Equal(t, []interface{}{[]interface{}{1, 2}}, decoded["lowlevel"]["spectrum"])
	assert.Equal(t, "a.wav", decoded["metadata"]["filename"])

	t.Run("conflict", func(t *testing.T) {
		require.NoError(t, p.Set("metadata", 1))
		assert.ErrorIs(t, p.WriteYAML(&bytes.Buffer{}), pool.ErrKeyConflict)
	})
}

func TestStorage(t *testing.T) {
	p := pool.New()
	gen := mock.NewGenerator(6, 4)
	proc := mock.NewProcessor(2, 1)
	require.NoError(t, stream.Connect[float64](gen.Out(), proc.In()))
	all, err := pool.Connect[float64](gen.Out(), p, "signal")
	require.NoError(t, err)
	assert.Equal(t, "signal", all.Key())
	_, err = pool.ConnectSingle[float64](proc.Out(), p, "sums.last")
	require.NoError(t, err)

	_, err = pool.Connect[float64](proc.Out(), p, "bad..key")
	assert.ErrorIs(t, err, pool.ErrInvalidKey)

	n, err := network.New([]stream.Algorithm{gen}, network.WithIdle(0))
	require.NoError(t, err)
	_, err = n.Run(context.Background())
	require.NoError(t, err)

	values, _ := p.Get("signal")
	assert.Equal(t, []interface{}{0.0, 1.0, 2.0, 3.0, 4.0, 5.0}, values)
	last, _ := p.Value("sums.last")
	assert.Equal(t, 9.0, last)
}

func TestConnectPort(t *testing.T) {
	p := pool.New()
	tests := []struct {
		name string
		src  stream.SourcePort
		err  error
	}{
		{name: "real", src: stream.NewSource[float64]("real")},
		{name: "frame", src: stream.NewSource[[]float64]("frame")},
		{name: "stereo", src: stream.NewSource[signal.Stereo]("audio")},
		{name: "proxy", src: stream.NewSourceProxy[int]("count")},
		{name: "unsupported", src: stream.NewSource[bool]("flag"), err: pool.ErrUnsupportedType},
		{name: "invalid key", src: stream.NewSource[float64]("bad"), err: pool.ErrInvalidKey},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			key := "lowlevel." + test.name
			if test.err == pool.ErrInvalidKey {
				key = ".bad"
			}
			s, err := pool.ConnectPort(test.src, p, key, false)
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "PoolStorage", s.Name())
			assert.True(t, test.src.IsConnected())
		})
	}
}
