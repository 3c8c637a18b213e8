package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/yaml.v3"

	"pipelined.dev/stream/algorithms"
	"pipelined.dev/stream/signal"
)

// panning mirrors the stereo analysis example: demux, cut frames and
// store spectra and rms of both channels.
const panning = `
algorithms:
  - name: loader
    type: WavLoader
    params:
      filename: ${input}
      bufferSize: 64
  - name: demuxer
    type: StereoDemuxer
  - name: left
    type: FrameSpectrum
    params: {frameSize: 8, hopSize: 8}
  - name: right
    type: FrameCutter
    params: {frameSize: 8, hopSize: 8, startFromZero: true}
  - name: rms
    type: RMS
connections:
  - {from: loader.audio, to: demuxer.audio}
  - {from: loader.sampleRate, pool: metadata.sampleRate, single: true}
  - {from: loader.numberChannels, to: NOWHERE}
  - {from: demuxer.left, to: left.signal}
  - {from: demuxer.right, to: right.signal}
  - {from: left.spectrum, pool: lowlevel.left.spectrum}
  - {from: right.frame, to: rms.array}
  - {from: rms.rms, pool: lowlevel.right.rms}
`

// signal notification loop lives for the whole process
var ignoreSignals = goleak.IgnoreAnyFunction("os/signal.loop")

func TestInit(t *testing.T) {
	// check if commands are registered
	assert.Equal(t, 2, len(commands(nil)))
}

func TestUsage(t *testing.T) {
	var out bytes.Buffer
	c := config{args: []string{"stream"}, stdout: &out}
	assert.Equal(t, errorExitCode, c.run())
	assert.Contains(t, out.String(), "Usage: stream <command>")

	out.Reset()
	c = config{args: []string{"stream", "mix"}, stdout: &out}
	assert.Equal(t, errorExitCode, c.run())
}

func TestList(t *testing.T) {
	var out bytes.Buffer
	c := config{args: []string{"stream", "list", "-v"}, stdout: &out}
	require.Equal(t, successExitCode, c.run())
	assert.Contains(t, out.String(), "FrameCutter\tSlices a signal into overlapping frames")
	assert.Contains(t, out.String(), "param silentFrames {drop,keep,noise} = noise")
	assert.Contains(t, out.String(), "out spectrum []float64")
}

func writeWav(t *testing.T, path string, samples int) {
	t.Helper()
	values := make([]signal.Stereo, samples)
	for i := range values {
		values[i] = signal.Stereo{0.5, -0.25}
	}
	in := algorithms.NewVectorInput(values, 16)
	w := algorithms.NewWavWriter()
	require.NoError(t, w.Configure(map[string]interface{}{"filename": path, "sampleRate": 8000}))
	require.NoError(t, connectAndRun(in, w))
}

func TestRun(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreSignals)
	dir := t.TempDir()
	pipeline := filepath.Join(dir, "panning.yaml")
	require.NoError(t, os.WriteFile(pipeline, []byte(panning), 0o644))
	inputs := []string{filepath.Join(dir, "a.wav"), filepath.Join(dir, "b.wav"), filepath.Join(dir, "c.wav")}
	for _, in := range inputs {
		writeWav(t, in, 32)
	}
	out := filepath.Join(dir, "results")

	var stdout bytes.Buffer
	args := append([]string{"stream", "run", "-pipeline", pipeline, "-out", out, "-jobs", "2", "-metrics"}, inputs...)
	c := config{args: args, stdout: &stdout}
	require.Equal(t, successExitCode, c.run(), stdout.String())
	assert.Contains(t, stdout.String(), `stream_node_steps_total{network="a",node="loader",status="finished"} 1`)

	for _, name := range []string{"a", "b", "c"} {
		data, err := os.ReadFile(filepath.Join(out, name+".yaml"))
		require.NoError(t, err)
		var results struct {
			Metadata struct {
				SampleRate float64 `yaml:"sampleRate"`
			} `yaml:"metadata"`
			Lowlevel struct {
				Left struct {
					Spectrum [][]float64 `yaml:"spectrum"`
				} `yaml:"left"`
				Right struct {
					RMS []float64 `yaml:"rms"`
				} `yaml:"right"`
			} `yaml:"lowlevel"`
		}
		require.NoError(t, yaml.Unmarshal(data, &results))
		assert.Equal(t, 8000.0, results.Metadata.SampleRate)
		assert.Len(t, results.Lowlevel.Left.Spectrum, 5)
		require.Len(t, results.Lowlevel.Right.RMS, 4)
		for _, rms := range results.Lowlevel.Right.RMS {
			assert.InDelta(t, 0.25, rms, 1e-3)
		}
	}
}

func TestRunErrors(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreSignals)
	dir := t.TempDir()
	pipeline := filepath.Join(dir, "panning.yaml")
	require.NoError(t, os.WriteFile(pipeline, []byte(panning), 0o644))

	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{
			name:    "missing flags",
			args:    []string{"stream", "run"},
			message: "Missing -pipeline required flag",
		},
		{
			name:    "missing input",
			args:    []string{"stream", "run", "-pipeline", pipeline, "-out", dir, filepath.Join(dir, "none.wav")},
			message: "none.wav",
		},
		{
			name:    "same names",
			args:    []string{"stream", "run", "-pipeline", pipeline, "-out", dir, filepath.Join("a", "x.wav"), filepath.Join("b", "x.mp3")},
			message: "have the same name x",
		},
		{
			name:    "missing pipeline",
			args:    []string{"stream", "run", "-pipeline", filepath.Join(dir, "none.yaml"), "-out", dir, "a.wav"},
			message: "read pipeline file",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var stdout bytes.Buffer
			c := config{args: test.args, stdout: &stdout}
			assert.Equal(t, errorExitCode, c.run())
			assert.Contains(t, stdout.String(), test.message)
		})
	}
}
