// Package config builds networks from declarative pipeline files.
//
// A pipeline lists named algorithms created through a registry and the
// connections between their ports:
//
//	name: panning
//	algorithms:
//	  - name: loader
//	    type: WavLoader
//	    params:
//	      filename: ${input}
//	  - name: demuxer
//	    type: StereoDemuxer
//	connections:
//	  - from: loader.audio
//	    to: demuxer.audio
//	  - from: loader.sampleRate
//	    to: NOWHERE
//	  - from: demuxer.left
//	    pool: lowlevel.left
//
// String parameters are expanded with variables passed to Build, unknown
// variables are taken from the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"pipelined.dev/stream"
	"pipelined.dev/stream/buffer"
	"pipelined.dev/stream/network"
	"pipelined.dev/stream/param"
	"pipelined.dev/stream/pool"
	"pipelined.dev/stream/registry"
)

// Nowhere is the connection target that discards the data.
const Nowhere = "NOWHERE"

// Environment variables that override buffer settings of pipelines.
const (
	CapacityEnv     = "STREAM_BUFFER_CAPACITY"
	MaxCapacityEnv  = "STREAM_BUFFER_MAX_CAPACITY"
	GrowthFactorEnv = "STREAM_BUFFER_GROWTH_FACTOR"
	FixedEnv        = "STREAM_BUFFER_FIXED"
)

// ErrInvalid is returned when the pipeline description is inconsistent.
var ErrInvalid = errors.New("invalid pipeline")

type (
	// Pipeline is a declarative network description.
	Pipeline struct {
		Name        string       `yaml:"name"`
		Buffer      Buffer       `yaml:"buffer,omitempty"`
		Algorithms  []Algorithm  `yaml:"algorithms"`
		Connections []Connection `yaml:"connections"`
	}

	// Buffer sets buffer policy of every algorithm output.
	Buffer struct {
		Capacity     int  `yaml:"capacity,omitempty"`
		MaxCapacity  int  `yaml:"maxCapacity,omitempty"`
		GrowthFactor int  `yaml:"growthFactor,omitempty"`
		Fixed        bool `yaml:"fixed,omitempty"`
	}

	// Algorithm is a named instance of registered algorithm.
	Algorithm struct {
		Name   string    `yaml:"name"`
		Type   string    `yaml:"type"`
		Params param.Map `yaml:"params,omitempty"`
	}

	// Connection connects the output From, in form "algorithm.port", to
	// the input To or to the pool key Pool. To equal to NOWHERE discards
	// the output.
	Connection struct {
		From   string `yaml:"from"`
		To     string `yaml:"to,omitempty"`
		Pool   string `yaml:"pool,omitempty"`
		Single bool   `yaml:"single,omitempty"`
	}

	// Graph is a built pipeline.
	Graph struct {
		Name       string
		Generators []stream.Algorithm
		algorithms map[string]stream.Algorithm
	}
)

// Load parses a YAML pipeline description.
func Load(r io.Reader) (*Pipeline, error) {
	var p Pipeline
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadFile reads a pipeline from a .yaml, .yml or .json file.
func LoadFile(path string) (*Pipeline, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}
	p, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Validate checks names and connection endpoints.
func (p *Pipeline) Validate() error {
	if len(p.Algorithms) == 0 {
		return fmt.Errorf("%w: no algorithms", ErrInvalid)
	}
	names := make(map[string]struct{}, len(p.Algorithms))
	for i, a := range p.Algorithms {
		switch {
		case a.Name == "":
			return fmt.Errorf("%w: algorithm %d without name", ErrInvalid, i)
		case strings.Contains(a.Name, "."):
			return fmt.Errorf("%w: algorithm name %q contains a dot", ErrInvalid, a.Name)
		case a.Type == "":
			return fmt.Errorf("%w: algorithm %q without type", ErrInvalid, a.Name)
		}
		if _, ok := names[a.Name]; ok {
			return fmt.Errorf("%w: duplicate algorithm %q", ErrInvalid, a.Name)
		}
		names[a.Name] = struct{}{}
	}
	for i, c := range p.Connections {
		if (c.To == "") == (c.Pool == "") {
			return fmt.Errorf("%w: connection %d needs either target or pool key", ErrInvalid, i)
		}
		endpoints := []string{c.From}
		if c.To != "" && c.To != Nowhere {
			endpoints = append(endpoints, c.To)
		}
		for _, e := range endpoints {
			node, _, err := split(e)
			if err != nil {
				return err
			}
			if _, ok := names[node]; !ok {
				return fmt.Errorf("%w: connection %d refers to unknown algorithm %q", ErrInvalid, i, node)
			}
		}
	}
	return nil
}

// split parses "algorithm.port" endpoint.
func split(endpoint string) (string, string, error) {
	node, port, ok := strings.Cut(endpoint, ".")
	if !ok || node == "" || port == "" {
		return "", "", fmt.Errorf("%w: endpoint %q is not in form algorithm.port", ErrInvalid, endpoint)
	}
	return node, port, nil
}

// BufferConfig returns buffer settings with environment overrides.
func (p *Pipeline) BufferConfig() (buffer.Config, error) {
	c := buffer.Config{
		Capacity:     p.Buffer.Capacity,
		MaxCapacity:  p.Buffer.MaxCapacity,
		GrowthFactor: p.Buffer.GrowthFactor,
		Fixed:        p.Buffer.Fixed,
	}
	for env, dst := range map[string]*int{
		CapacityEnv:     &c.Capacity,
		MaxCapacityEnv:  &c.MaxCapacity,
		GrowthFactorEnv: &c.GrowthFactor,
	} {
		if v, ok := os.LookupEnv(env); ok {
			i, err := strconv.Atoi(v)
			if err != nil || i < 0 {
				return buffer.Config{}, fmt.Errorf("%s: invalid value %q", env, v)
			}
			*dst = i
		}
	}
	if v, ok := os.LookupEnv(FixedEnv); ok {
		fixed, err := strconv.ParseBool(v)
		if err != nil {
			return buffer.Config{}, fmt.Errorf("%s: %w", FixedEnv, err)
		}
		c.Fixed = fixed
	}
	return c, nil
}

// Build creates algorithms through the registry and connects them. Pool
// connections store results in the pool, it can be nil if pipeline has
// none.
func (p *Pipeline) Build(r *registry.Registry, results *pool.Pool, vars map[string]string) (*Graph, error) {
	bufferConfig, err := p.BufferConfig()
	if err != nil {
		return nil, err
	}
	g := &Graph{
		Name:       p.Name,
		algorithms: make(map[string]stream.Algorithm, len(p.Algorithms)),
	}
	for _, a := range p.Algorithms {
		alg, err := r.Create(a.Type, expand(a.Params, vars))
		if err != nil {
			return nil, fmt.Errorf("algorithm %q: %w", a.Name, err)
		}
		if n, ok := alg.(interface{ SetName(string) }); ok {
			n.SetName(a.Name)
		}
		if bufferConfig != (buffer.Config{}) {
			if err := setBufferConfig(alg, bufferConfig); err != nil {
				return nil, fmt.Errorf("algorithm %q: %w", a.Name, err)
			}
		}
		g.algorithms[a.Name] = alg
		if len(alg.Inputs()) == 0 {
			g.Generators = append(g.Generators, alg)
		}
	}
	for _, c := range p.Connections {
		if err := g.connect(c, results); err != nil {
			return nil, fmt.Errorf("connect %s: %w", c.From, err)
		}
	}
	return g, nil
}

type bufferConfigurer interface {
	SetBufferConfig(buffer.Config) error
}

// setBufferConfig configures the algorithm itself if it manages inner
// buffers, every output otherwise.
func setBufferConfig(alg stream.Algorithm, c buffer.Config) error {
	if s, ok := alg.(bufferConfigurer); ok {
		return s.SetBufferConfig(c)
	}
	for _, out := range alg.Outputs() {
		if s, ok := out.(bufferConfigurer); ok {
			if err := s.SetBufferConfig(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Graph) connect(c Connection, results *pool.Pool) error {
	node, port, _ := split(c.From)
	src, err := g.algorithms[node].Output(port)
	if err != nil {
		return err
	}
	switch {
	case c.Pool != "":
		if results == nil {
			return fmt.Errorf("%w: pool connection without pool", ErrInvalid)
		}
		_, err = pool.ConnectPort(src, results, c.Pool, c.Single)
		return err
	case c.To == Nowhere:
		_, err = stream.DiscardPort(src)
		return err
	}
	node, port, _ = split(c.To)
	sink, err := g.algorithms[node].Input(port)
	if err != nil {
		return err
	}
	return stream.ConnectPorts(src, sink)
}

// Algorithm returns the algorithm by its pipeline name.
func (g *Graph) Algorithm(name string) (stream.Algorithm, bool) {
	a, ok := g.algorithms[name]
	return a, ok
}

// Network validates the graph and returns a network named after the
// pipeline.
func (g *Graph) Network(options ...network.Option) (*network.Network, error) {
	if g.Name != "" {
		options = append([]network.Option{network.WithName(g.Name)}, options...)
	}
	return network.New(g.Generators, options...)
}

// expand substitutes variables in string parameters.
func expand(m param.Map, vars map[string]string) param.Map {
	if len(m) == 0 {
		return m
	}
	mapping := func(name string) string {
		if v, ok := vars[name]; ok {
			return v
		}
		return os.Getenv(name)
	}
	result := make(param.Map, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			v = os.Expand(s, mapping)
		}
		result[k] = v
	}
	return result
}
