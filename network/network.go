// Package network builds and executes stream networks.
package network

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"pipelined.dev/stream"
	"pipelined.dev/stream/internal/graph"
	"pipelined.dev/stream/log"
	"pipelined.dev/stream/metric"
)

// DefaultIdle is the delay between passes when all generators wait for
// data.
const DefaultIdle = time.Millisecond

// Network is a validated graph of algorithms ready to run.
type Network struct {
	id         string
	name       string
	generators []stream.Algorithm
	nodes      []*node // topological order
	log        log.Logger
	metrics    *metric.Metrics
	idle       time.Duration
	maxIdle    int
}

// node is a runtime state of the algorithm within the network.
type node struct {
	alg       stream.Algorithm
	log       log.Logger
	meter     *metric.Meter
	upstream  []*node
	generator bool
	finished  bool
	stopping  bool
	last      stream.Status
	produced  []int64
}

// New traverses the graph from the generators, validates connections
// and computes the execution order. Every root must be a generator.
func New(generators []stream.Algorithm, options ...Option) (*Network, error) {
	n := &Network{
		id:         xid.New().String(),
		generators: generators,
		log:        log.Silent(),
		idle:       DefaultIdle,
	}
	for _, option := range options {
		if err := option(n); err != nil {
			return nil, err
		}
	}
	if n.name == "" {
		n.name = n.id
	}
	n.log = n.log.WithField("network", n.name)
	if len(generators) == 0 {
		return nil, &stream.ConfigurationError{Err: fmt.Errorf("%w: network without generators", stream.ErrNotGenerator)}
	}
	for _, g := range generators {
		if len(g.Inputs()) > 0 {
			return nil, &stream.ConfigurationError{Node: g.Name(), Err: stream.ErrNotGenerator}
		}
	}

	g, err := traverse(generators)
	if err != nil {
		return nil, err
	}
	sorted, cycles := g.Sort(generators...)
	for _, c := range cycles {
		n.log.Warnf("feedback loop: %s", names(c))
	}
	if err := validate(sorted); err != nil {
		return nil, err
	}

	index := make(map[stream.Algorithm]*node, len(sorted))
	for _, alg := range sorted {
		nd := &node{
			alg:       alg,
			log:       log.Node(n.log, alg.Name(), alg.ID()),
			generator: len(alg.Inputs()) == 0,
			produced:  make([]int64, len(alg.Outputs())),
		}
		if n.metrics != nil {
			nd.meter = n.metrics.Meter(n.name, alg.Name())
		}
		// only earlier nodes are upstream, feedback edges never block
		// the stop signal
		for _, p := range g.Predecessors(alg) {
			if up, ok := index[p]; ok {
				nd.upstream = append(nd.upstream, up)
			}
		}
		index[alg] = nd
		n.nodes = append(n.nodes, nd)
	}
	n.log.Debugf("network built with %d nodes", len(n.nodes))
	return n, nil
}

// traverse follows connections from the generators and builds the graph
// of algorithms. Proxies are flattened to the algorithms behind them.
func traverse(generators []stream.Algorithm) (*graph.Graph[stream.Algorithm], error) {
	g := graph.New[stream.Algorithm]()
	visited := make(map[stream.Algorithm]struct{})
	queue := append([]stream.Algorithm(nil), generators...)
	for len(queue) > 0 {
		alg := queue[0]
		queue = queue[1:]
		if _, ok := visited[alg]; ok {
			continue
		}
		visited[alg] = struct{}{}
		g.AddNode(alg)
		for _, out := range alg.Outputs() {
			receivers, err := stream.Receivers(out)
			if err != nil {
				return nil, err
			}
			if len(receivers) == 0 {
				return nil, &stream.ConfigurationError{
					Node: alg.Name(),
					Port: out.Name(),
					Err:  fmt.Errorf("%w: output has no consumers, discard it explicitly", stream.ErrDanglingPort),
				}
			}
			for _, sink := range receivers {
				next := sink.Parent()
				g.AddEdge(alg, next)
				queue = append(queue, next)
			}
		}
	}
	if loops := g.SelfLoops(); len(loops) > 0 {
		return nil, &stream.ConfigurationError{Node: loops[0].Name(), Port: loopPort(loops[0]), Err: stream.ErrSelfLoop}
	}
	return g, nil
}

// loopPort returns the name of the input fed by the algorithm itself.
func loopPort(alg stream.Algorithm) string {
	for _, in := range alg.Inputs() {
		if in.IsConnected() && in.Source().Parent() == alg {
			return in.Name()
		}
	}
	return ""
}

// validate checks that every input of every algorithm is fed by an
// algorithm of the network.
func validate(algs []stream.Algorithm) error {
	members := make(map[stream.Algorithm]struct{}, len(algs))
	for _, alg := range algs {
		members[alg] = struct{}{}
	}
	for _, alg := range algs {
		for _, in := range alg.Inputs() {
			if !in.IsConnected() {
				return &stream.ConfigurationError{Node: alg.Name(), Port: in.Name(), Err: fmt.Errorf("%w: input is not connected", stream.ErrDanglingPort)}
			}
			feeder := in.Source().Parent()
			if _, ok := members[feeder]; !ok {
				return &stream.ConfigurationError{
					Node: alg.Name(),
					Port: in.Name(),
					Err:  fmt.Errorf("%w: %s is not reachable from generators", stream.ErrDanglingPort, in.Source().FullName()),
				}
			}
		}
	}
	return nil
}

// ID returns the unique id of the network.
func (n *Network) ID() string {
	return n.id
}

// Name returns the name of the network.
func (n *Network) Name() string {
	return n.name
}

// Algorithms returns algorithms in execution order.
func (n *Network) Algorithms() []stream.Algorithm {
	result := make([]stream.Algorithm, 0, len(n.nodes))
	for _, nd := range n.nodes {
		result = append(result, nd.alg)
	}
	return result
}

// Reset resets every algorithm and buffer, so the network can run again.
func (n *Network) Reset() {
	for _, nd := range n.nodes {
		nd.alg.Reset()
		nd.finished, nd.stopping = false, false
		nd.last = stream.OK
		for i := range nd.produced {
			nd.produced[i] = 0
		}
	}
	n.log.Debug("network reset")
}

// Close disconnects every port of the network and resets algorithms.
func (n *Network) Close() error {
	var errs []error
	for _, nd := range n.nodes {
		for _, out := range nd.alg.Outputs() {
			for _, c := range out.Consumers() {
				if err := stream.DisconnectPorts(out, c); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	for _, nd := range n.nodes {
		nd.alg.Reset()
	}
	n.log.Debug("network closed")
	return errors.Join(errs...)
}

func names(algs []stream.Algorithm) string {
	s := make([]string, 0, len(algs))
	for _, alg := range algs {
		s = append(s, alg.Name())
	}
	return strings.Join(s, " -> ")
}
