package network

import (
	"context"
	"errors"
	"time"

	"pipelined.dev/stream"
	"pipelined.dev/stream/buffer"
)

// Stats describes a network run.
type Stats struct {
	// Passes is the number of scheduler passes over all algorithms.
	Passes int
	// Steps counts process calls by returned status.
	Steps map[stream.Status]int
	// Discarded is the number of input tokens dropped when algorithms
	// finished.
	Discarded int
	Duration  time.Duration
}

// Run executes the network until every algorithm is finished. The run
// fails when an algorithm returns an error, when no algorithm can make
// progress or when the context is done.
func (n *Network) Run(ctx context.Context) (Stats, error) {
	stats := Stats{Steps: make(map[stream.Status]int)}
	start := time.Now()
	n.log.Info("run started")
	err := n.run(ctx, &stats)
	stats.Duration = time.Since(start)
	if n.metrics != nil {
		n.metrics.ObserveRun(n.name, stats.Duration)
	}
	if err != nil {
		n.log.WithError(err).Error("run failed")
		return stats, err
	}
	n.log.WithField("passes", stats.Passes).Info("run finished")
	return stats, nil
}

func (n *Network) run(ctx context.Context, stats *Stats) error {
	idle := 0
	for !n.done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Passes++
		progress, waiting, err := n.pass(stats)
		if err != nil {
			return err
		}
		if progress {
			idle = 0
			continue
		}
		if !waiting {
			return n.stall()
		}
		idle++
		if n.maxIdle > 0 && idle > n.maxIdle {
			return n.stall()
		}
		if err := n.wait(ctx); err != nil {
			return err
		}
	}
	// algorithms that finished early may leave tokens behind
	for _, nd := range n.nodes {
		stats.Discarded += nd.discard()
	}
	return nil
}

// pass calls every unfinished algorithm once. Progress is made if any
// algorithm returned OK, finished or received a stop signal. Waiting is
// true if some generator returned NoInput.
func (n *Network) pass(stats *Stats) (progress, waiting bool, err error) {
	for _, nd := range n.nodes {
		if nd.finished {
			// finished readers must not hold upstream buffers
			stats.Discarded += nd.discard()
			continue
		}
		if !nd.generator && !nd.stopping && nd.upstreamFinished() {
			nd.stopping = true
			nd.alg.SetShouldStop(true)
			nd.log.Debug("flush")
			progress = true
		}
		status, err := nd.step()
		if err != nil {
			return false, false, err
		}
		stats.Steps[status]++
		nd.measure(status)
		if status != nd.last {
			nd.log.Debugf("status %v", status)
		}
		nd.last = status

		switch status {
		case stream.OK:
			progress = true
		case stream.Finished:
			stats.Discarded += nd.finish()
			progress = true
		case stream.NoInput:
			switch {
			case nd.generator:
				waiting = true
			case nd.stopping:
				stats.Discarded += nd.finish()
				progress = true
			}
		}
	}
	return progress, waiting, nil
}

func (n *Network) done() bool {
	for _, nd := range n.nodes {
		if !nd.finished {
			return false
		}
	}
	return true
}

func (n *Network) stall() error {
	e := &stream.StallError{}
	for _, nd := range n.nodes {
		if !nd.finished {
			e.Nodes = append(e.Nodes, stream.Stalled{Node: nd.alg.Name(), Status: nd.last})
		}
	}
	return e
}

func (n *Network) wait(ctx context.Context) error {
	if n.idle == 0 {
		return nil
	}
	t := time.NewTimer(n.idle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// step calls Process and converts fatal port panics into node errors.
func (nd *node) step() (status stream.Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = nd.recovered(r)
		}
	}()
	status, err = nd.alg.Process()
	if err != nil {
		return status, &stream.NodeError{Node: nd.alg.Name(), ID: nd.alg.ID(), Err: err}
	}
	return status, nil
}

func (nd *node) recovered(r interface{}) error {
	err, ok := r.(error)
	if !ok {
		panic(r)
	}
	var (
		notConnected *stream.NotConnectedError
		capacity     *stream.CapacityExceededError
	)
	switch {
	case errors.As(err, &notConnected):
		return &stream.NodeError{Node: nd.alg.Name(), ID: nd.alg.ID(), Port: notConnected.Port, Err: err}
	case errors.As(err, &capacity):
		return &stream.NodeError{Node: nd.alg.Name(), ID: nd.alg.ID(), Port: capacity.Port, Err: err}
	case errors.Is(err, buffer.ErrReleaseOverflow), errors.Is(err, buffer.ErrUnknownReader):
		return &stream.NodeError{Node: nd.alg.Name(), ID: nd.alg.ID(), Err: err}
	}
	panic(r)
}

func (nd *node) upstreamFinished() bool {
	for _, up := range nd.upstream {
		if !up.finished {
			return false
		}
	}
	return true
}

// finish marks the node finished and drops its unconsumed input.
func (nd *node) finish() int {
	nd.finished = true
	discarded := nd.discard()
	nd.log.WithField("discarded", discarded).Debug("finished")
	return discarded
}

func (nd *node) discard() int {
	discarded := 0
	for _, in := range nd.alg.Inputs() {
		discarded += in.Discard()
	}
	return discarded
}

func (nd *node) measure(status stream.Status) {
	if nd.meter == nil {
		return
	}
	nd.meter.Step(status.String())
	for i, out := range nd.alg.Outputs() {
		total := out.TotalProduced()
		nd.meter.Produced(out.Name(), total-nd.produced[i])
		nd.produced[i] = total
		if c, ok := out.(interface{ Capacity() int }); ok {
			nd.meter.Capacity(out.Name(), c.Capacity())
		}
	}
}
