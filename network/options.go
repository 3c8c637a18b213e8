package network

import (
	"errors"
	"time"

	"pipelined.dev/stream/log"
	"pipelined.dev/stream/metric"
)

// Option provides a way to set functional parameters to network.
type Option func(*Network) error

// WithLogger sets the logger of the network. Default logger is silent.
func WithLogger(l log.Logger) Option {
	return func(n *Network) error {
		if l == nil {
			return errors.New("nil logger")
		}
		n.log = l
		return nil
	}
}

// WithMetric enables prometheus metrics for every node of the network.
func WithMetric(m *metric.Metrics) Option {
	return func(n *Network) error {
		n.metrics = m
		return nil
	}
}

// WithName sets the name of the network used in logs and metric labels.
func WithName(name string) Option {
	return func(n *Network) error {
		n.name = name
		return nil
	}
}

// WithIdle sets the delay between passes when all generators wait for
// data.
func WithIdle(d time.Duration) Option {
	return func(n *Network) error {
		if d < 0 {
			return errors.New("negative idle delay")
		}
		n.idle = d
		return nil
	}
}

// WithMaxIdlePasses limits the number of consecutive idle passes. When
// exceeded, the run fails with a stall error. Zero means no limit.
func WithMaxIdlePasses(passes int) Option {
	return func(n *Network) error {
		if passes < 0 {
			return errors.New("negative idle passes limit")
		}
		n.maxIdle = passes
		return nil
	}
}
