package stream

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPort is returned when a port name is not declared.
	ErrUnknownPort = errors.New("unknown port")
	// ErrTypeMismatch is returned when connected ports carry different
	// token types.
	ErrTypeMismatch = errors.New("token type mismatch")
	// ErrAlreadyConnected is returned when a sink already has a source.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrDanglingPort is returned when a port is not connected.
	ErrDanglingPort = errors.New("dangling port")
	// ErrSelfLoop is returned when an algorithm consumes its own output.
	ErrSelfLoop = errors.New("algorithm consumes its own output")
	// ErrNotGenerator is returned when a network root has inputs.
	ErrNotGenerator = errors.New("not a generator")
)

type (
	// ConfigurationError is returned when a network cannot be built.
	ConfigurationError struct {
		Node string
		Port string
		Err  error
	}

	// NotConnectedError is the panic value of operations on unconnected
	// ports.
	NotConnectedError struct {
		Port string
	}

	// CapacityExceededError is the panic value of write requests that can
	// never fit the buffer.
	CapacityExceededError struct {
		Port string
		Err  error
	}

	// NodeError is returned when an algorithm fails during the run.
	NodeError struct {
		Node string
		ID   string
		Port string
		Err  error
	}

	// StallError is returned when no algorithm can make progress and no
	// generator is waiting for data.
	StallError struct {
		Nodes []Stalled
	}

	// Stalled describes an algorithm stuck at the time of stall.
	Stalled struct {
		Node   string
		Status Status
	}
)

func (e *ConfigurationError) Error() string {
	switch {
	case e.Node != "" && e.Port != "":
		return fmt.Sprintf("configuration error at %s.%s: %v", e.Node, e.Port, e.Err)
	case e.Node != "":
		return fmt.Sprintf("configuration error at %s: %v", e.Node, e.Err)
	}
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("port %s is not connected", e.Port)
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("port %s: %v", e.Port, e.Err)
}

func (e *CapacityExceededError) Unwrap() error {
	return e.Err
}

func (e *NodeError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("algorithm %s port %s: %v", e.Node, e.Port, e.Err)
	}
	return fmt.Sprintf("algorithm %s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func (e *StallError) Error() string {
	s := make([]string, 0, len(e.Nodes))
	for _, n := range e.Nodes {
		s = append(s, fmt.Sprintf("%s: %v", n.Node, n.Status))
	}
	return fmt.Sprintf("network stalled: %s", strings.Join(s, ", "))
}
