package stream

import (
	"fmt"
)

// Connect connects the producer to the consumer. A producer may feed any
// number of consumers, a consumer accepts a single producer.
func Connect[T any](p Producer[T], c Consumer[T]) error {
	return p.connectPort(c)
}

// ConnectPorts connects ports of types unknown at compile time. Token
// types of both ports must match.
func ConnectPorts(src SourcePort, sink SinkPort) error {
	if src == nil || sink == nil {
		return &ConfigurationError{Err: fmt.Errorf("%w: nil port", ErrUnknownPort)}
	}
	return src.connectPort(sink)
}

// Disconnect removes the connection between the producer and the
// consumer.
func Disconnect[T any](p Producer[T], c Consumer[T]) error {
	return p.disconnectPort(c)
}

// DisconnectPorts removes the connection between untyped ports.
func DisconnectPorts(src SourcePort, sink SinkPort) error {
	return src.disconnectPort(sink)
}

// Discard connects the producer to a new DevNull node. The node is
// returned so it can be inspected, network picks it up through the
// connection.
func Discard[T any](p Producer[T]) (*DevNull[T], error) {
	d := NewDevNull[T]()
	if err := Connect[T](p, d.in); err != nil {
		return nil, err
	}
	return d, nil
}

// DiscardPort connects a port of type unknown at compile time to a new
// DevNull node.
func DiscardPort(src SourcePort) (Algorithm, error) {
	return src.devNull()
}

func discard[T any](p Producer[T]) (Algorithm, error) {
	d, err := Discard[T](p)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Receivers returns real sinks fed by the source. Sink proxies are
// flattened to the ports they forward to.
func Receivers(src SourcePort) ([]SinkPort, error) {
	var result []SinkPort
	for _, c := range src.Consumers() {
		sinks := c.resolve()
		if len(sinks) == 0 {
			return nil, &ConfigurationError{Node: nodeName(c.Parent()), Port: c.Name(), Err: fmt.Errorf("%w: proxy %s is not attached", ErrDanglingPort, c.FullName())}
		}
		result = append(result, sinks...)
	}
	return result, nil
}

func mismatch(src SourcePort, sink SinkPort) error {
	return &ConfigurationError{
		Node: nodeName(sink.Parent()),
		Port: sink.Name(),
		Err:  fmt.Errorf("%w: %s produces %v, %s consumes %v", ErrTypeMismatch, src.FullName(), src.TokenType(), sink.FullName(), sink.TokenType()),
	}
}

func nodeName(a Algorithm) string {
	if a == nil {
		return ""
	}
	return a.Name()
}
