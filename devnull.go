package stream

// DevNull consumes and drops everything its input receives. It marks a
// source whose output is intentionally unused.
type DevNull[T any] struct {
	Base
	in *Sink[T]
}

// NewDevNull returns a discarding node.
func NewDevNull[T any]() *DevNull[T] {
	d := &DevNull[T]{in: NewSink[T]("data")}
	d.Init(d, "DevNull")
	d.DeclareInput(d.in, 1, 1, "discarded data")
	return d
}

// Process releases all available tokens.
func (d *DevNull[T]) Process() (Status, error) {
	if d.in.Discard() == 0 {
		return NoInput, nil
	}
	return OK, nil
}
