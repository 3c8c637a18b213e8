package stream

// FuncNode turns a one-shot function into a node that maps every input
// token to a single output token.
type FuncNode[In, Out any] struct {
	Base
	fn  func(In) (Out, error)
	in  *Sink[In]
	out *Source[Out]
}

// Func returns a node with input "in" and output "out" calling fn for
// every token.
func Func[In, Out any](name string, fn func(In) (Out, error)) *FuncNode[In, Out] {
	f := &FuncNode[In, Out]{
		fn:  fn,
		in:  NewSink[In]("in"),
		out: NewSource[Out]("out"),
	}
	f.Init(f, name)
	f.DeclareInput(f.in, 1, 1, "function argument")
	f.DeclareOutput(f.out, 1, 1, "function result")
	return f
}

// In returns the input port.
func (f *FuncNode[In, Out]) In() *Sink[In] {
	return f.in
}

// Out returns the output port.
func (f *FuncNode[In, Out]) Out() *Source[Out] {
	return f.out
}

// Process applies the function to the next token.
func (f *FuncNode[In, Out]) Process() (Status, error) {
	if status := f.AcquireData(); status != OK {
		return status, nil
	}
	v, err := f.fn(f.in.FirstToken())
	if err != nil {
		return OK, err
	}
	f.out.Tokens()[0] = v
	f.ReleaseData()
	return OK, nil
}
