package algorithms

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"pipelined.dev/stream"
	"pipelined.dev/stream/param"
	"pipelined.dev/stream/signal"
)

// FileOutput writes every received token as a line of text. Filename "-"
// writes to the standard output.
type FileOutput[T any] struct {
	stream.Base
	w      *bufio.Writer
	closer io.Closer
	in     *stream.Sink[T]
}

// NewFileOutput returns a text file output.
func NewFileOutput[T any]() *FileOutput[T] {
	f := &FileOutput[T]{
		in: stream.NewSink[T]("data"),
	}
	f.Init(f, "FileOutput")
	f.DeclareInput(f.in, 1, 1, "the incoming stream")
	f.DeclareParameters(
		param.Parameter{Name: "filename", Description: "the name of the output file, use '-' for the standard output", Kind: param.KindString},
		param.Parameter{Name: "mode", Description: "output mode", Range: "{text}", Default: "text"},
	)
	return f
}

// In returns the input port.
func (f *FileOutput[T]) In() *stream.Sink[T] {
	return f.in
}

// Process writes available tokens. The file is created on the first
// call and closed after the stop signal when the input is exhausted.
func (f *FileOutput[T]) Process() (stream.Status, error) {
	if f.w == nil {
		if err := f.open(); err != nil {
			return stream.OK, err
		}
	}
	n := f.in.Available()
	if n == 0 {
		if f.ShouldStop() {
			return stream.NoInput, f.close()
		}
		return stream.NoInput, nil
	}
	f.in.Acquire(n)
	for _, v := range f.in.Tokens() {
		if _, err := f.w.WriteString(format(v) + "\n"); err != nil {
			return stream.OK, err
		}
	}
	f.in.Release(n)
	return stream.OK, nil
}

func (f *FileOutput[T]) open() error {
	name := f.Params().String("filename")
	if name == "" {
		return &stream.ConfigurationError{Node: f.Name(), Err: fmt.Errorf("%w: filename", param.ErrMissing)}
	}
	if name == "-" {
		f.w = bufio.NewWriter(os.Stdout)
		return nil
	}
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	f.w = bufio.NewWriter(file)
	f.closer = file
	return nil
}

func (f *FileOutput[T]) close() error {
	if f.w == nil {
		return nil
	}
	err := f.w.Flush()
	f.w = nil
	if f.closer != nil {
		if cerr := f.closer.Close(); err == nil {
			err = cerr
		}
		f.closer = nil
	}
	return err
}

// Reset closes the file.
func (f *FileOutput[T]) Reset() {
	f.Base.Reset()
	_ = f.close()
}

// format prints vectors as [a, b, c].
func format(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []float64:
		s := make([]string, len(x))
		for i := range x {
			s[i] = strconv.FormatFloat(x[i], 'g', -1, 64)
		}
		return "[" + strings.Join(s, ", ") + "]"
	case signal.Stereo:
		return fmt.Sprintf("(%s, %s)", format(x.Left()), format(x.Right()))
	}
	return fmt.Sprint(v)
}
