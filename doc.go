/*
Package stream allows to build and execute multi-rate dataflow networks.

Concept

A network is a graph of algorithms connected by typed ports. Each
algorithm consumes and produces tokens at its own rate: one audio sample
per call, one frame per hop, one aggregate per stream. Every output port
is a Source that owns a buffer, every input port is a Sink that reads
that buffer through its own cursor:

    Generator - algorithm without inputs, the origin of tokens;
    Processor - algorithm with inputs and outputs;
    Sink algorithm - algorithm without outputs, the destination.

A source may feed any number of sinks. A sink is fed by exactly one
source. Outputs that are not needed must be explicitly discarded.

Algorithms

Algorithms embed Base and implement Process:

    type Doubler struct {
        stream.Base
        in  *stream.Sink[float64]
        out *stream.Source[float64]
    }

    func NewDoubler() *Doubler {
        d := &Doubler{
            in:  stream.NewSink[float64]("signal"),
            out: stream.NewSource[float64]("signal"),
        }
        d.Init(d, "Doubler")
        d.DeclareInput(d.in, 1, 1, "input signal")
        d.DeclareOutput(d.out, 1, 1, "doubled signal")
        return d
    }

    func (d *Doubler) Process() (stream.Status, error) {
        if status := d.AcquireData(); status != stream.OK {
            return status, nil
        }
        d.out.Tokens()[0] = 2 * d.in.FirstToken()
        d.ReleaseData()
        return stream.OK, nil
    }

Process reports NoInput or NoOutput when it cannot proceed and Finished
when it will never produce again. Composite algorithms expose inner
ports through SinkProxy and SourceProxy.

Execution

Networks are built and executed by the network package:

    n, err := network.New([]stream.Algorithm{generator})
    stats, err := n.Run(ctx)

Execution is cooperative and single-threaded: the scheduler calls
algorithms in topological order until every generator is finished and
all buffered tokens are consumed.
*/
package stream
