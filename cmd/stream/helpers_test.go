package main

import (
	"context"

	"pipelined.dev/stream"
	"pipelined.dev/stream/algorithms"
	"pipelined.dev/stream/network"
	"pipelined.dev/stream/signal"
)

func connectAndRun(in *algorithms.VectorInput[signal.Stereo], w *algorithms.WavWriter) error {
	if err := stream.Connect[signal.Stereo](in.Out(), w.In()); err != nil {
		return err
	}
	n, err := network.New([]stream.Algorithm{in})
	if err != nil {
		return err
	}
	_, err = n.Run(context.Background())
	return err
}
