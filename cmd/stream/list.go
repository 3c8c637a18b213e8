package main

import (
	"flag"
	"fmt"
	"io"

	"pipelined.dev/stream/algorithms"
	"pipelined.dev/stream/registry"
)

type listCommand struct {
	stdout  io.Writer
	verbose bool
}

// Implement command interface.
func (cmd *listCommand) Name() string {
	return "list"
}

func (cmd *listCommand) Help() string {
	return "Show the list of available algorithms"
}

func (cmd *listCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.verbose, "v", false, "print ports and parameters of algorithms")
}

func (cmd *listCommand) Run() error {
	r := registry.New()
	defer r.Close()
	if err := algorithms.Register(r); err != nil {
		return err
	}
	fmt.Fprintln(cmd.stdout, "Available algorithms:")
	for _, name := range r.Names() {
		info, err := r.Describe(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.stdout, "  %s\t%s\n", info.Name, info.Description)
		if !cmd.verbose {
			continue
		}
		for _, p := range info.Inputs {
			fmt.Fprintf(cmd.stdout, "    in  %s %s\t%s\n", p.Name, p.Type, p.Description)
		}
		for _, p := range info.Outputs {
			fmt.Fprintf(cmd.stdout, "    out %s %s\t%s\n", p.Name, p.Type, p.Description)
		}
		for _, p := range info.Parameters {
			line := fmt.Sprintf("    param %s", p.Name)
			if p.Range != "" {
				line += " " + p.Range
			}
			if p.Default != nil {
				line += fmt.Sprintf(" = %v", p.Default)
			}
			fmt.Fprintln(cmd.stdout, line+"\t"+p.Description)
		}
	}
	return nil
}
