/*
Copyright 2021 GramLabs, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package params

import (
	"fmt"

	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"
	"github.com/thestormforge/glmfuzz/cli/internal/commander"
	"github.com/thestormforge/glmfuzz/internal/params"
	"github.com/thestormforge/glmfuzz/internal/trial"
)

// Options is the configuration for printing the parameter space
type Options struct {
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// RichParameters selects the larger parameter space
	RichParameters bool
	// UnstableLinks adds link functions that may not converge
	UnstableLinks bool
	// Sample prints the requests a run with Seed would make instead of the space
	Sample int
	// Seed is used when sampling
	Seed int64
	// Color enables colored JSON
	Color bool
}

// NewCommand creates a new command for printing the parameter space
func NewCommand(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print the GLM parameter space",
		Long:  "Print the parameter space trials are drawn from, or the requests drawn for a seed",

		PreRun: commander.StreamsPreRun(&o.IOStreams),
		RunE:   commander.WithoutArgsE(o.params),
	}

	cmd.Flags().BoolVar(&o.RichParameters, "rich-parameters", o.RichParameters, "use the larger parameter space")
	cmd.Flags().BoolVar(&o.UnstableLinks, "unstable-links", o.UnstableLinks, "include link functions that may not converge")
	cmd.Flags().IntVar(&o.Sample, "sample", o.Sample, "print the first `count` requests drawn with the seed")
	cmd.Flags().Int64Var(&o.Seed, "seed", o.Seed, "random `seed` used when sampling")
	cmd.Flags().BoolVar(&o.Color, "color", o.Color, "colorize the output")

	return cmd
}

func (o *Options) params() error {
	space := params.DefineParams(params.Options{RichParameters: o.RichParameters, UnstableLinks: o.UnstableLinks})

	var v interface{} = space
	if o.Sample > 0 {
		gen := trial.NewSeededGenerator(space, o.Seed)
		draws := make([]trial.Draw, o.Sample)
		for i := range draws {
			draws[i] = gen.Next()
		}
		v = draws
	}

	f := prettyjson.NewFormatter()
	f.DisabledColor = !o.Color
	output, err := f.Marshal(v)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(o.Out, string(output))
	return err
}
