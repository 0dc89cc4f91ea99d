/*
Copyright 2020 GramLabs, Inc.

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

package configure

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thestormforge/glmfuzz/cli/internal/commander"
	"github.com/thestormforge/glmfuzz/internal/config"
	"sigs.k8s.io/yaml"
)

// ViewOptions are the options for viewing a configuration file
type ViewOptions struct {
	// Config is the fuzzer configuration to view
	Config *config.GLMFuzzConfig
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// Output is the format to output data in
	Output string
	// FileOnly causes view to just dump the configuration file to out
	FileOnly bool
}

// NewViewCommand creates a new command for viewing the configuration
func NewViewCommand(o *ViewOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View the effective configuration",
		Long:  "View the glmfuzz configuration with defaults and overrides applied",

		PreRun: commander.StreamsPreRun(&o.IOStreams),
		RunE:   commander.WithoutArgsE(o.view),
	}

	cmd.Flags().StringVarP(&o.Output, "output", "o", "yaml", "output `format`")
	cmd.Flags().BoolVar(&o.FileOnly, "raw", false, "display the raw configuration file without merging")

	commander.SetFlagValues(cmd, "output", "yaml", "json")

	return cmd
}

func (o *ViewOptions) view() error {
	// Dump the raw config file bytes to the console
	if o.FileOnly {
		f, err := os.Open(o.Config.Filename)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(o.Out, f)
		return err
	}

	// Never display the token
	cfg := o.Config.Effective()
	if cfg.Server.Token != "" {
		cfg.Server.Token = "REDACTED"
	}

	switch strings.ToLower(o.Output) {
	case "yaml", "":
		output, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = o.Out.Write(output)
		return err

	case "json":
		output, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(o.Out, string(output))
		return err

	default:
		return fmt.Errorf("unknown output format: %s", o.Output)
	}
}
