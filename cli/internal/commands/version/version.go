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

package version

import (
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/thestormforge/glmfuzz/cli/internal/commander"
	"github.com/thestormforge/glmfuzz/internal/config"
	"github.com/thestormforge/glmfuzz/internal/h2o"
	"github.com/thestormforge/glmfuzz/internal/version"
)

// defaultTemplate is used to format the version information
const defaultTemplate = `{{range $key, $value := . }}{{$key}} version: {{$value}}
{{end}}`

// Options is the configuration for reporting version information
type Options struct {
	// Config is the fuzzer configuration
	Config *config.GLMFuzzConfig
	// API is used to ask the cloud for its version
	API h2o.API
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// Product is the current product name
	Product string
	// Cloud includes the version of the cloud
	Cloud bool
	// Output is the format to output data in
	Output string
}

// NewCommand creates a new command for reporting version information
func NewCommand(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version information",

		PreRunE: func(cmd *cobra.Command, args []string) error {
			if o.Product == "" {
				o.Product = cmd.Root().Name()
			}
			commander.SetStreams(&o.IOStreams, cmd)
			if !o.Cloud || o.API != nil {
				return nil
			}
			return commander.SetAPI(&o.API, o.Config, cmd)
		},
		RunE: commander.WithContextE(o.version),
	}

	cmd.Flags().BoolVar(&o.Cloud, "cloud", false, "include the version reported by the cloud")
	cmd.Flags().StringVarP(&o.Output, "output", "o", "", "output `format`")

	commander.SetFlagValues(cmd, "output", "json")

	return cmd
}

func (o *Options) version(ctx context.Context) error {
	data := map[string]string{
		o.Product: version.GetInfo().String(),
	}

	if o.Cloud {
		cs, err := o.API.Cloud(ctx)
		if err != nil {
			return err
		}
		data["cloud"] = cs.Version
	}

	switch o.Output {
	case "json":
		info := map[string]interface{}{o.Product: version.GetInfo()}
		if v, ok := data["cloud"]; ok {
			info["cloud"] = v
		}
		output, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(o.Out, string(output))
		return err
	case "":
		return template.Must(template.New("version").Parse(defaultTemplate)).Execute(o.Out, data)
	default:
		return fmt.Errorf("unknown output format: %s", o.Output)
	}
}
