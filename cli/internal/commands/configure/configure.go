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
	"github.com/spf13/cobra"
	"github.com/thestormforge/glmfuzz/internal/config"
)

// Options are the options for the configuration commands
type Options struct {
	// Config is the fuzzer configuration
	Config *config.GLMFuzzConfig
}

// NewCommand creates a new command for working with the configuration
func NewCommand(o *Options) *cobra.Command {
	vo := &ViewOptions{Config: o.Config}
	cmd := NewViewCommand(vo)
	cmd.Use = "config"
	cmd.Short = "Work with the configuration"
	cmd.Long = "View or modify the glmfuzz configuration"

	cmd.AddCommand(NewViewCommand(&ViewOptions{Config: o.Config}))
	cmd.AddCommand(NewSetCommand(&SetOptions{Config: o.Config}))

	return cmd
}
