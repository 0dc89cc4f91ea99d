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

package commands

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/thestormforge/glmfuzz/cli/internal/commander"
	"github.com/thestormforge/glmfuzz/cli/internal/commands/check"
	"github.com/thestormforge/glmfuzz/cli/internal/commands/completion"
	"github.com/thestormforge/glmfuzz/cli/internal/commands/configure"
	"github.com/thestormforge/glmfuzz/cli/internal/commands/docs"
	"github.com/thestormforge/glmfuzz/cli/internal/commands/params"
	"github.com/thestormforge/glmfuzz/cli/internal/commands/ping"
	"github.com/thestormforge/glmfuzz/cli/internal/commands/run"
	"github.com/thestormforge/glmfuzz/cli/internal/commands/version"
	"github.com/thestormforge/glmfuzz/internal/cloud"
	"github.com/thestormforge/glmfuzz/internal/config"
	"github.com/thestormforge/glmfuzz/internal/dataset"
	"github.com/thestormforge/glmfuzz/internal/driver"
	"github.com/thestormforge/glmfuzz/internal/h2o"
)

// NewRootCommand creates a new top-level command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "glmfuzz",
		Short:             "Fuzz the Poisson GLM with random parameters",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	// Create a global configuration
	cfg := &config.GLMFuzzConfig{}
	lo := &commander.LogOptions{}
	commander.ConfigGlobals(cfg, lo, rootCmd)

	// Fuzzing Commands
	rootCmd.AddCommand(run.NewCommand(&run.Options{Config: cfg, LogOptions: lo}))
	rootCmd.AddCommand(params.NewCommand(&params.Options{}))
	rootCmd.AddCommand(check.NewCommand(&check.Options{}))

	// Cloud Commands
	rootCmd.AddCommand(ping.NewCommand(&ping.Options{Config: cfg}))

	// Administrative Commands
	rootCmd.AddCommand(configure.NewCommand(&configure.Options{Config: cfg}))
	rootCmd.AddCommand(completion.NewCommand(&completion.Options{}))
	rootCmd.AddCommand(version.NewCommand(&version.Options{Config: cfg}))
	rootCmd.AddCommand(docs.NewCommand(&docs.Options{}))

	commander.MapErrors(rootCmd, mapError)
	return rootCmd
}

// mapError intercepts errors returned by commands before they are reported.
func mapError(err error) error {
	var trialErr *driver.TrialError
	if errors.As(err, &trialErr) {
		switch {
		case h2o.IsServiceFault(trialErr.Cause):
			return fmt.Errorf("%w\nthe service failed to fit the model, rerun with --seed to reproduce", err)
		case errors.Is(trialErr.Cause, context.DeadlineExceeded):
			return fmt.Errorf("%w\nthe model did not fit in time, try increasing --timeout", err)
		}
		return err
	}

	var formationErr *cloud.FormationError
	if errors.As(err, &formationErr) {
		return fmt.Errorf("%w, check the --address or 'glmfuzz ping'", err)
	}

	var notFoundErr *dataset.NotFoundError
	if errors.As(err, &notFoundErr) {
		return fmt.Errorf("%w, use --dataset or set dataset.roots", err)
	}

	if h2o.IsNotFound(err) {
		return fmt.Errorf("%w, the cloud may have restarted since the dataset was parsed", err)
	}

	// It's really annoying to just get an "exit status was one" message.
	var e *exec.ExitError
	if errors.As(err, &e) && !e.Success() && len(e.Stderr) > 0 {
		return fmt.Errorf("%w\n%s", err, string(e.Stderr))
	}

	return err
}
